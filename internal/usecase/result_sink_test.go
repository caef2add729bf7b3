package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"AlphaFusion/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batch(n int) []*models.AnalysisResult {
	out := make([]*models.AnalysisResult, n)
	for i := range out {
		out[i] = &models.AnalysisResult{Symbol: "A.NS", GeneratedAt: time.Now()}
	}
	return out
}

func TestSinkRoutesByBackend(t *testing.T) {
	cases := []struct {
		backend       string
		pubN, storedN int
	}{
		{BackendKafka, 2, 0},
		{BackendClickHouse, 0, 2},
		{BackendBoth, 2, 2},
		{BackendNone, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.backend, func(t *testing.T) {
			pub, store, m := &fakePublisher{}, &fakeStorage{}, newFakeMetrics()
			s := NewResultSink(pub, store, m, tc.backend)
			require.NoError(t, s.ProcessBatch(context.Background(), batch(2)))
			assert.Len(t, pub.results, tc.pubN)
			assert.Len(t, store.results, tc.storedN)
			assert.Equal(t, tc.pubN, m.sent[BackendKafka])
			assert.Equal(t, tc.storedN, m.sent[BackendClickHouse])
		})
	}
}

func TestSinkBothKeepsGoingWhenOneFails(t *testing.T) {
	pub, store, m := &fakePublisher{err: errors.New("broker down")}, &fakeStorage{}, newFakeMetrics()
	s := NewResultSink(pub, store, m, BackendBoth)

	err := s.ProcessBatch(context.Background(), batch(3))
	assert.ErrorContains(t, err, "broker down")
	assert.Len(t, store.results, 3)
	assert.Equal(t, 1, m.errorCount("publish_batch"))
}

func TestSinkUnknownBackend(t *testing.T) {
	s := NewResultSink(nil, nil, newFakeMetrics(), "s3")
	assert.Error(t, s.ProcessBatch(context.Background(), batch(1)))
	assert.Error(t, s.Process(context.Background(), nil))
}

func TestSinkMissingPublisher(t *testing.T) {
	s := NewResultSink(nil, nil, newFakeMetrics(), BackendKafka)
	assert.Error(t, s.ProcessBatch(context.Background(), batch(1)))
}

func TestSinkClose(t *testing.T) {
	pub, store := &fakePublisher{}, &fakeStorage{}
	NewResultSink(pub, store, newFakeMetrics(), BackendBoth).Close()
	assert.True(t, pub.closed)
	assert.True(t, store.closed)
}
