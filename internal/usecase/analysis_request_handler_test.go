package usecase

import (
	"context"
	"errors"
	"testing"

	"AlphaFusion/internal/domain/models"
	"AlphaFusion/internal/services/universe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestHandlerPublishesResult(t *testing.T) {
	pub := &fakePublisher{}
	an := &scriptedAnalyzer{scores: map[string]float64{"INFY.NS": 70}}
	h := NewAnalysisRequestHandler("analysis.requests", an, universe.Default().NormalizeTicker, pub, newFakeMetrics())

	assert.Equal(t, "analysis.requests", h.Topic())
	require.NoError(t, h.Handle(context.Background(), nil, []byte(`{"symbol":"infy","request_id":"r-1"}`)))
	require.Len(t, pub.results, 1)
	assert.Equal(t, "INFY.NS", pub.results[0].Symbol)
	assert.Equal(t, "r-1", pub.results[0].CycleID)
}

func TestRequestHandlerSymbolFromKey(t *testing.T) {
	pub := &fakePublisher{}
	an := &scriptedAnalyzer{scores: map[string]float64{"TCS.NS": 50}}
	h := NewAnalysisRequestHandler("t", an, universe.Default().NormalizeTicker, pub, newFakeMetrics())

	require.NoError(t, h.Handle(context.Background(), []byte("tcs"), []byte(`{}`)))
	require.Len(t, pub.results, 1)
	assert.Equal(t, "TCS.NS", pub.results[0].Symbol)
}

func TestRequestHandlerPermanentErrorIsPublished(t *testing.T) {
	pub := &fakePublisher{}
	an := &scriptedAnalyzer{fail: map[string]error{"X.NS": models.ErrSymbolNotFound}}
	h := NewAnalysisRequestHandler("t", an, nil, pub, newFakeMetrics())

	require.NoError(t, h.Handle(context.Background(), nil, []byte(`{"symbol":"X.NS"}`)))
	require.Len(t, pub.results, 1)
	assert.True(t, pub.results[0].Failed())
}

func TestRequestHandlerTransientErrorIsReturned(t *testing.T) {
	pub := &fakePublisher{}
	an := &scriptedAnalyzer{fail: map[string]error{"X.NS": errors.New("timeout")}}
	h := NewAnalysisRequestHandler("t", an, nil, pub, newFakeMetrics())

	assert.Error(t, h.Handle(context.Background(), nil, []byte(`{"symbol":"X.NS"}`)))
	assert.Empty(t, pub.results)
}

func TestRequestHandlerBadPayload(t *testing.T) {
	m := newFakeMetrics()
	h := NewAnalysisRequestHandler("t", &scriptedAnalyzer{}, nil, &fakePublisher{}, m)

	assert.Error(t, h.Handle(context.Background(), nil, []byte(`not json`)))
	assert.Error(t, h.Handle(context.Background(), nil, []byte(`{}`)))
	assert.Equal(t, 1, m.errorCount("request_unmarshal"))
	assert.Equal(t, 1, m.errorCount("request_invalid"))
}
