package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"AlphaFusion/internal/domain/models"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	e := echo.New()
	NewHandler(hub, nil).RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/signals" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

func result(sym string, score float64) *models.AnalysisResult {
	return &models.AnalysisResult{Symbol: sym, Score: score, Signal: models.SignalHold, GeneratedAt: time.Now()}
}

func TestHubStreamsFilteredResults(t *testing.T) {
	hub := NewHub(DefaultConfig(), nil)
	srv := startServer(t, hub)

	all := dial(t, srv, "")
	tcsOnly := dial(t, srv, "?symbols=tcs.ns")
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	hub.OnResult(context.Background(), result("INFY.NS", 40))
	hub.OnResult(context.Background(), result("TCS.NS", 61.239))

	env := readEnvelope(t, all)
	assert.Equal(t, "analysis", env.Type)
	assert.Equal(t, "INFY.NS", env.Data.Symbol)
	assert.Equal(t, "TCS.NS", readEnvelope(t, all).Data.Symbol)

	env = readEnvelope(t, tcsOnly)
	assert.Equal(t, "TCS.NS", env.Data.Symbol)
	assert.Equal(t, 61.24, env.Data.Score)
}

func TestHubSkipsErrorRecords(t *testing.T) {
	hub := NewHub(DefaultConfig(), nil)
	srv := startServer(t, hub)
	conn := dial(t, srv, "")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.OnResult(context.Background(), &models.AnalysisResult{Symbol: "X.NS", Error: "boom", GeneratedAt: time.Now()})
	hub.OnResult(context.Background(), result("Y.NS", 50))
	assert.Equal(t, "Y.NS", readEnvelope(t, conn).Data.Symbol)
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	hub := NewHub(DefaultConfig(), nil)
	srv := startServer(t, hub)
	conn := dial(t, srv, "")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Close()
	assert.Equal(t, 0, hub.ClientCount())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestClientFilter(t *testing.T) {
	hub := NewHub(DefaultConfig(), nil)
	c := newClient(hub, nil, []string{"tcs.ns"})
	assert.True(t, c.wants("TCS.NS"))
	assert.False(t, c.wants("INFY.NS"))
	assert.True(t, newClient(hub, nil, nil).wants("ANY"))
}

func TestSlowClientDropsFrames(t *testing.T) {
	hub := NewHub(Config{SendBuffer: 1}, nil)
	c := newClient(hub, nil, nil)
	require.True(t, hub.add(c))

	hub.Broadcast("A.NS", Envelope{Type: "analysis"})
	hub.Broadcast("A.NS", Envelope{Type: "analysis"})
	assert.EqualValues(t, 1, hub.SlowDrops())

	hub.remove(c)
	hub.remove(c)
	assert.Equal(t, 0, hub.ClientCount())
}
