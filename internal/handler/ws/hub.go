// Package ws streams poll-cycle analysis results to websocket subscribers.
package ws

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"AlphaFusion/internal/domain/models"
	"AlphaFusion/internal/service/metrics"
	applogger "AlphaFusion/pkg/logger"
)

// Config controls per-client buffering and keepalive.
type Config struct {
	SendBuffer   int
	WriteTimeout time.Duration
	PingInterval time.Duration
	PongTimeout  time.Duration
}

// DefaultConfig returns the keepalive settings used when none are given.
func DefaultConfig() Config {
	return Config{
		SendBuffer:   64,
		WriteTimeout: 10 * time.Second,
		PingInterval: 30 * time.Second,
		PongTimeout:  60 * time.Second,
	}
}

// Envelope is the frame sent to clients.
type Envelope struct {
	Type string              `json:"type"`
	Data models.AnalysisView `json:"data"`
}

// Hub fans results out to connected clients.
type Hub struct {
	cfg    Config
	logger *applogger.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool

	slowDrops atomic.Int64
}

func NewHub(cfg Config, logger *applogger.Logger) *Hub {
	def := DefaultConfig()
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.PongTimeout <= cfg.PingInterval {
		cfg.PongTimeout = 2 * cfg.PingInterval
	}
	if logger == nil {
		logger = applogger.NewNop()
	}
	metrics.Register()
	return &Hub{cfg: cfg, logger: logger, clients: make(map[*Client]struct{})}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SlowDrops counts frames dropped because a client's send buffer was full.
func (h *Hub) SlowDrops() int64 { return h.slowDrops.Load() }

func (h *Hub) add(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	metrics.WSClients.Set(float64(len(h.clients)))
	return true
}

// remove unregisters c and closes its send channel exactly once.
func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	metrics.WSClients.Set(float64(len(h.clients)))
	h.mu.Unlock()
	close(c.send)
}

// OnResult broadcasts successful poll-cycle results. Error records are not streamed.
func (h *Hub) OnResult(_ context.Context, r *models.AnalysisResult) {
	if r == nil || r.Failed() {
		return
	}
	h.Broadcast(r.Symbol, Envelope{Type: "analysis", Data: r.View()})
}

// Broadcast sends env to every client subscribed to symbol. A client whose
// buffer is full misses the frame instead of stalling the others.
func (h *Hub) Broadcast(symbol string, env Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		h.logger.Error("ws envelope marshal failed", applogger.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.wants(symbol) {
			continue
		}
		select {
		case c.send <- payload:
		default:
			h.slowDrops.Add(1)
		}
	}
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.remove(c)
	}
}
