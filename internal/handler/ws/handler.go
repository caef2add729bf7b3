package ws

import (
	"net/http"
	"strings"

	applogger "AlphaFusion/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Handler upgrades /ws/signals requests and registers the peers on a Hub.
type Handler struct {
	hub       *Hub
	normalize func(string) string
	upgrader  websocket.Upgrader
}

// NewHandler creates the websocket route. normalize maps user tickers to
// exchange symbols and may be nil.
func NewHandler(hub *Hub, normalize func(string) string) *Handler {
	if normalize == nil {
		normalize = strings.ToUpper
	}
	return &Handler{
		hub:       hub,
		normalize: normalize,
		upgrader: websocket.Upgrader{
			CheckOrigin:       func(r *http.Request) bool { return true },
			EnableCompression: true,
		},
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/signals", h.Signals)
}

// Signals serves GET /ws/signals?symbols=A,B.
func (h *Handler) Signals(c echo.Context) error {
	var symbols []string
	for _, s := range strings.Split(c.QueryParam("symbols"), ",") {
		if s = h.normalize(s); s != "" {
			symbols = append(symbols, s)
		}
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.hub.logger.Debug("ws upgrade failed", applogger.Error(err))
		return nil
	}

	client := newClient(h.hub, conn, symbols)
	if !h.hub.add(client) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		_ = conn.Close()
		return nil
	}
	h.hub.logger.Info("ws client connected",
		applogger.Strings("symbols", symbols),
		applogger.Int("clients", h.hub.ClientCount()),
	)

	go client.writePump()
	go client.readPump()
	return nil
}
