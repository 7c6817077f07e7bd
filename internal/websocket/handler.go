package websocket

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	apierrors "ecorecovery/internal/errors"
	"ecorecovery/internal/infrastructure"
)

// HandlerConfig configures the upgrade endpoint.
type HandlerConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	// AllowedOrigins lists cross-origin pages that may connect. Same-origin
	// requests and requests without an Origin header are always accepted.
	AllowedOrigins []string
}

// Handler upgrades HTTP requests to WebSocket connections on a hub.
type Handler struct {
	hub          *Hub
	upgrader     websocket.Upgrader
	allowed      map[string]struct{}
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewHandler creates the upgrade endpoint for hub.
func NewHandler(hub *Hub, cfg HandlerConfig, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	h := &Handler{
		hub:     hub,
		allowed: make(map[string]struct{}, len(cfg.AllowedOrigins)),
		logger:  logger.With(slog.String("component", "websocket.handler")),
	}
	h.errorHandler = apierrors.NewErrorHandler(h.logger, false)
	for _, o := range cfg.AllowedOrigins {
		h.allowed[strings.TrimRight(o, "/")] = struct{}{}
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
		Error:           h.upgradeError,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	if _, ok := h.allowed[strings.TrimRight(origin, "/")]; ok {
		return true
	}
	h.logger.WarnContext(r.Context(), "WebSocket origin check - origin not allowed",
		slog.String("origin", origin),
		slog.String("host", r.Host))
	return false
}

func (h *Handler) upgradeError(w http.ResponseWriter, r *http.Request, status int, reason error) {
	h.errorHandler.HandleError(w, r, apierrors.WebSocketUpgradeError(status, reason))
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already answered the request
		return
	}

	traceID := infrastructure.GetTraceID(r.Context())
	client := NewClient(h.hub, conn, traceID)
	if err := client.Serve(); err != nil {
		h.logger.WarnContext(r.Context(), "WebSocket client rejected",
			slog.String("error", err.Error()))
		return
	}

	h.logger.InfoContext(r.Context(), "WebSocket client connected",
		slog.String("client_id", client.ID()),
		slog.String("remote_addr", r.RemoteAddr))
}
