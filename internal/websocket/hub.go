// Package websocket pushes dataset events to open dashboard pages.
//
// A single Hub goroutine owns the client set. Each connected page gets a
// Client with a read pump and a write pump; the hub only ever talks to a
// client through its buffered send channel, and a client that cannot keep up
// is disconnected instead of blocking the broadcast.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"ecorecovery/internal/dataset"
	"ecorecovery/internal/infrastructure"
	"ecorecovery/pkg/contracts/events"
)

// ErrHubStopped is returned when registering with or broadcasting through a
// hub that is not running.
var ErrHubStopped = errors.New("websocket hub is not running")

// Options tunes connection keep-alive and buffering.
type Options struct {
	// PongWait is how long a client may stay silent before it is dropped
	PongWait time.Duration
	// PingPeriod must be shorter than PongWait
	PingPeriod time.Duration
	WriteWait  time.Duration
	// SendBuffer is the per-client outbound queue length
	SendBuffer int
}

// DefaultOptions returns the keep-alive settings used when none are given.
func DefaultOptions() Options {
	return Options{
		PongWait:   60 * time.Second,
		PingPeriod: 54 * time.Second,
		WriteWait:  10 * time.Second,
		SendBuffer: 16,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.PongWait <= 0 {
		o.PongWait = def.PongWait
	}
	if o.PingPeriod <= 0 || o.PingPeriod >= o.PongWait {
		o.PingPeriod = (o.PongWait * 9) / 10
	}
	if o.WriteWait <= 0 {
		o.WriteWait = def.WriteWait
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = def.SendBuffer
	}
	return o
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients map[*Client]struct{}

	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	running bool
	quit    chan struct{}
	done    chan struct{}

	opts    Options
	logger  *slog.Logger
	metrics *Metrics

	totalConnections int64
	messagesSent     int64
	messagesDropped  int64
}

type outbound struct {
	msgType events.MessageType
	payload []byte
}

// NewHub creates a hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *Metrics, opts Options) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan outbound, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		opts:       opts.withDefaults(),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
	}
}

// Start runs the hub loop in its own goroutine. Calling Start twice is a
// no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	h.running = true
	go h.run()
}

// Stop disconnects every client and waits for the hub loop to exit.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	close(h.quit)
	h.mu.Unlock()

	<-h.done
	h.logger.Info("Hub stopped")
}

func (h *Hub) run() {
	defer close(h.done)
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.totalConnections++
			count := len(h.clients)
			h.mu.Unlock()

			ctx := client.context()
			h.metrics.RecordConnection(ctx)
			h.logger.InfoContext(ctx, "Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			greeting, err := encode(events.MessageTypeConnect, events.ConnectData{Status: "connected", ClientID: client.id}, client.traceID)
			if err == nil {
				select {
				case client.send <- greeting:
				default:
				}
			}

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()

			if ok {
				ctx := client.context()
				h.metrics.RecordDisconnection(ctx, time.Since(client.connectedAt), "closed")
				h.logger.InfoContext(ctx, "Client unregistered",
					slog.Int("total_clients", count),
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
			}

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) deliver(msg outbound) {
	ctx := context.Background()

	h.mu.Lock()
	delivered, dropped := 0, 0
	for client := range h.clients {
		select {
		case client.send <- msg.payload:
			delivered++
		default:
			// Slow consumer: drop the client rather than block everyone
			delete(h.clients, client)
			close(client.send)
			dropped++
			h.metrics.RecordDisconnection(ctx, time.Since(client.connectedAt), "slow_consumer")
			h.logger.WarnContext(client.context(), "Client send buffer full, disconnecting",
				slog.String("client_id", client.id))
		}
	}
	h.messagesSent += int64(delivered)
	h.messagesDropped += int64(dropped)
	h.mu.Unlock()

	h.metrics.RecordBroadcast(ctx, string(msg.msgType))
	h.logger.Debug("Broadcast delivered",
		slog.String("type", string(msg.msgType)),
		slog.Int("delivered", delivered),
		slog.Int("dropped", dropped),
		slog.Int("message_size", len(msg.payload)))
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) error {
	h.mu.RLock()
	running := h.running
	h.mu.RUnlock()
	if !running {
		return ErrHubStopped
	}

	select {
	case h.register <- client:
		return nil
	case <-h.quit:
		return ErrHubStopped
	}
}

// Broadcast queues an event for every connected client. It never blocks:
// when the hub is stopped or its queue is full the event is dropped.
func (h *Hub) Broadcast(ctx context.Context, msgType events.MessageType, data interface{}) error {
	payload, err := encode(msgType, data, infrastructure.GetTraceID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "Error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", string(msgType)))
		return err
	}

	select {
	case <-h.quit:
		return ErrHubStopped
	default:
	}

	select {
	case h.broadcast <- outbound{msgType: msgType, payload: payload}:
		return nil
	default:
		h.metrics.RecordDroppedMessage(ctx, "hub_queue_full")
		h.logger.WarnContext(ctx, "Broadcast queue full, dropping event",
			slog.String("message_type", string(msgType)))
		return errors.New("websocket broadcast queue is full")
	}
}

// NotifyDatasetRefreshed announces a freshly fetched dataset. Its signature
// matches loader.RefreshListener.
func (h *Hub) NotifyDatasetRefreshed(_ string, ds *dataset.Dataset) {
	if ds == nil {
		return
	}
	_ = h.Broadcast(context.Background(), events.MessageTypeDatasetRefreshed, events.DatasetRefreshed{
		Records:  ds.Len(),
		LoadedAt: ds.LoadedAt(),
	})
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns the hub counters.
func (h *Hub) Stats() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return map[string]interface{}{
		"active_clients":    len(h.clients),
		"total_connections": h.totalConnections,
		"messages_sent":     h.messagesSent,
		"messages_dropped":  h.messagesDropped,
	}
}

func encode(msgType events.MessageType, data interface{}, traceID string) ([]byte, error) {
	return json.Marshal(events.WebSocketMessage{
		BaseMessage: events.BaseMessage{
			Type:      msgType,
			Timestamp: time.Now().UTC(),
			TraceID:   traceID,
		},
		Data: data,
	})
}
