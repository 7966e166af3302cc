package daemon

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"splitcmd/internal/logger"
	"splitcmd/internal/model"

	"go.uber.org/zap"
)

const (
	pingInterval = 10 * time.Second
	writeWait    = 10 * time.Second
)

// Hub multiplexes every event the core emits onto every subscribed UI
// connection. A single connection backs all event types via model.Envelope.
type Hub struct {
	mu      sync.Mutex
	clients map[uuid.UUID]chan model.Envelope
}

func NewHub() *Hub {
	return &Hub{clients: make(map[uuid.UUID]chan model.Envelope)}
}

// Broadcast pushes an event to every connected client. A client whose
// outbound queue is full is skipped rather than blocking every other
// event source.
func (h *Hub) Broadcast(event string, payload any) {
	env := model.Envelope{Event: event, Payload: payload}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.clients {
		select {
		case ch <- env:
		default:
			logger.Log.Warn("dropping event for slow client", zap.String("event", event), zap.String("client", id.String()))
		}
	}
}

func (h *Hub) register() (uuid.UUID, chan model.Envelope) {
	id := uuid.New()
	ch := make(chan model.Envelope, 64)
	h.mu.Lock()
	h.clients[id] = ch
	h.mu.Unlock()
	return id, ch
}

func (h *Hub) unregister(id uuid.UUID) {
	h.mu.Lock()
	ch, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
	}
	h.mu.Unlock()
	if ok {
		close(ch)
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request to a websocket and pumps envelopes to it
// until the connection closes.
func (h *Hub) ServeWS(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	id, ch := h.register()
	defer h.unregister(id)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case env, ok := <-ch:
			if !ok {
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(env); err != nil {
				return nil
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}

		case <-closed:
			return nil
		}
	}
}
