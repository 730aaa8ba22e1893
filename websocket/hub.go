package websocket

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anjiri1684/wellness_booking/notifications"
)

const (
	writeWait      = 10 * time.Second
	clientQueueLen = 16
)

// ErrHubBusy is returned by Notify when the hub cannot take the push without waiting.
var ErrHubBusy = errors.New("notification hub is busy")

// Conn is the subset of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v any) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type Client struct {
	UserID uuid.UUID
	Conn   Conn

	send chan notifications.Message
}

type delivery struct {
	userID  uuid.UUID
	message notifications.Message
}

// Hub pushes notifications to every live socket of the recipient. Connection
// bookkeeping happens on the Run goroutine; each client has its own writer so
// a slow socket never stalls the hub.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan delivery
	done       chan struct{}
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan delivery, 64),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run owns the connection set until ctx is cancelled, then closes every socket.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.clients {
				for client := range clients {
					close(client.send)
					_ = client.Conn.Close()
				}
			}
			h.clients = map[uuid.UUID]map[*Client]struct{}{}
			return
		case client := <-h.register:
			clients, ok := h.clients[client.UserID]
			if !ok {
				clients = make(map[*Client]struct{})
				h.clients[client.UserID] = clients
			}
			client.send = make(chan notifications.Message, clientQueueLen)
			clients[client] = struct{}{}
			go h.writeLoop(client, client.send)
			h.log.Debug("websocket client registered", zap.String("user_id", client.UserID.String()))
		case client := <-h.unregister:
			h.drop(client)
		case d := <-h.broadcast:
			for client := range h.clients[d.userID] {
				select {
				case client.send <- d.message:
				default:
					h.log.Warn("websocket client too slow, dropping", zap.String("user_id", d.userID.String()))
					h.drop(client)
					_ = client.Conn.Close()
				}
			}
		}
	}
}

// writeLoop drains one client's queue until the hub closes it.
func (h *Hub) writeLoop(client *Client, send <-chan notifications.Message) {
	for msg := range send {
		_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.Conn.WriteJSON(msg); err != nil {
			h.log.Warn("websocket write failed", zap.String("user_id", client.UserID.String()), zap.Error(err))
			_ = client.Conn.Close()
			h.Unregister(client)
			for range send {
			}
			return
		}
	}
}

func (h *Hub) drop(client *Client) {
	clients, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.UserID)
	}
}

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		_ = c.Conn.Close()
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Notify queues the message for the recipient's sockets without waiting.
// Users without a live connection simply miss the push.
func (h *Hub) Notify(_ context.Context, to notifications.Recipient, subject, body string) error {
	select {
	case <-h.done:
		return nil
	default:
	}

	select {
	case h.broadcast <- delivery{userID: to.UserID, message: notifications.Message{To: to, Subject: subject, Body: body}}:
		return nil
	default:
		return ErrHubBusy
	}
}
