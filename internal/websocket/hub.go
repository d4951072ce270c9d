package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dom/socialpedia/internal/events"
	"github.com/sirupsen/logrus"
)

// Hub fans feed events out to connected clients. Post events go to every
// client; friend events only to the two users involved.
type Hub struct {
	clients    map[*Client]bool
	unregister chan *Client
	broadcast  chan events.Event
	stop       chan struct{}
	stopOnce   sync.Once
	done       chan struct{} // closed when Run() exits
	stopped    bool
	mu         sync.RWMutex
	log        logrus.FieldLogger
}

func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		unregister: make(chan *Client),
		broadcast:  make(chan events.Event, 256),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		log:        log,
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true
			for client := range h.clients {
				close(client.send)
			}
			h.clients = make(map[*Client]bool)
			h.mu.Unlock()
			return

		case client := <-h.unregister:
			h.remove(client)

		case ev := <-h.broadcast:
			h.deliver(ev)
		}
	}
}

// Stop shuts the hub down and closes every client. It blocks until Run
// has returned.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

// Register adds client synchronously, so messages sent right after it
// returns are delivered. A stopped hub closes the client immediately.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		close(client.send)
		return
	}
	h.clients[client] = true
	h.log.WithField("user_id", client.userID).Debug("websocket client connected")
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues ev for delivery. It implements events.Publisher.
func (h *Hub) Publish(ctx context.Context, ev events.Event) error {
	select {
	case h.broadcast <- ev:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) deliver(ev events.Event) {
	msgType, ok := eventMessageTypes[ev.Type]
	if !ok {
		return
	}
	msg, err := NewMessage(msgType, ev)
	if err != nil {
		h.log.WithError(err).WithField("event", ev.Type).Warn("failed to encode event")
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.WithError(err).WithField("event", ev.Type).Warn("failed to encode message")
		return
	}

	var slow []*Client
	h.mu.RLock()
	for client := range h.clients {
		if !audience(ev, client) {
			continue
		}
		select {
		case client.send <- data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.log.WithField("user_id", client.userID).Warn("dropping slow websocket client")
		h.remove(client)
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// enqueue sends data to a registered client without blocking.
func (h *Hub) enqueue(client *Client, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.clients[client] {
		return false
	}
	select {
	case client.send <- data:
		return true
	default:
		return false
	}
}

func audience(ev events.Event, client *Client) bool {
	switch ev.Type {
	case events.FriendAdded, events.FriendRemoved:
		return client.userID == ev.ActorID || client.userID == ev.SubjectID
	default:
		return true
	}
}
