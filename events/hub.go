package events

import (
	"sync"

	"github.com/skillsenselab/speakerline/logger"
)

// Client is one connected SSE subscriber for a stream.
type Client struct {
	id       string
	streamID string
	events   chan []byte
	log      *logger.Logger
}

// NewClient creates a subscriber for the given stream.
func NewClient(id, streamID string, log *logger.Logger) *Client {
	return &Client{
		id:       id,
		streamID: streamID,
		events:   make(chan []byte, 256),
		log:      log,
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() string { return c.id }

// StreamID returns the stream this client subscribes to.
func (c *Client) StreamID() string { return c.streamID }

// Events returns the channel for receiving serialized events.
func (c *Client) Events() <-chan []byte { return c.events }

// Send queues data for the client. Returns false and drops when the
// client is too slow to keep up.
func (c *Client) Send(data []byte) bool {
	select {
	case c.events <- data:
		return true
	default:
		c.log.Warn("SSE client channel full, dropping event", logger.Fields(
			"client_id", c.id,
			logger.FieldStream, c.streamID,
		))
		return false
	}
}

// Close closes the client's event channel.
func (c *Client) Close() { close(c.events) }

// Hub fans serialized events out to each stream's SSE subscribers.
type Hub struct {
	log        *logger.Logger
	register   chan *Client
	unregister chan *Client
	broadcast  chan streamMessage
	done       chan struct{}

	mu      sync.RWMutex
	clients map[string]map[string]*Client // streamID -> clientID -> client
	stopped bool
}

type streamMessage struct {
	streamID string
	data     []byte
}

// NewHub creates an empty hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:        log.WithComponent("events.hub"),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan streamMessage, 256),
		done:       make(chan struct{}),
		clients:    make(map[string]map[string]*Client),
	}
}

// Run starts the hub's event loop. It blocks until Stop is called;
// run it in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			byStream := h.clients[client.streamID]
			if byStream == nil {
				byStream = make(map[string]*Client)
				h.clients[client.streamID] = byStream
			}
			byStream[client.id] = client
			h.mu.Unlock()
			h.log.Debug("SSE client registered", logger.Fields(
				"client_id", client.id,
				logger.FieldStream, client.streamID,
			))

		case client := <-h.unregister:
			h.mu.Lock()
			if byStream, ok := h.clients[client.streamID]; ok {
				if _, ok := byStream[client.id]; ok {
					delete(byStream, client.id)
					client.Close()
				}
				if len(byStream) == 0 {
					delete(h.clients, client.streamID)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.deliver(msg.streamID, msg.data)
		}
	}
}

// Stop shuts the hub down, closing all subscribers. Safe to call
// multiple times.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.stopped {
		h.stopped = true
		close(h.done)
	}
}

// Register adds a subscriber to the hub.
func (h *Hub) Register(client *Client) { h.register <- client }

// Unregister removes a subscriber from the hub.
func (h *Hub) Unregister(client *Client) { h.unregister <- client }

// Broadcast queues data for every subscriber of the stream.
func (h *Hub) Broadcast(streamID string, data []byte) {
	select {
	case h.broadcast <- streamMessage{streamID: streamID, data: data}:
	case <-h.done:
	}
}

// ClientCount returns the number of subscribers for the stream.
func (h *Hub) ClientCount(streamID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[streamID])
}

func (h *Hub) deliver(streamID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients[streamID] {
		client.Send(data)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for streamID, byStream := range h.clients {
		for id, client := range byStream {
			client.Close()
			delete(byStream, id)
		}
		delete(h.clients, streamID)
	}
}
