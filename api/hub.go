package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/finwatch/newswire/pkg/models"
)

// snapshotLimit caps the article history sent to a freshly attached
// subscriber.
const snapshotLimit = 100

// ErrHubClosed is returned by Attach after Shutdown.
var ErrHubClosed = errors.New("hub is shut down")

// SnapshotStore is the read slice of the persistent store the hub
// needs to greet new subscribers.
type SnapshotStore interface {
	FindRecent(ctx context.Context, limit int) ([]models.Article, error)
}

// Hub owns the subscriber registry. All registry mutation goes through
// its methods; callers never touch the set directly. Removal is
// synchronous with the close or error event that triggered it.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]bool
	store   SnapshotStore
	closed  bool
}

// Client is one subscriber connection as the hub sees it: a buffered
// outbound queue with an open/closed flag.
type Client struct {
	hub    *Hub
	mu     sync.Mutex
	closed bool
	send   chan Envelope
}

// NewHub creates an empty hub backed by the given store for snapshots.
func NewHub(store SnapshotStore) *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		store:   store,
	}
}

// NewClient allocates an unattached client.
func (h *Hub) NewClient() *Client {
	return &Client{hub: h, send: make(chan Envelope, 256)}
}

// Attach registers the client, acknowledges the connection, and sends
// it a snapshot of the most recent articles. A store fault degrades to
// an error envelope so the client can tell the difference from an
// empty store.
func (h *Hub) Attach(ctx context.Context, c *Client) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHubClosed
	}
	h.clients[c] = true
	h.mu.Unlock()

	c.trySend(ackEnvelope())

	recent, err := h.store.FindRecent(ctx, snapshotLimit)
	if err != nil {
		log.Printf("hub: snapshot query failed: %v", err)
		c.trySend(errorEnvelope("snapshot unavailable"))
		return nil
	}
	c.trySend(snapshotEnvelope(recent))
	return nil
}

// Detach removes the client from the registry and closes its outbound
// queue. Safe to call more than once and from any goroutine.
func (h *Hub) Detach(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// PublishArticles fans an article-update envelope out to every open
// subscriber. An empty batch sends nothing.
func (h *Hub) PublishArticles(articles []models.Article) {
	if len(articles) == 0 {
		return
	}
	h.broadcast(articleUpdateEnvelope(articles))
}

// PublishSummary fans a summary-update envelope out to every open
// subscriber.
func (h *Hub) PublishSummary(summary models.Summary) {
	h.broadcast(summaryUpdateEnvelope(summary))
}

func (h *Hub) broadcast(env Envelope) {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		// A client that closed between the registry read and the send,
		// or whose queue is full, is dropped here rather than blocking
		// the rest of the fan-out.
		if !c.trySend(env) {
			h.Detach(c)
		}
	}
}

// inboundMessage is what subscribers are allowed to say to us.
type inboundMessage struct {
	Type string `json:"type"`
}

// HandleInbound processes one message from a subscriber. Pings get a
// unicast pong; anything else gets an error envelope back.
func (h *Hub) HandleInbound(c *Client, raw []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("hub: undecodable client message: %v", err)
		c.trySend(errorEnvelope("malformed message"))
		return
	}
	switch msg.Type {
	case TypePing:
		c.trySend(pongEnvelope())
	default:
		log.Printf("hub: unknown client message type %q", msg.Type)
		c.trySend(errorEnvelope("unknown message type"))
	}
}

// ConnectionCount reports the current registry size.
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Shutdown detaches every subscriber and refuses new attachments.
// Safe to call more than once.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
		delete(h.clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

// trySend queues an envelope without blocking. It reports false when
// the client is closed or its queue is full.
func (c *Client) trySend(env Envelope) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- env:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}
