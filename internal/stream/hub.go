// Package stream pushes map sync results to the browser tabs of a viewer.
// With Redis configured every publish goes through a pub/sub channel so all
// instances serving the viewer deliver it.
package stream

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

const (
	channelPrefix = "opotopo:viewer:"
	channelSuffix = ":sync"
)

type Hub struct {
	redis   *redis.Client
	pubsub  *redis.PubSub
	clients map[string]map[*Client]struct{}
	greeter func(viewerID string) []byte
	mu      sync.RWMutex
}

type Client struct {
	ViewerID string
	Send     chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		clients: map[string]map[*Client]struct{}{},
	}
	if redisClient == nil {
		return h
	}

	ctx := context.Background()
	pubsub := redisClient.PSubscribe(ctx, channelPrefix+"*"+channelSuffix)
	if _, err := pubsub.Receive(ctx); err != nil {
		log.Printf("redis subscribe failed, delivering locally: %v", err)
		_ = pubsub.Close()
		return h
	}
	h.redis = redisClient
	h.pubsub = pubsub
	go h.forward(pubsub.Channel())
	return h
}

// SetGreeter sets the message queued to every new client, usually the
// viewer's latest state. A nil return sends nothing.
func (h *Hub) SetGreeter(fn func(viewerID string) []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.greeter = fn
}

func (h *Hub) Register(viewerID string) *Client {
	client := &Client{
		ViewerID: viewerID,
		Send:     make(chan []byte, 64),
	}

	h.mu.RLock()
	greeter := h.greeter
	h.mu.RUnlock()
	if greeter != nil {
		if msg := greeter(viewerID); msg != nil {
			client.Send <- msg
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[viewerID] == nil {
		h.clients[viewerID] = map[*Client]struct{}{}
	}
	h.clients[viewerID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	viewerClients, ok := h.clients[client.ViewerID]
	if !ok {
		return
	}
	if _, ok := viewerClients[client]; !ok {
		return
	}
	delete(viewerClients, client)
	if len(viewerClients) == 0 {
		delete(h.clients, client.ViewerID)
	}
	close(client.Send)
}

// Clients reports how many connections a viewer has on this instance.
func (h *Hub) Clients(viewerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[viewerID])
}

// Publish sends payload to every connection of the viewer.
func (h *Hub) Publish(viewerID string, payload []byte) {
	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(viewerID), payload).Err()
		if err == nil {
			return
		}
		log.Printf("redis publish error: %v", err)
	}
	h.deliver(viewerID, payload)
}

func (h *Hub) PublishJSON(viewerID string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Publish(viewerID, payload)
	return nil
}

func (h *Hub) Close() error {
	if h.pubsub == nil {
		return nil
	}
	return h.pubsub.Close()
}

func (h *Hub) deliver(viewerID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[viewerID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) forward(messages <-chan *redis.Message) {
	for msg := range messages {
		viewerID := viewerIDFromChannel(msg.Channel)
		if viewerID == "" {
			continue
		}
		h.deliver(viewerID, []byte(msg.Payload))
	}
}

func redisChannel(viewerID string) string {
	return channelPrefix + viewerID + channelSuffix
}

func viewerIDFromChannel(ch string) string {
	if !strings.HasPrefix(ch, channelPrefix) || !strings.HasSuffix(ch, channelSuffix) {
		return ""
	}
	if len(ch) <= len(channelPrefix)+len(channelSuffix) {
		return ""
	}
	return ch[len(channelPrefix) : len(ch)-len(channelSuffix)]
}
