package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Hub fans events out to every websocket client attached to a trip room.
// With redis configured, publishes also go through a pub/sub backplane so
// clients connected to other instances see them too.
type Hub struct {
	id      string
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

// backplaneFrame wraps a payload on the redis channel with the publishing
// instance's id, so a hub can tell its own publishes echoing back from
// frames that originated elsewhere.
type backplaneFrame struct {
	Src     string `json:"src"`
	Payload []byte `json:"payload"`
}

type Client struct {
	TripID string
	Send   chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		id:      uuid.NewString(),
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(tripID string) *Client {
	client := &Client{
		TripID: tripID,
		Send:   make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[tripID] == nil {
		h.clients[tripID] = map[*Client]struct{}{}
	}
	h.clients[tripID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if tripClients, ok := h.clients[client.TripID]; ok {
		delete(tripClients, client)
		if len(tripClients) == 0 {
			delete(h.clients, client.TripID)
		}
	}
	close(client.Send)
}

// Broadcast delivers the payload to every local client in the room exactly
// once, and publishes it tagged with this instance's id so other instances
// pick it up too. Slow clients whose send buffer is full drop the message
// instead of blocking the broadcaster.
func (h *Hub) Broadcast(tripID string, payload []byte) {
	h.deliverLocal(tripID, payload)

	if h.redis != nil {
		frame, err := json.Marshal(backplaneFrame{Src: h.id, Payload: payload})
		if err != nil {
			return
		}
		if err := h.redis.Publish(context.Background(), redisChannel(tripID), frame).Err(); err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

func (h *Hub) deliverLocal(tripID string, payload []byte) {
	h.mu.RLock()
	clients := h.clients[tripID]
	h.mu.RUnlock()

	for client := range clients {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "trip:*:chat")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		tripID := tripIDFromChannel(msg.Channel)
		if tripID == "" {
			continue
		}
		var frame backplaneFrame
		if err := json.Unmarshal([]byte(msg.Payload), &frame); err != nil {
			continue
		}
		// Locals already got this payload when we published it.
		if frame.Src == h.id {
			continue
		}
		h.deliverLocal(tripID, frame.Payload)
	}
}

func redisChannel(tripID string) string {
	return "trip:" + tripID + ":chat"
}

func tripIDFromChannel(ch string) string {
	// trip:{id}:chat
	const prefix = "trip:"
	const suffix = ":chat"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
