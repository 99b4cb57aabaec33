package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"duoqueue-dating-app/internal/models"
	"duoqueue-dating-app/internal/redis"
)

const messageChannel = "chat:messages"

// ConversationTopic keys the realtime channel for a user pair. The pair is
// canonicalized, so rows flowing in either direction land on the same topic
// and subscribers never need to filter by direction themselves.
func ConversationTopic(a, b uint) string {
	u1, u2 := models.CanonicalPair(a, b)
	return fmt.Sprintf("conv:%d:%d", u1, u2)
}

// Subscription is a handle on one conversation's realtime stream. Close must
// be called before subscribing to a different conversation, otherwise a
// stale handler keeps receiving rows.
type Subscription struct {
	hub     *Hub
	topic   string
	handler func(models.Message)

	mu     sync.Mutex
	closed bool
}

// Close detaches the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.hub.remove(s)
}

func (s *Subscription) deliver(msg models.Message) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if !closed {
		s.handler(msg)
	}
}

// Hub fans durably inserted message rows out to conversation subscribers.
// With a redis broker attached, rows travel through pub/sub so every
// instance delivers to its own connections; without one, delivery is
// in-process.
type Hub struct {
	mu            sync.RWMutex
	clients       map[*Client]bool
	subscriptions map[string]map[*Subscription]bool

	register   chan *Client
	unregister chan *Client

	broker *redis.Client
	log    *logrus.Logger
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Subscription]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		log:           log,
	}
}

// Run owns the websocket client registry. Start it once, in its own
// goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.WithField("user", client.UserID).Debug("websocket client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			client.closeSubscription()
			h.log.WithField("user", client.UserID).Debug("websocket client disconnected")
		}
	}
}

// Subscribe attaches handler to the conversation between a and b and returns
// the handle. The stream carries every row inserted for that pair, in either
// direction.
func (h *Hub) Subscribe(a, b uint, handler func(models.Message)) *Subscription {
	sub := &Subscription{hub: h, topic: ConversationTopic(a, b), handler: handler}
	h.mu.Lock()
	if h.subscriptions[sub.topic] == nil {
		h.subscriptions[sub.topic] = make(map[*Subscription]bool)
	}
	h.subscriptions[sub.topic][sub] = true
	h.mu.Unlock()
	return sub
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.subscriptions[sub.topic]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.subscriptions, sub.topic)
		}
	}
}

// AttachBroker routes PublishMessage through redis pub/sub and starts the
// consumer that delivers incoming rows locally.
func (h *Hub) AttachBroker(ctx context.Context, broker *redis.Client) {
	h.broker = broker
	pubsub := broker.Subscribe(ctx, messageChannel)
	go func() {
		for msg := range pubsub.Channel() {
			var row models.Message
			if err := json.Unmarshal([]byte(msg.Payload), &row); err != nil {
				h.log.WithError(err).Warn("dropping malformed realtime payload")
				continue
			}
			h.deliverLocal(row)
		}
	}()
}

// PublishMessage fans an inserted row out to subscribers of its
// conversation.
func (h *Hub) PublishMessage(msg models.Message) {
	if h.broker != nil {
		payload, err := json.Marshal(msg)
		if err == nil {
			if err := h.broker.Publish(context.Background(), messageChannel, payload); err == nil {
				return
			}
			h.log.Warn("broker publish failed, delivering locally")
		}
	}
	h.deliverLocal(msg)
}

func (h *Hub) deliverLocal(msg models.Message) {
	topic := ConversationTopic(msg.SenderID, msg.ReceiverID)
	h.mu.RLock()
	subs := make([]*Subscription, 0, len(h.subscriptions[topic]))
	for sub := range h.subscriptions[topic] {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()
	for _, sub := range subs {
		sub.deliver(msg)
	}
}

// BroadcastToTopic pushes a transient event (typing indicators) to every
// websocket client currently joined to the topic.
func (h *Hub) BroadcastToTopic(topic string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client.topic() == topic {
			select {
			case client.send <- payload:
			default:
			}
		}
	}
}
