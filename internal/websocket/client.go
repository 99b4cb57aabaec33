package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"duoqueue-dating-app/internal/chatsync"
	"duoqueue-dating-app/internal/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// SendFunc persists an outgoing chat message. Injected so the transport
// layer stays decoupled from the chat service.
type SendFunc func(ctx context.Context, senderID, receiverID uint, content, clientMsgID string) (*models.Message, error)

// Client is one websocket connection. It holds at most one conversation
// subscription at a time; joining a new conversation closes the previous
// subscription first so stale handlers never double-deliver.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	sendFn SendFunc

	UserID uint

	mu      sync.Mutex
	otherID uint
	sub     *Subscription
	outbox  *chatsync.Outbox
}

type inboundFrame struct {
	Type        string `json:"type"`
	OtherUserID uint   `json:"other_user_id"`
	Content     string `json:"content"`
}

type outboundFrame struct {
	Type    string          `json:"type"`
	Message *models.Message `json:"message,omitempty"`
	Draft   string          `json:"draft,omitempty"`
	UserID  uint            `json:"user_id,omitempty"`
}

// HandleWebSocket upgrades the request and runs the connection's pumps. The
// caller must have authenticated the request and set user_id.
func HandleWebSocket(hub *Hub, sendFn SendFunc, c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		conn.Close()
		return
	}

	client := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		sendFn: sendFn,
		UserID: userID.(uint),
	}

	hub.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) topic() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.otherID == 0 {
		return ""
	}
	return ConversationTopic(c.UserID, c.otherID)
}

func (c *Client) closeSubscription() {
	c.mu.Lock()
	sub := c.sub
	c.sub = nil
	c.mu.Unlock()
	if sub != nil {
		sub.Close()
	}
}

// joinConversation swaps the client onto another conversation's stream.
func (c *Client) joinConversation(otherID uint) {
	c.closeSubscription()

	outbox := chatsync.NewOutbox(c.UserID, nil)
	sub := c.hub.Subscribe(c.UserID, otherID, func(msg models.Message) {
		// The timeline dedupes at-least-once deliveries and replaces the
		// sender's optimistic copy, so the connection only ever sees a row
		// once.
		c.mu.Lock()
		changed := c.outbox != nil && c.outbox.Apply(msg)
		c.mu.Unlock()
		if !changed {
			return
		}
		row := msg
		if payload, err := json.Marshal(outboundFrame{Type: "message", Message: &row}); err == nil {
			select {
			case c.send <- payload:
			default:
			}
		}
	})

	c.mu.Lock()
	c.otherID = otherID
	c.sub = sub
	c.outbox = outbox
	c.mu.Unlock()
}

// sendMessage stages the text optimistically, then attempts the durable
// write. On failure the provisional entry is dropped and the draft goes back
// to the client for the compose box.
func (c *Client) sendMessage(content string) {
	c.mu.Lock()
	otherID := c.otherID
	outbox := c.outbox
	c.mu.Unlock()
	if otherID == 0 || outbox == nil || content == "" {
		return
	}

	c.mu.Lock()
	staged := outbox.Stage(otherID, content)
	c.mu.Unlock()

	if _, err := c.sendFn(context.Background(), c.UserID, otherID, content, staged.ClientMsgID); err != nil {
		c.hub.log.WithError(err).WithField("user", c.UserID).Warn("message send failed")
		c.mu.Lock()
		draft, _ := outbox.Fail(staged.ClientMsgID)
		c.mu.Unlock()
		if payload, merr := json.Marshal(outboundFrame{Type: "send_failed", Draft: draft}); merr == nil {
			select {
			case c.send <- payload:
			default:
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.WithError(err).Warn("websocket read error")
			}
			break
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.hub.log.WithError(err).Warn("dropping malformed websocket frame")
			continue
		}

		switch frame.Type {
		case "join_conversation":
			if frame.OtherUserID != 0 && frame.OtherUserID != c.UserID {
				c.joinConversation(frame.OtherUserID)
			}
		case "message":
			c.sendMessage(frame.Content)
		case "typing", "stop_typing":
			topic := c.topic()
			if topic == "" {
				continue
			}
			payload, err := json.Marshal(outboundFrame{Type: frame.Type, UserID: c.UserID})
			if err == nil {
				c.hub.BroadcastToTopic(topic, payload)
			}
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			c.hub.log.WithError(err).Warn("websocket write error")
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
