package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/emundo/emubot/infrastructure/valkey"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

const CodeMessage = "MESSAGE"

// PushMessage is what a connected CLI client receives.
type PushMessage struct {
	Code     string `json:"code"`
	UserID   string `json:"user_id"`
	Result   any    `json:"result"`
	SenderID string `json:"sender_id,omitempty"`
}

// Hub keeps the open websocket connections per user. When a Valkey client is
// set, pushes are relayed to the other instances so a user connected to a
// different server still receives them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*websocket.Conn]struct{}

	broadcast chan PushMessage
	// writeMu serializes writes; a connection allows one writer at a time.
	writeMu sync.Mutex

	vk      *valkey.Client
	channel string
	localID string
}

// NewHub creates a hub. vk may be nil for a single instance setup.
func NewHub(vk *valkey.Client, serverID string) *Hub {
	h := &Hub{
		clients:   make(map[string]map[*websocket.Conn]struct{}),
		broadcast: make(chan PushMessage, 64),
		vk:        vk,
		localID:   serverID,
	}
	if vk != nil {
		h.channel = vk.Key("ws", "push")
	}
	return h
}

// Push queues result for every connection of userID.
func (h *Hub) Push(userID string, result any) {
	h.broadcast <- PushMessage{Code: CodeMessage, UserID: userID, Result: result}
}

// Connected returns the number of open connections of userID.
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*websocket.Conn]struct{})
	}
	h.clients[userID][conn] = struct{}{}
	logrus.WithField("user_id", userID).Debug("[WS] Connection registered")
}

func (h *Hub) unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients[userID], conn)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
	logrus.WithField("user_id", userID).Debug("[WS] Connection unregistered")
}

func (h *Hub) sendLocal(msg PushMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		logrus.Errorf("[WS] Marshal error: %v", err)
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients[msg.UserID]))
	for conn := range h.clients[msg.UserID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			logrus.Errorf("[WS] Write error: %v", err)
			_ = conn.Close()
			h.unregister(msg.UserID, conn)
		}
	}
}

func (h *Hub) publish(ctx context.Context, msg PushMessage) {
	msg.SenderID = h.localID
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := h.vk.Publish(ctx, h.channel, string(data)); err != nil {
		logrus.Errorf("[WS] Failed to publish to Valkey: %v", err)
	}
}

func (h *Hub) subscribe(ctx context.Context) {
	logrus.Info("[WS] Starting Valkey Pub/Sub subscriber for distributed pushes")
	go func() {
		err := h.vk.Subscribe(ctx, h.channel, func(payload string) {
			var msg PushMessage
			if err := json.Unmarshal([]byte(payload), &msg); err != nil {
				return
			}
			// Skip our own relays.
			if msg.SenderID == h.localID {
				return
			}
			h.sendLocal(msg)
		})
		if err != nil && ctx.Err() == nil {
			logrus.Errorf("[WS] Valkey subscriber failed: %v", err)
		}
	}()
}

// Run delivers queued pushes until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	if h.vk != nil {
		h.subscribe(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-h.broadcast:
			h.sendLocal(msg)
			if h.vk != nil {
				h.publish(ctx, msg)
			}
		}
	}
}

// RegisterRoutes mounts the websocket endpoint at path. Clients pass their
// user id as the id query parameter.
func (h *Hub) RegisterRoutes(router fiber.Router, path string) {
	router.Use(path, func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return c.SendStatus(fiber.StatusUpgradeRequired)
		}
		if c.Query("id") == "" {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		return c.Next()
	})

	router.Get(path, websocket.New(func(conn *websocket.Conn) {
		userID := conn.Query("id")
		h.register(userID, conn)
		defer func() {
			h.unregister(userID, conn)
			_ = conn.Close()
		}()

		// Clients only listen; reading detects the close.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logrus.Debugf("[WS] read error: %v", err)
				}
				return
			}
		}
	}))
}
