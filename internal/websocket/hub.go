package websocket

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"slackpulse-backend/internal/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans presence updates out to dashboard clients. Clients subscribe per
// workspace; the hub bridges the poller's Redis Pub/Sub channel to every
// socket watching that workspace.
type Hub struct {
	mu          sync.RWMutex
	connections map[string][]*websocket.Conn
	redisClient *redis.Client
	jwtAuth     *middleware.JWTAuth
	cancelFuncs map[string]context.CancelFunc
}

func NewHub(redisClient *redis.Client, jwtAuth *middleware.JWTAuth) *Hub {
	return &Hub{
		connections: make(map[string][]*websocket.Conn),
		redisClient: redisClient,
		jwtAuth:     jwtAuth,
		cancelFuncs: make(map[string]context.CancelFunc),
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Authenticate via token query param
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if _, err := h.jwtAuth.ParseToken(tokenStr); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	workspaceID := r.URL.Query().Get("workspace_id")
	if workspaceID == "" {
		http.Error(w, "workspace_id is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.registerConnection(workspaceID, conn)

	// Keep connection alive and handle disconnect
	go func() {
		defer h.unregisterConnection(workspaceID, conn)
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				break
			}
		}
	}()
}

func (h *Hub) registerConnection(workspaceID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[workspaceID] = append(h.connections[workspaceID], conn)

	// Start pub/sub subscription if this is the first watcher of this workspace
	if len(h.connections[workspaceID]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[workspaceID] = cancel
		go h.subscribeToPubSub(ctx, workspaceID)
	}

	log.Printf("WebSocket connected: workspace %s (total: %d)", workspaceID, len(h.connections[workspaceID]))
}

func (h *Hub) unregisterConnection(workspaceID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()

	conns := h.connections[workspaceID]
	for i, c := range conns {
		if c == conn {
			h.connections[workspaceID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	// If no more watchers, cancel pub/sub
	if len(h.connections[workspaceID]) == 0 {
		delete(h.connections, workspaceID)
		if cancel, ok := h.cancelFuncs[workspaceID]; ok {
			cancel()
			delete(h.cancelFuncs, workspaceID)
		}
	}

	log.Printf("WebSocket disconnected: workspace %s", workspaceID)
}

func (h *Hub) subscribeToPubSub(ctx context.Context, workspaceID string) {
	channel := "presence_updates:" + workspaceID
	pubsub := h.redisClient.Subscribe(ctx, channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(workspaceID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(workspaceID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections[workspaceID] {
		conn.WriteMessage(websocket.TextMessage, data)
	}
}
