// internal/websocket/hub.go
package websocket

import (
	"context"
	"sync"

	"billing-service/internal/domain/audit"
	wstypes "billing-service/internal/domain/websocket"
	"billing-service/internal/pkg/jwt"

	"go.uber.org/zap"
)

// TokenValidator checks an access token against signature, revocation and
// the live session.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*jwt.Claims, error)
}

type Hub struct {
	// Registered clients by operator ID
	clients map[int64]map[*Client]bool
	mu      sync.RWMutex

	Register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	logouts    chan sessionEnd
	done       chan struct{}

	handlerRegistry *HandlerRegistry
	validator       TokenValidator
	logger          *zap.Logger
}

type BroadcastMessage struct {
	// OperatorIDs limits delivery; nil means every subscriber
	OperatorIDs []int64
	Channel     wstypes.ChannelType
	Message     *wstypes.WSMessage
}

type sessionEnd struct {
	operatorID int64
	sessionID  string
	reason     string
}

func NewHub(validator TokenValidator, logger *zap.Logger) *Hub {
	return &Hub{
		clients:         make(map[int64]map[*Client]bool),
		Register:        make(chan *Client),
		unregister:      make(chan *Client),
		broadcast:       make(chan *BroadcastMessage, 256),
		logouts:         make(chan sessionEnd, 16),
		done:            make(chan struct{}),
		handlerRegistry: NewHandlerRegistry(),
		validator:       validator,
		logger:          logger,
	}
}

// AuthenticateClient validates the token and returns the client identity
func (h *Hub) AuthenticateClient(ctx context.Context, token string) (*ClientAuth, error) {
	claims, err := h.validator.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}

	return &ClientAuth{
		OperatorID: claims.OperatorID,
		SessionID:  claims.ID,
		Roles:      claims.Roles,
		Email:      claims.Email,
	}, nil
}

// RegisterHandler registers a message handler
func (h *Hub) RegisterHandler(handler MessageHandler) {
	h.handlerRegistry.Register(handler)
}

// HandleClientMessage dispatches to a registered handler. It reports false
// when no handler owns the event.
func (h *Hub) HandleClientMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) (bool, error) {
	handler, exists := h.handlerRegistry.GetHandler(msg.Type)
	if !exists {
		return false, nil
	}
	return true, handler.HandleMessage(ctx, client, msg)
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.BroadcastMessage(msg)

		case end := <-h.logouts:
			h.endSession(end)
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.operatorID] == nil {
		h.clients[client.operatorID] = make(map[*Client]bool)
	}
	h.clients[client.operatorID][client] = true

	h.logger.Info("websocket client connected",
		zap.Int64("operator_id", client.operatorID),
		zap.String("session_id", client.sessionID),
		zap.Int("total", h.totalClients()),
	)

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"operator_id": client.operatorID,
		"session_id":  client.sessionID,
		"roles":       client.roles,
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.clients[client.operatorID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	client.Close()
	if len(clients) == 0 {
		delete(h.clients, client.operatorID)
	}

	h.logger.Info("websocket client disconnected",
		zap.Int64("operator_id", client.operatorID),
		zap.String("session_id", client.sessionID),
		zap.Int("total", h.totalClients()),
	)
}

func (h *Hub) BroadcastMessage(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	deliver := func(clients map[*Client]bool) {
		for client := range clients {
			if client.IsSubscribed(msg.Channel) {
				client.SendMessage(msg.Message)
			}
		}
	}

	if msg.OperatorIDs == nil {
		for _, clients := range h.clients {
			deliver(clients)
		}
		return
	}
	for _, id := range msg.OperatorIDs {
		deliver(h.clients[id])
	}
}

// BroadcastUsageLog sends a committed usage log to every audit subscriber.
// It never blocks the caller; when the queue is full the event is dropped.
func (h *Hub) BroadcastUsageLog(log *audit.UsageLog) {
	msg := &BroadcastMessage{
		Channel: wstypes.ChannelAudit,
		Message: wstypes.NewMessage(wstypes.EventTypeUsageLog, log),
	}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("websocket broadcast queue full, dropping usage log",
			zap.Int64("customer_id", log.CustomerID),
			zap.String("feature", string(log.Feature)),
		)
	}
}

// ForceLogout tells the connections of an ended session and closes them.
func (h *Hub) ForceLogout(operatorID int64, sessionID, reason string) {
	select {
	case h.logouts <- sessionEnd{operatorID: operatorID, sessionID: sessionID, reason: reason}:
	case <-h.done:
	default:
		h.logger.Warn("websocket logout queue full", zap.String("session_id", sessionID))
	}
}

func (h *Hub) endSession(end sessionEnd) {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := wstypes.NewMessage(wstypes.EventTypeForceLogout, wstypes.SessionEventData{
		SessionID: end.sessionID,
		Reason:    end.reason,
		Message:   "You have been logged out",
	})
	for client := range h.clients[end.operatorID] {
		if client.sessionID != end.sessionID {
			continue
		}
		client.SendMessage(msg)
		h.removeLocked(client)
	}
}

func (h *Hub) GetConnectedClients(operatorID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[operatorID])
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, clients := range h.clients {
		for client := range clients {
			client.Close()
		}
		delete(h.clients, id)
	}
}
