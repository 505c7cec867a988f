package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"billing-service/internal/domain/audit"
	xerrors "billing-service/internal/pkg/errors"
	"billing-service/internal/pkg/jwt"
	ws "billing-service/internal/websocket"
	wshandler "billing-service/internal/websocket/handler"

	"github.com/gin-gonic/gin"
	gjwt "github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticValidator struct{}

func (staticValidator) ValidateToken(_ context.Context, token string) (*jwt.Claims, error) {
	if token != "good" {
		return nil, xerrors.New(xerrors.ErrUnauthorized, "invalid token")
	}
	return &jwt.Claims{
		OperatorID:       7,
		Email:            "ops@example.com",
		Roles:            []string{"admin"},
		RegisteredClaims: gjwt.RegisteredClaims{ID: "jti-1"},
	}, nil
}

type staticLister struct{}

func (staticLister) List(_ context.Context, f *audit.ListFilters) (*audit.ListResponse, error) {
	return &audit.ListResponse{
		Logs:     []audit.UsageLog{{ID: 1, CustomerID: 3, Feature: audit.FeaturePlanChange}},
		Total:    1,
		Page:     f.Page,
		PageSize: f.PageSize,
	}, nil
}

type wireMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func startServer(t *testing.T) (*ws.Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := ws.NewHub(staticValidator{}, zap.NewNop())
	hub.RegisterHandler(wshandler.NewUsageLogHandler(staticLister{}))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	r := gin.New()
	r.GET("/ws", NewWebSocketHandler(hub, nil, zap.NewNop()).HandleConnection)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func read(t *testing.T, conn *websocket.Conn) wireMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg wireMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocket_RejectsBadToken(t *testing.T) {
	_, url := startServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(url+"?token=bad", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocket_AuditFeed(t *testing.T) {
	hub, url := startServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token=good", nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "connected", read(t, conn).Type)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type": "subscribe",
		"data": map[string]interface{}{"channels": []string{"audit"}},
	}))
	assert.Equal(t, "subscribe", read(t, conn).Type)

	hub.BroadcastUsageLog(&audit.UsageLog{ID: 9, CustomerID: 3, Feature: audit.FeatureStatusChange})
	msg := read(t, conn)
	require.Equal(t, "audit:log", msg.Type)
	var log audit.UsageLog
	require.NoError(t, json.Unmarshal(msg.Data, &log))
	assert.Equal(t, int64(3), log.CustomerID)
	assert.Equal(t, audit.FeatureStatusChange, log.Feature)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "audit:recent"}))
	msg = read(t, conn)
	require.Equal(t, "audit:recent", msg.Type)
	assert.Contains(t, string(msg.Data), `"total":1`)
}

func TestWebSocket_UnknownChannel(t *testing.T) {
	_, url := startServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token=good", nil)
	require.NoError(t, err)
	defer conn.Close()
	read(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type": "subscribe",
		"data": map[string]interface{}{"channels": []string{"payments"}},
	}))
	assert.Equal(t, "error", read(t, conn).Type)
}

func TestWebSocket_ForceLogoutClosesSession(t *testing.T) {
	hub, url := startServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token=good", nil)
	require.NoError(t, err)
	defer conn.Close()
	read(t, conn)

	hub.ForceLogout(7, "jti-1", "logged out")
	assert.Equal(t, "session:force_logout", read(t, conn).Type)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
	assert.Eventually(t, func() bool { return hub.TotalClients() == 0 }, time.Second, 10*time.Millisecond)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://ops.example.com/"})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "https://ops.example.com")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
	assert.True(t, originChecker(nil)(req))
}
