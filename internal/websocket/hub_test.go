package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lpotracker/internal/auth"
	"lpotracker/internal/events"
	"lpotracker/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T) (*Hub, *auth.TokenManager, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	go hub.Run(ctx)

	tokens := auth.NewTokenManager([]byte("secret"), time.Hour)
	r := gin.New()
	r.GET("/ws", ServeWs(hub, tokens))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return hub, tokens, srv
}

func wsURL(srv *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
}

func TestServeWsRejectsBadToken(t *testing.T) {
	_, _, srv := startServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "nope"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPublishReachesClient(t *testing.T) {
	hub, tokens, srv := startServer(t)
	token, err := tokens.Issue(&model.User{ID: 3, Name: "Ann", Role: model.RoleAdmin})
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, token), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), events.New(events.LPOCreated, events.EntityLPO, 5, 8, "pending")))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev events.Event
	require.NoError(t, json.Unmarshal(data, &ev))
	assert.Equal(t, events.LPOCreated, ev.Name)
	assert.EqualValues(t, 5, ev.EntityID)
}

func dial(t *testing.T, srv *httptest.Server, tokens *auth.TokenManager, user *model.User) *websocket.Conn {
	t.Helper()
	token, err := tokens.Issue(user)
	require.NoError(t, err)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, token), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) events.Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev events.Event
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func TestUsersOnlyReceiveTheirOwnEvents(t *testing.T) {
	hub, tokens, srv := startServer(t)
	user := dial(t, srv, tokens, &model.User{ID: 9, Name: "Uma", Role: model.RoleUser})
	admin := dial(t, srv, tokens, &model.User{ID: 1, Name: "Ann", Role: model.RoleAdmin})
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	ctx := context.Background()
	require.NoError(t, hub.Publish(ctx, events.New(events.RequisitionApproved, events.EntityRequisition, 42, 4, "approved")))
	require.NoError(t, hub.Publish(ctx, events.New(events.RequisitionApproved, events.EntityRequisition, 43, 9, "approved")))

	// the foreign requisition 42 is skipped, so the first frame is 43
	ev := readEvent(t, user)
	assert.EqualValues(t, 43, ev.EntityID)

	assert.EqualValues(t, 42, readEvent(t, admin).EntityID)
	assert.EqualValues(t, 43, readEvent(t, admin).EntityID)
}

func TestPublishDropsWhenQueueFull(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	ev := events.New(events.RequisitionCreated, events.EntityRequisition, 1, 8, "pending")
	for i := 0; i < cap(hub.broadcast); i++ {
		require.NoError(t, hub.Publish(context.Background(), ev))
	}
	assert.Error(t, hub.Publish(context.Background(), ev))
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:5173"})
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)

	req.Header.Set("Origin", "http://localhost:5173")
	assert.True(t, check(req))
	req.Header.Set("Origin", "http://evil.test")
	assert.False(t, check(req))
	assert.True(t, originChecker([]string{"*"})(req))
}
