package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procheck/sessiond/internal/domain/tabs"
	"github.com/procheck/sessiond/internal/events"
	"github.com/procheck/sessiond/internal/infrastructure/logging"
	"github.com/procheck/sessiond/internal/shared/types"
)

type instantSender struct{}

func (instantSender) Send(context.Context, string, bool) (*types.Reply, error) {
	return &types.Reply{Content: "ok"}, nil
}

type nullStore struct{}

func (nullStore) SaveConversation(context.Context, string, *types.ConversationRecord) error {
	return nil
}
func (nullStore) LoadConversation(context.Context, string, string) ([]types.Message, error) {
	return nil, nil
}
func (nullStore) DeleteConversation(context.Context, string, string) error { return nil }
func (nullStore) ListConversations(context.Context, string, int) ([]types.ConversationSummary, error) {
	return nil, nil
}
func (nullStore) UpdateTitle(context.Context, string, string, string) error { return nil }

func dialTestServer(t *testing.T) (*websocket.Conn, *tabs.Manager, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bus := events.NewBus()
	manager := tabs.NewManager(tabs.Config{
		Sender: instantSender{},
		Store:  nullStore{},
		Bus:    bus,
		Logger: logging.NewNop(),
	})
	handler := NewHandler(manager, bus, logging.NewNop(), nil)

	r := gin.New()
	r.GET("/stream", handler.HandleConnection)
	srv := httptest.NewServer(r)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	return conn, manager, func() {
		conn.Close()
		srv.Close()
	}
}

// readUntil scans incoming frames until one matches the wanted type.
func readUntil(t *testing.T, conn *websocket.Conn, wantType string) map[string]interface{} {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	conn.SetReadDeadline(deadline)
	for time.Now().Before(deadline) {
		var frame map[string]interface{}
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("read: %v", err)
		}
		if frame["type"] == wantType {
			return frame
		}
	}
	t.Fatalf("no %q frame before deadline", wantType)
	return nil
}

func TestConnectionWelcome(t *testing.T) {
	conn, _, teardown := dialTestServer(t)
	defer teardown()

	frame := readUntil(t, conn, "system")
	assert.Equal(t, "connected", frame["message"])
}

func TestPingPong(t *testing.T) {
	conn, _, teardown := dialTestServer(t)
	defer teardown()

	readUntil(t, conn, "system")
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	readUntil(t, conn, "pong")
}

func TestSendCommandStreamsEvents(t *testing.T) {
	conn, manager, teardown := dialTestServer(t)
	defer teardown()

	readUntil(t, conn, "system")
	tabID := manager.Tabs()[0].ID

	require.NoError(t, conn.WriteJSON(map[string]string{
		"type":    "send",
		"tab_id":  tabID,
		"content": "rabies post-exposure",
	}))

	accepted := readUntil(t, conn, "accepted")
	assert.NotEmpty(t, accepted["message_id"])

	// The optimistic append and the later resolution both arrive as
	// pushed events.
	frame := readUntil(t, conn, "event")
	event, ok := frame["event"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, tabID, event["tab_id"])
}

func TestUnknownCommandReportsError(t *testing.T) {
	conn, _, teardown := dialTestServer(t)
	defer teardown()

	readUntil(t, conn, "system")
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "bogus"}))
	readUntil(t, conn, "error")
}

func TestRetryCommandUnknownMessage(t *testing.T) {
	conn, _, teardown := dialTestServer(t)
	defer teardown()

	readUntil(t, conn, "system")
	require.NoError(t, conn.WriteJSON(map[string]string{
		"type":       "retry",
		"message_id": "msg_unknown",
	}))
	frame := readUntil(t, conn, "error")
	assert.Contains(t, frame["message"], "retry")
}
