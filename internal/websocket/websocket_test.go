package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/barterhub/internal/realtime"
)

type staticVerifier map[string]uuid.UUID

func (v staticVerifier) ExtractUserID(token string) (uuid.UUID, error) {
	id, ok := v[token]
	if !ok {
		return uuid.Nil, errors.New("bad token")
	}
	return id, nil
}

type feedFixture struct {
	manager *Manager
	server  *httptest.Server
	userID  uuid.UUID
}

func newFeedFixture(t *testing.T) *feedFixture {
	t.Helper()
	log, _ := test.NewNullLogger()
	manager := NewManager(log)
	userID := uuid.New()

	server := httptest.NewServer(NewHandler(manager, staticVerifier{"good": userID}))
	t.Cleanup(func() {
		manager.Shutdown()
		server.Close()
	})

	return &feedFixture{manager: manager, server: server, userID: userID}
}

func (f *feedFixture) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws?access_token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	first := readEvent(t, conn)
	require.Equal(t, EventConnected, first.Type)
	require.Eventually(t, func() bool { return f.manager.ConnectedCount(f.userID) > 0 }, time.Second, 5*time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event Event
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func TestHandler_RejectsMissingOrInvalidToken(t *testing.T) {
	f := newFeedFixture(t)

	resp, err := http.Get(f.server.URL + "/ws")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(f.server.URL + "/ws?access_token=bad")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestManager_DeliverReachesEveryConnection(t *testing.T) {
	f := newFeedFixture(t)
	first := f.dial(t, "good")
	second := f.dial(t, "good")
	require.Equal(t, 2, f.manager.ConnectedCount(f.userID))

	env, err := realtime.NewEnvelope(f.userID, string(EventNotification), map[string]string{"type": "exchange_request"})
	require.NoError(t, err)
	f.manager.Deliver(env)

	for _, conn := range []*websocket.Conn{first, second} {
		event := readEvent(t, conn)
		assert.Equal(t, EventNotification, event.Type)
		assert.Equal(t, f.userID.String(), event.UserID)
		assert.JSONEq(t, `{"type":"exchange_request"}`, string(event.Payload))
	}
}

func TestManager_DeliverToOfflineUserIsNoop(t *testing.T) {
	log, _ := test.NewNullLogger()
	manager := NewManager(log)

	assert.NotPanics(t, func() {
		manager.Deliver(realtime.Envelope{UserID: uuid.New(), Type: string(EventNotification)})
	})
}

func TestClient_NotificationReadCallsHandler(t *testing.T) {
	f := newFeedFixture(t)

	var mu sync.Mutex
	var gotUser, gotNotification uuid.UUID
	f.manager.OnNotificationRead(func(_ context.Context, userID, notificationID uuid.UUID) error {
		mu.Lock()
		defer mu.Unlock()
		gotUser, gotNotification = userID, notificationID
		return nil
	})

	conn := f.dial(t, "good")
	notificationID := uuid.New()
	require.NoError(t, conn.WriteJSON(Event{Type: EventNotificationRead, NotificationID: notificationID.String()}))

	reply := readEvent(t, conn)
	assert.Equal(t, EventNotificationRead, reply.Type)
	assert.Equal(t, notificationID.String(), reply.NotificationID)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, f.userID, gotUser)
	assert.Equal(t, notificationID, gotNotification)
}

func TestClient_NotificationReadFailureRepliesError(t *testing.T) {
	f := newFeedFixture(t)
	f.manager.OnNotificationRead(func(context.Context, uuid.UUID, uuid.UUID) error {
		return errors.New("not found")
	})

	conn := f.dial(t, "good")
	require.NoError(t, conn.WriteJSON(Event{Type: EventNotificationRead, NotificationID: uuid.NewString()}))

	assert.Equal(t, EventError, readEvent(t, conn).Type)

	require.NoError(t, conn.WriteJSON(Event{Type: EventNotificationRead, NotificationID: "not-a-uuid"}))
	assert.Equal(t, EventError, readEvent(t, conn).Type)
}

func TestClient_IgnoresEventsForAnotherUser(t *testing.T) {
	f := newFeedFixture(t)
	called := make(chan struct{}, 1)
	f.manager.OnNotificationRead(func(context.Context, uuid.UUID, uuid.UUID) error {
		called <- struct{}{}
		return nil
	})

	conn := f.dial(t, "good")
	require.NoError(t, conn.WriteJSON(Event{
		Type:           EventNotificationRead,
		UserID:         uuid.NewString(),
		NotificationID: uuid.NewString(),
	}))

	select {
	case <-called:
		t.Fatal("handler must not run for a foreign user id")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestClient_DisconnectRemovesClient(t *testing.T) {
	f := newFeedFixture(t)
	conn := f.dial(t, "good")

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool { return f.manager.ConnectedCount(f.userID) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestEvent_JSONShape(t *testing.T) {
	data, err := json.Marshal(Event{Type: EventNotificationRead, NotificationID: "n1", Timestamp: time.Unix(0, 0).UTC()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"notification_read","notification_id":"n1","timestamp":"1970-01-01T00:00:00Z"}`, string(data))
}
