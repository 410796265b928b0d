package chat

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/meanstack/internal/common"
	"github.com/dmitrijs2005/meanstack/internal/logging"
	"github.com/dmitrijs2005/meanstack/internal/server/auth"
	"github.com/dmitrijs2005/meanstack/internal/server/models"
)

// tokenAuth maps the token query parameter to a fixed result.
type tokenAuth map[string]auth.Result

func (a tokenAuth) Authenticate(r *http.Request) auth.Result {
	return a[r.URL.Query().Get("token")]
}

func newServer(t *testing.T) (*Hub, string) {
	t.Helper()

	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	old := timeNow
	timeNow = func() time.Time { return fixed }
	t.Cleanup(func() { timeNow = old })

	hub := NewHub(logging.Nop())
	a := tokenAuth{
		"ada": {Status: auth.Authenticated, User: &models.User{DisplayName: "Ada Lovelace"}},
		"bad": {Status: auth.Failed, Err: common.ErrInvalidToken},
	}
	srv := httptest.NewServer(NewHandler(hub, a))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	var m Message
	require.NoError(t, conn.ReadJSON(&m))
	return m
}

func TestChat_JoinMessageLeave(t *testing.T) {
	hub, url := newServer(t)

	ada := dial(t, url+"?token=ada")
	m := read(t, ada)
	assert.Equal(t, TypeStatus, m.Type)
	assert.Equal(t, "Is now connected", m.Text)
	assert.Equal(t, "Ada Lovelace", m.DisplayName)

	guest := dial(t, url)
	m = read(t, guest)
	assert.Equal(t, anonymous, m.DisplayName)
	m = read(t, ada)
	assert.Equal(t, anonymous, m.DisplayName)
	require.Eventually(t, func() bool { return hub.Len() == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, guest.WriteJSON(map[string]string{"text": "hello", "display_name": "spoofed"}))
	for _, conn := range []*websocket.Conn{ada, guest} {
		m = read(t, conn)
		assert.Equal(t, TypeMessage, m.Type)
		assert.Equal(t, "hello", m.Text)
		assert.Equal(t, anonymous, m.DisplayName)
		assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), m.Created)
	}

	require.NoError(t, guest.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	m = read(t, ada)
	assert.Equal(t, TypeStatus, m.Type)
	assert.Equal(t, "disconnected", m.Text)
	assert.Equal(t, anonymous, m.DisplayName)
	assert.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)
}

func TestChat_InvalidTokenIsRejected(t *testing.T) {
	hub, url := newServer(t)

	conn := dial(t, url+"?token=bad")
	var frame ErrorFrame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, TypeError, frame.Type)
	assert.Equal(t, string(common.CodeInvalidUserToken), frame.Error.Code)

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation))
	assert.Equal(t, 0, hub.Len())
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	hub, url := newServer(t)

	conn := dial(t, url)
	read(t, conn)
	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)

	hub.Close()
	assert.Equal(t, 0, hub.Len())

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))

	late, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer late.Close()
	_, _, err = late.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway))
}
