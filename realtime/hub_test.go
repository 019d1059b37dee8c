package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hpmalinova/monifly/events"
)

func dial(t *testing.T, srv *httptest.Server, user string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + user
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg map[string]interface{}
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHub_PushesOwnerEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(zap.NewNop())
	hub.Start(ctx)
	bus := events.NewBus()
	defer hub.Attach(bus)()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, r.URL.Query().Get("user"))
	}))
	defer srv.Close()

	ana := dial(t, srv, "ana")
	assert.Equal(t, "connected", read(t, ana)["type"])
	luis := dial(t, srv, "luis")
	assert.Equal(t, "connected", read(t, luis)["type"])

	bus.Publish(ctx, events.SessionChanged{UserID: "ana", Kind: events.SignedOut, View: "/login"})
	bus.Publish(ctx, events.StreakUpdated{UserID: "luis", Streak: 7, Max: 9, Level: "solid"})

	msg := read(t, ana)
	assert.Equal(t, "session", msg["type"])
	assert.Equal(t, events.SignedOut, msg["event"])
	assert.Equal(t, "/login", msg["view"])

	msg = read(t, luis)
	assert.Equal(t, "streak", msg["type"])
	assert.Equal(t, float64(7), msg["streak"])
	assert.Equal(t, "solid", msg["level"])

	assert.Equal(t, 1, hub.Clients("ana"))
}

func TestHub_Disconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(zap.NewNop())
	hub.Start(ctx)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, "ana")
	}))
	defer srv.Close()

	conn := dial(t, srv, "ana")
	read(t, conn)
	require.Equal(t, 1, hub.Clients("ana"))

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Clients("ana") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_KeepAlive(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(zap.NewNop(), WithPongWait(200*time.Millisecond))
	hub.Start(ctx)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, r.URL.Query().Get("user"))
	}))
	defer srv.Close()

	// reading lets the client answer pings
	active := dial(t, srv, "ana")
	go func() {
		for {
			if _, _, err := active.ReadMessage(); err != nil {
				return
			}
		}
	}()
	// never reads, so its pings go unanswered
	dial(t, srv, "luis")
	require.Eventually(t, func() bool { return hub.Clients("luis") == 1 }, time.Second, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return hub.Clients("luis") == 0 }, 2*time.Second, 20*time.Millisecond)
	time.Sleep(600 * time.Millisecond)
	assert.Equal(t, 1, hub.Clients("ana"))
}
