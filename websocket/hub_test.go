package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func newConnectedClient(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.register <- &Client{Conn: conn}
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients) == 1
	}, time.Second, 10*time.Millisecond)
	return conn
}

func TestBroadcastDeliversEvent(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	conn := newConnectedClient(t, hub)
	hub.Broadcast(Event{Type: EventClientEnrolled, Message: "Client Dana enrolled"})

	var event Event
	require.NoError(t, conn.ReadJSON(&event))
	require.Equal(t, EventClientEnrolled, event.Type)
	require.Equal(t, "Client Dana enrolled", event.Message)
}

func TestConcurrentBroadcastsShareOneConnection(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	conn := newConnectedClient(t, hub)

	// Simultaneous lifecycle events must serialize their writes per
	// connection; the race detector trips here if they do not.
	const broadcasts = 16
	var wg sync.WaitGroup
	for i := 0; i < broadcasts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Broadcast(Event{Type: EventClientStatus, Message: "Client moved"})
		}()
	}

	for i := 0; i < broadcasts; i++ {
		var event Event
		require.NoError(t, conn.ReadJSON(&event))
		require.Equal(t, EventClientStatus, event.Type)
	}
	wg.Wait()
}

func TestUnregisterClosesConnection(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	registered := make(chan *Client, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		client := &Client{Conn: conn}
		hub.register <- client
		registered <- client
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	client := <-registered
	hub.unregister <- client

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients) == 0
	}, time.Second, 10*time.Millisecond)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err = conn.ReadMessage()
	require.Error(t, err, "the peer must observe the closed connection")
}
