package diagnostics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vidar808/droidfish-netengine/internal/events"
)

func dialSpectator(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestBroadcastsSessionStateToAllSpectators(t *testing.T) {
	bus := events.NewBus()
	srv := NewServer(bus, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", srv.HandleWebSocket)
	httpServer := httptest.NewServer(mux)
	defer httpServer.Close()
	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws"

	const numClients = 3
	msgChans := make([]chan Message, numClients)
	for i := 0; i < numClients; i++ {
		conn := dialSpectator(t, wsURL)
		defer conn.Close()
		ch := make(chan Message, 4)
		msgChans[i] = ch
		go func(c *websocket.Conn) {
			for {
				var msg Message
				if err := c.ReadJSON(&msg); err != nil {
					return
				}
				ch <- msg
			}
		}(conn)
	}

	time.Sleep(100 * time.Millisecond)
	for srv.ClientCount() < numClients {
		time.Sleep(10 * time.Millisecond)
	}

	events.Publish(bus, events.SessionStateTopic, events.SessionState{Phase: events.PhaseRunning, Detail: "ok"})

	for i := 0; i < numClients; i++ {
		select {
		case msg := <-msgChans[i]:
			if msg.Type != "session_state" || msg.Phase != string(events.PhaseRunning) {
				t.Errorf("client %d: got %+v", i, msg)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("client %d did not receive broadcast", i)
		}
	}
}

func TestClientCountTracksConnectAndDisconnect(t *testing.T) {
	bus := events.NewBus()
	srv := NewServer(bus, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", srv.HandleWebSocket)
	httpServer := httptest.NewServer(mux)
	defer httpServer.Close()
	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws"

	conn := dialSpectator(t, wsURL)
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for srv.ClientCount() < 1 {
		time.Sleep(10 * time.Millisecond)
	}
	if srv.ClientCount() != 1 {
		t.Fatalf("got %d clients, want 1", srv.ClientCount())
	}

	conn.Close()
	deadline := time.After(2 * time.Second)
	for srv.ClientCount() != 0 {
		select {
		case <-deadline:
			t.Fatal("client count did not drop to zero after disconnect")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func TestNilBusNeverBroadcasts(t *testing.T) {
	srv := NewServer(nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go srv.Run(ctx)
	time.Sleep(20 * time.Millisecond)
	cancel()
}

func TestOriginRejection(t *testing.T) {
	bus := events.NewBus()
	srv := NewServer(bus, nil, func(origin string) bool { return origin == "https://allowed.example" })

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", srv.HandleWebSocket)
	httpServer := httptest.NewServer(mux)
	defer httpServer.Close()
	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws"

	header := http.Header{}
	header.Set("Origin", "https://blocked.example")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err == nil {
		t.Fatal("expected dial to be rejected for disallowed origin")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 response, got %+v", resp)
	}
}
