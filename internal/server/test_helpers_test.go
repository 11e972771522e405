package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"psykos/internal/config"
	"psykos/internal/game"
)

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

func newTestApp(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(game.NewMemoryStore(), nil, config.Default(), zerolog.Nop())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	res, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer res.Body.Close()
	out := map[string]any{}
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res, out
}

func createRoom(t *testing.T, ts *httptest.Server, name, category string) (code, playerID string) {
	t.Helper()
	res, body := postJSON(t, ts.URL+"/create-game", map[string]any{"playerName": name, "category": category})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 from create-game, got %d: %v", res.StatusCode, body)
	}
	return body["gameCode"].(string), body["playerId"].(string)
}

func joinRoom(t *testing.T, ts *httptest.Server, code, name string) string {
	t.Helper()
	res, body := postJSON(t, ts.URL+"/join-game", map[string]any{"code": code, "playerName": name})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from join-game, got %d: %v", res.StatusCode, body)
	}
	return body["playerId"].(string)
}

type wsMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendWS(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"event": event, "data": data}); err != nil {
		t.Fatalf("write %s: %v", event, err)
	}
}

// joinLive attaches conn to the room and waits for the direct resync.
func joinLive(t *testing.T, conn *websocket.Conn, code, playerID string) {
	t.Helper()
	sendWS(t, conn, "join-live", map[string]string{"code": code, "playerId": playerID})
	readUntil(t, conn, game.EventGameState)
}

// readUntil skips frames until one named event arrives.
func readUntil(t *testing.T, conn *websocket.Conn, event string) wsMessage {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		_ = conn.SetReadDeadline(deadline)
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", event, err)
		}
		if msg.Event == event {
			return msg
		}
	}
}

func expectNoEvent(t *testing.T, conn *websocket.Conn, event string, timeout time.Duration) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return
			}
			t.Fatalf("read: %v", err)
		}
		if msg.Event == event {
			t.Fatalf("unexpected %s frame: %s", event, msg.Data)
		}
	}
}

func expectNoNotice(t *testing.T, conn *websocket.Conn, text string, timeout time.Duration) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return
			}
			t.Fatalf("read: %v", err)
		}
		if msg.Event == game.EventNotice && strings.Contains(string(msg.Data), text) {
			t.Fatalf("unexpected notice %s", msg.Data)
		}
	}
}
