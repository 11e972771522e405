package server

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"psykos/internal/config"
	"psykos/internal/game"
)

func TestDecodeAction(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want actionData
	}{
		{"bare code", `"BARK"`, actionData{Code: "BARK"}},
		{"object", `{"code":"BARK","voterId":"3","targetId":"CORRECT"}`, actionData{Code: "BARK", VoterID: "3", TargetID: game.CorrectTarget}},
		{"empty", ``, actionData{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeAction(json.RawMessage(tc.raw))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("unexpected action (-want +got):\n%s", diff)
			}
		})
	}
	if _, err := decodeAction(json.RawMessage(`[1,2]`)); !errors.Is(err, game.ErrInvalidState) {
		t.Fatalf("expected invalid state for malformed payload, got %v", err)
	}
}

func TestRequesterChecksBinding(t *testing.T) {
	srv := New(game.NewMemoryStore(), nil, config.Default(), zerolog.Nop())
	session, host, err := srv.Registry().Create(t.Context(), game.CreateParams{HostName: "Ann", Category: game.CategoryIceBreaker, Rounds: 3})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	c := &client{id: "conn-1", send: make(chan []byte, 4), done: make(chan struct{})}

	if _, _, err := srv.requester(t.Context(), c, actionData{}); !errors.Is(err, game.ErrUnauthorized) {
		t.Fatalf("expected unbound connection to be unauthorized, got %v", err)
	}

	srv.ws.Bind(c, session.Code(), host.ID)
	if _, _, err := srv.requester(t.Context(), c, actionData{HostID: "other"}); !errors.Is(err, game.ErrUnauthorized) {
		t.Fatalf("expected foreign host id to be unauthorized, got %v", err)
	}
	if _, _, err := srv.requester(t.Context(), c, actionData{Code: "ZZZZ"}); !errors.Is(err, game.ErrUnauthorized) {
		t.Fatalf("expected room mismatch to be unauthorized, got %v", err)
	}
	got, playerID, err := srv.requester(t.Context(), c, actionData{Code: session.Code(), PlayerID: host.ID})
	if err != nil {
		t.Fatalf("requester: %v", err)
	}
	if got != session || playerID != host.ID {
		t.Fatalf("expected bound session and player")
	}
}

func TestReportSilentErrors(t *testing.T) {
	srv := New(game.NewMemoryStore(), nil, config.Default(), zerolog.Nop())
	c := &client{id: "conn-1", send: make(chan []byte, 4), done: make(chan struct{})}

	srv.report(c, "submit-vote", game.ErrInvalidState)
	srv.report(c, "submit-vote", nil)
	if len(c.send) != 0 {
		t.Fatalf("expected silent errors to send nothing")
	}

	srv.report(c, "submit-vote", errors.Join(game.ErrPersistence, errors.New("disk full")))
	select {
	case frame := <-c.send:
		var msg struct {
			Event string       `json:"event"`
			Data  actionFailed `json:"data"`
		}
		if err := json.Unmarshal(frame, &msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if msg.Event != game.EventActionFailed || msg.Data.Event != "submit-vote" {
			t.Fatalf("unexpected frame %s", frame)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected action-failed frame")
	}
}

func TestIPLimiter(t *testing.T) {
	l := newIPLimiter(2)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.allow("a") || !l.allow("a") {
		t.Fatalf("expected burst to pass")
	}
	if l.allow("a") {
		t.Fatalf("expected third request to be limited")
	}
	if !l.allow("b") {
		t.Fatalf("expected separate key to pass")
	}
	now = now.Add(30 * time.Second)
	if !l.allow("a") {
		t.Fatalf("expected bucket to refill")
	}
	now = now.Add(time.Hour)
	l.allow("c")
	if _, ok := l.entries["a"]; ok {
		t.Fatalf("expected idle entries to be swept")
	}
}

func TestBindMessage(t *testing.T) {
	messages := fieldMessages{"PlayerName.required": "Name is required"}
	if got := bindMessage(&json.SyntaxError{}, messages, "fallback"); got != "Malformed JSON body" {
		t.Fatalf("unexpected syntax message %q", got)
	}
	if got := bindMessage(errors.New("boom"), messages, "fallback"); got != "fallback" {
		t.Fatalf("unexpected fallback %q", got)
	}
}

func TestEnqueueAfterCloseDropsFrame(t *testing.T) {
	hub := newWSHub(zerolog.Nop())
	c := &client{id: "conn-1", send: make(chan []byte, 4), done: make(chan struct{})}
	c.close()
	c.close()

	hub.Send(c, game.EventNotice, game.NoticePayload{Text: "late"})
	if len(c.send) != 0 {
		t.Fatalf("expected closed client to drop frames, got %d queued", len(c.send))
	}
}

func TestUnbindPlayerDetachesCurrentConnection(t *testing.T) {
	hub := newWSHub(zerolog.Nop())
	ann := &client{id: "conn-1", send: make(chan []byte, 4), done: make(chan struct{})}
	bo := &client{id: "conn-2", send: make(chan []byte, 4), done: make(chan struct{})}
	hub.Bind(ann, "MOON", "1")
	hub.Bind(bo, "MOON", "2")

	hub.UnbindPlayer("MOON", "2")
	hub.UnbindPlayer("MOON", "9")
	hub.Publish("MOON", game.EventNotice, game.NoticePayload{Text: "hi"})

	if code, _ := bo.binding(); code != "" {
		t.Fatalf("expected Bo unbound, still in %q", code)
	}
	if len(bo.send) != 0 || len(ann.send) != 1 {
		t.Fatalf("unexpected queues: ann=%d bo=%d", len(ann.send), len(bo.send))
	}
}
