package web

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestRoomsEscapesNames(t *testing.T) {
	var buf bytes.Buffer
	err := Rooms([]RoomSummary{{
		Code:         "BARK",
		Category:     "ice-breaker",
		State:        "playing",
		CurrentRound: 2,
		Rounds:       5,
		Players:      []RoomPlayer{{Name: "<b>Ann</b>", Score: 30, IsHost: true}},
	}}).Render(context.Background(), &buf)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "<b>Ann</b>") {
		t.Fatalf("expected player name to be escaped")
	}
	for _, want := range []string{"BARK", "2/5", "(host) 30", "&lt;b&gt;Ann"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output", want)
		}
	}
}

func TestRoomsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Rooms(nil).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "No active rooms.") {
		t.Fatalf("expected empty notice")
	}
}

func TestHomeListsCategories(t *testing.T) {
	var buf bytes.Buffer
	if err := Home([]string{"acronyms", "who-among-us"}).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `<option value="who-among-us">`) {
		t.Fatalf("expected category option")
	}
	if !strings.Contains(out, `"/create-game"`) || !strings.Contains(out, `"/join-game"`) {
		t.Fatalf("expected form endpoints")
	}
}
