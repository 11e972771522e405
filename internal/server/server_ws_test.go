package server

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"psykos/internal/game"
)

func TestJoinLiveSendsGameState(t *testing.T) {
	_, ts := newTestApp(t)
	code, hostID := createRoom(t, ts, "Ann", "ice-breaker")

	conn := dialWS(t, ts)
	sendWS(t, conn, "join-live", map[string]string{"code": code, "playerId": hostID})
	msg := readUntil(t, conn, game.EventGameState)

	var state game.GameStatePayload
	if err := json.Unmarshal(msg.Data, &state); err != nil {
		t.Fatalf("decode game-state: %v", err)
	}
	if state.Code != code || state.State != game.StateLobby || len(state.Players) != 1 {
		t.Fatalf("unexpected game-state %+v", state)
	}
}

func TestFavoriteVoteRound(t *testing.T) {
	_, ts := newTestApp(t)
	code, annID := createRoom(t, ts, "Ann", "ice-breaker")
	boID := joinRoom(t, ts, code, "Bo")

	ann := dialWS(t, ts)
	joinLive(t, ann, code, annID)
	bo := dialWS(t, ts)
	joinLive(t, bo, code, boID)

	sendWS(t, ann, "start-game", code)
	readUntil(t, ann, game.EventGameStarted)
	readUntil(t, bo, game.EventGameStarted)

	sendWS(t, ann, "submit-answer", map[string]string{"code": code, "playerId": annID, "text": "pizza"})
	sendWS(t, bo, "submit-answer", map[string]string{"code": code, "playerId": boID, "text": "tacos"})

	var voting game.VotingPayload
	if err := json.Unmarshal(readUntil(t, ann, game.EventStartVoting).Data, &voting); err != nil {
		t.Fatalf("decode start-voting: %v", err)
	}
	if len(voting.Answers) != 2 {
		t.Fatalf("expected two candidates, got %+v", voting.Answers)
	}
	readUntil(t, bo, game.EventStartVoting)

	sendWS(t, ann, "submit-vote", map[string]string{"code": code, "voterId": annID, "targetId": boID})
	sendWS(t, bo, "submit-vote", map[string]string{"code": code, "voterId": boID, "targetId": annID})

	var results game.ResultsPayload
	if err := json.Unmarshal(readUntil(t, ann, game.EventShowResults).Data, &results); err != nil {
		t.Fatalf("decode show-results: %v", err)
	}
	for _, line := range results.Scores {
		if line.Score != game.PointsFavorite {
			t.Fatalf("expected %d for %s, got %d", game.PointsFavorite, line.Name, line.Score)
		}
	}
}

func TestForeignPlayerIDIsIgnored(t *testing.T) {
	_, ts := newTestApp(t)
	code, annID := createRoom(t, ts, "Ann", "ice-breaker")
	boID := joinRoom(t, ts, code, "Bo")

	ann := dialWS(t, ts)
	joinLive(t, ann, code, annID)
	bo := dialWS(t, ts)
	joinLive(t, bo, code, boID)

	// Bo is not host and cannot start by claiming Ann's id.
	sendWS(t, bo, "start-game", map[string]string{"code": code, "playerId": annID})
	expectNoEvent(t, ann, game.EventGameStarted, 300*time.Millisecond)
}

func TestVoiceRelayExcludesSender(t *testing.T) {
	_, ts := newTestApp(t)
	code, annID := createRoom(t, ts, "Ann", "ice-breaker")
	boID := joinRoom(t, ts, code, "Bo")

	ann := dialWS(t, ts)
	joinLive(t, ann, code, annID)
	bo := dialWS(t, ts)
	joinLive(t, bo, code, boID)

	sendWS(t, ann, "voice-data", map[string]any{"chunk": "AAEC"})
	msg := readUntil(t, bo, "voice-data")
	var frame voiceFrame
	if err := json.Unmarshal(msg.Data, &frame); err != nil {
		t.Fatalf("decode voice frame: %v", err)
	}
	if frame.From == "" || !strings.Contains(string(frame.Data), "AAEC") {
		t.Fatalf("unexpected voice frame %+v", frame)
	}
	expectNoEvent(t, ann, "voice-data", 300*time.Millisecond)
}

func TestDisconnectRemovesPlayer(t *testing.T) {
	srv, ts := newTestApp(t)
	code, annID := createRoom(t, ts, "Ann", "ice-breaker")
	boID := joinRoom(t, ts, code, "Bo")

	ann := dialWS(t, ts)
	joinLive(t, ann, code, annID)
	bo := dialWS(t, ts)
	joinLive(t, bo, code, boID)

	_ = bo.Close()
	for {
		var notice game.NoticePayload
		if err := json.Unmarshal(readUntil(t, ann, game.EventNotice).Data, &notice); err != nil {
			t.Fatalf("decode notice: %v", err)
		}
		if notice.Text == "Bo disconnected" {
			break
		}
	}
	session, err := srv.Registry().Lookup(t.Context(), code)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	summary, err := session.Summary(t.Context())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary.Players) != 1 || summary.Players[0].ID != annID {
		t.Fatalf("expected only Ann to remain, got %+v", summary.Players)
	}
}

func TestReconnectKeepsPlayer(t *testing.T) {
	srv, ts := newTestApp(t)
	code, annID := createRoom(t, ts, "Ann", "ice-breaker")
	boID := joinRoom(t, ts, code, "Bo")

	ann := dialWS(t, ts)
	joinLive(t, ann, code, annID)
	first := dialWS(t, ts)
	joinLive(t, first, code, boID)
	second := dialWS(t, ts)
	joinLive(t, second, code, boID)

	// The stale socket closing must not remove Bo.
	_ = first.Close()
	expectNoNotice(t, ann, "Bo disconnected", 300*time.Millisecond)

	session, err := srv.Registry().Lookup(t.Context(), code)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	summary, err := session.Summary(t.Context())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary.Players) != 2 {
		t.Fatalf("expected both players to remain, got %+v", summary.Players)
	}
}

func TestKickedSocketLeavesRoom(t *testing.T) {
	_, ts := newTestApp(t)
	code, annID := createRoom(t, ts, "Ann", "ice-breaker")
	boID := joinRoom(t, ts, code, "Bo")
	cyID := joinRoom(t, ts, code, "Cy")

	ann := dialWS(t, ts)
	joinLive(t, ann, code, annID)
	bo := dialWS(t, ts)
	joinLive(t, bo, code, boID)
	cy := dialWS(t, ts)
	joinLive(t, cy, code, cyID)

	sendWS(t, ann, "kick-player", map[string]string{"code": code, "hostId": annID, "targetId": boID})
	readUntil(t, bo, game.EventKicked)

	sendWS(t, cy, "leave-game", map[string]string{"code": code, "playerId": cyID})
	for {
		var notice game.NoticePayload
		if err := json.Unmarshal(readUntil(t, ann, game.EventNotice).Data, &notice); err != nil {
			t.Fatalf("decode notice: %v", err)
		}
		if notice.Text == "Cy left" {
			break
		}
	}
	expectNoEvent(t, bo, game.EventNotice, 300*time.Millisecond)
	expectNoEvent(t, bo, game.EventPlayersUpdated, 300*time.Millisecond)
}
