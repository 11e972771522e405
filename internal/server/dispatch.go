package server

import (
	"context"
	"encoding/json"
	"fmt"

	"psykos/internal/game"
)

// Inbound websocket events.
const (
	eventJoinLive      = "join-live"
	eventStartGame     = "start-game"
	eventSubmitAnswer  = "submit-answer"
	eventSubmitVote    = "submit-vote"
	eventSkipQuestion  = "skip-question"
	eventPlayerReady   = "player-ready"
	eventLeaveGame     = "leave-game"
	eventKickPlayer    = "kick-player"
	eventStartWhoGuess = "start-who-guess"
	eventVoiceStart    = "voice-start"
	eventVoiceData     = "voice-data"
	eventVoiceEnd      = "voice-end"
)

// actionData is the union of every inbound payload shape.
type actionData struct {
	Code     string `json:"code"`
	PlayerID string `json:"playerId"`
	VoterID  string `json:"voterId"`
	HostID   string `json:"hostId"`
	TargetID string `json:"targetId"`
	Text     string `json:"text"`
	Answer   string `json:"answer"`
	GoHome   bool   `json:"goHome"`
}

type voiceFrame struct {
	From string          `json:"from"`
	Data json.RawMessage `json:"data,omitempty"`
}

type actionFailed struct {
	Event string `json:"event"`
	Error string `json:"error"`
}

func decodeAction(raw json.RawMessage) (actionData, error) {
	var data actionData
	if len(raw) == 0 {
		return data, nil
	}
	// start-game may carry the bare room code.
	var code string
	if err := json.Unmarshal(raw, &code); err == nil {
		data.Code = code
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("%w: malformed payload", game.ErrInvalidState)
	}
	return data, nil
}

func (s *Server) dispatch(ctx context.Context, c *client, env envelope) error {
	switch env.Event {
	case eventVoiceStart, eventVoiceData, eventVoiceEnd:
		s.ws.Relay(c, env.Event, voiceFrame{From: c.id, Data: env.Data})
		return nil
	}

	data, err := decodeAction(env.Data)
	if err != nil {
		return err
	}
	if env.Event == eventJoinLive {
		return s.joinLive(ctx, c, data)
	}

	session, playerID, err := s.requester(ctx, c, data)
	if err != nil {
		return err
	}
	switch env.Event {
	case eventStartGame:
		return session.Start(ctx, playerID)
	case eventSubmitAnswer:
		text := data.Text
		if text == "" {
			text = data.Answer
		}
		return session.SubmitAnswer(ctx, playerID, text)
	case eventSubmitVote:
		return session.SubmitVote(ctx, playerID, data.TargetID)
	case eventSkipQuestion:
		return session.Skip(ctx, playerID)
	case eventPlayerReady:
		return session.Ready(ctx, playerID)
	case eventStartWhoGuess:
		return session.StartWhoGuess(ctx, playerID)
	case eventLeaveGame:
		if err := session.Leave(ctx, playerID, data.GoHome); err != nil {
			return err
		}
		s.ws.Unbind(c)
		return nil
	case eventKickPlayer:
		if err := session.Kick(ctx, playerID, data.TargetID); err != nil {
			return err
		}
		s.ws.UnbindPlayer(session.Code(), data.TargetID)
		return nil
	default:
		s.log.Debug().Str("conn", c.id).Str("event", env.Event).Msg("unknown ws event")
		return nil
	}
}

func (s *Server) joinLive(ctx context.Context, c *client, data actionData) error {
	if data.PlayerID == "" {
		return fmt.Errorf("%w: playerId is required", game.ErrInvalidState)
	}
	session, err := s.registry.Lookup(ctx, data.Code)
	if err != nil {
		return err
	}
	s.ws.Bind(c, session.Code(), data.PlayerID)
	if err := session.Attach(ctx, data.PlayerID); err != nil {
		s.ws.Unbind(c)
		return err
	}
	return nil
}

// requester resolves the session and the player bound to c. Ids carried in
// the payload must name that same player.
func (s *Server) requester(ctx context.Context, c *client, data actionData) (*game.Session, string, error) {
	code, playerID := c.binding()
	if code == "" {
		return nil, "", fmt.Errorf("%w: connection has not joined a room", game.ErrUnauthorized)
	}
	if data.Code != "" && game.NormalizeCode(data.Code) != code {
		return nil, "", fmt.Errorf("%w: room mismatch", game.ErrUnauthorized)
	}
	for _, claimed := range []string{data.PlayerID, data.VoterID, data.HostID} {
		if claimed != "" && claimed != playerID {
			return nil, "", fmt.Errorf("%w: player mismatch", game.ErrUnauthorized)
		}
	}
	session, err := s.registry.Lookup(ctx, code)
	if err != nil {
		return nil, "", err
	}
	return session, playerID, nil
}

// report drops silent rejections and tells the sender about anything else.
func (s *Server) report(c *client, event string, err error) {
	if err == nil {
		return
	}
	if game.IsSilent(err) {
		s.log.Debug().Err(err).Str("conn", c.id).Str("event", event).Msg("ws action rejected")
		return
	}
	s.log.Error().Err(err).Str("conn", c.id).Str("event", event).Msg("ws action failed")
	s.ws.Send(c, game.EventActionFailed, actionFailed{Event: event, Error: "Something went wrong, please retry"})
}
