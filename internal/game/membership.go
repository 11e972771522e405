package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const MaxNameLength = 20

type departure int

const (
	departLeft departure = iota
	departKicked
	departDisconnected
)

func (d departure) notice(name string) string {
	switch d {
	case departKicked:
		return fmt.Sprintf("%s was kicked", name)
	case departDisconnected:
		return fmt.Sprintf("%s disconnected", name)
	default:
		return fmt.Sprintf("%s left", name)
	}
}

func (d departure) String() string {
	switch d {
	case departKicked:
		return "kicked"
	case departDisconnected:
		return "disconnected"
	default:
		return "left"
	}
}

// NormalizeName collapses whitespace and caps the name at MaxNameLength runes.
func NormalizeName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if runes := []rune(name); len(runes) > MaxNameLength {
		name = strings.TrimSpace(string(runes[:MaxNameLength]))
	}
	return name
}

// AddPlayer creates a player in the room. The first player of an empty room
// becomes host.
func (s *Session) AddPlayer(ctx context.Context, name, avatarURL string) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = NormalizeName(name)
	if name == "" {
		return nil, ErrInvalidState
	}
	players, err := s.players(ctx)
	if err != nil {
		return nil, err
	}
	player := &Player{GameID: s.gameID, Name: name, AvatarURL: strings.TrimSpace(avatarURL), IsHost: len(players) == 0}
	if err := s.store.CreatePlayer(ctx, player); err != nil {
		return nil, persistErr(err)
	}
	s.log.Info().Str("player", player.ID).Str("name", player.Name).Msg("player joined")
	s.journal(ctx, "player_joined", 0, player.ID, map[string]any{"name": player.Name})
	if err := s.publishRoster(ctx); err != nil {
		return nil, err
	}
	return player, nil
}

// Attach announces a live connection for playerID and brings it up to date
// with the room.
func (s *Session) Attach(ctx context.Context, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, err := s.load(ctx)
	if err != nil {
		return err
	}
	players, err := s.players(ctx)
	if err != nil {
		return err
	}
	me, ok := findPlayer(players, playerID)
	if !ok {
		return ErrNotFound
	}

	s.out.Publish(s.code, EventPlayersUpdated, roster(players))
	s.out.Publish(s.code, EventNotice, NoticePayload{Text: fmt.Sprintf("%s joined", me.Name)})

	state := GameStatePayload{
		Code:        game.Code,
		Category:    game.Category,
		State:       game.State,
		Round:       game.CurrentRound,
		TotalRounds: game.Rounds,
		Players:     roster(players),
	}
	var round *Round
	if game.State.Active() {
		round, err = s.store.FindRound(ctx, game.ID, game.CurrentRound)
		if err != nil {
			return persistErr(err)
		}
		state.Question = round.Prompt
		meta := round.Meta
		state.Meta = &meta
	}
	s.out.SendTo(s.code, playerID, EventGameState, state)

	switch game.State {
	case StateVoting:
		candidates, err := s.candidates(ctx, round)
		if err != nil {
			return err
		}
		s.out.SendTo(s.code, playerID, EventStartVoting, VotingPayload{
			Round:    round.Index,
			Question: round.Prompt,
			Category: s.rules.Category,
			Answers:  candidates,
		})
	case StateWhoGuess:
		s.out.SendTo(s.code, playerID, EventWhoGuessPhase, WhoGuessPayload{Round: round.Index, Choices: roster(players)})
	}
	return nil
}

// Leave removes playerID. goHome is echoed back so the client knows where to
// navigate.
func (s *Session) Leave(ctx context.Context, playerID string, goHome bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.remove(ctx, playerID, departLeft); err != nil {
		return err
	}
	s.out.SendTo(s.code, playerID, EventLeftSuccess, LeftPayload{GoHome: goHome})
	return nil
}

func (s *Session) Kick(ctx context.Context, hostID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	players, err := s.players(ctx)
	if err != nil {
		return err
	}
	host, ok := findPlayer(players, hostID)
	if !ok {
		return ErrNotFound
	}
	if !host.IsHost {
		return ErrUnauthorized
	}
	if targetID == hostID {
		return ErrInvalidState
	}
	if _, err := s.remove(ctx, targetID, departKicked); err != nil {
		return err
	}
	s.out.SendTo(s.code, targetID, EventKicked, nil)
	return nil
}

// Disconnect removes a player whose connection dropped.
func (s *Session) Disconnect(ctx context.Context, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.remove(ctx, playerID, departDisconnected)
	return err
}

// remove deletes a player with everything they contributed to the current
// round, keeps the room's host and quorum invariants, and sends the room
// back to the lobby if fewer than two players remain mid-game.
func (s *Session) remove(ctx context.Context, playerID string, why departure) (*Player, error) {
	game, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	players, err := s.players(ctx)
	if err != nil {
		return nil, err
	}
	leaving, ok := findPlayer(players, playerID)
	if !ok {
		return nil, ErrNotFound
	}
	gone := *leaving

	if game.State.Active() {
		round, err := s.store.FindRound(ctx, game.ID, game.CurrentRound)
		switch {
		case err == nil:
			if err := s.agg.Forget(ctx, round.ID, playerID, game.State == StateResults || game.State == StateWhoGuess); err != nil {
				return nil, err
			}
		case !errors.Is(err, ErrNotFound):
			return nil, persistErr(err)
		}
	}
	if err := s.store.DeletePlayer(ctx, playerID); err != nil {
		return nil, persistErr(err)
	}

	remaining := make([]Player, 0, len(players))
	for _, p := range players {
		if p.ID != playerID {
			remaining = append(remaining, p)
		}
	}

	s.log.Info().Str("player", gone.ID).Str("reason", why.String()).Int("remaining", len(remaining)).Msg("player removed")
	s.journal(ctx, "player_"+why.String(), 0, gone.ID, map[string]any{"name": gone.Name})
	s.out.Publish(s.code, EventNotice, NoticePayload{Text: why.notice(gone.Name)})

	if gone.IsHost && len(remaining) > 0 {
		if err := s.store.SetHost(ctx, game.ID, remaining[0].ID); err != nil {
			return nil, persistErr(err)
		}
		s.out.Publish(s.code, EventNotice, NoticePayload{Text: fmt.Sprintf("%s is now host", remaining[0].Name)})
	}

	if game.State.Active() && len(remaining) < 2 {
		if err := s.abort(ctx, game, remaining); err != nil {
			return nil, err
		}
		return &gone, s.publishRoster(ctx)
	}
	if err := s.publishRoster(ctx); err != nil {
		return nil, err
	}
	if game.State.Active() {
		if err := s.recheck(ctx, game); err != nil {
			return nil, err
		}
	}
	return &gone, nil
}

func (s *Session) abort(ctx context.Context, game *Game, remaining []Player) error {
	if err := s.store.UpdateGameState(ctx, game.ID, StateLobby, 0); err != nil {
		return persistErr(err)
	}
	s.agg.Reset(0)
	s.log.Info().Int("remaining", len(remaining)).Msg("game aborted to lobby")
	s.journal(ctx, "game_aborted", 0, "", nil)
	if len(remaining) == 0 {
		return nil
	}
	if err := s.store.SetHost(ctx, game.ID, remaining[0].ID); err != nil {
		return persistErr(err)
	}
	s.out.Publish(s.code, EventNotice, NoticePayload{Text: "Only one player left, returning to lobby"})
	s.out.Publish(s.code, EventAborted, nil)
	return nil
}

// recheck re-evaluates the current phase's quorum against the smaller room.
func (s *Session) recheck(ctx context.Context, game *Game) error {
	round, err := s.store.FindRound(ctx, game.ID, game.CurrentRound)
	if err != nil {
		return persistErr(err)
	}
	switch game.State {
	case StatePlaying:
		answers, err := s.agg.Answers(ctx, game.ID, round.ID)
		if err != nil {
			return err
		}
		s.out.Publish(s.code, EventAnswerCount, AnswerCountPayload{Submitted: answers.Count, Total: answers.Total})
		if answers.Unanimous() {
			return s.closeAnswers(ctx, game, round)
		}
		skips, err := s.agg.Skips(ctx, game.ID, round.ID)
		if err != nil {
			return err
		}
		if skips.Count > 0 && skips.Majority() {
			return s.replaceRound(ctx, game, round)
		}
	case StateVoting, StateWhoGuess:
		kind := VoteBallot
		if game.State == StateWhoGuess {
			kind = VoteGuess
		}
		votes, err := s.agg.Votes(ctx, game.ID, round.ID, kind)
		if err != nil {
			return err
		}
		s.out.Publish(s.code, EventVoteCount, CountPayload{Count: votes.Count, Total: votes.Total})
		if !votes.Unanimous() {
			return nil
		}
		if kind == VoteGuess {
			return s.finishWhoGuess(ctx, game, round)
		}
		return s.finishVoting(ctx, game, round)
	case StateResults:
		ready, err := s.agg.Ready(ctx, game.ID, round.ID)
		if err != nil {
			return err
		}
		s.out.Publish(s.code, EventReadyCount, CountPayload{Count: ready.Count, Total: ready.Total})
		if ready.Unanimous() {
			return s.advance(ctx, game)
		}
	}
	return nil
}

func (s *Session) publishRoster(ctx context.Context) error {
	players, err := s.players(ctx)
	if err != nil {
		return err
	}
	s.out.Publish(s.code, EventPlayersUpdated, roster(players))
	return nil
}
