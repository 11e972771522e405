package game

import (
	"context"
	"errors"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	MaxAnswerLength   = 140
	promptConcurrency = 4
)

// Deps are the collaborators shared by every session of a registry.
type Deps struct {
	Store   Store
	Content ContentProvider
	Out     Broadcaster
	Logger  *zerolog.Logger
	// Intn and Shuffle default to math/rand/v2.
	Intn    func(n int) int
	Shuffle func(n int, swap func(i, j int))
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		nop := zerolog.Nop()
		d.Logger = &nop
	}
	if d.Intn == nil {
		d.Intn = rand.IntN
	}
	if d.Shuffle == nil {
		d.Shuffle = rand.Shuffle
	}
	if d.Out == nil {
		d.Out = discard{}
	}
	return d
}

type discard struct{}

func (discard) Publish(string, string, any)         {}
func (discard) SendTo(string, string, string, any) {}

// Session owns one room. Every action runs under the session lock so a
// room's transitions are serialized; different rooms never contend.
type Session struct {
	mu      sync.Mutex
	code    string
	gameID  uint
	rules   Rules
	store   Store
	content ContentProvider
	out     Broadcaster
	agg     *Aggregator
	intn    func(n int) int
	shuffle func(n int, swap func(i, j int))
	log     zerolog.Logger
}

func newSession(game *Game, deps Deps) (*Session, error) {
	rules, ok := RulesFor(game.Category)
	if !ok {
		return nil, ErrInvalidState
	}
	return &Session{
		code:    game.Code,
		gameID:  game.ID,
		rules:   rules,
		store:   deps.Store,
		content: deps.Content,
		out:     deps.Out,
		agg:     NewAggregator(deps.Store),
		intn:    deps.Intn,
		shuffle: deps.Shuffle,
		log:     deps.Logger.With().Str("code", game.Code).Str("category", string(game.Category)).Logger(),
	}, nil
}

func (s *Session) Code() string { return s.code }

func (s *Session) Rules() Rules { return s.rules }

// Start generates every round up front and moves the lobby to round 1.
func (s *Session) Start(ctx context.Context, requesterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, err := s.load(ctx)
	if err != nil {
		return err
	}
	if game.State != StateLobby {
		return ErrInvalidState
	}
	players, err := s.players(ctx)
	if err != nil {
		return err
	}
	requester, ok := findPlayer(players, requesterID)
	if !ok {
		return ErrNotFound
	}
	if !requester.IsHost {
		return ErrUnauthorized
	}
	if len(players) < 2 {
		s.out.SendTo(s.code, requesterID, EventNotice, NoticePayload{Text: "Need at least 2 players to start"})
		return ErrInvalidState
	}

	if game.Rounds < 1 {
		return ErrInvalidState
	}
	prompts := s.generateRounds(ctx, game.Rounds, playerNames(players))
	rounds := make([]Round, len(prompts))
	for i, prompt := range prompts {
		rounds[i] = Round{GameID: game.ID, Index: i + 1, Prompt: prompt.Text, Meta: prompt.Meta}
	}
	if err := s.store.ReplaceRounds(ctx, game.ID, rounds); err != nil {
		return persistErr(err)
	}
	if err := s.store.UpdateGameState(ctx, game.ID, StatePlaying, 1); err != nil {
		return persistErr(err)
	}
	game.State, game.CurrentRound = StatePlaying, 1
	s.agg.Reset(rounds[0].ID)

	s.log.Info().Int("rounds", len(rounds)).Int("players", len(players)).Msg("game started")
	s.journal(ctx, "game_started", rounds[0].ID, requesterID, map[string]any{"rounds": len(rounds)})
	s.out.Publish(s.code, EventGameStarted, s.roundPayload(game, &rounds[0]))
	return nil
}

func (s *Session) SubmitAnswer(ctx context.Context, playerID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, round, err := s.activeRound(ctx, playerID, StatePlaying)
	if err != nil {
		return err
	}
	text = NormalizeAnswer(text)
	if text == "" {
		return ErrInvalidState
	}
	tally, err := s.agg.RecordAnswer(ctx, game.ID, Answer{RoundID: round.ID, PlayerID: playerID, Text: text})
	if err != nil {
		return err
	}
	s.out.Publish(s.code, EventAnswerCount, AnswerCountPayload{Submitted: tally.Count, Total: tally.Total})
	if !tally.Unanimous() {
		return nil
	}
	return s.closeAnswers(ctx, game, round)
}

func (s *Session) SubmitVote(ctx context.Context, voterID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, round, err := s.activeRound(ctx, voterID, StateVoting, StateWhoGuess)
	if err != nil {
		return err
	}
	targetID = strings.TrimSpace(targetID)
	kind := VoteBallot
	if game.State == StateWhoGuess {
		kind = VoteGuess
	}
	if err := s.validateTarget(ctx, round, kind, targetID); err != nil {
		return err
	}

	tally, err := s.agg.RecordVote(ctx, game.ID, Vote{RoundID: round.ID, VoterID: voterID, TargetID: targetID, Kind: kind})
	if err != nil {
		return err
	}
	s.out.Publish(s.code, EventVoteCount, CountPayload{Count: tally.Count, Total: tally.Total})
	if !tally.Unanimous() {
		return nil
	}
	if kind == VoteGuess {
		return s.finishWhoGuess(ctx, game, round)
	}
	return s.finishVoting(ctx, game, round)
}

func (s *Session) Skip(ctx context.Context, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, round, err := s.activeRound(ctx, playerID, StatePlaying)
	if err != nil {
		return err
	}
	tally, err := s.agg.RecordSkip(ctx, game.ID, round.ID, playerID)
	if err != nil {
		return err
	}
	s.out.Publish(s.code, EventSkipVotes, SkipVotesPayload{SkipVotes: tally.Count, TotalPlayers: tally.Total})
	if !tally.Majority() {
		return nil
	}
	return s.replaceRound(ctx, game, round)
}

func (s *Session) Ready(ctx context.Context, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, round, err := s.activeRound(ctx, playerID, StateResults)
	if err != nil {
		return err
	}
	tally, err := s.agg.RecordReady(ctx, game.ID, round.ID, playerID)
	if err != nil {
		return err
	}
	s.out.Publish(s.code, EventReadyCount, CountPayload{Count: tally.Count, Total: tally.Total})
	if !tally.Unanimous() {
		return nil
	}
	return s.advance(ctx, game)
}

// StartWhoGuess opens the who-wrote-what phase from a round's results.
// It can run once per round.
func (s *Session) StartWhoGuess(ctx context.Context, requesterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.rules.AllowsWhoGuess() {
		return ErrInvalidState
	}
	game, round, err := s.activeRound(ctx, requesterID, StateResults)
	if err != nil {
		return err
	}
	players, err := s.players(ctx)
	if err != nil {
		return err
	}
	requester, ok := findPlayer(players, requesterID)
	if !ok {
		return ErrNotFound
	}
	if !requester.IsHost {
		return ErrUnauthorized
	}
	guesses, err := s.store.CountVotes(ctx, round.ID, VoteGuess)
	if err != nil {
		return persistErr(err)
	}
	if guesses > 0 {
		return ErrInvalidState
	}
	if err := s.store.UpdateGameState(ctx, game.ID, StateWhoGuess, game.CurrentRound); err != nil {
		return persistErr(err)
	}
	s.agg.ClearReady()
	s.journal(ctx, "who_guess_started", round.ID, requesterID, nil)
	s.out.Publish(s.code, EventWhoGuessPhase, WhoGuessPayload{Round: round.Index, Choices: roster(players)})
	return nil
}

// Summary is a read-only view of the room.
type Summary struct {
	Code         string
	Category     Category
	State        State
	CurrentRound int
	Rounds       int
	Players      []Player
}

func (s *Session) Summary(ctx context.Context) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, err := s.load(ctx)
	if err != nil {
		return Summary{}, err
	}
	players, err := s.players(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Code:         game.Code,
		Category:     game.Category,
		State:        game.State,
		CurrentRound: game.CurrentRound,
		Rounds:       game.Rounds,
		Players:      players,
	}, nil
}

func (s *Session) closeAnswers(ctx context.Context, game *Game, round *Round) error {
	if s.rules.GradesCloseness() {
		return s.gradeRound(ctx, game, round)
	}
	candidates, err := s.candidates(ctx, round)
	if err != nil {
		return err
	}
	if err := s.store.UpdateGameState(ctx, game.ID, StateVoting, game.CurrentRound); err != nil {
		return persistErr(err)
	}
	s.out.Publish(s.code, EventStartVoting, VotingPayload{
		Round:    round.Index,
		Question: round.Prompt,
		Category: s.rules.Category,
		Answers:  candidates,
	})
	return nil
}

// candidates lists a round's answers plus the real one, shuffled.
func (s *Session) candidates(ctx context.Context, round *Round) ([]Candidate, error) {
	answers, err := s.store.ListAnswers(ctx, round.ID)
	if err != nil {
		return nil, persistErr(err)
	}
	out := make([]Candidate, 0, len(answers)+1)
	for _, answer := range answers {
		out = append(out, Candidate{PlayerID: answer.PlayerID, Answer: answer.Text})
	}
	if correct, ok := s.rules.CorrectAnswer(round.Meta); ok {
		out = append(out, Candidate{PlayerID: CorrectTarget, Answer: correct})
	}
	s.shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out, nil
}

func (s *Session) gradeRound(ctx context.Context, game *Game, round *Round) error {
	players, err := s.players(ctx)
	if err != nil {
		return err
	}
	answers, err := s.store.ListAnswers(ctx, round.ID)
	if err != nil {
		return persistErr(err)
	}
	subject := players[s.intn(len(players))]

	var truth string
	var graded []Answer
	var texts []string
	for _, answer := range answers {
		if answer.PlayerID == subject.ID {
			truth = answer.Text
			continue
		}
		graded = append(graded, answer)
		texts = append(texts, answer.Text)
	}

	var grades []int
	if len(texts) > 0 && s.content != nil {
		grades, err = s.content.GradeCloseness(ctx, round.Prompt, texts, truth)
		if err != nil {
			s.log.Warn().Err(err).Int("round", round.Index).Msg("grade answers")
		}
	}
	grades = NormalizeGrades(grades, len(graded))
	return s.finishRound(ctx, game, round, ScoreCloseness(subject.ID, graded, grades))
}

func (s *Session) finishVoting(ctx context.Context, game *Game, round *Round) error {
	ballots, err := s.store.ListVotes(ctx, round.ID, VoteBallot)
	if err != nil {
		return persistErr(err)
	}
	return s.finishRound(ctx, game, round, s.rules.ScoreBallots(ballots))
}

func (s *Session) finishWhoGuess(ctx context.Context, game *Game, round *Round) error {
	ballots, err := s.store.ListVotes(ctx, round.ID, VoteBallot)
	if err != nil {
		return persistErr(err)
	}
	guesses, err := s.store.ListVotes(ctx, round.ID, VoteGuess)
	if err != nil {
		return persistErr(err)
	}
	return s.finishRound(ctx, game, round, ScoreWhoGuess(ballots, guesses))
}

// finishRound applies outcome for the players still in the room and moves
// to results.
func (s *Session) finishRound(ctx context.Context, game *Game, round *Round, outcome Outcome) error {
	players, err := s.players(ctx)
	if err != nil {
		return err
	}
	var deltas []ScoreDelta
	for _, delta := range outcome.Totals() {
		if _, ok := findPlayer(players, delta.PlayerID); ok {
			deltas = append(deltas, delta)
		}
	}
	if err := s.store.CommitScores(ctx, game.ID, deltas, StateResults); err != nil {
		return persistErr(err)
	}
	s.agg.ClearReady()

	players, err = s.players(ctx)
	if err != nil {
		return err
	}
	s.journal(ctx, "round_scored", round.ID, "", deltas)
	s.out.Publish(s.code, EventShowResults, ResultsPayload{
		Round:       round.Index,
		TotalRounds: game.Rounds,
		Question:    round.Prompt,
		Category:    s.rules.Category,
		Scores:      scoreboard(players),
		Details:     outcome.Details,
	})
	return nil
}

func (s *Session) advance(ctx context.Context, game *Game) error {
	if game.CurrentRound >= game.Rounds {
		if err := s.store.UpdateGameState(ctx, game.ID, StateGameOver, game.CurrentRound); err != nil {
			return persistErr(err)
		}
		s.agg.Reset(0)
		players, err := s.players(ctx)
		if err != nil {
			return err
		}
		s.log.Info().Int("rounds", game.Rounds).Msg("game over")
		s.journal(ctx, "game_over", 0, "", nil)
		s.out.Publish(s.code, EventGameOver, GameOverPayload{Scores: scoreboard(players)})
		return nil
	}

	next, err := s.store.FindRound(ctx, game.ID, game.CurrentRound+1)
	if err != nil {
		return persistErr(err)
	}
	if err := s.store.UpdateGameState(ctx, game.ID, StatePlaying, next.Index); err != nil {
		return persistErr(err)
	}
	game.State, game.CurrentRound = StatePlaying, next.Index
	s.agg.Reset(next.ID)
	s.out.Publish(s.code, EventNextRound, s.roundPayload(game, next))
	return nil
}

// replaceRound swaps the current prompt for a fresh one and starts the
// same round over.
func (s *Session) replaceRound(ctx context.Context, game *Game, round *Round) error {
	players, err := s.players(ctx)
	if err != nil {
		return err
	}
	prompt := s.generate(ctx, playerNames(players))
	if err := s.store.DeleteAnswers(ctx, AnswerFilter{RoundID: round.ID}); err != nil {
		return persistErr(err)
	}
	if err := s.store.DeleteVotes(ctx, VoteFilter{RoundID: round.ID}); err != nil {
		return persistErr(err)
	}
	if err := s.store.UpdateRoundPrompt(ctx, round.ID, prompt); err != nil {
		return persistErr(err)
	}
	round.Prompt, round.Meta = prompt.Text, prompt.Meta
	s.agg.ClearSkips()

	s.log.Info().Int("round", round.Index).Msg("round skipped")
	s.journal(ctx, "round_skipped", round.ID, "", nil)
	s.out.Publish(s.code, EventNextRound, s.roundPayload(game, round))
	s.out.Publish(s.code, EventAnswerCount, AnswerCountPayload{Submitted: 0, Total: len(players)})
	return nil
}

func (s *Session) generateRounds(ctx context.Context, n int, names []string) []Prompt {
	prompts := make([]Prompt, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(promptConcurrency)
	for i := range prompts {
		g.Go(func() error {
			prompts[i] = s.generate(gctx, names)
			return nil
		})
	}
	_ = g.Wait()
	return prompts
}

// generate never fails: unusable content falls back to a fixed prompt.
func (s *Session) generate(ctx context.Context, names []string) Prompt {
	if s.content == nil {
		return FallbackPrompt(s.rules.Category)
	}
	prompt, err := s.content.GeneratePrompt(ctx, s.rules.Category, names)
	if err != nil || !s.rules.Complete(prompt) {
		s.log.Warn().Err(err).Msg("generate prompt, using fallback")
		return FallbackPrompt(s.rules.Category)
	}
	if prompt.Meta.Type == "" {
		prompt.Meta.Type = string(s.rules.Category)
	}
	return prompt
}

func (s *Session) validateTarget(ctx context.Context, round *Round, kind VoteKind, targetID string) error {
	if targetID == "" {
		return ErrNotFound
	}
	if kind == VoteGuess {
		players, err := s.players(ctx)
		if err != nil {
			return err
		}
		if _, ok := findPlayer(players, targetID); !ok {
			return ErrNotFound
		}
		return nil
	}
	if targetID == CorrectTarget {
		if _, ok := s.rules.CorrectAnswer(round.Meta); ok {
			return nil
		}
		return ErrNotFound
	}
	answers, err := s.store.ListAnswers(ctx, round.ID)
	if err != nil {
		return persistErr(err)
	}
	for _, answer := range answers {
		if answer.PlayerID == targetID {
			return nil
		}
	}
	return ErrNotFound
}

// activeRound loads the game, checks that playerID belongs to it and that
// it is in one of states, and returns the current round.
func (s *Session) activeRound(ctx context.Context, playerID string, states ...State) (*Game, *Round, error) {
	game, err := s.load(ctx)
	if err != nil {
		return nil, nil, err
	}
	allowed := false
	for _, state := range states {
		allowed = allowed || game.State == state
	}
	if !allowed {
		return nil, nil, ErrInvalidState
	}
	players, err := s.players(ctx)
	if err != nil {
		return nil, nil, err
	}
	if _, ok := findPlayer(players, playerID); !ok {
		return nil, nil, ErrNotFound
	}
	round, err := s.store.FindRound(ctx, game.ID, game.CurrentRound)
	if err != nil {
		return nil, nil, persistErr(err)
	}
	return game, round, nil
}

func (s *Session) load(ctx context.Context) (*Game, error) {
	game, err := s.store.FindGameByCode(ctx, s.code)
	if err != nil {
		return nil, persistErr(err)
	}
	return game, nil
}

func (s *Session) players(ctx context.Context) ([]Player, error) {
	players, err := s.store.ListPlayers(ctx, s.gameID)
	if err != nil {
		return nil, persistErr(err)
	}
	return players, nil
}

func (s *Session) roundPayload(game *Game, round *Round) RoundPayload {
	return RoundPayload{
		Round:       round.Index,
		TotalRounds: game.Rounds,
		Question:    round.Prompt,
		Category:    s.rules.Category,
		Meta:        round.Meta,
	}
}

func (s *Session) journal(ctx context.Context, kind string, roundID uint, playerID string, payload any) {
	err := s.store.RecordEvent(ctx, Event{GameID: s.gameID, RoundID: roundID, PlayerID: playerID, Type: kind, Payload: payload})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn().Err(err).Str("event", kind).Msg("record event")
	}
}

// scoreboard orders players by score, ties in join order.
func scoreboard(players []Player) []ScoreLine {
	lines := make([]ScoreLine, 0, len(players))
	for _, p := range players {
		lines = append(lines, ScoreLine{PlayerID: p.ID, Name: p.Name, Score: p.Score})
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Score > lines[j].Score })
	return lines
}

// NormalizeAnswer trims text and caps it at MaxAnswerLength runes.
func NormalizeAnswer(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if runes := []rune(text); len(runes) > MaxAnswerLength {
		text = strings.TrimSpace(string(runes[:MaxAnswerLength]))
	}
	return text
}
