package game

import (
	"context"
	"strconv"
	"sync"
)

// MemoryStore keeps everything in process. It backs the server when no
// database is configured and drives the game tests.
type MemoryStore struct {
	mu           sync.Mutex
	nextGameID   uint
	nextPlayerID uint
	nextRoundID  uint
	nextAnswerID uint
	nextVoteID   uint
	games        map[uint]*Game
	codes        map[string]uint
	players      []Player
	rounds       []Round
	answers      []Answer
	votes        []Vote
	events       []Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextGameID:   1,
		nextPlayerID: 1,
		nextRoundID:  1,
		nextAnswerID: 1,
		nextVoteID:   1,
		games:        make(map[uint]*Game),
		codes:        make(map[string]uint),
	}
}

func (m *MemoryStore) CreateGame(_ context.Context, game *Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.codes[game.Code]; ok {
		return ErrCodeTaken
	}
	game.ID = m.nextGameID
	m.nextGameID++
	stored := *game
	m.games[game.ID] = &stored
	m.codes[game.Code] = game.ID
	return nil
}

func (m *MemoryStore) DeleteGame(_ context.Context, gameID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	game, ok := m.games[gameID]
	if !ok {
		return ErrNotFound
	}
	delete(m.codes, game.Code)
	delete(m.games, gameID)
	return nil
}

func (m *MemoryStore) FindGameByCode(_ context.Context, code string) (*Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.codes[code]
	if !ok {
		return nil, ErrNotFound
	}
	game := *m.games[id]
	return &game, nil
}

func (m *MemoryStore) UpdateGameState(_ context.Context, gameID uint, state State, currentRound int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	game, ok := m.games[gameID]
	if !ok {
		return ErrNotFound
	}
	game.State = state
	game.CurrentRound = currentRound
	return nil
}

func (m *MemoryStore) CreatePlayer(_ context.Context, player *Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.games[player.GameID]; !ok {
		return ErrNotFound
	}
	player.ID = strconv.FormatUint(uint64(m.nextPlayerID), 10)
	m.nextPlayerID++
	m.players = append(m.players, *player)
	return nil
}

func (m *MemoryStore) ListPlayers(_ context.Context, gameID uint) ([]Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Player
	for _, p := range m.players {
		if p.GameID == gameID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryStore) CountPlayers(ctx context.Context, gameID uint) (int, error) {
	players, err := m.ListPlayers(ctx, gameID)
	return len(players), err
}

func (m *MemoryStore) DeletePlayer(_ context.Context, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, p := range m.players {
		if p.ID == playerID {
			m.players = append(m.players[:i], m.players[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) SetHost(_ context.Context, gameID uint, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	for _, p := range m.players {
		found = found || (p.GameID == gameID && p.ID == playerID)
	}
	if !found {
		return ErrNotFound
	}
	for i := range m.players {
		if m.players[i].GameID == gameID {
			m.players[i].IsHost = m.players[i].ID == playerID
		}
	}
	return nil
}

func (m *MemoryStore) CommitScores(_ context.Context, gameID uint, deltas []ScoreDelta, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	game, ok := m.games[gameID]
	if !ok {
		return ErrNotFound
	}
	for _, delta := range deltas {
		for i := range m.players {
			if m.players[i].GameID == gameID && m.players[i].ID == delta.PlayerID {
				m.players[i].Score += delta.Points
			}
		}
	}
	game.State = state
	return nil
}

func (m *MemoryStore) ReplaceRounds(_ context.Context, gameID uint, rounds []Round) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := make(map[uint]bool)
	kept := m.rounds[:0]
	for _, r := range m.rounds {
		if r.GameID == gameID {
			dropped[r.ID] = true
			continue
		}
		kept = append(kept, r)
	}
	m.rounds = kept
	m.answers = filter(m.answers, func(a Answer) bool { return !dropped[a.RoundID] })
	m.votes = filter(m.votes, func(v Vote) bool { return !dropped[v.RoundID] })

	for i := range rounds {
		rounds[i].ID = m.nextRoundID
		rounds[i].GameID = gameID
		m.nextRoundID++
		m.rounds = append(m.rounds, rounds[i])
	}
	return nil
}

func (m *MemoryStore) FindRound(_ context.Context, gameID uint, index int) (*Round, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.rounds {
		if r.GameID == gameID && r.Index == index {
			round := r
			return &round, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) UpdateRoundPrompt(_ context.Context, roundID uint, prompt Prompt) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.rounds {
		if m.rounds[i].ID == roundID {
			m.rounds[i].Prompt = prompt.Text
			m.rounds[i].Meta = prompt.Meta
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) ReplaceAnswer(_ context.Context, answer *Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.answers = filter(m.answers, func(a Answer) bool {
		return a.RoundID != answer.RoundID || a.PlayerID != answer.PlayerID
	})
	answer.ID = m.nextAnswerID
	m.nextAnswerID++
	m.answers = append(m.answers, *answer)
	return nil
}

func (m *MemoryStore) ListAnswers(_ context.Context, roundID uint) ([]Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return filter(append([]Answer(nil), m.answers...), func(a Answer) bool { return a.RoundID == roundID }), nil
}

func (m *MemoryStore) CountAnswers(ctx context.Context, roundID uint) (int, error) {
	answers, err := m.ListAnswers(ctx, roundID)
	return len(answers), err
}

func (m *MemoryStore) DeleteAnswers(_ context.Context, f AnswerFilter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.answers = filter(m.answers, func(a Answer) bool {
		return a.RoundID != f.RoundID || (f.PlayerID != "" && a.PlayerID != f.PlayerID)
	})
	return nil
}

func (m *MemoryStore) ReplaceVote(_ context.Context, vote *Vote) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.votes = filter(m.votes, func(v Vote) bool {
		return v.RoundID != vote.RoundID || v.VoterID != vote.VoterID || v.Kind != vote.Kind
	})
	vote.ID = m.nextVoteID
	m.nextVoteID++
	m.votes = append(m.votes, *vote)
	return nil
}

func (m *MemoryStore) ListVotes(_ context.Context, roundID uint, kind VoteKind) ([]Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return filter(append([]Vote(nil), m.votes...), func(v Vote) bool {
		return v.RoundID == roundID && v.Kind == kind
	}), nil
}

func (m *MemoryStore) CountVotes(ctx context.Context, roundID uint, kind VoteKind) (int, error) {
	votes, err := m.ListVotes(ctx, roundID, kind)
	return len(votes), err
}

func (m *MemoryStore) DeleteVotes(_ context.Context, f VoteFilter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.votes = filter(m.votes, func(v Vote) bool {
		match := v.RoundID == f.RoundID &&
			(f.VoterID == "" || v.VoterID == f.VoterID) &&
			(f.Kind == "" || v.Kind == f.Kind)
		return !match
	})
	return nil
}

func (m *MemoryStore) RecordEvent(_ context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, event)
	return nil
}

// Events returns the journal recorded so far.
func (m *MemoryStore) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Event(nil), m.events...)
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := items[:0]
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
var _ Store = (*MemoryStore)(nil)
