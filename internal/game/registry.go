package game

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

const (
	MinRounds    = 3
	codeAttempts = 32
	codeLetters  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// CreateParams describes a new room.
type CreateParams struct {
	HostName  string
	AvatarURL string
	Category  Category
	Rounds    int
}

// Registry maps room codes to live sessions. Sessions for rooms created by
// another process are rebuilt from the store on first use.
type Registry struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	deps      Deps
	maxRounds int
}

func NewRegistry(deps Deps, maxRounds int) *Registry {
	if maxRounds < MinRounds {
		maxRounds = MinRounds
	}
	return &Registry{
		sessions:  make(map[string]*Session),
		deps:      deps.withDefaults(),
		maxRounds: maxRounds,
	}
}

// Create stores a new lobby with its host and registers its session.
func (r *Registry) Create(ctx context.Context, params CreateParams) (*Session, *Player, error) {
	rules, ok := RulesFor(params.Category)
	if !ok {
		return nil, nil, fmt.Errorf("%w: unknown category %q", ErrInvalidState, params.Category)
	}
	name := NormalizeName(params.HostName)
	if name == "" {
		return nil, nil, fmt.Errorf("%w: name is required", ErrInvalidState)
	}
	rounds := min(max(params.Rounds, MinRounds), r.maxRounds)

	r.mu.Lock()
	defer r.mu.Unlock()

	var game *Game
	for attempt := 0; game == nil; attempt++ {
		code, err := r.freeCode(ctx)
		if err != nil {
			return nil, nil, err
		}
		candidate := &Game{Code: code, Category: rules.Category, Rounds: rounds, State: StateLobby}
		err = r.deps.Store.CreateGame(ctx, candidate)
		switch {
		case err == nil:
			game = candidate
		case errors.Is(err, ErrCodeTaken) && attempt < codeAttempts:
			// Another process claimed the code between check and insert.
		default:
			return nil, nil, persistErr(err)
		}
	}
	code := game.Code
	session, err := newSession(game, r.deps)
	if err != nil {
		return nil, nil, err
	}
	host := &Player{GameID: game.ID, Name: name, AvatarURL: params.AvatarURL, IsHost: true}
	if err := r.deps.Store.CreatePlayer(ctx, host); err != nil {
		if derr := r.deps.Store.DeleteGame(ctx, game.ID); derr != nil {
			r.deps.Logger.Warn().Err(derr).Str("code", code).Msg("release room code")
		}
		return nil, nil, persistErr(err)
	}
	r.sessions[code] = session
	session.log.Info().Int("rounds", rounds).Str("host", host.ID).Msg("game created")
	session.journal(ctx, "game_created", 0, host.ID, map[string]any{"rounds": rounds})
	return session, host, nil
}

// Lookup returns the session for code, rehydrating it from the store.
func (r *Registry) Lookup(ctx context.Context, code string) (*Session, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, ErrNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[code]; ok {
		return session, nil
	}
	game, err := r.deps.Store.FindGameByCode(ctx, code)
	if err != nil {
		return nil, persistErr(err)
	}
	session, err := newSession(game, r.deps)
	if err != nil {
		return nil, err
	}
	if game.State.Active() {
		if round, err := r.deps.Store.FindRound(ctx, game.ID, game.CurrentRound); err == nil {
			session.agg.Reset(round.ID)
		}
	}
	r.sessions[code] = session
	session.log.Info().Str("state", string(game.State)).Msg("session restored")
	return session, nil
}

// Sessions returns the live sessions ordered by code.
func (r *Registry) Sessions() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		out = append(out, session)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].code < out[j].code })
	return out
}

// freeCode picks an unused word, falling back to random letters when the
// pool is crowded. Callers hold r.mu.
func (r *Registry) freeCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code := roomWords[r.deps.Intn(len(roomWords))]
		if attempt >= codeAttempts/2 {
			code = r.randomLetters(4)
		}
		taken, err := r.taken(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: no free room code", ErrPersistence)
}

func (r *Registry) taken(ctx context.Context, code string) (bool, error) {
	if _, ok := r.sessions[code]; ok {
		return true, nil
	}
	_, err := r.deps.Store.FindGameByCode(ctx, code)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, persistErr(err)
	}
}

func (r *Registry) randomLetters(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = codeLetters[r.deps.Intn(len(codeLetters))]
	}
	return string(b)
}
