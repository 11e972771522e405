package game

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type sent struct {
	Room    string
	To      string
	Event   string
	Payload any
}

type recorder struct {
	mu     sync.Mutex
	events []sent
}

func (r *recorder) Publish(code, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, sent{Room: code, Event: event, Payload: payload})
}

func (r *recorder) SendTo(code, playerID, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, sent{Room: code, To: playerID, Event: event, Payload: payload})
}

func (r *recorder) all(event string) []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sent
	for _, e := range r.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) last(t *testing.T, event string) sent {
	t.Helper()
	matches := r.all(event)
	require.NotEmpty(t, matches, "no %s event", event)
	return matches[len(matches)-1]
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

type fakeContent struct {
	mu        sync.Mutex
	prompts   []Prompt
	promptErr error
	calls     int

	grades   []int
	gradeErr error
	graded   []string
	truth    string
}

func (f *fakeContent) GeneratePrompt(_ context.Context, category Category, _ []string) (Prompt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.promptErr != nil {
		return Prompt{}, f.promptErr
	}
	if len(f.prompts) == 0 {
		return Prompt{Text: "Question " + string(category), Meta: RoundMeta{Type: string(category)}}, nil
	}
	return f.prompts[(f.calls-1)%len(f.prompts)], nil
}

func (f *fakeContent) GradeCloseness(_ context.Context, _ string, answers []string, correct string) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.graded = append([]string(nil), answers...)
	f.truth = correct
	return f.grades, f.gradeErr
}

type fixture struct {
	t       *testing.T
	ctx     context.Context
	store   *MemoryStore
	out     *recorder
	content *fakeContent
	reg     *Registry
	session *Session
	ids     []string
	pick    int
}

// newFixture creates a room whose first name is the host. Random choices
// are pinned: shuffles are identity and subject picks use f.pick.
func newFixture(t *testing.T, category Category, names ...string) *fixture {
	t.Helper()
	f := &fixture{
		t:       t,
		ctx:     context.Background(),
		store:   NewMemoryStore(),
		out:     &recorder{},
		content: &fakeContent{},
	}
	f.reg = NewRegistry(Deps{
		Store:   f.store,
		Content: f.content,
		Out:     f.out,
		Intn:    func(n int) int { return f.pick % n },
		Shuffle: func(int, func(i, j int)) {},
	}, 20)

	session, host, err := f.reg.Create(f.ctx, CreateParams{HostName: names[0], Category: category, Rounds: MinRounds})
	require.NoError(t, err)
	f.session = session
	f.ids = append(f.ids, host.ID)
	for _, name := range names[1:] {
		player, err := session.AddPlayer(f.ctx, name, "")
		require.NoError(t, err)
		f.ids = append(f.ids, player.ID)
	}
	return f
}

func (f *fixture) start() {
	f.t.Helper()
	require.NoError(f.t, f.session.Start(f.ctx, f.ids[0]))
}

func (f *fixture) game() *Game {
	f.t.Helper()
	game, err := f.store.FindGameByCode(f.ctx, f.session.Code())
	require.NoError(f.t, err)
	return game
}

func (f *fixture) players() []Player {
	f.t.Helper()
	players, err := f.store.ListPlayers(f.ctx, f.game().ID)
	require.NoError(f.t, err)
	return players
}

func (f *fixture) score(id string) int {
	f.t.Helper()
	player, ok := findPlayer(f.players(), id)
	require.True(f.t, ok, "player %s missing", id)
	return player.Score
}

func (f *fixture) host() string {
	f.t.Helper()
	for _, p := range f.players() {
		if p.IsHost {
			return p.ID
		}
	}
	f.t.Fatal("room has no host")
	return ""
}

func (f *fixture) answerAll(text string) {
	f.t.Helper()
	for _, id := range f.ids {
		require.NoError(f.t, f.session.SubmitAnswer(f.ctx, id, text+" from "+id))
	}
}

func (f *fixture) readyAll() {
	f.t.Helper()
	for _, id := range f.ids {
		require.NoError(f.t, f.session.Ready(f.ctx, id))
	}
}
