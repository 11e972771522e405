package game

import "context"

// Tally is a count of contributions against the current player count.
type Tally struct {
	Count int
	Total int
}

// Unanimous reports whether every player has contributed.
func (t Tally) Unanimous() bool {
	return t.Total > 0 && t.Count == t.Total
}

// Majority reports whether a strict majority has contributed.
func (t Tally) Majority() bool {
	return t.Total > 0 && t.Count >= MajorityThreshold(t.Total)
}

func MajorityThreshold(total int) int {
	return total/2 + 1
}

// Aggregator counts per-round contributions. Answers and votes are recounted
// from the store after every write; skip and ready requests are held in
// memory and belong to a single round.
type Aggregator struct {
	store   Store
	roundID uint
	skips   map[string]struct{}
	ready   map[string]struct{}
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{
		store: store,
		skips: make(map[string]struct{}),
		ready: make(map[string]struct{}),
	}
}

// Reset discards skip and ready trackers and binds them to roundID.
func (a *Aggregator) Reset(roundID uint) {
	a.roundID = roundID
	clear(a.skips)
	clear(a.ready)
}

func (a *Aggregator) bind(roundID uint) {
	if a.roundID != roundID {
		a.Reset(roundID)
	}
}

func (a *Aggregator) ClearSkips() { clear(a.skips) }

func (a *Aggregator) ClearReady() { clear(a.ready) }

func (a *Aggregator) RecordAnswer(ctx context.Context, gameID uint, answer Answer) (Tally, error) {
	if err := a.store.ReplaceAnswer(ctx, &answer); err != nil {
		return Tally{}, persistErr(err)
	}
	return a.Answers(ctx, gameID, answer.RoundID)
}

func (a *Aggregator) Answers(ctx context.Context, gameID, roundID uint) (Tally, error) {
	count, err := a.store.CountAnswers(ctx, roundID)
	if err != nil {
		return Tally{}, persistErr(err)
	}
	return a.against(ctx, gameID, count)
}

func (a *Aggregator) RecordVote(ctx context.Context, gameID uint, vote Vote) (Tally, error) {
	if err := a.store.ReplaceVote(ctx, &vote); err != nil {
		return Tally{}, persistErr(err)
	}
	return a.Votes(ctx, gameID, vote.RoundID, vote.Kind)
}

func (a *Aggregator) Votes(ctx context.Context, gameID, roundID uint, kind VoteKind) (Tally, error) {
	count, err := a.store.CountVotes(ctx, roundID, kind)
	if err != nil {
		return Tally{}, persistErr(err)
	}
	return a.against(ctx, gameID, count)
}

func (a *Aggregator) RecordSkip(ctx context.Context, gameID, roundID uint, playerID string) (Tally, error) {
	a.bind(roundID)
	a.skips[playerID] = struct{}{}
	return a.Skips(ctx, gameID, roundID)
}

func (a *Aggregator) Skips(ctx context.Context, gameID, roundID uint) (Tally, error) {
	a.bind(roundID)
	return a.against(ctx, gameID, len(a.skips))
}

func (a *Aggregator) RecordReady(ctx context.Context, gameID, roundID uint, playerID string) (Tally, error) {
	a.bind(roundID)
	a.ready[playerID] = struct{}{}
	return a.Ready(ctx, gameID, roundID)
}

func (a *Aggregator) Ready(ctx context.Context, gameID, roundID uint) (Tally, error) {
	a.bind(roundID)
	return a.against(ctx, gameID, len(a.ready))
}

// Forget drops every contribution playerID made to roundID. Once voting has
// been scored the ballots are final and only guesses are dropped, since
// who-guess scoring still reads them.
func (a *Aggregator) Forget(ctx context.Context, roundID uint, playerID string, ballotsFinal bool) error {
	if a.roundID == roundID {
		delete(a.skips, playerID)
		delete(a.ready, playerID)
	}
	if err := a.store.DeleteAnswers(ctx, AnswerFilter{RoundID: roundID, PlayerID: playerID}); err != nil {
		return persistErr(err)
	}
	filter := VoteFilter{RoundID: roundID, VoterID: playerID}
	if ballotsFinal {
		filter.Kind = VoteGuess
	}
	if err := a.store.DeleteVotes(ctx, filter); err != nil {
		return persistErr(err)
	}
	return nil
}

func (a *Aggregator) against(ctx context.Context, gameID uint, count int) (Tally, error) {
	total, err := a.store.CountPlayers(ctx, gameID)
	if err != nil {
		return Tally{}, persistErr(err)
	}
	return Tally{Count: count, Total: total}, nil
}
