package game

import "context"

// Store is the persistence contract. Implementations return ErrNotFound for
// missing records and must be safe for concurrent use across rooms.
type Store interface {
	CreateGame(ctx context.Context, game *Game) error
	FindGameByCode(ctx context.Context, code string) (*Game, error)
	UpdateGameState(ctx context.Context, gameID uint, state State, currentRound int) error
	// DeleteGame removes a game that never got a player.
	DeleteGame(ctx context.Context, gameID uint) error

	CreatePlayer(ctx context.Context, player *Player) error
	// ListPlayers returns the game's players in join order.
	ListPlayers(ctx context.Context, gameID uint) ([]Player, error)
	CountPlayers(ctx context.Context, gameID uint) (int, error)
	DeletePlayer(ctx context.Context, playerID string) error
	// SetHost makes playerID the only host of the game.
	SetHost(ctx context.Context, gameID uint, playerID string) error
	// CommitScores increments scores and moves the game to state in one unit.
	CommitScores(ctx context.Context, gameID uint, deltas []ScoreDelta, state State) error

	// ReplaceRounds drops every round of the game (with answers and votes)
	// and stores rounds, filling in their IDs.
	ReplaceRounds(ctx context.Context, gameID uint, rounds []Round) error
	FindRound(ctx context.Context, gameID uint, index int) (*Round, error)
	UpdateRoundPrompt(ctx context.Context, roundID uint, prompt Prompt) error

	// ReplaceAnswer deletes any answer for (round, player) and inserts answer.
	ReplaceAnswer(ctx context.Context, answer *Answer) error
	ListAnswers(ctx context.Context, roundID uint) ([]Answer, error)
	CountAnswers(ctx context.Context, roundID uint) (int, error)
	DeleteAnswers(ctx context.Context, filter AnswerFilter) error

	// ReplaceVote deletes any vote for (round, voter, kind) and inserts vote.
	ReplaceVote(ctx context.Context, vote *Vote) error
	ListVotes(ctx context.Context, roundID uint, kind VoteKind) ([]Vote, error)
	CountVotes(ctx context.Context, roundID uint, kind VoteKind) (int, error)
	DeleteVotes(ctx context.Context, filter VoteFilter) error

	RecordEvent(ctx context.Context, event Event) error
}

type ContentProvider interface {
	GeneratePrompt(ctx context.Context, category Category, playerNames []string) (Prompt, error)
	// GradeCloseness returns one 1..10 grade per answer.
	GradeCloseness(ctx context.Context, question string, answers []string, correct string) ([]int, error)
}

// Broadcaster delivers outbound events. Publish reaches every connection in
// the room, SendTo only the connection bound to playerID.
type Broadcaster interface {
	Publish(code string, event string, payload any)
	SendTo(code string, playerID string, event string, payload any)
}
