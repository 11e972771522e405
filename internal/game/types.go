package game

type State string

const (
	StateLobby    State = "lobby"
	StatePlaying  State = "playing"
	StateVoting   State = "voting"
	StateWhoGuess State = "who-guess"
	StateResults  State = "results"
	StateGameOver State = "game-over"
)

// Active reports whether a round is in flight.
func (s State) Active() bool {
	switch s {
	case StatePlaying, StateVoting, StateWhoGuess, StateResults:
		return true
	default:
		return false
	}
}

// CorrectTarget is the vote target standing for the real answer.
const CorrectTarget = "CORRECT"

type Game struct {
	ID           uint
	Code         string
	Category     Category
	Rounds       int
	CurrentRound int
	State        State
}

type Player struct {
	ID        string
	GameID    uint
	Name      string
	AvatarURL string
	IsHost    bool
	Score     int
}

type RoundMeta struct {
	Type      string `json:"type"`
	Acronym   string `json:"acronym,omitempty"`
	Expansion string `json:"expansion,omitempty"`
	Word      string `json:"word,omitempty"`
	TrueFact  string `json:"trueFact,omitempty"`
	TimeLimit int    `json:"timeLimit,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

type Prompt struct {
	Text string
	Meta RoundMeta
}

type Round struct {
	ID     uint
	GameID uint
	Index  int
	Prompt string
	Meta   RoundMeta
}

type Answer struct {
	ID       uint
	RoundID  uint
	PlayerID string
	Text     string
}

type VoteKind string

const (
	VoteBallot VoteKind = "ballot"
	VoteGuess  VoteKind = "guess"
)

type Vote struct {
	ID       uint
	RoundID  uint
	VoterID  string
	TargetID string
	Kind     VoteKind
}

type Event struct {
	GameID   uint
	RoundID  uint
	PlayerID string
	Type     string
	Payload  any
}

type AnswerFilter struct {
	RoundID  uint
	PlayerID string
}

type VoteFilter struct {
	RoundID uint
	VoterID string
	Kind    VoteKind
}

func findPlayer(players []Player, id string) (*Player, bool) {
	for i := range players {
		if players[i].ID == id {
			return &players[i], true
		}
	}
	return nil, false
}

func playerNames(players []Player) []string {
	names := make([]string, 0, len(players))
	for _, player := range players {
		names = append(names, player.Name)
	}
	return names
}
