package game

const (
	EventPlayersUpdated = "players-updated"
	EventGameState      = "game-state"
	EventGameStarted    = "game-started"
	EventNextRound      = "next-round"
	EventStartVoting    = "start-voting"
	EventAnswerCount    = "answer-count-update"
	EventVoteCount      = "vote-count-update"
	EventSkipVotes      = "skip-votes-update"
	EventReadyCount     = "ready-count-update"
	EventShowResults    = "show-results"
	EventWhoGuessPhase  = "who-guess-phase"
	EventGameOver       = "game-over"
	EventNotice         = "notice"
	EventKicked         = "kicked"
	EventLeftSuccess    = "left-success"
	EventAborted        = "game-aborted-to-lobby"
	EventActionFailed   = "action-failed"
)

type RosterEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
	IsHost    bool   `json:"isHost"`
	Score     int    `json:"score"`
}

type RoundPayload struct {
	Round       int       `json:"round"`
	TotalRounds int       `json:"totalRounds"`
	Question    string    `json:"question"`
	Category    Category  `json:"category"`
	Meta        RoundMeta `json:"meta"`
}

type Candidate struct {
	PlayerID string `json:"playerId"`
	Answer   string `json:"answer"`
}

type VotingPayload struct {
	Round    int         `json:"round"`
	Question string      `json:"question"`
	Category Category    `json:"category"`
	Answers  []Candidate `json:"answers"`
}

type AnswerCountPayload struct {
	Submitted int `json:"submitted"`
	Total     int `json:"total"`
}

type CountPayload struct {
	Count int `json:"count"`
	Total int `json:"total"`
}

type SkipVotesPayload struct {
	SkipVotes    int `json:"skipVotes"`
	TotalPlayers int `json:"totalPlayers"`
}

type ScoreLine struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

type ResultsPayload struct {
	Round       int            `json:"round"`
	TotalRounds int            `json:"totalRounds"`
	Question    string         `json:"question"`
	Category    Category       `json:"category"`
	Scores      []ScoreLine    `json:"scores"`
	Details     []ResultDetail `json:"details"`
}

type GameOverPayload struct {
	Scores []ScoreLine `json:"scores"`
}

type WhoGuessPayload struct {
	Round   int           `json:"round"`
	Choices []RosterEntry `json:"choices"`
}

type NoticePayload struct {
	Text string `json:"text"`
}

type LeftPayload struct {
	GoHome bool `json:"goHome"`
}

type GameStatePayload struct {
	Code        string        `json:"code"`
	Category    Category      `json:"category"`
	State       State         `json:"state"`
	Round       int           `json:"round"`
	TotalRounds int           `json:"totalRounds"`
	Question    string        `json:"currentPrompt,omitempty"`
	Meta        *RoundMeta    `json:"meta,omitempty"`
	Players     []RosterEntry `json:"players"`
}

func roster(players []Player) []RosterEntry {
	out := make([]RosterEntry, 0, len(players))
	for _, p := range players {
		out = append(out, RosterEntry{ID: p.ID, Name: p.Name, AvatarURL: p.AvatarURL, IsHost: p.IsHost, Score: p.Score})
	}
	return out
}
