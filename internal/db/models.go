package db

import (
	"time"

	"gorm.io/datatypes"
)

// Game is one room. Code is unique across live and finished rooms.
type Game struct {
	ID           uint      `gorm:"primaryKey"`
	Code         string    `gorm:"size:12;uniqueIndex;not null"`
	Category     string    `gorm:"size:32;not null"`
	Rounds       int       `gorm:"not null;default:8"`
	CurrentRound int       `gorm:"not null;default:0"`
	State        string    `gorm:"size:16;not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
	Players      []Player
	Events       []Event
}

// Player rows are deleted on departure, so join order is ID order.
type Player struct {
	ID        uint      `gorm:"primaryKey"`
	GameID    uint      `gorm:"index;not null"`
	Name      string    `gorm:"size:64;not null"`
	AvatarURL string    `gorm:"size:512;not null;default:''"`
	IsHost    bool      `gorm:"not null;default:false"`
	Score     int       `gorm:"not null;default:0"`
	JoinedAt  time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Round struct {
	ID        uint           `gorm:"primaryKey"`
	GameID    uint           `gorm:"index;not null;uniqueIndex:idx_rounds_game_number"`
	Number    int            `gorm:"not null;uniqueIndex:idx_rounds_game_number"`
	Prompt    string         `gorm:"size:512;not null"`
	Meta      datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time      `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
	Answers   []Answer
	Votes     []Vote
}

// Answer keeps the latest submission per player and round.
type Answer struct {
	ID        uint      `gorm:"primaryKey"`
	RoundID   uint      `gorm:"index;not null;uniqueIndex:idx_answers_round_player"`
	PlayerID  uint      `gorm:"index;not null;uniqueIndex:idx_answers_round_player"`
	Text      string    `gorm:"size:280;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// Vote is a ballot or a who-guess. TargetID holds a player id or the
// CORRECT sentinel.
type Vote struct {
	ID        uint      `gorm:"primaryKey"`
	RoundID   uint      `gorm:"index;not null;uniqueIndex:idx_votes_round_voter_kind"`
	VoterID   uint      `gorm:"index;not null;uniqueIndex:idx_votes_round_voter_kind"`
	Kind      string    `gorm:"size:16;not null;uniqueIndex:idx_votes_round_voter_kind"`
	TargetID  string    `gorm:"size:32;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// Event is an append-only journal entry. Round and player are optional and
// are not foreign keys, since players are deleted when they leave.
type Event struct {
	ID        uint           `gorm:"primaryKey"`
	GameID    uint           `gorm:"index;not null"`
	Type      string         `gorm:"size:64;not null"`
	RoundID   *uint          `gorm:"index"`
	PlayerID  *uint          `gorm:"index"`
	Payload   datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time      `gorm:"not null"`
}

// PromptLibrary holds curated fallback questions per category.
type PromptLibrary struct {
	ID        uint      `gorm:"primaryKey"`
	Category  string    `gorm:"size:64;not null;uniqueIndex:idx_prompt_library_category_text"`
	Text      string    `gorm:"size:280;not null;uniqueIndex:idx_prompt_library_category_text"`
	CreatedAt time.Time `gorm:"not null"`
}

func (PromptLibrary) TableName() string { return "prompt_library" }
