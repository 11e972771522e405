package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"psykos/internal/db"
	"psykos/internal/game"
)

// GormStore persists rooms through GORM. It works against Postgres in
// production and SQLite in tests.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(conn *gorm.DB) *GormStore {
	return &GormStore{db: conn}
}

var _ game.Store = (*GormStore)(nil)

func (s *GormStore) CreateGame(ctx context.Context, g *game.Game) error {
	record := db.Game{
		Code:         g.Code,
		Category:     string(g.Category),
		Rounds:       g.Rounds,
		CurrentRound: g.CurrentRound,
		State:        string(g.State),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", game.ErrCodeTaken, g.Code)
		}
		return err
	}
	g.ID = record.ID
	return nil
}

func (s *GormStore) DeleteGame(ctx context.Context, gameID uint) error {
	return affected(s.db.WithContext(ctx).Delete(&db.Game{}, gameID))
}

func (s *GormStore) FindGameByCode(ctx context.Context, code string) (*game.Game, error) {
	var record db.Game
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&record).Error; err != nil {
		return nil, notFound(err)
	}
	return &game.Game{
		ID:           record.ID,
		Code:         record.Code,
		Category:     game.Category(record.Category),
		Rounds:       record.Rounds,
		CurrentRound: record.CurrentRound,
		State:        game.State(record.State),
	}, nil
}

func (s *GormStore) UpdateGameState(ctx context.Context, gameID uint, state game.State, currentRound int) error {
	result := s.db.WithContext(ctx).Model(&db.Game{}).Where("id = ?", gameID).Updates(map[string]any{
		"state":         string(state),
		"current_round": currentRound,
	})
	return affected(result)
}

func (s *GormStore) CreatePlayer(ctx context.Context, p *game.Player) error {
	record := db.Player{
		GameID:    p.GameID,
		Name:      p.Name,
		AvatarURL: p.AvatarURL,
		IsHost:    p.IsHost,
		Score:     p.Score,
		JoinedAt:  time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return err
	}
	p.ID = formatID(record.ID)
	return nil
}

func (s *GormStore) ListPlayers(ctx context.Context, gameID uint) ([]game.Player, error) {
	var records []db.Player
	if err := s.db.WithContext(ctx).Where("game_id = ?", gameID).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	players := make([]game.Player, 0, len(records))
	for _, r := range records {
		players = append(players, game.Player{
			ID:        formatID(r.ID),
			GameID:    r.GameID,
			Name:      r.Name,
			AvatarURL: r.AvatarURL,
			IsHost:    r.IsHost,
			Score:     r.Score,
		})
	}
	return players, nil
}

func (s *GormStore) CountPlayers(ctx context.Context, gameID uint) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&db.Player{}).Where("game_id = ?", gameID).Count(&count).Error
	return int(count), err
}

func (s *GormStore) DeletePlayer(ctx context.Context, playerID string) error {
	id, err := parseID(playerID)
	if err != nil {
		return err
	}
	return affected(s.db.WithContext(ctx).Delete(&db.Player{}, id))
}

func (s *GormStore) SetHost(ctx context.Context, gameID uint, playerID string) error {
	id, err := parseID(playerID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record db.Player
		if err := tx.Where("id = ? AND game_id = ?", id, gameID).First(&record).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Model(&db.Player{}).Where("game_id = ? AND id <> ?", gameID, id).Update("is_host", false).Error; err != nil {
			return err
		}
		return tx.Model(&record).Update("is_host", true).Error
	})
}

func (s *GormStore) CommitScores(ctx context.Context, gameID uint, deltas []game.ScoreDelta, state game.State) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, delta := range deltas {
			id, err := parseID(delta.PlayerID)
			if err != nil {
				return err
			}
			if err := tx.Model(&db.Player{}).
				Where("id = ? AND game_id = ?", id, gameID).
				Update("score", gorm.Expr("score + ?", delta.Points)).Error; err != nil {
				return err
			}
		}
		return affected(tx.Model(&db.Game{}).Where("id = ?", gameID).Update("state", string(state)))
	})
}

func (s *GormStore) ReplaceRounds(ctx context.Context, gameID uint, rounds []game.Round) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing := tx.Model(&db.Round{}).Select("id").Where("game_id = ?", gameID)
		if err := tx.Where("round_id IN (?)", existing).Delete(&db.Answer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("round_id IN (?)", existing).Delete(&db.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("game_id = ?", gameID).Delete(&db.Round{}).Error; err != nil {
			return err
		}
		if len(rounds) == 0 {
			return nil
		}

		records := make([]db.Round, len(rounds))
		for i, r := range rounds {
			meta, err := json.Marshal(r.Meta)
			if err != nil {
				return err
			}
			records[i] = db.Round{GameID: gameID, Number: r.Index, Prompt: r.Prompt, Meta: datatypes.JSON(meta)}
		}
		if err := tx.Create(&records).Error; err != nil {
			return err
		}
		for i := range rounds {
			rounds[i].ID = records[i].ID
			rounds[i].GameID = gameID
		}
		return nil
	})
}

func (s *GormStore) FindRound(ctx context.Context, gameID uint, index int) (*game.Round, error) {
	var record db.Round
	if err := s.db.WithContext(ctx).Where("game_id = ? AND number = ?", gameID, index).First(&record).Error; err != nil {
		return nil, notFound(err)
	}
	round := &game.Round{ID: record.ID, GameID: record.GameID, Index: record.Number, Prompt: record.Prompt}
	if len(record.Meta) > 0 {
		if err := json.Unmarshal(record.Meta, &round.Meta); err != nil {
			return nil, fmt.Errorf("decode round %d meta: %w", record.ID, err)
		}
	}
	return round, nil
}

func (s *GormStore) UpdateRoundPrompt(ctx context.Context, roundID uint, prompt game.Prompt) error {
	meta, err := json.Marshal(prompt.Meta)
	if err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Model(&db.Round{}).Where("id = ?", roundID).Updates(map[string]any{
		"prompt": prompt.Text,
		"meta":   datatypes.JSON(meta),
	})
	return affected(result)
}

func (s *GormStore) ReplaceAnswer(ctx context.Context, answer *game.Answer) error {
	playerID, err := parseID(answer.PlayerID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("round_id = ? AND player_id = ?", answer.RoundID, playerID).Delete(&db.Answer{}).Error; err != nil {
			return err
		}
		record := db.Answer{RoundID: answer.RoundID, PlayerID: playerID, Text: answer.Text}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		answer.ID = record.ID
		return nil
	})
}

func (s *GormStore) ListAnswers(ctx context.Context, roundID uint) ([]game.Answer, error) {
	var records []db.Answer
	if err := s.db.WithContext(ctx).Where("round_id = ?", roundID).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	answers := make([]game.Answer, 0, len(records))
	for _, r := range records {
		answers = append(answers, game.Answer{ID: r.ID, RoundID: r.RoundID, PlayerID: formatID(r.PlayerID), Text: r.Text})
	}
	return answers, nil
}

func (s *GormStore) CountAnswers(ctx context.Context, roundID uint) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&db.Answer{}).Where("round_id = ?", roundID).Count(&count).Error
	return int(count), err
}

func (s *GormStore) DeleteAnswers(ctx context.Context, f game.AnswerFilter) error {
	q := s.db.WithContext(ctx).Where("round_id = ?", f.RoundID)
	if f.PlayerID != "" {
		id, err := parseID(f.PlayerID)
		if err != nil {
			return err
		}
		q = q.Where("player_id = ?", id)
	}
	return q.Delete(&db.Answer{}).Error
}

func (s *GormStore) ReplaceVote(ctx context.Context, vote *game.Vote) error {
	voterID, err := parseID(vote.VoterID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("round_id = ? AND voter_id = ? AND kind = ?", vote.RoundID, voterID, string(vote.Kind)).
			Delete(&db.Vote{}).Error; err != nil {
			return err
		}
		record := db.Vote{RoundID: vote.RoundID, VoterID: voterID, Kind: string(vote.Kind), TargetID: vote.TargetID}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		vote.ID = record.ID
		return nil
	})
}

func (s *GormStore) ListVotes(ctx context.Context, roundID uint, kind game.VoteKind) ([]game.Vote, error) {
	var records []db.Vote
	err := s.db.WithContext(ctx).Where("round_id = ? AND kind = ?", roundID, string(kind)).Order("id").Find(&records).Error
	if err != nil {
		return nil, err
	}
	votes := make([]game.Vote, 0, len(records))
	for _, r := range records {
		votes = append(votes, game.Vote{
			ID:       r.ID,
			RoundID:  r.RoundID,
			VoterID:  formatID(r.VoterID),
			TargetID: r.TargetID,
			Kind:     game.VoteKind(r.Kind),
		})
	}
	return votes, nil
}

func (s *GormStore) CountVotes(ctx context.Context, roundID uint, kind game.VoteKind) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&db.Vote{}).Where("round_id = ? AND kind = ?", roundID, string(kind)).Count(&count).Error
	return int(count), err
}

func (s *GormStore) DeleteVotes(ctx context.Context, f game.VoteFilter) error {
	q := s.db.WithContext(ctx).Where("round_id = ?", f.RoundID)
	if f.VoterID != "" {
		id, err := parseID(f.VoterID)
		if err != nil {
			return err
		}
		q = q.Where("voter_id = ?", id)
	}
	if f.Kind != "" {
		q = q.Where("kind = ?", string(f.Kind))
	}
	return q.Delete(&db.Vote{}).Error
}

func (s *GormStore) RecordEvent(ctx context.Context, event game.Event) error {
	payload := []byte("{}")
	if event.Payload != nil {
		encoded, err := json.Marshal(event.Payload)
		if err != nil {
			return err
		}
		payload = encoded
	}
	record := db.Event{GameID: event.GameID, Type: event.Type, Payload: datatypes.JSON(payload)}
	if event.RoundID != 0 {
		roundID := event.RoundID
		record.RoundID = &roundID
	}
	if event.PlayerID != "" {
		if id, err := parseID(event.PlayerID); err == nil {
			record.PlayerID = &id
		}
	}
	return s.db.WithContext(ctx).Create(&record).Error
}

// RandomPrompt returns a curated question for category.
func (s *GormStore) RandomPrompt(ctx context.Context, category string) (string, error) {
	var record db.PromptLibrary
	if err := s.db.WithContext(ctx).Where("category = ?", category).Order("RANDOM()").First(&record).Error; err != nil {
		return "", notFound(err)
	}
	return record.Text, nil
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: player %q", game.ErrNotFound, raw)
	}
	return uint(id), nil
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return game.ErrNotFound
	}
	return err
}

func affected(result *gorm.DB) error {
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return game.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
