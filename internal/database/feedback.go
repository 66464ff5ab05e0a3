package database

import (
	"context"
	"fmt"

	"github.com/jason-s-yu/uno/internal/models"
)

// StoreFeedback saves a feedback note along with who left it.
func StoreFeedback(ctx context.Context, fb models.Feedback) error {
	if DB == nil {
		return ErrNoDatabase
	}
	q := `
		INSERT INTO feedback (chat_id, user_id, user_name, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := DB.Exec(ctx, q, fb.ChatID, fb.UserID, fb.UserName, fb.Text, fb.CreatedAt); err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// Recorder persists match results, ratings and feedback through the shared pool.
type Recorder struct{}

// RecordMatch stores the result, then rates it.
func (Recorder) RecordMatch(ctx context.Context, result models.MatchResult) error {
	if err := RecordMatchResult(ctx, result); err != nil {
		return err
	}
	return UpdateRatings(ctx, result)
}

func (Recorder) Leaderboard(ctx context.Context, chatID string, limit int) ([]models.PlayerRating, error) {
	return TopRatings(ctx, chatID, limit)
}

func (Recorder) StoreFeedback(ctx context.Context, fb models.Feedback) error {
	return StoreFeedback(ctx, fb)
}
