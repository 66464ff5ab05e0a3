package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/jason-s-yu/uno/internal/rating"
)

// UpdateRatings rates a finished match and stores every player's new standing in the chat.
// Matches without a winner are skipped.
func UpdateRatings(ctx context.Context, result models.MatchResult) error {
	if DB == nil {
		return ErrNoDatabase
	}
	if result.WinnerID == uuid.Nil {
		return nil
	}
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		prior := make(map[uuid.UUID]models.PlayerRating, len(result.Players))
		for _, p := range result.Players {
			r := models.PlayerRating{ChatID: result.ChatID, PlayerID: p.PlayerID, Name: p.Name}
			q := `
				SELECT rating, rd, sigma, games, wins
				FROM player_ratings
				WHERE chat_id = $1 AND player_id = $2
				FOR UPDATE
			`
			e := tx.QueryRow(ctx, q, result.ChatID, p.PlayerID).Scan(&r.Rating, &r.RD, &r.Sigma, &r.Games, &r.Wins)
			if errors.Is(e, pgx.ErrNoRows) {
				continue
			}
			if e != nil {
				return e
			}
			prior[p.PlayerID] = r
		}

		for _, r := range rating.Apply(result, prior) {
			q := `
				INSERT INTO player_ratings (chat_id, player_id, name, rating, rd, sigma, games, wins, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
				ON CONFLICT (chat_id, player_id) DO UPDATE
				SET name = $3, rating = $4, rd = $5, sigma = $6, games = $7, wins = $8, updated_at = NOW()
			`
			if _, e := tx.Exec(ctx, q, r.ChatID, r.PlayerID, r.Name, r.Rating, r.RD, r.Sigma, r.Games, r.Wins); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx update ratings: %w", err)
	}
	return nil
}

// TopRatings returns the best rated players of a chat.
func TopRatings(ctx context.Context, chatID string, limit int) ([]models.PlayerRating, error) {
	if DB == nil {
		return nil, ErrNoDatabase
	}
	q := `
		SELECT chat_id, player_id, name, rating, rd, sigma, games, wins
		FROM player_ratings
		WHERE chat_id = $1
		ORDER BY rating DESC, wins DESC, name
		LIMIT $2
	`
	rows, err := DB.Query(ctx, q, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.PlayerRating])
	if err != nil {
		return nil, fmt.Errorf("scan ratings: %w", err)
	}
	return rating.Leaderboard(out), nil
}
