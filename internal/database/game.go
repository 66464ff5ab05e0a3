// internal/database/game.go
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/models"
)

// RecordMatchResult marks the game completed and stores every player's standing.
func RecordMatchResult(ctx context.Context, result models.MatchResult) error {
	if DB == nil {
		return ErrNoDatabase
	}
	var winner *uuid.UUID
	if result.WinnerID != uuid.Nil {
		winner = &result.WinnerID
	}
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsertGame := `
			INSERT INTO games (id, chat_id, status, winner_id, end_time)
			VALUES ($1, $2, 'completed', $3, $4)
			ON CONFLICT (id) DO UPDATE
			SET status = 'completed', winner_id = $3, end_time = $4
		`
		if _, e := tx.Exec(ctx, upsertGame, result.GameID, result.ChatID, winner, result.EndedAt); e != nil {
			return e
		}

		for _, pl := range result.Players {
			q := `
				INSERT INTO game_results (game_id, player_id, name, seat, cards_left, did_win)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (game_id, player_id)
				DO UPDATE SET cards_left = $5, did_win = $6
			`
			if _, e := tx.Exec(ctx, q, result.GameID, pl.PlayerID, pl.Name, pl.Seat, pl.CardsLeft, pl.Won); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx upsert game or results: %w", err)
	}
	return nil
}

// InsertGameActionTx inserts a single action record into the game_actions table and
// upserts the game row if necessary. A game_end action finalizes the game.
func InsertGameActionTx(ctx context.Context, tx pgx.Tx, rec cache.GameActionRecord) error {
	upsertGameQ := `
		INSERT INTO games (id, chat_id, status, start_time)
		VALUES ($1, $2, 'in_progress', NOW())
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, upsertGameQ, rec.GameID, rec.ChatID); err != nil {
		return err
	}

	jsonPayload, err := json.Marshal(rec.ActionPayload)
	if err != nil {
		return err
	}
	var actor *uuid.UUID
	if rec.ActorUserID != uuid.Nil {
		actor = &rec.ActorUserID
	}
	actionInsertQ := `
		INSERT INTO game_actions (
			game_id, action_index, actor_user_id, action_type, action_payload
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (game_id, action_index) DO NOTHING
	`
	if _, err = tx.Exec(ctx, actionInsertQ, rec.GameID, rec.ActionIndex, actor, rec.ActionType, jsonPayload); err != nil {
		return err
	}

	if rec.ActionType == "game_end" {
		finalizeQ := `
			UPDATE games
			SET status = 'completed', end_time = NOW()
			WHERE id = $1 AND status = 'in_progress'
		`
		if _, err = tx.Exec(ctx, finalizeQ, rec.GameID); err != nil {
			return err
		}
	}
	return nil
}

// InsertGameActions writes a batch of action records in one transaction.
func InsertGameActions(ctx context.Context, batch []cache.GameActionRecord) error {
	if DB == nil {
		return ErrNoDatabase
	}
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range batch {
			if err := InsertGameActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insert action %d of game %s: %w", rec.ActionIndex, rec.GameID, err)
			}
		}
		return nil
	})
}

// MarkGameAbandoned marks a game as 'abandoned' if it is still 'in_progress'.
// Returns whether a row changed.
func MarkGameAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error) {
	if DB == nil {
		return false, ErrNoDatabase
	}
	var changed bool
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			UPDATE games
			SET status = 'abandoned', end_time = NOW()
			WHERE id = $1 AND status = 'in_progress'
		`
		tag, e := tx.Exec(ctx, q, gameID)
		if e != nil {
			return e
		}
		changed = tag.RowsAffected() > 0
		return nil
	})
	return changed, err
}

// ActionStore exposes the action functions through the shared pool.
type ActionStore struct{}

func (ActionStore) InsertGameActions(ctx context.Context, batch []cache.GameActionRecord) error {
	return InsertGameActions(ctx, batch)
}

func (ActionStore) MarkGameAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error) {
	return MarkGameAbandoned(ctx, gameID)
}
