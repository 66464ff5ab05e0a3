package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id          UUID PRIMARY KEY,
	chat_id     TEXT,
	status      TEXT NOT NULL DEFAULT 'in_progress',
	winner_id   UUID,
	start_time  TIMESTAMPTZ DEFAULT NOW(),
	end_time    TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS game_actions (
	game_id        UUID NOT NULL REFERENCES games(id),
	action_index   INT NOT NULL,
	actor_user_id  UUID,
	action_type    TEXT NOT NULL,
	action_payload JSONB,
	created_at     TIMESTAMPTZ DEFAULT NOW(),
	PRIMARY KEY (game_id, action_index)
);

CREATE TABLE IF NOT EXISTS game_results (
	game_id    UUID NOT NULL REFERENCES games(id),
	player_id  UUID NOT NULL,
	name       TEXT NOT NULL,
	seat       INT NOT NULL,
	cards_left INT NOT NULL,
	did_win    BOOLEAN NOT NULL DEFAULT FALSE,
	PRIMARY KEY (game_id, player_id)
);

CREATE TABLE IF NOT EXISTS player_ratings (
	chat_id    TEXT NOT NULL,
	player_id  UUID NOT NULL,
	name       TEXT NOT NULL,
	rating     INT NOT NULL,
	rd         DOUBLE PRECISION NOT NULL,
	sigma      DOUBLE PRECISION NOT NULL,
	games      INT NOT NULL DEFAULT 0,
	wins       INT NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ DEFAULT NOW(),
	PRIMARY KEY (chat_id, player_id)
);

CREATE TABLE IF NOT EXISTS feedback (
	id         BIGSERIAL PRIMARY KEY,
	chat_id    TEXT,
	user_id    UUID,
	user_name  TEXT,
	body       TEXT NOT NULL,
	created_at TIMESTAMPTZ DEFAULT NOW()
);
`

// EnsureSchema creates the tables this service writes to.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
