package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS quizzes (
	slug            TEXT PRIMARY KEY,
	title           TEXT NOT NULL,
	items           JSONB NOT NULL,
	edit_token_hash TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS quizzes`)
			return err
		},
	)
}
