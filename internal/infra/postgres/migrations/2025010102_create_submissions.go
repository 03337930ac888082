package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS submissions (
	id         TEXT PRIMARY KEY,
	quiz_slug  TEXT NOT NULL REFERENCES quizzes (slug) ON DELETE CASCADE,
	nickname   TEXT NOT NULL,
	answers    JSONB NOT NULL,
	score      INTEGER NOT NULL CHECK (score BETWEEN 0 AND 100),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
				return err
			}
			_, err := db.ExecContext(ctx, `
CREATE INDEX IF NOT EXISTS submissions_leaderboard_idx
	ON submissions (quiz_slug, score DESC, created_at ASC, id ASC)`)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS submissions`)
			return err
		},
	)
}
