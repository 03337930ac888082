package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"food-quiz-service/internal/domain"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Store keeps quizzes and submissions in Postgres; items and answers are JSONB.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	items, err := json.Marshal(quiz.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO quizzes (slug, title, items, edit_token_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		quiz.Slug, quiz.Title, string(items), quiz.EditTokenHash, quiz.CreatedAt,
	)
	if err != nil {
		return mapWriteError("insert quiz", err)
	}
	return nil
}

func (s *Store) GetQuiz(ctx context.Context, slug string) (domain.Quiz, error) {
	quiz := domain.Quiz{Slug: slug}
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT title, items, edit_token_hash, created_at FROM quizzes WHERE slug=$1`, slug,
	).Scan(&quiz.Title, &raw, &quiz.EditTokenHash, &quiz.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	if err := json.Unmarshal(raw, &quiz.Items); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal items: %w", err)
	}
	return quiz, nil
}

// DeleteQuiz relies on ON DELETE CASCADE to drop submissions.
func (s *Store) DeleteQuiz(ctx context.Context, slug string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quizzes WHERE slug=$1`, slug)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *Store) CreateSubmission(ctx context.Context, submission domain.Submission) error {
	answers, err := json.Marshal(submission.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO submissions (id, quiz_slug, nickname, answers, score, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		submission.ID, submission.Slug, submission.Nickname, string(answers), submission.Score, submission.CreatedAt,
	)
	if err != nil {
		return mapWriteError("insert submission", err)
	}
	return nil
}

func (s *Store) GetSubmission(ctx context.Context, slug, id string) (domain.Submission, error) {
	sub := domain.Submission{ID: id, Slug: slug}
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT nickname, answers, score, created_at FROM submissions WHERE quiz_slug=$1 AND id=$2`, slug, id,
	).Scan(&sub.Nickname, &raw, &sub.Score, &sub.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return domain.Submission{}, fmt.Errorf("load submission: %w", err)
	}
	if err := json.Unmarshal(raw, &sub.Answers); err != nil {
		return domain.Submission{}, fmt.Errorf("unmarshal answers: %w", err)
	}
	return sub, nil
}

func (s *Store) ListLeaderboard(ctx context.Context, slug string, limit int) ([]domain.LeaderboardEntry, error) {
	var limitArg interface{} // NULL means no limit
	if limit > 0 {
		limitArg = limit
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, nickname, score, created_at FROM submissions
		 WHERE quiz_slug=$1
		 ORDER BY score DESC, created_at ASC, id ASC
		 LIMIT $2`, slug, limitArg,
	)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []domain.LeaderboardEntry{}
	for rows.Next() {
		var (
			entry     domain.LeaderboardEntry
			createdAt time.Time
		)
		if err := rows.Scan(&entry.SubmissionID, &entry.Nickname, &entry.Score, &createdAt); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		entry.SubmittedAt = createdAt
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	return entries, nil
}

func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return domain.ErrSlugTaken
		case foreignKeyViolation:
			return domain.ErrQuizNotFound
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
