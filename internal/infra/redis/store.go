package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"food-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Store keeps quizzes and submissions in Redis.
// Quizzes are JSON strings:      SET  quiz:{slug}
// Submissions are JSON strings:  SET  quiz:{slug}:submission:{id}
// Leaderboards are sorted sets:  ZADD quiz:{slug}:leaderboard {rankScore} {id}
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	created, err := s.client.SetNX(ctx, quizKey(quiz.Slug), data, 0).Result()
	if err != nil {
		return fmt.Errorf("store quiz: %w", err)
	}
	if !created {
		return domain.ErrSlugTaken
	}
	return nil
}

func (s *Store) GetQuiz(ctx context.Context, slug string) (domain.Quiz, error) {
	raw, err := s.client.Get(ctx, quizKey(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	return quiz, nil
}

func (s *Store) DeleteQuiz(ctx context.Context, slug string) error {
	removed, err := s.client.Del(ctx, quizKey(slug)).Result()
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if removed == 0 {
		return domain.ErrQuizNotFound
	}

	ids, err := s.client.ZRange(ctx, leaderboardKey(slug), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("list submissions: %w", err)
	}
	keys := make([]string, 0, len(ids)+1)
	keys = append(keys, leaderboardKey(slug))
	for _, id := range ids {
		keys = append(keys, submissionKey(slug, id))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete submissions: %w", err)
	}
	return nil
}

// CreateSubmission watches the quiz key, so a DeleteQuiz racing the write aborts the
// transaction instead of leaving orphaned submission keys behind.
func (s *Store) CreateSubmission(ctx context.Context, submission domain.Submission) error {
	data, err := json.Marshal(submission)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}

	key := quizKey(submission.Slug)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("check quiz: %w", err)
		}
		if exists == 0 {
			return domain.ErrQuizNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, submissionKey(submission.Slug, submission.ID), data, 0)
			pipe.ZAdd(ctx, leaderboardKey(submission.Slug), redis.Z{
				Score:  rankScore(submission),
				Member: submission.ID,
			})
			return nil
		})
		return err
	}, key)
	switch {
	case errors.Is(err, redis.TxFailedErr):
		// quiz keys are written once, so the only change is a delete
		return domain.ErrQuizNotFound
	case errors.Is(err, domain.ErrQuizNotFound):
		return err
	case err != nil:
		return fmt.Errorf("store submission: %w", err)
	}
	return nil
}

func (s *Store) GetSubmission(ctx context.Context, slug, id string) (domain.Submission, error) {
	raw, err := s.client.Get(ctx, submissionKey(slug, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return domain.Submission{}, fmt.Errorf("load submission: %w", err)
	}
	var submission domain.Submission
	if err := json.Unmarshal(raw, &submission); err != nil {
		return domain.Submission{}, fmt.Errorf("unmarshal submission: %w", err)
	}
	return submission, nil
}

func (s *Store) ListLeaderboard(ctx context.Context, slug string, limit int) ([]domain.LeaderboardEntry, error) {
	ids, err := s.rankedIDs(ctx, slug, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.LeaderboardEntry{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = submissionKey(slug, id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load leaderboard submissions: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue // removed between the two reads
		}
		var sub domain.Submission
		if err := json.Unmarshal([]byte(raw), &sub); err != nil {
			return nil, fmt.Errorf("unmarshal submission: %w", err)
		}
		entries = append(entries, domain.LeaderboardEntry{
			Nickname:     sub.Nickname,
			Score:        sub.Score,
			SubmittedAt:  sub.CreatedAt,
			SubmissionID: sub.ID,
		})
	}
	// Sorted-set ties within one millisecond come back by member; restore the full order.
	domain.SortLeaderboard(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// rankedIDs returns the ids of the top limit members plus every member sharing the cutoff
// score. rankScore only has millisecond resolution, so the earliest of a tied band may sit
// below the cutoff in ZREVRANGE order.
func (s *Store) rankedIDs(ctx context.Context, slug string, limit int) ([]string, error) {
	key := leaderboardKey(slug)
	if limit <= 0 {
		ids, err := s.client.ZRevRange(ctx, key, 0, -1).Result()
		if err != nil {
			return nil, fmt.Errorf("read leaderboard: %w", err)
		}
		return ids, nil
	}

	top, err := s.client.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	ids := make([]string, 0, len(top))
	seen := make(map[string]struct{}, len(top))
	for _, z := range top {
		id, _ := z.Member.(string)
		ids = append(ids, id)
		seen[id] = struct{}{}
	}
	if len(top) < limit {
		return ids, nil
	}

	cutoff := strconv.FormatFloat(top[len(top)-1].Score, 'f', -1, 64)
	tied, err := s.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{Min: cutoff, Max: cutoff}).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard ties: %w", err)
	}
	for _, id := range tied {
		if _, ok := seen[id]; !ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// maxMillis bounds unix-millisecond timestamps (year 2286), leaving room for score*1e13
// inside float64's exact integer range.
const maxMillis = 1e13 - 1

// rankScore orders by score first, then earlier submissions higher.
func rankScore(sub domain.Submission) float64 {
	return float64(sub.Score)*1e13 + float64(maxMillis-sub.CreatedAt.UnixMilli())
}

func quizKey(slug string) string {
	return "quiz:" + slug
}

func submissionKey(slug, id string) string {
	return "quiz:" + slug + ":submission:" + id
}

func leaderboardKey(slug string) string {
	return "quiz:" + slug + ":leaderboard"
}
