package memory

import (
	"context"
	"sync"

	"food-quiz-service/internal/domain"
)

// Store is a map-backed implementation of app.QuizRepository and app.SubmissionRepository
// (useful for tests/demos).
type Store struct {
	mu          sync.RWMutex
	quizzes     map[string]domain.Quiz
	submissions map[string][]domain.Submission
}

func NewStore() *Store {
	return &Store{
		quizzes:     make(map[string]domain.Quiz),
		submissions: make(map[string][]domain.Submission),
	}
}

func (s *Store) CreateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quiz.Slug]; ok {
		return domain.ErrSlugTaken
	}
	quiz.Items = append([]string(nil), quiz.Items...)
	s.quizzes[quiz.Slug] = quiz
	return nil
}

func (s *Store) GetQuiz(_ context.Context, slug string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[slug]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	quiz.Items = append([]string(nil), quiz.Items...)
	return quiz, nil
}

func (s *Store) DeleteQuiz(_ context.Context, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[slug]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, slug)
	delete(s.submissions, slug)
	return nil
}

func (s *Store) CreateSubmission(_ context.Context, submission domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[submission.Slug]; !ok {
		return domain.ErrQuizNotFound
	}
	submission.Answers = append([]domain.Answer(nil), submission.Answers...)
	s.submissions[submission.Slug] = append(s.submissions[submission.Slug], submission)
	return nil
}

func (s *Store) GetSubmission(_ context.Context, slug, id string) (domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.submissions[slug] {
		if sub.ID == id {
			sub.Answers = append([]domain.Answer(nil), sub.Answers...)
			return sub, nil
		}
	}
	return domain.Submission{}, domain.ErrSubmissionNotFound
}

func (s *Store) ListLeaderboard(_ context.Context, slug string, limit int) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	entries := make([]domain.LeaderboardEntry, 0, len(s.submissions[slug]))
	for _, sub := range s.submissions[slug] {
		entries = append(entries, domain.LeaderboardEntry{
			Nickname:     sub.Nickname,
			Score:        sub.Score,
			SubmittedAt:  sub.CreatedAt,
			SubmissionID: sub.ID,
		})
	}
	s.mu.RUnlock()

	domain.SortLeaderboard(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
