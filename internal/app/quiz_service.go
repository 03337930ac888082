package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"food-quiz-service/internal/domain"
	"food-quiz-service/internal/scoring"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/singleflight"
)

// QuizRepository stores published quizzes.
type QuizRepository interface {
	// CreateQuiz returns domain.ErrSlugTaken when the slug is already in use.
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	GetQuiz(ctx context.Context, slug string) (domain.Quiz, error)
	// DeleteQuiz removes the quiz and every submission made against it.
	DeleteQuiz(ctx context.Context, slug string) error
}

// SubmissionRepository stores plays and projects them into leaderboards.
type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, submission domain.Submission) error
	GetSubmission(ctx context.Context, slug, id string) (domain.Submission, error)
	// ListLeaderboard returns at most limit entries ordered as domain.SortLeaderboard does.
	ListLeaderboard(ctx context.Context, slug string, limit int) ([]domain.LeaderboardEntry, error)
}

// FeedRepository keeps the live leaderboard feeds of this process.
type FeedRepository interface {
	GetOrCreate(slug string) *Feed
	Get(slug string) (*Feed, bool)
	DeleteIfIdle(slug string)
}

// Announcer is implemented by feed repositories shared between instances. Announce tells every
// instance that a quiz's leaderboard changed; each one answers by calling RefreshFeed.
type Announcer interface {
	Announce(ctx context.Context, slug string) error
}

const (
	defaultLeaderboardLimit = 100
	maxSlugAttempts         = 5
	defaultLoadTimeout      = 5 * time.Second
)

// QuizService contains the quiz use cases.
type QuizService struct {
	quizzes     QuizRepository
	submissions SubmissionRepository
	feeds       FeedRepository

	log         *zap.Logger
	now         func() time.Time
	newSlug     func() (string, error)
	limit       int
	tokenCost   int
	loadTimeout time.Duration

	sf singleflight.Group
}

// Option customises a QuizService.
type Option func(*QuizService)

// WithLogger sets the service logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *QuizService) { s.log = log }
}

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *QuizService) { s.now = now }
}

// WithSlugGenerator replaces the random slug source.
func WithSlugGenerator(gen func() (string, error)) Option {
	return func(s *QuizService) { s.newSlug = gen }
}

// WithLeaderboardLimit caps the rows returned by Leaderboard. Non-positive values keep the default.
func WithLeaderboardLimit(limit int) Option {
	return func(s *QuizService) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

// WithLoadTimeout bounds a shared leaderboard read. Non-positive values keep the default.
func WithLoadTimeout(d time.Duration) Option {
	return func(s *QuizService) {
		if d > 0 {
			s.loadTimeout = d
		}
	}
}

// WithTokenCost sets the bcrypt cost used for edit tokens.
func WithTokenCost(cost int) Option {
	return func(s *QuizService) { s.tokenCost = cost }
}

func NewQuizService(quizzes QuizRepository, submissions SubmissionRepository, feeds FeedRepository, opts ...Option) *QuizService {
	s := &QuizService{
		quizzes:     quizzes,
		submissions: submissions,
		feeds:       feeds,
		log:         zap.NewNop(),
		now:         time.Now,
		newSlug:     NewSlug,
		limit:       defaultLeaderboardLimit,
		tokenCost:   bcrypt.DefaultCost,
		loadTimeout: defaultLoadTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateQuiz publishes a quiz and returns its slug with the one-time edit token.
func (s *QuizService) CreateQuiz(ctx context.Context, title string, items []string) (domain.CreatedQuiz, error) {
	title, items, err := domain.NormalizeQuiz(title, items)
	if err != nil {
		return domain.CreatedQuiz{}, err
	}

	token := newEditToken()
	hash, err := bcrypt.GenerateFromPassword([]byte(token), s.tokenCost)
	if err != nil {
		return domain.CreatedQuiz{}, fmt.Errorf("hash edit token: %w", err)
	}

	quiz := domain.Quiz{
		Title:         title,
		Items:         items,
		EditTokenHash: string(hash),
		CreatedAt:     s.now().UTC(),
	}
	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		quiz.Slug, err = s.newSlug()
		if err != nil {
			return domain.CreatedQuiz{}, err
		}
		err = s.quizzes.CreateQuiz(ctx, quiz)
		if err == nil {
			s.log.Info("quiz created", zap.String("slug", quiz.Slug), zap.Int("attempt", attempt))
			return domain.CreatedQuiz{Slug: quiz.Slug, EditToken: token}, nil
		}
		if !errors.Is(err, domain.ErrSlugTaken) {
			return domain.CreatedQuiz{}, err
		}
		s.log.Warn("slug collision", zap.String("slug", quiz.Slug))
	}
	return domain.CreatedQuiz{}, fmt.Errorf("create quiz after %d attempts: %w", maxSlugAttempts, err)
}

// GetQuiz returns the quiz with its items in true rank order.
func (s *QuizService) GetQuiz(ctx context.Context, slug string) (domain.Quiz, error) {
	return s.quizzes.GetQuiz(ctx, slug)
}

// SubmitAnswer scores a guess, stores it and pushes the refreshed leaderboard to live feeds.
func (s *QuizService) SubmitAnswer(ctx context.Context, slug, nickname string, answers []domain.Answer) (domain.Submission, error) {
	nickname, err := domain.NormalizeNickname(nickname)
	if err != nil {
		return domain.Submission{}, err
	}

	quiz, err := s.quizzes.GetQuiz(ctx, slug)
	if err != nil {
		return domain.Submission{}, err
	}

	score, err := scoring.Score(quiz.Items, answers)
	if err != nil {
		return domain.Submission{}, err
	}

	now := s.now().UTC()
	submission := domain.Submission{
		ID:        newSubmissionID(now),
		Slug:      slug,
		Nickname:  nickname,
		Answers:   append([]domain.Answer(nil), answers...),
		Score:     score,
		CreatedAt: now,
	}
	if err := s.submissions.CreateSubmission(ctx, submission); err != nil {
		return domain.Submission{}, err
	}
	s.log.Info("submission scored",
		zap.String("slug", slug),
		zap.String("submissionId", submission.ID),
		zap.Int("score", score),
	)

	s.publish(ctx, slug)
	return submission, nil
}

// GetResult returns a stored submission with its tier and per-item comparison.
func (s *QuizService) GetResult(ctx context.Context, slug, submissionID string) (domain.Result, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, slug)
	if err != nil {
		return domain.Result{}, err
	}
	submission, err := s.submissions.GetSubmission(ctx, slug, submissionID)
	if err != nil {
		return domain.Result{}, err
	}
	comparison, _, err := scoring.Compare(quiz.Items, submission.Answers)
	if err != nil {
		return domain.Result{}, fmt.Errorf("compare stored submission %s: %w", submissionID, err)
	}
	return domain.Result{
		Submission: submission,
		Tier:       scoring.TierFor(submission.Score),
		Comparison: comparison,
	}, nil
}

// Leaderboard returns the ranked submissions for a quiz. Concurrent calls for the same slug
// share one store read.
func (s *QuizService) Leaderboard(ctx context.Context, slug string) (domain.Leaderboard, error) {
	result, err, _ := s.sf.Do(slug, func() (interface{}, error) {
		// The read is shared by every waiting caller, so one caller going away must not fail the rest.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loadTimeout)
		defer cancel()
		return s.loadLeaderboard(loadCtx, slug)
	})
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return result.(domain.Leaderboard), nil
}

// DeleteQuiz removes a quiz when editToken matches the one issued at creation.
func (s *QuizService) DeleteQuiz(ctx context.Context, slug, editToken string) error {
	quiz, err := s.quizzes.GetQuiz(ctx, slug)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(quiz.EditTokenHash), []byte(editToken)); err != nil {
		return domain.ErrInvalidEditToken
	}
	if err := s.quizzes.DeleteQuiz(ctx, slug); err != nil {
		return err
	}
	s.log.Info("quiz deleted", zap.String("slug", slug))
	return nil
}

// Subscribe returns a channel of leaderboard snapshots for a quiz, starting with the current one.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(ctx context.Context, slug string) (<-chan domain.Leaderboard, func(), error) {
	feed, ch, cancel := s.join(slug)
	release := func() {
		cancel()
		s.feeds.DeleteIfIdle(slug)
	}

	// Loaded after joining so a submission landing in between is either in this snapshot or
	// published to the channel.
	lb, err := s.loadLeaderboard(ctx, slug)
	if err != nil {
		release()
		return nil, nil, err
	}
	feed.deliver(ch, lb)
	return ch, release, nil
}

func (s *QuizService) join(slug string) (*Feed, chan domain.Leaderboard, func()) {
	for {
		feed := s.feeds.GetOrCreate(slug)
		ch, cancel := feed.subscribe()
		// A concurrent DeleteIfIdle may have dropped the feed before we joined it.
		if current, ok := s.feeds.Get(slug); !ok || current != feed {
			cancel()
			continue
		}
		return feed, ch, cancel
	}
}

// RefreshFeed pushes the current leaderboard to this instance's subscribers of slug, if any.
func (s *QuizService) RefreshFeed(ctx context.Context, slug string) {
	feed, ok := s.feeds.Get(slug)
	if !ok {
		return
	}
	lb, err := s.loadLeaderboard(ctx, slug)
	if err != nil {
		s.log.Warn("leaderboard refresh failed", zap.String("slug", slug), zap.Error(err))
		return
	}
	feed.publish(lb)
}

func (s *QuizService) loadLeaderboard(ctx context.Context, slug string) (domain.Leaderboard, error) {
	if _, err := s.quizzes.GetQuiz(ctx, slug); err != nil {
		return domain.Leaderboard{}, err
	}
	entries, err := s.submissions.ListLeaderboard(ctx, slug, s.limit)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return domain.Leaderboard{Slug: slug, Entries: entries, UpdatedAt: s.now().UTC()}, nil
}

func (s *QuizService) publish(ctx context.Context, slug string) {
	if announcer, ok := s.feeds.(Announcer); ok {
		err := announcer.Announce(ctx, slug)
		if err == nil {
			return
		}
		s.log.Warn("leaderboard announce failed, refreshing locally", zap.String("slug", slug), zap.Error(err))
	}
	s.RefreshFeed(ctx, slug)
}
