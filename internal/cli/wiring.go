package cli

import (
	"context"
	"fmt"
	"time"

	"food-quiz-service/internal/app"
	"food-quiz-service/internal/config"
	"food-quiz-service/internal/infra/memory"
	pgstore "food-quiz-service/internal/infra/postgres"
	redisstore "food-quiz-service/internal/infra/redis"
	"food-quiz-service/internal/logger"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type store interface {
	app.QuizRepository
	app.SubmissionRepository
}

// loadConfig reads the config file and builds the logger it describes.
func loadConfig(path string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}

// buildService picks storage by what is configured: Postgres, then Redis, then memory.
// Redis, when present, also relays leaderboard changes between instances.
func buildService(ctx context.Context, cfg config.Config, log *zap.Logger) (*app.QuizService, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = redisClient.Close() })
	}

	var st store
	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		st = pgstore.NewStore(pool)
		log.Info("using postgres store")
	case redisClient != nil:
		st = redisstore.NewStore(redisClient)
		log.Info("using redis store", zap.String("addr", cfg.Redis.Addr))
	default:
		st = memory.NewStore()
		log.Warn("using in-memory store; data is lost on restart")
	}

	var feeds app.FeedRepository = memory.NewFeedStore()
	var relay *redisstore.FeedStore
	if redisClient != nil {
		relay = redisstore.NewFeedStore(redisClient)
		feeds = relay
	}

	opts := []app.Option{
		app.WithLogger(log),
		app.WithLeaderboardLimit(cfg.Quiz.LeaderboardLimit),
		app.WithLoadTimeout(config.Duration(cfg.Quiz.LoadTimeout, 5*time.Second)),
	}
	if cfg.Quiz.TokenCost > 0 {
		opts = append(opts, app.WithTokenCost(cfg.Quiz.TokenCost))
	}
	service := app.NewQuizService(st, st, feeds, opts...)

	if relay != nil {
		listenCtx, stop := context.WithCancel(ctx)
		closers = append(closers, stop)
		go func() {
			if err := relay.Listen(listenCtx, service.RefreshFeed); err != nil {
				log.Error("leaderboard relay stopped", zap.Error(err))
			}
		}()
	}
	return service, cleanup, nil
}
