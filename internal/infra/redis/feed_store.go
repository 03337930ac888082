package redis

import (
	"context"
	"fmt"
	"sync"

	"food-quiz-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// FeedStore keeps this instance's live leaderboard feeds and relays leaderboard changes
// between instances over Redis pub/sub. A submission on any instance is announced on
// quiz:{slug}:feed; every listening instance then refreshes its own subscribers.
type FeedStore struct {
	client *redis.Client
	mu     sync.RWMutex
	feeds  map[string]*app.Feed
}

func NewFeedStore(client *redis.Client) *FeedStore {
	return &FeedStore{
		client: client,
		feeds:  make(map[string]*app.Feed),
	}
}

func (s *FeedStore) GetOrCreate(slug string) *app.Feed {
	s.mu.Lock()
	defer s.mu.Unlock()
	if feed, ok := s.feeds[slug]; ok {
		return feed
	}
	feed := app.NewFeed(slug)
	s.feeds[slug] = feed
	return feed
}

func (s *FeedStore) Get(slug string) (*app.Feed, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	feed, ok := s.feeds[slug]
	return feed, ok
}

func (s *FeedStore) DeleteIfIdle(slug string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed, ok := s.feeds[slug]
	if !ok {
		return
	}
	if feed.IsIdle() {
		delete(s.feeds, slug)
	}
}

// Announce publishes a leaderboard change for slug to every listening instance, this one included.
func (s *FeedStore) Announce(ctx context.Context, slug string) error {
	if err := s.client.Publish(ctx, feedChannel(slug), slug).Err(); err != nil {
		return fmt.Errorf("announce leaderboard change: %w", err)
	}
	return nil
}

// Listen calls refresh for every announced slug until ctx is done.
func (s *FeedStore) Listen(ctx context.Context, refresh func(ctx context.Context, slug string)) error {
	pubsub, err := s.subscribe(ctx)
	if err != nil {
		return err
	}
	defer pubsub.Close()
	s.relay(ctx, pubsub, refresh)
	return nil
}

// subscribe returns once Redis has confirmed the subscription, so no later announcement is missed.
func (s *FeedStore) subscribe(ctx context.Context) (*redis.PubSub, error) {
	pubsub := s.client.PSubscribe(ctx, feedChannel("*"))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe to leaderboard changes: %w", err)
	}
	return pubsub, nil
}

func (s *FeedStore) relay(ctx context.Context, pubsub *redis.PubSub, refresh func(ctx context.Context, slug string)) {
	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			// nobody here follows it
			if _, ok := s.Get(msg.Payload); !ok {
				continue
			}
			refresh(ctx, msg.Payload)
		}
	}
}

func feedChannel(slug string) string {
	return "quiz:" + slug + ":feed"
}
