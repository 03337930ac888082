package memory

import (
	"sync"

	"food-quiz-service/internal/app"
)

// FeedStore is an in-memory implementation of app.FeedRepository.
type FeedStore struct {
	mu    sync.RWMutex
	feeds map[string]*app.Feed
}

func NewFeedStore() *FeedStore {
	return &FeedStore{
		feeds: make(map[string]*app.Feed),
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
