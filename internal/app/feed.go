package app

import (
	"sync"

	"food-quiz-service/internal/domain"
)

// Feed fans leaderboard snapshots for one quiz out to live subscribers.
type Feed struct {
	slug        string
	mu          sync.Mutex
	subscribers map[chan domain.Leaderboard]struct{}
}

// NewFeed is exported for infrastructure layers that keep feeds.
func NewFeed(slug string) *Feed {
	return &Feed{
		slug:        slug,
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

// IsIdle reports whether the feed has no subscribers.
func (f *Feed) IsIdle() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers) == 0
}

func (f *Feed) subscribe() (chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subscribers, ch)
			close(ch)
			f.mu.Unlock()
		})
	}
	return ch, cancel
}

func (f *Feed) publish(lb domain.Leaderboard) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		send(ch, lb)
	}
}

// deliver pushes a snapshot to a single subscriber, ignoring channels already cancelled.
func (f *Feed) deliver(ch chan domain.Leaderboard, lb domain.Leaderboard) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subscribers[ch]; ok {
		send(ch, lb)
	}
}

// send must be called with the feed lock held.
func send(ch chan domain.Leaderboard, lb domain.Leaderboard) {
	select {
	case ch <- lb:
	default:
		// Slow reader: drop its oldest snapshot so the newest one always lands.
		select {
		case <-ch:
		default:
		}
		ch <- lb
	}
}
