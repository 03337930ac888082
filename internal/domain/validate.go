package domain

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	MaxTitleLength    = 100
	MaxItemLength     = 50
	MaxNicknameLength = 50
)

// NormalizeQuiz trims the title and items and checks them against the publishing rules.
func NormalizeQuiz(title string, items []string) (string, []string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", nil, fmt.Errorf("%w: title exceeds %d characters", ErrInvalidInput, MaxTitleLength)
	}
	if len(items) != ItemCount {
		return "", nil, fmt.Errorf("%w: expected %d items, got %d", ErrInvalidInput, ItemCount, len(items))
	}

	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for i, raw := range items {
		item := strings.TrimSpace(raw)
		if item == "" {
			return "", nil, fmt.Errorf("%w: item %d is empty", ErrInvalidInput, i+1)
		}
		if utf8.RuneCountInString(item) > MaxItemLength {
			return "", nil, fmt.Errorf("%w: item %d exceeds %d characters", ErrInvalidInput, i+1, MaxItemLength)
		}
		if _, dup := seen[item]; dup {
			return "", nil, fmt.Errorf("%w: duplicate item %q", ErrInvalidInput, item)
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return title, out, nil
}

// NormalizeNickname trims a player nickname and checks its length.
func NormalizeNickname(nickname string) (string, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return "", fmt.Errorf("%w: nickname is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(nickname) > MaxNicknameLength {
		return "", fmt.Errorf("%w: nickname exceeds %d characters", ErrInvalidInput, MaxNicknameLength)
	}
	return nickname, nil
}

// SortLeaderboard orders entries by score descending, then earliest submission, then id,
// and assigns 1-based ranks.
func SortLeaderboard(entries []LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if !entries[i].SubmittedAt.Equal(entries[j].SubmittedAt) {
			return entries[i].SubmittedAt.Before(entries[j].SubmittedAt)
		}
		return entries[i].SubmissionID < entries[j].SubmissionID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}
