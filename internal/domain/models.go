package domain

import "time"

// ItemCount is the number of ranked items every quiz carries.
const ItemCount = 10

// Quiz is a published top-10 list. Items are in true rank order.
type Quiz struct {
	Slug          string    `json:"slug"`
	Title         string    `json:"title"`
	Items         []string  `json:"items"`
	EditTokenHash string    `json:"editTokenHash,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Answer pairs an item with the rank a player guessed for it.
type Answer struct {
	Name string `json:"name"`
	Rank int    `json:"rank"`
}

// Submission is one play of a quiz.
type Submission struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Nickname  string    `json:"nickname"`
	Answers   []Answer  `json:"answers"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}

// LeaderboardEntry is a read projection of a submission.
type LeaderboardEntry struct {
	Rank         int       `json:"rank"`
	Nickname     string    `json:"nickname"`
	Score        int       `json:"score"`
	SubmittedAt  time.Time `json:"-"`
	SubmissionID string    `json:"-"`
}

// Leaderboard captures the ordered scoreboard for a quiz.
type Leaderboard struct {
	Slug      string             `json:"slug"`
	Entries   []LeaderboardEntry `json:"rows"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// CreatedQuiz is returned once at publish time; the edit token is not recoverable afterwards.
type CreatedQuiz struct {
	Slug      string `json:"slug"`
	EditToken string `json:"editToken"`
}

// ItemComparison shows how one item was placed against its true rank.
type ItemComparison struct {
	Name        string `json:"name"`
	GuessedRank int    `json:"userRank"`
	TrueRank    int    `json:"correctRank"`
	Distance    int    `json:"distance"`
}

// Tier buckets a score for the result screen.
type Tier string

const (
	TierSoulmate Tier = "soulmate"
	TierClose    Tier = "close"
	TierLearning Tier = "learning"
	TierStranger Tier = "stranger"
)

// Result is the detailed outcome of a stored submission.
type Result struct {
	Submission Submission       `json:"submission"`
	Tier       Tier             `json:"tier"`
	Comparison []ItemComparison `json:"comparison"`
}
