// Package scoring compares a guessed ranking against the true ranking of a quiz.
//
// The distance between the two rankings is the sum over items of |trueRank - guessedRank|.
// For n items that sum is at most floor(n²/2), reached by the exact reversal, so a score of
// round(100 * (1 - D/Dmax)) maps a perfect guess to 100 and a fully inverted one to 0.
// For ten items Dmax is 50 and every rank step costs two points.
//
// All functions are pure and safe for concurrent use.
package scoring

import (
	"fmt"
	"math"

	"food-quiz-service/internal/domain"
)

// MaxDistance returns the largest total rank distance any permutation of n items can have.
func MaxDistance(n int) int {
	if n <= 0 {
		return 0
	}
	return n * n / 2
}

// Distance returns the total rank distance between truth and guess.
func Distance(truth []string, guess []domain.Answer) (int, error) {
	guessed, err := guessedRanks(truth, guess)
	if err != nil {
		return 0, err
	}
	total := 0
	for i, name := range truth {
		total += abs(i + 1 - guessed[name])
	}
	return total, nil
}

// Score maps the rank distance of guess against truth onto [0, 100].
func Score(truth []string, guess []domain.Answer) (int, error) {
	d, err := Distance(truth, guess)
	if err != nil {
		return 0, err
	}
	return normalize(d, MaxDistance(len(truth))), nil
}

// Compare returns the per-item breakdown in true rank order together with the score.
func Compare(truth []string, guess []domain.Answer) ([]domain.ItemComparison, int, error) {
	guessed, err := guessedRanks(truth, guess)
	if err != nil {
		return nil, 0, err
	}
	items := make([]domain.ItemComparison, 0, len(truth))
	total := 0
	for i, name := range truth {
		d := abs(i + 1 - guessed[name])
		total += d
		items = append(items, domain.ItemComparison{
			Name:        name,
			GuessedRank: guessed[name],
			TrueRank:    i + 1,
			Distance:    d,
		})
	}
	return items, normalize(total, MaxDistance(len(truth))), nil
}

// TierFor buckets a score for display.
func TierFor(score int) domain.Tier {
	switch {
	case score >= 90:
		return domain.TierSoulmate
	case score >= 70:
		return domain.TierClose
	case score >= 40:
		return domain.TierLearning
	default:
		return domain.TierStranger
	}
}

func normalize(d, dmax int) int {
	if dmax == 0 {
		return 100
	}
	score := int(math.Round(100 * (1 - float64(d)/float64(dmax))))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// guessedRanks checks that guess is a permutation of truth with ranks 1..n used once each,
// and returns the guessed rank per item name.
func guessedRanks(truth []string, guess []domain.Answer) (map[string]int, error) {
	n := len(truth)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty ranking", domain.ErrInvalidInput)
	}
	if len(guess) != n {
		return nil, fmt.Errorf("%w: expected %d answers, got %d", domain.ErrInvalidInput, n, len(guess))
	}

	known := make(map[string]struct{}, n)
	for _, name := range truth {
		if _, dup := known[name]; dup {
			return nil, fmt.Errorf("%w: duplicate item %q in ranking", domain.ErrInvalidInput, name)
		}
		known[name] = struct{}{}
	}

	ranks := make(map[string]int, n)
	taken := make([]bool, n+1)
	for _, a := range guess {
		if _, ok := known[a.Name]; !ok {
			return nil, fmt.Errorf("%w: unknown item %q", domain.ErrInvalidInput, a.Name)
		}
		if _, dup := ranks[a.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate answer for %q", domain.ErrInvalidInput, a.Name)
		}
		if a.Rank < 1 || a.Rank > n {
			return nil, fmt.Errorf("%w: rank %d for %q out of range 1..%d", domain.ErrInvalidInput, a.Rank, a.Name, n)
		}
		if taken[a.Rank] {
			return nil, fmt.Errorf("%w: rank %d assigned twice", domain.ErrInvalidInput, a.Rank)
		}
		taken[a.Rank] = true
		ranks[a.Name] = a.Rank
	}
	return ranks, nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
