package scoring

import (
	"errors"
	"testing"

	"food-quiz-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var truth = []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"}

func inOrder(names ...string) []domain.Answer {
	answers := make([]domain.Answer, len(names))
	for i, name := range names {
		answers[i] = domain.Answer{Name: name, Rank: i + 1}
	}
	return answers
}

func TestMaxDistanceMatchesBruteForce(t *testing.T) {
	for n := 1; n <= 7; n++ {
		best := 0
		permute(n, func(p []int) {
			d := 0
			for i, v := range p {
				d += abs(i - v)
			}
			if d > best {
				best = d
			}
		})
		assert.Equal(t, best, MaxDistance(n), "n=%d", n)
	}
}

func TestMaxDistanceForTenIsReversal(t *testing.T) {
	reversed := make([]string, len(truth))
	for i, name := range truth {
		reversed[len(truth)-1-i] = name
	}
	d, err := Distance(truth, inOrder(reversed...))
	require.NoError(t, err)
	assert.Equal(t, 50, d)
	assert.Equal(t, d, MaxDistance(10))
}

func TestScore(t *testing.T) {
	cases := []struct {
		name  string
		guess []domain.Answer
		want  int
	}{
		{"identical", inOrder(truth...), 100},
		{"swap first two", inOrder("B", "A", "C", "D", "E", "F", "G", "H", "I", "J"), 96},
		{"reversed", inOrder("J", "I", "H", "G", "F", "E", "D", "C", "B", "A"), 0},
		{"first to last", inOrder("B", "C", "D", "E", "F", "G", "H", "I", "J", "A"), 64},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Score(truth, tc.guess)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestScoreIgnoresAnswerOrder(t *testing.T) {
	guess := inOrder("B", "A", "C", "E", "D", "F", "G", "J", "I", "H")
	want, err := Score(truth, guess)
	require.NoError(t, err)

	shuffled := make([]domain.Answer, 0, len(guess))
	for i := len(guess) - 1; i >= 0; i-- {
		shuffled = append(shuffled, guess[i])
	}
	got, err := Score(truth, shuffled)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestScoreInvariantUnderRelabeling(t *testing.T) {
	guess := inOrder("C", "A", "B", "D", "F", "E", "J", "H", "I", "G")
	want, err := Score(truth, guess)
	require.NoError(t, err)

	relabel := map[string]string{}
	for i, name := range truth {
		relabel[name] = "food-" + string(rune('z'-i))
	}
	renamedTruth := make([]string, len(truth))
	for i, name := range truth {
		renamedTruth[i] = relabel[name]
	}
	renamedGuess := make([]domain.Answer, len(guess))
	for i, a := range guess {
		renamedGuess[i] = domain.Answer{Name: relabel[a.Name], Rank: a.Rank}
	}

	got, err := Score(renamedTruth, renamedGuess)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestScoreRejectsMalformedGuess(t *testing.T) {
	cases := map[string][]domain.Answer{
		"nine items":     inOrder("A", "B", "C", "D", "E", "F", "G", "H", "I"),
		"duplicate item": inOrder("A", "A", "C", "D", "E", "F", "G", "H", "I", "J"),
		"unknown item":   inOrder("A", "B", "C", "D", "E", "F", "G", "H", "I", "Z"),
		"duplicate rank": append(inOrder("A", "B", "C", "D", "E", "F", "G", "H", "I"), domain.Answer{Name: "J", Rank: 1}),
		"rank too high":  append(inOrder("A", "B", "C", "D", "E", "F", "G", "H", "I"), domain.Answer{Name: "J", Rank: 11}),
		"rank zero":      append(inOrder("A", "B", "C", "D", "E", "F", "G", "H", "I"), domain.Answer{Name: "J", Rank: 0}),
		"empty":          nil,
	}
	for name, guess := range cases {
		t.Run(name, func(t *testing.T) {
			score, err := Score(truth, guess)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput), "got %v", err)
			assert.Zero(t, score)
		})
	}
}

func TestScoreRejectsDuplicateTruth(t *testing.T) {
	_, err := Score([]string{"A", "A"}, inOrder("A", "A"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = Score(nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCompare(t *testing.T) {
	items, score, err := Compare(truth, inOrder("B", "A", "C", "D", "E", "F", "G", "H", "I", "J"))
	require.NoError(t, err)
	assert.Equal(t, 96, score)
	require.Len(t, items, 10)
	assert.Equal(t, domain.ItemComparison{Name: "A", GuessedRank: 2, TrueRank: 1, Distance: 1}, items[0])
	assert.Equal(t, domain.ItemComparison{Name: "B", GuessedRank: 1, TrueRank: 2, Distance: 1}, items[1])
	assert.Equal(t, 0, items[9].Distance)
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, domain.TierSoulmate, TierFor(100))
	assert.Equal(t, domain.TierSoulmate, TierFor(90))
	assert.Equal(t, domain.TierClose, TierFor(89))
	assert.Equal(t, domain.TierClose, TierFor(70))
	assert.Equal(t, domain.TierLearning, TierFor(40))
	assert.Equal(t, domain.TierStranger, TierFor(39))
	assert.Equal(t, domain.TierStranger, TierFor(0))
}

// permute calls fn with every permutation of 0..n-1 (Heap's algorithm).
func permute(n int, fn func([]int)) {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	var gen func(k int)
	gen = func(k int) {
		if k == 1 {
			fn(p)
			return
		}
		gen(k - 1)
		for i := 0; i < k-1; i++ {
			if k%2 == 0 {
				p[i], p[k-1] = p[k-1], p[i]
			} else {
				p[0], p[k-1] = p[k-1], p[0]
			}
			gen(k - 1)
		}
	}
	gen(n)
}
