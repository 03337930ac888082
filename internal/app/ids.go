package app

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const (
	slugAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	slugLength   = 8
)

// NewSlug returns a random base62 slug.
func NewSlug() (string, error) {
	base := big.NewInt(int64(len(slugAlphabet)))
	out := make([]byte, slugLength)
	for i := range out {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", fmt.Errorf("generate slug: %w", err)
		}
		out[i] = slugAlphabet[n.Int64()]
	}
	return string(out), nil
}

func newEditToken() string {
	return uuid.NewString()
}

// Submission ids sort by creation time.
func newSubmissionID(at time.Time) string {
	return ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String()
}
