package domain

import "errors"

var (
	// ErrInvalidInput marks malformed quizzes, guesses or nicknames. It is never retried.
	ErrInvalidInput = errors.New("invalid input")
	// ErrQuizNotFound indicates no quiz exists for a slug.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSubmissionNotFound indicates a submission id is unknown for the quiz.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrSlugTaken is returned by stores when a generated slug collides with an existing quiz.
	ErrSlugTaken = errors.New("slug already taken")
	// ErrInvalidEditToken is returned when an owner operation presents the wrong edit token.
	ErrInvalidEditToken = errors.New("invalid edit token")
)
