package domain

import "errors"

var (
	ErrScenarioNotFound     = errors.New("scenario not found")
	ErrInvalidVoteDirection = errors.New("invalid vote direction")
	ErrInvalidVoteState     = errors.New("invalid vote state")
	ErrVoteDebounced        = errors.New("vote debounced")
	ErrVoteStateContended   = errors.New("vote state changed concurrently")
	ErrImageTooLarge        = errors.New("image too large")
	ErrUnsupportedImage     = errors.New("unsupported image type")
)
