package feedback

import "errors"

var (
	// ErrNoProvider is returned when feedback is requested without a provider
	ErrNoProvider = errors.New("no feedback provider configured")

	// ErrEmptyFeedback is returned when the provider answers with blank text
	ErrEmptyFeedback = errors.New("provider returned empty feedback")
)
