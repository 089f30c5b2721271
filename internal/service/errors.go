package service

import "errors"

var (
	// ErrInvalidInput is returned when a request fails domain validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidTransition is returned when a status change would move a hackathon backwards.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrRegistrationClosed is returned when a hackathon no longer accepts teams.
	ErrRegistrationClosed = errors.New("team registration is closed")
	// ErrUnknownRoute is returned by Refresh for routes the catalog does not serve.
	ErrUnknownRoute = errors.New("unknown cache route")
	// ErrInvalidToken is returned when a token is malformed, expired or signed with another key.
	ErrInvalidToken = errors.New("invalid or expired token")
)
