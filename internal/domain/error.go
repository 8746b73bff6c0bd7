package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound      = errors.New("entity not found")
	ErrReplyInFlight = errors.New("a reply is already being processed for this user")
	ErrConnection    = errors.New("chat transport unavailable")
)
