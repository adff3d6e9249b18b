package entity

import "errors"

// Standard domain errors
var (
	ErrEmbeddingUnavailable = errors.New("embedding provider unreachable")
	ErrCacheUnavailable     = errors.New("semantic cache store unreachable")
	ErrGenerationFailure    = errors.New("generation provider failed")
	ErrDimensionMismatch    = errors.New("embedding dimension mismatch")
	ErrEmptyQuestion        = errors.New("question is empty")
	ErrUnauthorized         = errors.New("unauthorized user")
	ErrSessionNotFound      = errors.New("session not found")
	ErrCollectionForbidden  = errors.New("collection not allowed for this user")
)
