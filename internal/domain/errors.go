package domain

import "errors"

var (
	// ErrInvalidRequest signals request parameters that cannot be served.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrSearchBackendUnavailable signals a failed index call. Retryable.
	ErrSearchBackendUnavailable = errors.New("search backend unavailable")
	// ErrRecordStore signals a relational store failure.
	ErrRecordStore = errors.New("record store failure")
)
