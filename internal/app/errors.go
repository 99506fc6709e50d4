package service

import "errors"

// Sentinel kinds surfaced to the HTTP layer.
var (
	// ErrAggregation reports that neither the cache nor the provider
	// could produce results. It is distinct from an empty result.
	ErrAggregation = errors.New("search unavailable")

	// ErrValidation reports a request rejected before any collaborator
	// was consulted.
	ErrValidation = errors.New("invalid request")

	// ErrPersistence reports a synchronous store write failure. Only
	// the event creation path surfaces it; write-backs never do.
	ErrPersistence = errors.New("persistence failure")

	// ErrNotStarted reports calls on a service that was never started.
	ErrNotStarted = errors.New("service not started")

	// ErrMissingStore reports a service started without any backing
	// store wired in.
	ErrMissingStore = errors.New("no store configured")
)
