package domain

import "errors"

// Sentinels shared by repo, service and handler. Wrap them with %w; the
// handler maps them to 404, 422 and 502 respectively.
var (
	// ErrNotFound: no trip with the given ID.
	ErrNotFound = errors.New("not found")

	// ErrValidation: trip input breaks a business rule, such as a coordinate
	// out of range or more than 70 cycle hours declared.
	ErrValidation = errors.New("validation error")

	// ErrRouteUnavailable: the routing provider gave up after its retries.
	ErrRouteUnavailable = errors.New("route unavailable")
)
