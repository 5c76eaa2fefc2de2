package apperrors

import "errors"

// Sentinel errors shared by the store, controllers and routes. Handlers map
// these to HTTP status codes; anything unrecognized is logged and collapsed
// to a bare 500 so no store detail leaks to the client.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("invalid request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limited")
)
