package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("rate limited")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadResponse  = errors.New("malformed response")
	ErrLockHeld     = errors.New("lock already held")
)
