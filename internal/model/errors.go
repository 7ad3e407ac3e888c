package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrBlocked means the source answered with an anti-automation challenge.
	ErrBlocked = errors.New("blocked by anti-automation challenge")
	// ErrBlockedByDesign is returned by sources that are never scraped.
	ErrBlockedByDesign = errors.New("source blocks automated access; not scraped")
)

// HTTPError wraps a non-success HTTP status from a source.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}
