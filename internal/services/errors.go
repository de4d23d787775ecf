package services

import "errors"

var (
	// ErrNotFound: a group, post or user referenced by the request does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden: the principal may not modify the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated: the operation needs an identified principal.
	ErrUnauthenticated = errors.New("authentication required")
)
