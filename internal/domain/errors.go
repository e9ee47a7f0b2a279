package domain

import "github.com/cockroachdb/errors"

// Error categories. Adapters mark wrapped causes with these so callers can use errors.Is.
var (
	ErrUpstream           = errors.New("cluster API request failed")
	ErrNotFound           = errors.New("resource not found")
	ErrMetricsUnavailable = errors.New("metrics unavailable")
	ErrMalformedQuantity  = errors.New("malformed quantity")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrNoOwner            = errors.New("no owner reference")
	ErrAmbiguousOwner     = errors.New("ambiguous owner references")
)

