package store

import "github.com/pkg/errors"

var (
	ErrUnknownEngine = errors.New("store: unknown engine")
	ErrNoComparator  = errors.New("store: comparator is required")
)
