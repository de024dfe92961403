package multidb

import "github.com/pkg/errors"

var (
	ErrClosed            = errors.New("multidb: database is closed")
	ErrNilBatch          = errors.New("multidb: nil batch")
	ErrEmptyKey          = errors.New("multidb: zero-length key is not allowed")
	ErrShortKey          = errors.New("multidb: physical key shorter than the id prefix")
	ErrUnknownComparator = errors.New("multidb: unknown comparator")
)
