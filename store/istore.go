package store

// Comparator is a total order over keys. Name is persisted by the engine and
// checked again on every open of the same data.
type Comparator interface {
	Compare(a, b []byte) int
	Name() string
}

// Abbreviator is implemented by comparators that can map a key to a uint64
// whose order agrees with Compare wherever the two abbreviations differ.
type Abbreviator interface {
	AbbreviatedKey(key []byte) uint64
}

// Successor is implemented by comparators that can name the smallest key
// ordered after a. Engines that need it assume appending 0x00 otherwise.
type Successor interface {
	ImmediateSuccessor(dst, a []byte) []byte
}

// Range is [Start, Limit). A nil Start or Limit leaves that side unbounded.
type Range struct {
	Start []byte
	Limit []byte
}

// Cursor is a bidirectional ordered cursor over an engine, optionally
// bounded by a Range. Key and Value are only valid until the next move.
type Cursor interface {
	First() bool
	Last() bool
	Seek(key []byte) bool
	Next() bool
	Prev() bool
	Valid() bool
	Key() []byte
	Value() []byte
	Error() error
	Close() error
}

// Engine is an ordered key-value store with a pluggable comparator.
type Engine interface {
	Get(key []byte) (value []byte, found bool, err error)
	// Write applies every operation of b atomically. b is left untouched.
	Write(b *Batch) error
	NewCursor(r *Range) (Cursor, error)
	CompactRange(r *Range) error
	Stats() (string, error)
	Close() error
}
