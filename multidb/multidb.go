package multidb

import (
	"sync"

	"github.com/guabee/multidb/log"
	"github.com/guabee/multidb/store"
)

// Options configures Open. The zero value opens an on-disk leveldb engine.
type Options struct {
	Engine         string
	InMemory       bool
	ErrorIfMissing bool
	Sync           bool
	CacheSize      int
	// ComparatorName overrides the persisted comparator identity. Reopening
	// data under a different name fails inside the engine.
	ComparatorName string
}

// DB multiplexes independent sub-databases over one ordered engine. Records
// of a sub-database live under physical keys prefixed with its id, ordered by
// a composite comparator that keeps each sub-database contiguous.
//
// Get, Put, Delete and Write may be called concurrently; the engine
// serializes writers. Cursors must be closed before Close.
type DB struct {
	mu     sync.RWMutex
	closed bool
	engine store.Engine
	cmp    *compositeComparator
	logger *log.Entry
}

// Open opens the engine at path with the composite comparator built from
// table. A nil or empty table orders every sub-database bytewise. Engine
// errors are returned as is.
func Open(path string, table ComparatorTable, opts *Options) (*DB, error) {
	if opts == nil {
		opts = &Options{}
	}
	cmp := newCompositeComparator(opts.ComparatorName, table)
	engine, err := store.Open(&store.Options{
		Engine:         opts.Engine,
		Path:           path,
		InMemory:       opts.InMemory,
		ErrorIfMissing: opts.ErrorIfMissing,
		Sync:           opts.Sync,
		CacheSize:      opts.CacheSize,
		Comparator:     cmp,
	})
	if err != nil {
		return nil, err
	}

	db := newDB(engine, cmp)
	db.logger.Infof("opened %q, %d custom comparators", path, len(cmp.table))
	return db, nil
}

func newDB(engine store.Engine, cmp *compositeComparator) *DB {
	return &DB{
		engine: engine,
		cmp:    cmp,
		logger: log.NewLoggerEntry("multidb"),
	}
}

// Get returns the value of key in sub-database id. A missing key is reported
// by found, not by an error.
func (db *DB) Get(id DBID, key []byte) (value []byte, found bool, err error) {
	if len(key) == 0 {
		return nil, false, ErrEmptyKey
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return nil, false, ErrClosed
	}
	return db.engine.Get(EncodeKey(id, key))
}

func (db *DB) Has(id DBID, key []byte) (bool, error) {
	_, found, err := db.Get(id, key)
	return found, err
}

// Put stores key->value in sub-database id as a single operation batch.
func (db *DB) Put(id DBID, key, value []byte) error {
	b := NewBatch()
	if err := b.Put(id, key, value); err != nil {
		return err
	}
	return db.Write(b)
}

// Delete removes key from sub-database id. Deleting a missing key is not an error.
func (db *DB) Delete(id DBID, key []byte) error {
	b := NewBatch()
	if err := b.Delete(id, key); err != nil {
		return err
	}
	return db.Write(b)
}

// Write applies b atomically. b is left as is and may be cleared and reused.
func (db *DB) Write(b *Batch) error {
	if b == nil {
		return ErrNilBatch
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return ErrClosed
	}
	return db.engine.Write(b.b)
}

// NewCursor returns an unpositioned cursor over sub-database id.
func (db *DB) NewCursor(id DBID) (*Cursor, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return nil, ErrClosed
	}

	start, limit := rangeOf(id)
	iter, err := db.engine.NewCursor(&store.Range{Start: start, Limit: limit})
	if err != nil {
		return nil, err
	}
	return newCursor(id, iter), nil
}

// LoadHandler receives copies of the records of a sub-database. A non-nil
// error stops the scan and is returned by Load.
type LoadHandler func(key, value []byte) error

// Load scans sub-database id in order.
func (db *DB) Load(id DBID, handler LoadHandler) (err error) {
	c, err := db.NewCursor(id)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}()

	for ok := c.SeekToFirst(); ok; ok = c.Next() {
		key := append([]byte(nil), c.Key()...)
		val := append([]byte(nil), c.Value()...)
		if err := handler(key, val); err != nil {
			return err
		}
	}
	return c.Error()
}

// Clear deletes every record of sub-database id in one atomic batch and
// returns how many were removed.
func (db *DB) Clear(id DBID) (int, error) {
	b := NewBatch()
	err := db.Load(id, func(key, _ []byte) error {
		return b.Delete(id, key)
	})
	if err != nil {
		return 0, err
	}
	if b.Len() == 0 {
		return 0, nil
	}
	return b.Len(), db.Write(b)
}

// CompactSubDB compacts the physical range of sub-database id.
func (db *DB) CompactSubDB(id DBID) error {
	start, limit := rangeOf(id)
	return db.compact(&store.Range{Start: start, Limit: limit})
}

// Compact compacts the whole store.
func (db *DB) Compact() error {
	return db.compact(nil)
}

func (db *DB) compact(r *store.Range) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return ErrClosed
	}
	if err := db.engine.CompactRange(r); err != nil {
		db.logger.Errorf("compaction fail, err: %s", err)
		return err
	}
	return nil
}

// Stats returns the engine's statistics report.
func (db *DB) Stats() (string, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return "", ErrClosed
	}
	return db.engine.Stats()
}

// ComparatorName is the comparator identity the engine persisted.
func (db *DB) ComparatorName() string {
	return db.cmp.Name()
}

// Close releases the engine. Calling it again is a no-op.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil
	}
	db.closed = true
	db.logger.Info("closing")
	return db.engine.Close()
}
