package store

import (
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/guabee/multidb/log"
)

// pebbleComparer installs c into a copy of pebble's default comparer with
// key shortening disabled. Abbreviated keys come from c when it implements
// Abbreviator, otherwise every key abbreviates to 0 and pebble falls back to
// Compare. ImmediateSuccessor comes from c when it implements Successor.
func pebbleComparer(c Comparator) *pebble.Comparer {
	cmp := *pebble.DefaultComparer
	cmp.Compare = c.Compare
	cmp.Equal = func(a, b []byte) bool {
		return c.Compare(a, b) == 0
	}
	cmp.AbbreviatedKey = func(key []byte) uint64 {
		return 0
	}
	if a, ok := c.(Abbreviator); ok {
		cmp.AbbreviatedKey = a.AbbreviatedKey
	}
	cmp.Separator = func(dst, a, b []byte) []byte {
		return append(dst, a...)
	}
	cmp.Successor = func(dst, a []byte) []byte {
		return append(dst, a...)
	}
	if s, ok := c.(Successor); ok {
		cmp.ImmediateSuccessor = s.ImmediateSuccessor
	}
	cmp.Name = c.Name()
	return &cmp
}

type PebbleStore struct {
	db     *pebble.DB
	cmp    Comparator
	wo     *pebble.WriteOptions
	logger *log.Entry
}

func openPebbleEngine(opts *Options, logger *log.Entry) (Engine, error) {
	cache := pebble.NewCache(int64(opts.cacheSize()))
	defer cache.Unref()

	o := &pebble.Options{
		Cache:            cache,
		Comparer:         pebbleComparer(opts.Comparator),
		ErrorIfNotExists: opts.ErrorIfMissing,
		Logger:           logger,
	}
	dirname := opts.Path
	if opts.InMemory {
		o.FS = vfs.NewMem()
		if dirname == "" {
			dirname = "multidb"
		}
	}

	db, err := pebble.Open(dirname, o)
	if err != nil {
		return nil, err
	}

	wo := pebble.NoSync
	if opts.Sync {
		wo = pebble.Sync
	}
	return &PebbleStore{db: db, cmp: opts.Comparator, wo: wo, logger: logger}, nil
}

func (s *PebbleStore) Get(key []byte) ([]byte, bool, error) {
	value, closer, err := s.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()

	result := make([]byte, len(value))
	copy(result, value)
	return result, true, nil
}

// pebbleReplay copies a Batch into a pebble batch, keeping the first error.
type pebbleReplay struct {
	batch *pebble.Batch
	err   error
}

func (r *pebbleReplay) Put(key, value []byte) {
	if r.err == nil {
		r.err = r.batch.Set(key, value, nil)
	}
}

func (r *pebbleReplay) Delete(key []byte) {
	if r.err == nil {
		r.err = r.batch.Delete(key, nil)
	}
}

func (s *PebbleStore) Write(b *Batch) error {
	if b.Len() == 0 {
		return nil
	}
	pb := s.db.NewBatch()
	defer pb.Close()

	r := &pebbleReplay{batch: pb}
	if err := b.Replay(r); err != nil {
		return err
	}
	if r.err != nil {
		return r.err
	}
	return pb.Commit(s.wo)
}

func (s *PebbleStore) NewCursor(r *Range) (Cursor, error) {
	o := &pebble.IterOptions{}
	if r != nil {
		o.LowerBound = r.Start
		o.UpperBound = r.Limit
	}
	iter, err := s.db.NewIter(o)
	if err != nil {
		return nil, err
	}
	return &pebbleCursor{Iterator: iter}, nil
}

// CompactRange compacts r. pebble needs both ends and treats the end as
// inclusive, so an open side is closed with the first/last key it holds.
func (s *PebbleStore) CompactRange(r *Range) error {
	var start, end []byte
	if r != nil {
		start, end = r.Start, r.Limit
	}
	if start == nil || end == nil {
		iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: start, UpperBound: end})
		if err != nil {
			return err
		}
		if !iter.First() {
			return iter.Close()
		}
		if start == nil {
			start = append([]byte(nil), iter.Key()...)
		}
		if end == nil {
			iter.Last()
			end = append([]byte(nil), iter.Key()...)
		}
		if err := iter.Close(); err != nil {
			return err
		}
	}
	if s.cmp.Compare(start, end) >= 0 {
		return nil
	}
	return s.db.Compact(start, end, false)
}

func (s *PebbleStore) Stats() (string, error) {
	return s.db.Metrics().String(), nil
}

func (s *PebbleStore) Close() error {
	if s.db == nil {
		return nil
	}
	s.logger.Debug("closing")
	return s.db.Close()
}

type pebbleCursor struct {
	*pebble.Iterator
}

func (c *pebbleCursor) Seek(key []byte) bool {
	return c.Iterator.SeekGE(key)
}
