package store

import (
	"github.com/guabee/multidb/log"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// levelComparer adapts a Comparator to goleveldb. Separator and Successor
// never shorten keys, so index blocks only hold keys the comparator produced.
type levelComparer struct {
	Comparator
}

func (levelComparer) Separator(dst, a, b []byte) []byte {
	return nil
}

func (levelComparer) Successor(dst, b []byte) []byte {
	return nil
}

type LevelStore struct {
	db     *leveldb.DB
	wo     *opt.WriteOptions
	logger *log.Entry
}

func openLevelEngine(opts *Options, logger *log.Entry) (Engine, error) {
	o := &opt.Options{
		Comparer:           levelComparer{opts.Comparator},
		ErrorIfMissing:     opts.ErrorIfMissing,
		BlockCacheCapacity: opts.cacheSize(),
		NoSync:             !opts.Sync,
	}

	var (
		db  *leveldb.DB
		err error
	)
	if opts.InMemory {
		db, err = leveldb.Open(storage.NewMemStorage(), o)
	} else {
		db, err = leveldb.OpenFile(opts.Path, o)
	}
	if err != nil {
		return nil, err
	}

	return &LevelStore{
		db:     db,
		wo:     &opt.WriteOptions{Sync: opts.Sync},
		logger: logger,
	}, nil
}

func (s *LevelStore) Get(key []byte) ([]byte, bool, error) {
	val, err := s.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (s *LevelStore) Write(b *Batch) error {
	if b.Len() == 0 {
		return nil
	}
	return s.db.Write(&b.b, s.wo)
}

func (s *LevelStore) NewCursor(r *Range) (Cursor, error) {
	iter := s.db.NewIterator(levelRange(r), nil)
	// a closed db hands out an empty iterator carrying the error
	if err := iter.Error(); err != nil {
		iter.Release()
		return nil, err
	}
	return &levelCursor{Iterator: iter}, nil
}

func (s *LevelStore) CompactRange(r *Range) error {
	var rng util.Range
	if r != nil {
		rng = util.Range{Start: r.Start, Limit: r.Limit}
	}
	return s.db.CompactRange(rng)
}

func (s *LevelStore) Stats() (string, error) {
	return s.db.GetProperty("leveldb.stats")
}

func (s *LevelStore) Close() error {
	if s.db == nil {
		return nil
	}
	s.logger.Debug("closing")
	return s.db.Close()
}

func levelRange(r *Range) *util.Range {
	if r == nil {
		return nil
	}
	return &util.Range{Start: r.Start, Limit: r.Limit}
}

type levelCursor struct {
	iterator.Iterator
}

func (c *levelCursor) Close() error {
	err := c.Iterator.Error()
	c.Iterator.Release()
	return err
}
