package store

import (
	"github.com/guabee/multidb/log"
	"github.com/pkg/errors"
)

const (
	LevelDB = "leveldb"
	Pebble  = "pebble"
)

const DefaultCacheSize = 8 * 1024 * 1024

type Options struct {
	// Engine selects the backend, LevelDB when empty.
	Engine string
	Path   string
	// InMemory keeps all files in memory, Path is ignored.
	InMemory       bool
	ErrorIfMissing bool
	Sync           bool
	CacheSize      int
	Comparator     Comparator
}

type opener func(opts *Options, logger *log.Entry) (Engine, error)

var openers = map[string]opener{
	LevelDB: openLevelEngine,
	Pebble:  openPebbleEngine,
}

// Open opens the engine named by opts.Engine. Errors returned by the engine
// itself are passed back untouched.
func Open(opts *Options) (Engine, error) {
	if opts.Comparator == nil {
		return nil, ErrNoComparator
	}
	name := opts.Engine
	if name == "" {
		name = LevelDB
	}
	open, ok := openers[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownEngine, "engine %q", name)
	}
	logger := log.NewLoggerEntry("store").WithField("engine", name)

	e, err := open(opts, logger)
	if err != nil {
		logger.Errorf("open %q fail, err: %s", opts.Path, err)
		return nil, err
	}
	logger.Debugf("opened %q (memory=%v, comparator=%s)", opts.Path, opts.InMemory, opts.Comparator.Name())
	return e, nil
}

func (opts *Options) cacheSize() int {
	if opts.CacheSize > 0 {
		return opts.CacheSize
	}
	return DefaultCacheSize
}
