package multidb

import (
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/guabee/multidb/store"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var engines = []string{store.LevelDB, store.Pebble}

func forEachEngine(t *testing.T, fn func(t *testing.T, engine string)) {
	for _, engine := range engines {
		t.Run(engine, func(t *testing.T) {
			fn(t, engine)
		})
	}
}

func openTestDB(t *testing.T, engine string, table ComparatorTable) *DB {
	db, err := Open("", table, &Options{Engine: engine, InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func be(n uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n)
	return buf
}

func scan(t *testing.T, db *DB, id DBID) [][]byte {
	c, err := db.NewCursor(id)
	require.NoError(t, err)
	defer c.Close() //nolint:errcheck

	var keys [][]byte
	for ok := c.SeekToFirst(); ok; ok = c.Next() {
		keys = append(keys, append([]byte(nil), c.Key()...))
	}
	require.NoError(t, c.Error())
	return keys
}

func TestIsolationBetweenSubDBs(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine string) {
		db := openTestDB(t, engine, nil)
		key := []byte{0x00, 0x01}

		require.NoError(t, db.Put(0, key, []byte("a")))
		require.NoError(t, db.Put(1, key, []byte("b")))

		val, found, err := db.Get(0, key)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []byte("a"), val)

		val, found, err = db.Get(1, key)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []byte("b"), val)

		_, found, err = db.Get(2, key)
		require.NoError(t, err)
		assert.False(t, found)

		require.NoError(t, db.Delete(0, key))
		_, found, err = db.Get(0, key)
		require.NoError(t, err)
		assert.False(t, found)
		found, err = db.Has(1, key)
		require.NoError(t, err)
		assert.True(t, found)
	})
}

func writeIDs(t *testing.T, db *DB, id DBID, max uint64, batchSize int, encode func(uint64) []byte) {
	b := NewBatch()
	for i := uint64(0); i <= max; i++ {
		require.NoError(t, b.Put(id, encode(i), encode(i)))
		if b.Len() == batchSize {
			require.NoError(t, db.Write(b))
			b.Clear()
		}
	}
	require.NoError(t, db.Write(b))
}

func TestScanAndDeleteOdd(t *testing.T) {
	layouts := []struct {
		name   string
		encode func(uint64) []byte
		table  ComparatorTable
	}{
		{name: "big_endian_bytewise", encode: be, table: nil},
		{name: "little_endian_uint64le", encode: le, table: ComparatorTable{0: Uint64LEComparator}},
	}

	forEachEngine(t, func(t *testing.T, engine string) {
		for _, layout := range layouts {
			t.Run(layout.name, func(t *testing.T) {
				db := openTestDB(t, engine, layout.table)
				// neighbours on both sides must not leak into the scan
				require.NoError(t, db.Put(1, layout.encode(0), []byte("x")))
				writeIDs(t, db, 0, 1000, 100, layout.encode)

				keys := scan(t, db, 0)
				require.Len(t, keys, 1001)
				for i, key := range keys {
					assert.Equal(t, layout.encode(uint64(i)), key)
				}

				b := NewBatch()
				for i := uint64(1); i <= 1000; i += 2 {
					require.NoError(t, b.Delete(0, layout.encode(i)))
				}
				require.NoError(t, db.Write(b))

				keys = scan(t, db, 0)
				require.Len(t, keys, 501)
				for i, key := range keys {
					assert.Equal(t, layout.encode(uint64(2*i)), key)
				}
			})
		}
	})
}

func TestEmptyKeyRejected(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine string) {
		db := openTestDB(t, engine, nil)

		assert.ErrorIs(t, db.Put(1, nil, []byte("v")), ErrEmptyKey)
		assert.ErrorIs(t, db.Delete(1, []byte{}), ErrEmptyKey)
		_, _, err := db.Get(1, nil)
		assert.ErrorIs(t, err, ErrEmptyKey)
		_, err = db.Has(1, nil)
		assert.ErrorIs(t, err, ErrEmptyKey)
	})
}

func TestEmptyValue(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine string) {
		db := openTestDB(t, engine, nil)

		require.NoError(t, db.Put(1, []byte("k"), nil))
		val, found, err := db.Get(1, []byte("k"))
		require.NoError(t, err)
		assert.True(t, found)
		assert.Empty(t, val)
	})
}

func TestLoadAndClear(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine string) {
		db := openTestDB(t, engine, nil)
		for _, id := range []DBID{4, 5, 6} {
			for i := 0; i < 5; i++ {
				require.NoError(t, db.Put(id, []byte(fmt.Sprintf("k%d", i)), []byte(fmt.Sprintf("%d-%d", id, i))))
			}
		}

		var got []string
		require.NoError(t, db.Load(5, func(key, value []byte) error {
			got = append(got, string(key)+"="+string(value))
			return nil
		}))
		assert.Equal(t, []string{"k0=5-0", "k1=5-1", "k2=5-2", "k3=5-3", "k4=5-4"}, got)

		stop := errors.New("stop")
		n := 0
		err := db.Load(5, func(key, value []byte) error {
			n++
			if n == 2 {
				return stop
			}
			return nil
		})
		assert.Equal(t, stop, err)
		assert.Equal(t, 2, n)

		removed, err := db.Clear(5)
		require.NoError(t, err)
		assert.Equal(t, 5, removed)
		assert.Empty(t, scan(t, db, 5))
		assert.Len(t, scan(t, db, 4), 5)
		assert.Len(t, scan(t, db, 6), 5)

		removed, err = db.Clear(5)
		require.NoError(t, err)
		assert.Equal(t, 0, removed)
	})
}

func TestCompactAndStats(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine string) {
		db := openTestDB(t, engine, nil)
		writeIDs(t, db, 3, 200, 50, be)
		writeIDs(t, db, MaxDBID, 10, 50, be)

		require.NoError(t, db.CompactSubDB(3))
		require.NoError(t, db.CompactSubDB(MaxDBID))
		require.NoError(t, db.CompactSubDB(99))
		require.NoError(t, db.Compact())

		assert.Len(t, scan(t, db, 3), 201)
		assert.Len(t, scan(t, db, MaxDBID), 11)

		stats, err := db.Stats()
		require.NoError(t, err)
		assert.NotEmpty(t, stats)
	})
}

func TestClosedDB(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine string) {
		db, err := Open("", nil, &Options{Engine: engine, InMemory: true})
		require.NoError(t, err)
		require.NoError(t, db.Close())
		require.NoError(t, db.Close())

		_, _, err = db.Get(1, []byte("k"))
		assert.ErrorIs(t, err, ErrClosed)
		assert.ErrorIs(t, db.Put(1, []byte("k"), nil), ErrClosed)
		assert.ErrorIs(t, db.Delete(1, []byte("k")), ErrClosed)
		assert.ErrorIs(t, db.Write(NewBatch()), ErrClosed)
		_, err = db.NewCursor(1)
		assert.ErrorIs(t, err, ErrClosed)
		assert.ErrorIs(t, db.Compact(), ErrClosed)
		_, err = db.Stats()
		assert.ErrorIs(t, err, ErrClosed)
	})
}

func TestWriteNilBatch(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine string) {
		db := openTestDB(t, engine, nil)
		require.NoError(t, db.Put(1, []byte("k"), []byte("v")))
		assert.ErrorIs(t, db.Write(nil), ErrNilBatch)

		value, found, err := db.Get(1, []byte("k"))
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []byte("v"), value)
	})
}

func TestReopen(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine string) {
		dir := t.TempDir()
		table := ComparatorTable{7: Reverse(BytewiseComparator)}

		db, err := Open(dir, table, &Options{Engine: engine})
		require.NoError(t, err)
		for _, k := range []string{"a", "b", "c"} {
			require.NoError(t, db.Put(7, []byte(k), []byte(k)))
		}
		require.NoError(t, db.Close())

		_, err = Open(dir, table, &Options{Engine: engine, ComparatorName: "MultiDB.v2"})
		assert.Error(t, err)

		db, err = Open(dir, table, &Options{Engine: engine, ErrorIfMissing: true})
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck
		assert.Equal(t, "MultiDB", db.ComparatorName())
		assert.Equal(t, [][]byte{[]byte("c"), []byte("b"), []byte("a")}, scan(t, db, 7))
	})
}

func TestOpenMissing(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine string) {
		_, err := Open(t.TempDir()+"/missing", nil, &Options{Engine: engine, ErrorIfMissing: true})
		assert.Error(t, err)
	})
}

func TestConcurrentWriters(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine string) {
		db := openTestDB(t, engine, nil)

		g := errgroup.Group{}
		for w := 0; w < 8; w++ {
			id := DBID(w)
			g.Go(func() error {
				for i := uint64(0); i < 50; i++ {
					if err := db.Put(id, be(i), be(i)); err != nil {
						return err
					}
					if _, _, err := db.Get(id, be(i)); err != nil {
						return err
					}
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())

		for w := 0; w < 8; w++ {
			assert.Len(t, scan(t, db, DBID(w)), 50)
		}
	})
}

// failingEngine refuses every write, standing in for an engine I/O failure.
type failingEngine struct {
	store.Engine
	err error
}

func (e *failingEngine) Write(*store.Batch) error {
	return e.err
}

func TestEngineErrorsPassThrough(t *testing.T) {
	cmp := newCompositeComparator("", nil)
	engine, err := store.Open(&store.Options{InMemory: true, Comparator: cmp})
	require.NoError(t, err)

	ioErr := errors.New("disk on fire")
	db := newDB(&failingEngine{Engine: engine, err: ioErr}, cmp)
	defer db.Close() //nolint:errcheck

	b := NewBatch()
	for i := uint64(0); i < 10; i++ {
		require.NoError(t, b.Put(1, be(i), be(i)))
	}
	require.NoError(t, b.Delete(1, be(3)))

	assert.Equal(t, ioErr, db.Write(b))
	assert.Equal(t, ioErr, db.Put(1, []byte("k"), nil))
	assert.Empty(t, scan(t, db, 1))
}
