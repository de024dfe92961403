package multidb

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type replayed struct {
	ops []string
}

func (r *replayed) Put(id DBID, key, value []byte) {
	r.ops = append(r.ops, fmt.Sprintf("put %d/%s=%s", id, key, value))
}

func (r *replayed) Delete(id DBID, key []byte) {
	r.ops = append(r.ops, fmt.Sprintf("del %d/%s", id, key))
}

func TestBatchIterate(t *testing.T) {
	b := NewBatch()
	require.NoError(t, b.Put(2, []byte("b"), []byte("2")))
	require.NoError(t, b.Delete(MaxDBID, []byte("z")))
	require.NoError(t, b.Put(0, []byte("a"), nil))
	require.NoError(t, b.Put(2, []byte("b"), []byte("3")))
	assert.Equal(t, 4, b.Len())

	r := &replayed{}
	require.NoError(t, b.Iterate(r))
	assert.Equal(t, []string{
		"put 2/b=2",
		fmt.Sprintf("del %d/z", MaxDBID),
		"put 0/a=",
		"put 2/b=3",
	}, r.ops)
}

func TestBatchRejectsEmptyKey(t *testing.T) {
	b := NewBatch()
	assert.ErrorIs(t, b.Put(1, nil, []byte("v")), ErrEmptyKey)
	assert.ErrorIs(t, b.Delete(1, []byte{}), ErrEmptyKey)
	assert.Equal(t, 0, b.Len())
}

func TestBatchClear(t *testing.T) {
	b := NewBatch()
	require.NoError(t, b.Put(1, []byte("k"), []byte("v")))
	b.Clear()
	assert.Equal(t, 0, b.Len())

	r := &replayed{}
	require.NoError(t, b.Iterate(r))
	assert.Empty(t, r.ops)

	require.NoError(t, b.Delete(1, []byte("k")))
	require.NoError(t, b.Iterate(r))
	assert.Equal(t, []string{"del 1/k"}, r.ops)
}

func TestBatchWrite(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine string) {
		db := openTestDB(t, engine, nil)

		require.NoError(t, db.Put(1, []byte("gone"), []byte("x")))

		b := NewBatch()
		for i := 0; i < 10; i++ {
			require.NoError(t, b.Put(1, []byte(fmt.Sprintf("k%02d", i)), []byte(fmt.Sprintf("v%d", i))))
		}
		require.NoError(t, b.Delete(1, []byte("gone")))
		require.NoError(t, b.Delete(1, []byte("k03")))
		require.NoError(t, db.Write(b))

		for i := 0; i < 10; i++ {
			val, found, err := db.Get(1, []byte(fmt.Sprintf("k%02d", i)))
			require.NoError(t, err)
			if i == 3 {
				assert.False(t, found)
				continue
			}
			assert.True(t, found)
			assert.Equal(t, []byte(fmt.Sprintf("v%d", i)), val)
		}
		found, err := db.Has(1, []byte("gone"))
		require.NoError(t, err)
		assert.False(t, found)

		// the batch survives the write and can be replayed again
		assert.Equal(t, 12, b.Len())
	})
}
