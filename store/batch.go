package store

import (
	"github.com/syndtr/goleveldb/leveldb"
)

// BatchReplay receives the operations of a Batch in insertion order.
type BatchReplay interface {
	Put(key, value []byte)
	Delete(key []byte)
}

// Batch is an engine independent list of physical put/delete operations.
// It is built without an engine handle and keeps goleveldb's batch layout.
type Batch struct {
	b leveldb.Batch
}

func NewBatch() *Batch {
	return &Batch{}
}

func (b *Batch) Put(key, value []byte) {
	b.b.Put(key, value)
}

func (b *Batch) Delete(key []byte) {
	b.b.Delete(key)
}

func (b *Batch) Reset() {
	b.b.Reset()
}

func (b *Batch) Len() int {
	return b.b.Len()
}

// Replay feeds every operation to r. Slices passed to r alias the batch.
func (b *Batch) Replay(r BatchReplay) error {
	return b.b.Replay(r)
}
