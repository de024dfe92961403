package multidb

import (
	"github.com/guabee/multidb/store"
)

// BatchReplay receives the decoded operations of a Batch in insertion order.
// Slices passed to it are only valid during the call.
type BatchReplay interface {
	Put(id DBID, key, value []byte)
	Delete(id DBID, key []byte)
}

// Batch collects puts and deletes across sub-databases. DB.Write applies
// them atomically. A Batch is not safe for concurrent use.
type Batch struct {
	b *store.Batch
}

func NewBatch() *Batch {
	return &Batch{b: store.NewBatch()}
}

// Put records key->value in sub-database id. Zero-length keys are rejected.
func (b *Batch) Put(id DBID, key, value []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	b.b.Put(EncodeKey(id, key), value)
	return nil
}

// Delete records the removal of key from sub-database id.
func (b *Batch) Delete(id DBID, key []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	b.b.Delete(EncodeKey(id, key))
	return nil
}

// Clear drops every buffered operation, the batch can be reused.
func (b *Batch) Clear() {
	b.b.Reset()
}

func (b *Batch) Len() int {
	return b.b.Len()
}

// Iterate replays the batch through r without committing it.
func (b *Batch) Iterate(r BatchReplay) error {
	return b.b.Replay(&decodingReplay{r: r})
}

type decodingReplay struct {
	r BatchReplay
}

func (d *decodingReplay) Put(key, value []byte) {
	id, userKey := DecodeKey(key)
	d.r.Put(id, userKey, value)
}

func (d *decodingReplay) Delete(key []byte) {
	id, userKey := DecodeKey(key)
	d.r.Delete(id, userKey)
}
