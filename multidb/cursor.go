package multidb

import (
	"github.com/guabee/multidb/store"
)

// Cursor iterates over the records of one sub-database in its key order.
// It is bound to one id for its whole life and is not safe for concurrent
// use. Key and Value are only valid until the next move; Close must be called.
type Cursor struct {
	id    DBID
	valid bool
	iter  store.Cursor
}

func newCursor(id DBID, iter store.Cursor) *Cursor {
	return &Cursor{id: id, iter: iter}
}

// land records whether the engine cursor stopped inside this sub-database.
func (c *Cursor) land(ok bool) bool {
	c.valid = false
	if !ok || !c.iter.Valid() {
		return false
	}
	id, _ := DecodeKey(c.iter.Key())
	c.valid = id == c.id
	return c.valid
}

func (c *Cursor) ID() DBID {
	return c.id
}

func (c *Cursor) Valid() bool {
	return c.valid
}

// SeekToFirst moves to the smallest key of the sub-database.
func (c *Cursor) SeekToFirst() bool {
	c.mustBeOpen()
	start, _ := rangeOf(c.id)
	return c.land(c.iter.Seek(start))
}

// SeekToLast moves to the largest key of the sub-database. The engine cursor
// is bounded above by the next id's sentinel, or unbounded for MaxDBID.
func (c *Cursor) SeekToLast() bool {
	c.mustBeOpen()
	return c.land(c.iter.Last())
}

// Seek moves to the first key >= target. An empty target is SeekToFirst.
func (c *Cursor) Seek(target []byte) bool {
	c.mustBeOpen()
	return c.land(c.iter.Seek(EncodeKey(c.id, target)))
}

// Next steps forward. Once the cursor has left the sub-database it stays
// invalid until repositioned by a seek.
func (c *Cursor) Next() bool {
	c.mustBeOpen()
	if !c.valid {
		return false
	}
	return c.land(c.iter.Next())
}

// Prev steps backward, with the same rule as Next.
func (c *Cursor) Prev() bool {
	c.mustBeOpen()
	if !c.valid {
		return false
	}
	return c.land(c.iter.Prev())
}

// Key returns the user key. It panics when the cursor is not valid.
// Every method but ID, Valid, Error and Close panics after Close.
func (c *Cursor) Key() []byte {
	c.mustBeOpen()
	c.mustBeValid()
	_, key := DecodeKey(c.iter.Key())
	return key
}

// Value returns the value. It panics when the cursor is not valid.
func (c *Cursor) Value() []byte {
	c.mustBeOpen()
	c.mustBeValid()
	return c.iter.Value()
}

// Error reports an engine failure met while iterating. Running off the end
// of the sub-database is not an error.
func (c *Cursor) Error() error {
	if c.iter == nil {
		return nil
	}
	return c.iter.Error()
}

// Close releases the engine cursor and returns any pending engine error.
func (c *Cursor) Close() error {
	if c.iter == nil {
		return nil
	}
	err := c.iter.Close()
	c.iter = nil
	c.valid = false
	return err
}

func (c *Cursor) mustBeOpen() {
	if c.iter == nil {
		panic("multidb: cursor is closed")
	}
}

func (c *Cursor) mustBeValid() {
	if !c.valid {
		panic("multidb: cursor is not valid")
	}
}
