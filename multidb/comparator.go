package multidb

import (
	"bytes"
	"encoding/binary"
)

// DefaultComparatorName is the comparator identity recorded by the engine.
const DefaultComparatorName = "MultiDB"

// Comparator orders the user keys of one sub-database.
type Comparator interface {
	Compare(a, b []byte) int
	Name() string
}

// SuccessorComparator is implemented by orders that can name the smallest
// user key after key, or the smallest non-empty key when key is empty. ok is
// false when no such key exists.
type SuccessorComparator interface {
	Comparator
	Successor(key []byte) (succ []byte, ok bool)
}

// ComparatorTable maps sub-databases to custom key orders. Ids missing from
// the table use byte order.
type ComparatorTable map[DBID]Comparator

// compositeComparator is the physical key order handed to the engine:
// by id first, then the empty sentinel key, then the sub-database order.
type compositeComparator struct {
	name  string
	table ComparatorTable
}

func newCompositeComparator(name string, table ComparatorTable) *compositeComparator {
	if name == "" {
		name = DefaultComparatorName
	}
	c := &compositeComparator{
		name:  name,
		table: make(ComparatorTable, len(table)),
	}
	for id, cmp := range table {
		if cmp != nil {
			c.table[id] = cmp
		}
	}
	return c
}

func (c *compositeComparator) Compare(a, b []byte) int {
	idA, keyA := DecodeKey(a)
	idB, keyB := DecodeKey(b)
	if idA < idB {
		return -1
	}
	if idA > idB {
		return 1
	}

	switch {
	case len(keyA) == 0 && len(keyB) == 0:
		return 0
	case len(keyA) == 0:
		return -1
	case len(keyB) == 0:
		return 1
	}

	if cmp, ok := c.table[idA]; ok {
		return cmp.Compare(keyA, keyB)
	}
	return bytes.Compare(keyA, keyB)
}

func (c *compositeComparator) Name() string {
	return c.name
}

// AbbreviatedKey is the id prefix, which orders keys of different
// sub-databases exactly as Compare does.
func (c *compositeComparator) AbbreviatedKey(key []byte) uint64 {
	if len(key) < PrefixLen {
		return 0
	}
	return binary.BigEndian.Uint64(key)
}

// ImmediateSuccessor returns the smallest key ordered after key. Byte-ordered
// sub-databases append 0x00. A custom order without a successor falls back to
// the first key of the next sub-database, which is greater but not immediate,
// or to key+0x00 in the last one. The engines only ask for it on prefix
// seeks, range keys and ingestion.
func (c *compositeComparator) ImmediateSuccessor(dst, key []byte) []byte {
	id, userKey := DecodeKey(key)
	cmp, ok := c.table[id]
	if !ok {
		return append(append(dst, key...), 0)
	}
	if s, ok := cmp.(SuccessorComparator); ok {
		if succ, ok := s.Successor(userKey); ok {
			return append(dst, EncodeKey(id, succ)...)
		}
	}
	if _, limit := rangeOf(id); limit != nil {
		return append(dst, limit...)
	}
	return append(append(dst, key...), 0)
}
