package multidb

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/guabee/multidb/util"
	"github.com/pkg/errors"
)

type bytewiseComparator struct{}

func (bytewiseComparator) Compare(a, b []byte) int { return bytes.Compare(a, b) }
func (bytewiseComparator) Name() string            { return "bytewise" }

// BytewiseComparator is the order used for ids without a table entry.
var BytewiseComparator Comparator = bytewiseComparator{}

type reverseComparator struct {
	base Comparator
}

func (c reverseComparator) Compare(a, b []byte) int { return c.base.Compare(b, a) }
func (c reverseComparator) Name() string            { return "reverse(" + c.base.Name() + ")" }

// Reverse inverts the order of c.
func Reverse(c Comparator) Comparator {
	return reverseComparator{base: c}
}

// uint64LEComparator orders keys holding a little-endian uint64 numerically.
// Keys of any other length sort after them, bytewise.
type uint64LEComparator struct{}

func (uint64LEComparator) Compare(a, b []byte) int {
	if len(a) != 8 || len(b) != 8 {
		switch {
		case len(a) == 8:
			return -1
		case len(b) == 8:
			return 1
		}
		return bytes.Compare(a, b)
	}
	x, y := binary.LittleEndian.Uint64(a), binary.LittleEndian.Uint64(b)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func (uint64LEComparator) Name() string { return "uint64le" }

func (uint64LEComparator) Successor(key []byte) ([]byte, bool) {
	switch len(key) {
	case 0:
		return make([]byte, 8), true
	case 8:
		n := binary.LittleEndian.Uint64(key)
		if n == math.MaxUint64 {
			return []byte{0}, true
		}
		return binary.LittleEndian.AppendUint64(nil, n+1), true
	case 7:
		// key+0x00 would be numeric
		return append(bytes.Clone(key), 0, 0), true
	}
	return append(bytes.Clone(key), 0), true
}

var Uint64LEComparator Comparator = uint64LEComparator{}

var comparators = util.NewSafeMap[string, Comparator]()

func init() {
	RegisterComparator("bytewise", BytewiseComparator)
	RegisterComparator("reverse", Reverse(BytewiseComparator))
	RegisterComparator("uint64le", Uint64LEComparator)
	RegisterComparator("reverse-uint64le", Reverse(Uint64LEComparator))
}

// RegisterComparator makes c available to configuration under name.
func RegisterComparator(name string, c Comparator) {
	comparators.Set(name, c)
}

func ComparatorByName(name string) (Comparator, error) {
	c, ok := comparators.Get(name)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownComparator, "%q", name)
	}
	return c, nil
}
