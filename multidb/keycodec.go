package multidb

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// DBID identifies one sub-database. Any value is valid.
type DBID = uint64

// MaxDBID has no following id, so its range is open at the top.
const MaxDBID = ^DBID(0)

// PrefixLen is the width of the id prefix of every physical key.
const PrefixLen = 8

// EncodeKey builds the physical key: the big-endian id followed by key.
// Big-endian makes byte order of the prefix equal numeric order of the id.
func EncodeKey(id DBID, key []byte) []byte {
	raw := make([]byte, PrefixLen+len(key))
	binary.BigEndian.PutUint64(raw, id)
	copy(raw[PrefixLen:], key)
	return raw
}

// ParseKey splits a physical key into id and user key. The user key aliases raw.
func ParseKey(raw []byte) (DBID, []byte, error) {
	if len(raw) < PrefixLen {
		return 0, nil, errors.Wrapf(ErrShortKey, "got %d bytes", len(raw))
	}
	return binary.BigEndian.Uint64(raw), raw[PrefixLen:], nil
}

// DecodeKey is ParseKey for keys that must have come from EncodeKey. A short
// key means foreign data shares the engine, and DecodeKey panics.
func DecodeKey(raw []byte) (DBID, []byte) {
	id, key, err := ParseKey(raw)
	if err != nil {
		panic(err)
	}
	return id, key
}

// rangeOf returns the sentinel bounds of id: [id/"", id+1/""), open above
// for MaxDBID.
func rangeOf(id DBID) (start, limit []byte) {
	start = EncodeKey(id, nil)
	if id != MaxDBID {
		limit = EncodeKey(id+1, nil)
	}
	return start, limit
}
