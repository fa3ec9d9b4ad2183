// Package primitives holds the small value types shared across storage,
// concurrency and tuple packages. Keeping them in one leaf package avoids
// import cycles between storage/page, storage/heap, concurrency/lock and
// memory.
package primitives

import (
	"hash/fnv"
	"path/filepath"
)

// TableID uniquely identifies a heap file. It is derived from a stable hash
// of the file's absolute path, never assigned sequentially.
type TableID uint64

// PageNumber is the zero-based offset of a page within its heap file.
type PageNumber uint64

// SlotID is a zero-based slot offset within a page's tuple array.
type SlotID uint32

// ColumnID identifies a column position within a TupleDescription.
type ColumnID uint32

// HashCode is a generic hash value used for map keys that need a cheap,
// comparable summary (page ids, lock table keys).
type HashCode uint64

// InvalidTableID is the zero value, never produced by Filepath.Hash for a
// non-empty path.
const InvalidTableID TableID = 0

// Filepath is a type-safe wrapper around the absolute path backing a heap
// file, used to derive a table's identity.
type Filepath string

// Hash returns a stable TableID for this path. Two Filepath values that are
// byte-identical always hash to the same TableID; this is the only identity
// a HeapFile has.
func (f Filepath) Hash() TableID {
	h := fnv.New64a()
	h.Write([]byte(f))
	return TableID(h.Sum64())
}

// Abs returns the absolute, cleaned form of this path.
func (f Filepath) Abs() (Filepath, error) {
	abs, err := filepath.Abs(string(f))
	if err != nil {
		return "", err
	}
	return Filepath(abs), nil
}

func (f Filepath) String() string {
	return string(f)
}
