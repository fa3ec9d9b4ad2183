package page

import (
	"storemy/pkg/concurrency/transaction"
)

// DefaultPageSize is the page width in bytes. The width in effect is
// mutable only through
// SetPageSize/ResetPageSize, which exist solely for tests that need to
// exercise eviction/overflow behavior with a small page.
const DefaultPageSize = 4096

// DefaultPages is the buffer pool's default capacity.
const DefaultPages = 50

var pageSize = DefaultPageSize

// PageSizeBytes returns the page width currently in effect.
func PageSizeBytes() int {
	return pageSize
}

// SetPageSize overrides the page width. Tests only.
func SetPageSize(size int) {
	pageSize = size
}

// ResetPageSize restores the default page width. Tests only.
func ResetPageSize() {
	pageSize = DefaultPageSize
}

// Permission is the access mode requested from the buffer pool.
type Permission int

const (
	ReadOnly Permission = iota
	ReadWrite
)

// Page is a page resident in the buffer pool. It may be dirty, meaning it
// has been modified by a transaction since it was last written to disk.
type Page interface {
	GetID() PageID
	IsDirty() *transaction.TransactionID
	MarkDirty(dirty bool, tid *transaction.TransactionID)

	// GetPageData serializes the page to exactly PageSizeBytes() bytes.
	GetPageData() []byte

	// GetBeforeImage returns the page's state as of its last load or
	// commit, for the WAL's before-image.
	GetBeforeImage() Page

	// SetBeforeImage re-baselines the before-image to the page's current
	// contents. Called after a commit-flush.
	SetBeforeImage()
}
