package heap

import (
	"storemy/pkg/concurrency/transaction"
	"storemy/pkg/primitives"
	"storemy/pkg/storage/page"
	"storemy/pkg/tuple"
)

// PageFetcher is the subset of the buffer pool a HeapFileIterator needs.
// Page access in an iterator goes through this, not direct file I/O, so
// that scanning a table participates in the same caching and locking as
// every other read.
type PageFetcher interface {
	GetPage(tid *transaction.TransactionID, pid page.PageID, perm page.Permission) (page.Page, error)
}

// tupleLister is implemented by HeapPage; the iterator narrows the
// page.Page the fetcher hands back to this to read its slots.
type tupleLister interface {
	Tuples() []*tuple.Tuple
}

// HeapFileIterator scans every page of a HeapFile in page-number order,
// fetching each page through the buffer pool rather than reading the file
// directly, so the scan is subject to the same locking and caching as any
// other access under the transaction.
type HeapFileIterator struct {
	file    *HeapFile
	tid     *transaction.TransactionID
	fetcher PageFetcher

	pageNo int
	tuples []*tuple.Tuple
	idx    int
}

func NewHeapFileIterator(file *HeapFile, tid *transaction.TransactionID, fetcher PageFetcher) *HeapFileIterator {
	return &HeapFileIterator{file: file, tid: tid, fetcher: fetcher}
}

// Next returns the next tuple, or ok=false once every page has been
// exhausted.
func (it *HeapFileIterator) Next() (t *tuple.Tuple, ok bool, err error) {
	for {
		if it.idx < len(it.tuples) {
			t = it.tuples[it.idx]
			it.idx++
			return t, true, nil
		}

		numPages, err := it.file.NumPages()
		if err != nil {
			return nil, false, err
		}
		if it.pageNo >= numPages {
			return nil, false, nil
		}

		pid := page.NewPageDescriptor(it.file.GetID(), primitives.PageNumber(it.pageNo))
		p, err := it.fetcher.GetPage(it.tid, pid, page.ReadOnly)
		if err != nil {
			return nil, false, err
		}

		lister, ok := p.(tupleLister)
		if !ok {
			return nil, false, nil
		}

		it.tuples = lister.Tuples()
		it.idx = 0
		it.pageNo++
	}
}

// Rewind restarts the scan from page zero.
func (it *HeapFileIterator) Rewind() {
	it.pageNo = 0
	it.tuples = nil
	it.idx = 0
}
