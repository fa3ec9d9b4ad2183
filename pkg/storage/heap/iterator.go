package heap

import "storemy/pkg/tuple"

// HeapPageIterator walks a single page's occupied slots in ascending order.
// It materializes the slot list eagerly at construction, since a page's
// tuple count is small and bounded by PageSizeBytes.
type HeapPageIterator struct {
	tuples []*tuple.Tuple
	idx    int
}

func NewHeapPageIterator(hp *HeapPage) *HeapPageIterator {
	return &HeapPageIterator{tuples: hp.Tuples()}
}

func (it *HeapPageIterator) HasNext() bool {
	return it.idx < len(it.tuples)
}

func (it *HeapPageIterator) Next() (*tuple.Tuple, bool) {
	if !it.HasNext() {
		return nil, false
	}
	t := it.tuples[it.idx]
	it.idx++
	return t, true
}

func (it *HeapPageIterator) Rewind() {
	it.idx = 0
}
