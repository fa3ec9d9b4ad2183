package heap_test

import (
	"path/filepath"
	"testing"

	"storemy/pkg/storage/heap"
	"storemy/pkg/storage/page"
	"storemy/pkg/tuple"
	"storemy/pkg/types"

	"github.com/stretchr/testify/require"
)

func newTestFile(t *testing.T) (*heap.HeapFile, *tuple.TupleDescription) {
	page.SetPageSize(64)
	t.Cleanup(page.ResetPageSize)

	td, err := tuple.NewTupleDescription([]types.Type{types.IntType}, []string{"id"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "test.heap")
	hf, err := heap.NewHeapFile(path, td)
	require.NoError(t, err)
	return hf, td
}

// dumbPool stands in for the buffer pool in tests that only exercise the
// file layer: it caches pages read from disk and writes every mutated
// page straight back, so callers see a consistent view without needing
// locking or write-ahead logging.
type dumbPool struct {
	hf    *heap.HeapFile
	cache map[string]*heap.HeapPage
}

func newDumbPool(hf *heap.HeapFile) *dumbPool {
	return &dumbPool{hf: hf, cache: make(map[string]*heap.HeapPage)}
}

func (p *dumbPool) get(pid page.PageID) (*heap.HeapPage, error) {
	if hp, ok := p.cache[pid.String()]; ok {
		return hp, nil
	}
	hp, err := p.hf.ReadPage(pid)
	if err != nil {
		return nil, err
	}
	p.cache[pid.String()] = hp
	return hp, nil
}

func (p *dumbPool) save(hp *heap.HeapPage) error {
	return p.hf.WritePage(hp)
}

// release is a no-op here: this test double holds no locks to drop.
func (p *dumbPool) release(page.PageID) {}

func TestNewHeapFileStartsEmpty(t *testing.T) {
	hf, _ := newTestFile(t)

	n, err := hf.NumPages()
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestHeapFileTableIDIsStableAcrossOpens(t *testing.T) {
	hf, td := newTestFile(t)

	reopened, err := heap.NewHeapFile(hf.Path(), td)
	require.NoError(t, err)
	require.Equal(t, hf.GetID(), reopened.GetID())
}

func TestHeapFileReadPageRejectsOutOfRange(t *testing.T) {
	hf, _ := newTestFile(t)

	pid := page.NewPageDescriptor(hf.GetID(), 0)
	_, err := hf.ReadPage(pid)
	require.Error(t, err)
}

func TestHeapFileInsertAppendsPageWhenFull(t *testing.T) {
	hf, td := newTestFile(t)
	pool := newDumbPool(hf)

	var lastPage *heap.HeapPage
	for i := 0; i < 20; i++ {
		tup, err := tuple.NewBuilder(td).AddInt(int32(i)).Build()
		require.NoError(t, err)

		hp, err := hf.InsertTuple(tup, pool.get, pool.release)
		require.NoError(t, err)
		require.NoError(t, pool.save(hp))
		lastPage = hp
	}
	require.NotNil(t, lastPage)

	n, err := hf.NumPages()
	require.NoError(t, err)
	require.Greater(t, n, 1)
}

func TestHeapFileDeleteTuple(t *testing.T) {
	hf, td := newTestFile(t)
	pool := newDumbPool(hf)

	tup, err := tuple.NewBuilder(td).AddInt(1).Build()
	require.NoError(t, err)

	hp, err := hf.InsertTuple(tup, pool.get, pool.release)
	require.NoError(t, err)
	require.NoError(t, pool.save(hp))

	deleted, err := hf.DeleteTuple(tup, pool.get)
	require.NoError(t, err)
	require.NoError(t, pool.save(deleted))
}
