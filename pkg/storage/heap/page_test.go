package heap_test

import (
	"testing"

	"storemy/pkg/storage/heap"
	"storemy/pkg/storage/page"
	"storemy/pkg/tuple"
	"storemy/pkg/types"

	"github.com/stretchr/testify/require"
)

func smallDesc(t *testing.T) *tuple.TupleDescription {
	td, err := tuple.NewTupleDescription([]types.Type{types.IntType}, []string{"id"})
	require.NoError(t, err)
	return td
}

func TestHeapPageNumSlotsMatchesBitmapFormula(t *testing.T) {
	page.SetPageSize(64)
	defer page.ResetPageSize()

	td := smallDesc(t)
	// tuple_bits = 4*8 = 32; num_slots = floor(64*8 / (32+1)) = floor(512/33) = 15
	require.Equal(t, 15, heap.NumSlots(td))
}

func TestHeapPageInsertAndDelete(t *testing.T) {
	page.SetPageSize(64)
	defer page.ResetPageSize()

	td := smallDesc(t)
	pid := page.NewPageDescriptor(1, 0)
	hp, err := heap.NewEmptyHeapPage(pid, td)
	require.NoError(t, err)

	total := hp.NumSlots()
	require.Equal(t, total, hp.GetNumEmptySlots())

	tup, err := tuple.NewBuilder(td).AddInt(7).Build()
	require.NoError(t, err)
	require.NoError(t, hp.InsertTuple(tup))
	require.Equal(t, total-1, hp.GetNumEmptySlots())
	require.NotNil(t, tup.RecordID)
	require.Equal(t, uint32(0), tup.RecordID.SlotID)

	require.NoError(t, hp.DeleteTuple(tup))
	require.Equal(t, total, hp.GetNumEmptySlots())
}

func TestHeapPageInsertFailsWhenFull(t *testing.T) {
	page.SetPageSize(64)
	defer page.ResetPageSize()

	td := smallDesc(t)
	pid := page.NewPageDescriptor(1, 0)
	hp, err := heap.NewEmptyHeapPage(pid, td)
	require.NoError(t, err)

	for i := 0; i < hp.NumSlots(); i++ {
		tup, err := tuple.NewBuilder(td).AddInt(int32(i)).Build()
		require.NoError(t, err)
		require.NoError(t, hp.InsertTuple(tup))
	}

	overflow, err := tuple.NewBuilder(td).AddInt(999).Build()
	require.NoError(t, err)
	require.Error(t, hp.InsertTuple(overflow))
}

func TestHeapPageDeleteRejectsForeignRecordID(t *testing.T) {
	page.SetPageSize(64)
	defer page.ResetPageSize()

	td := smallDesc(t)
	pidA := page.NewPageDescriptor(1, 0)
	pidB := page.NewPageDescriptor(1, 1)
	hpA, err := heap.NewEmptyHeapPage(pidA, td)
	require.NoError(t, err)
	hpB, err := heap.NewEmptyHeapPage(pidB, td)
	require.NoError(t, err)

	tup, err := tuple.NewBuilder(td).AddInt(1).Build()
	require.NoError(t, err)
	require.NoError(t, hpA.InsertTuple(tup))

	require.Error(t, hpB.DeleteTuple(tup))
}

func TestHeapPageSerializeRoundTrip(t *testing.T) {
	page.SetPageSize(64)
	defer page.ResetPageSize()

	td := smallDesc(t)
	pid := page.NewPageDescriptor(1, 0)
	hp, err := heap.NewEmptyHeapPage(pid, td)
	require.NoError(t, err)

	tup, err := tuple.NewBuilder(td).AddInt(42).Build()
	require.NoError(t, err)
	require.NoError(t, hp.InsertTuple(tup))

	data := hp.GetPageData()
	require.Len(t, data, page.PageSizeBytes())

	reloaded, err := heap.NewHeapPage(pid, data, td)
	require.NoError(t, err)
	require.Equal(t, 1, len(reloaded.Tuples()))
}

func TestHeapPageBeforeImagePreservesPriorState(t *testing.T) {
	page.SetPageSize(64)
	defer page.ResetPageSize()

	td := smallDesc(t)
	pid := page.NewPageDescriptor(1, 0)
	hp, err := heap.NewEmptyHeapPage(pid, td)
	require.NoError(t, err)

	before := hp.GetBeforeImage().(*heap.HeapPage)
	require.Equal(t, 0, len(before.Tuples()))

	tup, err := tuple.NewBuilder(td).AddInt(1).Build()
	require.NoError(t, err)
	require.NoError(t, hp.InsertTuple(tup))

	stillOld := hp.GetBeforeImage().(*heap.HeapPage)
	require.Equal(t, 0, len(stillOld.Tuples()))

	hp.SetBeforeImage()
	rebaselined := hp.GetBeforeImage().(*heap.HeapPage)
	require.Equal(t, 1, len(rebaselined.Tuples()))
}
