// Package heap implements the on-disk heap file format: fixed-size pages
// with a slot-occupancy bitmap header followed by fixed-width tuple
// records, and the file that is a flat array of such pages.
package heap

import (
	"bytes"
	"fmt"
	"sync"

	dberror "storemy/pkg/error"
	"storemy/pkg/storage/page"
	"storemy/pkg/tuple"
	"storemy/pkg/types"

	"storemy/pkg/concurrency/transaction"
)

// HeapPage is a fixed-size page holding a slot-occupancy bitmap header
// followed by num_slots fixed-width tuple records.
//
// Layout: ceil(num_slots/8) header bytes (bit i of the header, LSB-first,
// is set iff slot i is occupied) followed by num_slots * tupleDesc.Size()
// bytes of tuple records, followed by unused padding out to PageSizeBytes.
type HeapPage struct {
	pageID    *page.PageDescriptor
	tupleDesc *tuple.TupleDescription
	numSlots  int
	header    []byte
	tuples    []*tuple.Tuple

	dirtier      *transaction.TransactionID
	beforeImage  []byte
	mutex        sync.RWMutex
}

// NumSlots computes the slot count the spec derives from the page size and
// tuple width: floor((PAGE_SIZE*8) / (tuple_bits + 1)), the "+1" accounting
// for the header bit each slot costs.
func NumSlots(td *tuple.TupleDescription) int {
	tupleBits := td.Size() * 8
	return (page.PageSizeBytes() * 8) / (tupleBits + 1)
}

func headerBytes(numSlots int) int {
	return (numSlots + 7) / 8
}

// NewEmptyHeapPage creates a zero-initialized page: every header bit clear,
// every slot empty.
func NewEmptyHeapPage(pid *page.PageDescriptor, td *tuple.TupleDescription) (*HeapPage, error) {
	return NewHeapPage(pid, make([]byte, page.PageSizeBytes()), td)
}

// NewHeapPage decodes a PageSizeBytes buffer read from disk into a HeapPage.
func NewHeapPage(pid *page.PageDescriptor, data []byte, td *tuple.TupleDescription) (*HeapPage, error) {
	if len(data) != page.PageSizeBytes() {
		return nil, fmt.Errorf("invalid page data size: expected %d, got %d", page.PageSizeBytes(), len(data))
	}

	numSlots := NumSlots(td)
	hp := &HeapPage{
		pageID:    pid,
		tupleDesc: td,
		numSlots:  numSlots,
		header:    make([]byte, headerBytes(numSlots)),
		tuples:    make([]*tuple.Tuple, numSlots),
	}

	if err := hp.parse(data); err != nil {
		return nil, err
	}

	hp.beforeImage = make([]byte, page.PageSizeBytes())
	copy(hp.beforeImage, data)
	return hp, nil
}

func (hp *HeapPage) parse(data []byte) error {
	hb := headerBytes(hp.numSlots)
	copy(hp.header, data[:hb])

	r := bytes.NewReader(data[hb:])
	recordSize := hp.tupleDesc.Size()

	for slot := 0; slot < hp.numSlots; slot++ {
		record := make([]byte, recordSize)
		if _, err := r.Read(record); err != nil {
			return fmt.Errorf("reading slot %d record: %w", slot, err)
		}

		if !hp.slotOccupied(slot) {
			continue
		}

		t, err := decodeTuple(record, hp.tupleDesc)
		if err != nil {
			return fmt.Errorf("decoding slot %d: %w", slot, err)
		}
		t.RecordID = tuple.NewRecordID(hp.pageID, uint32(slot))
		hp.tuples[slot] = t
	}
	return nil
}

func decodeTuple(record []byte, td *tuple.TupleDescription) (*tuple.Tuple, error) {
	t := tuple.NewTuple(td)
	r := bytes.NewReader(record)

	for i := 0; i < td.NumFields(); i++ {
		ft, err := td.TypeAt(i)
		if err != nil {
			return nil, err
		}

		var f types.Field
		switch ft {
		case types.IntType:
			f, err = types.DeserializeInt(r)
		case types.StringType:
			f, err = types.DeserializeString(r)
		default:
			return nil, fmt.Errorf("unsupported field type %s", ft)
		}
		if err != nil {
			return nil, err
		}

		if err := t.SetField(i, f); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (hp *HeapPage) slotOccupied(slot int) bool {
	byteIdx := slot / 8
	bitIdx := uint(slot % 8)
	return hp.header[byteIdx]&(1<<bitIdx) != 0
}

func (hp *HeapPage) setSlotOccupied(slot int, occupied bool) {
	byteIdx := slot / 8
	bitIdx := uint(slot % 8)
	if occupied {
		hp.header[byteIdx] |= 1 << bitIdx
	} else {
		hp.header[byteIdx] &^= 1 << bitIdx
	}
}

// GetID returns this page's identity.
func (hp *HeapPage) GetID() page.PageID {
	return hp.pageID
}

// IsDirty returns the transaction that last dirtied this page, or nil if
// clean.
func (hp *HeapPage) IsDirty() *transaction.TransactionID {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()
	return hp.dirtier
}

func (hp *HeapPage) MarkDirty(dirty bool, tid *transaction.TransactionID) {
	hp.mutex.Lock()
	defer hp.mutex.Unlock()
	if dirty {
		hp.dirtier = tid
	} else {
		hp.dirtier = nil
	}
}

// GetNumEmptySlots counts zero header bits.
func (hp *HeapPage) GetNumEmptySlots() int {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()

	empty := 0
	for slot := 0; slot < hp.numSlots; slot++ {
		if !hp.slotOccupied(slot) {
			empty++
		}
	}
	return empty
}

// InsertTuple assigns t to the first empty slot, sets its occupancy bit and
// RecordID. Fails with NoSpace if the page is full.
func (hp *HeapPage) InsertTuple(t *tuple.Tuple) error {
	hp.mutex.Lock()
	defer hp.mutex.Unlock()

	for slot := 0; slot < hp.numSlots; slot++ {
		if hp.slotOccupied(slot) {
			continue
		}

		t.RecordID = tuple.NewRecordID(hp.pageID, uint32(slot))
		hp.tuples[slot] = t
		hp.setSlotOccupied(slot, true)
		return nil
	}

	return dberror.NoSpace(fmt.Sprintf("page %s has no empty slots", hp.pageID))
}

// DeleteTuple clears t's slot. Fails with NotFound if t was not read from
// this page or its slot is already empty.
func (hp *HeapPage) DeleteTuple(t *tuple.Tuple) error {
	hp.mutex.Lock()
	defer hp.mutex.Unlock()

	if t.RecordID == nil || !t.RecordID.PageID.Equals(hp.pageID) {
		return dberror.NotFound("tuple does not belong to this page")
	}

	slot := int(t.RecordID.SlotID)
	if slot < 0 || slot >= hp.numSlots || !hp.slotOccupied(slot) {
		return dberror.NotFound(fmt.Sprintf("slot %d is not occupied", slot))
	}

	hp.tuples[slot] = nil
	hp.setSlotOccupied(slot, false)
	return nil
}

// GetPageData re-serializes header and slot records into a fresh
// PageSizeBytes buffer.
func (hp *HeapPage) GetPageData() []byte {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()
	return hp.serialize()
}

func (hp *HeapPage) serialize() []byte {
	buf := make([]byte, page.PageSizeBytes())
	copy(buf, hp.header)

	recordSize := hp.tupleDesc.Size()
	offset := len(hp.header)

	for slot := 0; slot < hp.numSlots; slot++ {
		dst := buf[offset : offset+recordSize]
		if hp.slotOccupied(slot) && hp.tuples[slot] != nil {
			var w bytes.Buffer
			for _, f := range hp.tuples[slot].Fields {
				_ = f.Serialize(&w)
			}
			copy(dst, w.Bytes())
		}
		offset += recordSize
	}

	return buf
}

// GetBeforeImage returns a snapshot HeapPage built from the bytes captured
// at load time or at the last SetBeforeImage.
func (hp *HeapPage) GetBeforeImage() page.Page {
	hp.mutex.RLock()
	snapshot := make([]byte, len(hp.beforeImage))
	copy(snapshot, hp.beforeImage)
	hp.mutex.RUnlock()

	before, err := NewHeapPage(hp.pageID, snapshot, hp.tupleDesc)
	if err != nil {
		// beforeImage is always a page this type produced; a decode
		// failure here means memory corruption, not a recoverable error.
		panic(err)
	}
	return before
}

// SetBeforeImage re-baselines the before-image to the page's current
// contents. Called by the buffer pool after a commit-flush.
func (hp *HeapPage) SetBeforeImage() {
	hp.mutex.Lock()
	defer hp.mutex.Unlock()
	hp.beforeImage = hp.serialize()
}

// GetTupleDesc returns the schema this page's slots are formatted with.
func (hp *HeapPage) GetTupleDesc() *tuple.TupleDescription {
	return hp.tupleDesc
}

// NumSlots returns this page's total slot count (occupied plus empty).
func (hp *HeapPage) NumSlots() int {
	return hp.numSlots
}

// Tuples returns occupied tuples in ascending slot order.
func (hp *HeapPage) Tuples() []*tuple.Tuple {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()

	out := make([]*tuple.Tuple, 0, hp.numSlots)
	for slot := 0; slot < hp.numSlots; slot++ {
		if hp.slotOccupied(slot) && hp.tuples[slot] != nil {
			out = append(out, hp.tuples[slot])
		}
	}
	return out
}
