package tuple

import "storemy/pkg/storage/page"

// RecordID locates a tuple within a heap file: the page that holds it and
// its slot number within that page.
type RecordID struct {
	PageID page.PageID
	SlotID uint32
}

func NewRecordID(pid page.PageID, slot uint32) *RecordID {
	return &RecordID{PageID: pid, SlotID: slot}
}

func (r *RecordID) Equals(other *RecordID) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.SlotID == other.SlotID && r.PageID.Equals(other.PageID)
}
