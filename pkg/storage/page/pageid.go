// Package page defines the identifiers and interfaces shared by every page
// implementation: PageID and the Page lifecycle contract. It deliberately
// does not define a file-directory interface; callers that need to turn a
// table ID into the file backing it hold a concrete *heap.HeapFile instead,
// since naming that contract here would require importing the tuple
// package and create a cycle.
package page

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"

	"storemy/pkg/primitives"
)

// PageID identifies a page by (table, page number). Two PageIDs name the
// same page when Equals reports so; *PageDescriptor, the only
// implementation in this codebase, is a pointer, so == compares identity,
// not the page it names.
type PageID interface {
	GetTableID() primitives.TableID
	PageNo() primitives.PageNumber
	Serialize() []byte
	Equals(other PageID) bool
	String() string
	HashCode() primitives.HashCode
}

// PageDescriptor is the pair (table_id, page_number) that identifies a heap
// page.
type PageDescriptor struct {
	tableID primitives.TableID
	pageNum primitives.PageNumber
}

func NewPageDescriptor(tableID primitives.TableID, pageNum primitives.PageNumber) *PageDescriptor {
	return &PageDescriptor{tableID: tableID, pageNum: pageNum}
}

func (pd *PageDescriptor) GetTableID() primitives.TableID {
	return pd.tableID
}

func (pd *PageDescriptor) PageNo() primitives.PageNumber {
	return pd.pageNum
}

func (pd *PageDescriptor) Serialize() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(pd.tableID))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(pd.pageNum))
	return buf
}

func (pd *PageDescriptor) Equals(other PageID) bool {
	if other == nil {
		return false
	}
	return pd.tableID == other.GetTableID() && pd.pageNum == other.PageNo()
}

func (pd *PageDescriptor) String() string {
	return fmt.Sprintf("PageDescriptor(table=%d, page=%d)", pd.tableID, pd.pageNum)
}

func (pd *PageDescriptor) HashCode() primitives.HashCode {
	h := fnv.New64a()
	h.Write(pd.Serialize())
	return primitives.HashCode(h.Sum64())
}
