package heap

import (
	"fmt"
	"os"
	"sync"

	dberror "storemy/pkg/error"
	"storemy/pkg/primitives"
	"storemy/pkg/storage/page"
	"storemy/pkg/tuple"
)

// HeapFile is an unordered, unindexed sequence of fixed-size pages backing
// one table. Its identity is the stable hash of its absolute path, so the
// same file always maps to the same TableID across process restarts.
type HeapFile struct {
	path      primitives.Filepath
	tableID   primitives.TableID
	tupleDesc *tuple.TupleDescription

	mutex sync.Mutex
}

// NewHeapFile opens the file at path, creating it if absent. TableID is
// derived from the absolute path, not assigned by a caller.
func NewHeapFile(path string, td *tuple.TupleDescription) (*HeapFile, error) {
	abs, err := primitives.Filepath(path).Abs()
	if err != nil {
		return nil, dberror.IO(err, fmt.Sprintf("resolving absolute path for %s", path))
	}

	f, err := os.OpenFile(string(abs), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, dberror.IO(err, fmt.Sprintf("opening heap file %s", abs))
	}
	f.Close()

	return &HeapFile{
		path:      abs,
		tableID:   abs.Hash(),
		tupleDesc: td,
	}, nil
}

func (hf *HeapFile) GetID() primitives.TableID {
	return hf.tableID
}

func (hf *HeapFile) GetTupleDesc() *tuple.TupleDescription {
	return hf.tupleDesc
}

func (hf *HeapFile) Path() string {
	return string(hf.path)
}

// NumPages returns the current page count, computed from the file's size on
// disk.
func (hf *HeapFile) NumPages() (int, error) {
	hf.mutex.Lock()
	defer hf.mutex.Unlock()
	return hf.numPagesLocked()
}

func (hf *HeapFile) numPagesLocked() (int, error) {
	info, err := os.Stat(string(hf.path))
	if err != nil {
		return 0, dberror.IO(err, fmt.Sprintf("statting %s", hf.path))
	}
	return int(info.Size() / int64(page.PageSizeBytes())), nil
}

// ReadPage reads one page by number. Unlike a cache miss elsewhere in the
// stack, an out-of-range page number here is always a caller bug: it fails
// with InvalidPage rather than silently returning a zeroed page, since the
// file's page count is exactly what defines "in range".
func (hf *HeapFile) ReadPage(pid page.PageID) (*HeapPage, error) {
	hf.mutex.Lock()
	defer hf.mutex.Unlock()

	numPages, err := hf.numPagesLocked()
	if err != nil {
		return nil, err
	}

	pageNo := int(pid.PageNo())
	if pageNo < 0 || pageNo >= numPages {
		return nil, dberror.InvalidPage(fmt.Sprintf("page %d out of range for %s (has %d pages)", pageNo, hf.path, numPages))
	}

	f, err := os.Open(string(hf.path))
	if err != nil {
		return nil, dberror.IO(err, fmt.Sprintf("opening %s for read", hf.path))
	}
	defer f.Close()

	buf := make([]byte, page.PageSizeBytes())
	offset := int64(pageNo) * int64(page.PageSizeBytes())
	if _, err := f.ReadAt(buf, offset); err != nil {
		return nil, dberror.IO(err, fmt.Sprintf("reading page %d of %s", pageNo, hf.path))
	}

	pd, ok := pid.(*page.PageDescriptor)
	if !ok {
		pd = page.NewPageDescriptor(pid.GetTableID(), pid.PageNo())
	}
	return NewHeapPage(pd, buf, hf.tupleDesc)
}

// WritePage writes a page at its own page number. The target page number
// may be at most one past the current end of file (extending it by
// exactly one page); anything further out fails with InvalidPage rather
// than silently punching a sparse hole. The buffer pool is responsible for
// calling the log sink before this, per the write-ahead rule; WritePage
// itself does not touch the log.
func (hf *HeapFile) WritePage(p *HeapPage) error {
	hf.mutex.Lock()
	defer hf.mutex.Unlock()

	numPages, err := hf.numPagesLocked()
	if err != nil {
		return err
	}

	pageNo := int(p.GetID().PageNo())
	if pageNo < 0 || pageNo > numPages {
		return dberror.InvalidPage(fmt.Sprintf("page %d out of range for %s (has %d pages)", pageNo, hf.path, numPages))
	}

	f, err := os.OpenFile(string(hf.path), os.O_RDWR, 0644)
	if err != nil {
		return dberror.IO(err, fmt.Sprintf("opening %s for write", hf.path))
	}
	defer f.Close()

	offset := int64(pageNo) * int64(page.PageSizeBytes())
	if _, err := f.WriteAt(p.GetPageData(), offset); err != nil {
		return dberror.IO(err, fmt.Sprintf("writing page %d of %s", pageNo, hf.path))
	}
	return nil
}

// InsertTuple scans existing pages in ascending order for one with a free
// slot. If none has room, it appends a fresh page. Every page is obtained
// through getPage (normally the buffer pool, reading through its own cache);
// the one page the tuple lands on is returned so the caller can mark it
// dirty. releasePage is
// called on every full page the scan passes over, so the caller can drop its
// exclusive lock on a page this insert ends up not touching rather than
// pinning it until the transaction completes.
func (hf *HeapFile) InsertTuple(t *tuple.Tuple, getPage func(page.PageID) (*HeapPage, error), releasePage func(page.PageID)) (*HeapPage, error) {
	numPages, err := hf.NumPages()
	if err != nil {
		return nil, err
	}

	for i := 0; i < numPages; i++ {
		pid := page.NewPageDescriptor(hf.tableID, primitives.PageNumber(i))
		hp, err := getPage(pid)
		if err != nil {
			return nil, err
		}
		if hp.GetNumEmptySlots() == 0 {
			releasePage(pid)
			continue
		}
		if err := hp.InsertTuple(t); err != nil {
			return nil, err
		}
		return hp, nil
	}

	if err := hf.appendEmptyPage(); err != nil {
		return nil, err
	}

	pid := page.NewPageDescriptor(hf.tableID, primitives.PageNumber(numPages))
	hp, err := getPage(pid)
	if err != nil {
		return nil, err
	}
	if err := hp.InsertTuple(t); err != nil {
		return nil, err
	}
	return hp, nil
}

func (hf *HeapFile) appendEmptyPage() error {
	hf.mutex.Lock()
	defer hf.mutex.Unlock()

	f, err := os.OpenFile(string(hf.path), os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return dberror.IO(err, fmt.Sprintf("opening %s to append", hf.path))
	}
	defer f.Close()

	if _, err := f.Write(make([]byte, page.PageSizeBytes())); err != nil {
		return dberror.IO(err, fmt.Sprintf("appending empty page to %s", hf.path))
	}
	return nil
}

// DeleteTuple removes t from the page named by its RecordID.
func (hf *HeapFile) DeleteTuple(t *tuple.Tuple, getPage func(page.PageID) (*HeapPage, error)) (*HeapPage, error) {
	if t.RecordID == nil {
		return nil, dberror.NotFound("tuple has no RecordID")
	}

	hp, err := getPage(t.RecordID.PageID)
	if err != nil {
		return nil, err
	}
	if err := hp.DeleteTuple(t); err != nil {
		return nil, err
	}
	return hp, nil
}
