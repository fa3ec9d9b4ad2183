// Package memory implements the buffer pool: the bounded, LRU-managed
// in-memory cache of pages that every read and write in the engine goes
// through. It owns no-steal eviction, write-ahead force-on-commit, and the
// blocking retry loop that turns the lock manager's non-blocking Acquire
// into the 2PL behavior callers actually see.
package memory

import (
	"fmt"
	"sync"
	"time"

	"storemy/pkg/catalog"
	"storemy/pkg/concurrency/lock"
	"storemy/pkg/concurrency/transaction"
	dberror "storemy/pkg/error"
	"storemy/pkg/logging"
	"storemy/pkg/primitives"
	"storemy/pkg/storage/heap"
	"storemy/pkg/storage/page"
	"storemy/pkg/tuple"

	"golang.org/x/sync/errgroup"
)

// lockAcquireRetryInterval is how long GetPage sleeps between failed lock
// acquisition attempts while it waits out LockTimeout.
const lockAcquireRetryInterval = 5 * time.Millisecond

type cacheEntry struct {
	pid  page.PageID
	page page.Page
	prev *cacheEntry
	next *cacheEntry
}

// BufferPool caches up to maxPages pages in memory, evicting the least
// recently used clean page when full. It is the only component that reads
// or writes a heap file's pages on behalf of a transaction.
type BufferPool struct {
	mutex       sync.Mutex
	maxPages    int
	entries     map[string]*cacheEntry
	head, tail  *cacheEntry
	lockManager *lock.Manager
	lockTimeout time.Duration
	catalog     *catalog.Catalog
	sink        Sink
}

// Sink is the write-ahead log contract the buffer pool forces through
// before writing a dirty page back to its file. Declared locally so this
// package does not need to import pkg/log just to name the interface it
// already satisfies.
type Sink interface {
	LogWrite(tid *transaction.TransactionID, before, after page.Page) error
	Force() error
}

func NewBufferPool(cat *catalog.Catalog, sink Sink, maxPages int, lockTimeout time.Duration) *BufferPool {
	if maxPages <= 0 {
		maxPages = page.DefaultPages
	}
	head := &cacheEntry{}
	tail := &cacheEntry{}
	head.next = tail
	tail.prev = head

	return &BufferPool{
		maxPages:    maxPages,
		entries:     make(map[string]*cacheEntry),
		head:        head,
		tail:        tail,
		lockManager: lock.NewManager(),
		lockTimeout: lockTimeout,
		catalog:     cat,
		sink:        sink,
	}
}

func pidKey(pid page.PageID) string {
	return pid.String()
}

func (bp *BufferPool) addToFront(e *cacheEntry) {
	e.prev = bp.head
	e.next = bp.head.next
	bp.head.next.prev = e
	bp.head.next = e
}

func (bp *BufferPool) removeEntry(e *cacheEntry) {
	e.prev.next = e.next
	e.next.prev = e.prev
}

func (bp *BufferPool) moveToFront(e *cacheEntry) {
	bp.removeEntry(e)
	bp.addToFront(e)
}

// GetPage returns the page identified by pid, materializing it into the
// cache first (a hit bumps it to MRU, a miss evicts-reads-installs it) and
// only then acquiring the requested lock on behalf of tid. If the lock
// cannot be acquired within lockTimeout it aborts with TransactionAborted,
// leaving deadlock avoidance to this wall-clock deadline rather than cycle
// detection. Fetching before locking matches the original's getPage: a
// transaction waiting on a conflicting lock still has the page cached by
// the time it is granted, rather than only discovering it after winning the
// lock.
func (bp *BufferPool) GetPage(tid *transaction.TransactionID, pid page.PageID, perm page.Permission) (page.Page, error) {
	hp, err := bp.fetchAndCache(pid)
	if err != nil {
		return nil, err
	}

	mode := lock.Shared
	if perm == page.ReadWrite {
		mode = lock.Exclusive
	}

	deadline := time.Now().Add(bp.lockTimeout)
	for !bp.lockManager.Acquire(pid, tid, mode) {
		if time.Now().After(deadline) {
			logging.WithLock(int(tid.ID()), pid.String()).Warn("lock timeout", "tx_age", tid.Age())
			return nil, dberror.TransactionAborted(fmt.Sprintf("timed out acquiring lock on %s", pid))
		}
		time.Sleep(lockAcquireRetryInterval)
	}

	return hp, nil
}

// fetchAndCache returns pid's page from the cache, bumping it to MRU, or
// reads it from its heap file and installs it (evicting the LRU clean page
// first if the cache is full) when absent.
func (bp *BufferPool) fetchAndCache(pid page.PageID) (page.Page, error) {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	if e, ok := bp.entries[pidKey(pid)]; ok {
		bp.moveToFront(e)
		logging.WithPage(int(pid.PageNo())).Debug("cache hit")
		return e.page, nil
	}
	logging.WithPage(int(pid.PageNo())).Debug("cache miss")

	if len(bp.entries) >= bp.maxPages {
		if err := bp.evictLocked(); err != nil {
			return nil, err
		}
	}

	hf, err := bp.catalog.GetDatabaseFile(pid.GetTableID())
	if err != nil {
		return nil, err
	}

	hp, err := hf.ReadPage(pid)
	if err != nil {
		return nil, err
	}

	e := &cacheEntry{pid: pid, page: hp}
	bp.entries[pidKey(pid)] = e
	bp.addToFront(e)

	return hp, nil
}

// UnsafeReleasePage drops tid's lock on pid without regard to 2PL.
// InsertTuple uses it to drop the exclusive lock on each full page its scan
// passes over, rather than holding it to transaction end.
func (bp *BufferPool) UnsafeReleasePage(tid *transaction.TransactionID, pid page.PageID) {
	bp.lockManager.Release(pid, tid)
}

func (bp *BufferPool) HoldsLock(tid *transaction.TransactionID, pid page.PageID) bool {
	return bp.lockManager.HoldsLock(pid, tid)
}

// InsertTuple finds or creates room for t in tableID's heap file, routing
// every page touched through GetPage so the insert participates in
// locking and caching like any other write.
func (bp *BufferPool) InsertTuple(tid *transaction.TransactionID, tableID primitives.TableID, t *tuple.Tuple) error {
	hf, err := bp.catalog.GetDatabaseFile(tableID)
	if err != nil {
		return err
	}

	modified, err := hf.InsertTuple(t, func(pid page.PageID) (*heap.HeapPage, error) {
		p, err := bp.GetPage(tid, pid, page.ReadWrite)
		if err != nil {
			return nil, err
		}
		return p.(*heap.HeapPage), nil
	}, func(pid page.PageID) {
		bp.UnsafeReleasePage(tid, pid)
	})
	if err != nil {
		return err
	}

	modified.MarkDirty(true, tid)
	return nil
}

// DeleteTuple removes t from the page its RecordID names.
func (bp *BufferPool) DeleteTuple(tid *transaction.TransactionID, t *tuple.Tuple) error {
	if t.RecordID == nil {
		return dberror.NotFound("tuple has no RecordID")
	}

	hf, err := bp.catalog.GetDatabaseFile(t.RecordID.PageID.GetTableID())
	if err != nil {
		return err
	}

	modified, err := hf.DeleteTuple(t, func(pid page.PageID) (*heap.HeapPage, error) {
		p, err := bp.GetPage(tid, pid, page.ReadWrite)
		if err != nil {
			return nil, err
		}
		return p.(*heap.HeapPage), nil
	})
	if err != nil {
		return err
	}

	modified.MarkDirty(true, tid)
	return nil
}

// TransactionComplete ends tid's participation in 2PL: on commit, every
// page it dirtied is forced through the log and written to disk and its
// before-image is rebaselined; on abort, every page it dirtied is
// discarded and re-read from disk so its in-memory state matches what was
// durably committed. Either way every lock tid holds is released.
func (bp *BufferPool) TransactionComplete(tid *transaction.TransactionID, commit bool) error {
	bp.mutex.Lock()
	var dirtied []*cacheEntry
	for _, e := range bp.entries {
		if d := e.page.IsDirty(); d != nil && d.Equals(tid) {
			dirtied = append(dirtied, e)
		}
	}

	for _, e := range dirtied {
		if commit {
			if err := bp.flushEntryLocked(tid, e); err != nil {
				bp.mutex.Unlock()
				return err
			}
			e.page.SetBeforeImage()
		} else {
			bp.discardLocked(e.pid)
		}
	}
	bp.mutex.Unlock()

	bp.lockManager.ReleaseAll(tid)
	return nil
}

func (bp *BufferPool) flushEntryLocked(tid *transaction.TransactionID, e *cacheEntry) error {
	before := e.page.GetBeforeImage()
	log := logging.WithPage(int(e.pid.PageNo()))

	if err := bp.sink.LogWrite(tid, before, e.page); err != nil {
		return err
	}

	start := time.Now()
	if err := bp.sink.Force(); err != nil {
		return err
	}
	log.Debug("wal force", "elapsed_ms", time.Since(start).Milliseconds())

	hf, err := bp.catalog.GetDatabaseFile(e.pid.GetTableID())
	if err != nil {
		return err
	}
	hp, ok := e.page.(*heap.HeapPage)
	if !ok {
		return fmt.Errorf("page %s is not a heap page", e.pid)
	}
	if err := hf.WritePage(hp); err != nil {
		return err
	}

	e.page.MarkDirty(false, nil)
	return nil
}

// discardLocked drops a cache entry and, if its file still has that many
// pages, reloads the clean on-disk copy in its place so later readers see
// the page's last committed state rather than a hole.
func (bp *BufferPool) discardLocked(pid page.PageID) {
	e, ok := bp.entries[pidKey(pid)]
	if !ok {
		return
	}
	bp.removeEntry(e)
	delete(bp.entries, pidKey(pid))

	hf, err := bp.catalog.GetDatabaseFile(pid.GetTableID())
	if err != nil {
		return
	}
	hp, err := hf.ReadPage(pid)
	if err != nil {
		return
	}

	fresh := &cacheEntry{pid: pid, page: hp}
	bp.entries[pidKey(pid)] = fresh
	bp.addToFront(fresh)
}

// DiscardPage drops pid from the cache without flushing it, regardless of
// dirty state. Used when a caller knows the page's contents are no longer
// needed, e.g. after dropping a table.
func (bp *BufferPool) DiscardPage(pid page.PageID) {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	e, ok := bp.entries[pidKey(pid)]
	if !ok {
		return
	}
	bp.removeEntry(e)
	delete(bp.entries, pidKey(pid))
}

// FlushAllPages forces every dirty cached page to disk, regardless of
// which transaction dirtied it. Used at a clean shutdown.
func (bp *BufferPool) FlushAllPages() error {
	bp.mutex.Lock()
	dirty := make([]*cacheEntry, 0, len(bp.entries))
	for _, e := range bp.entries {
		if e.page.IsDirty() != nil {
			dirty = append(dirty, e)
		}
	}
	bp.mutex.Unlock()

	var g errgroup.Group
	for _, e := range dirty {
		e := e
		g.Go(func() error {
			tid := e.page.IsDirty()
			bp.mutex.Lock()
			err := bp.flushEntryLocked(tid, e)
			bp.mutex.Unlock()
			return err
		})
	}
	return g.Wait()
}

// evictLocked removes the least recently used clean page. Dirty pages are
// never evicted (no-steal); if every cached page is dirty, eviction fails
// and the caller's GetPage aborts.
func (bp *BufferPool) evictLocked() error {
	for e := bp.tail.prev; e != bp.head; e = e.prev {
		if e.page.IsDirty() != nil {
			continue
		}
		bp.removeEntry(e)
		delete(bp.entries, pidKey(e.pid))
		return nil
	}

	logging.Error("buffer pool full: every cached page is dirty, cannot evict under no-steal policy")
	return dberror.TransactionAborted("all buffer pool pages are dirty; no-steal policy forbids evicting them")
}
