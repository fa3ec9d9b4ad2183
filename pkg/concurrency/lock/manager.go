// Package lock implements page-level shared/exclusive locking for
// two-phase locking. The manager itself never blocks: Acquire returns
// immediately with whether the lock was granted, and it is the caller's
// job (the buffer pool's get_page) to retry under a deadline. This keeps
// the manager a single small monitor instead of a wait-queue/dependency
// graph, trading real deadlock detection for a simple acquisition timeout.
package lock

import (
	"sync"

	"storemy/pkg/concurrency/transaction"
	"storemy/pkg/logging"
	"storemy/pkg/storage/page"
)

// Mode is the kind of lock held or requested on a page.
type Mode int

const (
	Shared Mode = iota
	Exclusive
)

type holder struct {
	tid  *transaction.TransactionID
	mode Mode
}

type pageLocks struct {
	pid     page.PageID
	holders []holder
}

// Manager tracks, per page, which transactions hold which lock mode. It
// enforces the standard 2PL decision table:
//
//   - no holders                        -> grant
//   - requester already holds the lock  -> grant (no-op for same mode,
//     upgrade S->X allowed only if requester is the sole holder)
//   - requester holds S, wants X, and
//     is the only holder                -> grant (upgrade)
//   - any other case                     -> deny
type Manager struct {
	mutex sync.Mutex
	pages map[string]*pageLocks
}

func NewManager() *Manager {
	return &Manager{pages: make(map[string]*pageLocks)}
}

func key(pid page.PageID) string {
	return pid.String()
}

func (mode Mode) String() string {
	if mode == Exclusive {
		return "exclusive"
	}
	return "shared"
}

// Acquire attempts to grant tid the requested mode on pid. It returns
// immediately; it does not wait or retry.
func (m *Manager) Acquire(pid page.PageID, tid *transaction.TransactionID, mode Mode) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	log := logging.WithLock(int(tid.ID()), pid.String())
	grant := func() bool {
		log.Debug("lock grant", "mode", mode.String())
		return true
	}
	deny := func() bool {
		log.Debug("lock deny", "mode", mode.String())
		return false
	}

	entry := m.pages[key(pid)]

	if entry == nil || len(entry.holders) == 0 {
		m.pages[key(pid)] = &pageLocks{pid: pid, holders: []holder{{tid: tid, mode: mode}}}
		return grant()
	}

	selfIdx := -1
	for i, h := range entry.holders {
		if h.tid.Equals(tid) {
			selfIdx = i
			break
		}
	}

	if selfIdx >= 0 {
		current := entry.holders[selfIdx].mode
		if mode == Shared || current == Exclusive {
			return grant()
		}
		// requester holds S, wants X: only legal if it's the sole holder.
		if len(entry.holders) == 1 {
			entry.holders[selfIdx].mode = Exclusive
			return grant()
		}
		return deny()
	}

	if mode == Exclusive {
		return deny()
	}

	for _, h := range entry.holders {
		if h.mode == Exclusive {
			return deny()
		}
	}

	entry.holders = append(entry.holders, holder{tid: tid, mode: mode})
	return grant()
}

// HoldsLock reports whether tid currently holds any lock on pid.
func (m *Manager) HoldsLock(pid page.PageID, tid *transaction.TransactionID) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	entry := m.pages[key(pid)]
	if entry == nil {
		return false
	}
	for _, h := range entry.holders {
		if h.tid.Equals(tid) {
			return true
		}
	}
	return false
}

// Release drops tid's lock on pid, if any.
func (m *Manager) Release(pid page.PageID, tid *transaction.TransactionID) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.releaseLocked(pid, tid)
}

func (m *Manager) releaseLocked(pid page.PageID, tid *transaction.TransactionID) {
	k := key(pid)
	entry := m.pages[k]
	if entry == nil {
		return
	}
	for i, h := range entry.holders {
		if h.tid.Equals(tid) {
			entry.holders = append(entry.holders[:i], entry.holders[i+1:]...)
			break
		}
	}
	if len(entry.holders) == 0 {
		delete(m.pages, k)
	}
}

// ReleaseAll drops every lock tid holds, across all pages. Called at
// transaction commit or abort.
func (m *Manager) ReleaseAll(tid *transaction.TransactionID) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for k, entry := range m.pages {
		kept := entry.holders[:0]
		for _, h := range entry.holders {
			if !h.tid.Equals(tid) {
				kept = append(kept, h)
			}
		}
		if len(kept) == 0 {
			delete(m.pages, k)
		} else {
			entry.holders = kept
		}
	}
}

// LockedPages returns every page tid currently holds a lock on.
func (m *Manager) LockedPages(tid *transaction.TransactionID) []page.PageID {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var out []page.PageID
	for _, entry := range m.pages {
		for _, h := range entry.holders {
			if h.tid.Equals(tid) {
				out = append(out, entry.pid)
				break
			}
		}
	}
	return out
}
