package lock_test

import (
	"testing"

	"storemy/pkg/concurrency/lock"
	"storemy/pkg/concurrency/transaction"
	"storemy/pkg/storage/page"

	"github.com/stretchr/testify/require"
)

func TestAcquireGrantsFirstRequest(t *testing.T) {
	m := lock.NewManager()
	pid := page.NewPageDescriptor(1, 0)
	tid := transaction.NewTransactionID()

	require.True(t, m.Acquire(pid, tid, lock.Shared))
	require.True(t, m.HoldsLock(pid, tid))
}

func TestMultipleSharedHoldersAllowed(t *testing.T) {
	m := lock.NewManager()
	pid := page.NewPageDescriptor(1, 0)
	t1, t2 := transaction.NewTransactionID(), transaction.NewTransactionID()

	require.True(t, m.Acquire(pid, t1, lock.Shared))
	require.True(t, m.Acquire(pid, t2, lock.Shared))
}

func TestExclusiveDeniedWhileSharedHeldByOther(t *testing.T) {
	m := lock.NewManager()
	pid := page.NewPageDescriptor(1, 0)
	t1, t2 := transaction.NewTransactionID(), transaction.NewTransactionID()

	require.True(t, m.Acquire(pid, t1, lock.Shared))
	require.False(t, m.Acquire(pid, t2, lock.Exclusive))
}

func TestUpgradeAllowedWhenSoleHolder(t *testing.T) {
	m := lock.NewManager()
	pid := page.NewPageDescriptor(1, 0)
	tid := transaction.NewTransactionID()

	require.True(t, m.Acquire(pid, tid, lock.Shared))
	require.True(t, m.Acquire(pid, tid, lock.Exclusive))
}

func TestUpgradeDeniedWhenOtherSharedHolderExists(t *testing.T) {
	m := lock.NewManager()
	pid := page.NewPageDescriptor(1, 0)
	t1, t2 := transaction.NewTransactionID(), transaction.NewTransactionID()

	require.True(t, m.Acquire(pid, t1, lock.Shared))
	require.True(t, m.Acquire(pid, t2, lock.Shared))
	require.False(t, m.Acquire(pid, t1, lock.Exclusive))
}

func TestReleaseAllDropsEveryPage(t *testing.T) {
	m := lock.NewManager()
	pidA := page.NewPageDescriptor(1, 0)
	pidB := page.NewPageDescriptor(1, 1)
	tid := transaction.NewTransactionID()

	require.True(t, m.Acquire(pidA, tid, lock.Shared))
	require.True(t, m.Acquire(pidB, tid, lock.Exclusive))

	m.ReleaseAll(tid)

	require.False(t, m.HoldsLock(pidA, tid))
	require.False(t, m.HoldsLock(pidB, tid))
}

func TestLockedPagesReportsHeldSet(t *testing.T) {
	m := lock.NewManager()
	pidA := page.NewPageDescriptor(1, 0)
	pidB := page.NewPageDescriptor(1, 1)
	tid := transaction.NewTransactionID()

	require.True(t, m.Acquire(pidA, tid, lock.Shared))
	require.True(t, m.Acquire(pidB, tid, lock.Shared))

	held := m.LockedPages(tid)
	require.Len(t, held, 2)
}

func TestReleaseFreesPageForExclusiveRequest(t *testing.T) {
	m := lock.NewManager()
	pid := page.NewPageDescriptor(1, 0)
	t1, t2 := transaction.NewTransactionID(), transaction.NewTransactionID()

	require.True(t, m.Acquire(pid, t1, lock.Shared))
	require.False(t, m.Acquire(pid, t2, lock.Exclusive))

	m.Release(pid, t1)
	require.True(t, m.Acquire(pid, t2, lock.Exclusive))
}
