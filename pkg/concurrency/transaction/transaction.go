package transaction

import (
	"fmt"
	"sync/atomic"
	"time"
)

var transactionCounter int64

// TransactionID identifies a transaction for the lifetime of its 2PL
// participation. startedAt is stamped at creation so a long-held lock (the
// case BufferPool.GetPage's timeout is guarding against) can be reported
// with its age rather than just its ID.
type TransactionID struct {
	id        int64
	startedAt time.Time
}

func NewTransactionID() *TransactionID {
	return &TransactionID{
		id:        atomic.AddInt64(&transactionCounter, 1),
		startedAt: time.Now(),
	}
}

// NewTransactionIDFromValue creates a TransactionID with a specific ID value.
// This is primarily used for deserialization purposes.
func NewTransactionIDFromValue(id int64) *TransactionID {
	return &TransactionID{
		id:        id,
		startedAt: time.Now(),
	}
}

func (tid *TransactionID) ID() int64 {
	return tid.id
}

// Age is how long this transaction has held its ID, for timeout/tracing
// messages that want to say how long a transaction has been running rather
// than just which one it is.
func (tid *TransactionID) Age() time.Duration {
	return time.Since(tid.startedAt)
}

func (tid *TransactionID) String() string {
	return fmt.Sprintf("TID-%d", tid.id)
}

func (tid *TransactionID) Equals(other *TransactionID) bool {
	if tid == nil || other == nil {
		return tid == other
	}
	return tid.id == other.id
}
