// Package log implements the write-ahead log sink the buffer pool writes
// through before flushing a dirty page to its heap file. Recovery-time
// replay is out of scope here: this package only guarantees that a record
// is durable on disk before the page write it describes is allowed to
// proceed, which is the one property the buffer pool's force-on-commit
// policy depends on.
package log

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"time"

	dberror "storemy/pkg/error"
	"storemy/pkg/concurrency/transaction"
	"storemy/pkg/storage/page"
)

// Sink is the contract the buffer pool depends on: append a before/after
// image record for one page update, and force everything appended so far
// to stable storage.
type Sink interface {
	LogWrite(tid *transaction.TransactionID, before, after page.Page) error
	Force() error
}

// FileSink is a Sink backed by an append-only file, buffered in memory and
// flushed to disk on Force.
type FileSink struct {
	mutex  sync.Mutex
	file   *os.File
	writer *bufio.Writer
}

func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, dberror.IO(err, fmt.Sprintf("opening log file %s", path))
	}
	return &FileSink{file: f, writer: bufio.NewWriter(f)}, nil
}

// record is: tid(8) | timestampUnixNano(8) | tableID(8) | pageNo(8) |
// beforeLen(4) | before | afterLen(4) | after
func (s *FileSink) LogWrite(tid *transaction.TransactionID, before, after page.Page) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	beforeData := before.GetPageData()
	afterData := after.GetPageData()
	pid := after.GetID()

	header := make([]byte, 8+8+8+8+4)
	binary.LittleEndian.PutUint64(header[0:8], uint64(tid.ID()))
	binary.LittleEndian.PutUint64(header[8:16], uint64(time.Now().UnixNano()))
	binary.LittleEndian.PutUint64(header[16:24], uint64(pid.GetTableID()))
	binary.LittleEndian.PutUint64(header[24:32], uint64(pid.PageNo()))
	binary.LittleEndian.PutUint32(header[32:36], uint32(len(beforeData)))

	if _, err := s.writer.Write(header); err != nil {
		return dberror.IO(err, "writing log record header")
	}
	if _, err := s.writer.Write(beforeData); err != nil {
		return dberror.IO(err, "writing log record before-image")
	}

	var afterLen [4]byte
	binary.LittleEndian.PutUint32(afterLen[:], uint32(len(afterData)))
	if _, err := s.writer.Write(afterLen[:]); err != nil {
		return dberror.IO(err, "writing log record after-image length")
	}
	if _, err := s.writer.Write(afterData); err != nil {
		return dberror.IO(err, "writing log record after-image")
	}

	return nil
}

// Force flushes the in-memory buffer and fsyncs the underlying file, so
// that every record written so far survives a crash.
func (s *FileSink) Force() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.writer.Flush(); err != nil {
		return dberror.IO(err, "flushing log writer")
	}
	if err := s.file.Sync(); err != nil {
		return dberror.IO(err, "syncing log file")
	}
	return nil
}

func (s *FileSink) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := s.writer.Flush(); err != nil {
		return dberror.IO(err, "flushing log writer on close")
	}
	return s.file.Close()
}

// NoopSink discards every record. Used when a caller wants buffer pool
// semantics (force-on-commit bookkeeping) without an actual durable log,
// e.g. in tests that don't exercise crash recovery.
type NoopSink struct{}

func (NoopSink) LogWrite(*transaction.TransactionID, page.Page, page.Page) error { return nil }
func (NoopSink) Force() error                                                    { return nil }
