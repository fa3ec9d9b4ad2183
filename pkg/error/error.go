// Package error provides the structured error type used across the storage
// engine so callers can branch on error kind without parsing message text.
package error

import (
	"fmt"
	"runtime"
	"strings"
)

// ErrorCategory classifies errors by their nature and appropriate handling
// strategy.
type ErrorCategory int

const (
	// ErrCategoryUser represents errors caused by an invalid caller request,
	// e.g. deleting a tuple that was never inserted.
	ErrCategoryUser ErrorCategory = iota

	// ErrCategoryTransient represents errors that might succeed on retry.
	// A timed-out lock acquisition is not one of these: TransactionAborted
	// is ErrCategoryConcurrency.
	ErrCategoryTransient

	// ErrCategorySystem represents errors requiring operator attention,
	// e.g. the underlying heap file could not be read.
	ErrCategorySystem

	// ErrCategoryData represents errors about the shape of on-disk or
	// in-memory data, e.g. an out-of-range page number.
	ErrCategoryData

	// ErrCategoryConcurrency represents errors from lock conflicts or
	// transaction aborts.
	ErrCategoryConcurrency
)

// Error codes for the five kinds the storage engine distinguishes.
const (
	CodeTransactionAborted = "TRANSACTION_ABORTED"
	CodeNoSpace            = "NO_SPACE"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidPage        = "INVALID_PAGE"
	CodeIO                 = "IO"
)

// DBError is a structured error with enough context to log, classify and
// chain without string matching on Error().
type DBError struct {
	Code      string
	Category  ErrorCategory
	Message   string
	Detail    string
	Operation string
	Component string
	Cause     error
	Stack     []uintptr
}

// New creates a DBError with the given code, category and message.
func New(category ErrorCategory, code, message string) *DBError {
	return &DBError{
		Code:     code,
		Category: category,
		Message:  message,
		Stack:    captureStack(),
	}
}

// Wrap attaches operation/component context to err. If err is already a
// DBError its fields are filled in only where empty; otherwise a new
// system-category DBError is created around it.
func Wrap(err error, code, operation, component string) *DBError {
	if err == nil {
		return nil
	}

	if dbErr, ok := err.(*DBError); ok {
		if dbErr.Operation == "" {
			dbErr.Operation = operation
		}
		if dbErr.Component == "" {
			dbErr.Component = component
		}
		return dbErr
	}

	return &DBError{
		Code:      code,
		Category:  ErrCategorySystem,
		Message:   err.Error(),
		Operation: operation,
		Component: component,
		Cause:     err,
		Stack:     captureStack(),
	}
}

func captureStack() []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[0:n]
}

// Error implements the standard error interface.
//
// [CODE] Message: Detail (operation: Operation, component: Component) caused by: cause
func (e *DBError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Detail != "" {
		b.WriteString(fmt.Sprintf(": %s", e.Detail))
	}

	if e.Operation != "" {
		b.WriteString(fmt.Sprintf(" (operation: %s", e.Operation))
		if e.Component != "" {
			b.WriteString(fmt.Sprintf(", component: %s", e.Component))
		}
		b.WriteString(")")
	}

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(" caused by: %v", e.Cause))
	}

	return b.String()
}

func (e *DBError) Unwrap() error {
	return e.Cause
}

func (e *DBError) FormatStack() string {
	if len(e.Stack) == 0 {
		return ""
	}

	var b strings.Builder
	frames := runtime.CallersFrames(e.Stack)

	b.WriteString("Stack trace:\n")
	for {
		f, more := frames.Next()
		b.WriteString(fmt.Sprintf("  %s\n    %s:%d\n", f.Function, f.File, f.Line))
		if !more {
			break
		}
	}
	return b.String()
}

// Is lets errors.Is match on Code rather than identity, so callers can do
// errors.Is(err, error.TransactionAborted("")) to test the kind.
func (e *DBError) Is(target error) bool {
	other, ok := target.(*DBError)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

func TransactionAborted(detail string) *DBError {
	return &DBError{Code: CodeTransactionAborted, Category: ErrCategoryConcurrency, Message: "transaction aborted", Detail: detail, Stack: captureStack()}
}

func NoSpace(detail string) *DBError {
	return &DBError{Code: CodeNoSpace, Category: ErrCategoryData, Message: "page has no free slots", Detail: detail, Stack: captureStack()}
}

func NotFound(detail string) *DBError {
	return &DBError{Code: CodeNotFound, Category: ErrCategoryUser, Message: "not found", Detail: detail, Stack: captureStack()}
}

func InvalidPage(detail string) *DBError {
	return &DBError{Code: CodeInvalidPage, Category: ErrCategoryData, Message: "invalid page number", Detail: detail, Stack: captureStack()}
}

func IO(cause error, detail string) *DBError {
	return &DBError{Code: CodeIO, Category: ErrCategorySystem, Message: "i/o failure", Detail: detail, Cause: cause, Stack: captureStack()}
}
