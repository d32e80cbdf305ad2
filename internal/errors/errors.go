// Package errors defines the error taxonomy of an icon-font build and the
// ErrorLog accumulator used to batch per-icon diagnostics.
package errors

import (
	"fmt"
	"io"
	"sync"
)

// DefaultDisplayLimit is the number of messages an ErrorLog keeps for display.
const DefaultDisplayLimit = 5

// Sentinel is printed after the batched messages.
const Sentinel = "etc..."

// ErrorLog collects per-icon errors in order. It stops keeping messages once
// the display limit is reached but keeps counting, so callers can finish the
// whole batch before deciding whether the run failed.
type ErrorLog struct {
	limit  int
	errors []*BuildError
	total  int
	mutex  sync.RWMutex
}

// NewErrorLog creates an ErrorLog that keeps at most limit messages.
// A limit <= 0 selects DefaultDisplayLimit.
func NewErrorLog(limit int) *ErrorLog {
	if limit <= 0 {
		limit = DefaultDisplayLimit
	}

	return &ErrorLog{
		limit:  limit,
		errors: make([]*BuildError, 0, limit),
	}
}

// Add records err. Once the limit is reached the error is counted but not kept.
func (l *ErrorLog) Add(err *BuildError) {
	if err == nil {
		return
	}
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.total++
	if len(l.errors) < l.limit {
		l.errors = append(l.errors, err)
	}
}

// TooMany reports whether errors were dropped because the limit was reached.
func (l *ErrorLog) TooMany() bool {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	return l.total > l.limit
}

// Errors returns a copy of the kept errors.
func (l *ErrorLog) Errors() []*BuildError {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	result := make([]*BuildError, len(l.errors))
	copy(result, l.errors)

	return result
}

// Messages returns the kept messages in the order they were recorded.
func (l *ErrorLog) Messages() []string {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	messages := make([]string, 0, len(l.errors))
	for _, err := range l.errors {
		messages = append(messages, err.Message)
	}

	return messages
}

// Total returns how many errors were added, kept or not.
func (l *ErrorLog) Total() int {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	return l.total
}

// HasErrors returns true if there are any errors
func (l *ErrorLog) HasErrors() bool {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	return l.total > 0
}

// Finish prints the kept messages followed by the sentinel to w and decides
// the outcome of the batch. In strict mode a non-empty log yields an error;
// otherwise the messages are printed and nil is returned.
func (l *ErrorLog) Finish(w io.Writer, strict bool) error {
	if !l.HasErrors() {
		return nil
	}

	for _, msg := range l.Messages() {
		fmt.Fprintln(w, msg)
	}
	fmt.Fprintln(w, Sentinel)

	if !strict {
		return nil
	}

	return NewReconcileError(l.Total())
}

// Clear clears all errors
func (l *ErrorLog) Clear() {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.errors = l.errors[:0]
	l.total = 0
}
