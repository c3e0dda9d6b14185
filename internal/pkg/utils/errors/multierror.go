package errors

import (
	"strings"

	"github.com/sasha-s/go-deadlock"
)

// MultiError collects multiple errors into one.
// It is used by Validate methods to report all problems at once.
type MultiError interface {
	error
	Unwrap() []error
	Append(errs ...error)
	AppendWithPrefix(err error, prefix string)
	AppendWithPrefixf(err error, format string, a ...any)
	Len() int
	// ErrorOrNil returns nil if no error was appended.
	ErrorOrNil() error
}

type multiError struct {
	lock deadlock.Mutex
	errs []error
}

func NewMultiError() MultiError {
	return &multiError{}
}

func (e *multiError) Error() string {
	e.lock.Lock()
	defer e.lock.Unlock()
	switch len(e.errs) {
	case 0:
		return ""
	case 1:
		return e.errs[0].Error()
	default:
		var out strings.Builder
		out.WriteString(e.errs[0].Error())
		for _, err := range e.errs[1:] {
			out.WriteString("; ")
			out.WriteString(err.Error())
		}
		return out.String()
	}
}

func (e *multiError) Unwrap() []error {
	e.lock.Lock()
	defer e.lock.Unlock()
	out := make([]error, len(e.errs))
	copy(out, e.errs)
	return out
}

func (e *multiError) Append(errs ...error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	for _, err := range errs {
		if err != nil {
			e.errs = append(e.errs, err)
		}
	}
}

func (e *multiError) AppendWithPrefix(err error, prefix string) {
	e.Append(PrefixError(err, prefix))
}

func (e *multiError) AppendWithPrefixf(err error, format string, a ...any) {
	e.Append(PrefixErrorf(err, format, a...))
}

func (e *multiError) Len() int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return len(e.errs)
}

func (e *multiError) ErrorOrNil() error {
	e.lock.Lock()
	defer e.lock.Unlock()
	if len(e.errs) == 0 {
		return nil
	}
	return e
}
