package logpipe

import (
	stderrs "errors"
	"fmt"
	"strings"

	smerrors "github.com/Station-Manager/errors"
)

// maxExceptionDepth bounds how far an error chain is followed.
const maxExceptionDepth = 50

// Exception is one link of an error chain as it is rendered by formatters.
// Chains are acyclic: ExceptionFromError stops at maxExceptionDepth and on
// repeated messages.
type Exception struct {
	Type       string
	Message    string
	StackTrace string
	Inner      *Exception
}

// Depth returns the number of links, this one included.
func (x *Exception) Depth() int {
	n := 0
	for ; x != nil; x = x.Inner {
		n++
	}
	return n
}

// Root returns the innermost link.
func (x *Exception) Root() *Exception {
	if x == nil {
		return nil
	}
	for x.Inner != nil {
		x = x.Inner
	}
	return x
}

// ExceptionFromError converts err and its cause chain (outermost first).
// Station-Manager DetailedError links contribute their operation as the
// stack text; other errors are unwrapped with errors.Unwrap.
func ExceptionFromError(err error) *Exception {
	var head, tail *Exception
	seen := map[string]bool{}

	for depth := 0; err != nil && depth < maxExceptionDepth; depth++ {
		link := &Exception{Type: fmt.Sprintf("%T", err), Message: err.Error()}

		if dErr, ok := smerrors.AsDetailedError(err); ok && dErr != nil {
			link.StackTrace = string(dErr.Op())
			err = dErr.Cause()
		} else {
			// avoid infinite loops if messages repeat due to unusual cycles
			if seen[link.Message] {
				break
			}
			seen[link.Message] = true
			err = stderrs.Unwrap(err)
		}

		if head == nil {
			head = link
		} else {
			tail.Inner = link
		}
		tail = link
	}
	return head
}

// errorChain flattens an exception chain into messages and operations,
// outermost first.
func errorChain(x *Exception) (chain []string, ops []string) {
	for ; x != nil; x = x.Inner {
		chain = append(chain, x.Message)
		ops = append(ops, x.StackTrace)
	}
	return chain, ops
}

// joinChain returns a single string for the error chain separated by " -> ".
func joinChain(chain []string) string {
	if len(chain) == 0 {
		return ""
	}
	return strings.Join(chain, " -> ")
}
