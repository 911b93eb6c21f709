package observability

import (
	"fmt"
	"runtime/debug"
)

// PanicError is a recovered panic value with the stack it was raised on
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// MustRecover converts a recovered panic value to a *PanicError. It must be
// passed recover() directly from a deferred function:
//
//	defer func() {
//	    if perr := observability.MustRecover(recover()); perr != nil {
//	        err = perr
//	    }
//	}()
//
// A nil r returns nil.
func MustRecover(r interface{}) error {
	if r == nil {
		return nil
	}
	return &PanicError{Value: r, Stack: debug.Stack()}
}

// RecoverPanic recovers a panic in the calling goroutine and logs it. The
// panic is not re-raised.
//
//	go func() {
//	    defer observability.RecoverPanic(logger, "http server")
//	    ...
//	}()
func RecoverPanic(logger *Logger, where string) {
	if r := recover(); r != nil {
		perr := &PanicError{Value: r, Stack: debug.Stack()}
		logger.WithFields(map[string]interface{}{
			"panic":   fmt.Sprint(perr.Value),
			"stack":   string(perr.Stack),
			"context": where,
		}).Error("PANIC recovered")
	}
}
