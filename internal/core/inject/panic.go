package inject

import (
	"fmt"
	"runtime"
)

const maxFrames = 64

// PanicError is a recovered handler panic together with the stack at the
// point of the panic, innermost frame first.
type PanicError struct {
	Value  any
	Frames []runtime.Frame
}

func newPanicError(value any) *PanicError {
	pcs := make([]uintptr, maxFrames)
	// skip runtime.Callers, newPanicError and the deferred closure
	n := runtime.Callers(3, pcs)

	frames := runtime.CallersFrames(pcs[:n])
	e := &PanicError{Value: value}
	for {
		frame, more := frames.Next()
		e.Frames = append(e.Frames, frame)
		if !more {
			break
		}
	}

	return e
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it was an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
