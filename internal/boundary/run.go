package boundary

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"unsafe"

	"github.com/hsiuhsiu/objinfo-go/internal/logging"
)

// Reporter receives the outcome of a failed call. A nil Reporter means the
// caller did not ask for diagnostics.
type Reporter interface {
	Report(code Code, message string)
}

// ErrNullResult is reported when a pointer-returning operation produced
// neither a value nor an error.
var ErrNullResult = errors.New("operation returned a null result without an error")

type loggerHolder struct{ l logging.Logger }

var current atomic.Pointer[loggerHolder]

// SetLogger installs the logger used for contained panics and swallowed
// errors. Passing nil restores the no-op logger.
func SetLogger(l logging.Logger) {
	if l == nil {
		current.Store(nil)
		return
	}
	current.Store(&loggerHolder{l: l})
}

func logger() logging.Logger {
	if h := current.Load(); h != nil {
		return h.l
	}
	return logging.Nop()
}

// Run executes work under a recovery boundary.
//
// On success the value is returned unchanged. On error the zero T is
// returned and r, if non-nil, receives Classify(err) and err's text. A panic
// (including a memory fault, which is turned into a panic for the duration of
// the call) is recovered, reported as CodeInternal with a generic message and
// also yields the zero T. Nothing escapes Run.
func Run[T any](r Reporter, op string, work func() (T, error)) (result T) {
	defer debug.SetPanicOnFault(debug.SetPanicOnFault(true))
	defer func() {
		if v := recover(); v != nil {
			var zero T
			result = zero
			contain(op, v)
			report(r, op, CodeInternal, internalMessage(op))
		}
	}()

	v, err := work()
	if err != nil {
		fail(r, op, err)
		var zero T
		return zero
	}
	return v
}

// RunPtr is Run for operations that hand out pointers. A nil pointer with a
// nil error violates the non-null success invariant and is reported as
// internal.
func RunPtr(r Reporter, op string, work func() (unsafe.Pointer, error)) unsafe.Pointer {
	return Run(r, op, func() (unsafe.Pointer, error) {
		p, err := work()
		if err == nil && p == nil {
			return nil, ErrNullResult
		}
		return p, err
	})
}

// Release runs a fire-and-forget operation such as a free. Errors and panics
// are logged and swallowed: the caller has already given the value up.
func Release(op string, work func() error) {
	defer debug.SetPanicOnFault(debug.SetPanicOnFault(true))
	defer func() {
		if v := recover(); v != nil {
			contain(op, v)
		}
	}()

	if err := work(); err != nil {
		logger().Debug(context.Background(), "release error swallowed", "op", op, "error", err)
	}
}

func internalMessage(op string) string {
	return fmt.Sprintf("internal error in %s", op)
}

func fail(r Reporter, op string, err error) {
	code := Classify(err)
	msg := err.Error()
	if msg == "" {
		msg = code.String()
	}
	logger().Debug(context.Background(), "call failed", "op", op, "code", code.String(), "error", msg)
	report(r, op, code, msg)
}

// report shields the caller from a descriptor that cannot be written.
func report(r Reporter, op string, code Code, msg string) {
	if r == nil {
		return
	}
	defer func() {
		if v := recover(); v != nil {
			logger().Error(context.Background(), "error descriptor not writable", "op", op, "panic", fmt.Sprint(v))
		}
	}()
	r.Report(code, msg)
}

func contain(op string, v any) {
	defer func() { _ = recover() }()
	l := logger()
	l.Error(context.Background(), "panic contained at boundary", "op", op, "panic", fmt.Sprint(v))
	l.Debug(context.Background(), "contained panic stack", "op", op, "stack", string(debug.Stack()))
}
