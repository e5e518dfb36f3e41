// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package warp

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrClosed is returned by commands issued after the downlink was torn down.
var ErrClosed = errors.New("warp: downlink closed")

// fatalError marks an error that must unwind the caller instead of being
// routed to DidFail.
type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// Fatal wraps err so that IsFatal reports true for it. A handler returning
// a fatal error makes the downlink panic with it once local state is
// consistent.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// IsFatal reports whether err must propagate to the owner of the downlink.
// Runtime errors (nil dereference, out of range, ...) are always fatal.
func IsFatal(err error) bool {
	var fe *fatalError
	if errors.As(err, &fe) {
		return true
	}
	var re runtime.Error
	return errors.As(err, &re)
}

// PanicError carries a non-fatal panic recovered from a handler.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("warp: handler panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// recovered converts a recovered panic value into an error.
func recovered(r any) error {
	if err, ok := r.(error); ok {
		if IsFatal(err) {
			return err
		}
	}
	return &PanicError{Value: r}
}

// guard runs fn at a dispatch boundary. Non-fatal faults, returned or
// panicked, go to DidFail. Fatal faults are re-panicked.
func (d *Downlink) guard(fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			if err := recovered(r); IsFatal(err) {
				panic(r)
			} else {
				d.DidFail(err)
			}
		}
	}()
	if err := fn(); err != nil {
		if IsFatal(err) {
			panic(err)
		}
		d.DidFail(err)
	}
}
