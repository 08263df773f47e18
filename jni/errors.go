package jni

import (
	"errors"
	"fmt"
)

// ErrJavaException indicates a Java exception is pending in the calling
// thread's environment. The exception is NOT cleared by this package;
// callers must clear it (see jnigo.ClearException) before making further
// JNI calls, or the next call may abort the VM.
var ErrJavaException = errors.New("jni: java exception pending")

// ErrNullRef is returned when a JNI call produced a null reference where a
// valid object was required.
var ErrNullRef = errors.New("jni: null reference")

// StatusError is a non-zero status code returned by a JNI invocation call.
type StatusError struct {
	Code int32  // raw JNI status (Err, EDetached, ...)
	Op   string // operation that failed
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("jni %s: %s (status %d)", e.Op, statusString(e.Code), e.Code)
}

// NewStatusError creates an error from a JNI status code.
// Returns nil if code is OK.
func NewStatusError(code int32, op string) error {
	if code == OK {
		return nil
	}
	return &StatusError{Code: code, Op: op}
}

// Status returns the JNI status code from an error, or OK if err is not a
// StatusError.
func Status(err error) int32 {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return OK
}

func statusString(code int32) string {
	switch code {
	case Err:
		return "unknown error"
	case EDetached:
		return "thread detached from the VM"
	case EVersion:
		return "JNI version error"
	case ENoMem:
		return "not enough memory"
	case EExist:
		return "VM already created"
	case EInval:
		return "invalid arguments"
	default:
		return "unrecognized status"
	}
}
