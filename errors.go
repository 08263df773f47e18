package jnigo

import (
	"errors"

	"github.com/obinnaokechukwu/jnigo/internal/bindings"
	"github.com/obinnaokechukwu/jnigo/internal/shimclass"
	"github.com/obinnaokechukwu/jnigo/jni"
)

// StatusError is a non-zero JNI status code, re-exported from the jni
// package.
type StatusError = jni.StatusError

// Common errors
var (
	// ErrJavaException indicates a Java exception is pending in the
	// calling thread's environment. Clear it with ClearException before
	// making further JNI calls.
	ErrJavaException = jni.ErrJavaException

	// ErrNullRef indicates a JNI call produced a null reference where an
	// object was required.
	ErrNullRef = jni.ErrNullRef

	// ErrNotLoaded indicates the JVM library is not loaded.
	ErrNotLoaded = bindings.ErrNotLoaded

	// ErrLibraryNotFound indicates no JVM runtime library could be found.
	ErrLibraryNotFound = bindings.ErrLibraryNotFound

	// ErrNoVM indicates no JavaVM exists and one could not be created.
	ErrNoVM = bindings.ErrNoVM

	// ErrShimNotFound indicates the compiled invocation-handler shim class
	// could not be located.
	ErrShimNotFound = shimclass.ErrNotFound

	// ErrNoInterfaces indicates BuildProxy was called with an empty
	// interface list.
	ErrNoInterfaces = errors.New("jnigo: proxy needs at least one interface")
)

// Status returns the JNI status code from an error, or jni.OK if err is
// not a StatusError.
func Status(err error) int32 {
	return jni.Status(err)
}
