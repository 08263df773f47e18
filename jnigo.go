// Package jnigo is a safety and lifetime layer over the Java Native
// Interface. It lets Go code call into a JVM and, through dynamic proxies,
// lets the JVM call back into Go closures, without CGO (using purego).
//
// The central feature is BuildProxy: it synthesizes a Java object
// implementing a set of Java interfaces whose every method call is routed
// to a Go handler, with exceptions bridged faithfully in both directions.
//
// Low-level JNI access is available through the jni sub-package.
package jnigo

import (
	"runtime"

	"github.com/obinnaokechukwu/jnigo/internal/bindings"
	"github.com/obinnaokechukwu/jnigo/jni"
)

// Init locates and loads the JVM runtime library. It is called
// automatically by the high-level API, but can be called explicitly to
// check for errors early. Safe to call multiple times.
//
// Init is not needed when the VM is injected with SetJavaVM.
func Init() error {
	return bindings.Load()
}

// IsLoaded returns true if the JVM library has been successfully loaded.
func IsLoaded() bool {
	return bindings.IsLoaded()
}

// SetJavaVM injects the JavaVM pointer owned by an embedding host, such as
// an Android app or a JVM that loaded this code as a native library. It
// takes precedence over VM discovery and creation.
func SetJavaVM(vm uintptr) {
	bindings.SetVM(jni.VM(vm))
}

// AttachCurrentEnv returns the JNI environment for the calling OS thread,
// attaching it to the VM if necessary. The caller must keep the goroutine
// locked to its OS thread (runtime.LockOSThread) while using the Env;
// prefer WithEnv, which handles that.
func AttachCurrentEnv() (jni.Env, error) {
	return bindings.AttachCurrentEnv()
}

// WithEnv locks the calling goroutine to its OS thread, attaches the
// thread to the VM and runs fn with the thread's environment. The thread
// stays attached afterwards (attachment is permanent and idempotent).
func WithEnv(fn func(env jni.Env) error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	env, err := bindings.AttachCurrentEnv()
	if err != nil {
		return err
	}
	return fn(env)
}

// Re-export the handle types for convenience.
type (
	// Env is a JNIEnv pointer, valid on a single attached thread.
	Env = jni.Env

	// Ref is an opaque reference to a Java object.
	Ref = jni.Ref

	// VM is the process-wide JavaVM pointer.
	VM = jni.VM
)

// Void is the result a ProxyHandler returns for void Java methods.
const Void = jni.Ref(0)
