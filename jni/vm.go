package jni

import "unsafe"

// GetEnv returns the environment for the current thread if it is already
// attached. Returns a StatusError with code EDetached otherwise.
func (v VM) GetEnv(version int32) (Env, error) {
	var env Env
	code := int32(v.call(vmGetEnv, uintptr(escapes(unsafe.Pointer(&env))), uintptr(version)))
	if code != OK {
		return 0, NewStatusError(code, "GetEnv")
	}
	return env, nil
}

// AttachCurrentThread attaches the calling OS thread to the VM and returns
// its environment. Attaching an already attached thread returns the same
// environment. The caller is responsible for runtime.LockOSThread.
func (v VM) AttachCurrentThread() (Env, error) {
	var env Env
	code := int32(v.call(vmAttachCurrentThread, uintptr(escapes(unsafe.Pointer(&env))), 0))
	if code != OK {
		return 0, NewStatusError(code, "AttachCurrentThread")
	}
	return env, nil
}

// AttachCurrentThreadAsDaemon is like AttachCurrentThread but the thread
// will not block VM shutdown.
func (v VM) AttachCurrentThreadAsDaemon() (Env, error) {
	var env Env
	code := int32(v.call(vmAttachCurrentThreadAsDaemon, uintptr(escapes(unsafe.Pointer(&env))), 0))
	if code != OK {
		return 0, NewStatusError(code, "AttachCurrentThreadAsDaemon")
	}
	return env, nil
}

// DetachCurrentThread detaches the calling thread. All local references
// held by the thread become invalid.
func (v VM) DetachCurrentThread() error {
	return NewStatusError(int32(v.call(vmDetachCurrentThread)), "DetachCurrentThread")
}

// DestroyJavaVM unloads the VM. Most JVMs do not support re-creation in the
// same process.
func (v VM) DestroyJavaVM() error {
	return NewStatusError(int32(v.call(vmDestroyJavaVM)), "DestroyJavaVM")
}
