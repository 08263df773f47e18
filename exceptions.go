package jnigo

import (
	"errors"
	"sync"

	"github.com/obinnaokechukwu/jnigo/jni"
)

// The last Java exception cleared by the bridge, stashed per thread (keyed
// by Env, which is unique per attached thread) so the caller, or the proxy
// dispatcher re-throwing on a handler's behalf, can retrieve it. One entry
// deep; retrieval is destructive.
var (
	lastClearedMu sync.Mutex
	lastCleared   = make(map[jni.Env]*GlobalRef)
)

// ClearException clears a pending Java exception signalled by err.
//
// If err is ErrJavaException and an exception is actually pending, the
// exception is described to stderr, cleared from the environment, and
// stashed for LastClearedException. err is returned unchanged, so the
// function composes as a pass-through on error paths:
//
//	cls, err := env.FindClass(name)
//	if err != nil {
//		return ClearException(env, err)
//	}
//
// Not clearing a pending exception makes the next JNI call on the thread
// undefined behavior, which is why every helper in this package routes its
// errors through one of the Clear variants.
func ClearException(env jni.Env, err error) error {
	return clearException(env, err, true, true)
}

// ClearExceptionSilent is ClearException without the stderr description.
func ClearExceptionSilent(env jni.Env, err error) error {
	return clearException(env, err, false, true)
}

// ClearExceptionIgnore is ClearExceptionSilent without stashing the
// exception for LastClearedException. Used when a fallback path makes the
// failure expected.
func ClearExceptionIgnore(env jni.Env, err error) error {
	return clearException(env, err, false, false)
}

func clearException(env jni.Env, err error, describe, stash bool) error {
	if !errors.Is(err, jni.ErrJavaException) {
		return err
	}
	// Defensive: the error variant does not guarantee an exception is
	// still pending.
	if !env.ExceptionCheck() {
		return err
	}
	ex := env.ExceptionOccurred()
	if describe {
		env.ExceptionDescribe()
	}
	env.ExceptionClear()
	if env.ExceptionCheck() {
		// A poisoned environment crashes on the next JNI call anyway;
		// fail loudly here instead.
		env.FatalError("jnigo: unable to clear a pending Java exception")
	}
	if !ex.IsNull() {
		if stash {
			if g, gerr := env.NewGlobalRef(ex); gerr == nil {
				setLastCleared(env, &GlobalRef{obj: g})
			}
		}
		env.DeleteLocalRef(ex)
	}
	return err
}

// LastClearedException takes away the stashed java.lang.Throwable of the
// last exception cleared on this thread, or nil. The slot is emptied.
func LastClearedException(env jni.Env) *GlobalRef {
	lastClearedMu.Lock()
	defer lastClearedMu.Unlock()
	g := lastCleared[env]
	delete(lastCleared, env)
	return g
}

func setLastCleared(env jni.Env, g *GlobalRef) {
	lastClearedMu.Lock()
	prev := lastCleared[env]
	lastCleared[env] = g
	lastClearedMu.Unlock()
	// The slot is one deep; a displaced throwable would otherwise leak
	// its global reference.
	if prev != nil {
		prev.Delete(env)
	}
}
