package jnigo

import (
	"errors"
	"testing"

	"github.com/obinnaokechukwu/jnigo/jni"
)

func TestClearExceptionPassesThroughForeignErrors(t *testing.T) {
	m, env := newMock(t)

	sentinel := errors.New("disk on fire")
	if err := ClearException(env, sentinel); err != sentinel {
		t.Fatalf("ClearException rewrote a foreign error: %v", err)
	}
	if m.Described != 0 {
		t.Fatal("ExceptionDescribe called for a foreign error")
	}
	if got := LastClearedException(env); got != nil {
		t.Fatal("foreign error produced a stashed throwable")
	}
}

func TestClearExceptionNothingPending(t *testing.T) {
	_, env := newMock(t)

	if err := ClearException(env, ErrJavaException); !errors.Is(err, ErrJavaException) {
		t.Fatalf("ClearException = %v, want ErrJavaException back", err)
	}
	if got := LastClearedException(env); got != nil {
		t.Fatal("stash populated although nothing was pending")
	}
}

func TestClearExceptionClearsDescribesAndStashes(t *testing.T) {
	m, env := newMock(t)
	m.SetPending(m.NewThrowable("java/lang/IllegalStateException", "boom"))

	if err := ClearException(env, ErrJavaException); !errors.Is(err, ErrJavaException) {
		t.Fatalf("ClearException = %v", err)
	}
	if m.Pending() != 0 {
		t.Fatal("exception still pending after ClearException")
	}
	if m.Described != 1 {
		t.Fatalf("ExceptionDescribe called %d times, want 1", m.Described)
	}

	stashed := LastClearedException(env)
	if stashed == nil {
		t.Fatal("no stashed throwable")
	}
	defer stashed.Delete(env)
	if cls := m.Object(uintptr(stashed.Object())).Class; cls != "java/lang/IllegalStateException" {
		t.Fatalf("stashed class = %s", cls)
	}
	if LastClearedException(env) != nil {
		t.Fatal("stash read was not destructive")
	}
}

func TestClearExceptionSilentSkipsDescribe(t *testing.T) {
	m, env := newMock(t)
	m.SetPending(m.NewThrowable("java/lang/RuntimeException", "quiet"))

	ClearExceptionSilent(env, ErrJavaException)
	if m.Described != 0 {
		t.Fatal("silent variant described the exception")
	}
	stashed := LastClearedException(env)
	if stashed == nil {
		t.Fatal("silent variant did not stash")
	}
	stashed.Delete(env)
}

func TestClearExceptionIgnoreSkipsStash(t *testing.T) {
	m, env := newMock(t)
	m.SetPending(m.NewThrowable("java/lang/ClassNotFoundException", "expected"))

	ClearExceptionIgnore(env, ErrJavaException)
	if m.Pending() != 0 {
		t.Fatal("ignore variant left the exception pending")
	}
	if m.Described != 0 {
		t.Fatal("ignore variant described the exception")
	}
	if LastClearedException(env) != nil {
		t.Fatal("ignore variant stashed the exception")
	}
}

func TestStashIsOneDeep(t *testing.T) {
	m, env := newMock(t)

	m.SetPending(m.NewThrowable("java/lang/RuntimeException", "first"))
	ClearExceptionSilent(env, ErrJavaException)
	m.SetPending(m.NewThrowable("java/lang/RuntimeException", "second"))
	ClearExceptionSilent(env, ErrJavaException)

	// The displaced throwable's global reference must be released.
	if n := m.GlobalCount(); n != 1 {
		t.Fatalf("%d live global refs, want 1", n)
	}
	stashed := LastClearedException(env)
	if stashed == nil {
		t.Fatal("no stashed throwable")
	}
	defer stashed.Delete(env)
	if msg := m.Object(uintptr(stashed.Object())).Message; msg != "second" {
		t.Fatalf("stashed message = %q, want the most recent exception", msg)
	}
}

func TestStashIsPerEnvironment(t *testing.T) {
	m1, env1 := newMock(t)

	m1.SetPending(m1.NewThrowable("java/lang/RuntimeException", "thread one"))
	ClearExceptionSilent(env1, ErrJavaException)

	other := jni.Env(0xdead)
	if LastClearedException(other) != nil {
		t.Fatal("stash leaked across environments")
	}
	if got := LastClearedException(env1); got == nil {
		t.Fatal("own stash missing")
	} else {
		got.Delete(env1)
	}
}
