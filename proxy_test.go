package jnigo

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ebitengine/purego"

	"github.com/obinnaokechukwu/jnigo/internal/registry"
	"github.com/obinnaokechukwu/jnigo/internal/shimclass"
	"github.com/obinnaokechukwu/jnigo/jni"
)

func mustBuildProxy(t *testing.T, env jni.Env, handler ProxyHandler) *Proxy {
	t.Helper()
	p, err := BuildProxy(env, nil, []string{"java.lang.Runnable"}, handler)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { p.Close(env) })
	return p
}

func callDispatch(env jni.Env, id int64, method, args jni.Ref) uintptr {
	return dispatch(purego.CDecl{}, env, 0, id, method, args)
}

func TestBuildProxyValidation(t *testing.T) {
	_, env := newMock(t)

	if _, err := BuildProxy(env, nil, nil, func(jni.Env, jni.Ref, []jni.Ref) (jni.Ref, error) {
		return 0, nil
	}); !errors.Is(err, ErrNoInterfaces) {
		t.Fatalf("empty interface list: %v", err)
	}
	if _, err := BuildProxy(env, nil, []string{"java.lang.Runnable"}, nil); err == nil {
		t.Fatal("nil handler accepted")
	}
}

func TestBuildProxy(t *testing.T) {
	m, env := newMock(t)

	p := mustBuildProxy(t, env, func(jni.Env, jni.Ref, []jni.Ref) (jni.Ref, error) {
		return Void, nil
	})

	if p.Object().IsNull() {
		t.Fatal("proxy object is null")
	}
	if _, ok := registry.Lookup(p.ID()); !ok {
		t.Fatal("handler not registered")
	}

	var bound bool
	for _, n := range m.Registered {
		if n.Class == shimclass.BinaryName && n.Name == shimclass.NativeMethodName &&
			n.Sig == shimclass.NativeMethodSig && n.Fn != 0 {
			bound = true
		}
	}
	if !bound {
		t.Fatal("native dispatch method was not bound on the shim class")
	}

	var proxied bool
	for _, c := range m.Calls {
		if c.Method == "newProxyInstance" {
			proxied = true
		}
	}
	if !proxied {
		t.Fatal("Proxy.newProxyInstance was never called")
	}
}

func TestBuildProxyUnknownInterface(t *testing.T) {
	m, env := newMock(t)
	m.FindClassFails["no/such/Iface"] = true
	m.LoadClassFails["no/such/Iface"] = true

	before := registry.Count()
	_, err := BuildProxy(env, nil, []string{"no.such.Iface"}, func(jni.Env, jni.Ref, []jni.Ref) (jni.Ref, error) {
		return Void, nil
	})
	if err == nil {
		t.Fatal("BuildProxy resolved a missing interface")
	}
	if registry.Count() != before {
		t.Fatal("failed build leaked a registry entry")
	}
}

func TestDispatchInvokesHandler(t *testing.T) {
	m, env := newMock(t)

	var gotMethod string
	var gotArgs int
	result := m.NewString("done")
	p := mustBuildProxy(t, env, func(env jni.Env, method jni.Ref, args []jni.Ref) (jni.Ref, error) {
		gotMethod, _ = MethodName(env, method)
		gotArgs = len(args)
		if id, ok := CurrentProxyID(env); !ok || id == 0 {
			t.Errorf("CurrentProxyID = %d, %v inside handler", id, ok)
		}
		return jni.Ref(result), nil
	})

	method := jni.Ref(m.NewMethod("run"))
	args := jni.Ref(m.NewRefArray(m.NewString("a"), m.NewString("b")))
	got := callDispatch(env, p.ID(), method, args)

	if got != result {
		t.Fatalf("dispatch returned %#x, want handler result %#x", got, result)
	}
	if gotMethod != "run" {
		t.Fatalf("handler saw method %q", gotMethod)
	}
	if gotArgs != 2 {
		t.Fatalf("handler saw %d args, want 2", gotArgs)
	}
	if id, ok := CurrentProxyID(env); ok {
		t.Fatalf("CurrentProxyID = %d after dispatch returned", id)
	}
}

func TestDispatchValueRoundTrip(t *testing.T) {
	m, env := newMock(t)

	p := mustBuildProxy(t, env, func(env jni.Env, method jni.Ref, args []jni.Ref) (jni.Ref, error) {
		if len(args) != 1 {
			t.Fatalf("handler got %d args", len(args))
		}
		v, err := UnboxInt(env, args[0])
		if err != nil {
			return 0, err
		}
		return NewJString(env, fmt.Sprintf("ok-%d", v))
	})

	boxed, err := BoxInt(env, 42)
	if err != nil {
		t.Fatal(err)
	}
	got := callDispatch(env, p.ID(), jni.Ref(m.NewMethod("echo")), jni.Ref(m.NewRefArray(uintptr(boxed))))
	if got == 0 {
		t.Fatal("dispatch returned null")
	}
	if s := m.Object(got).Str; s != "ok-42" {
		t.Fatalf("result = %q, want ok-42", s)
	}
}

func TestDispatchNullArgumentArray(t *testing.T) {
	m, env := newMock(t)

	var gotArgs []jni.Ref
	p := mustBuildProxy(t, env, func(env jni.Env, method jni.Ref, args []jni.Ref) (jni.Ref, error) {
		gotArgs = args
		return Void, nil
	})

	callDispatch(env, p.ID(), jni.Ref(m.NewMethod("run")), 0)
	if len(gotArgs) != 0 {
		t.Fatalf("no-argument call produced %d args", len(gotArgs))
	}
}

func TestDispatchAfterClose(t *testing.T) {
	m, env := newMock(t)

	p := mustBuildProxy(t, env, func(jni.Env, jni.Ref, []jni.Ref) (jni.Ref, error) {
		t.Error("handler invoked after Close")
		return Void, nil
	})
	id := p.ID()
	p.Close(env)

	got := callDispatch(env, id, jni.Ref(m.NewMethod("run")), 0)
	if got != 0 {
		t.Fatalf("stale dispatch returned %#x, want null", got)
	}
	if m.Pending() != 0 {
		t.Fatal("stale dispatch raised an exception")
	}
}

func TestDispatchRethrowsClearedException(t *testing.T) {
	m, env := newMock(t)

	p := mustBuildProxy(t, env, func(env jni.Env, method jni.Ref, args []jni.Ref) (jni.Ref, error) {
		// Simulate a JNI call that failed with a Java exception which the
		// handler cleared on its way out.
		m.SetPending(m.NewThrowable("java/io/IOException", "pipe closed"))
		return 0, ClearExceptionSilent(env, ErrJavaException)
	})

	got := callDispatch(env, p.ID(), jni.Ref(m.NewMethod("call")), 0)
	if got != 0 {
		t.Fatalf("failed dispatch returned %#x", got)
	}
	if cls := m.PendingClass(); cls != "java/io/IOException" {
		t.Fatalf("re-thrown class = %s, want the original exception", cls)
	}
	if msg := m.PendingMessage(); msg != "pipe closed" {
		t.Fatalf("re-thrown message = %q", msg)
	}
	if LastClearedException(env) != nil {
		t.Fatal("stash not consumed by the re-throw")
	}
}

func TestDispatchWrapsGoErrors(t *testing.T) {
	m, env := newMock(t)
	m.ThreadName = "pool-1-thread-7"

	p := mustBuildProxy(t, env, func(jni.Env, jni.Ref, []jni.Ref) (jni.Ref, error) {
		return 0, errors.New("kaput")
	})

	callDispatch(env, p.ID(), jni.Ref(m.NewMethod("apply")), 0)
	if cls := m.PendingClass(); cls != "java/lang/RuntimeException" {
		t.Fatalf("pending class = %s", cls)
	}
	msg := m.PendingMessage()
	for _, want := range []string{"kaput", "apply", "pool-1-thread-7"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("exception message %q missing %q", msg, want)
		}
	}
}

func TestDispatchKeepsHandlerThrownException(t *testing.T) {
	m, env := newMock(t)

	p := mustBuildProxy(t, env, func(env jni.Env, method jni.Ref, args []jni.Ref) (jni.Ref, error) {
		// Handler raises its own exception and leaves it pending.
		m.SetPending(m.NewThrowable("com/app/DomainException", "custom"))
		return 0, errors.New("already thrown")
	})

	callDispatch(env, p.ID(), jni.Ref(m.NewMethod("work")), 0)
	if cls := m.PendingClass(); cls != "com/app/DomainException" {
		t.Fatalf("pending class = %s, handler's own exception was replaced", cls)
	}
}

func TestDispatchNested(t *testing.T) {
	m, env := newMock(t)

	var innerSeen, outerBefore, outerAfter int64

	inner := mustBuildProxy(t, env, func(env jni.Env, method jni.Ref, args []jni.Ref) (jni.Ref, error) {
		innerSeen, _ = CurrentProxyID(env)
		return Void, nil
	})
	outer := mustBuildProxy(t, env, func(env jni.Env, method jni.Ref, args []jni.Ref) (jni.Ref, error) {
		outerBefore, _ = CurrentProxyID(env)
		callDispatch(env, inner.ID(), jni.Ref(m.NewMethod("innerRun")), 0)
		outerAfter, _ = CurrentProxyID(env)
		return Void, nil
	})

	callDispatch(env, outer.ID(), jni.Ref(m.NewMethod("outerRun")), 0)

	if outerBefore != outer.ID() {
		t.Fatalf("outer handler saw ID %d, want %d", outerBefore, outer.ID())
	}
	if innerSeen != inner.ID() {
		t.Fatalf("inner handler saw ID %d, want %d", innerSeen, inner.ID())
	}
	if outerAfter != outer.ID() {
		t.Fatalf("context not restored after nested dispatch: %d", outerAfter)
	}
	if _, ok := CurrentProxyID(env); ok {
		t.Fatal("context stack not empty after outermost dispatch")
	}
}

func TestForgetLeaksOnPurpose(t *testing.T) {
	_, env := newMock(t)

	p := mustBuildProxy(t, env, func(jni.Env, jni.Ref, []jni.Ref) (jni.Ref, error) {
		return Void, nil
	})
	id := p.ID()
	p.Forget()
	p.Close(env) // must be a no-op now

	if _, ok := registry.Lookup(id); !ok {
		t.Fatal("Forget did not keep the handler registered")
	}
	if p.Object().IsNull() {
		t.Fatal("Forget released the proxy object")
	}
	registry.Remove(id) // test hygiene
}

func TestCloseIsIdempotent(t *testing.T) {
	_, env := newMock(t)

	p := mustBuildProxy(t, env, func(jni.Env, jni.Ref, []jni.Ref) (jni.Ref, error) {
		return Void, nil
	})
	id := p.ID()
	p.Close(env)
	p.Close(env)

	if _, ok := registry.Lookup(id); ok {
		t.Fatal("handler still registered after Close")
	}
	if !p.Object().IsNull() {
		t.Fatal("proxy object still referenced after Close")
	}
}

func TestShimDefinedWhenNotOnClasspath(t *testing.T) {
	m, env := newMock(t)
	m.FindClassFails[shimclass.BinaryName] = true

	fake := []byte{0xCA, 0xFE, 0xBA, 0xBE, 0, 0, 0, 52, 1}
	shimclass.SetClassData(fake)
	defer shimclass.SetClassData(nil)

	mustBuildProxy(t, env, func(jni.Env, jni.Ref, []jni.Ref) (jni.Ref, error) {
		return Void, nil
	})

	got, ok := m.Defined[shimclass.BinaryName]
	if !ok {
		t.Fatal("shim class was not defined from the injected bytes")
	}
	if len(got) != len(fake) {
		t.Fatalf("defined %d bytes, want %d", len(got), len(fake))
	}
}

func TestShimMissingEverywhere(t *testing.T) {
	m, env := newMock(t)
	m.FindClassFails[shimclass.BinaryName] = true
	t.Setenv("JNIGO_SHIM_PATH", "/nonexistent/InvocHdl.class")

	_, err := BuildProxy(env, nil, []string{"java.lang.Runnable"}, func(jni.Env, jni.Ref, []jni.Ref) (jni.Ref, error) {
		return Void, nil
	})
	if !errors.Is(err, ErrShimNotFound) {
		t.Fatalf("err = %v, want ErrShimNotFound", err)
	}
}
