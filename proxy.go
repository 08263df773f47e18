package jnigo

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ebitengine/purego"
	"go.uber.org/zap"

	"github.com/obinnaokechukwu/jnigo/internal/registry"
	"github.com/obinnaokechukwu/jnigo/internal/shimclass"
	"github.com/obinnaokechukwu/jnigo/jni"
)

// ProxyHandler receives every method call made on a dynamic proxy. It runs
// on the JVM thread that made the call, with that thread's environment.
// method is the invoked java.lang.reflect.Method and args holds the boxed
// argument references (empty for a no-argument call). The returned
// reference is the method result; return Void for void methods.
//
// A handler that performs JNI calls must route their errors through one of
// the ClearException variants and may return ErrJavaException to have the
// original Java exception re-thrown to the caller. Any other error is
// surfaced to Java as a RuntimeException.
type ProxyHandler = registry.Handler

// Proxy is a Java dynamic proxy whose method calls are dispatched to a Go
// handler. It holds a global reference to the proxy object and an entry in
// the handler registry until Close or Forget.
type Proxy struct {
	mu        sync.Mutex
	id        int64
	obj       *GlobalRef
	forgotten bool
	closed    bool
}

// The shim class is resolved once per process: either found on the
// classpath or defined from discovered class bytes, then its native
// dispatch method is bound. The constructor takes the handler ID.
var (
	shimMu   sync.Mutex
	shimCls  *GlobalRef
	shimCtor jni.MethodID
)

// dispatchEntry is the single native entry point shared by every proxy.
// Registered lazily so that programs that never build a proxy do not pin a
// callback slot.
var dispatchEntry = sync.OnceValue(func() uintptr {
	return purego.NewCallback(dispatch)
})

// BuildProxy creates a Java dynamic proxy implementing the named interfaces
// (internal or binary form) with every call routed to handler. A nil loader
// resolves interfaces through FindClass and the system class loader.
func BuildProxy(env jni.Env, loader *ClassLoader, interfaces []string, handler ProxyHandler) (*Proxy, error) {
	if len(interfaces) == 0 {
		return nil, ErrNoInterfaces
	}
	classes := make([]jni.Ref, 0, len(interfaces))
	var globals []*GlobalRef
	defer func() {
		for _, g := range globals {
			g.Delete(env)
		}
	}()
	for _, name := range interfaces {
		g, err := loader.LoadClass(env, name)
		if err != nil {
			return nil, fmt.Errorf("jnigo: interface %s: %w", name, err)
		}
		globals = append(globals, g)
		classes = append(classes, g.Object())
	}
	return BuildProxyClasses(env, loader, classes, handler)
}

// BuildProxyClasses is BuildProxy for already-resolved interface class
// references.
func BuildProxyClasses(env jni.Env, loader *ClassLoader, classes []jni.Ref, handler ProxyHandler) (*Proxy, error) {
	if len(classes) == 0 {
		return nil, ErrNoInterfaces
	}
	if handler == nil {
		return nil, errors.New("jnigo: nil proxy handler")
	}
	c, err := getCache(env)
	if err != nil {
		return nil, err
	}
	if err := ensureShim(env, loader); err != nil {
		return nil, err
	}

	loaderRef := loader.Object()
	var sys *ClassLoader
	if loaderRef.IsNull() {
		// Proxy.newProxyInstance with a null loader uses the boot loader,
		// which cannot see application interfaces.
		if sys, err = SystemClassLoader(env); err != nil {
			return nil, err
		}
		defer sys.Delete(env)
		loaderRef = sys.Object()
	}

	// The handler is registered before the Java object exists and rolled
	// back if construction fails, so a live registry entry always has a
	// proxy behind it.
	id := registry.Register(handler)
	p, err := newProxyObject(env, c, loaderRef, classes, id)
	if err != nil {
		registry.Remove(id)
		return nil, err
	}
	return &Proxy{id: id, obj: p}, nil
}

func newProxyObject(env jni.Env, c *javaCache, loaderRef jni.Ref, classes []jni.Ref, id int64) (*GlobalRef, error) {
	invoc, err := env.NewObject(shimCls.Object(), shimCtor, jni.FromLong(id))
	if err != nil {
		return nil, ClearException(env, err)
	}
	defer env.DeleteLocalRef(invoc)

	arr, err := env.NewObjectArray(len(classes), c.classClass, 0)
	if err != nil {
		return nil, ClearException(env, err)
	}
	defer env.DeleteLocalRef(arr)
	for i, cls := range classes {
		if err := env.SetObjectArrayElement(arr, i, cls); err != nil {
			return nil, ClearException(env, err)
		}
	}

	obj, err := env.CallStaticObjectMethod(c.classProxy, c.newProxyInstance,
		jni.FromRef(loaderRef), jni.FromRef(arr), jni.FromRef(invoc))
	if err != nil {
		return nil, ClearException(env, err)
	}
	if obj.IsNull() {
		return nil, ErrNullRef
	}
	return globalize(env, obj)
}

// ensureShim resolves the invocation-handler shim class, binds its native
// dispatch method and caches its constructor. Idempotent.
func ensureShim(env jni.Env, loader *ClassLoader) error {
	shimMu.Lock()
	defer shimMu.Unlock()
	if shimCls != nil {
		return nil
	}

	var cls *GlobalRef
	local, err := env.FindClass(shimclass.BinaryName)
	if err == nil {
		cls, err = globalize(env, local)
		if err != nil {
			return err
		}
	} else {
		// Not on the classpath; define it from discovered bytes.
		ClearExceptionIgnore(env, err)
		data, derr := shimclass.ClassData()
		if derr != nil {
			return derr
		}
		cls, err = loader.DefineClass(env, shimclass.BinaryName, data)
		if err != nil {
			return err
		}
	}

	err = env.RegisterNatives(cls.Object(), []jni.NativeMethod{{
		Name:      shimclass.NativeMethodName,
		Signature: shimclass.NativeMethodSig,
		Fn:        dispatchEntry(),
	}})
	if err != nil {
		err = ClearException(env, err)
		cls.Delete(env)
		return err
	}

	ctor, err := env.GetMethodID(cls.Object(), "<init>", "(J)V")
	if err != nil {
		err = ClearException(env, err)
		cls.Delete(env)
		return err
	}

	shimCls = cls
	shimCtor = ctor
	return nil
}

// dispatch is the native body of the shim's dispatch method. It runs on a
// JVM thread with a valid environment, looks up the handler and forwards
// the call, translating the handler's result or error back to Java.
func dispatch(_ purego.CDecl, env jni.Env, _ jni.Ref, id int64, method jni.Ref, argArr jni.Ref) uintptr {
	h, ok := registry.Lookup(id)
	if !ok {
		// The proxy outlived its handler (Close raced a late Java call, or
		// the object escaped after Close). Null is the least harmful
		// answer.
		logger().Warn("proxy call after handler removal",
			zap.Int64("handler_id", id),
			zap.String("thread", javaThreadName(env)))
		return 0
	}

	args := readObjectArray(env, argArr)

	pushProxyID(env, id)
	defer popProxyID(env)

	res, err := h(env, method, args)
	if err == nil {
		return uintptr(res)
	}

	if env.ExceptionCheck() {
		// The handler left an exception pending itself; propagate as-is.
		return 0
	}
	if errors.Is(err, jni.ErrJavaException) {
		if stashed := LastClearedException(env); stashed != nil {
			terr := env.Throw(stashed.Object())
			stashed.Delete(env)
			if terr == nil {
				return 0
			}
			logger().Error("re-throw of cleared exception failed", zap.Error(terr))
		}
	}
	name, _ := MethodName(env, method)
	throwRuntime(env, fmt.Sprintf(
		"jnigo proxy handler %d failed in %s on thread %q: %v",
		id, name, javaThreadName(env), err))
	return 0
}

// readObjectArray copies an Object[] into a slice of local references. A
// null array (a no-argument call) yields an empty slice.
func readObjectArray(env jni.Env, arr jni.Ref) []jni.Ref {
	if arr.IsNull() {
		return nil
	}
	n := env.GetArrayLength(arr)
	out := make([]jni.Ref, 0, n)
	for i := 0; i < n; i++ {
		el, err := env.GetObjectArrayElement(arr, i)
		if err != nil {
			ClearExceptionSilent(env, err)
			el = 0
		}
		out = append(out, el)
	}
	return out
}

// ID returns the proxy's handler ID. Zero after Close.
func (p *Proxy) ID() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.id
}

// Object returns the proxy object reference, suitable for passing to Java
// wherever one of the proxied interfaces is expected. Null after Close.
func (p *Proxy) Object() jni.Ref {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.obj.Object()
}

// Forget intentionally leaks the proxy: the handler stays registered and
// the global reference is never released, so the Java object remains
// functional for the life of the process. Use for proxies handed to
// listeners that the host never unregisters. After Forget, Close is a
// no-op.
func (p *Proxy) Forget() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.forgotten = true
}

// Close removes the handler from the registry and releases the proxy's
// global reference. Java code that still holds the proxy object and calls
// it afterwards gets a null result and a logged warning. Safe to call more
// than once; a no-op after Forget.
func (p *Proxy) Close(env jni.Env) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.forgotten || p.closed {
		return
	}
	p.closed = true
	registry.Remove(p.id)
	p.id = 0
	p.obj.Delete(env)
}

// Per-thread stack of handler IDs for calls currently being dispatched,
// keyed by Env. Reentrant dispatch (a handler calling Java code that calls
// back into another proxy on the same thread) pushes and pops strictly, so
// CurrentProxyID always reports the innermost active handler.
var (
	ctxMu     sync.Mutex
	ctxStacks = make(map[jni.Env][]int64)
)

func pushProxyID(env jni.Env, id int64) {
	ctxMu.Lock()
	ctxStacks[env] = append(ctxStacks[env], id)
	ctxMu.Unlock()
}

func popProxyID(env jni.Env) {
	ctxMu.Lock()
	s := ctxStacks[env]
	if n := len(s); n > 0 {
		s = s[:n-1]
	}
	if len(s) == 0 {
		delete(ctxStacks, env)
	} else {
		ctxStacks[env] = s
	}
	ctxMu.Unlock()
}

// CurrentProxyID returns the handler ID of the proxy call currently being
// dispatched on the calling thread, if any. Inside a handler it identifies
// the proxy being invoked, which lets one handler serve several proxies.
func CurrentProxyID(env jni.Env) (int64, bool) {
	ctxMu.Lock()
	defer ctxMu.Unlock()
	s := ctxStacks[env]
	if len(s) == 0 {
		return 0, false
	}
	return s[len(s)-1], true
}
