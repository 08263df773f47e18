// Package mockenv simulates a JNIEnv function table in process memory so
// the SyscallN-based wrappers can be exercised without a JVM. Callbacks
// built with purego.NewCallback are installed in a real vtable whose layout
// matches the JNI specification, and each trampoline routes to the Env
// instance owning the environment pointer.
//
// The mock implements just enough Java semantics for the packages above
// it: class and method resolution, boxing wrappers, strings, object
// arrays, exceptions and dynamic proxy construction. Behavior can be
// scripted per test through the OnCall hook.
package mockenv

import (
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/obinnaokechukwu/jnigo/jni"
)

// Function-table indices, per the JNI specification.
const (
	slotGetVersion               = 4
	slotDefineClass              = 5
	slotFindClass                = 6
	slotThrow                    = 13
	slotThrowNew                 = 14
	slotExceptionOccurred        = 15
	slotExceptionDescribe        = 16
	slotExceptionClear           = 17
	slotFatalError               = 18
	slotNewGlobalRef             = 21
	slotDeleteGlobalRef          = 22
	slotDeleteLocalRef           = 23
	slotIsSameObject             = 24
	slotNewLocalRef              = 25
	slotEnsureLocalCapacity      = 26
	slotNewObjectA               = 30
	slotGetObjectClass           = 31
	slotIsInstanceOf             = 32
	slotGetMethodID              = 33
	slotCallObjectMethodA        = 36
	slotCallBooleanMethodA       = 39
	slotCallByteMethodA          = 42
	slotCallCharMethodA          = 45
	slotCallShortMethodA         = 48
	slotCallIntMethodA           = 51
	slotCallLongMethodA          = 54
	slotCallVoidMethodA          = 63
	slotGetStaticMethodID        = 113
	slotCallStaticObjectMethodA  = 116
	slotCallStaticBooleanMethodA = 119
	slotCallStaticIntMethodA     = 131
	slotCallStaticLongMethodA    = 134
	slotCallStaticVoidMethodA    = 143
	slotGetStaticFieldID         = 144
	slotGetStaticIntField        = 150
	slotNewStringUTF             = 167
	slotGetStringUTFLength       = 168
	slotGetStringUTFChars        = 169
	slotReleaseStringUTFChars    = 170
	slotGetArrayLength           = 171
	slotNewObjectArray           = 172
	slotGetObjectArrayElement    = 173
	slotSetObjectArrayElement    = 174
	slotNewByteArray             = 176
	slotSetByteArrayRegion       = 208
	slotRegisterNatives          = 215
	slotGetJavaVM                = 219
	slotExceptionCheck           = 228

	vtableLen = 233
)

// Object is a simulated Java object.
type Object struct {
	Class   string // internal-form class name
	Name    string // class denoted (Class objects) or method name (Method objects)
	Str     string // String contents
	Prim    uint64 // boxed primitive bits
	Message string // Throwable message
	Elems   []uintptr
	Bytes   []byte
}

// Call is one recorded method invocation.
type Call struct {
	Obj    uintptr
	Class  string // declaring class of the method
	Method string
	Sig    string
	Static bool
	Args   []uint64
}

// RegisteredNative records one RegisterNatives entry.
type RegisteredNative struct {
	Class string
	Name  string
	Sig   string
	Fn    uintptr
}

type methodInfo struct {
	class  string
	name   string
	sig    string
	static bool
}

// Env is one simulated environment. Safe for use from multiple goroutines,
// though a real JNIEnv would not be.
type Env struct {
	mu      sync.Mutex
	envMem  *[1]uintptr
	handle  uintptr
	nextRef uintptr
	nextID  uintptr

	objects   map[uintptr]*Object
	globals   map[uintptr]bool
	classes   map[string]uintptr
	methods   map[string]uintptr
	byID      map[uintptr]methodInfo
	strBufs   map[uintptr][]byte
	pending   uintptr
	threadObj uintptr
	sysLoader uintptr
	fakeVM    uintptr

	// FindClassFails makes FindClass throw NoClassDefFoundError for the
	// named internal-form classes. LoadClassFails does the same for
	// ClassLoader.loadClass, so the two resolution paths can be scripted
	// independently.
	FindClassFails   map[string]bool
	LoadClassFails   map[string]bool
	DefineClassFails map[string]bool

	// ThreadName is what Thread.currentThread().getName() reports.
	ThreadName string

	// StaticIntFields maps "class.field" to a value.
	StaticIntFields map[string]int32

	// OnCall, when set, is consulted before the built-in method semantics.
	// Returning handled=true short-circuits with result.
	OnCall func(e *Env, c Call) (result uint64, handled bool)

	// Recorded state, inspected by tests.
	Calls      []Call
	Registered []RegisteredNative
	Defined    map[string][]byte
	Described  int
}

var (
	registryMu sync.Mutex
	envs       = map[uintptr]*Env{}

	vtableOnce sync.Once
	vtable     [vtableLen]uintptr
)

// New creates a fresh mock environment.
func New() *Env {
	vtableOnce.Do(buildVtable)
	e := &Env{
		envMem:           new([1]uintptr),
		nextRef:          0x10000,
		nextID:           0x1,
		objects:          map[uintptr]*Object{},
		globals:          map[uintptr]bool{},
		classes:          map[string]uintptr{},
		methods:          map[string]uintptr{},
		byID:             map[uintptr]methodInfo{},
		strBufs:          map[uintptr][]byte{},
		FindClassFails:   map[string]bool{},
		LoadClassFails:   map[string]bool{},
		DefineClassFails: map[string]bool{},
		ThreadName:       "main",
		StaticIntFields:  map[string]int32{},
		Defined:          map[string][]byte{},
		fakeVM:           0xfee1,
	}
	e.envMem[0] = uintptr(unsafe.Pointer(&vtable[0]))
	e.handle = uintptr(unsafe.Pointer(e.envMem))
	registryMu.Lock()
	envs[e.handle] = e
	registryMu.Unlock()
	return e
}

// Handle returns the environment pointer as a jni.Env.
func (e *Env) Handle() jni.Env { return jni.Env(e.handle) }

// Close unregisters the environment.
func (e *Env) Close() {
	registryMu.Lock()
	delete(envs, e.handle)
	registryMu.Unlock()
}

func envOf(h uintptr) *Env {
	registryMu.Lock()
	defer registryMu.Unlock()
	return envs[h]
}

// Object returns the simulated object behind a reference, or nil.
func (e *Env) Object(ref uintptr) *Object {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.objects[ref]
}

// GlobalCount returns the number of live global references.
func (e *Env) GlobalCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.globals)
}

// Pending returns the pending exception reference, or 0.
func (e *Env) Pending() uintptr {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending
}

// PendingClass returns the class of the pending exception, or "".
func (e *Env) PendingClass() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if o := e.objects[e.pending]; o != nil {
		return o.Class
	}
	return ""
}

// PendingMessage returns the message of the pending exception, or "".
func (e *Env) PendingMessage() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if o := e.objects[e.pending]; o != nil {
		return o.Message
	}
	return ""
}

// ClearPending drops the pending exception without going through the
// environment, for test setup.
func (e *Env) ClearPending() {
	e.mu.Lock()
	e.pending = 0
	e.mu.Unlock()
}

func (e *Env) newRefLocked(o *Object) uintptr {
	r := e.nextRef
	e.nextRef += 16
	e.objects[r] = o
	return r
}

// NewObjectOf creates an object of the given internal-form class.
func (e *Env) NewObjectOf(class string) uintptr {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.newRefLocked(&Object{Class: class})
}

// NewString creates a java.lang.String object.
func (e *Env) NewString(s string) uintptr {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.newRefLocked(&Object{Class: "java/lang/String", Str: s})
}

// NewMethod creates a java.lang.reflect.Method object with the given name.
func (e *Env) NewMethod(name string) uintptr {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.newRefLocked(&Object{Class: "java/lang/reflect/Method", Name: name})
}

// NewThrowable creates a throwable of the given class with a message.
func (e *Env) NewThrowable(class, msg string) uintptr {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.newRefLocked(&Object{Class: class, Message: msg})
}

// NewRefArray creates an Object[] holding the given references.
func (e *Env) NewRefArray(elems ...uintptr) uintptr {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := make([]uintptr, len(elems))
	copy(cp, elems)
	return e.newRefLocked(&Object{Class: "[Ljava/lang/Object;", Elems: cp})
}

// SetPending makes the given throwable the pending exception.
func (e *Env) SetPending(ref uintptr) {
	e.mu.Lock()
	e.pending = ref
	e.mu.Unlock()
}

func (e *Env) classLocked(name string) uintptr {
	if r, ok := e.classes[name]; ok {
		return r
	}
	r := e.newRefLocked(&Object{Class: "java/lang/Class", Name: name})
	e.classes[name] = r
	return r
}

func (e *Env) throwLocked(class, msg string) {
	e.pending = e.newRefLocked(&Object{Class: class, Message: msg})
}

// instanceOf approximates the subtype relations the layers above rely on.
func instanceOf(objClass, class string) bool {
	if objClass == class {
		return true
	}
	switch class {
	case "java/lang/Object":
		return true
	case "java/lang/Number":
		switch objClass {
		case "java/lang/Byte", "java/lang/Short", "java/lang/Integer",
			"java/lang/Long", "java/lang/Float", "java/lang/Double":
			return true
		}
	case "java/lang/Throwable":
		return strings.HasSuffix(objClass, "Exception") ||
			strings.HasSuffix(objClass, "Error") ||
			objClass == "java/lang/Throwable"
	case "java/lang/ClassLoader":
		return strings.HasSuffix(objClass, "ClassLoader")
	}
	return false
}

// paramCount counts the parameters of a JNI method signature.
func paramCount(sig string) int {
	n := 0
	i := strings.IndexByte(sig, '(') + 1
	for i < len(sig) && sig[i] != ')' {
		for sig[i] == '[' {
			i++
		}
		if sig[i] == 'L' {
			for sig[i] != ';' {
				i++
			}
		}
		i++
		n++
	}
	return n
}

func readArgs(argsPtr uintptr, n int) []uint64 {
	if argsPtr == 0 || n == 0 {
		return nil
	}
	src := unsafe.Slice((*uint64)(unsafe.Pointer(argsPtr)), n)
	out := make([]uint64, n)
	copy(out, src)
	return out
}

func goStringAt(p uintptr) string {
	if p == 0 {
		return ""
	}
	var b []byte
	for i := 0; ; i++ {
		c := *(*byte)(unsafe.Pointer(p + uintptr(i)))
		if c == 0 {
			break
		}
		b = append(b, c)
	}
	return string(b)
}

// invoke runs the built-in semantics for one method call.
func (e *Env) invoke(obj uintptr, mid uintptr, argsPtr uintptr) uint64 {
	e.mu.Lock()
	mi, ok := e.byID[mid]
	e.mu.Unlock()
	if !ok {
		return 0
	}
	args := readArgs(argsPtr, paramCount(mi.sig))
	call := Call{Obj: obj, Class: mi.class, Method: mi.name, Sig: mi.sig, Static: mi.static, Args: args}

	e.mu.Lock()
	e.Calls = append(e.Calls, call)
	hook := e.OnCall
	e.mu.Unlock()

	if hook != nil {
		if res, handled := hook(e, call); handled {
			return res
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	target := e.objects[obj]
	switch mi.name {
	case "valueOf":
		if mi.class == "java/lang/String" {
			break
		}
		return uint64(e.newRefLocked(&Object{Class: mi.class, Prim: args[0]}))
	case "booleanValue", "charValue", "byteValue", "shortValue",
		"intValue", "longValue", "floatValue", "doubleValue":
		if target != nil {
			return target.Prim
		}
	case "getName":
		if target == nil {
			return 0
		}
		switch target.Class {
		case "java/lang/Class":
			return uint64(e.newRefLocked(&Object{
				Class: "java/lang/String",
				Str:   strings.ReplaceAll(target.Name, "/", "."),
			}))
		case "java/lang/reflect/Method":
			return uint64(e.newRefLocked(&Object{Class: "java/lang/String", Str: target.Name}))
		case "java/lang/Thread":
			return uint64(e.newRefLocked(&Object{Class: "java/lang/String", Str: e.ThreadName}))
		}
	case "getMessage":
		if target == nil || target.Message == "" {
			return 0
		}
		return uint64(e.newRefLocked(&Object{Class: "java/lang/String", Str: target.Message}))
	case "currentThread":
		if e.threadObj == 0 {
			e.threadObj = e.newRefLocked(&Object{Class: "java/lang/Thread"})
		}
		return uint64(e.threadObj)
	case "getSystemClassLoader":
		if e.sysLoader == 0 {
			e.sysLoader = e.newRefLocked(&Object{Class: "jdk/internal/loader/ClassLoaders$AppClassLoader"})
		}
		return uint64(e.sysLoader)
	case "loadClass":
		s := e.objects[uintptr(args[0])]
		if s == nil {
			e.throwLocked("java/lang/NullPointerException", "name")
			return 0
		}
		name := strings.ReplaceAll(s.Str, ".", "/")
		if e.LoadClassFails[name] {
			e.throwLocked("java/lang/ClassNotFoundException", s.Str)
			return 0
		}
		return uint64(e.classLocked(name))
	case "newProxyInstance":
		return uint64(e.newRefLocked(&Object{Class: "com/sun/proxy/$Proxy0"}))
	}
	return 0
}

func buildVtable() {
	set := func(slot int, fn interface{}) {
		vtable[slot] = purego.NewCallback(fn)
	}

	set(slotGetVersion, func(h uintptr) uintptr {
		return uintptr(uint32(0x00010008))
	})
	set(slotFindClass, func(h, name uintptr) uintptr {
		e := envOf(h)
		n := goStringAt(name)
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.FindClassFails[n] {
			e.throwLocked("java/lang/NoClassDefFoundError", n)
			return 0
		}
		return e.classLocked(n)
	})
	set(slotDefineClass, func(h, name, loader, data, size uintptr) uintptr {
		e := envOf(h)
		n := goStringAt(name)
		bytes := make([]byte, size)
		copy(bytes, unsafe.Slice((*byte)(unsafe.Pointer(data)), size))
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.DefineClassFails[n] {
			e.throwLocked("java/lang/ClassFormatError", n)
			return 0
		}
		e.Defined[n] = bytes
		return e.classLocked(n)
	})
	set(slotThrow, func(h, throwable uintptr) uintptr {
		e := envOf(h)
		e.mu.Lock()
		e.pending = throwable
		e.mu.Unlock()
		return 0
	})
	set(slotThrowNew, func(h, class, msg uintptr) uintptr {
		e := envOf(h)
		m := goStringAt(msg)
		e.mu.Lock()
		defer e.mu.Unlock()
		cls := e.objects[class]
		if cls == nil {
			return uintptr(unsignedErr())
		}
		e.throwLocked(cls.Name, m)
		return 0
	})
	set(slotExceptionOccurred, func(h uintptr) uintptr {
		e := envOf(h)
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.pending
	})
	set(slotExceptionDescribe, func(h uintptr) uintptr {
		e := envOf(h)
		e.mu.Lock()
		e.Described++
		e.mu.Unlock()
		return 0
	})
	set(slotExceptionClear, func(h uintptr) uintptr {
		e := envOf(h)
		e.mu.Lock()
		e.pending = 0
		e.mu.Unlock()
		return 0
	})
	set(slotFatalError, func(h, msg uintptr) uintptr {
		panic("mockenv: FatalError: " + goStringAt(msg))
	})
	set(slotNewGlobalRef, func(h, obj uintptr) uintptr {
		e := envOf(h)
		e.mu.Lock()
		defer e.mu.Unlock()
		o := e.objects[obj]
		if o == nil {
			return 0
		}
		g := e.newRefLocked(o)
		e.globals[g] = true
		return g
	})
	set(slotDeleteGlobalRef, func(h, obj uintptr) uintptr {
		// The object mapping stays so state reachable through another
		// reference (a pending exception, say) is still inspectable.
		e := envOf(h)
		e.mu.Lock()
		delete(e.globals, obj)
		e.mu.Unlock()
		return 0
	})
	set(slotDeleteLocalRef, func(h, obj uintptr) uintptr {
		return 0
	})
	set(slotIsSameObject, func(h, a, b uintptr) uintptr {
		e := envOf(h)
		e.mu.Lock()
		defer e.mu.Unlock()
		if a == b || e.objects[a] == e.objects[b] {
			return 1
		}
		return 0
	})
	set(slotNewLocalRef, func(h, obj uintptr) uintptr {
		return obj
	})
	set(slotEnsureLocalCapacity, func(h, capacity uintptr) uintptr {
		return 0
	})
	set(slotNewObjectA, func(h, class, ctor, args uintptr) uintptr {
		e := envOf(h)
		e.mu.Lock()
		cls := e.objects[class]
		mi := e.byID[ctor]
		e.mu.Unlock()
		if cls == nil {
			return 0
		}
		a := readArgs(args, paramCount(mi.sig))
		e.mu.Lock()
		defer e.mu.Unlock()
		e.Calls = append(e.Calls, Call{Class: cls.Name, Method: "<init>", Sig: mi.sig, Args: a})
		o := &Object{Class: cls.Name}
		if len(a) > 0 {
			o.Prim = a[0]
		}
		return e.newRefLocked(o)
	})
	set(slotGetObjectClass, func(h, obj uintptr) uintptr {
		e := envOf(h)
		e.mu.Lock()
		defer e.mu.Unlock()
		o := e.objects[obj]
		if o == nil {
			return 0
		}
		return e.classLocked(o.Class)
	})
	set(slotIsInstanceOf, func(h, obj, class uintptr) uintptr {
		if obj == 0 {
			return 1
		}
		e := envOf(h)
		e.mu.Lock()
		defer e.mu.Unlock()
		o, c := e.objects[obj], e.objects[class]
		if o == nil || c == nil {
			return 0
		}
		if instanceOf(o.Class, c.Name) {
			return 1
		}
		return 0
	})

	methodID := func(h, class, name, sig uintptr, static bool) uintptr {
		e := envOf(h)
		n, s := goStringAt(name), goStringAt(sig)
		e.mu.Lock()
		defer e.mu.Unlock()
		cls := e.objects[class]
		if cls == nil {
			return 0
		}
		key := cls.Name + "." + n + s
		if id, ok := e.methods[key]; ok {
			return id
		}
		id := e.nextID
		e.nextID++
		e.methods[key] = id
		e.byID[id] = methodInfo{class: cls.Name, name: n, sig: s, static: static}
		return id
	}
	set(slotGetMethodID, func(h, class, name, sig uintptr) uintptr {
		return methodID(h, class, name, sig, false)
	})
	set(slotGetStaticMethodID, func(h, class, name, sig uintptr) uintptr {
		return methodID(h, class, name, sig, true)
	})
	set(slotGetStaticFieldID, func(h, class, name, sig uintptr) uintptr {
		e := envOf(h)
		n := goStringAt(name)
		e.mu.Lock()
		defer e.mu.Unlock()
		cls := e.objects[class]
		if cls == nil {
			return 0
		}
		key := cls.Name + "." + n
		id := e.nextID
		e.nextID++
		e.byID[id] = methodInfo{class: cls.Name, name: key}
		return id
	})
	set(slotGetStaticIntField, func(h, class, field uintptr) uintptr {
		e := envOf(h)
		e.mu.Lock()
		defer e.mu.Unlock()
		if mi, ok := e.byID[field]; ok {
			return uintptr(uint32(e.StaticIntFields[mi.name]))
		}
		return 0
	})

	call := func(h, obj, mid, args uintptr) uintptr {
		return uintptr(envOf(h).invoke(obj, mid, args))
	}
	set(slotCallObjectMethodA, call)
	set(slotCallBooleanMethodA, call)
	set(slotCallByteMethodA, call)
	set(slotCallCharMethodA, call)
	set(slotCallShortMethodA, call)
	set(slotCallIntMethodA, call)
	set(slotCallLongMethodA, call)
	set(slotCallVoidMethodA, call)
	set(slotCallStaticObjectMethodA, call)
	set(slotCallStaticBooleanMethodA, call)
	set(slotCallStaticIntMethodA, call)
	set(slotCallStaticLongMethodA, call)
	set(slotCallStaticVoidMethodA, call)

	set(slotNewStringUTF, func(h, chars uintptr) uintptr {
		e := envOf(h)
		s := goStringAt(chars)
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.newRefLocked(&Object{Class: "java/lang/String", Str: s})
	})
	set(slotGetStringUTFLength, func(h, str uintptr) uintptr {
		e := envOf(h)
		e.mu.Lock()
		defer e.mu.Unlock()
		if o := e.objects[str]; o != nil {
			return uintptr(uint32(len(o.Str)))
		}
		return 0
	})
	set(slotGetStringUTFChars, func(h, str, isCopy uintptr) uintptr {
		e := envOf(h)
		e.mu.Lock()
		defer e.mu.Unlock()
		o := e.objects[str]
		if o == nil {
			return 0
		}
		buf := append([]byte(o.Str), 0)
		p := uintptr(unsafe.Pointer(&buf[0]))
		e.strBufs[p] = buf
		return p
	})
	set(slotReleaseStringUTFChars, func(h, str, chars uintptr) uintptr {
		e := envOf(h)
		e.mu.Lock()
		delete(e.strBufs, chars)
		e.mu.Unlock()
		return 0
	})
	set(slotGetArrayLength, func(h, arr uintptr) uintptr {
		e := envOf(h)
		e.mu.Lock()
		defer e.mu.Unlock()
		if o := e.objects[arr]; o != nil {
			if o.Bytes != nil {
				return uintptr(uint32(len(o.Bytes)))
			}
			return uintptr(uint32(len(o.Elems)))
		}
		return 0
	})
	set(slotNewObjectArray, func(h, length, elemClass, init uintptr) uintptr {
		e := envOf(h)
		e.mu.Lock()
		defer e.mu.Unlock()
		elems := make([]uintptr, int(int32(length)))
		for i := range elems {
			elems[i] = init
		}
		return e.newRefLocked(&Object{Class: "[Ljava/lang/Object;", Elems: elems})
	})
	set(slotGetObjectArrayElement, func(h, arr, index uintptr) uintptr {
		e := envOf(h)
		e.mu.Lock()
		defer e.mu.Unlock()
		o := e.objects[arr]
		i := int(int32(index))
		if o == nil || i < 0 || i >= len(o.Elems) {
			e.throwLocked("java/lang/ArrayIndexOutOfBoundsException", fmt.Sprintf("index %d", i))
			return 0
		}
		return o.Elems[i]
	})
	set(slotSetObjectArrayElement, func(h, arr, index, val uintptr) uintptr {
		e := envOf(h)
		e.mu.Lock()
		defer e.mu.Unlock()
		o := e.objects[arr]
		i := int(int32(index))
		if o == nil || i < 0 || i >= len(o.Elems) {
			e.throwLocked("java/lang/ArrayIndexOutOfBoundsException", fmt.Sprintf("index %d", i))
			return 0
		}
		o.Elems[i] = val
		return 0
	})
	set(slotNewByteArray, func(h, length uintptr) uintptr {
		e := envOf(h)
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.newRefLocked(&Object{Class: "[B", Bytes: make([]byte, int(int32(length)))})
	})
	set(slotSetByteArrayRegion, func(h, arr, start, length, buf uintptr) uintptr {
		e := envOf(h)
		e.mu.Lock()
		defer e.mu.Unlock()
		o := e.objects[arr]
		n := int(int32(length))
		s := int(int32(start))
		if o == nil || s < 0 || s+n > len(o.Bytes) {
			e.throwLocked("java/lang/ArrayIndexOutOfBoundsException", "region")
			return 0
		}
		copy(o.Bytes[s:s+n], unsafe.Slice((*byte)(unsafe.Pointer(buf)), n))
		return 0
	})
	set(slotRegisterNatives, func(h, class, methods, n uintptr) uintptr {
		e := envOf(h)
		e.mu.Lock()
		defer e.mu.Unlock()
		cls := e.objects[class]
		if cls == nil {
			return uintptr(unsignedErr())
		}
		type nm struct{ name, sig, fn uintptr }
		entries := unsafe.Slice((*nm)(unsafe.Pointer(methods)), int(int32(n)))
		for _, m := range entries {
			e.Registered = append(e.Registered, RegisteredNative{
				Class: cls.Name,
				Name:  goStringAt(m.name),
				Sig:   goStringAt(m.sig),
				Fn:    m.fn,
			})
		}
		return 0
	})
	set(slotGetJavaVM, func(h, out uintptr) uintptr {
		e := envOf(h)
		*(*uintptr)(unsafe.Pointer(out)) = e.fakeVM
		return 0
	})
	set(slotExceptionCheck, func(h uintptr) uintptr {
		e := envOf(h)
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.pending != 0 {
			return 1
		}
		return 0
	})
}

// unsignedErr is JNI_ERR (-1) widened the way a jint return travels back
// through a uintptr.
func unsignedErr() uint32 { return uint32(0xffffffff) }
