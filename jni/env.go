package jni

import (
	"math"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

func floatBits(v float32) uint32  { return math.Float32bits(v) }
func doubleBits(v float64) uint64 { return math.Float64bits(v) }

// GetVersion returns the JNI interface version of the environment.
func (e Env) GetVersion() int32 {
	return int32(e.call(envGetVersion))
}

// pendingCheck converts the result of a call that may have raised a Java
// exception. It never clears the exception.
func (e Env) pendingCheck() error {
	if e.ExceptionCheck() {
		return ErrJavaException
	}
	return nil
}

// FindClass resolves a class from its internal (slash-separated) name using
// the thread's context class loader chain.
func (e Env) FindClass(name string) (Ref, error) {
	n := cstr(name)
	r := Ref(e.call(envFindClass, cptr(n)))
	runtime.KeepAlive(n)
	if r.IsNull() {
		if err := e.pendingCheck(); err != nil {
			return 0, err
		}
		return 0, ErrNullRef
	}
	return r, nil
}

// DefineClass loads a class from raw class-file bytes into the given loader.
func (e Env) DefineClass(name string, loader Ref, data []byte) (Ref, error) {
	if len(data) == 0 {
		return 0, ErrNullRef
	}
	n := cstr(name)
	r := Ref(e.call(envDefineClass, cptr(n), uintptr(loader),
		uintptr(unsafe.Pointer(&data[0])), uintptr(len(data))))
	runtime.KeepAlive(n)
	runtime.KeepAlive(data)
	if r.IsNull() {
		if err := e.pendingCheck(); err != nil {
			return 0, err
		}
		return 0, ErrNullRef
	}
	return r, nil
}

// GetObjectClass returns the class of an object reference.
func (e Env) GetObjectClass(obj Ref) Ref {
	return Ref(e.call(envGetObjectClass, uintptr(obj)))
}

// IsInstanceOf reports whether obj can be cast to class. A null obj is an
// instance of every class, per the JNI specification.
func (e Env) IsInstanceOf(obj, class Ref) bool {
	return byte(e.call(envIsInstanceOf, uintptr(obj), uintptr(class))) != 0
}

// IsSameObject reports whether two references refer to the same object.
func (e Env) IsSameObject(a, b Ref) bool {
	return byte(e.call(envIsSameObject, uintptr(a), uintptr(b))) != 0
}

// NewGlobalRef promotes a reference so it survives beyond the current call
// scope. Returns ErrNullRef if the VM is out of memory or obj is null.
func (e Env) NewGlobalRef(obj Ref) (Ref, error) {
	r := Ref(e.call(envNewGlobalRef, uintptr(obj)))
	if r.IsNull() {
		if err := e.pendingCheck(); err != nil {
			return 0, err
		}
		return 0, ErrNullRef
	}
	return r, nil
}

// DeleteGlobalRef releases a global reference.
func (e Env) DeleteGlobalRef(obj Ref) {
	e.call(envDeleteGlobalRef, uintptr(obj))
}

// NewLocalRef creates a local reference in the current thread's frame.
func (e Env) NewLocalRef(obj Ref) Ref {
	return Ref(e.call(envNewLocalRef, uintptr(obj)))
}

// DeleteLocalRef releases a local reference. Deleting the null reference is
// a no-op.
func (e Env) DeleteLocalRef(obj Ref) {
	e.call(envDeleteLocalRef, uintptr(obj))
}

// EnsureLocalCapacity reserves room for at least capacity local references.
func (e Env) EnsureLocalCapacity(capacity int32) error {
	return NewStatusError(int32(e.call(envEnsureLocalCapacity, uintptr(capacity))), "EnsureLocalCapacity")
}

// Throw raises a java.lang.Throwable in the environment. The exception
// becomes pending; no further JNI calls should be made until it is cleared
// or control returns to Java.
func (e Env) Throw(throwable Ref) error {
	return NewStatusError(int32(e.call(envThrow, uintptr(throwable))), "Throw")
}

// ThrowNew raises a new exception of the given class with a message.
func (e Env) ThrowNew(class Ref, msg string) error {
	m := cstr(msg)
	code := int32(e.call(envThrowNew, uintptr(class), cptr(m)))
	runtime.KeepAlive(m)
	return NewStatusError(code, "ThrowNew")
}

// ExceptionOccurred returns a local reference to the pending exception, or
// null if none is pending.
func (e Env) ExceptionOccurred() Ref {
	return Ref(e.call(envExceptionOccurred))
}

// ExceptionDescribe prints the pending exception and a backtrace to stderr.
// May be a no-op on Android.
func (e Env) ExceptionDescribe() {
	e.call(envExceptionDescribe)
}

// ExceptionClear clears the pending exception, if any.
func (e Env) ExceptionClear() {
	e.call(envExceptionClear)
}

// ExceptionCheck reports whether an exception is pending.
func (e Env) ExceptionCheck() bool {
	return byte(e.call(envExceptionCheck)) != 0
}

// FatalError aborts the VM with a diagnostic message. Does not return.
func (e Env) FatalError(msg string) {
	m := cstr(msg)
	e.call(envFatalError, cptr(m))
	runtime.KeepAlive(m)
}

// NewStringUTF creates a java.lang.String from a Go string. The input must
// not contain unpaired surrogates; ordinary UTF-8 text is fine.
func (e Env) NewStringUTF(s string) (Ref, error) {
	b := cstr(s)
	r := Ref(e.call(envNewStringUTF, cptr(b)))
	runtime.KeepAlive(b)
	if r.IsNull() {
		if err := e.pendingCheck(); err != nil {
			return 0, err
		}
		return 0, ErrNullRef
	}
	return r, nil
}

// GoStringUTF copies a java.lang.String reference into a Go string.
func (e Env) GoStringUTF(str Ref) (string, error) {
	if str.IsNull() {
		return "", ErrNullRef
	}
	n := int(int32(e.call(envGetStringUTFLength, uintptr(str))))
	p := e.call(envGetStringUTFChars, uintptr(str), 0)
	if p == 0 {
		if err := e.pendingCheck(); err != nil {
			return "", err
		}
		return "", ErrNullRef
	}
	s := goStringFromUTF(p, n)
	e.call(envReleaseStringUTFChars, uintptr(str), p)
	return s, nil
}

// GetArrayLength returns the element count of a Java array.
func (e Env) GetArrayLength(arr Ref) int {
	return int(int32(e.call(envGetArrayLength, uintptr(arr))))
}

// NewObjectArray creates an object array of the given element class, with
// every slot set to init.
func (e Env) NewObjectArray(length int, elementClass, init Ref) (Ref, error) {
	r := Ref(e.call(envNewObjectArray, uintptr(int32(length)), uintptr(elementClass), uintptr(init)))
	if r.IsNull() {
		if err := e.pendingCheck(); err != nil {
			return 0, err
		}
		return 0, ErrNullRef
	}
	return r, nil
}

// GetObjectArrayElement returns a local reference to arr[index].
func (e Env) GetObjectArrayElement(arr Ref, index int) (Ref, error) {
	r := Ref(e.call(envGetObjectArrayElement, uintptr(arr), uintptr(int32(index))))
	if err := e.pendingCheck(); err != nil {
		return 0, err
	}
	return r, nil
}

// SetObjectArrayElement stores val into arr[index].
func (e Env) SetObjectArrayElement(arr Ref, index int, val Ref) error {
	e.call(envSetObjectArrayElement, uintptr(arr), uintptr(int32(index)), uintptr(val))
	return e.pendingCheck()
}

// NewByteArray allocates a jbyteArray of the given length.
func (e Env) NewByteArray(length int) (Ref, error) {
	r := Ref(e.call(envNewByteArray, uintptr(int32(length))))
	if r.IsNull() {
		if err := e.pendingCheck(); err != nil {
			return 0, err
		}
		return 0, ErrNullRef
	}
	return r, nil
}

// SetByteArrayRegion copies data into arr starting at start.
func (e Env) SetByteArrayRegion(arr Ref, start int, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	e.call(envSetByteArrayRegion, uintptr(arr), uintptr(int32(start)),
		uintptr(int32(len(data))), uintptr(unsafe.Pointer(&data[0])))
	runtime.KeepAlive(data)
	return e.pendingCheck()
}

// GetMethodID resolves an instance method by name and JNI signature.
func (e Env) GetMethodID(class Ref, name, sig string) (MethodID, error) {
	n, s := cstr(name), cstr(sig)
	id := MethodID(e.call(envGetMethodID, uintptr(class), cptr(n), cptr(s)))
	runtime.KeepAlive(n)
	runtime.KeepAlive(s)
	if id == 0 {
		if err := e.pendingCheck(); err != nil {
			return 0, err
		}
		return 0, ErrNullRef
	}
	return id, nil
}

// GetStaticMethodID resolves a static method by name and JNI signature.
func (e Env) GetStaticMethodID(class Ref, name, sig string) (MethodID, error) {
	n, s := cstr(name), cstr(sig)
	id := MethodID(e.call(envGetStaticMethodID, uintptr(class), cptr(n), cptr(s)))
	runtime.KeepAlive(n)
	runtime.KeepAlive(s)
	if id == 0 {
		if err := e.pendingCheck(); err != nil {
			return 0, err
		}
		return 0, ErrNullRef
	}
	return id, nil
}

// GetStaticFieldID resolves a static field by name and JNI signature.
func (e Env) GetStaticFieldID(class Ref, name, sig string) (FieldID, error) {
	n, s := cstr(name), cstr(sig)
	id := FieldID(e.call(envGetStaticFieldID, uintptr(class), cptr(n), cptr(s)))
	runtime.KeepAlive(n)
	runtime.KeepAlive(s)
	if id == 0 {
		if err := e.pendingCheck(); err != nil {
			return 0, err
		}
		return 0, ErrNullRef
	}
	return id, nil
}

// GetStaticIntField reads a static int field.
func (e Env) GetStaticIntField(class Ref, field FieldID) int32 {
	return int32(e.call(envGetStaticIntField, uintptr(class), uintptr(field)))
}

func argsPtr(args []Value) uintptr {
	if len(args) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&args[0]))
}

// NewObject constructs an object with the given constructor and arguments.
func (e Env) NewObject(class Ref, ctor MethodID, args ...Value) (Ref, error) {
	r := Ref(e.call(envNewObjectA, uintptr(class), uintptr(ctor), argsPtr(args)))
	runtime.KeepAlive(args)
	if err := e.pendingCheck(); err != nil {
		return 0, err
	}
	if r.IsNull() {
		return 0, ErrNullRef
	}
	return r, nil
}

// CallObjectMethod invokes an object-returning instance method.
func (e Env) CallObjectMethod(obj Ref, method MethodID, args ...Value) (Ref, error) {
	r := Ref(e.call(envCallObjectMethodA, uintptr(obj), uintptr(method), argsPtr(args)))
	runtime.KeepAlive(args)
	if err := e.pendingCheck(); err != nil {
		return 0, err
	}
	return r, nil
}

// CallBooleanMethod invokes a boolean-returning instance method.
func (e Env) CallBooleanMethod(obj Ref, method MethodID, args ...Value) (bool, error) {
	r := byte(e.call(envCallBooleanMethodA, uintptr(obj), uintptr(method), argsPtr(args)))
	runtime.KeepAlive(args)
	if err := e.pendingCheck(); err != nil {
		return false, err
	}
	return r != 0, nil
}

// CallByteMethod invokes a byte-returning instance method.
func (e Env) CallByteMethod(obj Ref, method MethodID, args ...Value) (int8, error) {
	r := int8(e.call(envCallByteMethodA, uintptr(obj), uintptr(method), argsPtr(args)))
	runtime.KeepAlive(args)
	if err := e.pendingCheck(); err != nil {
		return 0, err
	}
	return r, nil
}

// CallCharMethod invokes a char-returning instance method.
func (e Env) CallCharMethod(obj Ref, method MethodID, args ...Value) (uint16, error) {
	r := uint16(e.call(envCallCharMethodA, uintptr(obj), uintptr(method), argsPtr(args)))
	runtime.KeepAlive(args)
	if err := e.pendingCheck(); err != nil {
		return 0, err
	}
	return r, nil
}

// CallShortMethod invokes a short-returning instance method.
func (e Env) CallShortMethod(obj Ref, method MethodID, args ...Value) (int16, error) {
	r := int16(e.call(envCallShortMethodA, uintptr(obj), uintptr(method), argsPtr(args)))
	runtime.KeepAlive(args)
	if err := e.pendingCheck(); err != nil {
		return 0, err
	}
	return r, nil
}

// CallIntMethod invokes an int-returning instance method.
func (e Env) CallIntMethod(obj Ref, method MethodID, args ...Value) (int32, error) {
	r := int32(e.call(envCallIntMethodA, uintptr(obj), uintptr(method), argsPtr(args)))
	runtime.KeepAlive(args)
	if err := e.pendingCheck(); err != nil {
		return 0, err
	}
	return r, nil
}

// CallLongMethod invokes a long-returning instance method.
func (e Env) CallLongMethod(obj Ref, method MethodID, args ...Value) (int64, error) {
	r := int64(e.call(envCallLongMethodA, uintptr(obj), uintptr(method), argsPtr(args)))
	runtime.KeepAlive(args)
	if err := e.pendingCheck(); err != nil {
		return 0, err
	}
	return r, nil
}

// Float and double returns come back in floating-point registers, which
// SyscallN cannot read. These slots go through purego.RegisterFunc instead,
// cached per function pointer (the table is shared process-wide in
// practice, but checked JNI may install per-thread tables).
var (
	floatCallMu  sync.Mutex
	floatCalls   = make(map[uintptr]func(env, obj, method, args uintptr) float32)
	doubleCallMu sync.Mutex
	doubleCalls  = make(map[uintptr]func(env, obj, method, args uintptr) float64)
)

// CallFloatMethod invokes a float-returning instance method.
func (e Env) CallFloatMethod(obj Ref, method MethodID, args ...Value) (float32, error) {
	ptr := fn(uintptr(e), envCallFloatMethodA)
	floatCallMu.Lock()
	call, ok := floatCalls[ptr]
	if !ok {
		purego.RegisterFunc(&call, ptr)
		floatCalls[ptr] = call
	}
	floatCallMu.Unlock()
	r := call(uintptr(e), uintptr(obj), uintptr(method), argsPtr(args))
	runtime.KeepAlive(args)
	if err := e.pendingCheck(); err != nil {
		return 0, err
	}
	return r, nil
}

// CallDoubleMethod invokes a double-returning instance method.
func (e Env) CallDoubleMethod(obj Ref, method MethodID, args ...Value) (float64, error) {
	ptr := fn(uintptr(e), envCallDoubleMethodA)
	doubleCallMu.Lock()
	call, ok := doubleCalls[ptr]
	if !ok {
		purego.RegisterFunc(&call, ptr)
		doubleCalls[ptr] = call
	}
	doubleCallMu.Unlock()
	r := call(uintptr(e), uintptr(obj), uintptr(method), argsPtr(args))
	runtime.KeepAlive(args)
	if err := e.pendingCheck(); err != nil {
		return 0, err
	}
	return r, nil
}

// CallVoidMethod invokes a void instance method.
func (e Env) CallVoidMethod(obj Ref, method MethodID, args ...Value) error {
	e.call(envCallVoidMethodA, uintptr(obj), uintptr(method), argsPtr(args))
	runtime.KeepAlive(args)
	return e.pendingCheck()
}

// CallStaticObjectMethod invokes an object-returning static method.
func (e Env) CallStaticObjectMethod(class Ref, method MethodID, args ...Value) (Ref, error) {
	r := Ref(e.call(envCallStaticObjectMethodA, uintptr(class), uintptr(method), argsPtr(args)))
	runtime.KeepAlive(args)
	if err := e.pendingCheck(); err != nil {
		return 0, err
	}
	return r, nil
}

// CallStaticBooleanMethod invokes a boolean-returning static method.
func (e Env) CallStaticBooleanMethod(class Ref, method MethodID, args ...Value) (bool, error) {
	r := byte(e.call(envCallStaticBooleanMethodA, uintptr(class), uintptr(method), argsPtr(args)))
	runtime.KeepAlive(args)
	if err := e.pendingCheck(); err != nil {
		return false, err
	}
	return r != 0, nil
}

// CallStaticIntMethod invokes an int-returning static method.
func (e Env) CallStaticIntMethod(class Ref, method MethodID, args ...Value) (int32, error) {
	r := int32(e.call(envCallStaticIntMethodA, uintptr(class), uintptr(method), argsPtr(args)))
	runtime.KeepAlive(args)
	if err := e.pendingCheck(); err != nil {
		return 0, err
	}
	return r, nil
}

// CallStaticLongMethod invokes a long-returning static method.
func (e Env) CallStaticLongMethod(class Ref, method MethodID, args ...Value) (int64, error) {
	r := int64(e.call(envCallStaticLongMethodA, uintptr(class), uintptr(method), argsPtr(args)))
	runtime.KeepAlive(args)
	if err := e.pendingCheck(); err != nil {
		return 0, err
	}
	return r, nil
}

// CallStaticVoidMethod invokes a void static method.
func (e Env) CallStaticVoidMethod(class Ref, method MethodID, args ...Value) error {
	e.call(envCallStaticVoidMethodA, uintptr(class), uintptr(method), argsPtr(args))
	runtime.KeepAlive(args)
	return e.pendingCheck()
}

// NativeMethod describes one native method to register on a class.
type NativeMethod struct {
	Name      string
	Signature string
	Fn        uintptr // function pointer, typically from purego.NewCallback
}

// jniNativeMethod mirrors the C JNINativeMethod struct.
type jniNativeMethod struct {
	name uintptr
	sig  uintptr
	fn   uintptr
}

// RegisterNatives binds native method implementations to a class.
func (e Env) RegisterNatives(class Ref, methods []NativeMethod) error {
	if len(methods) == 0 {
		return nil
	}
	natives := make([]jniNativeMethod, len(methods))
	keep := make([][]byte, 0, len(methods)*2)
	for i, m := range methods {
		n, s := cstr(m.Name), cstr(m.Signature)
		keep = append(keep, n, s)
		natives[i] = jniNativeMethod{name: cptr(n), sig: cptr(s), fn: m.Fn}
	}
	code := int32(e.call(envRegisterNatives, uintptr(class),
		uintptr(unsafe.Pointer(&natives[0])), uintptr(int32(len(natives)))))
	runtime.KeepAlive(natives)
	runtime.KeepAlive(keep)
	if code != OK {
		if err := e.pendingCheck(); err != nil {
			return err
		}
		return NewStatusError(code, "RegisterNatives")
	}
	return nil
}

// MonitorEnter enters the monitor of obj. Every MonitorEnter must be paired
// with a MonitorExit on the same thread.
func (e Env) MonitorEnter(obj Ref) error {
	return NewStatusError(int32(e.call(envMonitorEnter, uintptr(obj))), "MonitorEnter")
}

// MonitorExit leaves the monitor of obj.
func (e Env) MonitorExit(obj Ref) error {
	return NewStatusError(int32(e.call(envMonitorExit, uintptr(obj))), "MonitorExit")
}

// GetJavaVM returns the VM this environment belongs to.
func (e Env) GetJavaVM() (VM, error) {
	var vm VM
	code := int32(e.call(envGetJavaVM, uintptr(escapes(unsafe.Pointer(&vm)))))
	if code != OK {
		return 0, NewStatusError(code, "GetJavaVM")
	}
	return vm, nil
}
