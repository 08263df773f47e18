// Package jni provides low-level bindings to the Java Native Interface
// using purego. It calls through the JNIEnv and JavaVM function tables
// directly, so it works without CGO.
//
// An Env is only valid on the OS thread it was obtained for; callers that
// hold one across goroutine switches must use runtime.LockOSThread. Most
// users should work with the high-level jnigo package instead.
package jni

import (
	"unsafe"

	"github.com/ebitengine/purego"
)

// Env is a JNIEnv pointer, valid for a single attached thread.
type Env uintptr

// VM is a JavaVM pointer, shared by the whole process.
type VM uintptr

// Ref is an opaque reference to a Java object (jobject). The zero value is
// the null reference.
type Ref uintptr

// MethodID is an opaque jmethodID.
type MethodID uintptr

// FieldID is an opaque jfieldID.
type FieldID uintptr

// Value is a jvalue union. All primitive argument kinds are stored in the
// low bits; use the From* constructors.
type Value uint64

// FromRef builds a jvalue holding an object reference.
func FromRef(r Ref) Value { return Value(r) }

// FromBool builds a jvalue holding a jboolean.
func FromBool(b bool) Value {
	if b {
		return 1
	}
	return 0
}

// FromInt builds a jvalue holding a jint.
func FromInt(v int32) Value { return Value(uint32(v)) }

// FromLong builds a jvalue holding a jlong.
func FromLong(v int64) Value { return Value(uint64(v)) }

// FromChar builds a jvalue holding a jchar (UTF-16 code unit).
func FromChar(c uint16) Value { return Value(c) }

// FromByte builds a jvalue holding a jbyte.
func FromByte(v int8) Value { return Value(uint8(v)) }

// FromShort builds a jvalue holding a jshort.
func FromShort(v int16) Value { return Value(uint16(v)) }

// FromFloat builds a jvalue holding a jfloat.
func FromFloat(v float32) Value { return Value(floatBits(v)) }

// FromDouble builds a jvalue holding a jdouble.
func FromDouble(v float64) Value { return Value(doubleBits(v)) }

// JNI status codes returned by invocation-interface calls.
const (
	OK        int32 = 0
	Err       int32 = -1
	EDetached int32 = -2
	EVersion  int32 = -3
	ENoMem    int32 = -4
	EExist    int32 = -5
	EInval    int32 = -6
)

// JNI interface versions.
const (
	Version12 int32 = 0x00010002
	Version14 int32 = 0x00010004
	Version16 int32 = 0x00010006
	Version18 int32 = 0x00010008
)

// IsNull reports whether the reference is null.
func (r Ref) IsNull() bool { return r == 0 }

// JNIEnv function-table indices, per the JNI specification. The first four
// slots are reserved.
const (
	envGetVersion               = 4
	envDefineClass              = 5
	envFindClass                = 6
	envThrow                    = 13
	envThrowNew                 = 14
	envExceptionOccurred        = 15
	envExceptionDescribe        = 16
	envExceptionClear           = 17
	envFatalError               = 18
	envNewGlobalRef             = 21
	envDeleteGlobalRef          = 22
	envDeleteLocalRef           = 23
	envIsSameObject             = 24
	envNewLocalRef              = 25
	envEnsureLocalCapacity      = 26
	envNewObjectA               = 30
	envGetObjectClass           = 31
	envIsInstanceOf             = 32
	envGetMethodID              = 33
	envCallObjectMethodA        = 36
	envCallBooleanMethodA       = 39
	envCallByteMethodA          = 42
	envCallCharMethodA          = 45
	envCallShortMethodA         = 48
	envCallIntMethodA           = 51
	envCallLongMethodA          = 54
	envCallFloatMethodA         = 57
	envCallDoubleMethodA        = 60
	envCallVoidMethodA          = 63
	envGetStaticMethodID        = 113
	envCallStaticObjectMethodA  = 116
	envCallStaticBooleanMethodA = 119
	envCallStaticIntMethodA     = 131
	envCallStaticLongMethodA    = 134
	envCallStaticVoidMethodA    = 143
	envGetStaticFieldID         = 144
	envGetStaticIntField        = 150
	envNewStringUTF             = 167
	envGetStringUTFLength       = 168
	envGetStringUTFChars        = 169
	envReleaseStringUTFChars    = 170
	envGetArrayLength           = 171
	envNewObjectArray           = 172
	envGetObjectArrayElement    = 173
	envSetObjectArrayElement    = 174
	envNewByteArray             = 176
	envSetByteArrayRegion       = 208
	envRegisterNatives          = 215
	envMonitorEnter             = 217
	envMonitorExit              = 218
	envGetJavaVM                = 219
	envExceptionCheck           = 228
)

// JavaVM invocation-interface indices. The first three slots are reserved.
const (
	vmDestroyJavaVM               = 3
	vmAttachCurrentThread         = 4
	vmDetachCurrentThread         = 5
	vmGetEnv                      = 6
	vmAttachCurrentThreadAsDaemon = 7
)

const ptrSize = unsafe.Sizeof(uintptr(0))

// fn returns the function pointer at the given slot of a JNI function table.
// table is a pointer to a struct whose first field points at the table.
func fn(table uintptr, index int) uintptr {
	vtbl := *(*uintptr)(unsafe.Pointer(table))
	return *(*uintptr)(unsafe.Pointer(vtbl + uintptr(index)*ptrSize))
}

func (e Env) call(index int, args ...uintptr) uintptr {
	full := make([]uintptr, 0, len(args)+1)
	full = append(full, uintptr(e))
	full = append(full, args...)
	r1, _, _ := purego.SyscallN(fn(uintptr(e), index), full...)
	return r1
}

func (v VM) call(index int, args ...uintptr) uintptr {
	full := make([]uintptr, 0, len(args)+1)
	full = append(full, uintptr(v))
	full = append(full, args...)
	r1, _, _ := purego.SyscallN(fn(uintptr(v), index), full...)
	return r1
}

// cstr returns a NUL-terminated byte buffer for s. The caller must keep the
// returned slice alive (runtime.KeepAlive) across the native call.
func cstr(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}

func cptr(b []byte) uintptr {
	return uintptr(unsafe.Pointer(&b[0]))
}

var (
	alwaysFalse bool
	escapesSink unsafe.Pointer
)

// escapes forces the referent of p onto the heap. An out-parameter whose
// address is passed to native code as a uintptr must not live on the
// goroutine stack: the stack can move before the callee writes through the
// pointer, leaving the write on a stale copy.
func escapes(p unsafe.Pointer) unsafe.Pointer {
	if alwaysFalse {
		escapesSink = p
	}
	return p
}

// goStringFromUTF copies a NUL-terminated modified-UTF-8 buffer into a Go
// string of the given byte length.
func goStringFromUTF(p uintptr, n int) string {
	if p == 0 || n <= 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
}
