package jnigo

import (
	"fmt"

	"github.com/obinnaokechukwu/jnigo/jni"
)

// ClassLoader wraps a java.lang.ClassLoader held as a global reference. The
// zero value (and nil) denotes "no explicit loader": class lookups then go
// through FindClass, which uses the thread's context loader chain.
type ClassLoader struct {
	ref *GlobalRef
}

// SystemClassLoader returns ClassLoader.getSystemClassLoader().
func SystemClassLoader(env jni.Env) (*ClassLoader, error) {
	c, err := getCache(env)
	if err != nil {
		return nil, err
	}
	obj, err := env.CallStaticObjectMethod(c.classLoader, c.systemLoader)
	if err != nil {
		return nil, ClearException(env, err)
	}
	if obj.IsNull() {
		return nil, ErrNullRef
	}
	g, err := globalize(env, obj)
	if err != nil {
		return nil, err
	}
	return &ClassLoader{ref: g}, nil
}

// WrapClassLoader wraps an existing java.lang.ClassLoader reference. The
// reference is promoted to a global reference; the caller keeps ownership
// of the original.
func WrapClassLoader(env jni.Env, loader jni.Ref) (*ClassLoader, error) {
	if loader.IsNull() {
		return nil, ErrNullRef
	}
	c, err := getCache(env)
	if err != nil {
		return nil, err
	}
	if !env.IsInstanceOf(loader, c.classLoader) {
		return nil, fmt.Errorf("jnigo: reference is not a java.lang.ClassLoader")
	}
	g, err := NewGlobalRef(env, loader)
	if err != nil {
		return nil, err
	}
	return &ClassLoader{ref: g}, nil
}

// Object returns the underlying ClassLoader reference, or null for the
// implicit loader.
func (l *ClassLoader) Object() jni.Ref {
	if l == nil {
		return 0
	}
	return l.ref.Object()
}

// Delete releases the loader's global reference.
func (l *ClassLoader) Delete(env jni.Env) {
	if l == nil {
		return
	}
	l.ref.Delete(env)
}

// LoadClass resolves a class by name (internal or binary form both accepted)
// and returns it as a global reference.
//
// FindClass is tried first: it resolves boot and application classes on any
// thread. If that fails and this loader wraps an explicit ClassLoader, the
// lookup is retried through loader.loadClass, which is what an embedding
// like Android needs for app classes on natively attached threads.
func (l *ClassLoader) LoadClass(env jni.Env, name string) (*GlobalRef, error) {
	internal := ClassNameToInternal(name)

	local, err := env.FindClass(internal)
	if err == nil {
		return globalize(env, local)
	}
	// Expected failure when the class is invisible to the context loader;
	// fall through to the explicit loader without stashing.
	ClearExceptionIgnore(env, err)

	if l.Object().IsNull() {
		return nil, err
	}
	c, err := getCache(env)
	if err != nil {
		return nil, err
	}
	nameRef, err := NewJString(env, ClassNameToBinary(name))
	if err != nil {
		return nil, err
	}
	defer env.DeleteLocalRef(nameRef)
	cls, err := env.CallObjectMethod(l.Object(), c.loadClass, jni.FromRef(nameRef))
	if err != nil {
		return nil, ClearException(env, err)
	}
	if cls.IsNull() {
		return nil, ErrNullRef
	}
	return globalize(env, cls)
}

// DefineClass injects raw class-file bytes into this loader (or the
// implicit one for a nil loader) and returns the class as a global
// reference.
func (l *ClassLoader) DefineClass(env jni.Env, name string, data []byte) (*GlobalRef, error) {
	local, err := env.DefineClass(ClassNameToInternal(name), l.Object(), data)
	if err != nil {
		return nil, ClearException(env, err)
	}
	return globalize(env, local)
}
