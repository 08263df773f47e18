package jnigo

import "github.com/obinnaokechukwu/jnigo/jni"

// GlobalRef is a heap-durable reference to a Java object. Unlike a plain
// jni.Ref obtained inside a call, it stays valid across call scopes and
// threads until Delete is called.
type GlobalRef struct {
	obj jni.Ref
}

// NewGlobalRef promotes a (local or global) reference to a durable global
// reference.
func NewGlobalRef(env jni.Env, obj jni.Ref) (*GlobalRef, error) {
	g, err := env.NewGlobalRef(obj)
	if err != nil {
		return nil, ClearException(env, err)
	}
	return &GlobalRef{obj: g}, nil
}

// Object returns the underlying reference. Null after Delete.
func (g *GlobalRef) Object() jni.Ref {
	if g == nil {
		return 0
	}
	return g.obj
}

// Delete releases the global reference. Safe to call more than once.
func (g *GlobalRef) Delete(env jni.Env) {
	if g == nil || g.obj.IsNull() {
		return
	}
	env.DeleteGlobalRef(g.obj)
	g.obj = 0
}

// globalize promotes obj and releases the local reference, the usual
// pattern when a value produced inside a call must outlive it.
func globalize(env jni.Env, obj jni.Ref) (*GlobalRef, error) {
	g, err := NewGlobalRef(env, obj)
	env.DeleteLocalRef(obj)
	return g, err
}
