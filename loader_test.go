package jnigo

import (
	"testing"

	"github.com/obinnaokechukwu/jnigo/jni"
)

func TestSystemClassLoader(t *testing.T) {
	_, env := newMock(t)

	l, err := SystemClassLoader(env)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Delete(env)
	if l.Object().IsNull() {
		t.Fatal("system loader reference is null")
	}
}

func TestWrapClassLoaderRejectsOtherTypes(t *testing.T) {
	m, env := newMock(t)

	if _, err := WrapClassLoader(env, jni.Ref(m.NewString("nope"))); err == nil {
		t.Fatal("WrapClassLoader accepted a String")
	}
	if _, err := WrapClassLoader(env, 0); err == nil {
		t.Fatal("WrapClassLoader accepted null")
	}
}

func TestLoadClassThroughFindClass(t *testing.T) {
	m, env := newMock(t)

	var l *ClassLoader // implicit loader
	cls, err := l.LoadClass(env, "java.util.List")
	if err != nil {
		t.Fatal(err)
	}
	defer cls.Delete(env)
	if got := m.Object(uintptr(cls.Object())).Name; got != "java/util/List" {
		t.Fatalf("resolved class = %s", got)
	}
}

func TestLoadClassFallsBackToLoader(t *testing.T) {
	m, env := newMock(t)
	// Invisible to FindClass, visible to the explicit loader. This is the
	// Android app-class situation on a natively attached thread.
	m.FindClassFails["com/app/Widget"] = true

	l, err := SystemClassLoader(env)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Delete(env)

	cls, err := l.LoadClass(env, "com.app.Widget")
	if err != nil {
		t.Fatal(err)
	}
	defer cls.Delete(env)
	if got := m.Object(uintptr(cls.Object())).Name; got != "com/app/Widget" {
		t.Fatalf("resolved class = %s", got)
	}
	if m.Pending() != 0 {
		t.Fatal("exception left pending after successful fallback")
	}
	// The FindClass miss is an expected failure and must not pollute the
	// stash.
	if LastClearedException(env) != nil {
		t.Fatal("expected FindClass failure was stashed")
	}
}

func TestLoadClassBothPathsFail(t *testing.T) {
	m, env := newMock(t)
	m.FindClassFails["com/app/Gone"] = true
	m.LoadClassFails["com/app/Gone"] = true

	l, err := SystemClassLoader(env)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Delete(env)

	if _, err := l.LoadClass(env, "com.app.Gone"); err == nil {
		t.Fatal("LoadClass succeeded for a missing class")
	}
	if m.Pending() != 0 {
		t.Fatal("exception left pending after LoadClass failure")
	}
}

func TestLoadClassImplicitLoaderMiss(t *testing.T) {
	m, env := newMock(t)
	m.FindClassFails["com/app/Hidden"] = true

	var l *ClassLoader
	if _, err := l.LoadClass(env, "com.app.Hidden"); err == nil {
		t.Fatal("implicit loader resolved a failing class")
	}
	if m.Pending() != 0 {
		t.Fatal("exception left pending")
	}
}

func TestDefineClass(t *testing.T) {
	m, env := newMock(t)

	data := []byte{0xCA, 0xFE, 0xBA, 0xBE, 0, 0, 0, 52}
	var l *ClassLoader
	cls, err := l.DefineClass(env, "com.gen.Dyn", data)
	if err != nil {
		t.Fatal(err)
	}
	defer cls.Delete(env)
	got, ok := m.Defined["com/gen/Dyn"]
	if !ok {
		t.Fatal("class bytes were not handed to DefineClass")
	}
	if len(got) != len(data) || got[0] != 0xCA {
		t.Fatalf("defined bytes = % x", got)
	}
}
