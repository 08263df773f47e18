package jnigo

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/obinnaokechukwu/jnigo/jni"
)

// javaCache holds global references to frequently used classes and their
// method IDs, resolved once per process. Method IDs stay valid as long as
// the class is not unloaded, which the global class references prevent.
type javaCache struct {
	classBoolean   jni.Ref
	classCharacter jni.Ref
	classByte      jni.Ref
	classShort     jni.Ref
	classInteger   jni.Ref
	classLong      jni.Ref
	classFloat     jni.Ref
	classDouble    jni.Ref
	classNumber    jni.Ref
	classString    jni.Ref
	classClass     jni.Ref
	classMethod    jni.Ref
	classThrowable jni.Ref
	classRuntimeEx jni.Ref
	classThread    jni.Ref
	classLoader    jni.Ref
	classProxy     jni.Ref

	booleanValue jni.MethodID
	charValue    jni.MethodID
	byteValue    jni.MethodID
	shortValue   jni.MethodID
	intValue     jni.MethodID
	longValue    jni.MethodID
	floatValue   jni.MethodID
	doubleValue  jni.MethodID

	boolValueOf   jni.MethodID
	charValueOf   jni.MethodID
	byteValueOf   jni.MethodID
	shortValueOf  jni.MethodID
	intValueOf    jni.MethodID
	longValueOf   jni.MethodID
	floatValueOf  jni.MethodID
	doubleValueOf jni.MethodID

	classGetName     jni.MethodID
	methodGetName    jni.MethodID
	throwableMessage jni.MethodID
	currentThread    jni.MethodID
	threadGetName    jni.MethodID
	loadClass        jni.MethodID
	systemLoader     jni.MethodID
	newProxyInstance jni.MethodID
}

var (
	cacheMu  sync.Mutex
	cacheVal *javaCache
)

// getCache returns the process-wide class cache, building it on first use.
// A failed build is not cached, so a transient failure (an exotic boot
// class path, say) is retried on the next call.
func getCache(env jni.Env) (*javaCache, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if cacheVal != nil {
		return cacheVal, nil
	}
	c, err := buildCache(env)
	if err != nil {
		return nil, ClearExceptionSilent(env, err)
	}
	cacheVal = c
	return c, nil
}

func buildCache(env jni.Env) (*javaCache, error) {
	c := &javaCache{}

	globalClass := func(name string) (jni.Ref, error) {
		local, err := env.FindClass(name)
		if err != nil {
			return 0, err
		}
		g, err := env.NewGlobalRef(local)
		env.DeleteLocalRef(local)
		return g, err
	}

	var err error
	type classSlot struct {
		dst  *jni.Ref
		name string
	}
	for _, s := range []classSlot{
		{&c.classBoolean, "java/lang/Boolean"},
		{&c.classCharacter, "java/lang/Character"},
		{&c.classByte, "java/lang/Byte"},
		{&c.classShort, "java/lang/Short"},
		{&c.classInteger, "java/lang/Integer"},
		{&c.classLong, "java/lang/Long"},
		{&c.classFloat, "java/lang/Float"},
		{&c.classDouble, "java/lang/Double"},
		{&c.classNumber, "java/lang/Number"},
		{&c.classString, "java/lang/String"},
		{&c.classClass, "java/lang/Class"},
		{&c.classMethod, "java/lang/reflect/Method"},
		{&c.classThrowable, "java/lang/Throwable"},
		{&c.classRuntimeEx, "java/lang/RuntimeException"},
		{&c.classThread, "java/lang/Thread"},
		{&c.classLoader, "java/lang/ClassLoader"},
		{&c.classProxy, "java/lang/reflect/Proxy"},
	} {
		if *s.dst, err = globalClass(s.name); err != nil {
			return nil, err
		}
	}

	type methodSlot struct {
		dst    *jni.MethodID
		class  jni.Ref
		static bool
		name   string
		sig    string
	}
	for _, s := range []methodSlot{
		{&c.booleanValue, c.classBoolean, false, "booleanValue", "()Z"},
		{&c.charValue, c.classCharacter, false, "charValue", "()C"},
		{&c.byteValue, c.classNumber, false, "byteValue", "()B"},
		{&c.shortValue, c.classNumber, false, "shortValue", "()S"},
		{&c.intValue, c.classNumber, false, "intValue", "()I"},
		{&c.longValue, c.classNumber, false, "longValue", "()J"},
		{&c.floatValue, c.classNumber, false, "floatValue", "()F"},
		{&c.doubleValue, c.classNumber, false, "doubleValue", "()D"},

		{&c.boolValueOf, c.classBoolean, true, "valueOf", "(Z)Ljava/lang/Boolean;"},
		{&c.charValueOf, c.classCharacter, true, "valueOf", "(C)Ljava/lang/Character;"},
		{&c.byteValueOf, c.classByte, true, "valueOf", "(B)Ljava/lang/Byte;"},
		{&c.shortValueOf, c.classShort, true, "valueOf", "(S)Ljava/lang/Short;"},
		{&c.intValueOf, c.classInteger, true, "valueOf", "(I)Ljava/lang/Integer;"},
		{&c.longValueOf, c.classLong, true, "valueOf", "(J)Ljava/lang/Long;"},
		{&c.floatValueOf, c.classFloat, true, "valueOf", "(F)Ljava/lang/Float;"},
		{&c.doubleValueOf, c.classDouble, true, "valueOf", "(D)Ljava/lang/Double;"},

		{&c.classGetName, c.classClass, false, "getName", "()Ljava/lang/String;"},
		{&c.methodGetName, c.classMethod, false, "getName", "()Ljava/lang/String;"},
		{&c.throwableMessage, c.classThrowable, false, "getMessage", "()Ljava/lang/String;"},
		{&c.currentThread, c.classThread, true, "currentThread", "()Ljava/lang/Thread;"},
		{&c.threadGetName, c.classThread, false, "getName", "()Ljava/lang/String;"},
		{&c.loadClass, c.classLoader, false, "loadClass", "(Ljava/lang/String;)Ljava/lang/Class;"},
		{&c.systemLoader, c.classLoader, true, "getSystemClassLoader", "()Ljava/lang/ClassLoader;"},
		{&c.newProxyInstance, c.classProxy, true, "newProxyInstance",
			"(Ljava/lang/ClassLoader;[Ljava/lang/Class;Ljava/lang/reflect/InvocationHandler;)Ljava/lang/Object;"},
	} {
		if s.static {
			*s.dst, err = env.GetStaticMethodID(s.class, s.name, s.sig)
		} else {
			*s.dst, err = env.GetMethodID(s.class, s.name, s.sig)
		}
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ClassNameToInternal converts a binary class name ("java.lang.String")
// to the slash-separated internal form FindClass expects.
func ClassNameToInternal(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}

// ClassNameToBinary converts an internal class name back to the dotted
// binary form used by ClassLoader.loadClass and Class.getName.
func ClassNameToBinary(name string) string {
	return strings.ReplaceAll(name, "/", ".")
}

// NewJString creates a java.lang.String local reference from a Go string.
func NewJString(env jni.Env, s string) (jni.Ref, error) {
	r, err := env.NewStringUTF(s)
	if err != nil {
		return 0, ClearException(env, err)
	}
	return r, nil
}

// GoString copies a java.lang.String reference into a Go string.
func GoString(env jni.Env, str jni.Ref) (string, error) {
	s, err := env.GoStringUTF(str)
	if err != nil {
		return "", ClearException(env, err)
	}
	return s, nil
}

// BoxBool wraps a Go bool as java.lang.Boolean.
func BoxBool(env jni.Env, v bool) (jni.Ref, error) {
	c, err := getCache(env)
	if err != nil {
		return 0, err
	}
	r, err := env.CallStaticObjectMethod(c.classBoolean, c.boolValueOf, jni.FromBool(v))
	if err != nil {
		return 0, ClearException(env, err)
	}
	return r, nil
}

// BoxChar wraps a UTF-16 code unit as java.lang.Character.
func BoxChar(env jni.Env, v uint16) (jni.Ref, error) {
	c, err := getCache(env)
	if err != nil {
		return 0, err
	}
	r, err := env.CallStaticObjectMethod(c.classCharacter, c.charValueOf, jni.FromChar(v))
	if err != nil {
		return 0, ClearException(env, err)
	}
	return r, nil
}

// BoxByte wraps a Go int8 as java.lang.Byte.
func BoxByte(env jni.Env, v int8) (jni.Ref, error) {
	c, err := getCache(env)
	if err != nil {
		return 0, err
	}
	r, err := env.CallStaticObjectMethod(c.classByte, c.byteValueOf, jni.FromByte(v))
	if err != nil {
		return 0, ClearException(env, err)
	}
	return r, nil
}

// BoxShort wraps a Go int16 as java.lang.Short.
func BoxShort(env jni.Env, v int16) (jni.Ref, error) {
	c, err := getCache(env)
	if err != nil {
		return 0, err
	}
	r, err := env.CallStaticObjectMethod(c.classShort, c.shortValueOf, jni.FromShort(v))
	if err != nil {
		return 0, ClearException(env, err)
	}
	return r, nil
}

// BoxInt wraps a Go int32 as java.lang.Integer.
func BoxInt(env jni.Env, v int32) (jni.Ref, error) {
	c, err := getCache(env)
	if err != nil {
		return 0, err
	}
	r, err := env.CallStaticObjectMethod(c.classInteger, c.intValueOf, jni.FromInt(v))
	if err != nil {
		return 0, ClearException(env, err)
	}
	return r, nil
}

// BoxLong wraps a Go int64 as java.lang.Long.
func BoxLong(env jni.Env, v int64) (jni.Ref, error) {
	c, err := getCache(env)
	if err != nil {
		return 0, err
	}
	r, err := env.CallStaticObjectMethod(c.classLong, c.longValueOf, jni.FromLong(v))
	if err != nil {
		return 0, ClearException(env, err)
	}
	return r, nil
}

// BoxFloat wraps a Go float32 as java.lang.Float.
func BoxFloat(env jni.Env, v float32) (jni.Ref, error) {
	c, err := getCache(env)
	if err != nil {
		return 0, err
	}
	r, err := env.CallStaticObjectMethod(c.classFloat, c.floatValueOf, jni.FromFloat(v))
	if err != nil {
		return 0, ClearException(env, err)
	}
	return r, nil
}

// BoxDouble wraps a Go float64 as java.lang.Double.
func BoxDouble(env jni.Env, v float64) (jni.Ref, error) {
	c, err := getCache(env)
	if err != nil {
		return 0, err
	}
	r, err := env.CallStaticObjectMethod(c.classDouble, c.doubleValueOf, jni.FromDouble(v))
	if err != nil {
		return 0, ClearException(env, err)
	}
	return r, nil
}

// UnboxBool extracts the value of a java.lang.Boolean.
func UnboxBool(env jni.Env, obj jni.Ref) (bool, error) {
	c, err := getCache(env)
	if err != nil {
		return false, err
	}
	if obj.IsNull() || !env.IsInstanceOf(obj, c.classBoolean) {
		return false, ErrNullRef
	}
	v, err := env.CallBooleanMethod(obj, c.booleanValue)
	if err != nil {
		return false, ClearException(env, err)
	}
	return v, nil
}

// UnboxChar extracts the value of a java.lang.Character.
func UnboxChar(env jni.Env, obj jni.Ref) (uint16, error) {
	c, err := getCache(env)
	if err != nil {
		return 0, err
	}
	if obj.IsNull() || !env.IsInstanceOf(obj, c.classCharacter) {
		return 0, ErrNullRef
	}
	v, err := env.CallCharMethod(obj, c.charValue)
	if err != nil {
		return 0, ClearException(env, err)
	}
	return v, nil
}

// numberCheck verifies obj is a non-null java.lang.Number before a
// xxxValue call. Widening and narrowing follow Number semantics.
func numberCheck(env jni.Env, c *javaCache, obj jni.Ref) error {
	if obj.IsNull() || !env.IsInstanceOf(obj, c.classNumber) {
		return ErrNullRef
	}
	return nil
}

// UnboxByte extracts the byte value of a java.lang.Number.
func UnboxByte(env jni.Env, obj jni.Ref) (int8, error) {
	c, err := getCache(env)
	if err != nil {
		return 0, err
	}
	if err := numberCheck(env, c, obj); err != nil {
		return 0, err
	}
	v, err := env.CallByteMethod(obj, c.byteValue)
	if err != nil {
		return 0, ClearException(env, err)
	}
	return v, nil
}

// UnboxShort extracts the short value of a java.lang.Number.
func UnboxShort(env jni.Env, obj jni.Ref) (int16, error) {
	c, err := getCache(env)
	if err != nil {
		return 0, err
	}
	if err := numberCheck(env, c, obj); err != nil {
		return 0, err
	}
	v, err := env.CallShortMethod(obj, c.shortValue)
	if err != nil {
		return 0, ClearException(env, err)
	}
	return v, nil
}

// UnboxInt extracts the int value of a java.lang.Number.
func UnboxInt(env jni.Env, obj jni.Ref) (int32, error) {
	c, err := getCache(env)
	if err != nil {
		return 0, err
	}
	if err := numberCheck(env, c, obj); err != nil {
		return 0, err
	}
	v, err := env.CallIntMethod(obj, c.intValue)
	if err != nil {
		return 0, ClearException(env, err)
	}
	return v, nil
}

// UnboxLong extracts the long value of a java.lang.Number.
func UnboxLong(env jni.Env, obj jni.Ref) (int64, error) {
	c, err := getCache(env)
	if err != nil {
		return 0, err
	}
	if err := numberCheck(env, c, obj); err != nil {
		return 0, err
	}
	v, err := env.CallLongMethod(obj, c.longValue)
	if err != nil {
		return 0, ClearException(env, err)
	}
	return v, nil
}

// UnboxFloat extracts the float value of a java.lang.Number.
func UnboxFloat(env jni.Env, obj jni.Ref) (float32, error) {
	c, err := getCache(env)
	if err != nil {
		return 0, err
	}
	if err := numberCheck(env, c, obj); err != nil {
		return 0, err
	}
	v, err := env.CallFloatMethod(obj, c.floatValue)
	if err != nil {
		return 0, ClearException(env, err)
	}
	return v, nil
}

// UnboxDouble extracts the double value of a java.lang.Number.
func UnboxDouble(env jni.Env, obj jni.Ref) (float64, error) {
	c, err := getCache(env)
	if err != nil {
		return 0, err
	}
	if err := numberCheck(env, c, obj); err != nil {
		return 0, err
	}
	v, err := env.CallDoubleMethod(obj, c.doubleValue)
	if err != nil {
		return 0, ClearException(env, err)
	}
	return v, nil
}

// ClassNameOf returns the internal (slash-separated) class name of an
// object reference.
func ClassNameOf(env jni.Env, obj jni.Ref) (string, error) {
	if obj.IsNull() {
		return "", ErrNullRef
	}
	c, err := getCache(env)
	if err != nil {
		return "", err
	}
	cls := env.GetObjectClass(obj)
	defer env.DeleteLocalRef(cls)
	nameRef, err := env.CallObjectMethod(cls, c.classGetName)
	if err != nil {
		return "", ClearException(env, err)
	}
	defer env.DeleteLocalRef(nameRef)
	name, err := GoString(env, nameRef)
	if err != nil {
		return "", err
	}
	return ClassNameToInternal(name), nil
}

// MethodName returns the simple name of a java.lang.reflect.Method.
func MethodName(env jni.Env, method jni.Ref) (string, error) {
	if method.IsNull() {
		return "", ErrNullRef
	}
	c, err := getCache(env)
	if err != nil {
		return "", err
	}
	nameRef, err := env.CallObjectMethod(method, c.methodGetName)
	if err != nil {
		return "", ClearException(env, err)
	}
	defer env.DeleteLocalRef(nameRef)
	return GoString(env, nameRef)
}

// ThrowableMessage returns Throwable.getMessage, or "" for a null message.
func ThrowableMessage(env jni.Env, throwable jni.Ref) (string, error) {
	if throwable.IsNull() {
		return "", ErrNullRef
	}
	c, err := getCache(env)
	if err != nil {
		return "", err
	}
	msgRef, err := env.CallObjectMethod(throwable, c.throwableMessage)
	if err != nil {
		return "", ClearException(env, err)
	}
	if msgRef.IsNull() {
		return "", nil
	}
	defer env.DeleteLocalRef(msgRef)
	return GoString(env, msgRef)
}

// javaThreadName returns Thread.currentThread().getName() for diagnostics,
// or a placeholder when the query itself fails.
func javaThreadName(env jni.Env) string {
	c, err := getCache(env)
	if err != nil {
		return "<unknown thread>"
	}
	thr, err := env.CallStaticObjectMethod(c.classThread, c.currentThread)
	if err != nil || thr.IsNull() {
		ClearExceptionIgnore(env, err)
		return "<unknown thread>"
	}
	defer env.DeleteLocalRef(thr)
	nameRef, err := env.CallObjectMethod(thr, c.threadGetName)
	if err != nil || nameRef.IsNull() {
		ClearExceptionIgnore(env, err)
		return "<unknown thread>"
	}
	defer env.DeleteLocalRef(nameRef)
	name, err := env.GoStringUTF(nameRef)
	if err != nil {
		ClearExceptionIgnore(env, err)
		return "<unknown thread>"
	}
	return name
}

// throwRuntime raises a java.lang.RuntimeException with the given message.
// The exception is left pending, as a native method returning to Java
// requires.
func throwRuntime(env jni.Env, msg string) {
	c, err := getCache(env)
	if err != nil {
		logger().Error("cannot raise RuntimeException, class cache unavailable",
			zap.Error(err), zap.String("message", msg))
		return
	}
	if err := env.ThrowNew(c.classRuntimeEx, msg); err != nil {
		logger().Error("ThrowNew failed", zap.Error(err), zap.String("message", msg))
	}
}
