package jni

import (
	"errors"
	"testing"
)

func TestValueConstructors(t *testing.T) {
	cases := []struct {
		name string
		got  Value
		want uint64
	}{
		{"bool true", FromBool(true), 1},
		{"bool false", FromBool(false), 0},
		{"int negative", FromInt(-1), 0xFFFFFFFF},
		{"long", FromLong(-1), 0xFFFFFFFFFFFFFFFF},
		{"char", FromChar(0x3A9), 0x3A9},
		{"byte negative", FromByte(-1), 0xFF},
		{"short negative", FromShort(-1), 0xFFFF},
		{"float one", FromFloat(1.0), 0x3F800000},
		{"double one", FromDouble(1.0), 0x3FF0000000000000},
		{"ref", FromRef(Ref(0xCAFE)), 0xCAFE},
	}
	for _, c := range cases {
		if uint64(c.got) != c.want {
			t.Errorf("%s: %#x, want %#x", c.name, uint64(c.got), c.want)
		}
	}
}

func TestStatusError(t *testing.T) {
	if err := NewStatusError(OK, "GetEnv"); err != nil {
		t.Fatalf("OK produced error %v", err)
	}
	err := NewStatusError(EDetached, "GetEnv")
	if err == nil {
		t.Fatal("EDetached produced nil error")
	}
	if Status(err) != EDetached {
		t.Fatalf("Status = %d", Status(err))
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Op != "GetEnv" {
		t.Fatalf("error shape: %v", err)
	}

	if Status(errors.New("plain")) != OK {
		t.Fatal("Status of a foreign error should be OK")
	}
}

func TestRefNull(t *testing.T) {
	if !Ref(0).IsNull() {
		t.Fatal("zero ref must be null")
	}
	if Ref(1).IsNull() {
		t.Fatal("non-zero ref must not be null")
	}
}
