package shimclass

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestInjectedBytesWin(t *testing.T) {
	data := []byte{0xCA, 0xFE, 0xBA, 0xBE}
	SetClassData(data)
	defer SetClassData(nil)

	got, err := ClassData()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("ClassData = % x", got)
	}
}

func TestEnvPathDiscovery(t *testing.T) {
	data := []byte{0xCA, 0xFE, 0xBA, 0xBE, 0, 0, 0, 52}
	path := filepath.Join(t.TempDir(), "InvocHdl.class")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JNIGO_SHIM_PATH", path)

	got, err := ClassData()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("ClassData = % x", got)
	}
}

func TestNotFound(t *testing.T) {
	t.Setenv("JNIGO_SHIM_PATH", filepath.Join(t.TempDir(), "missing.class"))

	if _, err := ClassData(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestNativeMethodContract(t *testing.T) {
	// The dispatch method receives the handler ID, the reflected method and
	// the boxed arguments, and returns the boxed result.
	if NativeMethodSig != "(JLjava/lang/reflect/Method;[Ljava/lang/Object;)Ljava/lang/Object;" {
		t.Fatalf("signature = %s", NativeMethodSig)
	}
	if BinaryName != "jnigo/helper/InvocHdl" {
		t.Fatalf("class = %s", BinaryName)
	}
}
