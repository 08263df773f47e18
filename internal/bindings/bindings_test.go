package bindings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/pelletier/go-toml/v2"
)

func TestFindJVMLibraryExplicitPath(t *testing.T) {
	lib := filepath.Join(t.TempDir(), "libjvm.so")
	if err := os.WriteFile(lib, []byte{0x7f}, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JNIGO_JVM_PATH", lib)

	got, err := FindJVMLibrary()
	if err != nil {
		t.Fatal(err)
	}
	if got != lib {
		t.Fatalf("FindJVMLibrary = %q, want %q", got, lib)
	}
}

func TestFindJVMLibraryExplicitPathMissing(t *testing.T) {
	t.Setenv("JNIGO_JVM_PATH", "/no/such/libjvm.so")

	_, err := FindJVMLibrary()
	if !errors.Is(err, ErrLibraryNotFound) {
		t.Fatalf("err = %v, want ErrLibraryNotFound", err)
	}
}

func TestFindJVMLibraryFromJavaHome(t *testing.T) {
	t.Setenv("JNIGO_JVM_PATH", "")
	home := t.TempDir()
	serverDir := filepath.Join(home, "lib", "server")
	if err := os.MkdirAll(serverDir, 0o755); err != nil {
		t.Fatal(err)
	}
	lib := filepath.Join(serverDir, "libjvm.so")
	if err := os.WriteFile(lib, []byte{0x7f}, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JAVA_HOME", home)

	got, err := FindJVMLibrary()
	if err != nil {
		t.Skipf("platform library name differs: %v", err)
	}
	if got != lib {
		t.Fatalf("FindJVMLibrary = %q, want %q", got, lib)
	}
}

func TestConfigShape(t *testing.T) {
	src := `
jvm_path  = "/opt/jdk/lib/server/libjvm.so"
classpath = ["build/classes", "lib/helper.jar"]
options   = ["-Xmx256m", "-Xcheck:jni"]
`
	var c Config
	if err := toml.Unmarshal([]byte(src), &c); err != nil {
		t.Fatal(err)
	}
	if c.JVMPath != "/opt/jdk/lib/server/libjvm.so" {
		t.Fatalf("jvm_path = %q", c.JVMPath)
	}
	if len(c.Classpath) != 2 || c.Classpath[1] != "lib/helper.jar" {
		t.Fatalf("classpath = %v", c.Classpath)
	}
	if len(c.Options) != 2 || c.Options[0] != "-Xmx256m" {
		t.Fatalf("options = %v", c.Options)
	}
}

func TestSetConfigOverrides(t *testing.T) {
	SetConfig(Config{JVMPath: "/override/libjvm.so"})
	defer SetConfig(Config{})

	if got := LoadedConfig().JVMPath; got != "/override/libjvm.so" {
		t.Fatalf("LoadedConfig().JVMPath = %q", got)
	}
	if ConfigError() != nil {
		t.Fatal("SetConfig left a config error")
	}
}

func TestVMInitArgsLayout(t *testing.T) {
	// JavaVMInitArgs on LP64: jint version, jint nOptions, pointer options,
	// jboolean ignoreUnrecognized, padded to pointer alignment.
	if s := unsafe.Sizeof(jniVMInitArgs{}); s != 24 {
		t.Fatalf("sizeof(jniVMInitArgs) = %d, want 24", s)
	}
	if s := unsafe.Sizeof(jniVMOption{}); s != 16 {
		t.Fatalf("sizeof(jniVMOption) = %d, want 16", s)
	}
}
