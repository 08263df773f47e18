package platform

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestJVMLibraryName(t *testing.T) {
	name := JVMLibraryName()
	switch runtime.GOOS {
	case "windows":
		if name != "jvm.dll" {
			t.Fatalf("JVMLibraryName = %q", name)
		}
	case "darwin":
		if name != "libjvm.dylib" {
			t.Fatalf("JVMLibraryName = %q", name)
		}
	default:
		if name != "libjvm.so" {
			t.Fatalf("JVMLibraryName = %q", name)
		}
	}
}

func TestJVMLibrarySubdirsPreferServer(t *testing.T) {
	subs := JVMLibrarySubdirs()
	if len(subs) == 0 {
		t.Fatal("no library subdirectories")
	}
	if !strings.HasSuffix(subs[0], "server") {
		t.Fatalf("first subdir = %q, want the server VM", subs[0])
	}
	for _, s := range subs {
		if filepath.IsAbs(s) {
			t.Fatalf("subdir %q is absolute, want relative to a Java home", s)
		}
	}
}

func TestJavaHomeCandidatesHonorsJavaHome(t *testing.T) {
	t.Setenv("JAVA_HOME", "/custom/jdk")
	homes := JavaHomeCandidates()
	if len(homes) == 0 || homes[0] != "/custom/jdk" {
		t.Fatalf("JAVA_HOME not first: %v", homes)
	}
}

func TestGlobDirsSkipsFiles(t *testing.T) {
	dir := t.TempDir()
	if got := globDirs(filepath.Join(dir, "*")); len(got) != 0 {
		t.Fatalf("empty dir matched %v", got)
	}
}
