// Package shimclass locates the compiled invocation-handler shim class.
//
// The shim (jnigo/helper/InvocHdl) is a tiny Java class whose only job is
// to forward every proxy method call to a native entry point together with
// a 64-bit handler ID. It is built externally from shim/InvocHdl.java:
//
//	cd shim && ./build.sh
//
// The class bytes are found, in order:
//  1. bytes injected with SetClassData (callers typically go:embed their
//     build of InvocHdl.class),
//  2. the file named by the JNIGO_SHIM_PATH environment variable,
//  3. InvocHdl.class next to the executable or in the working directory.
//
// When no bytes are available the caller can still resolve the class via
// FindClass if the artifact was put on the JVM classpath.
package shimclass

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// BinaryName is the shim class name in internal (slash) form.
const BinaryName = "jnigo/helper/InvocHdl"

// NativeMethodName is the native method the dispatcher is registered on.
const NativeMethodName = "nativeHdl"

// NativeMethodSig is the JNI signature of the native dispatch method.
const NativeMethodSig = "(JLjava/lang/reflect/Method;[Ljava/lang/Object;)Ljava/lang/Object;"

// ErrNotFound is returned when no shim class bytes can be located.
var ErrNotFound = errors.New("jnigo: shim class not found; build shim/InvocHdl.java or add it to the classpath")

var (
	mu       sync.Mutex
	injected []byte
)

// SetClassData injects the compiled class bytes, taking precedence over
// file discovery. Pass nil to revert to discovery.
func SetClassData(data []byte) {
	mu.Lock()
	defer mu.Unlock()
	injected = data
}

// ClassData returns the compiled shim class bytes, or ErrNotFound.
func ClassData() ([]byte, error) {
	mu.Lock()
	if injected != nil {
		data := injected
		mu.Unlock()
		return data, nil
	}
	mu.Unlock()

	for _, path := range searchPaths() {
		data, err := os.ReadFile(path)
		if err == nil && len(data) > 0 {
			return data, nil
		}
	}
	return nil, ErrNotFound
}

func searchPaths() []string {
	var paths []string
	if p := os.Getenv("JNIGO_SHIM_PATH"); p != "" {
		paths = append(paths, p)
	}
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), "InvocHdl.class"))
	}
	paths = append(paths, "InvocHdl.class")
	return paths
}
