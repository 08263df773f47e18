// Package bindings handles locating and loading the JVM runtime library and
// owning the process-wide JavaVM handle.
//
// A process has at most one JavaVM. It is either created here through
// JNI_CreateJavaVM, discovered through JNI_GetCreatedJavaVMs (when Go code
// is loaded into an existing JVM process), or injected by an embedding host
// via SetVM (Android, gomobile).
package bindings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/obinnaokechukwu/jnigo/internal/platform"
	"github.com/obinnaokechukwu/jnigo/jni"
)

// ErrNotLoaded is returned when JNI functions are called before Load().
var ErrNotLoaded = errors.New("jnigo: JVM library not loaded; call jnigo.Init() first")

// ErrLibraryNotFound is returned when no JVM runtime library can be found.
var ErrLibraryNotFound = errors.New("jnigo: JVM library not found")

// ErrNoVM is returned when no JavaVM exists and one cannot be created.
var ErrNoVM = errors.New("jnigo: no JavaVM available")

var (
	libJVM   uintptr
	loaded   bool
	loadOnce sync.Once
	loadErr  error

	// Invocation-API entry points, resolved from libjvm.
	fnCreateJavaVM      uintptr
	fnGetCreatedJavaVMs uintptr

	vmMu sync.Mutex
	vm   jni.VM
)

// IsLoaded returns true if the JVM library has been successfully loaded.
func IsLoaded() bool {
	return loaded
}

// Load locates and loads the JVM runtime library and resolves the
// invocation API. It is safe to call multiple times; subsequent calls are
// no-ops. When the VM was injected with SetVM, Load is not required.
func Load() error {
	loadOnce.Do(func() {
		loadErr = doLoad()
		if loadErr == nil {
			loaded = true
		}
	})
	return loadErr
}

func doLoad() error {
	path, err := FindJVMLibrary()
	if err != nil {
		return err
	}

	lib, err := openLibrary(path)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	libJVM = lib

	fnCreateJavaVM, err = getSymbol(lib, "JNI_CreateJavaVM")
	if err != nil {
		return fmt.Errorf("resolving JNI_CreateJavaVM: %w", err)
	}
	fnGetCreatedJavaVMs, err = getSymbol(lib, "JNI_GetCreatedJavaVMs")
	if err != nil {
		return fmt.Errorf("resolving JNI_GetCreatedJavaVMs: %w", err)
	}
	return nil
}

// FindJVMLibrary returns the full path of the JVM runtime library. The
// search order is: the JNIGO_JVM_PATH environment variable, the config
// file's jvm_path, then every known Java home combined with the
// platform-specific library subdirectories.
func FindJVMLibrary() (string, error) {
	if p := os.Getenv("JNIGO_JVM_PATH"); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("%w: JNIGO_JVM_PATH=%s does not exist", ErrLibraryNotFound, p)
	}

	cfg := LoadedConfig()
	if cfg.JVMPath != "" {
		if _, err := os.Stat(cfg.JVMPath); err == nil {
			return cfg.JVMPath, nil
		}
		return "", fmt.Errorf("%w: configured jvm_path %s does not exist", ErrLibraryNotFound, cfg.JVMPath)
	}

	libName := platform.JVMLibraryName()
	for _, home := range platform.JavaHomeCandidates() {
		for _, sub := range platform.JVMLibrarySubdirs() {
			full := filepath.Join(home, sub, libName)
			if _, err := os.Stat(full); err == nil {
				return full, nil
			}
		}
	}
	return "", fmt.Errorf("%w: set JAVA_HOME or JNIGO_JVM_PATH", ErrLibraryNotFound)
}

// SetVM injects a JavaVM owned by an embedding host (for example a gomobile
// or Android app where the VM already exists). It takes precedence over
// discovery and creation.
func SetVM(v jni.VM) {
	vmMu.Lock()
	defer vmMu.Unlock()
	vm = v
}

// jniVMInitArgs mirrors the C JavaVMInitArgs struct on 64-bit targets.
type jniVMInitArgs struct {
	version            int32
	nOptions           int32
	options            uintptr
	ignoreUnrecognized uint8
	_                  [7]byte
}

// jniVMOption mirrors the C JavaVMOption struct.
type jniVMOption struct {
	optionString uintptr
	extraInfo    uintptr
}

// VMFor returns the process JavaVM, in order of preference: one injected
// with SetVM, one already created in this process, or a freshly created VM
// configured from the loaded config.
func VMFor() (jni.VM, error) {
	vmMu.Lock()
	defer vmMu.Unlock()
	if vm != 0 {
		return vm, nil
	}
	if err := Load(); err != nil {
		return 0, err
	}
	if existing, err := existingVMLocked(); err == nil && existing != 0 {
		vm = existing
		return vm, nil
	}
	created, err := createVMLocked(LoadedConfig())
	if err != nil {
		return 0, err
	}
	vm = created
	return vm, nil
}

func existingVMLocked() (jni.VM, error) {
	var out jni.VM
	var count int32
	r, _, _ := purego.SyscallN(fnGetCreatedJavaVMs,
		uintptr(unsafe.Pointer(&out)), 1, uintptr(unsafe.Pointer(&count)))
	if err := jni.NewStatusError(int32(r), "JNI_GetCreatedJavaVMs"); err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, ErrNoVM
	}
	return out, nil
}

func createVMLocked(cfg Config) (jni.VM, error) {
	optStrings := cfg.Options
	if len(cfg.Classpath) > 0 {
		cp := strings.Join(cfg.Classpath, string(filepath.ListSeparator))
		optStrings = append(optStrings, "-Djava.class.path="+cp)
	}

	opts := make([]jniVMOption, 0, len(optStrings))
	keep := make([][]byte, 0, len(optStrings))
	for _, s := range optStrings {
		b := append([]byte(s), 0)
		keep = append(keep, b)
		opts = append(opts, jniVMOption{optionString: uintptr(unsafe.Pointer(&b[0]))})
	}

	args := jniVMInitArgs{
		version:            jni.Version16,
		nOptions:           int32(len(opts)),
		ignoreUnrecognized: 1,
	}
	if len(opts) > 0 {
		args.options = uintptr(unsafe.Pointer(&opts[0]))
	}

	var newVM jni.VM
	var env jni.Env
	r, _, _ := purego.SyscallN(fnCreateJavaVM,
		uintptr(unsafe.Pointer(&newVM)),
		uintptr(unsafe.Pointer(&env)),
		uintptr(unsafe.Pointer(&args)))
	runtime.KeepAlive(opts)
	runtime.KeepAlive(keep)
	runtime.KeepAlive(args)
	if err := jni.NewStatusError(int32(r), "JNI_CreateJavaVM"); err != nil {
		return 0, err
	}
	return newVM, nil
}

// AttachCurrentEnv returns the JNI environment of the calling OS thread,
// attaching the thread to the VM first if needed. The attachment is
// permanent, mirroring the behavior expected by long-lived native threads;
// callers should hold runtime.LockOSThread while using the Env.
func AttachCurrentEnv() (jni.Env, error) {
	v, err := VMFor()
	if err != nil {
		return 0, err
	}
	env, err := v.GetEnv(jni.Version16)
	if err == nil {
		return env, nil
	}
	if jni.Status(err) != jni.EDetached {
		return 0, err
	}
	return v.AttachCurrentThread()
}

// LibJVM returns the raw library handle, for diagnostics.
func LibJVM() uintptr {
	return libJVM
}
