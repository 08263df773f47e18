// Package platform provides platform detection and JVM installation
// discovery for jnigo. It determines shared-library naming and the
// directories where a Java runtime is likely to be installed.
package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"unsafe"
)

// Is64Bit indicates whether the platform is 64-bit.
// jnigo only supports 64-bit platforms due to purego limitations.
const Is64Bit = unsafe.Sizeof(uintptr(0)) == 8

// LibraryExtension is the file extension for shared libraries on this platform.
var LibraryExtension string

// LibraryPrefix is the prefix for shared library names on this platform.
var LibraryPrefix string

func init() {
	switch runtime.GOOS {
	case "darwin":
		LibraryExtension = ".dylib"
		LibraryPrefix = "lib"
	case "windows":
		LibraryExtension = ".dll"
		LibraryPrefix = ""
	default: // linux, freebsd, android
		LibraryExtension = ".so"
		LibraryPrefix = "lib"
	}
}

// JVMLibraryName returns the platform-specific filename of the JVM runtime
// library ("libjvm.so", "libjvm.dylib", "jvm.dll").
func JVMLibraryName() string {
	return LibraryPrefix + "jvm" + LibraryExtension
}

// JVMLibrarySubdirs returns the subdirectories of a Java home where the
// runtime library is placed, in preference order.
func JVMLibrarySubdirs() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			filepath.Join("bin", "server"),
			filepath.Join("bin", "client"),
			"bin",
		}
	default:
		return []string{
			filepath.Join("lib", "server"),
			filepath.Join("lib", "client"),
			// JDK 8 layout
			filepath.Join("jre", "lib", "amd64", "server"),
			filepath.Join("jre", "lib", "aarch64", "server"),
			"lib",
		}
	}
}

// JavaHomeCandidates returns possible Java installation roots, most
// specific first. JAVA_HOME, when set, is always the first entry.
func JavaHomeCandidates() []string {
	var homes []string

	if home := os.Getenv("JAVA_HOME"); home != "" {
		homes = append(homes, home)
	}

	switch runtime.GOOS {
	case "linux":
		homes = append(homes, globDirs(
			"/usr/lib/jvm/*",
			"/usr/java/*",
			"/opt/java/*",
		)...)

	case "darwin":
		homes = append(homes, globDirs(
			"/Library/Java/JavaVirtualMachines/*/Contents/Home",
			"/opt/homebrew/opt/openjdk*/libexec/openjdk.jdk/Contents/Home",
			"/usr/local/opt/openjdk*/libexec/openjdk.jdk/Contents/Home",
		)...)

	case "windows":
		homes = append(homes, globDirs(
			`C:\Program Files\Java\*`,
			`C:\Program Files\Eclipse Adoptium\*`,
			`C:\Program Files (x86)\Java\*`,
		)...)

	case "freebsd":
		homes = append(homes, globDirs("/usr/local/openjdk*")...)
	}

	return homes
}

func globDirs(patterns ...string) []string {
	var dirs []string
	for _, pat := range patterns {
		matches, err := filepath.Glob(pat)
		if err != nil {
			continue
		}
		for _, m := range matches {
			if fi, err := os.Stat(m); err == nil && fi.IsDir() {
				dirs = append(dirs, m)
			}
		}
	}
	return dirs
}

// GOOS returns the current operating system.
func GOOS() string {
	return runtime.GOOS
}

// GOARCH returns the current architecture.
func GOARCH() string {
	return runtime.GOARCH
}
