package libpython

import (
	"os"
	"strings"
)

// Library names of the two archives the pipeline produces.
//
// pythonXY is a fixed name on purpose: Python headers on Windows request
// pythonXY.lib through #pragma comment(lib), and a real python3N.lib found via
// the environment must never satisfy that request.
const (
	libpythonName         = "pythonXY"
	embeddedConfigLibName = "pyembeddedconfig"
	clangRuntimeLibName   = "clang_rt.osx"
)

// Platform is the target-dependent behavior derived from a target triple.
type Platform struct {
	Triple  string
	Windows bool // Windows naming (.lib), any ABI
	MSVC    bool // MSVC toolchain (cl.exe/lib.exe)
	Apple   bool // Any Apple OS, needs an SDK
	MacOS   bool // macOS, needs the clang runtime library
}

// ResolvePlatform derives platform behavior from a target triple.
func ResolvePlatform(target string) Platform {
	return Platform{
		Triple:  target,
		Windows: strings.Contains(target, "-windows"),
		MSVC:    strings.HasSuffix(target, "-windows-msvc"),
		Apple:   strings.Contains(target, "-apple-"),
		MacOS:   strings.HasSuffix(target, "-apple-darwin"),
	}
}

// LibraryFileName returns the file name of a static library on this platform.
func (p Platform) LibraryFileName(name string) string {
	if p.Windows {
		return name + ".lib"
	}
	return "lib" + name + ".a"
}

// LibpythonFileName returns the file name of the static Python library.
func (p Platform) LibpythonFileName() string {
	return p.LibraryFileName(libpythonName)
}

// EmbeddedConfigFileName returns the file name of the inittab library.
func (p Platform) EmbeddedConfigFileName() string {
	return p.LibraryFileName(embeddedConfigLibName)
}

// ObjectSuffix returns the object file extension the platform's compiler emits.
func (p Platform) ObjectSuffix() string {
	if p.MSVC {
		return ".obj"
	}
	return ".o"
}

// Cross reports whether host and target differ.
func (p Platform) Cross(host string) bool {
	return host != "" && host != p.Triple
}

// envForTarget looks up a cargo/cc style per-target variable.
//
// For key CC and target aarch64-apple-darwin it checks, in order,
// CC_aarch64-apple-darwin, CC_aarch64_apple_darwin, TARGET_CC and CC.
func envForTarget(key, target string) string {
	candidates := []string{
		key + "_" + target,
		key + "_" + strings.ReplaceAll(target, "-", "_"),
		"TARGET_" + key,
		key,
	}
	for _, name := range candidates {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}
