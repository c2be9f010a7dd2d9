package libpython

import (
	"fmt"
	"os"

	"dario.cat/mergo"
)

// nullSymbol is the legacy spelling of "no init function" in extension lists.
const nullSymbol = "NULL"

// InitSymbol is the name of a C initialization function for a built-in
// extension, or the absence of one.
//
// Extensions such as sys and builtins are registered in the inittab without
// an init function. Those entries use NoInit; everything else uses Symbol.
type InitSymbol struct {
	name string
}

// NoInit marks an extension that is registered without an init function.
var NoInit = InitSymbol{}

// Symbol returns an InitSymbol for the given C function name.
//
// The legacy sentinel "NULL" and the empty string both map to NoInit, so a
// symbol named NULL can never be declared extern.
func Symbol(name string) InitSymbol {
	if name == nullSymbol {
		return NoInit
	}
	return InitSymbol{name: name}
}

// Present reports whether the extension has an init function.
func (s InitSymbol) Present() bool {
	return s.name != ""
}

// Name returns the C function name, or "" for NoInit.
func (s InitSymbol) Name() string {
	return s.name
}

// String renders the symbol the way it appears in a C table row.
func (s InitSymbol) String() string {
	if !s.Present() {
		return nullSymbol
	}
	return s.name
}

// InitFunction pairs an extension module name with its init function.
type InitFunction struct {
	Name string     // Extension module name as seen by the import system
	Init InitSymbol // Init function, or NoInit
}

// FileData is file content that is either held in memory or lives on disk.
//
// Object files produced by earlier build steps are usually in memory, while
// files from a Python distribution are referenced by path.
type FileData struct {
	data   []byte
	path   string
	inline bool
}

// FileDataFromBytes returns FileData backed by the given bytes.
func FileDataFromBytes(data []byte) FileData {
	return FileData{data: data, inline: true}
}

// FileDataFromPath returns FileData backed by an existing file.
func FileDataFromPath(path string) FileData {
	return FileData{path: path}
}

// Path returns the on-disk path and true if the data is file backed.
func (d FileData) Path() (string, bool) {
	if d.inline {
		return "", false
	}
	return d.path, true
}

// Resolve returns the content, reading it from disk if needed.
func (d FileData) Resolve() ([]byte, error) {
	if d.inline {
		return d.data, nil
	}
	data, err := os.ReadFile(d.path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", d.path, err)
	}
	return data, nil
}

// BuildContext describes everything that must end up in the static libpython.
//
// The context is produced by the resource resolution layer and handed to
// LinkLibpython as a whole:
//
// Registration:
//   - InitFunctions: built-in extensions, in inittab order
//   - InittabCFlags: extra compiler flags for the generated config.c
//
// Inputs:
//   - Includes: headers keyed by path relative to the include root
//   - ObjectFiles: objects archived into the Python library
//
// Link requirements (each kept in input order):
//   - Frameworks: Apple frameworks
//   - SystemLibraries, DynamicLibraries: linked by name
//   - StaticLibraries: linked with the static form
//   - LibrarySearchPaths: extra native search directories
//
// The pipeline never mutates a BuildContext.
type BuildContext struct {
	InitFunctions []InitFunction
	Includes      map[string]FileData
	ObjectFiles   []FileData

	Frameworks       []string
	SystemLibraries  []string
	DynamicLibraries []string
	StaticLibraries  []string

	LibrarySearchPaths []string
	InittabCFlags      []string
}

// AppleSDKInfo identifies which Apple SDK to compile against.
type AppleSDKInfo struct {
	// Platform is the SDK platform name, e.g. "macosx" or "iphoneos".
	Platform string `json:"platform" yaml:"platform" validate:"required"`

	// Version is the minimum SDK version, e.g. "11.0".
	Version string `json:"version" yaml:"version" validate:"required"`

	// DeploymentTarget is the minimum OS version the binary targets.
	DeploymentTarget string `json:"deploymentTarget" yaml:"deploymentTarget"`
}

// PlatformContext describes the host and target of a build.
type PlatformContext struct {
	HostTriple   string        `json:"host" yaml:"host"`
	TargetTriple string        `json:"target" yaml:"target"`
	OptLevel     string        `json:"optLevel" yaml:"optLevel"`
	AppleSDK     *AppleSDKInfo `json:"appleSdk,omitempty" yaml:"appleSdk,omitempty"`
}

// PlatformContextFromEnv reads the cargo build script variables HOST, TARGET
// and OPT_LEVEL.
func PlatformContextFromEnv() PlatformContext {
	return PlatformContext{
		HostTriple:   os.Getenv("HOST"),
		TargetTriple: os.Getenv("TARGET"),
		OptLevel:     os.Getenv("OPT_LEVEL"),
	}
}

// ApplyDefaults fills empty fields from defaults. Fields already set win.
func (p *PlatformContext) ApplyDefaults(defaults PlatformContext) error {
	if err := mergo.Merge(p, defaults); err != nil {
		return &ConfigError{Reason: "merging platform defaults", Err: err}
	}
	return nil
}

// Validate checks the platform context before anything is staged or compiled.
func (p *PlatformContext) Validate() error {
	if p.TargetTriple == "" {
		return &ConfigError{Reason: "target triple is required"}
	}
	if p.HostTriple == "" {
		return &ConfigError{Reason: "host triple is required"}
	}
	if ResolvePlatform(p.TargetTriple).Apple && p.AppleSDK == nil {
		return &ConfigError{Reason: "Apple SDK info should be defined when targeting Apple platforms"}
	}
	return nil
}

// BuildResult contains the artifacts and link requirements of a build.
//
// After LinkLibpython completes, this structure provides:
//   - LibpythonPath: the static Python library (pythonXY)
//   - LibpyembeddedconfigPath: the static library holding the inittab
//   - Directives: linker directives, in the order they must be applied
//   - ClangProbe: outcome of the macOS runtime library search path probe
//   - Output: lines printed by the toolchain
type BuildResult struct {
	LibpythonPath           string
	LibpyembeddedconfigPath string
	Directives              []Directive
	ClangProbe              ClangProbe
	Output                  []string
}

// DirectiveStrings renders every directive in order.
func (r *BuildResult) DirectiveStrings() []string {
	out := make([]string, 0, len(r.Directives))
	for _, d := range r.Directives {
		out = append(out, d.String())
	}
	return out
}
