package libpython

import (
	"context"
	"path/filepath"
)

// Toolchain defines the interface every native compiler/archiver pair implements.
//
// A toolchain turns a PassConfig into a static library. It holds no state
// between calls: everything a pass needs is in its PassConfig, and the same
// toolchain value is used for both passes of a build.
//
// # Toolchain Lifecycle
//
//  1. CanTarget() - ToolchainFactory calls this to pick a toolchain for a target
//  2. CheckTools() - the pipeline verifies tools before the first pass
//  3. Compile() - called once per pass
//
// # Example Implementation
//
//	type MyToolchain struct{}
//
//	func (t *MyToolchain) Name() string {
//	    return "MyCompiler"
//	}
//
//	func (t *MyToolchain) CanTarget(p Platform) bool {
//	    return strings.HasPrefix(p.Triple, "riscv64-")
//	}
//
//	func (t *MyToolchain) Compile(ctx context.Context, cfg *PassConfig) (*PassResult, error) {
//	    return runPass(ctx, cfg, PassSteps{...})
//	}
type Toolchain interface {
	// Name returns the human-readable name of this toolchain.
	//
	// This name is used in error messages and logs.
	// Examples: "GNU", "MSVC", "Zig"
	Name() string

	// CanTarget reports whether this toolchain can build for the platform.
	CanTarget(p Platform) bool

	// Compile runs one pass: compile cfg.Sources, then archive the
	// resulting objects together with cfg.Objects into
	// cfg.OutDir/cfg.Platform.LibraryFileName(cfg.ArchiveName).
	// Canceling ctx kills the running tool process.
	//
	// Returns:
	//   - PassResult with Success=true and Archive set on success
	//   - PassResult with Success=false and Error on failure
	Compile(ctx context.Context, cfg *PassConfig) (*PassResult, error)
}

// PassConfig is the complete, immutable description of one toolchain pass.
//
// It is built once from the BuildContext and PlatformContext and never
// modified afterwards; each pass gets its own value.
type PassConfig struct {
	Name        string // pass name for logs and errors
	ArchiveName string // library name without platform prefix/suffix

	OutDir  string // where the archive is written
	WorkDir string // where intermediate objects are written

	Host     string
	Target   string
	OptLevel string
	Platform Platform

	Flags       []string // extra compiler flags, in order
	IncludeDirs []string
	Sources     []string // C sources to compile
	Objects     []string // prebuilt objects to archive as-is

	Env map[string]string // extra environment for tool processes
}

// ArchivePath returns the path of the library this pass produces.
func (c *PassConfig) ArchivePath() string {
	return filepath.Join(c.OutDir, c.Platform.LibraryFileName(c.ArchiveName))
}

// PassResult contains the output and status of a toolchain pass.
type PassResult struct {
	Success bool     // True if the archive was produced
	Output  []string // Lines of output from the compiler and archiver
	Archive string   // Path to the produced archive
	Error   error    // Error if the pass failed, nil otherwise
}
