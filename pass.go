package libpython

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// PassSteps defines the compile → archive pattern shared by toolchains.
//
// Every toolchain follows the same shape:
//  1. Compile: turn each source into an object file
//  2. Archive: pack the new objects and the prebuilt ones into a library
//
// This structure lets toolchains implement the pattern consistently while
// customizing the command lines of each step.
type PassSteps struct {
	// CompileFunc compiles one source file into object.
	CompileFunc func(ctx context.Context, cfg *PassConfig, source, object string, result *PassResult) error

	// ArchiveFunc packs objects into archive.
	ArchiveFunc func(ctx context.Context, cfg *PassConfig, archive string, objects []string, result *PassResult) error
}

// runPass executes a compile → archive pass.
//
// # Process Flow
//
//  1. Compile every source in cfg.Sources into cfg.WorkDir
//  2. Remove a stale archive left by an earlier build
//  3. Archive the compiled objects followed by cfg.Objects
//  4. Verify the archive exists
//
// If any step fails, processing stops and the error is returned with
// Success=false. A failed pass never yields a usable archive.
func runPass(ctx context.Context, cfg *PassConfig, steps PassSteps) (*PassResult, error) {
	result := &PassResult{
		Success: false,
		Output:  []string{},
	}

	fail := func(err error) (*PassResult, error) {
		err = &ToolchainError{Pass: cfg.Name, Err: err}
		result.Error = err
		return result, err
	}

	// Step 1: Compile sources
	objects := make([]string, 0, len(cfg.Sources)+len(cfg.Objects))
	for i, source := range cfg.Sources {
		object := filepath.Join(cfg.WorkDir, objectName(i, source, cfg.Platform))
		if err := steps.CompileFunc(ctx, cfg, source, object, result); err != nil {
			return fail(err)
		}
		objects = append(objects, object)
	}
	objects = append(objects, cfg.Objects...)

	if len(objects) == 0 {
		return fail(fmt.Errorf("no objects to archive"))
	}

	// Step 2: Archivers append to existing archives, start fresh
	archive := cfg.ArchivePath()
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return fail(err)
	}
	if err := os.Remove(archive); err != nil && !os.IsNotExist(err) {
		return fail(err)
	}

	// Step 3: Archive
	if err := steps.ArchiveFunc(ctx, cfg, archive, objects, result); err != nil {
		return fail(err)
	}

	// Step 4: Verify
	if _, err := os.Stat(archive); err != nil {
		return fail(BuildError(cfg.Name, result.Output, fmt.Errorf("archive %s not produced", archive)))
	}

	result.Archive = archive
	result.Success = true
	return result, nil
}

// objectName derives a unique object file name for the i-th source.
func objectName(i int, source string, p Platform) string {
	base := filepath.Base(source)
	base = base[:len(base)-len(filepath.Ext(base))]
	return fmt.Sprintf("%s.%d%s", base, i, p.ObjectSuffix())
}

// runTool runs a toolchain program and records its output on result.
func runTool(ctx context.Context, cfg *PassConfig, step string, program []string, args []string, result *PassResult) error {
	argv := append(append([]string{}, program[1:]...), args...)

	out, err := execCapture(ctx, cfg.Env, program[0], argv...)
	result.Output = append(result.Output, out.Lines...)

	if !out.Ran {
		return BuildError(step, result.Output, fmt.Errorf("%s could not be started: %w", program[0], err))
	}
	if err != nil {
		return BuildError(step, result.Output, err)
	}
	return nil
}
