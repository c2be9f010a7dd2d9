package libpython

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"
)

const outDirLockName = ".libpython.lock"

// Stage names used in logs and metrics.
const (
	stageGenerate  = "generate"
	stageStage     = "stage"
	stagePlatform  = "platform"
	stageEmbedded  = "pyembeddedconfig"
	stageLibpython = "pythonXY"
	stageProbe     = "probe"
	stageEmit      = "emit"
)

// Options customizes a LinkLibpython invocation. The zero value is usable.
type Options struct {
	// Logger receives progress logs. Defaults to the logrus standard logger.
	Logger *log.Entry

	// TmpBaseDir is where the staging directory is created.
	// Defaults to LIBPYTHON_TMP_DIR, then the system temp dir.
	TmpBaseDir string

	// Factory selects the toolchain. Defaults to NewToolchainFactory().
	Factory *ToolchainFactory

	// Metrics records stage durations and outcomes when non-nil.
	Metrics *Metrics

	// Env is added to the environment of every tool process.
	Env map[string]string
}

// build carries the state of one LinkLibpython invocation.
type build struct {
	ctx    context.Context
	logger *log.Entry
	opts   Options

	context  *BuildContext
	platform *PlatformContext
	outDir   string
}

// LinkLibpython assembles a static libpython and its inittab library in
// outDir and returns the linker directives a final link must apply.
//
// # Process Flow
//
//  1. Validate the platform context (no file or process is touched on failure)
//  2. Generate config.c from the init functions
//  3. Stage config.c and the includes in a fresh temporary directory
//  4. Resolve the platform, including the Apple SDK when targeting Apple
//  5. Compile config.c into the pyembeddedconfig library
//  6. Archive the object files into the pythonXY library
//  7. On macOS, probe clang for the runtime library search path
//  8. Emit the ordered directives
//
// Any failure stops the pipeline. The staging directory is removed on every
// exit path. The context is checked between stages, and canceling it kills a
// running compiler or archiver.
//
// outDir keeps a .libpython.lock file after the call returns; it serializes
// concurrent builds into the same directory.
func LinkLibpython(ctx context.Context, bc *BuildContext, pc *PlatformContext, outDir string, opts Options) (*BuildResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	if opts.Factory == nil {
		opts.Factory = NewToolchainFactory()
	}

	var target string
	if pc != nil {
		target = pc.TargetTriple
	}

	b := &build{
		ctx: ctx,
		logger: logger.WithFields(log.Fields{
			"build":  uuid.New().String(),
			"target": target,
		}),
		opts:     opts,
		context:  bc,
		platform: pc,
		outDir:   outDir,
	}

	result, err := b.run()
	opts.Metrics.recordBuild(target, err)
	if err != nil {
		b.logger.WithError(err).Error("libpython build failed")
		return nil, err
	}
	b.logger.WithField("libpython", result.LibpythonPath).Info("libpython build finished")
	return result, nil
}

func (b *build) run() (result *BuildResult, retErr error) {
	if b.platform == nil {
		return nil, &ConfigError{Reason: "platform context is required"}
	}
	if err := b.platform.Validate(); err != nil {
		return nil, err
	}
	if b.context == nil {
		return nil, &ConfigError{Reason: "build context is required"}
	}
	if b.outDir == "" {
		return nil, &ConfigError{Reason: "output directory is required"}
	}

	if err := os.MkdirAll(b.outDir, 0o755); err != nil {
		return nil, &StagingError{Path: b.outDir, Err: err}
	}
	lock := flock.New(filepath.Join(b.outDir, outDirLockName))
	if err := lock.Lock(); err != nil {
		return nil, &StagingError{Path: lock.Path(), Err: err}
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			b.logger.WithError(err).Warn("failed to release output directory lock")
		}
	}()

	var source string
	if err := b.stage(stageGenerate, func() error {
		source = MakeConfigC(b.context.InitFunctions)
		return nil
	}); err != nil {
		return nil, err
	}

	staging, err := NewStaging(b.opts.TmpBaseDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		cerr := staging.Close()
		if cerr == nil {
			return
		}
		if retErr != nil {
			b.logger.WithError(cerr).Warn("failed to remove staging directory")
			return
		}
		result = nil
		retErr = multierror.Append(retErr, cerr)
	}()
	b.logger.WithField("staging", staging.Dir).Debug("created staging directory")

	var configC string
	if err := b.stage(stageStage, func() error {
		var err error
		if configC, err = staging.WriteConfigC(source, b.outDir); err != nil {
			return err
		}
		return staging.StageIncludes(b.context.Includes)
	}); err != nil {
		return nil, err
	}

	platform := ResolvePlatform(b.platform.TargetTriple)
	var (
		toolchain Toolchain
		sysroot   []string
	)
	if err := b.stage(stagePlatform, func() error {
		if platform.Apple {
			sdk, err := ResolveAppleSDK(b.ctx, b.logger, b.platform.AppleSDK)
			if err != nil {
				return err
			}
			sysroot = []string{"-isysroot", sdk.Path}
		}

		var err error
		if toolchain, err = b.opts.Factory.ToolchainFor(platform); err != nil {
			return &ConfigError{Reason: "selecting toolchain", Err: err}
		}
		if checker, ok := toolchain.(ToolChecker); ok {
			if err := checker.CheckTools(platform, b.platform.HostTriple); err != nil {
				return &ToolchainError{Pass: toolchain.Name(), Err: err}
			}
		}
		b.logger.WithField("toolchain", toolchain.Name()).Debug("selected toolchain")
		return nil
	}); err != nil {
		return nil, err
	}

	result = &BuildResult{}

	embedded := b.passConfig(embeddedConfigLibName, platform, staging.Dir)
	embedded.Sources = []string{configC}
	embedded.IncludeDirs = []string{staging.Dir}
	embedded.Flags = append(append([]string{}, b.context.InittabCFlags...), sysroot...)
	if err := b.stage(stageEmbedded, func() error {
		res, err := toolchain.Compile(b.ctx, embedded)
		if res != nil {
			result.Output = append(result.Output, res.Output...)
		}
		if err != nil {
			return err
		}
		result.LibpyembeddedconfigPath = res.Archive
		return nil
	}); err != nil {
		return nil, err
	}

	if err := b.stage(stageLibpython, func() error {
		objects, err := staging.MaterializeObjects(b.context.ObjectFiles, platform.ObjectSuffix())
		if err != nil {
			return err
		}
		libpython := b.passConfig(libpythonName, platform, staging.Dir)
		libpython.Objects = objects
		libpython.Flags = sysroot

		res, err := toolchain.Compile(b.ctx, libpython)
		if res != nil {
			result.Output = append(result.Output, res.Output...)
		}
		if err != nil {
			return err
		}
		result.LibpythonPath = res.Archive
		return nil
	}); err != nil {
		return nil, err
	}

	if err := b.stage(stageProbe, func() error {
		if platform.MacOS {
			result.ClangProbe = probeClangSearchPath(b.ctx, b.logger)
		} else {
			b.logger.Debug("clang runtime library probe not attempted for non-macOS target")
		}
		b.opts.Metrics.recordProbe(result.ClangProbe)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := b.stage(stageEmit, func() error {
		result.Directives = emitDirectives(linkInputs{
			context:  b.context,
			platform: platform,
			outDir:   b.outDir,
			probe:    result.ClangProbe,
		})
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// stage runs fn as a named pipeline stage unless the context is done.
func (b *build) stage(name string, fn func() error) error {
	if err := b.ctx.Err(); err != nil {
		return fmt.Errorf("aborted before %s: %w", name, err)
	}

	logger := b.logger.WithField("stage", name)
	logger.Debug("starting stage")

	start := time.Now()
	err := fn()
	b.opts.Metrics.observeStage(name, start)

	if err != nil {
		logger.WithError(err).Debug("stage failed")
	}
	return err
}

func (b *build) passConfig(archiveName string, platform Platform, workDir string) *PassConfig {
	return &PassConfig{
		Name:        archiveName,
		ArchiveName: archiveName,
		OutDir:      b.outDir,
		WorkDir:     workDir,
		Host:        b.platform.HostTriple,
		Target:      b.platform.TargetTriple,
		OptLevel:    b.platform.OptLevel,
		Platform:    platform,
		Env:         b.opts.Env,
	}
}
