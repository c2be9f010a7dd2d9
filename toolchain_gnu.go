package libpython

import (
	"context"
	"path/filepath"
	"strings"
)

// GNUToolchain drives cc/clang/gcc together with ar.
//
// It handles every non-MSVC target: Linux, the BSDs, Apple platforms and
// MinGW. When host and target differ and no compiler is configured, clang is
// used with --target together with llvm-ar.
type GNUToolchain struct{}

// Name returns the toolchain name
func (t *GNUToolchain) Name() string {
	return "GNU"
}

// CanTarget accepts everything except MSVC targets
func (t *GNUToolchain) CanTarget(p Platform) bool {
	return !p.MSVC
}

// RequiredTools returns the compiler and archiver for a target
func (t *GNUToolchain) RequiredTools(p Platform, host string) []ToolRequirement {
	return []ToolRequirement{
		{
			Name:    t.compiler(p, host)[0],
			Purpose: "C compiler for " + p.Triple,
		},
		{
			Name:    t.archiver(p, host)[0],
			Purpose: "static library archiver for " + p.Triple,
		},
	}
}

// CheckTools verifies that the compiler and archiver are available
func (t *GNUToolchain) CheckTools(p Platform, host string) error {
	return CheckRequiredTools(t.RequiredTools(p, host))
}

// Compile runs a compile → archive pass
func (t *GNUToolchain) Compile(ctx context.Context, cfg *PassConfig) (*PassResult, error) {
	return runPass(ctx, cfg, PassSteps{
		CompileFunc: t.compile,
		ArchiveFunc: t.archive,
	})
}

// compiler returns the compiler command, honoring CC and friends
func (t *GNUToolchain) compiler(p Platform, host string) []string {
	if cc := envForTarget("CC", p.Triple); cc != "" {
		return strings.Fields(cc)
	}
	if p.Cross(host) || p.Apple {
		return []string{"clang"}
	}
	return []string{"cc"}
}

// archiver returns the archiver command, honoring AR and friends
func (t *GNUToolchain) archiver(p Platform, host string) []string {
	if ar := envForTarget("AR", p.Triple); ar != "" {
		return strings.Fields(ar)
	}
	if p.Cross(host) && !p.Apple {
		return []string{"llvm-ar"}
	}
	return []string{"ar"}
}

// compileArgs builds the argument list for compiling one source
func (t *GNUToolchain) compileArgs(cfg *PassConfig, compiler []string, source, object string) []string {
	var args []string

	if cfg.OptLevel != "" {
		args = append(args, "-O"+cfg.OptLevel)
	}
	args = append(args, "-ffunction-sections", "-fdata-sections")
	if !cfg.Platform.Windows {
		args = append(args, "-fPIC")
	}
	if cfg.Platform.Cross(cfg.Host) && isClang(compiler) {
		args = append(args, "--target="+cfg.Target)
	}
	for _, dir := range cfg.IncludeDirs {
		args = append(args, "-I"+dir)
	}
	args = append(args, cfg.Flags...)
	args = append(args, "-o", object, "-c", source)

	return args
}

func (t *GNUToolchain) compile(ctx context.Context, cfg *PassConfig, source, object string, result *PassResult) error {
	compiler := t.compiler(cfg.Platform, cfg.Host)
	return runTool(ctx, cfg, cfg.Name+" compile", compiler, t.compileArgs(cfg, compiler, source, object), result)
}

func (t *GNUToolchain) archive(ctx context.Context, cfg *PassConfig, archive string, objects []string, result *PassResult) error {
	args := append([]string{"crs", archive}, objects...)
	return runTool(ctx, cfg, cfg.Name+" archive", t.archiver(cfg.Platform, cfg.Host), args, result)
}

func isClang(compiler []string) bool {
	for _, part := range compiler {
		if strings.Contains(filepath.Base(part), "clang") {
			return true
		}
	}
	return false
}
