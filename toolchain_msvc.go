package libpython

import (
	"context"
	"strings"
)

// MSVCToolchain drives cl.exe and lib.exe for *-windows-msvc targets.
type MSVCToolchain struct{}

// Name returns the toolchain name
func (t *MSVCToolchain) Name() string {
	return "MSVC"
}

// CanTarget accepts MSVC targets only
func (t *MSVCToolchain) CanTarget(p Platform) bool {
	return p.MSVC
}

// RequiredTools returns cl and lib
func (t *MSVCToolchain) RequiredTools(p Platform, _ string) []ToolRequirement {
	return []ToolRequirement{
		{
			Name:         t.compiler(p)[0],
			Alternatives: []string{"clang-cl"},
			Purpose:      "MSVC C compiler",
		},
		{
			Name:         t.archiver(p)[0],
			Alternatives: []string{"llvm-lib"},
			Purpose:      "MSVC library manager",
		},
	}
}

// CheckTools verifies that cl and lib are available
func (t *MSVCToolchain) CheckTools(p Platform, host string) error {
	return CheckRequiredTools(t.RequiredTools(p, host))
}

// Compile runs a compile → archive pass
func (t *MSVCToolchain) Compile(ctx context.Context, cfg *PassConfig) (*PassResult, error) {
	return runPass(ctx, cfg, PassSteps{
		CompileFunc: t.compile,
		ArchiveFunc: t.archive,
	})
}

func (t *MSVCToolchain) compiler(p Platform) []string {
	if cc := envForTarget("CC", p.Triple); cc != "" {
		return strings.Fields(cc)
	}
	return []string{"cl.exe"}
}

func (t *MSVCToolchain) archiver(p Platform) []string {
	if ar := envForTarget("AR", p.Triple); ar != "" {
		return strings.Fields(ar)
	}
	return []string{"lib.exe"}
}

// compileArgs builds the cl.exe argument list for one source
func (t *MSVCToolchain) compileArgs(cfg *PassConfig, source, object string) []string {
	args := []string{"-nologo", "-MD", "-Z7", "-Brepro"}

	switch cfg.OptLevel {
	case "", "0":
		args = append(args, "-Od")
	default:
		args = append(args, "-O2")
	}
	for _, dir := range cfg.IncludeDirs {
		args = append(args, "-I"+dir)
	}
	args = append(args, cfg.Flags...)
	args = append(args, "-Fo"+object, "-c", source)

	return args
}

func (t *MSVCToolchain) compile(ctx context.Context, cfg *PassConfig, source, object string, result *PassResult) error {
	return runTool(ctx, cfg, cfg.Name+" compile", t.compiler(cfg.Platform), t.compileArgs(cfg, source, object), result)
}

func (t *MSVCToolchain) archive(ctx context.Context, cfg *PassConfig, archive string, objects []string, result *PassResult) error {
	args := append([]string{"-nologo", "-out:" + archive}, objects...)
	return runTool(ctx, cfg, cfg.Name+" archive", t.archiver(cfg.Platform), args, result)
}
