package libpython

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// GenericToolchain provides a configurable toolchain driven by command templates.
//
// This toolchain supports compiler drivers that are not cc- or cl-shaped
// without requiring a new Go file for each, for example zig cc or a
// wrapper script provided by a cross-compilation SDK.
//
// # Configuration
//
// GenericToolchain is configured with:
//   - Target patterns it accepts (e.g., "*-linux-musl")
//   - Required tools and alternatives
//   - Compile and archive command templates
//
// # Example: Zig
//
//	zig := NewGenericToolchain(&GenericToolchainConfig{
//	    Name:    "Zig",
//	    Targets: []string{"*"},
//	    Tools: []ToolRequirement{
//	        {Name: "zig", Purpose: "Zig C compiler and archiver"},
//	    },
//	    CompileCommand: []string{
//	        "zig", "cc", "-target", "{{target}}", "{{flags}}",
//	        "-c", "-o", "{{output}}", "{{input}}",
//	    },
//	    ArchiveCommand: []string{"zig", "ar", "crs", "{{output}}", "{{objects}}"},
//	})
type GenericToolchain struct {
	name           string
	targets        []string
	tools          []ToolRequirement
	compileCommand []string
	archiveCommand []string
}

// GenericToolchainConfig defines configuration for a GenericToolchain.
type GenericToolchainConfig struct {
	// Name is the human-readable toolchain name (e.g., "Zig")
	Name string

	// Targets are glob patterns matched against the target triple
	Targets []string

	// Tools are the required build tools
	Tools []ToolRequirement

	// CompileCommand is the command template to compile one source.
	// Supports placeholders:
	//   {{input}}  - The source file
	//   {{output}} - The object file
	//   {{target}} - The target triple
	//   {{opt}}    - The optimization level
	//   {{flags}}  - Expands to include dirs and extra flags, one argument each
	CompileCommand []string

	// ArchiveCommand is the command template to create the archive.
	// Supports {{output}} and {{objects}} (one argument per object).
	ArchiveCommand []string
}

// NewGenericToolchain creates a new GenericToolchain from configuration.
func NewGenericToolchain(config *GenericToolchainConfig) *GenericToolchain {
	return &GenericToolchain{
		name:           config.Name,
		targets:        config.Targets,
		tools:          config.Tools,
		compileCommand: config.CompileCommand,
		archiveCommand: config.ArchiveCommand,
	}
}

// Name returns the toolchain name
func (t *GenericToolchain) Name() string {
	return t.name
}

// RequiredTools returns the tools needed for this toolchain
func (t *GenericToolchain) RequiredTools(Platform, string) []ToolRequirement {
	return t.tools
}

// CheckTools verifies that all required tools are available
func (t *GenericToolchain) CheckTools(p Platform, host string) error {
	return CheckRequiredTools(t.RequiredTools(p, host))
}

// CanTarget checks the target triple against the configured patterns
func (t *GenericToolchain) CanTarget(p Platform) bool {
	for _, pattern := range t.targets {
		if matched, _ := filepath.Match(pattern, p.Triple); matched {
			return true
		}
	}
	return false
}

// Compile runs a compile → archive pass using the configured templates
func (t *GenericToolchain) Compile(ctx context.Context, cfg *PassConfig) (*PassResult, error) {
	return runPass(ctx, cfg, PassSteps{
		CompileFunc: t.compile,
		ArchiveFunc: t.archive,
	})
}

func (t *GenericToolchain) compile(ctx context.Context, cfg *PassConfig, source, object string, result *PassResult) error {
	if len(t.compileCommand) == 0 {
		return fmt.Errorf("no compile command configured for %s toolchain", t.name)
	}

	var flags []string
	for _, dir := range cfg.IncludeDirs {
		flags = append(flags, "-I"+dir)
	}
	flags = append(flags, cfg.Flags...)

	args := expandTemplate(t.compileCommand, map[string][]string{
		"{{input}}":  {source},
		"{{output}}": {object},
		"{{target}}": {cfg.Target},
		"{{opt}}":    {cfg.OptLevel},
		"{{flags}}":  flags,
	})
	return runTool(ctx, cfg, cfg.Name+" compile", args, nil, result)
}

func (t *GenericToolchain) archive(ctx context.Context, cfg *PassConfig, archive string, objects []string, result *PassResult) error {
	if len(t.archiveCommand) == 0 {
		return fmt.Errorf("no archive command configured for %s toolchain", t.name)
	}

	args := expandTemplate(t.archiveCommand, map[string][]string{
		"{{output}}":  {archive},
		"{{objects}}": objects,
	})
	return runTool(ctx, cfg, cfg.Name+" archive", args, nil, result)
}

// expandTemplate replaces placeholders in a command template.
//
// An argument that is exactly a placeholder expands to zero or more
// arguments; placeholders embedded in a larger argument are substituted with
// their values joined by spaces.
func expandTemplate(template []string, values map[string][]string) []string {
	args := make([]string, 0, len(template))
	for _, arg := range template {
		if v, ok := values[arg]; ok {
			args = append(args, v...)
			continue
		}
		for placeholder, v := range values {
			arg = strings.ReplaceAll(arg, placeholder, strings.Join(v, " "))
		}
		args = append(args, arg)
	}
	return args
}

// NewZigToolchain creates a toolchain using zig cc and zig ar.
//
// Zig bundles libc headers for many targets, which makes it a convenient
// cross compiler. The target triple is passed to zig unchanged, so callers
// must use triples zig understands.
func NewZigToolchain(targets ...string) *GenericToolchain {
	if len(targets) == 0 {
		targets = []string{"*"}
	}
	return NewGenericToolchain(&GenericToolchainConfig{
		Name:    "Zig",
		Targets: targets,
		Tools: []ToolRequirement{
			{Name: "zig", Purpose: "Zig C compiler and archiver"},
		},
		CompileCommand: []string{
			"zig", "cc", "-target", "{{target}}", "-O{{opt}}",
			"-ffunction-sections", "-fdata-sections", "{{flags}}",
			"-c", "-o", "{{output}}", "{{input}}",
		},
		ArchiveCommand: []string{"zig", "ar", "crs", "{{output}}", "{{objects}}"},
	})
}
