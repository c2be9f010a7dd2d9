package libpython

import (
	"fmt"
	"os/exec"
	"strings"
)

// execLookPath is swapped in tests to simulate installed tools.
var execLookPath = exec.LookPath

// ToolChecker is an optional interface for toolchains that can verify their
// programs are installed.
//
// The pipeline calls CheckTools before the first pass so a missing compiler
// is reported as such instead of as an opaque failed compile.
//
// # Target Dependence
//
// The programs depend on the target and the host:
//   - Native GNU builds use cc and ar (or CC/AR from the environment)
//   - Cross GNU builds use clang --target and llvm-ar
//   - MSVC builds use cl.exe and lib.exe, with clang-cl/llvm-lib as alternatives
//
// # Consumer Usage
//
//	if checker, ok := toolchain.(ToolChecker); ok {
//	    if err := checker.CheckTools(platform, host); err != nil {
//	        return fmt.Errorf("toolchain incomplete: %w", err)
//	    }
//	}
type ToolChecker interface {
	// RequiredTools returns the programs needed to build for p on host.
	RequiredTools(p Platform, host string) []ToolRequirement

	// CheckTools verifies that all required tools are available.
	//
	// Returns nil if all required tools are found, or an error describing
	// which tools are missing. Optional tools don't cause errors if missing.
	CheckTools(p Platform, host string) error
}

// ToolRequirement describes a toolchain program dependency.
//
// Tool with alternatives:
//
//	ToolRequirement{
//	    Name:         "cl.exe",
//	    Alternatives: []string{"clang-cl"},
//	    Purpose:      "MSVC C compiler",
//	}
type ToolRequirement struct {
	// Name is the primary program name or path (e.g., "cc", "/opt/sdk/bin/clang").
	Name string

	// Alternatives can satisfy this requirement if Name is missing.
	Alternatives []string

	// Optional tools are checked but never cause an error.
	Optional bool

	// Purpose is a human-readable description of why this tool is needed.
	Purpose string
}

// CheckToolAvailable checks if a tool is available in the system PATH.
//
// Returns nil if the tool is found, or an error naming the tool.
func CheckToolAvailable(tool string) error {
	if _, err := execLookPath(tool); err != nil {
		return fmt.Errorf("%s not found in PATH", tool)
	}
	return nil
}

// CheckRequiredTools verifies all required tools are available.
//
// # Behavior
//
//   - Checks the primary tool name first
//   - If not found, tries each alternative tool in order
//   - Optional tools are checked but don't cause errors
//   - Returns all missing required tools in a single error
//
// # Error Format
//
// Single missing tool:
//
//	cc not found in PATH (required for: C compiler for x86_64-unknown-linux-gnu)
//
// Multiple missing tools:
//
//	missing required tools: cl.exe (MSVC C compiler), lib.exe (MSVC library manager)
func CheckRequiredTools(requirements []ToolRequirement) error {
	var missingTools []string

	for _, req := range requirements {
		found := CheckToolAvailable(req.Name) == nil

		if !found {
			for _, alt := range req.Alternatives {
				if CheckToolAvailable(alt) == nil {
					found = true
					break
				}
			}
		}

		if !found && !req.Optional {
			if req.Purpose != "" {
				missingTools = append(missingTools, fmt.Sprintf("%s (%s)", req.Name, req.Purpose))
			} else {
				missingTools = append(missingTools, req.Name)
			}
		}
	}

	switch len(missingTools) {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("%s not found in PATH", missingTools[0])
	default:
		return fmt.Errorf("missing required tools: %s", strings.Join(missingTools, ", "))
	}
}
