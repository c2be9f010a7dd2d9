package libpython

import (
	"fmt"
	"strings"
)

// BuildError creates a standardized toolchain error with output context.
//
// This helper formats toolchain failures consistently across toolchains,
// including the tool output for debugging. The underlying error stays
// reachable through errors.Is/As.
//
// # Format
//
// With error and output:
//
//	pythonXY archive build failed: exit status 1
//
//	Build output:
//	ar: libpython.0.o: No such file or directory
//
// With error but no output:
//
//	pythonXY archive build failed: exit status 1
//
// With output but no error:
//
//	pythonXY archive build failed
//
//	Build output:
//	... output lines ...
func BuildError(step string, output []string, err error) error {
	var details string
	if outputStr := strings.Join(output, "\n"); outputStr != "" {
		details = "\n\nBuild output:\n" + outputStr
	}

	if err != nil {
		return fmt.Errorf("%s build failed: %w%s", step, err, details)
	}
	return fmt.Errorf("%s build failed%s", step, details)
}

// uniqueStrings removes empty and duplicate values, keeping first occurrences.
func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{})
	var result []string

	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}

	return result
}
