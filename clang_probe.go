package libpython

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

const clangLibrariesMarker = "libraries: ="

// ClangProbe records how the clang runtime library search path was resolved.
//
// Python 3.9+ on macOS uses __builtin_available(), which needs
// ___isOSVersionAtLeast() from libclang_rt. The final link does not pull that
// library in by itself, so its directory is looked up from the compiler.
type ClangProbe struct {
	Attempted bool   // false for non-macOS targets
	Path      string // resolved search path, empty if unresolved
	Err       error  // why resolution failed, nil on success
}

// Resolved reports whether a search path was found.
func (p ClangProbe) Resolved() bool {
	return p.Path != ""
}

// probeClangSearchPath asks clang for its library search directories.
//
// The probe never fails the build. A clang that cannot be started, exits
// non-zero, or prints no libraries line yields an unresolved probe.
func probeClangSearchPath(ctx context.Context, logger *log.Entry) ClangProbe {
	probe := ClangProbe{Attempted: true}

	out, err := execCapture(ctx, nil, "clang", "--print-search-dirs")
	switch {
	case !out.Ran:
		probe.Err = fmt.Errorf("clang could not be started: %w", err)
	case err != nil:
		probe.Err = fmt.Errorf("clang --print-search-dirs failed: %w", err)
	default:
		probe.Path, probe.Err = parseClangSearchDirs(out.Stdout)
	}

	if probe.Err != nil {
		logger.WithError(probe.Err).Warn("unable to resolve clang runtime library search path, relying on default search paths")
	} else {
		logger.WithField("path", probe.Path).Info("resolved clang runtime library search path")
	}
	return probe
}

// parseClangSearchDirs extracts <first library dir>/lib/darwin from the
// output of clang --print-search-dirs.
func parseClangSearchDirs(output string) (string, error) {
	for _, line := range strings.Split(output, "\n") {
		idx := strings.Index(line, clangLibrariesMarker)
		if idx < 0 {
			continue
		}

		value := strings.TrimSpace(line[idx+len(clangLibrariesMarker):])
		first := strings.SplitN(value, string(filepath.ListSeparator), 2)[0]
		if first == "" {
			return "", errors.New("could not parse libraries line")
		}
		return filepath.Join(first, "lib", "darwin"), nil
	}

	return "", errors.New("no libraries line in clang search dirs")
}
