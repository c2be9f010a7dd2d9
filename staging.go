package libpython

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/otiai10/copy"
)

const configCFileName = "config.c"

// Staging is a private working directory holding every file the compiler sees.
//
// Canonicalized paths (\\?\C:\... on Windows) break cl.exe and some cc
// front ends. All compiler inputs are therefore materialized below a fresh
// temporary directory and referenced relative to it.
type Staging struct {
	Dir string
}

// tmpBaseDir returns the directory staging areas are created in.
func tmpBaseDir(configured string) string {
	if configured != "" {
		return configured
	}
	if dir := os.Getenv("LIBPYTHON_TMP_DIR"); dir != "" {
		return dir
	}
	return os.TempDir()
}

// NewStaging creates a fresh staging directory below baseDir.
func NewStaging(baseDir string) (*Staging, error) {
	baseDir = tmpBaseDir(baseDir)
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, &StagingError{Path: baseDir, Err: err}
	}
	dir, err := os.MkdirTemp(baseDir, "libpython")
	if err != nil {
		return nil, &StagingError{Path: baseDir, Err: err}
	}
	return &Staging{Dir: dir}, nil
}

// Close removes the staging directory and everything in it.
func (s *Staging) Close() error {
	if err := os.RemoveAll(s.Dir); err != nil {
		return &StagingError{Path: s.Dir, Err: err}
	}
	return nil
}

// ConfigCPath returns where config.c lives inside the staging area.
func (s *Staging) ConfigCPath() string {
	return filepath.Join(s.Dir, configCFileName)
}

// WriteConfigC writes the generated source into the staging area and copies
// it to outDir for inspection. It returns the staged path.
func (s *Staging) WriteConfigC(source, outDir string) (string, error) {
	staged := s.ConfigCPath()
	if err := os.WriteFile(staged, []byte(source), 0o644); err != nil {
		return "", &StagingError{Path: staged, Err: err}
	}

	published := filepath.Join(outDir, configCFileName)
	if err := copy.Copy(staged, published); err != nil {
		return "", &StagingError{Path: published, Err: err}
	}
	return staged, nil
}

// StageIncludes writes every include to its relative path in the staging area.
//
// Paths are processed in sorted order and may not escape the staging root.
func (s *Staging) StageIncludes(includes map[string]FileData) error {
	relPaths := make([]string, 0, len(includes))
	for rel := range includes {
		relPaths = append(relPaths, rel)
	}
	sort.Strings(relPaths)

	for _, rel := range relPaths {
		if err := s.stageFile(rel, includes[rel]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Staging) stageFile(rel string, data FileData) error {
	full, err := securejoin.SecureJoin(s.Dir, rel)
	if err != nil {
		return &StagingError{Path: rel, Err: err}
	}
	if full == s.Dir {
		return &StagingError{Path: rel, Err: fmt.Errorf("include path resolves to the staging root")}
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return &StagingError{Path: filepath.Dir(full), Err: err}
	}

	if src, ok := data.Path(); ok {
		if err := copy.Copy(src, full); err != nil {
			return &StagingError{Path: src, Err: err}
		}
		return nil
	}

	content, err := data.Resolve()
	if err != nil {
		return &StagingError{Path: rel, Err: err}
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		return &StagingError{Path: full, Err: err}
	}
	return nil
}

// MaterializeObjects returns filesystem paths for every object file, writing
// in-memory objects to libpython.<i><suffix> in the staging area.
func (s *Staging) MaterializeObjects(objects []FileData, suffix string) ([]string, error) {
	paths := make([]string, 0, len(objects))
	for i, obj := range objects {
		if p, ok := obj.Path(); ok {
			if _, err := os.Stat(p); err != nil {
				return nil, &StagingError{Path: p, Err: err}
			}
			paths = append(paths, p)
			continue
		}

		content, err := obj.Resolve()
		if err != nil {
			return nil, &StagingError{Path: fmt.Sprintf("object #%d", i), Err: err}
		}
		out := filepath.Join(s.Dir, fmt.Sprintf("libpython.%d%s", i, suffix))
		if err := os.WriteFile(out, content, 0o644); err != nil {
			return nil, &StagingError{Path: out, Err: err}
		}
		paths = append(paths, out)
	}
	return paths, nil
}
