package libpython

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"
)

var descriptionValidator = validator.New()

// BuildDescription is the file form of a BuildContext and PlatformContext.
//
// It is produced by whatever resolved the Python distribution and consumed by
// the libpython-link command. JSON is accepted as well, being a YAML subset.
//
//	platform:
//	  host: x86_64-unknown-linux-gnu
//	  target: x86_64-apple-darwin
//	  optLevel: "3"
//	  appleSdk: {platform: macosx, version: "11.0"}
//	initFunctions:
//	  - {name: sys}
//	  - {name: _io, init: PyInit__io}
//	includes:
//	  Python.h: include/python3.12/Python.h
//	objectFiles: [lib/python.o]
//	systemLibraries: [m, dl]
//
// Relative paths are resolved against the directory of the description file.
type BuildDescription struct {
	Platform PlatformContext `yaml:"platform"`

	InitFunctions []InitFunctionDescription `yaml:"initFunctions" validate:"dive"`
	Includes      map[string]string         `yaml:"includes" validate:"dive,keys,required,endkeys,required"`
	ObjectFiles   []string                  `yaml:"objectFiles" validate:"dive,required"`

	Frameworks         []string `yaml:"frameworks"`
	SystemLibraries    []string `yaml:"systemLibraries"`
	DynamicLibraries   []string `yaml:"dynamicLibraries"`
	StaticLibraries    []string `yaml:"staticLibraries"`
	LibrarySearchPaths []string `yaml:"librarySearchPaths"`
	InittabCFlags      []string `yaml:"inittabCFlags"`

	baseDir string
}

// InitFunctionDescription is one inittab entry. An empty init or the legacy
// NULL means the extension has no init function.
type InitFunctionDescription struct {
	Name string `yaml:"name" validate:"required"`
	Init string `yaml:"init"`
}

// LoadBuildDescription reads and validates a description file.
func LoadBuildDescription(path string) (*BuildDescription, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("opening %s failed", path), Err: err}
	}
	defer r.Close()

	desc, err := ReadBuildDescription(r)
	if err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("reading %s failed", path), Err: err}
	}
	desc.baseDir = filepath.Dir(path)
	return desc, nil
}

// ReadBuildDescription decodes a description from r. Unknown fields are
// rejected and a UTF-8 or UTF-16 byte order mark is honored.
func ReadBuildDescription(r io.Reader) (*BuildDescription, error) {
	r = transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	d := yaml.NewDecoder(r)
	d.KnownFields(true)

	var desc BuildDescription
	if err := d.Decode(&desc); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := descriptionValidator.Struct(&desc); err != nil {
		return nil, err
	}
	return &desc, nil
}

// BuildContext converts the description into pipeline input.
func (d *BuildDescription) BuildContext() *BuildContext {
	bc := &BuildContext{
		Frameworks:         d.Frameworks,
		SystemLibraries:    d.SystemLibraries,
		DynamicLibraries:   d.DynamicLibraries,
		StaticLibraries:    d.StaticLibraries,
		LibrarySearchPaths: d.LibrarySearchPaths,
		InittabCFlags:      d.InittabCFlags,
	}

	for _, f := range d.InitFunctions {
		bc.InitFunctions = append(bc.InitFunctions, InitFunction{Name: f.Name, Init: Symbol(f.Init)})
	}

	if len(d.Includes) > 0 {
		bc.Includes = make(map[string]FileData, len(d.Includes))
		for rel, src := range d.Includes {
			bc.Includes[rel] = FileDataFromPath(d.resolve(src))
		}
	}

	for _, obj := range d.ObjectFiles {
		bc.ObjectFiles = append(bc.ObjectFiles, FileDataFromPath(d.resolve(obj)))
	}

	return bc
}

// PlatformContext returns a copy of the described platform.
func (d *BuildDescription) PlatformContext() *PlatformContext {
	pc := d.Platform
	return &pc
}

func (d *BuildDescription) resolve(path string) string {
	if filepath.IsAbs(path) || d.baseDir == "" {
		return path
	}
	return filepath.Join(d.baseDir, path)
}
