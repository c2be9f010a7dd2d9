package libpython

import (
	"fmt"
	"io"
	"strings"
)

// DirectiveKind is the form of a linker directive.
type DirectiveKind int

const (
	// LinkStatic links a static library by name.
	LinkStatic DirectiveKind = iota
	// LinkDynamic links a dynamic or system library by name.
	LinkDynamic
	// LinkFramework links an Apple framework by name.
	LinkFramework
	// SearchNative adds a directory to the native library search path.
	SearchNative
	// SearchAll adds a directory to every library search path.
	SearchAll
)

// Directive is one instruction for the final executable link step.
type Directive struct {
	Kind  DirectiveKind
	Value string
}

// String renders the directive in the key=value form consumed by the final
// link step, e.g. cargo:rustc-link-lib=static=pythonXY.
func (d Directive) String() string {
	switch d.Kind {
	case LinkStatic:
		return "cargo:rustc-link-lib=static=" + d.Value
	case LinkDynamic:
		return "cargo:rustc-link-lib=" + d.Value
	case LinkFramework:
		return "cargo:rustc-link-lib=framework=" + d.Value
	case SearchNative:
		return "cargo:rustc-link-search=native=" + d.Value
	case SearchAll:
		return "cargo:rustc-link-search=" + d.Value
	default:
		return fmt.Sprintf("cargo:warning=unknown directive %d %s", d.Kind, d.Value)
	}
}

// LDFlags renders the directive as C compiler driver arguments.
func (d Directive) LDFlags() []string {
	switch d.Kind {
	case LinkStatic, LinkDynamic:
		return []string{"-l" + d.Value}
	case LinkFramework:
		return []string{"-framework", d.Value}
	case SearchNative, SearchAll:
		return []string{"-L" + d.Value}
	default:
		return nil
	}
}

// linkInputs is what the directive emitter needs to know about a build.
type linkInputs struct {
	context  *BuildContext
	platform Platform
	outDir   string
	probe    ClangProbe
}

// emitDirectives produces the ordered linker directives for a build.
//
// Linkers resolve symbols first-match-wins, so the order is part of the
// contract: inittab library, frameworks, system, dynamic and static
// libraries, the macOS clang runtime, libpython with its directory, then the
// caller's search paths.
func emitDirectives(in linkInputs) []Directive {
	var out []Directive

	out = append(out, Directive{Kind: LinkStatic, Value: embeddedConfigLibName})

	for _, framework := range in.context.Frameworks {
		out = append(out, Directive{Kind: LinkFramework, Value: framework})
	}
	for _, lib := range in.context.SystemLibraries {
		out = append(out, Directive{Kind: LinkDynamic, Value: lib})
	}
	for _, lib := range in.context.DynamicLibraries {
		out = append(out, Directive{Kind: LinkDynamic, Value: lib})
	}
	for _, lib := range in.context.StaticLibraries {
		out = append(out, Directive{Kind: LinkStatic, Value: lib})
	}

	if in.platform.MacOS {
		if in.probe.Resolved() {
			out = append(out, Directive{Kind: SearchAll, Value: in.probe.Path})
		}
		out = append(out, Directive{Kind: LinkDynamic, Value: clangRuntimeLibName})
	}

	out = append(out,
		Directive{Kind: LinkStatic, Value: libpythonName},
		Directive{Kind: SearchNative, Value: in.outDir},
	)

	for _, path := range in.context.LibrarySearchPaths {
		out = append(out, Directive{Kind: SearchNative, Value: path})
	}

	return out
}

// DirectiveFormat selects how WriteDirectives renders a directive list.
type DirectiveFormat string

const (
	// FormatCargo prints one key=value directive per line.
	FormatCargo DirectiveFormat = "cargo"
	// FormatLDFlags prints all directives as one line of linker flags.
	FormatLDFlags DirectiveFormat = "ldflags"
	// FormatCgo prints a Go source file carrying a #cgo LDFLAGS line.
	FormatCgo DirectiveFormat = "cgo"
)

// WriteDirectives renders directives to w in the requested format.
//
// For FormatCgo, goPackage names the package of the generated file.
func WriteDirectives(w io.Writer, directives []Directive, format DirectiveFormat, goPackage string) error {
	switch format {
	case FormatCargo, "":
		for _, d := range directives {
			if _, err := fmt.Fprintln(w, d.String()); err != nil {
				return err
			}
		}
		return nil
	case FormatLDFlags:
		_, err := fmt.Fprintln(w, strings.Join(ldflags(directives), " "))
		return err
	case FormatCgo:
		if goPackage == "" {
			goPackage = "main"
		}
		_, err := fmt.Fprintf(w, "// Code generated by libpython-link. DO NOT EDIT.\n\npackage %s\n\n// #cgo LDFLAGS: %s\nimport \"C\"\n",
			goPackage, strings.Join(ldflags(directives), " "))
		return err
	default:
		return fmt.Errorf("unknown directive format %q", format)
	}
}

func ldflags(directives []Directive) []string {
	var flags []string
	for _, d := range directives {
		flags = append(flags, d.LDFlags()...)
	}
	return flags
}
