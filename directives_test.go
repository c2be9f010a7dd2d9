package libpython

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func directiveStrings(directives []Directive) []string {
	out := make([]string, 0, len(directives))
	for _, d := range directives {
		out = append(out, d.String())
	}
	return out
}

func linkTestContext() *BuildContext {
	return &BuildContext{
		Frameworks:         []string{"CoreFoundation"},
		SystemLibraries:    []string{"m"},
		DynamicLibraries:   []string{"ssl"},
		StaticLibraries:    []string{"ffi"},
		LibrarySearchPaths: []string{"/opt/p1", "/opt/p2"},
	}
}

func TestEmitDirectivesMacOS(t *testing.T) {
	got := emitDirectives(linkInputs{
		context:  linkTestContext(),
		platform: ResolvePlatform("x86_64-apple-darwin"),
		outDir:   "/out",
		probe:    ClangProbe{Attempted: true, Path: "/opt/clang/lib/darwin"},
	})

	assert.Equal(t, []string{
		"cargo:rustc-link-lib=static=pyembeddedconfig",
		"cargo:rustc-link-lib=framework=CoreFoundation",
		"cargo:rustc-link-lib=m",
		"cargo:rustc-link-lib=ssl",
		"cargo:rustc-link-lib=static=ffi",
		"cargo:rustc-link-search=/opt/clang/lib/darwin",
		"cargo:rustc-link-lib=clang_rt.osx",
		"cargo:rustc-link-lib=static=pythonXY",
		"cargo:rustc-link-search=native=/out",
		"cargo:rustc-link-search=native=/opt/p1",
		"cargo:rustc-link-search=native=/opt/p2",
	}, directiveStrings(got))
}

func TestEmitDirectivesMacOSProbeFailed(t *testing.T) {
	got := directiveStrings(emitDirectives(linkInputs{
		context:  &BuildContext{},
		platform: ResolvePlatform("aarch64-apple-darwin"),
		outDir:   "/out",
		probe:    ClangProbe{Attempted: true, Err: errors.New("clang could not be started")},
	}))

	assert.Equal(t, []string{
		"cargo:rustc-link-lib=static=pyembeddedconfig",
		"cargo:rustc-link-lib=clang_rt.osx",
		"cargo:rustc-link-lib=static=pythonXY",
		"cargo:rustc-link-search=native=/out",
	}, got)
}

func TestEmitDirectivesLinux(t *testing.T) {
	got := directiveStrings(emitDirectives(linkInputs{
		context:  linkTestContext(),
		platform: ResolvePlatform("x86_64-unknown-linux-gnu"),
		outDir:   "/out",
	}))

	assert.NotContains(t, got, "cargo:rustc-link-lib=clang_rt.osx")
	assert.Equal(t, "cargo:rustc-link-lib=static=pyembeddedconfig", got[0])
	assert.Equal(t, []string{
		"cargo:rustc-link-lib=static=pythonXY",
		"cargo:rustc-link-search=native=/out",
		"cargo:rustc-link-search=native=/opt/p1",
		"cargo:rustc-link-search=native=/opt/p2",
	}, got[len(got)-4:])
}

func TestEmitDirectivesNoSearchPaths(t *testing.T) {
	got := directiveStrings(emitDirectives(linkInputs{
		context:  &BuildContext{},
		platform: ResolvePlatform("x86_64-pc-windows-msvc"),
		outDir:   `C:\out`,
	}))

	assert.Equal(t, []string{
		"cargo:rustc-link-lib=static=pyembeddedconfig",
		"cargo:rustc-link-lib=static=pythonXY",
		`cargo:rustc-link-search=native=C:\out`,
	}, got)
}

func TestDirectiveLDFlags(t *testing.T) {
	testCases := []struct {
		directive Directive
		want      []string
	}{
		{Directive{Kind: LinkStatic, Value: "pythonXY"}, []string{"-lpythonXY"}},
		{Directive{Kind: LinkDynamic, Value: "m"}, []string{"-lm"}},
		{Directive{Kind: LinkFramework, Value: "Security"}, []string{"-framework", "Security"}},
		{Directive{Kind: SearchNative, Value: "/out"}, []string{"-L/out"}},
		{Directive{Kind: SearchAll, Value: "/clang"}, []string{"-L/clang"}},
	}

	for _, tc := range testCases {
		t.Run(tc.directive.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.directive.LDFlags())
		})
	}
}

func TestWriteDirectives(t *testing.T) {
	directives := []Directive{
		{Kind: LinkStatic, Value: "pyembeddedconfig"},
		{Kind: LinkFramework, Value: "Security"},
		{Kind: LinkStatic, Value: "pythonXY"},
		{Kind: SearchNative, Value: "/out"},
	}

	t.Run("cargo", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteDirectives(&buf, directives, FormatCargo, ""))
		assert.Equal(t, "cargo:rustc-link-lib=static=pyembeddedconfig\n"+
			"cargo:rustc-link-lib=framework=Security\n"+
			"cargo:rustc-link-lib=static=pythonXY\n"+
			"cargo:rustc-link-search=native=/out\n", buf.String())
	})

	t.Run("ldflags", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteDirectives(&buf, directives, FormatLDFlags, ""))
		assert.Equal(t, "-lpyembeddedconfig -framework Security -lpythonXY -L/out\n", buf.String())
	})

	t.Run("cgo", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteDirectives(&buf, directives, FormatCgo, "embed"))
		assert.Contains(t, buf.String(), "package embed\n")
		assert.Contains(t, buf.String(), "// #cgo LDFLAGS: -lpyembeddedconfig -framework Security -lpythonXY -L/out\nimport \"C\"\n")
	})

	t.Run("unknown", func(t *testing.T) {
		var buf bytes.Buffer
		assert.Error(t, WriteDirectives(&buf, directives, DirectiveFormat("toml"), ""))
	})
}
