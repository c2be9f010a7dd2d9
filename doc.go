// Package libpython assembles a statically linked Python runtime for embedding
// into a standalone native executable.
//
// Given the built-in extension modules, the Python object files and the
// system libraries they need, the package generates the inittab source
// (config.c), compiles and archives everything with the native toolchain of
// the target and returns the ordered linker directives the final executable
// link must apply.
//
// # Basic Usage
//
//	bc := &libpython.BuildContext{
//	    InitFunctions: []libpython.InitFunction{
//	        {Name: "sys", Init: libpython.NoInit},
//	        {Name: "_io", Init: libpython.Symbol("PyInit__io")},
//	    },
//	    ObjectFiles:     objects,
//	    SystemLibraries: []string{"m", "dl"},
//	}
//	pc := &libpython.PlatformContext{
//	    HostTriple:   "x86_64-unknown-linux-gnu",
//	    TargetTriple: "x86_64-unknown-linux-gnu",
//	    OptLevel:     "3",
//	}
//
//	result, err := libpython.LinkLibpython(ctx, bc, pc, outDir, libpython.Options{})
//	if err != nil {
//	    return err
//	}
//	for _, line := range result.DirectiveStrings() {
//	    fmt.Println(line)
//	}
//
// # Architecture
//
// One invocation runs these stages in order, stopping at the first failure:
//
//	LinkLibpython
//	├── MakeConfigC       (inittab source)
//	├── Staging           (temporary directory with config.c and includes)
//	├── ResolvePlatform   (naming, Apple SDK, toolchain selection)
//	├── Toolchain pass 1  (config.c → pyembeddedconfig)
//	├── Toolchain pass 2  (object files → pythonXY)
//	└── emitDirectives    (ordered linker directives)
//
// Toolchains are chosen by a ToolchainFactory:
//
//	ToolchainFactory
//	├── MSVCToolchain     (cl.exe / lib.exe, *-windows-msvc)
//	├── GNUToolchain      (cc or clang / ar or llvm-ar, everything else)
//	└── GenericToolchain  (command templates, e.g. zig cc)
//
// # Platform Support
//
// Linux, the BSDs, macOS and other Apple platforms, MinGW and MSVC targets.
// Apple targets require AppleSDKInfo. Cross compilation uses clang with
// --target unless CC/AR or their per-target variants are set.
//
// # Output Directory
//
// Besides the two archives and the inspection copy of config.c, the output
// directory holds a .libpython.lock file. It is the advisory lock that
// serializes builds sharing the directory and is not removed afterwards.
package libpython
