package libpython

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
)

// fakeCall is one recorded tool invocation.
type fakeCall struct {
	Ctx  context.Context
	Cmd  string
	Args []string
	Env  map[string]string
}

func (c fakeCall) String() string {
	return strings.Join(append([]string{c.Cmd}, c.Args...), " ")
}

// fakeHandler decides what a faked tool does. Returning ran=false simulates
// a program that could not be started.
type fakeHandler func(call fakeCall, stdout, stderr io.Writer) (ran bool, err error)

type fakeRunner struct {
	mu      sync.Mutex
	calls   []fakeCall
	handler fakeHandler
}

// installFakeRunner replaces runCommand for the duration of the test.
func installFakeRunner(t *testing.T, handler fakeHandler) *fakeRunner {
	t.Helper()

	f := &fakeRunner{handler: handler}
	orig := runCommand
	runCommand = func(ctx context.Context, env map[string]string, stdout, stderr io.Writer, cmd string, args ...string) (bool, error) {
		call := fakeCall{Ctx: ctx, Cmd: cmd, Args: append([]string{}, args...), Env: env}
		f.mu.Lock()
		f.calls = append(f.calls, call)
		f.mu.Unlock()
		return f.handler(call, stdout, stderr)
	}
	t.Cleanup(func() { runCommand = orig })
	return f
}

func (f *fakeRunner) Calls() []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeCall{}, f.calls...)
}

// CallsTo returns the calls whose program name is cmd.
func (f *fakeRunner) CallsTo(cmd string) []fakeCall {
	var out []fakeCall
	for _, c := range f.Calls() {
		if c.Cmd == cmd {
			out = append(out, c)
		}
	}
	return out
}

// installFakeLookPath makes every tool look installed, except missing ones.
func installFakeLookPath(t *testing.T, missing ...string) {
	t.Helper()

	orig := execLookPath
	execLookPath = func(file string) (string, error) {
		for _, m := range missing {
			if m == file {
				return "", errors.New("executable file not found in $PATH")
			}
		}
		return "/usr/bin/" + file, nil
	}
	t.Cleanup(func() { execLookPath = orig })
}

// clearToolEnv removes compiler overrides the test environment might carry.
func clearToolEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"CC", "AR", "TARGET_CC", "TARGET_AR", "SDKROOT", "DEVELOPER_DIR", "LIBPYTHON_TMP_DIR"} {
		t.Setenv(key, "")
	}
}

const fakeClangSearchDirs = "programs: =/usr/bin\nlibraries: =/opt/clang/lib/clang/15.0.0:/usr/lib\n"

// toolchainHandler behaves like a working compiler, archiver and clang
// search dir query: it creates every output file it is asked for.
func toolchainHandler(call fakeCall, stdout, stderr io.Writer) (bool, error) {
	if len(call.Args) == 1 && call.Args[0] == "--print-search-dirs" {
		_, _ = io.WriteString(stdout, fakeClangSearchDirs)
		return true, nil
	}
	if call.Cmd == "xcode-select" {
		return false, errors.New("xcode-select not installed")
	}

	for _, out := range outputsOf(call.Args) {
		if err := os.WriteFile(out, []byte("fake "+call.Cmd), 0o644); err != nil {
			_, _ = io.WriteString(stderr, err.Error()+"\n")
			return true, err
		}
	}
	_, _ = io.WriteString(stdout, call.Cmd+" ok\n")
	return true, nil
}

// outputsOf finds the output file arguments of cc, cl, ar and lib command lines.
func outputsOf(args []string) []string {
	var outs []string
	for i, arg := range args {
		switch {
		case arg == "-o" && i+1 < len(args):
			outs = append(outs, args[i+1])
		case arg == "crs" && i+1 < len(args):
			outs = append(outs, args[i+1])
		case strings.HasPrefix(arg, "-Fo"):
			outs = append(outs, strings.TrimPrefix(arg, "-Fo"))
		case strings.HasPrefix(arg, "-out:"):
			outs = append(outs, strings.TrimPrefix(arg, "-out:"))
		}
	}
	return outs
}

// contextHandler refuses to start tools once the call's context is done,
// the way exec.CommandContext does.
func contextHandler(call fakeCall, stdout, stderr io.Writer) (bool, error) {
	if err := call.Ctx.Err(); err != nil {
		return false, err
	}
	return toolchainHandler(call, stdout, stderr)
}

// failingHandler makes the command whose program is failCmd exit non-zero.
func failingHandler(failCmd string) fakeHandler {
	return func(call fakeCall, stdout, stderr io.Writer) (bool, error) {
		if call.Cmd == failCmd {
			_, _ = io.WriteString(stderr, failCmd+": fatal error\n")
			return true, errors.New("exit status 1")
		}
		return toolchainHandler(call, stdout, stderr)
	}
}
