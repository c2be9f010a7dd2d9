package libpython

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/magefile/mage/sh"
)

var execCommandContext = exec.CommandContext

// runCommand executes a program and reports whether it could be started.
//
// Arguments reach the program verbatim; no $VAR expansion is applied. env is
// added on top of the current environment.
//
// Tests replace this to fake the toolchain without spawning processes.
var runCommand = func(ctx context.Context, env map[string]string, stdout, stderr io.Writer, cmd string, args ...string) (bool, error) {
	c := execCommandContext(ctx, cmd, args...)
	c.Env = os.Environ()
	for k, v := range env {
		c.Env = append(c.Env, k+"="+v)
	}
	c.Stdout = stdout
	c.Stderr = stderr

	err := c.Run()
	if err == nil {
		return true, nil
	}
	if ran := sh.CmdRan(err); ran {
		return true, fmt.Errorf(`running "%s %s" failed with exit code %d: %w`, cmd, strings.Join(args, " "), sh.ExitStatus(err), err)
	}
	return false, fmt.Errorf(`failed to run "%s %s": %w`, cmd, strings.Join(args, " "), err)
}

// syncWriter serializes writes from the stdout and stderr copy goroutines.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// commandOutput is the result of a finished or failed process.
type commandOutput struct {
	Ran    bool     // false if the program could not be started
	Stdout string   // captured standard output
	Lines  []string // stdout and stderr, split into lines
}

// execCapture runs cmd and captures its output.
func execCapture(ctx context.Context, env map[string]string, cmd string, args ...string) (commandOutput, error) {
	var stdout, buf bytes.Buffer
	combined := &syncWriter{w: &buf}
	ran, err := runCommand(ctx, env, io.MultiWriter(&stdout, combined), combined, cmd, args...)

	out := commandOutput{
		Ran:    ran,
		Stdout: stdout.String(),
	}
	if s := strings.TrimRight(buf.String(), "\n"); s != "" {
		out.Lines = strings.Split(s, "\n")
	}
	return out, err
}
