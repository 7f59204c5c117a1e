package jobs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Process is a started worker owned by exactly one watcher.
type Process interface {
	PID() int
	// Wait blocks until the process exits and returns its exit code. A non-nil
	// error means the exit status could not be determined.
	Wait() (int, error)
}

// Launcher starts worker processes. out receives both stdout and stderr.
type Launcher interface {
	Start(name string, args []string, out io.Writer) (Process, error)
}

// WorkerCommand describes how to invoke the external video worker.
type WorkerCommand struct {
	// Interpreter runs Script, e.g. python3. When Script is empty the
	// interpreter is the worker itself.
	Interpreter string
	Script      string
	ModelPath   string
	ExtraArgs   []string
}

// Args returns the program and arguments for processing input into output.
func (w WorkerCommand) Args(input, output string) (string, []string) {
	var args []string
	if w.Script != "" {
		args = append(args, w.Script)
	}
	args = append(args, "--video", input, "--output", output, "--no-display")
	if w.ModelPath != "" {
		args = append(args, "--model", w.ModelPath)
	}
	args = append(args, w.ExtraArgs...)
	return w.Interpreter, args
}

// Validate checks what can be checked before launch: an interpreter is set and
// the script, if any, is a readable file.
func (w WorkerCommand) Validate() error {
	if w.Interpreter == "" {
		return errors.New("no worker interpreter configured")
	}
	if w.Script == "" {
		return nil
	}
	info, err := os.Stat(w.Script)
	if err != nil {
		return fmt.Errorf("worker script: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("worker script %s is a directory", w.Script)
	}
	return nil
}

// ExecLauncher starts workers as child processes of this server.
type ExecLauncher struct {
	// Dir is the working directory for workers; empty means the server's own.
	Dir string
	// Env is appended to the server's environment.
	Env []string
}

// Start launches name with args, sending all output to out.
func (l ExecLauncher) Start(name string, args []string, out io.Writer) (Process, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = l.Dir
	cmd.Stdout = out
	cmd.Stderr = out
	// Python block-buffers stdout when it is not a terminal; progress lines
	// would only reach the log at exit.
	cmd.Env = append(os.Environ(), "PYTHONUNBUFFERED=1")
	cmd.Env = append(cmd.Env, l.Env...)

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &execProcess{cmd: cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) PID() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
