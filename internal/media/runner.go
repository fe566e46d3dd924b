package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// CommandLog captures one external command invocation.
type CommandLog struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exit_code"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
}

// CommandError is returned when an external command exits non-zero.
type CommandError struct {
	Log CommandLog
	Err error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s exited with status %d: %v", e.Log.Command, e.Log.ExitCode, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// CommandRunner abstracts process execution so tests can fake ffmpeg.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (CommandLog, error)
}

// ExecRunner runs commands via os/exec.
type ExecRunner struct{}

// Run blocks until the process exits and returns its captured output.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (CommandLog, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	log := CommandLog{
		Command: name,
		Args:    args,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}
	if err != nil {
		log.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			log.ExitCode = exitErr.ExitCode()
		}
		return log, err
	}
	return log, nil
}
