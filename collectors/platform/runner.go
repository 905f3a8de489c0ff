package platform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"
)

// DefaultPrivilegedCommand is prefixed to "cat <path>" when the debug
// interface is not readable by the current user. -n makes sudo fail
// instead of prompting for a password.
const DefaultPrivilegedCommand = "sudo -n"

// Runner reads a file that may require elevated privileges.
type Runner interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

// CommandRunner reads files directly when the process has read access and
// otherwise through an elevating command such as sudo.
type CommandRunner struct {
	argv []string

	// access and readFile are overridable for testing.
	access   func(path string, mode uint32) error
	readFile func(path string) ([]byte, error)
	command  func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewCommandRunner returns a runner that elevates with command, split on
// whitespace. An empty command selects DefaultPrivilegedCommand.
func NewCommandRunner(command string) *CommandRunner {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		argv = strings.Fields(DefaultPrivilegedCommand)
	}
	return &CommandRunner{
		argv:     argv,
		access:   unix.Access,
		readFile: os.ReadFile,
		command:  exec.CommandContext,
	}
}

// ReadFile returns the contents of path.
func (r *CommandRunner) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if r.access(path, unix.R_OK) == nil {
		data, err := r.readFile(path)
		if err == nil {
			return data, nil
		}
	}

	args := append(append([]string{}, r.argv[1:]...), "cat", path)
	cmd := r.command(ctx, r.argv[0], args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(bytes.TrimSpace(exitErr.Stderr)) > 0 {
			return nil, fmt.Errorf("platform: %s cat %s: %w: %s",
				strings.Join(r.argv, " "), path, err, bytes.TrimSpace(exitErr.Stderr))
		}
		return nil, fmt.Errorf("platform: %s cat %s: %w", strings.Join(r.argv, " "), path, err)
	}
	return out, nil
}

// String returns the elevating command line.
func (r *CommandRunner) String() string {
	return strings.Join(r.argv, " ")
}
