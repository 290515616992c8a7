package job

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ShellAction runs a command and succeeds when it exits zero.
type ShellAction struct {
	Command string
	Args    []string
	Dir     string
	Env     map[string]string
}

// NewShellAction validates and builds a shell action.
func NewShellAction(command string, args []string, dir string, env map[string]string) (*ShellAction, error) {
	if command == "" {
		return nil, fmt.Errorf("shell action requires a command")
	}
	return &ShellAction{Command: command, Args: args, Dir: dir, Env: env}, nil
}

func (a *ShellAction) Kind() string { return "shell" }

// Execute runs the command under ctx. Cancellation kills the process group
// via exec.CommandContext.
func (a *ShellAction) Execute(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, a.Command, a.Args...)
	cmd.Dir = a.Dir
	if len(a.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range a.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	out, err := cmd.CombinedOutput()
	output := truncateOutput(strings.TrimSpace(string(out)))
	if err != nil {
		if ctx.Err() != nil {
			return output, ctx.Err()
		}
		if output != "" {
			return output, fmt.Errorf("command %s failed: %w: %s", a.Command, err, output)
		}
		return output, fmt.Errorf("command %s failed: %w", a.Command, err)
	}
	return output, nil
}
