package connector

import (
	"context"
	"os/exec"
	"time"
)

//waitDelay bounds the wait for the output pipes after the child was killed. Processes started by the
//solver may keep them open
const waitDelay = time.Second

//Runner starts an external program in dir and blocks until it exits or ctx is done. The combined output
//of the program is returned in any case
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

//ExecRunner runs programs as child processes. The working directory is set on the child only,
//the working directory of this process is never changed
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.WaitDelay = waitDelay
	return cmd.CombinedOutput()
}

//exitCoder is implemented by *exec.ExitError
type exitCoder interface {
	ExitCode() int
}
