package shell

import (
	"bytes"
	"os"
	"os/exec"
)

// runExternal spawns a single external process. Its environment is
// fully cleared and repopulated from env — the interpreter's own
// environment map is the child's environment, nothing inherited from
// the host beyond that. Stdout and stderr are always piped and
// captured; stdin is piped from stdin when hasStdin is true, otherwise
// inherited from the interpreter's own stdin. There is no timeout or
// cancellation: a hung child hangs the caller.
func runExternal(name string, args []string, env Environment, stdin []byte, hasStdin bool) (RunResult, ShellError) {
	path, err := exec.LookPath(name)
	if err != nil {
		return RunResult{}, newProcessError("command not found: %s", name)
	}

	cmd := exec.Command(path, args...)
	cmd.Args = append([]string{name}, args...)
	cmd.Env = env.ToSlice()

	if hasStdin {
		cmd.Stdin = bytes.NewReader(stdin)
	} else {
		cmd.Stdin = os.Stdin
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr == nil {
		return RunResult{ExitCode: 0, Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, nil
	}

	if exitErr, ok := runErr.(*exec.ExitError); ok {
		code := exitErr.ExitCode()
		if code < 0 {
			// The platform reported no exit code, i.e. the child died
			// from a signal rather than exiting normally.
			code = 1
		}
		return RunResult{ExitCode: code, Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, nil
	}

	return RunResult{}, newProcessError("failed to spawn %s: %v", name, runErr)
}
