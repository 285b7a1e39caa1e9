package shell

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// stageRunner executes one parsed Pipeline, dispatching each stage to
// either a builtin or an external process. It holds the environment
// snapshot every stage in one pipeline shares (read-only, per §5).
type stageRunner struct {
	builtins *builtinRegistry
	env      Environment
}

func newStageRunner(builtins *builtinRegistry, env Environment) *stageRunner {
	return &stageRunner{builtins: builtins, env: env.Clone()}
}

// stageResult is what one stage worker produces: its exit code and its
// captured stderr bytes, merged into the interpreter's stderr in
// command order once every worker has joined.
type stageResult struct {
	exitCode int
	stderr   []byte
}

// run executes p and returns the ShellControl produced by its last
// stage.
func (r *stageRunner) run(p Pipeline, streams IoStreams) (ShellControl, ShellError) {
	if len(p.Stages) == 1 {
		return r.runSingle(p.Stages[0], streams)
	}

	for _, stage := range p.Stages {
		if stage.Name == "exit" {
			if _, err := fmt.Fprintln(streams.Stderr, "exit: cannot be used in pipeline"); err != nil {
				return ShellControl{}, newIOError(err)
			}
			return Continue(2), nil
		}
	}

	return r.runMultiStage(p, streams)
}

// runSingle dispatches a one-stage pipeline straight to a builtin or the
// external executor; there is no prior stage, so stdin is never
// supplied to the stage.
func (r *stageRunner) runSingle(stage CommandSpec, streams IoStreams) (ShellControl, ShellError) {
	if fn, ok := r.builtins.lookup(stage.Name); ok {
		return fn(stage.Args, nil, false, streams)
	}

	result, err := runExternal(stage.Name, stage.Args, r.env, nil, false)
	if err != nil {
		return ShellControl{}, err
	}
	if _, werr := streams.Stderr.Write(result.Stderr); werr != nil {
		return ShellControl{}, newIOError(werr)
	}
	if _, werr := streams.Stdout.Write(result.Stdout); werr != nil {
		return ShellControl{}, newIOError(werr)
	}
	return Continue(result.ExitCode), nil
}

// runMultiStage wires N-1 internal pipes plus a parent-facing pipe for
// the last stage's stdout, runs one concurrent worker per stage, and
// merges results once every worker has joined. Concurrency here is
// required for correctness: the pipes are unbuffered io.Pipe pairs, so
// a sequential run would deadlock as soon as an intermediate stage
// writes output before anything reads it.
func (r *stageRunner) runMultiStage(p Pipeline, streams IoStreams) (ShellControl, ShellError) {
	n := len(p.Stages)

	stageIn := make([]io.Reader, n)
	stageOut := make([]io.Writer, n)

	for i := 0; i < n-1; i++ {
		pr, pw := io.Pipe()
		stageIn[i+1] = pr
		stageOut[i] = pw
	}
	parentReader, parentWriter := io.Pipe()
	stageOut[n-1] = parentWriter

	results := make([]stageResult, n)
	stageErrs := make([]ShellError, n)
	panicked := make([]bool, n)

	var wg sync.WaitGroup
	wg.Add(n)

	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			defer func() {
				if closer, ok := stageOut[i].(io.Closer); ok {
					closer.Close()
				}
				// A stage that never reads its stdin (e.g. it failed
				// to even spawn) must still close it, or the upstream
				// stage's write to the matching pipe blocks forever.
				if closer, ok := stageIn[i].(io.Closer); ok {
					closer.Close()
				}
				if rec := recover(); rec != nil {
					panicked[i] = true
				}
			}()

			stage := p.Stages[i]
			if fn, ok := r.builtins.lookup(stage.Name); ok {
				results[i], stageErrs[i] = r.runBuiltinStage(fn, stage.Args, stageIn[i], stageOut[i])
			} else {
				results[i], stageErrs[i] = r.runExternalStage(stage.Name, stage.Args, stageIn[i], stageOut[i])
			}
		}(i)
	}

	var pipelineStdout bytes.Buffer
	copyDone := make(chan struct{})
	go func() {
		io.Copy(&pipelineStdout, parentReader)
		close(copyDone)
	}()

	wg.Wait()
	<-copyDone

	for _, didPanic := range panicked {
		if didPanic {
			return ShellControl{}, newProcessError("pipeline stage panicked")
		}
	}
	// A stage that fails outright closes its pipes, so the stage feeding
	// it then fails with a closed-pipe I/O error; report the cause first.
	var closedPipeErr ShellError
	for _, stageErr := range stageErrs {
		if stageErr == nil {
			continue
		}
		if ioErr, ok := stageErr.(*IOError); ok && ioErr.Cause == io.ErrClosedPipe {
			if closedPipeErr == nil {
				closedPipeErr = stageErr
			}
			continue
		}
		return ShellControl{}, stageErr
	}
	if closedPipeErr != nil {
		return ShellControl{}, closedPipeErr
	}

	for i := 0; i < n; i++ {
		if _, err := streams.Stderr.Write(results[i].stderr); err != nil {
			return ShellControl{}, newIOError(err)
		}
	}
	if _, err := streams.Stdout.Write(pipelineStdout.Bytes()); err != nil {
		return ShellControl{}, newIOError(err)
	}

	return Continue(results[n-1].exitCode), nil
}

// runBuiltinStage drains stdin fully (builtins are buffered stages, not
// streaming ones), runs the builtin against fresh in-memory streams,
// then flushes its stdout into the stage's pipe.
func (r *stageRunner) runBuiltinStage(fn BuiltinFunc, args []string, stdin io.Reader, stdout io.Writer) (stageResult, ShellError) {
	hasStdin := stdin != nil
	var input []byte
	if hasStdin {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return stageResult{}, newIOError(err)
		}
		input = data
	}

	var outBuf, errBuf bytes.Buffer
	control, err := fn(args, input, hasStdin, IoStreams{Stdout: &outBuf, Stderr: &errBuf})
	if err != nil {
		return stageResult{}, err
	}

	if _, werr := stdout.Write(outBuf.Bytes()); werr != nil {
		return stageResult{}, newIOError(werr)
	}

	return stageResult{exitCode: control.ExitCode(), stderr: errBuf.Bytes()}, nil
}

// runExternalStage spawns a child wired directly into the pipeline's
// pipe endpoints; unlike the single-stage path its stdout streams
// straight into the next stage rather than being buffered in memory.
func (r *stageRunner) runExternalStage(name string, args []string, stdin io.Reader, stdout io.Writer) (stageResult, ShellError) {
	path, err := exec.LookPath(name)
	if err != nil {
		return stageResult{}, newProcessError("command not found: %s", name)
	}

	cmd := exec.Command(path, args...)
	cmd.Args = append([]string{name}, args...)
	cmd.Env = r.env.ToSlice()
	cmd.Stdin = stdin
	cmd.Stdout = stdout

	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf

	runErr := cmd.Run()
	if runErr == nil {
		return stageResult{exitCode: 0, stderr: stderrBuf.Bytes()}, nil
	}

	if exitErr, ok := runErr.(*exec.ExitError); ok {
		code := exitErr.ExitCode()
		if code < 0 {
			code = 1
		}
		return stageResult{exitCode: code, stderr: stderrBuf.Bytes()}, nil
	}

	return stageResult{}, newProcessError("failed to spawn %s: %v", name, runErr)
}
