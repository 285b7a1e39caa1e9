package shell

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Shell is one REPL session: a persistent environment, a builtin
// registry, and the streams every line's pipeline executes against.
// A Shell is not safe for concurrent use; only the pipeline workers it
// spawns internally run concurrently with each other.
type Shell struct {
	env      Environment
	builtins *builtinRegistry
	in       *bufio.Reader
	out      io.Writer
	errOut   io.Writer
}

// New builds a Shell reading lines from in and writing results to out
// and errOut. The environment is seeded from the host process's own
// environment once, at construction time; later changes to the host
// environment are not observed.
func New(in io.Reader, out, errOut io.Writer) *Shell {
	return &Shell{
		env:      NewEnvironmentFromProcess(),
		builtins: newBuiltinRegistry(DefaultFileOpener{}),
		in:       bufio.NewReader(in),
		out:      out,
		errOut:   errOut,
	}
}

// Run drives the read-parse-execute loop: read a line, trim it, skip it
// if blank, otherwise parse and run it. Assignments are applied to the
// environment unconditionally, even on an assignments-only line. A
// ParseError, IOError, or ProcessError is written to errOut and the
// loop continues; Exit(code) returns code; end of input returns 0; a
// read-side I/O error returns 1.
func (s *Shell) Run() int {
	streams := IoStreams{Stdout: s.out, Stderr: s.errOut}

	for {
		line, readErr := s.in.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			fmt.Fprintf(s.errOut, "I/O error: %v\n", readErr)
			return 1
		}

		if trimmed := strings.TrimSpace(line); trimmed != "" {
			control, shellErr := s.runLine(trimmed, streams)
			switch {
			case shellErr != nil:
				fmt.Fprintln(s.errOut, shellErr.Error())
			case control.IsExit():
				return control.ExitCode()
			}
		}

		if readErr == io.EOF {
			return 0
		}
	}
}

// runLine parses one trimmed line against the shell's current
// environment, commits any assignments it carries, and executes its
// pipeline if it has one.
func (s *Shell) runLine(line string, streams IoStreams) (ShellControl, ShellError) {
	parsed, err := ParseLine(line, s.env)
	if err != nil {
		return ShellControl{}, err
	}

	s.env.ApplyAssignments(parsed.Assignments)

	if parsed.Pipeline == nil {
		return Continue(0), nil
	}

	runner := newStageRunner(s.builtins, s.env)
	return runner.run(*parsed.Pipeline, streams)
}
