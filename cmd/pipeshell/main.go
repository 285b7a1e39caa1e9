// Package main is the entry point for pipeshell, the REPL built around
// github.com/mvpsh/pipeshell/pkg/shell.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mvpsh/pipeshell/pkg/shell"
)

var (
	quiet    bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "pipeshell",
	Short: "an interactive pipeline shell",
	RunE:  run,
}

func init() {
	rootCmd.Flags().BoolVar(&quiet, "quiet", false, "suppress info-level startup/shutdown logging")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "zap log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// run boots the host-process logger and drives the shell's REPL to
// completion, exiting with the code the REPL reports. Per-line
// interpreter errors never pass through here — they go straight to the
// shell's own stderr stream, exactly as the interpreter's error
// contract requires.
func run(cmd *cobra.Command, args []string) error {
	log, err := newLogger(quiet, logLevel)
	if err != nil {
		return err
	}
	defer log.Sync()
	log = log.Named("pipeshell")

	log.Info("starting")

	sh := shell.New(os.Stdin, os.Stdout, os.Stderr)
	code := sh.Run()

	log.Info("exiting", zap.Int("code", code))
	os.Exit(code)
	return nil
}

func newLogger(quiet bool, level string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.TimeKey = ""
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true

	if quiet {
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	} else {
		var lvl zapcore.Level
		if err := lvl.Set(level); err != nil {
			return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	return cfg.Build()
}
