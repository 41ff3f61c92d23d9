package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/brunoga/scim"
	"github.com/brunoga/scim/internal/errors"
	"github.com/brunoga/scim/internal/log"
)

// Global flag names.
const (
	flagConfig    = "config"
	flagLogLevel  = "log-level"
	flagLogFormat = "log-format"
	flagMaxDepth  = "max-depth"
	flagPretty    = "pretty"
)

// Exit codes.
const (
	exitOK           = 0
	exitFailure      = 1
	exitInvalidInput = 2
)

type application struct {
	cfg   Config
	stdin io.Reader
}

// NewApp returns the scim command line application reading from stdin and writing to stdout and stderr.
func NewApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	a := &application{stdin: stdin}

	return &cli.App{
		Name:      "scim",
		Usage:     "Parse SCIM filters and paths, filter resources and apply PATCH requests",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Usage:   "Path to a configuration file (default: scim.yaml in . or $HOME/.config/scim)",
				EnvVars: []string{envPrefix + "_CONFIG"},
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "Log level: trace, debug, info, warn, error",
			},
			&cli.StringFlag{
				Name:  flagLogFormat,
				Usage: "Log format: text or json",
			},
			&cli.IntFlag{
				Name:  flagMaxDepth,
				Usage: "Maximum nesting depth of filters",
			},
			&cli.BoolFlag{
				Name:  flagPretty,
				Usage: "Indent JSON output",
			},
		},
		Before: a.before,
		Commands: []*cli.Command{
			a.parseCommand(),
			a.filterCommand(),
			a.patchCommand(),
			a.diffCommand(),
		},
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

// Run executes the application and returns the process exit code.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	err := NewApp(stdin, stdout, stderr).Run(args)
	if err == nil {
		return exitOK
	}
	return report(stderr, err)
}

func report(w io.Writer, err error) int {
	code := exitFailure
	var exitErr errors.ErrorWithExitCode
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode
	}

	if e, ok := scim.AsError(err); ok {
		fmt.Fprint(w, e.Diagnostic())
		return code
	}

	log.Debugf("%s", errors.ErrorStack(err))
	fmt.Fprintf(w, "Error: %v\n", err)
	return code
}

func (a *application) before(c *cli.Context) error {
	cfg, err := LoadConfig(c)
	if err != nil {
		return err
	}

	logger := log.New(c.App.ErrWriter)
	if err := log.SetLevel(logger, cfg.LogLevel); err != nil {
		return err
	}
	if err := log.SetFormat(logger, cfg.LogFormat); err != nil {
		return err
	}
	log.SetLogger(logger)

	a.cfg = cfg
	log.WithFields(log.Fields{
		"log_level":  cfg.LogLevel,
		"log_format": cfg.LogFormat,
		"max_depth":  cfg.MaxDepth,
		"pretty":     cfg.Pretty,
	}).Debug("Loaded configuration")

	return nil
}

// action wraps a command action so that panics become errors and SCIM errors carry their exit code.
func action(fn cli.ActionFunc) cli.ActionFunc {
	return func(c *cli.Context) (err error) {
		defer errors.Recover(func(cause error) {
			err = cause
		})

		if err := fn(c); err != nil {
			if _, ok := scim.AsError(err); ok {
				return errors.ErrorWithExitCode{Err: err, ExitCode: exitInvalidInput}
			}
			return err
		}
		return nil
	}
}

func (a *application) encoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if a.cfg.Pretty {
		enc.SetIndent("", "  ")
	}
	return enc
}
