package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/MakeNowJust/heredoc"
	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
)

func usage(fs *flag.FlagSet) func() {
	return func() {
		out := fs.Output()
		fmt.Fprintf(out, heredoc.Doc(`
			Usage: %s [-url <openapi-json-url>] [-timeout 10s] [-config file.toml] [-mcp] [-verbose]

			Prints every path, method and parameter (name and location) of a
			remote OpenAPI JSON document.

			Flags:
		`), fs.Name())
		fs.PrintDefaults()
		fmt.Fprint(out, heredoc.Docf(`

			Config file (TOML):
			  url = %q
			  timeout = "10s"

			Examples:
			  %[2]s
			  %[2]s -url https://petstore3.swagger.io/api/v3/openapi.json
			  %[2]s -mcp
		`, DefaultURL, fs.Name()))
	}
}

// newLogger returns the stderr logger used by every component.
func newLogger(w io.Writer, verbose bool) *log.Logger {
	logger := &log.Logger{
		Handler: cli.New(w),
		Level:   log.WarnLevel,
	}
	if verbose {
		logger.Level = log.DebugLevel
	}
	return logger
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("openapi-inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = usage(fs)

	cfg, err := parseConfig(fs, args)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	logger := newLogger(stderr, cfg.Verbose)
	if err != nil {
		logger.WithError(err).Error("invalid configuration")
		return 2
	}

	inspector := NewInspector(
		WithTimeout(cfg.Timeout),
		WithOutput(stdout),
		WithLogger(logger),
		WithDescribe(cfg.Verbose),
	)

	if cfg.MCP {
		if err := NewInspectorMCPServer(inspector, cfg.URL, logger).Start(); err != nil {
			logger.WithError(err).Error("mcp server stopped")
			return 1
		}
		return 0
	}

	inspector.Inspect(ctx, cfg.URL)
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
