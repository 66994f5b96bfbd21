package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/entmigrate/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("entmigrate", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
entmigrate - validate a versioned document and migrate it to its latest version.

Usage:
  entmigrate [options] [INPUT_PATH]

Arguments:
  INPUT_PATH
    Path to a JSON document to migrate. '-' or no argument reads stdin.

Options:
`)
		flagSet.PrintDefaults()
	}

	var manifests manifestList
	flagSet.Var(&manifests, "manifest", "Path to a manifest file or directory. May be repeated.")
	flagSet.Var(&manifests, "m", "Path to a manifest file or directory (shorthand).")
	entityFlag := flagSet.String("entity", "", "Name of the entity to parse the input as.")
	eFlag := flagSet.String("e", "", "Name of the entity to parse the input as (shorthand).")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if len(manifests) == 0 {
		slog.Debug("No manifest paths provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	entityName := *entityFlag
	if entityName == "" {
		entityName = *eFlag
	}

	inputPath := ""
	if flagSet.NArg() > 0 {
		inputPath = flagSet.Arg(0)
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ManifestPaths: manifests,
		EntityName:    entityName,
		InputPath:     inputPath,
		LogFormat:     logFormat,
		LogLevel:      logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// manifestList collects repeated -manifest/-m flags.
type manifestList []string

func (m *manifestList) String() string { return strings.Join(*m, ",") }

func (m *manifestList) Set(value string) error {
	*m = append(*m, value)
	return nil
}
