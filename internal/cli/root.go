// Package cli wires the formkit commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formkit"
	"github.com/goliatone/go-formkit/pkg/logging"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/openapi"
)

// ExitError carries a process exit code. Commands return it when the
// outcome is a negative result rather than a failure to run.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ErrInvalid is wrapped by the ExitError returned when data fails validation.
var ErrInvalid = errors.New("form data is invalid")

type globals struct {
	catalog   string
	openapi   string
	overlay   string
	logLevel  string
	logFormat string
	logger    *zap.Logger
}

// NewRootCommand builds the formkit command tree writing to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "formkit",
		Short:         "Validate, complete and fill declarative forms",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			g.logger = newLogger(g.logLevel, g.logFormat)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if g.logger != nil {
				_ = g.logger.Sync()
			}
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&g.catalog, "catalog", "forms", "form document or directory of documents")
	flags.StringVar(&g.openapi, "openapi", "", "OpenAPI document; --form then names an operation")
	flags.StringVar(&g.overlay, "ui", "", "UI overlay document applied to OpenAPI forms")
	flags.StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error); defaults to $"+logging.EnvLevel)
	flags.StringVar(&g.logFormat, "log-format", "", "log format (console, json); defaults to $"+logging.EnvFormat)

	root.AddCommand(
		newFormsCommand(g),
		newValidateCommand(g),
		newDefaultsCommand(g),
		newLayoutCommand(g),
		newFillCommand(g),
		newLintCommand(),
	)
	return root
}

// Execute runs the command tree with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand(os.Stdout).ExecuteContext(ctx)
}

// newLogger prefers explicit flags over the environment.
func newLogger(level, format string) *zap.Logger {
	if level == "" && format == "" {
		return logging.FromEnv("warn", logging.FormatConsole)
	}
	if level == "" {
		level = os.Getenv(logging.EnvLevel)
	}
	if level == "" {
		level = "warn"
	}
	if format == "" {
		format = os.Getenv(logging.EnvFormat)
	}
	return logging.New(level, logging.ParseFormat(format))
}

func (g *globals) loadCatalog() (*model.Catalog, error) {
	return formkit.LoadCatalogPath(g.catalog, nil)
}

func (g *globals) form(ctx context.Context, id string) (*model.FormSpec, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("--form is required")
	}
	if g.openapi != "" {
		raw, err := os.ReadFile(g.openapi)
		if err != nil {
			return nil, fmt.Errorf("read openapi document: %w", err)
		}
		var opts []openapi.Option
		if g.overlay != "" {
			data, err := os.ReadFile(g.overlay)
			if err != nil {
				return nil, fmt.Errorf("read overlay: %w", err)
			}
			overlays, err := openapi.ParseOverlays(data, g.overlay)
			if err != nil {
				return nil, err
			}
			if overlay, ok := overlays.Operation(id); ok {
				opts = append(opts, openapi.WithOverlay(overlay))
			}
		}
		return formkit.FromOpenAPI(ctx, raw, id, opts...)
	}
	catalog, err := g.loadCatalog()
	if err != nil {
		return nil, err
	}
	spec, ok := catalog.Form(id)
	if !ok {
		return nil, fmt.Errorf("form %q not found (available: %s)", id, strings.Join(catalog.Forms(), ", "))
	}
	return spec, nil
}

// readData decodes a JSON or YAML object from path; "-" reads stdin.
func readData(cmd *cobra.Command, path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	var out map[string]any
	if jsonErr := json.Unmarshal(raw, &out); jsonErr != nil {
		if yamlErr := yaml.Unmarshal(raw, &out); yamlErr != nil {
			return nil, fmt.Errorf("decode data: %w", errors.Join(jsonErr, yamlErr))
		}
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

func writeJSON(w io.Writer, value any) error {
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(payload))
	return err
}
