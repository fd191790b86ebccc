package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formkit"
	"github.com/goliatone/go-formkit/pkg/controller"
	"github.com/goliatone/go-formkit/pkg/defaults"
	"github.com/goliatone/go-formkit/pkg/openapi"
	"github.com/goliatone/go-formkit/pkg/prompt"
)

func newFormsCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "forms",
		Short: "List the forms of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := g.loadCatalog()
			if err != nil {
				return err
			}
			for _, id := range catalog.Forms() {
				spec, _ := catalog.Form(id)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, spec.Title)
			}
			return nil
		},
	}
}

type validateOutput struct {
	Form   string            `json:"form"`
	Valid  bool              `json:"valid"`
	Value  map[string]any    `json:"value,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

func newValidateCommand(g *globals) *cobra.Command {
	var formID, dataPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a data file against a form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec, err := g.form(cmd.Context(), formID)
			if err != nil {
				return err
			}
			data, err := readData(cmd, dataPath)
			if err != nil {
				return err
			}
			result := formkit.Validate(spec, data)
			g.logger.Debug("validated form data", zap.String("form", spec.ID), zap.Int("errors", len(result.Errors)))
			if err := writeJSON(cmd.OutOrStdout(), validateOutput{
				Form:   spec.ID,
				Valid:  result.Valid(),
				Value:  result.Value,
				Errors: result.Errors,
			}); err != nil {
				return err
			}
			if !result.Valid() {
				return &ExitError{Code: 1, Err: ErrInvalid}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&formID, "form", "", "form id (or operation id with --openapi)")
	cmd.Flags().StringVar(&dataPath, "data", "-", "JSON or YAML data file; - reads stdin")
	return cmd
}

type defaultsOutput struct {
	Form       string         `json:"form"`
	Value      map[string]any `json:"value"`
	FellBack   bool           `json:"fellBack,omitempty"`
	Unresolved []string       `json:"unresolved,omitempty"`
}

func newDefaultsCommand(g *globals) *cobra.Command {
	var formID, dataPath string
	cmd := &cobra.Command{
		Use:   "defaults",
		Short: "Print the complete value tree of a form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec, err := g.form(cmd.Context(), formID)
			if err != nil {
				return err
			}
			data, err := readData(cmd, dataPath)
			if err != nil {
				return err
			}
			value, report := formkit.ResolveDefaults(spec, data, defaults.WithLogger(g.logger))
			return writeJSON(cmd.OutOrStdout(), defaultsOutput{
				Form:       spec.ID,
				Value:      value,
				FellBack:   report.FellBack,
				Unresolved: report.Unresolved,
			})
		},
	}
	cmd.Flags().StringVar(&formID, "form", "", "form id (or operation id with --openapi)")
	cmd.Flags().StringVar(&dataPath, "data", "", "JSON or YAML data file; - reads stdin")
	return cmd
}

func newLayoutCommand(g *globals) *cobra.Command {
	var formID string
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the render plan of a form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec, err := g.form(cmd.Context(), formID)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), formkit.Compose(spec))
		},
	}
	cmd.Flags().StringVar(&formID, "form", "", "form id (or operation id with --openapi)")
	return cmd
}

func newFillCommand(g *globals) *cobra.Command {
	var (
		formID   string
		dataPath string
		attempts int
	)
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill a form interactively and print the submitted values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			spec, err := g.form(ctx, formID)
			if err != nil {
				return err
			}
			data, err := readData(cmd, dataPath)
			if err != nil {
				return err
			}

			var submitted map[string]any
			ctrl, err := formkit.NewController(spec,
				controller.WithContext(ctx),
				controller.WithLogger(g.logger),
				controller.WithInitialData(data),
				controller.WithSubmitHandler(func(_ context.Context, values map[string]any) error {
					submitted = values
					return nil
				}),
			)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			filler := prompt.NewFiller(prompt.NewSurveyDriver(cmd.ErrOrStderr()),
				prompt.WithLogger(g.logger),
				prompt.WithAttempts(attempts),
			)
			if err := filler.Fill(ctx, ctrl, formkit.Compose(spec)); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), submitted)
		},
	}
	cmd.Flags().StringVar(&formID, "form", "", "form id (or operation id with --openapi)")
	cmd.Flags().StringVar(&dataPath, "data", "", "JSON or YAML file with initial values")
	cmd.Flags().IntVar(&attempts, "attempts", prompt.DefaultAttempts, "correction rounds before giving up")
	return cmd
}

func newLintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lint <openapi-document>...",
		Short: "Report unsupported x-formgen extensions in OpenAPI documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			found := 0
			for _, path := range args {
				raw, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("lint %s: %w", path, err)
				}
				doc, err := openapi.Load(cmd.Context(), raw)
				if err != nil {
					return fmt.Errorf("lint %s: %w", path, err)
				}
				for _, v := range openapi.Lint(doc) {
					found++
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", path, v)
				}
			}
			if found > 0 {
				return &ExitError{Code: 1, Err: fmt.Errorf("%d extension violation(s)", found)}
			}
			return nil
		},
	}
}
