package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formbuilder/pkg/export"
	"github.com/goliatone/go-formbuilder/pkg/model"
)

type exportOptions struct {
	format string
	output string
	title  string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the form as JSON, YAML or an OpenAPI document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(opts.format)
			if err != nil {
				return err
			}
			s, err := rootOpts.Store(cmd.Context())
			if err != nil {
				return err
			}
			if !s.CanExport() {
				return errors.New("nothing to export, add an element first")
			}
			artifact, err := export.Render(cmd.Context(), format, s.Elements(), export.Options{
				Info: export.Info{Title: rootOpts.Config.Preview.Title},
			})
			if err != nil {
				return err
			}
			return writeOutput(cmd, opts.output, artifact.Data)
		},
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", "json", "export format (json|yaml|openapi)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVar(&opts.title, "title", "", "document title used by the openapi format")
	return cmd
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the form with a JSON export or an OpenAPI document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if format == "" {
				format = formatFromPath(args[0])
			}
			parsed, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			var elements []model.Element
			switch parsed {
			case export.FormatJSON:
				elements, err = export.ParseJSON(data)
			case export.FormatOpenAPI:
				elements, err = export.ParseOpenAPI(cmd.Context(), data)
			default:
				return fmt.Errorf("importing %s is not supported", parsed)
			}
			if err != nil {
				return err
			}

			s, err := rootOpts.Store(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.Replace(cmd.Context(), elements); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d elements from %s\n", len(elements), args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "input format (json|openapi), guessed from the file name if empty")
	return cmd
}

func formatFromPath(path string) string {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case strings.Contains(base, "openapi"):
		return string(export.FormatOpenAPI)
	case strings.HasSuffix(base, ".yaml"), strings.HasSuffix(base, ".yml"):
		return string(export.FormatYAML)
	default:
		return string(export.FormatJSON)
	}
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		out := cmd.OutOrStdout()
		if _, err := out.Write(data); err != nil {
			return err
		}
		if len(data) > 0 && data[len(data)-1] != '\n' {
			_, err := fmt.Fprintln(out)
			return err
		}
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Written to %s\n", path)
	return nil
}
