package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formbuilder/pkg/orchestrator"
	"github.com/goliatone/go-formbuilder/pkg/render"
	"github.com/goliatone/go-formbuilder/pkg/renderers/html"
	"github.com/goliatone/go-formbuilder/pkg/renderers/tui"
)

type previewOptions struct {
	renderer     string
	output       string
	outputFormat string
	preset       string
	document     string
	theme        string
	variant      string
	title        string
}

// NewPreviewCommand creates the preview command.
func NewPreviewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &previewOptions{}
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render the form as HTML or fill it in on the terminal",
		Long: "Render the form. The html renderer writes a standalone page; the tui\n" +
			"renderer asks for every field on the terminal and prints the validated\n" +
			"submission.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(rootOpts, opts, cmd)
		},
	}
	cmd.Flags().StringVarP(&opts.renderer, "renderer", "r", html.Name, "renderer to use (html|tui)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVar(&opts.outputFormat, "output-format", string(tui.OutputFormatJSON), "tui submission format (json|form|pretty)")
	cmd.Flags().StringVar(&opts.preset, "preset", "", "JSON file with label, required and option overrides")
	cmd.Flags().StringVar(&opts.document, "document", "", "render an exported OpenAPI document instead of the stored form")
	cmd.Flags().StringVar(&opts.theme, "theme", "", "html theme name")
	cmd.Flags().StringVar(&opts.variant, "variant", "", "html theme variant")
	cmd.Flags().StringVar(&opts.title, "title", "", "page title")
	return cmd
}

func runPreview(rootOpts *RootOptions, opts *previewOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg := rootOpts.Config.Preview

	registry := render.NewRegistry()
	htmlRenderer, err := html.New(html.WithTheme(cfg.Theme, cfg.Variant))
	if err != nil {
		return err
	}
	if err := registry.Register(htmlRenderer); err != nil {
		return err
	}
	format, err := tui.ParseOutputFormat(opts.outputFormat)
	if err != nil {
		return err
	}
	tuiRenderer, err := tui.New(
		tui.WithPromptDriver(tui.NewSurveyDriver(cmd.ErrOrStderr())),
		tui.WithOutputFormat(format),
	)
	if err != nil {
		return err
	}
	if err := registry.Register(tuiRenderer); err != nil {
		return err
	}

	orchestratorOpts := []orchestrator.Option{
		orchestrator.WithRegistry(registry),
		orchestrator.WithDefaultRenderer(html.Name),
		orchestrator.WithLogger(rootOpts.Logger),
	}
	if opts.preset != "" {
		preset, err := orchestrator.NewJSONPresetTransformerFromFS(os.DirFS(filepath.Dir(opts.preset)), filepath.Base(opts.preset))
		if err != nil {
			return err
		}
		orchestratorOpts = append(orchestratorOpts, orchestrator.WithTransformer(preset))
	}

	req := orchestrator.Request{Title: cfg.Title, Renderer: opts.renderer}
	if opts.document != "" {
		data, err := os.ReadFile(opts.document)
		if err != nil {
			return err
		}
		req.Document = data
	} else {
		s, err := rootOpts.Store(ctx)
		if err != nil {
			return err
		}
		req.Elements = s.Elements()
	}

	result, err := orchestrator.New(orchestratorOpts...).Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	return writeOutput(cmd, opts.output, result.Body)
}
