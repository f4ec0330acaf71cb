package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formbuilder/internal/httpapi"
	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/orchestrator"
	"github.com/goliatone/go-formbuilder/pkg/renderers/html"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the builder API and the HTML preview over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := rootOpts.Store(ctx)
			if err != nil {
				return err
			}
			unsubscribe := s.Subscribe(func(elements []model.Element) {
				rootOpts.Logger.Info("form updated", "elements", len(elements))
			})
			defer unsubscribe()

			cfg := rootOpts.Config
			srv, err := httpapi.New(s,
				httpapi.WithLogger(rootOpts.Logger),
				httpapi.WithAllowedOrigins(cfg.HTTP.AllowedOrigins...),
				httpapi.WithTitle(cfg.Preview.Title),
				httpapi.WithOrchestrator(orchestrator.New(
					orchestrator.WithLogger(rootOpts.Logger),
					orchestrator.WithHTMLOptions(html.WithTheme(cfg.Preview.Theme, cfg.Preview.Variant)),
				)),
			)
			if err != nil {
				return err
			}
			return srv.Run(ctx, cfg.HTTP.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :3000)")
	cmd.Flags().StringVar(new(string), "theme", "", "html theme name")
	cmd.Flags().StringVar(new(string), "variant", "", "html theme variant")
	cmd.Flags().StringVar(new(string), "title", "", "preview page title")
	return cmd
}
