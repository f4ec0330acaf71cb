// Package cli implements the formbuilder command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formbuilder/internal/config"
	"github.com/goliatone/go-formbuilder/internal/logger"
	"github.com/goliatone/go-formbuilder/pkg/store"
)

// RootOptions holds global flags and the state shared by subcommands once
// the root pre-run has loaded the configuration.
type RootOptions struct {
	ConfigFile string
	Storage    string
	Path       string
	Key        string
	LogLevel   string

	Config config.AppConfig
	Logger *slog.Logger

	store  *store.Store
	closer io.Closer
}

// flagBindings maps config keys onto the flags that can override them. Keys
// whose flag is not defined on the running command are skipped.
var flagBindings = config.FlagBindings{
	"storage.driver":  "storage",
	"storage.path":    "path",
	"storage.key":     "key",
	"log.level":       "log-level",
	"http.addr":       "addr",
	"preview.theme":   "theme",
	"preview.variant": "variant",
	"preview.title":   "title",
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "formbuilder",
		Short: "Build, preview and export form definitions",
		Long: "formbuilder edits a persisted list of form elements, previews it as HTML or\n" +
			"an interactive terminal form, and exports it as JSON, YAML or OpenAPI.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.close()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default: formbuilder.yaml lookup)")
	cmd.PersistentFlags().StringVar(&opts.Storage, "storage", "", "storage driver (file|sqlite|memory)")
	cmd.PersistentFlags().StringVar(&opts.Path, "path", "", "storage directory")
	cmd.PersistentFlags().StringVar(&opts.Key, "key", "", "storage key")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")

	cmd.AddCommand(NewPaletteCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewMoveCommand(opts))
	cmd.AddCommand(NewOptionsCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewPreviewCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func (o *RootOptions) setup(cmd *cobra.Command) error {
	bindings := config.FlagBindings{}
	for key, name := range flagBindings {
		if cmd.Flags().Lookup(name) != nil {
			bindings[key] = name
		}
	}
	cfg, err := config.Load(o.ConfigFile, cmd.Flags(), bindings)
	if err != nil {
		return err
	}
	log, err := logger.Setup(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Development: cfg.Log.Development,
		Output:      cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}
	o.Config = cfg
	o.Logger = log
	return nil
}

func (o *RootOptions) close() error {
	if o.closer == nil {
		return nil
	}
	err := o.closer.Close()
	o.closer = nil
	o.store = nil
	return err
}
