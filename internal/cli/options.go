package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/store"
)

// NewOptionsCommand groups the option editor of select and radio elements.
func NewOptionsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "options",
		Short: "Edit the options of a select or radio element",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <id>",
		Short: "Append a new option",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editOptions(rootOpts, cmd, args[0], func(s *store.Store, el model.Element) error {
				if !s.AddOption(cmd.Context(), el.ID) {
					return fmt.Errorf("option not added to %q", el.ID)
				}
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <id> <index> <value>",
		Short: "Change the text of an option",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editOptions(rootOpts, cmd, args[0], func(s *store.Store, el model.Element) error {
				index, err := optionIndex(el, args[1])
				if err != nil {
					return err
				}
				if !s.SetOption(cmd.Context(), el.ID, index, args[2]) {
					return fmt.Errorf("option %d of %q not changed", index, el.ID)
				}
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove <id> <index>",
		Short: "Delete an option",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editOptions(rootOpts, cmd, args[0], func(s *store.Store, el model.Element) error {
				index, err := optionIndex(el, args[1])
				if err != nil {
					return err
				}
				if len(el.Options) <= model.MinOptions {
					return fmt.Errorf("%q must keep at least %d option", el.ID, model.MinOptions)
				}
				if !s.RemoveOption(cmd.Context(), el.ID, index) {
					return fmt.Errorf("option %d of %q not removed", index, el.ID)
				}
				return nil
			})
		},
	})
	return cmd
}

func editOptions(rootOpts *RootOptions, cmd *cobra.Command, id string, edit func(*store.Store, model.Element) error) error {
	s, err := rootOpts.Store(cmd.Context())
	if err != nil {
		return err
	}
	el, ok := s.Find(id)
	if !ok {
		return fmt.Errorf("element %q not found", id)
	}
	if !el.HasOptions() {
		return fmt.Errorf("%s elements have no options", el.Type)
	}
	if err := edit(s, el); err != nil {
		return err
	}
	el, _ = s.Find(id)
	out := cmd.OutOrStdout()
	for i, option := range el.Options {
		fmt.Fprintf(out, "%d. %s\n", i, option)
	}
	return nil
}

func optionIndex(el model.Element, raw string) (int, error) {
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 || index >= len(el.Options) {
		return 0, fmt.Errorf("option index must be between 0 and %d, got %q", len(el.Options)-1, raw)
	}
	return index, nil
}
