package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/store"
)

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <type>",
		Short: "Append an element before the submit button",
		Long: "Append an element of the given type before the submit button. Run\n" +
			"\"formbuilder palette\" for the list of types.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, ok := model.ParseType(args[0])
			if !ok {
				if hint := suggestType(args[0]); hint != "" {
					return fmt.Errorf("unknown element type %q, did you mean %q?", args[0], hint)
				}
				return fmt.Errorf("unknown element type %q", args[0])
			}
			s, err := rootOpts.Store(cmd.Context())
			if err != nil {
				return err
			}
			el, err := s.Add(cmd.Context(), t)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s (%s)\n", el.Type, el.ID, el.Label)
			return nil
		},
	}
}

type updateOptions struct {
	label    string
	required bool
	value    string
	options  []string
}

// NewUpdateCommand creates the update command. Only flags given on the
// command line are applied.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &updateOptions{}
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit the label, required flag, value or options of an element",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(rootOpts, opts, args[0], cmd)
		},
	}
	cmd.Flags().StringVar(&opts.label, "label", "", "new label")
	cmd.Flags().BoolVar(&opts.required, "required", false, "mark the element required")
	cmd.Flags().StringVar(&opts.value, "value", "", "new value, parsed for the element type")
	cmd.Flags().StringSliceVar(&opts.options, "options", nil, "replace the options of a select or radio element")
	return cmd
}

func runUpdate(rootOpts *RootOptions, opts *updateOptions, id string, cmd *cobra.Command) error {
	s, err := rootOpts.Store(cmd.Context())
	if err != nil {
		return err
	}
	el, ok := s.Find(id)
	if !ok {
		return fmt.Errorf("element %q not found", id)
	}

	var patch model.Patch
	flags := cmd.Flags()
	if flags.Changed("label") {
		patch.Label = &opts.label
	}
	if flags.Changed("required") {
		if el.IsSubmit() {
			return errors.New("the submit element has no required flag")
		}
		patch.Required = &opts.required
	}
	if flags.Changed("value") {
		if err := valuePatch(el, opts.value, &patch); err != nil {
			return err
		}
	}
	if flags.Changed("options") {
		if !el.HasOptions() {
			return fmt.Errorf("%s elements have no options", el.Type)
		}
		if len(opts.options) == 0 {
			return fmt.Errorf("options must not be empty, at least %d is required", model.MinOptions)
		}
		patch.Options = opts.options
	}
	if patch.Empty() {
		return errors.New("nothing to update, pass --label, --required, --value or --options")
	}

	if !s.Update(cmd.Context(), id, patch) {
		return fmt.Errorf("element %q not updated", id)
	}
	el, _ = s.Find(id)
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %s (%s)\n", el.Type, el.ID, el.Label)
	return nil
}

func valuePatch(el model.Element, raw string, patch *model.Patch) error {
	switch el.Type.ValueKind() {
	case model.ValueText:
		patch.Text = &raw
	case model.ValueNumber:
		n, err := model.ParseNumber(raw)
		if err != nil {
			return err
		}
		patch.Number = &n
	case model.ValueBool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("checkbox value must be true or false, got %q", raw)
		}
		patch.Checked = &b
	default:
		return fmt.Errorf("%s elements carry no value", el.Type)
	}
	return nil
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an element",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.Store(cmd.Context())
			if err != nil {
				return err
			}
			id := args[0]
			el, ok := s.Find(id)
			if !ok {
				return fmt.Errorf("element %q not found", id)
			}
			if el.IsSubmit() {
				return errors.New("the submit element cannot be removed")
			}
			if !s.Remove(cmd.Context(), id) {
				return fmt.Errorf("element %q not removed", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s %s (%s)\n", el.Type, el.ID, el.Label)
			return nil
		},
	}
}

// NewMoveCommand creates the move command. Arguments are either two
// positions, as printed by "list", or two element ids.
func NewMoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move <from> <to>",
		Short: "Move an element to another position",
		Long: "Move an element to another position. <from> and <to> are zero based\n" +
			"positions that skip the submit button, or element ids: the element\n" +
			"<from> then takes the slot held by <to>.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.Store(cmd.Context())
			if err != nil {
				return err
			}
			from, fromErr := strconv.Atoi(args[0])
			to, toErr := strconv.Atoi(args[1])
			if fromErr == nil && toErr == nil {
				if err := s.Reorder(cmd.Context(), from, to); err != nil {
					if errors.Is(err, store.ErrIndexOutOfRange) {
						return fmt.Errorf("positions must be between 0 and %d", s.Len()-2)
					}
					return err
				}
			} else if !s.ReorderByID(cmd.Context(), args[0], args[1]) {
				return fmt.Errorf("cannot move %q onto %q", args[0], args[1])
			}
			return printElements(cmd.OutOrStdout(), s.Elements())
		},
	}
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Remove every element except the submit button",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.Store(cmd.Context())
			if err != nil {
				return err
			}
			s.Reset(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Form reset")
			return nil
		},
	}
}
