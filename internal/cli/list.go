package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formbuilder/pkg/export"
	"github.com/goliatone/go-formbuilder/pkg/model"
)

// NewPaletteCommand creates the palette command.
func NewPaletteCommand(rootOpts *RootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "palette",
		Short: "List the element types that can be added",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPalette(cmd.OutOrStdout(), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the palette as JSON")
	return cmd
}

func runPalette(out io.Writer, asJSON bool) error {
	entries := model.Palette()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tLABEL")
	for _, entry := range entries {
		fmt.Fprintf(tw, "%s\t%s\n", entry.Type, entry.Label)
	}
	return tw.Flush()
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the elements of the form in canvas order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.Store(cmd.Context())
			if err != nil {
				return err
			}
			elements := s.Elements()
			if asJSON {
				data, err := export.JSON(elements)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			return printElements(cmd.OutOrStdout(), elements)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the collection as exported JSON")
	return cmd
}

func printElements(out io.Writer, elements []model.Element) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tTYPE\tLABEL\tREQUIRED\tVALUE")
	index := 0
	for _, el := range elements {
		position := "-"
		if !el.IsSubmit() {
			position = fmt.Sprint(index)
			index++
		}
		required := ""
		if el.Required {
			required = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", position, el.ID, el.Type, el.Label, required, describeValue(el))
	}
	return tw.Flush()
}

func describeValue(el model.Element) string {
	var value string
	switch el.Type.ValueKind() {
	case model.ValueText:
		value = el.Text
	case model.ValueNumber:
		value = el.Number.String()
	case model.ValueBool:
		value = fmt.Sprint(el.Checked)
	}
	if el.HasOptions() {
		value = fmt.Sprintf("%s [%s]", value, strings.Join(el.Options, ", "))
	}
	return strings.TrimSpace(value)
}
