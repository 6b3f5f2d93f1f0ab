package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	claudesession "github.com/wagiedev/claude-session-go"
)

func newModelsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List known models and their aliases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listModels(cmd.OutOrStdout(), asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}

func listModels(w io.Writer, asJSON bool) error {
	all := claudesession.Models()

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(all)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tFAMILY\tCONTEXT\tALIASES")

	for _, m := range all {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", m.ID, m.Family, m.ContextWindow, strings.Join(m.Aliases, ", "))
	}

	return tw.Flush()
}
