package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var schemaJSON bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Dump the inferred sheet layout and a sample record",
	Long:  "Read-only troubleshooting view: how each header column was classified, plus the first normalized player record.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		view, err := env.view(ctx)
		if err != nil {
			return err
		}

		if schemaJSON {
			out := map[string]any{
				"snapshot": view.snap.ID,
				"columns":  view.schema.Dump(),
				"sample":   view.index.Sample(),
				"warnings": view.warnings,
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		fmt.Printf("Snapshot %s — %d columns, %d players, %d warnings\n\n",
			view.snap.ID, len(view.schema.Columns), view.index.Len(), len(view.warnings))

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "COL\tHEADER\tROLE\tKEY")
		for _, col := range view.schema.Dump() {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", col.Index, orDash(col.Header), col.RoleName, orDash(col.Key))
		}
		w.Flush()

		if sample := view.index.Sample(); sample != nil {
			fmt.Println("\nSample record:")
			printRecord(sample)
		}

		for _, warn := range view.warnings {
			fmt.Printf("warning: %s\n", warn.Message)
		}
		return nil
	},
}

func init() {
	schemaCmd.Flags().BoolVar(&schemaJSON, "json", false, "emit JSON instead of a table")
	rootCmd.AddCommand(schemaCmd)
}
