package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/Makaveli-BG/dkp-discord-bot/internal/store"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent queries from the audit log",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cfg.Store.DSN == "" {
			return eris.New("audit store disabled (set store.dsn to enable)")
		}
		st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
		if err != nil {
			return err
		}
		defer st.Close()

		entries, err := st.RecentQueries(ctx, runsLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "No queries recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tCOMMAND\tMETRIC\tPLAYER\tWARN\tTOOK")
		for _, q := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				q.CreatedAt.Format("2006-01-02 15:04:05"),
				q.Command, orDash(q.Metric), orDash(q.PlayerID), q.Warnings, q.Duration)
		}
		w.Flush()
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "entries to show")
	rootCmd.AddCommand(runsCmd)
}
