package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/Makaveli-BG/dkp-discord-bot/internal/roster"
	"github.com/Makaveli-BG/dkp-discord-bot/internal/store"
)

var statsDiscord string

var statsCmd = &cobra.Command{
	Use:   "stats [player-id]",
	Short: "Show one player's normalized stats",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		start := time.Now()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		view, err := env.view(ctx)
		if err != nil {
			return err
		}

		rec, err := findPlayer(view, args, statsDiscord)
		if err != nil {
			return err
		}

		env.record(ctx, store.QueryLog{
			Command:  "stats",
			PlayerID: rec.PlayerID,
			Warnings: len(view.warnings),
			Duration: time.Since(start),
		})

		printRecord(rec)
		return nil
	},
}

// findPlayer resolves the target record from an explicit id argument or a
// linked chat identity. Unlinked identities are a user-facing condition,
// not a crash.
func findPlayer(view *snapshotView, args []string, discord string) (*roster.Record, error) {
	switch {
	case len(args) == 1:
		rec := view.index.ByPlayerID(args[0])
		if rec == nil {
			return nil, eris.Errorf("no player with id %q in the sheet", args[0])
		}
		return rec, nil
	case discord != "":
		rec := view.index.ByLinkedAccount(discord)
		if rec == nil {
			return nil, eris.Errorf("%s is not linked to any player id (use `dkp linkme` first)", discord)
		}
		return rec, nil
	default:
		return nil, eris.New("pass a player id or --discord <identity>")
	}
}

func printRecord(rec *roster.Record) {
	fmt.Printf("%s (ID %s)\n", rec.Name, rec.PlayerID)
	if rec.LinkedAccount != "" {
		fmt.Printf("Linked to: %s\n", rec.LinkedAccount)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\nMETRIC\tSHEET VALUE\tNORMALIZED")
	for _, key := range rec.MetricKeys {
		m := rec.Metrics[key]
		fmt.Fprintf(w, "%s\t%s\t%s\n", m.Header, orDash(m.Display), orDash(m.Value.Display()))
	}
	w.Flush()

	if len(rec.Extras) > 0 {
		fmt.Println()
		for name, v := range rec.Extras {
			fmt.Printf("%s: %s\n", name, v)
		}
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	statsCmd.Flags().StringVar(&statsDiscord, "discord", "", "resolve the player via this linked chat identity")
	rootCmd.AddCommand(statsCmd)
}
