package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/Makaveli-BG/dkp-discord-bot/internal/compare"
	"github.com/Makaveli-BG/dkp-discord-bot/internal/store"
)

var compareDiscord bool

var compareCmd = &cobra.Command{
	Use:   "compare <player-a> <player-b>",
	Short: "Compare two players metric by metric",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		start := time.Now()

		if args[0] == args[1] {
			return eris.New("cannot compare a player with themselves")
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		view, err := env.view(ctx)
		if err != nil {
			return err
		}

		lookup := view.index.ByPlayerID
		if compareDiscord {
			lookup = view.index.ByLinkedAccount
		}
		a := lookup(args[0])
		if a == nil {
			return eris.Errorf("%q not found in the sheet", args[0])
		}
		b := lookup(args[1])
		if b == nil {
			return eris.Errorf("%q not found in the sheet", args[1])
		}

		res := compare.Players(a, b)

		env.record(ctx, store.QueryLog{
			Command:  "compare",
			PlayerID: res.PlayerA,
			Warnings: len(view.warnings),
			Duration: time.Since(start),
		})

		printComparison(res)
		return nil
	},
}

func printComparison(res *compare.Result) {
	fmt.Printf("%s vs %s\n\n", res.NameA, res.NameB)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "METRIC\t%s\t%s\tVERDICT\n", res.NameA, res.NameB)
	for _, m := range res.Metrics {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Header, orDash(m.DisplayA), orDash(m.DisplayB), verdictLabel(m, res))
	}
	w.Flush()

	fmt.Printf("\nAdvantage: %s %d — %d %s\n", res.NameA, res.AWins, res.BWins, res.NameB)
}

func verdictLabel(m compare.MetricResult, res *compare.Result) string {
	switch m.Verdict {
	case compare.ABetter:
		return res.NameA
	case compare.BBetter:
		return res.NameB
	case compare.Tied:
		return "tied"
	default:
		return "n/a"
	}
}

func init() {
	compareCmd.Flags().BoolVar(&compareDiscord, "discord", false, "treat the arguments as linked chat identities instead of player ids")
	rootCmd.AddCommand(compareCmd)
}
