package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Makaveli-BG/dkp-discord-bot/internal/rank"
	"github.com/Makaveli-BG/dkp-discord-bot/internal/store"
)

var leaderboardDiscord string

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard [metric]",
	Short: "Rank players by a metric",
	Long:  "Ranks all players with a numeric value for the metric, descending. Metrics: " + strings.Join(rank.Metrics(), ", ") + ". Defaults to score.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		start := time.Now()

		metric := "score"
		if len(args) == 1 {
			metric = strings.ToLower(args[0])
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

		requesterID := ""
		if leaderboardDiscord != "" {
			if rec := view.index.ByLinkedAccount(leaderboardDiscord); rec != nil {
				requesterID = rec.PlayerID
			}
		}

		board, err := rank.Leaderboard(view.index, view.schema, metric, requesterID, cfg.Leaderboard.TopN)
		if err != nil {
			return err
		}

		env.record(ctx, store.QueryLog{
			Command:  "leaderboard",
			Metric:   metric,
			PlayerID: requesterID,
			Warnings: len(view.warnings),
			Duration: time.Since(start),
		})

		if len(board.Top) == 0 {
			fmt.Printf("No rankable values for %s.\n", board.Label)
			return nil
		}

		fmt.Printf("%s — top %d of %d\n\n", board.Label, len(board.Top), board.Total)
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RANK\tPLAYER\tID\tVALUE")
		for _, e := range board.Top {
			fmt.Fprintf(w, "#%d\t%s\t%s\t%s\n", e.Rank, e.Name, e.PlayerID, e.Display)
		}
		w.Flush()

		if board.Requester != nil && board.Requester.Rank > len(board.Top) {
			fmt.Printf("\nYour position: #%d (%s)\n", board.Requester.Rank, board.Requester.Display)
		}
		return nil
	},
}

func init() {
	leaderboardCmd.Flags().StringVar(&leaderboardDiscord, "discord", "", "attach this linked chat identity's own rank")
	rootCmd.AddCommand(leaderboardCmd)
}
