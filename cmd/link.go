package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/Makaveli-BG/dkp-discord-bot/internal/store"
)

var (
	linkDiscord   string
	unlinkDiscord string
)

var linkmeCmd = &cobra.Command{
	Use:   "linkme <player-id>",
	Short: "Link a chat identity to a player id",
	Long:  "Writes the chat identity into the sheet's linked-account column so stats, leaderboard, and compare can resolve it.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		start := time.Now()
		playerID := args[0]

		if linkDiscord == "" {
			return eris.New("--discord <identity> is required")
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		w, err := env.writer()
		if err != nil {
			return err
		}

		view, err := env.view(ctx)
		if err != nil {
			return err
		}
		linkCol := view.schema.LinkedAccountCol()
		if linkCol < 0 {
			return eris.New("sheet has no linked-account column")
		}

		if rec := view.index.ByLinkedAccount(linkDiscord); rec != nil {
			return eris.Errorf("%s is already linked to player id %s", linkDiscord, rec.PlayerID)
		}

		rec := view.index.ByPlayerID(playerID)
		if rec == nil {
			return eris.Errorf("no player with id %q in the sheet", playerID)
		}
		if rec.LinkedAccount != "" {
			return eris.Errorf("player id %s is already linked to another account", playerID)
		}

		if err := w.SetCell(ctx, rec.Row, linkCol, linkDiscord); err != nil {
			return err
		}
		env.cache.Invalidate()

		env.record(ctx, store.QueryLog{
			Command:  "linkme",
			PlayerID: playerID,
			Warnings: len(view.warnings),
			Duration: time.Since(start),
		})

		fmt.Printf("Linked %s to player id %s (%s).\n", linkDiscord, playerID, rec.Name)
		return nil
	},
}

var unlinkCmd = &cobra.Command{
	Use:   "unlink",
	Short: "Remove a chat identity's player link",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		start := time.Now()

		if unlinkDiscord == "" {
			return eris.New("--discord <identity> is required")
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		w, err := env.writer()
		if err != nil {
			return err
		}

		view, err := env.view(ctx)
		if err != nil {
			return err
		}
		linkCol := view.schema.LinkedAccountCol()
		if linkCol < 0 {
			return eris.New("sheet has no linked-account column")
		}

		rec := view.index.ByLinkedAccount(unlinkDiscord)
		if rec == nil {
			return eris.Errorf("%s is not linked to any player id", unlinkDiscord)
		}

		if err := w.SetCell(ctx, rec.Row, linkCol, ""); err != nil {
			return err
		}
		env.cache.Invalidate()

		env.record(ctx, store.QueryLog{
			Command:  "unlink",
			PlayerID: rec.PlayerID,
			Warnings: len(view.warnings),
			Duration: time.Since(start),
		})

		fmt.Printf("Unlinked %s from player id %s.\n", unlinkDiscord, rec.PlayerID)
		return nil
	},
}

func init() {
	linkmeCmd.Flags().StringVar(&linkDiscord, "discord", "", "chat identity to link")
	unlinkCmd.Flags().StringVar(&unlinkDiscord, "discord", "", "chat identity to unlink")
	rootCmd.AddCommand(linkmeCmd)
	rootCmd.AddCommand(unlinkCmd)
}
