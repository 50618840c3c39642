package main

import (
	"fmt"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Makaveli-BG/dkp-discord-bot/internal/roster"
	"github.com/Makaveli-BG/dkp-discord-bot/internal/schema"
	"github.com/Makaveli-BG/dkp-discord-bot/internal/sheet"
)

var checkConcurrency int

var checkCmd = &cobra.Command{
	Use:   "check <file>...",
	Short: "Validate sheet files before publishing",
	Long:  "Runs schema inference and integrity checks over local csv/xlsx files concurrently and reports every problem found. Exits non-zero when any file cannot be processed.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rules := schema.DefaultRules()
		if cfg.Schema.RulesFile != "" {
			var err error
			if rules, err = schema.Load(cfg.Schema.RulesFile); err != nil {
				return err
			}
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(checkConcurrency)

		var failed atomic.Int32
		for _, path := range args {
			path := path
			g.Go(func() error {
				src, err := sheet.New(path, sheet.Options{Worksheet: cfg.Sheet.Worksheet})
				if err != nil {
					failed.Add(1)
					fmt.Printf("%s: %v\n", path, err)
					return nil
				}
				snap, err := src.Fetch(gctx)
				if err != nil {
					failed.Add(1)
					fmt.Printf("%s: %v\n", path, err)
					return nil
				}

				sc, err := schema.Infer(snap.Header, rules)
				if err != nil {
					failed.Add(1)
					fmt.Printf("%s: %v\n", path, err)
					return nil
				}

				idx, warnings := roster.Build(snap.Rows, sc)
				zap.L().Debug("checked sheet",
					zap.String("file", path),
					zap.Int("players", idx.Len()),
					zap.Int("warnings", len(warnings)),
				)
				fmt.Printf("%s: %d players, %d metric columns, %d warnings\n",
					path, idx.Len(), len(sc.MetricKeys()), len(warnings))
				for _, w := range warnings {
					fmt.Printf("  %s\n", w.Message)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if n := failed.Load(); n > 0 {
			return eris.Errorf("%d of %d files failed validation", n, len(args))
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().IntVar(&checkConcurrency, "concurrency", 4, "files validated in parallel")
	rootCmd.AddCommand(checkCmd)
}
