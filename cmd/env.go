package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Makaveli-BG/dkp-discord-bot/internal/roster"
	"github.com/Makaveli-BG/dkp-discord-bot/internal/schema"
	"github.com/Makaveli-BG/dkp-discord-bot/internal/sheet"
	"github.com/Makaveli-BG/dkp-discord-bot/internal/store"
)

// queryEnv bundles everything one query needs: the snapshot source (shared
// across requests via the cache), the matching rules, and the optional
// audit store.
type queryEnv struct {
	source sheet.Source
	cache  *sheet.Cache
	rules  []schema.Rule
	audit  store.Store
}

// snapshotView is one fully ingested snapshot: fetched, inferred, indexed.
// Queries never share one; each builds its own from a fetch.
type snapshotView struct {
	snap     *sheet.Snapshot
	schema   *schema.Schema
	index    *roster.Index
	warnings []roster.Warning
}

var errSourceRequired = eris.New("no sheet source configured (set sheet.source or DKP_SHEET_SOURCE)")

// initEnv wires the source, cache, rules, and audit store from config.
func initEnv(ctx context.Context) (*queryEnv, error) {
	if cfg.Sheet.Source == "" {
		return nil, errSourceRequired
	}
	src, err := sheet.New(cfg.Sheet.Source, sheet.Options{
		Worksheet:  cfg.Sheet.Worksheet,
		RatePerSec: cfg.Sheet.RatePerSec,
		Timeout:    time.Duration(cfg.Sheet.TimeoutSecs) * time.Second,
		UserAgent:  cfg.Sheet.UserAgent,
	})
	if err != nil {
		return nil, err
	}

	env := &queryEnv{
		source: src,
		cache:  sheet.NewCache(src, time.Duration(cfg.Sheet.CacheTTLSecs)*time.Second),
		rules:  schema.DefaultRules(),
	}

	if cfg.Schema.RulesFile != "" {
		rules, err := schema.Load(cfg.Schema.RulesFile)
		if err != nil {
			return nil, err
		}
		env.rules = rules
		zap.L().Info("loaded schema rules", zap.String("file", cfg.Schema.RulesFile), zap.Int("rules", len(rules)))
	}

	if cfg.Store.DSN != "" {
		st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		env.audit = st
	}

	return env, nil
}

// Close releases the audit store, if any.
func (e *queryEnv) Close() {
	if e.audit != nil {
		_ = e.audit.Close()
	}
}

// view fetches a snapshot through the cache and runs the full ingestion
// pass: schema inference, then normalization into the player index.
func (e *queryEnv) view(ctx context.Context) (*snapshotView, error) {
	snap, err := e.cache.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	sc, err := schema.Infer(snap.Header, e.rules)
	if err != nil {
		return nil, eris.Wrapf(err, "cannot process sheet (snapshot %s)", snap.ID)
	}

	idx, warnings := roster.Build(snap.Rows, sc)
	for _, w := range warnings {
		zap.L().Warn("sheet integrity warning",
			zap.String("snapshot", snap.ID),
			zap.Int("row", w.Row),
			zap.String("kind", string(w.Kind)),
			zap.String("detail", w.Message),
		)
	}

	return &snapshotView{snap: snap, schema: sc, index: idx, warnings: warnings}, nil
}

// record writes one audit entry; failures are logged, never fatal.
func (e *queryEnv) record(ctx context.Context, q store.QueryLog) {
	if e.audit == nil {
		return
	}
	if err := e.audit.RecordQuery(ctx, q); err != nil {
		zap.L().Warn("audit write failed", zap.Error(err))
	}
}

// writer returns the source's write-back interface, or an error for
// read-only sources (HTTP exports cannot be linked against).
func (e *queryEnv) writer() (sheet.Writer, error) {
	w, ok := e.source.(sheet.Writer)
	if !ok {
		return nil, eris.New("sheet source is read-only; linking needs a local csv/xlsx sheet")
	}
	return w, nil
}
