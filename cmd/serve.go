package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Makaveli-BG/dkp-discord-bot/internal/compare"
	"github.com/Makaveli-BG/dkp-discord-bot/internal/rank"
	"github.com/Makaveli-BG/dkp-discord-bot/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only stats API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func newRouter(env *queryEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/schema", func(w http.ResponseWriter, req *http.Request) {
			view, ok := fetchView(w, req, env)
			if !ok {
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"snapshot": view.snap.ID,
				"columns":  view.schema.Dump(),
				"sample":   view.index.Sample(),
				"warnings": view.warnings,
			})
		})

		r.Get("/players/{id}", func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			view, ok := fetchView(w, req, env)
			if !ok {
				return
			}
			rec := view.index.ByPlayerID(chi.URLParam(req, "id"))
			if rec == nil {
				writeError(w, http.StatusNotFound, "player not found")
				return
			}
			defer audit(env, req, "stats", "", rec.PlayerID, view, start)
			writeJSON(w, http.StatusOK, rec)
		})

		r.Get("/leaderboard/{metric}", func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			view, ok := fetchView(w, req, env)
			if !ok {
				return
			}
			metric := chi.URLParam(req, "metric")

			requesterID := ""
			if acct := req.URL.Query().Get("requester"); acct != "" {
				if rec := view.index.ByLinkedAccount(acct); rec != nil {
					requesterID = rec.PlayerID
				}
			}

			board, err := rank.Leaderboard(view.index, view.schema, metric, requesterID, cfg.Leaderboard.TopN)
			if err != nil {
				status := http.StatusBadRequest
				if !errors.Is(err, rank.ErrUnknownMetric) && !errors.Is(err, rank.ErrMetricNotInSheet) {
					status = http.StatusInternalServerError
				}
				writeError(w, status, err.Error())
				return
			}
			defer audit(env, req, "leaderboard", metric, requesterID, view, start)
			writeJSON(w, http.StatusOK, board)
		})

		r.Get("/compare", func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			idA, idB := req.URL.Query().Get("a"), req.URL.Query().Get("b")
			if idA == "" || idB == "" {
				writeError(w, http.StatusBadRequest, "query params a and b are required")
				return
			}
			view, ok := fetchView(w, req, env)
			if !ok {
				return
			}
			a := view.index.ByPlayerID(idA)
			b := view.index.ByPlayerID(idB)
			if a == nil || b == nil {
				writeError(w, http.StatusNotFound, "player not found")
				return
			}
			defer audit(env, req, "compare", "", idA, view, start)
			writeJSON(w, http.StatusOK, compare.Players(a, b))
		})

		r.Get("/runs", func(w http.ResponseWriter, req *http.Request) {
			if env.audit == nil {
				writeError(w, http.StatusNotFound, "audit store disabled")
				return
			}
			entries, err := env.audit.RecentQueries(req.Context(), 50)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, entries)
		})
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)
		zap.L().Info("request",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
		)
	})
}

// fetchView loads a snapshot view and maps snapshot-level failures to 422:
// the request was fine, the sheet is not processable.
func fetchView(w http.ResponseWriter, req *http.Request, env *queryEnv) (*snapshotView, bool) {
	view, err := env.view(req.Context())
	if err != nil {
		zap.L().Error("snapshot ingestion failed", zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return nil, false
	}
	return view, true
}

func audit(env *queryEnv, req *http.Request, command, metric, playerID string, view *snapshotView, start time.Time) {
	env.record(req.Context(), store.QueryLog{
		Command:  command,
		Metric:   metric,
		PlayerID: playerID,
		Warnings: len(view.warnings),
		Duration: time.Since(start),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
