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
	"golang.org/x/time/rate"

	"github.com/sells-group/parcel-cli/internal/export"
	"github.com/sells-group/parcel-cli/internal/parcel"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the parcel query HTTP server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		loader, err := parcel.NewLoader(cfg.Dataset.Root, cfg.Dataset.SchemaFilename, cfg.Dataset.Workers)
		if err != nil {
			return err
		}

		r := newServeMux(loader)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// queryRequest is the POST /query request body.
type queryRequest struct {
	Region    parcel.Query      `json:"region"`
	Filter    parcel.FilterSpec `json:"filter"`
	Centroids bool              `json:"centroids"`
}

func newServeMux(loader *parcel.Loader) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(rateLimitMiddleware(rate.Limit(cfg.Server.RatePerSecond), cfg.Server.RateBurst))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/partitions", func(w http.ResponseWriter, _ *http.Request) {
		idx, err := parcel.NewIndex(cfg.Dataset.Root)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, idx.Partitions())
	})

	r.Post("/query", func(w http.ResponseWriter, req *http.Request) {
		var body queryRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		result, err := loader.Load(req.Context(), body.Region, body.Filter)
		if err != nil {
			writeError(w, err)
			return
		}

		if body.Centroids {
			result.Records.Centroids()
		}

		w.Header().Set("Content-Type", "application/geo+json")
		w.WriteHeader(http.StatusOK)
		if err := export.WriteGeoJSON(w, result.Records); err != nil {
			zap.L().Error("query response write failed", zap.Error(err))
		}
	})

	return r
}

// rateLimitMiddleware applies a shared token bucket across all requests.
func rateLimitMiddleware(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(limit, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// writeError maps loader failures onto HTTP statuses: bad regions and
// unknown schema keys are client errors, missing dataset files are not.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var regionErr *parcel.InvalidRegionError
	var coordErr *parcel.InvalidCoordinateError
	var keyErr *parcel.MissingKeyError
	switch {
	case errors.As(err, &regionErr), errors.As(err, &coordErr):
		status = http.StatusBadRequest
	case errors.As(err, &keyErr):
		status = http.StatusUnprocessableEntity
	}

	zap.L().Warn("request failed", zap.Error(err), zap.Int("status", status))
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
