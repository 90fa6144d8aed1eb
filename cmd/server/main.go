package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"safelink-scanner/internal/cache"
	"safelink-scanner/internal/config"
	"safelink-scanner/internal/pipeline"
	"safelink-scanner/pkg/logger"
)

func main() {
	l := logger.New()
	cfg := config.FromEnv()

	store := cache.NewFileStore(cfg.CachePath, cfg.CacheTTL)
	pipe := pipeline.New(cfg, store, l)

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// GET /validate?url=...
	mux.HandleFunc("/validate", func(w http.ResponseWriter, r *http.Request) {
		raw, ok := urlParam(w, r)
		if !ok {
			return
		}
		normalized, err := pipe.Validate(raw)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]string{"status": "invalid", "reason": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "valid", "url": normalized})
	})

	// GET /fetch?url=...
	mux.HandleFunc("/fetch", func(w http.ResponseWriter, r *http.Request) {
		raw, ok := urlParam(w, r)
		if !ok {
			return
		}
		ctx, cancel := requestContext(r, cfg)
		defer cancel()
		result, err := pipe.Fetch(ctx, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid URL: " + err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	// GET /extract?url=...
	mux.HandleFunc("/extract", func(w http.ResponseWriter, r *http.Request) {
		raw, ok := urlParam(w, r)
		if !ok {
			return
		}
		normalized, err := pipe.Validate(raw)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]string{"status": "invalid", "reason": err.Error()})
			return
		}
		ctx, cancel := requestContext(r, cfg)
		defer cancel()
		result := pipe.Analyze(ctx, normalized)
		if result.Fetch.Get.Error != "" {
			writeJSON(w, http.StatusOK, map[string]string{
				"status":  "error",
				"reason":  "Could not fetch site",
				"details": result.Fetch.Get.Error,
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "success",
			"url":    normalized,
			"fetch_info": map[string]any{
				"status_code": result.Fetch.Get.StatusCode,
				"final_url":   result.Fetch.Get.FinalURL,
				"filesize":    result.Fetch.Get.Filesize,
			},
			"extracted": result.Extracted,
		})
	})

	// GET /risk?url=...
	mux.HandleFunc("/risk", func(w http.ResponseWriter, r *http.Request) {
		raw, ok := urlParam(w, r)
		if !ok {
			return
		}
		normalized, err := pipe.Validate(raw)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]string{"status": "invalid", "reason": err.Error()})
			return
		}
		ctx, cancel := requestContext(r, cfg)
		defer cancel()
		result := pipe.Analyze(ctx, normalized)
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"url":       normalized,
			"fetch":     result.Fetch,
			"extracted": result.Extracted,
			"risk":      result.Risk,
		})
	})

	// GET /scan?url=...  (cached)
	mux.HandleFunc("/scan", func(w http.ResponseWriter, r *http.Request) {
		raw, ok := urlParam(w, r)
		if !ok {
			return
		}
		ctx, cancel := requestContext(r, cfg)
		defer cancel()
		result, cached, err := pipe.Scan(ctx, raw)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]string{"status": "invalid_url", "reason": err.Error()})
			return
		}
		if cached {
			l.Infof("cache hit for %s", raw)
		}
		writeJSON(w, http.StatusOK, result.Summarize())
	})

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      logRequest(l, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		l.Infof("server listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			l.Errorf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	l.Infof("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	l.Infof("bye")
}

func urlParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return "", false
	}
	raw := r.URL.Query().Get("url")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing 'url' query parameter"})
		return "", false
	}
	return raw, true
}

func requestContext(r *http.Request, cfg config.Config) (context.Context, context.CancelFunc) {
	// headroom over the per-attempt fetch timeout
	return context.WithTimeout(r.Context(), cfg.FetchTimeout*2)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func logRequest(l *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		l.Infof("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
