package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/model"
)

// Health tracks the latest collection run and serves it over HTTP.
type Health struct {
	instance string
	logger   *slog.Logger

	mu   sync.RWMutex
	last *model.CollectionRun
}

// NewHealth creates a health tracker for an instance.
func NewHealth(instance string, logger *slog.Logger) *Health {
	if logger == nil {
		logger = slog.Default()
	}
	return &Health{instance: instance, logger: logger}
}

// Record stores the latest run. Safe for concurrent use.
func (h *Health) Record(run model.CollectionRun) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = &run
}

type lastRunJSON struct {
	ID          string    `json:"id"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	CompletedAt time.Time `json:"completed_at"`
	Rows        int       `json:"rows"`
	Error       string    `json:"error,omitempty"`
}

type healthResponse struct {
	Status   string       `json:"status"`
	Instance string       `json:"instance"`
	LastRun  *lastRunJSON `json:"last_run,omitempty"`
}

// Handler returns the health mux.
func (h *Health) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		h.mu.RLock()
		last := h.last
		h.mu.RUnlock()

		resp := healthResponse{Status: "ok", Instance: h.instance}
		if last != nil {
			resp.LastRun = &lastRunJSON{
				ID:          last.ID.String(),
				WindowStart: last.WindowStart,
				WindowEnd:   last.WindowEnd,
				CompletedAt: last.CompletedAt,
				Rows:        last.Rows,
				Error:       last.Error,
			}
			if last.Error != "" {
				resp.Status = "degraded"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})
	return mux
}

// Serve runs the health endpoint until ctx is cancelled.
func (h *Health) Serve(ctx context.Context, port int) error {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: h.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	h.logger.Info("health endpoint listening", "addr", server.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
