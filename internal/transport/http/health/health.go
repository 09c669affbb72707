package health

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/logger"
)

type Check func(ctx context.Context) error

type handler struct {
	checks  map[string]Check
	timeout time.Duration
}

func NewHealthHandler(timeout time.Duration) *handler {
	return &handler{checks: make(map[string]Check), timeout: timeout}
}

// Add registers a dependency probed by Ready.
func (h *handler) Add(name string, check Check) {
	h.checks[name] = check
}

func (h *handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if _, err := w.Write([]byte("SERVING")); err != nil {
		logger.Error(r.Context(), "health check", logger.ErrorF(err))
	}
}

func (h *handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	body := ""
	for _, name := range names {
		result := "ok"
		if err := h.checks[name](ctx); err != nil {
			logger.Warn(ctx, "readiness check failed", logger.String("dependency", name), logger.ErrorF(err))
			result = "unavailable"
			status = http.StatusServiceUnavailable
		}
		body += name + ": " + result + "\n"
	}

	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		logger.Error(ctx, "readiness check", logger.ErrorF(err))
	}
}
