package handler

import (
	"crypto/subtle"
	"net/http"
	"runtime"
	"time"

	"carsapp-api/internal/repository"
	"carsapp-api/pkg/apierror"
	"carsapp-api/pkg/response"
)

// Counter reports how many entries a component holds.
type Counter interface {
	Len() int
}

// AdminHandler handles admin-related HTTP requests.
type AdminHandler struct {
	store     repository.Store
	storeType string
	cacheType string
	loginKey  string
	startTime time.Time

	// Optional in-process counters, keyed by name in the stats output.
	counters map[string]Counter
}

// NewAdminHandler creates a new admin handler. An empty loginKey disables
// the admin endpoints.
func NewAdminHandler(store repository.Store, storeType, cacheType, loginKey string) *AdminHandler {
	return &AdminHandler{
		store:     store,
		storeType: storeType,
		cacheType: cacheType,
		loginKey:  loginKey,
		startTime: time.Now(),
		counters:  make(map[string]Counter),
	}
}

// WithCounter adds a named counter to the stats output.
func (h *AdminHandler) WithCounter(name string, c Counter) *AdminHandler {
	h.counters[name] = c
	return h
}

// RequireLoginKey guards admin routes with the X-Login-Key header. When no
// key is configured the routes do not exist.
func (h *AdminHandler) RequireLoginKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.loginKey == "" {
			response.Error(w, apierror.NotFound(""))
			return
		}

		key := r.Header.Get("X-Login-Key")
		if key == "" {
			response.Error(w, apierror.Unauthorized("X-Login-Key header required"))
			return
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(h.loginKey)) != 1 {
			response.Error(w, apierror.Forbidden("Invalid login key"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetStats handles GET /api/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats := make(map[string]interface{})

	// System info
	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["store_type"] = h.storeType
	stats["cache_type"] = h.cacheType

	// Memory stats
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
		"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
		"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
		"heap_alloc_mb":  float64(memStats.HeapAlloc) / 1024 / 1024,
		"heap_inuse_mb":  float64(memStats.HeapInuse) / 1024 / 1024,
		"num_gc":         memStats.NumGC,
		"goroutines":     runtime.NumGoroutine(),
	}

	// Store stats
	if h.store != nil {
		storeStats, err := h.store.GetStats(ctx)
		if err == nil {
			stats["store"] = storeStats
		} else {
			stats["store"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		}
	} else {
		stats["store"] = map[string]interface{}{
			"status": "not_configured",
		}
	}

	for name, c := range h.counters {
		stats[name] = c.Len()
	}

	// Runtime info
	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}
