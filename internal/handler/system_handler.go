package handler

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/railji/railji-backend/internal/response"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck probes one backing service.
type HealthCheck func(ctx context.Context) error

// SystemHandler reports liveness and a runtime snapshot.
type SystemHandler struct {
	checks    map[string]HealthCheck
	startTime time.Time
	log       zerolog.Logger
}

func NewSystemHandler(checks map[string]HealthCheck, log zerolog.Logger) *SystemHandler {
	if checks == nil {
		checks = map[string]HealthCheck{}
	}
	return &SystemHandler{
		checks:    checks,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type healthStatus struct {
	Status   string            `json:"status"`
	Uptime   string            `json:"uptime"`
	Services map[string]string `json:"services"`
}

// Health godoc
// GET /health
// 503 when any probed service is down.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := healthStatus{
		Status:   "ok",
		Uptime:   time.Since(h.startTime).Round(time.Second).String(),
		Services: make(map[string]string, len(h.checks)),
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.log.Warn().Err(err).Str("service", name).Msg("Health check failed")
			status.Services[name] = "down"
			status.Status = "degraded"
			continue
		}
		status.Services[name] = "up"
	}

	code := http.StatusOK
	if status.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	response.Success(c, code, "Health checked", status)
}

type runtimeSnapshot struct {
	Uptime       string `json:"uptime"`
	Goroutines   int    `json:"goroutines"`
	HeapAlloc    uint64 `json:"heapAllocBytes"`
	HeapSys      uint64 `json:"heapSysBytes"`
	NumGC        uint32 `json:"numGC"`
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCPU"`
	LastGCPauses uint64 `json:"lastGCPauseNs"`
}

// Runtime godoc
// GET /api/v1/admin/system
func (h *SystemHandler) Runtime(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response.Success(c, http.StatusOK, "Runtime stats fetched successfully", runtimeSnapshot{
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Goroutines:   runtime.NumGoroutine(),
		HeapAlloc:    m.HeapAlloc,
		HeapSys:      m.HeapSys,
		NumGC:        m.NumGC,
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		LastGCPauses: m.PauseNs[(m.NumGC+255)%256],
	})
}
