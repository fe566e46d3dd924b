package api

import (
	"net/http"
	"time"

	"github.com/snarg/drive-transcriber/internal/jobs"
)

type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks"`
	Jobs          jobs.Stats        `json:"jobs"`
}

// ConnChecker reports the state of a long-lived connection.
type ConnChecker interface {
	IsConnected() bool
}

type HealthHandler struct {
	jobs      JobService
	mqtt      ConnChecker
	ffmpeg    bool
	staging   bool
	version   string
	startTime time.Time
}

func NewHealthHandler(opts ServerOptions) *HealthHandler {
	return &HealthHandler{
		jobs:      opts.Jobs,
		mqtt:      opts.MQTT,
		ffmpeg:    opts.FFmpegAvailable,
		staging:   opts.StagingConfigured,
		version:   opts.Version,
		startTime: opts.StartTime,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := "healthy"

	// Without ffmpeg every job fails at the transcode stage.
	if h.ffmpeg {
		checks["ffmpeg"] = "ok"
	} else {
		checks["ffmpeg"] = "missing"
		status = "unhealthy"
	}

	// Without a staging bucket only short audio can be transcribed.
	if h.staging {
		checks["staging"] = "ok"
	} else {
		checks["staging"] = "not_configured"
		if status == "healthy" {
			status = "degraded"
		}
	}

	if h.mqtt != nil {
		if h.mqtt.IsConnected() {
			checks["mqtt"] = "ok"
		} else {
			checks["mqtt"] = "disconnected"
			if status == "healthy" {
				status = "degraded"
			}
		}
	} else {
		checks["mqtt"] = "not_configured"
	}

	httpStatus := http.StatusOK
	if status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	WriteJSON(w, httpStatus, HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks:        checks,
		Jobs:          h.jobs.Stats(),
	})
}
