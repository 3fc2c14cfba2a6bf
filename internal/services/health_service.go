package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"assaymerge/pkg/contracts"
)

const (
	StatusOK       = "ok"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
	StatusAlive    = "alive"
)

// HealthStatus is the body of every /api/health endpoint
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth is the outcome of one readiness check
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// VersionResponse is the body of /api/version
type VersionResponse struct {
	contracts.VersionInfo
	Uptime    float64 `json:"uptime"`
	StartTime string  `json:"start_time"`
}

// readinessCheck is one named dependency a merge needs
type readinessCheck struct {
	name  string
	check func() ServiceHealth
}

// HealthService answers liveness, readiness and version probes. Readiness
// means the directory merged files are written to accepts new files.
type HealthService struct {
	version   string
	outputDir string
	started   time.Time
	checks    []readinessCheck
	logger    *slog.Logger
}

// NewHealthService creates a health service; an empty outputDir is the
// working directory.
func NewHealthService(version, outputDir string, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	if outputDir == "" {
		outputDir = "."
	}

	hs := &HealthService{
		version:   version,
		outputDir: outputDir,
		started:   time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
	hs.checks = []readinessCheck{{name: "output", check: hs.checkOutputDir}}

	hs.logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("output_dir", outputDir))
	return hs
}

func (hs *HealthService) status(status string) HealthStatus {
	return HealthStatus{Status: status, Timestamp: time.Now(), Version: hs.version}
}

// HealthCheck reports that the process is serving
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: completed", slog.Duration("uptime", hs.Uptime()))
	return hs.status(StatusOK)
}

// ReadinessCheck runs every check; one failure makes the service not ready
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	result := hs.status(StatusReady)
	result.Services = make(map[string]ServiceHealth, len(hs.checks))

	for _, c := range hs.checks {
		health := c.check()
		result.Services[c.name] = health
		if health.Status != StatusReady {
			result.Status = StatusNotReady
			hs.logger.WarnContext(ctx, "ReadinessCheck: not ready",
				slog.String("check", c.name),
				slog.String("reason", health.Message))
		}
	}
	return result
}

// LivenessCheck reports process runtime figures
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	result := hs.status(StatusAlive)
	result.Runtime = map[string]interface{}{
		"uptime":     hs.Uptime().Seconds(),
		"go_version": runtime.Version(),
		"goroutines": runtime.NumGoroutine(),
	}
	return result
}

// Version reports build information with the service's own version
func (hs *HealthService) Version() VersionResponse {
	info := contracts.GetVersionInfo()
	info.Version = hs.version
	return VersionResponse{
		VersionInfo: info,
		Uptime:      hs.Uptime().Seconds(),
		StartTime:   hs.started.Format(time.RFC3339),
	}
}

// Uptime returns the time since the service was created
func (hs *HealthService) Uptime() time.Duration {
	return time.Since(hs.started)
}

// checkOutputDir creates and removes a probe file in the output directory
func (hs *HealthService) checkOutputDir() ServiceHealth {
	notReady := func(format string, args ...interface{}) ServiceHealth {
		return ServiceHealth{Status: StatusNotReady, Message: fmt.Sprintf(format, args...)}
	}

	info, err := os.Stat(hs.outputDir)
	switch {
	case err != nil:
		return notReady("output directory not accessible: %v", err)
	case !info.IsDir():
		return notReady("output path is not a directory: %s", hs.outputDir)
	}

	probe, err := os.CreateTemp(hs.outputDir, ".assaymerge-probe-*")
	if err != nil {
		return notReady("cannot write to output directory: %v", err)
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)

	return ServiceHealth{Status: StatusReady, Message: "output directory is writable"}
}
