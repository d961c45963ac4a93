package server

import (
	"context"
	"encoding/json"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// SystemStats is the payload of GET /api/system/stats
type SystemStats struct {
	CPUPercent      float64 `json:"cpu_percent"`
	RAMPercent      float64 `json:"ram_percent"`
	ProcessRSSMB    float64 `json:"process_rss_mb"`
	Goroutines      int     `json:"goroutines"`
	UptimeSeconds   int64   `json:"uptime_seconds"`
	DataDirMB       float64 `json:"data_dir_mb"`
	DiskFreeMB      float64 `json:"disk_free_mb"`
	DiskUsedPercent float64 `json:"disk_used_percent"`
}

// SystemHandlers serves host and process statistics
type SystemHandlers struct {
	dataDir   string
	startedAt time.Time
	log       zerolog.Logger

	cpuPercent func(ctx context.Context) (float64, error)
	memPercent func(ctx context.Context) (float64, error)
	processRSS func(ctx context.Context) (uint64, error)
	diskUsage  func(ctx context.Context, path string) (*disk.UsageStat, error)
}

// NewSystemHandlers creates system handlers backed by gopsutil
func NewSystemHandlers(dataDir string, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		dataDir:    dataDir,
		startedAt:  time.Now(),
		log:        log.With().Str("handler", "system").Logger(),
		cpuPercent: sampleCPU,
		memPercent: sampleMemory,
		processRSS: sampleRSS,
		diskUsage:  disk.UsageWithContext,
	}
}

// HandleSystemStats handles GET /api/system/stats
func (h *SystemHandlers) HandleSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats := SystemStats{
		Goroutines:    runtime.NumGoroutine(),
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		DataDirMB:     h.directorySizeMB(h.dataDir),
	}

	if v, err := h.cpuPercent(ctx); err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
	} else {
		stats.CPUPercent = v
	}

	if v, err := h.memPercent(ctx); err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
	} else {
		stats.RAMPercent = v
	}

	if v, err := h.processRSS(ctx); err != nil {
		h.log.Warn().Err(err).Msg("Failed to get process memory")
	} else {
		stats.ProcessRSSMB = float64(v) / 1024 / 1024
	}

	if h.dataDir != "" {
		if usage, err := h.diskUsage(ctx, h.dataDir); err != nil {
			h.log.Warn().Err(err).Msg("Failed to get disk usage")
		} else {
			stats.DiskFreeMB = float64(usage.Free) / 1024 / 1024
			stats.DiskUsedPercent = usage.UsedPercent
		}
	}

	h.writeJSON(w, envelope(stats))
}

// sampleCPU averages usage across all CPUs over 100ms to keep the call fast
func sampleCPU(ctx context.Context) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, 100*time.Millisecond, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, nil
	}
	return percents[0], nil
}

func sampleMemory(ctx context.Context) (float64, error) {
	stat, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return stat.UsedPercent, nil
}

func sampleRSS(ctx context.Context) (uint64, error) {
	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return 0, err
	}
	info, err := proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return info.RSS, nil
}

func (h *SystemHandlers) directorySizeMB(dirPath string) float64 {
	if dirPath == "" {
		return 0
	}

	var totalSize int64
	err := filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		totalSize += info.Size()
		return nil
	})
	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
