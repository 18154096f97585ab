// Package retention evaluates disk pressure and never deletes
// anything — it only produces a level + hard_halt decision that
// upstream writers use to route around the primary store. Grounded on
// original_source/autocapture_nx/storage/retention.py.
package retention

import (
	"github.com/ninjra/autocapture-prime-sub005/internal/config"
	"github.com/shirou/gopsutil/v3/disk"
)

// Level is one of "ok", "warn", "soft", "critical".
type Level string

const (
	LevelOK       Level = "ok"
	LevelWarn     Level = "warn"
	LevelSoft     Level = "soft"
	LevelCritical Level = "critical"
)

// Decision is the outcome of evaluating disk pressure against the
// configured thresholds.
type Decision struct {
	Level           Level `json:"level"`
	FreeBytes       int64 `json:"free_bytes"`
	FreeGB          int64 `json:"free_gb"`
	TotalBytes      int64 `json:"total_bytes"`
	UsedBytes       int64 `json:"used_bytes"`
	WarnFreeGB      int   `json:"warn_free_gb"`
	SoftFreeGB      int   `json:"soft_free_gb"`
	CriticalFreeGB  int   `json:"critical_free_gb"`
	WatermarkSoftMB int   `json:"watermark_soft_mb"`
	WatermarkHardMB int   `json:"watermark_hard_mb"`
	HardHalt        bool  `json:"hard_halt"`
}

// DiskUsage abstracts the free/total byte lookup so tests can inject
// synthetic pressure without touching the real filesystem.
type DiskUsage func(path string) (free, total int64, err error)

// GopsutilUsage is the default DiskUsage, backed by gopsutil so the
// same code path works across Linux/macOS/Windows sidecars.
func GopsutilUsage(path string) (free, total int64, err error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, 0, err
	}
	return int64(usage.Free), int64(usage.Total), nil
}

const gb = 1024 * 1024 * 1024
const mb = 1024 * 1024

// Evaluate computes the pressure decision for dataDir using cfg's
// storage.disk_pressure.* thresholds (defaults match the Python
// original: warn=200GB soft=100GB critical=50GB, watermarks off).
func Evaluate(cfg *config.Config, dataDir string, usage DiskUsage) (Decision, error) {
	if usage == nil {
		usage = GopsutilUsage
	}
	warnGB := cfg.GetInt("storage.disk_pressure.warn_free_gb", 200)
	softGB := cfg.GetInt("storage.disk_pressure.soft_free_gb", 100)
	critGB := cfg.GetInt("storage.disk_pressure.critical_free_gb", 50)
	wmSoftMB := cfg.GetInt("storage.disk_pressure.watermark_soft_mb", 0)
	wmHardMB := cfg.GetInt("storage.disk_pressure.watermark_hard_mb", 0)

	free, total, err := usage(dataDir)
	if err != nil {
		return Decision{}, err
	}
	used := total - free
	freeGB := free / gb

	level := LevelOK
	hardHalt := false
	switch {
	case wmHardMB > 0 && free <= int64(wmHardMB)*mb:
		level = LevelCritical
		hardHalt = true
	case wmSoftMB > 0 && free <= int64(wmSoftMB)*mb:
		level = LevelSoft
	case freeGB <= int64(critGB):
		level = LevelCritical
	case freeGB <= int64(softGB):
		level = LevelSoft
	case freeGB <= int64(warnGB):
		level = LevelWarn
	}

	return Decision{
		Level:           level,
		FreeBytes:       free,
		FreeGB:          freeGB,
		TotalBytes:      total,
		UsedBytes:       used,
		WarnFreeGB:      warnGB,
		SoftFreeGB:      softGB,
		CriticalFreeGB:  critGB,
		WatermarkSoftMB: wmSoftMB,
		WatermarkHardMB: wmHardMB,
		HardHalt:        hardHalt,
	}, nil
}

// ShouldPauseCapture returns true iff d.HardHalt — the only condition
// under which capture must stop writing to the primary store.
func ShouldPauseCapture(d Decision) bool {
	return d.HardHalt
}

// Severity orders levels for spillover trigger comparisons: higher is
// worse.
func Severity(level Level) int {
	switch level {
	case LevelCritical:
		return 3
	case LevelSoft:
		return 2
	case LevelWarn:
		return 1
	default:
		return 0
	}
}
