package health

import (
	"context"
	"runtime"
)

// Pinger is a backend that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
	Name() string
}

// SourceCheck reports the snapshot source as unhealthy when it cannot be
// pinged.
func SourceCheck(src Pinger) CheckFunc {
	return func(ctx context.Context) Check {
		check := Check{
			Name:    "source",
			Details: map[string]any{"backend": src.Name()},
		}

		if err := src.Ping(ctx); err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
		} else {
			check.Status = StatusHealthy
			check.Message = "Connected"
		}

		return check
	}
}

// GoroutineCheck reports degraded when more than max goroutines are running,
// which usually means abandoned analyses are piling up.
func GoroutineCheck(max int) CheckFunc {
	return func(ctx context.Context) Check {
		n := runtime.NumGoroutine()
		check := Check{
			Name:    "goroutines",
			Status:  StatusHealthy,
			Details: map[string]any{"count": n, "max": max},
		}
		if n > max {
			check.Status = StatusDegraded
			check.Message = "Too many goroutines"
		}
		return check
	}
}

// MemoryCheck creates a health check for memory usage
func MemoryCheck(getUsage func() (alloc, sys uint64)) CheckFunc {
	return func(ctx context.Context) Check {
		check := Check{
			Name:    "memory",
			Details: make(map[string]any),
		}

		alloc, sys := getUsage()

		check.Details["alloc_bytes"] = alloc
		check.Details["sys_bytes"] = sys

		usagePercent := 0.0
		if sys > 0 {
			usagePercent = float64(alloc) / float64(sys) * 100
		}

		if usagePercent > 90 {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		} else {
			check.Status = StatusHealthy
			check.Message = "Memory usage normal"
		}

		return check
	}
}

// RuntimeMemory reads the current heap allocation and the memory obtained
// from the OS.
func RuntimeMemory() (alloc, sys uint64) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc, m.Sys
}
