// Package tuner derives fan-out parameters from host resources. azcopy is
// memory-hungry on large trees, so the worker count is bounded by both CPU
// count and available RAM, and spawn-mode launches consult the live memory
// reading before starting another process.
package tuner

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sharemig/sharemig/pkg/sharemig/logging"
)

// ramPerWorker is the working-set budget assumed per concurrent azcopy
// invocation when sizing the worker pool.
const ramPerWorker = 2 << 30

// Parameters are the derived fan-out settings.
type Parameters struct {
	// Workers is the recommended concurrent subfolder count.
	Workers int

	// CPUs is the logical CPU count observed.
	CPUs int

	// AvailableRAM is the available memory in bytes at detection time.
	AvailableRAM uint64
}

// Detect sizes the worker pool from the host. It never returns fewer than
// one worker; detection failures fall back to a single worker rather than
// erroring, since fan-out is an optimization.
func Detect(ctx context.Context) Parameters {
	log := logging.Get("tuner")
	p := Parameters{Workers: 1, CPUs: 1}

	if n, err := cpu.CountsWithContext(ctx, true); err == nil && n > 0 {
		p.CPUs = n
	} else if err != nil {
		log.Warn("cpu detection failed", "err", err)
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		log.Warn("memory detection failed", "err", err)
		return p
	}
	p.AvailableRAM = vm.Available

	byRAM := int(vm.Available / ramPerWorker)
	p.Workers = clamp(min(p.CPUs, byRAM), 1, 16)

	log.Debug("detected fan-out parameters",
		"cpus", p.CPUs, "available_ram", vm.Available, "workers", p.Workers)
	return p
}

// UsedPercent returns the current system memory usage percentage.
func UsedPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}

// WaitBelow blocks until system memory usage drops below limitPercent,
// polling at the given interval, or until ctx is cancelled. A zero or
// negative limit disables the throttle. Readings that fail are treated as
// "below" so a broken metrics source never deadlocks a launch.
func WaitBelow(ctx context.Context, limitPercent float64, poll time.Duration) error {
	if limitPercent <= 0 {
		return nil
	}
	log := logging.Get("tuner")

	for {
		used, err := UsedPercent(ctx)
		if err != nil || used < limitPercent {
			return nil
		}
		log.Info("memory above limit, holding launch",
			"used_percent", used, "limit_percent", limitPercent)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(poll):
		}
	}
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
