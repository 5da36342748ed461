package resources

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// HostSampler samples the local machine through gopsutil.
type HostSampler struct {
	// Interval is the CPU load measurement window. Zero compares against the
	// previous call, which on the first call reports load since boot.
	Interval time.Duration
}

// NewHostSampler builds a sampler with the configured CPU window.
func NewHostSampler(sampleMillis int) HostSampler {
	return HostSampler{Interval: time.Duration(max(sampleMillis, 0)) * time.Millisecond}
}

// Sample implements Sampler.
func (h HostSampler) Sample(ctx context.Context) (Snapshot, error) {
	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil || cores <= 0 {
		cores = runtime.NumCPU()
	}

	percents, err := cpu.PercentWithContext(ctx, h.Interval, false)
	if err != nil {
		return Snapshot{Cores: cores}, fmt.Errorf("sample cpu load: %w", err)
	}
	load := 0.0
	if len(percents) > 0 {
		load = percents[0] / 100
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Snapshot{Cores: cores, CPULoad: load}, fmt.Errorf("sample memory: %w", err)
	}

	return Snapshot{
		Cores:           cores,
		CPULoad:         load,
		AvailableMemory: vm.Available,
		TotalMemory:     vm.Total,
	}, nil
}
