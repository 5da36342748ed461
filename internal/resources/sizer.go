package resources

import (
	"context"
	"math"

	"mkvkeep/internal/config"
)

// Snapshot is one sample of host state.
type Snapshot struct {
	Cores int
	// CPULoad is the busy fraction over the sample window, in [0, 1].
	CPULoad         float64
	AvailableMemory uint64
	TotalMemory     uint64
}

// Limits bound the computed parallelism.
type Limits struct {
	MinProcesses         int
	MaxProcesses         int
	MemoryBufferFraction float64
	MemoryPerJob         uint64
}

// LimitsFromConfig converts the resources section into Limits.
func LimitsFromConfig(cfg config.Resources) Limits {
	return Limits{
		MinProcesses:         cfg.MinProcesses,
		MaxProcesses:         cfg.MaxProcesses,
		MemoryBufferFraction: cfg.MemoryBufferFraction,
		MemoryPerJob:         uint64(max(cfg.MemoryPerJobMiB, 0)) * 1024 * 1024,
	}
}

// Plan is the sizing decision together with the intermediate caps.
type Plan struct {
	Parallelism int
	CPUCap      int
	MemoryCap   int
	LoadCap     int
}

// Size computes the degree of parallelism for s. It has no side effects and
// always returns a value in [MinProcesses, MaxProcesses].
func Size(s Snapshot, l Limits) Plan {
	cpuCap := s.Cores
	if s.Cores > 4 {
		cpuCap = s.Cores / 2
	}

	memCap := 0
	if l.MemoryPerJob > 0 {
		usable := float64(s.AvailableMemory) * (1 - l.MemoryBufferFraction)
		memCap = floorInt(usable / float64(l.MemoryPerJob))
	}

	load := math.Min(math.Max(s.CPULoad, 0), 1)
	loadCap := floorInt(float64(cpuCap) * (1 - load))

	return Plan{
		Parallelism: clamp(min(memCap, loadCap, cpuCap), l.MinProcesses, l.MaxProcesses),
		CPUCap:      cpuCap,
		MemoryCap:   memCap,
		LoadCap:     loadCap,
	}
}

func floorInt(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Floor(v))
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Sampler reads host state.
type Sampler interface {
	Sample(ctx context.Context) (Snapshot, error)
}

// Sizer samples the host once and sizes the pool.
type Sizer struct {
	sampler Sampler
	limits  Limits
}

// NewSizer constructs a Sizer from the resources configuration.
func NewSizer(sampler Sampler, cfg config.Resources) *Sizer {
	return &Sizer{sampler: sampler, limits: LimitsFromConfig(cfg)}
}

// Limits returns the bounds the sizer applies.
func (s *Sizer) Limits() Limits {
	return s.limits
}

// Compute samples the host and returns the plan. When sampling fails the plan
// falls back to the minimum and the sampling error is returned alongside it.
func (s *Sizer) Compute(ctx context.Context) (Plan, Snapshot, error) {
	snapshot, err := s.sampler.Sample(ctx)
	if err != nil {
		floor := max(s.limits.MinProcesses, 1)
		return Plan{Parallelism: floor}, snapshot, err
	}
	return Size(snapshot, s.limits), snapshot, nil
}
