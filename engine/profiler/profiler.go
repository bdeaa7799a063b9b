package profiler

import (
	"log/slog"
	"runtime"
	"time"
)

// Profiler tracks frame rate and memory statistics and logs them at a fixed interval.
type Profiler struct {
	logger         *slog.Logger
	frameCount     int
	skipped        int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// Stats is one logged sample.
type Stats struct {
	FPS           float64
	Skipped       int
	HeapMB        float64
	AllocRateMBps float64
	GCCount       uint32
	LastPauseUs   uint64
	MaxPauseUs    uint64
	SysMB         float64
}

// NewProfiler creates a new Profiler.
// Update interval defaults to 1 second and the logger to slog.Default().
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		logger:         slog.Default(),
		lastTime:       time.Now(),
		updateInterval: time.Second,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Skip counts a frame that was not drawn because GPU resources were still pending.
func (p *Profiler) Skip() {
	p.skipped++
}

// Tick should be called once per drawn frame.
// Logs FPS, heap usage, allocation rate, GC pauses and process memory when the interval has elapsed.
//
// Returns:
//   - Stats: the sample that was logged
//   - bool: true if stats were logged this tick
func (p *Profiler) Tick() (Stats, bool) {
	p.frameCount++
	now := time.Now()
	elapsed := now.Sub(p.lastTime)
	if elapsed < p.updateInterval || elapsed <= 0 {
		return Stats{}, false
	}

	runtime.ReadMemStats(&p.memStats)
	st := Stats{
		FPS:     float64(p.frameCount) / elapsed.Seconds(),
		Skipped: p.skipped,
		HeapMB:  float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:   float64(p.memStats.Sys) / 1024 / 1024,
		GCCount: p.memStats.NumGC,
	}
	st.AllocRateMBps = float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	if st.GCCount > 0 {
		// PauseNs is a ring of the last 256 pauses
		st.LastPauseUs = p.memStats.PauseNs[(st.GCCount+255)%256] / 1000
		start := p.lastGCCount
		if st.GCCount-start > 256 {
			start = st.GCCount - 256
		}
		for i := start; i < st.GCCount; i++ {
			st.MaxPauseUs = max(st.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	p.logger.Info("frame stats",
		"fps", st.FPS,
		"skipped", st.Skipped,
		"heap_mb", st.HeapMB,
		"alloc_mb_s", st.AllocRateMBps,
		"gc", st.GCCount,
		"gc_last_us", st.LastPauseUs,
		"gc_max_us", st.MaxPauseUs,
		"sys_mb", st.SysMB,
	)

	p.frameCount = 0
	p.skipped = 0
	p.lastTime = now
	p.lastGCCount = st.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return st, true
}
