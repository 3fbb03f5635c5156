// package profiler reports frame rate and memory statistics of the render loop through the engine logger.
package profiler

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-ar/common"
)

// Stats is one reporting window of the profiler.
type Stats struct {
	FPS       float64
	FrameTime time.Duration
	// HeapMB is the live heap, SysMB the memory obtained from the OS.
	HeapMB float64
	SysMB  float64
	// AllocRateMB is the heap allocation rate over the window in MB/s.
	AllocRateMB float64
	GCCount     uint32
	// MaxPause is the longest GC pause during the window.
	MaxPause time.Duration
}

// Profiler counts frames and logs Stats once per interval. It is used from the render goroutine only.
type Profiler struct {
	interval  time.Duration
	now       func() time.Time
	logger    *slog.Logger
	readStats func(*runtime.MemStats)

	frames         int
	windowStart    time.Time
	lastGCCount    uint32
	lastTotalAlloc uint64
	memStats       runtime.MemStats
	last           Stats
}

// ProfilerBuilderOption is a functional option for configuring a Profiler.
type ProfilerBuilderOption func(*Profiler)

// WithInterval sets the reporting interval. Defaults to one second.
func WithInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.now = now
	}
}

// WithLogger sets the logger stats are written to.
func WithLogger(l *slog.Logger) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.logger = l
	}
}

// NewProfiler creates a Profiler whose first window starts now.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the profiler
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		interval:  time.Second,
		now:       time.Now,
		readStats: runtime.ReadMemStats,
	}
	for _, opt := range options {
		opt(p)
	}
	p.logger = common.LoggerOr(p.logger)
	p.windowStart = p.now()
	return p
}

// Tick counts one frame and logs the window's Stats at Info once the interval elapsed.
//
// Returns:
//   - bool: true if stats were logged this tick
func (p *Profiler) Tick() bool {
	p.frames++
	now := p.now()
	elapsed := now.Sub(p.windowStart)
	if elapsed < p.interval {
		return false
	}

	p.readStats(&p.memStats)
	ms := &p.memStats
	s := Stats{
		FPS:         float64(p.frames) / elapsed.Seconds(),
		FrameTime:   elapsed / time.Duration(p.frames),
		HeapMB:      float64(ms.Alloc) / (1 << 20),
		SysMB:       float64(ms.Sys) / (1 << 20),
		AllocRateMB: float64(ms.TotalAlloc-p.lastTotalAlloc) / (1 << 20) / elapsed.Seconds(),
		GCCount:     ms.NumGC,
	}
	// PauseNs is a ring of the last 256 pauses.
	from := p.lastGCCount
	if ms.NumGC-from > 256 {
		from = ms.NumGC - 256
	}
	for i := from; i < ms.NumGC; i++ {
		s.MaxPause = max(s.MaxPause, time.Duration(ms.PauseNs[i%256]))
	}

	p.logger.Info("frame stats",
		"fps", s.FPS,
		"frame_time", s.FrameTime,
		"heap_mb", s.HeapMB,
		"alloc_rate_mb", s.AllocRateMB,
		"gc", s.GCCount,
		"max_pause", s.MaxPause,
		"sys_mb", s.SysMB,
	)

	p.last = s
	p.frames = 0
	p.windowStart = now
	p.lastGCCount = ms.NumGC
	p.lastTotalAlloc = ms.TotalAlloc
	return true
}

// Last returns the Stats of the most recent completed window.
func (p *Profiler) Last() Stats {
	return p.last
}
