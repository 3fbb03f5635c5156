package sensor

import (
	"sync"
	"time"
)

// Manual is a Source fed by calling Emit, for hosts without the hardware sensor such as the desktop demo, where
// mouse drags stand in for the device's inclinometer.
type Manual[R any] struct {
	mu       *sync.Mutex
	minimum  time.Duration
	interval time.Duration
	fn       func(R)
	last     R
	emitted  bool
}

var (
	_ Compass           = &Manual[CompassReading]{}
	_ Inclinometer      = &Manual[InclinometerReading]{}
	_ OrientationSensor = &Manual[OrientationReading]{}
)

// NewManual creates a Manual reporting minimum as its hardware minimum interval.
//
// Parameters:
//   - minimum: the reported minimum report interval
//
// Returns:
//   - *Manual[R]: the source
func NewManual[R any](minimum time.Duration) *Manual[R] {
	return &Manual[R]{mu: &sync.Mutex{}, minimum: minimum}
}

func (m *Manual[R]) MinimumReportInterval() time.Duration {
	return m.minimum
}

func (m *Manual[R]) SetReportInterval(d time.Duration) {
	m.mu.Lock()
	m.interval = d
	m.mu.Unlock()
}

// ReportInterval returns the interval last requested with SetReportInterval.
func (m *Manual[R]) ReportInterval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interval
}

// Subscribe replaces the subscriber. A subscriber added after an Emit receives the last reading immediately.
func (m *Manual[R]) Subscribe(fn func(R)) func() {
	m.mu.Lock()
	m.fn = fn
	last, replay := m.last, m.emitted
	m.mu.Unlock()

	if replay && fn != nil {
		fn(last)
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			m.fn = nil
			m.mu.Unlock()
		})
	}
}

// Emit delivers r to the subscriber on the calling goroutine.
//
// Parameters:
//   - r: the reading
func (m *Manual[R]) Emit(r R) {
	m.mu.Lock()
	m.last, m.emitted = r, true
	fn := m.fn
	m.mu.Unlock()

	if fn != nil {
		fn(r)
	}
}
