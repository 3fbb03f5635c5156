package sensor

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// orientationFilter is the implementation of the OrientationFilter interface.
type orientationFilter struct {
	mu *sync.Mutex

	compass      Compass
	inclinometer Inclinometer
	orientation  OrientationSensor
	unsubscribe  []func()

	threshold         float32
	compassFloor      time.Duration
	orientationFloor  time.Duration
	inclinometerFloor time.Duration
	onAccuracy        func(Accuracy)
	logger            *slog.Logger

	rotation mgl32.Mat3
	heading  float32
	accuracy Accuracy
	reset    bool
	fused    bool
	closed   bool
}

// OrientationFilter combines sensor readings into one rotation. Readings arrive on sensor goroutines while the render
// thread reads the current value; every method is safe for concurrent use and none blocks on a sensor.
type OrientationFilter interface {
	// Matrix returns the current rotation. Before the first accepted reading it is the identity.
	//
	// Returns:
	//   - mgl32.Mat3: the column-major rotation
	Matrix() mgl32.Mat3

	// Quat returns the current rotation as a unit quaternion.
	//
	// Returns:
	//   - mgl32.Quat: the rotation
	Quat() mgl32.Quat

	// Heading returns the last compass heading. It never drives the rotation.
	//
	// Returns:
	//   - float32: degrees from magnetic north
	Heading() float32

	// Accuracy returns the last compass accuracy class.
	//
	// Returns:
	//   - Accuracy: the accuracy class
	Accuracy() Accuracy

	// SetReset arms or disarms reset. While armed, the next orientation sample is accepted unconditionally.
	//
	// Parameters:
	//   - reset: whether reset is armed
	SetReset(reset bool)

	// Reset reports whether reset is armed.
	//
	// Returns:
	//   - bool: true until an orientation sample is accepted after SetReset(true)
	Reset() bool

	// OnCompassReading feeds one compass sample. The accuracy handler fires when the accuracy class changes.
	//
	// Parameters:
	//   - r: the reading
	OnCompassReading(r CompassReading)

	// OnInclinometerReading feeds one inclinometer sample. It replaces the rotation only while no orientation sensor
	// is available: yaw is kept, pitch is remapped to 90 - pitch and roll is ignored.
	//
	// Parameters:
	//   - r: the reading
	OnInclinometerReading(r InclinometerReading)

	// OnOrientationReading feeds one orientation sample. The candidate is the reading turned a quarter turn about +X.
	// When reset is armed the candidate is accepted and reset disarms. Otherwise the candidate is dropped if the
	// absolute dot product of its forward axis or its left axis with the current one exceeds the threshold.
	//
	// Parameters:
	//   - r: the reading
	//
	// Returns:
	//   - bool: whether the candidate replaced the rotation
	OnOrientationReading(r OrientationReading) bool

	// Close removes every sensor subscription. Safe to call more than once.
	Close()
}

var _ OrientationFilter = &orientationFilter{}

// quarterTurnX maps the sensor's reference frame onto the camera's: the device lies flat at rest, the camera looks
// out of its back.
var quarterTurnX = mgl32.Rotate3DX(math32.Pi / 2)

// NewOrientationFilter creates a filter, applies report intervals to the configured sensors and subscribes to them.
// Reset starts armed.
//
// Parameters:
//   - options: a variadic list of OrientationFilterBuilderOption functions
//
// Returns:
//   - OrientationFilter: the filter
func NewOrientationFilter(options ...OrientationFilterBuilderOption) OrientationFilter {
	f := &orientationFilter{
		mu:                &sync.Mutex{},
		threshold:         DefaultThreshold,
		compassFloor:      DefaultCompassInterval,
		orientationFloor:  DefaultOrientationInterval,
		inclinometerFloor: DefaultInclinometerInterval,
		rotation:          mgl32.Ident3(),
		reset:             true,
	}
	for _, opt := range options {
		opt(f)
	}
	f.logger = common.LoggerOr(f.logger)

	if f.compass != nil {
		f.compass.SetReportInterval(reportInterval(f.compass.MinimumReportInterval(), f.compassFloor))
		f.unsubscribe = append(f.unsubscribe, f.compass.Subscribe(f.OnCompassReading))
	}
	if f.orientation != nil {
		f.fused = true
		f.orientation.SetReportInterval(reportInterval(f.orientation.MinimumReportInterval(), f.orientationFloor))
		f.unsubscribe = append(f.unsubscribe, f.orientation.Subscribe(func(r OrientationReading) {
			f.OnOrientationReading(r)
		}))
	}
	if f.inclinometer != nil {
		f.inclinometer.SetReportInterval(reportInterval(f.inclinometer.MinimumReportInterval(), f.inclinometerFloor))
		f.unsubscribe = append(f.unsubscribe, f.inclinometer.Subscribe(f.OnInclinometerReading))
	}
	f.logger.Debug("orientation filter ready",
		"compass", f.compass != nil, "inclinometer", f.inclinometer != nil, "orientation", f.orientation != nil)
	return f
}

func (f *orientationFilter) Matrix() mgl32.Mat3 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rotation
}

func (f *orientationFilter) Quat() mgl32.Quat {
	return mgl32.Mat4ToQuat(f.Matrix().Mat4()).Normalize()
}

func (f *orientationFilter) Heading() float32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.heading
}

func (f *orientationFilter) Accuracy() Accuracy {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accuracy
}

func (f *orientationFilter) SetReset(reset bool) {
	f.mu.Lock()
	f.reset = reset
	f.mu.Unlock()
}

func (f *orientationFilter) Reset() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reset
}

func (f *orientationFilter) OnCompassReading(r CompassReading) {
	f.mu.Lock()
	f.heading = r.HeadingDegrees
	changed := r.Accuracy != f.accuracy
	f.accuracy = r.Accuracy
	handler := f.onAccuracy
	f.mu.Unlock()

	if changed && handler != nil {
		handler(r.Accuracy)
	}
}

func (f *orientationFilter) OnInclinometerReading(r InclinometerReading) {
	pitch := 180 - r.PitchDegrees - 90
	rot := common.RotationYawPitchRoll(mgl32.DegToRad(r.YawDegrees), mgl32.DegToRad(pitch), 0)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fused {
		return
	}
	f.rotation = rot
}

func (f *orientationFilter) OnOrientationReading(r OrientationReading) bool {
	candidate := r.Rotation.Mul3(quarterTurnX)

	f.mu.Lock()
	defer f.mu.Unlock()
	// A fed orientation sample means a fused sensor exists, so the inclinometer stops driving the rotation.
	f.fused = true

	if f.reset {
		f.reset = false
		f.rotation = candidate
		return true
	}
	forward := candidate.Mul3x1(common.Forward).Dot(f.rotation.Mul3x1(common.Forward))
	left := candidate.Mul3x1(common.Left).Dot(f.rotation.Mul3x1(common.Left))
	if math32.Abs(forward) > f.threshold || math32.Abs(left) > f.threshold {
		f.logger.Debug("orientation sample rejected", "forward", forward, "left", left)
		return false
	}
	f.rotation = candidate
	return true
}

func (f *orientationFilter) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	unsubscribe := f.unsubscribe
	f.unsubscribe = nil
	f.mu.Unlock()

	for _, fn := range unsubscribe {
		fn()
	}
}
