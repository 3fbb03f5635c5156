// package sensor fuses compass, inclinometer and absolute-orientation readings into the single rotation that orients
// the AR camera.
package sensor

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Accuracy is the magnetometer accuracy class reported by a compass.
type Accuracy int

const (
	AccuracyUnknown Accuracy = iota
	AccuracyUnreliable
	AccuracyApproximate
	AccuracyHigh
)

func (a Accuracy) String() string {
	switch a {
	case AccuracyUnreliable:
		return "unreliable"
	case AccuracyApproximate:
		return "approximate"
	case AccuracyHigh:
		return "high"
	default:
		return "unknown"
	}
}

// CompassReading is one compass sample.
type CompassReading struct {
	// HeadingDegrees is the heading relative to magnetic north.
	HeadingDegrees float32
	Accuracy       Accuracy
}

// InclinometerReading is one inclinometer sample in degrees.
type InclinometerReading struct {
	PitchDegrees float32
	RollDegrees  float32
	YawDegrees   float32
}

// OrientationReading is one sample of a fused absolute-orientation sensor. Rotation maps device axes into the world
// frame and is column-major like every mgl32 matrix.
type OrientationReading struct {
	Rotation mgl32.Mat3
}

// Source is a platform sensor delivering readings of type R to a single subscriber.
type Source[R any] interface {
	// MinimumReportInterval returns the shortest interval the hardware can report at.
	//
	// Returns:
	//   - time.Duration: the minimum report interval
	MinimumReportInterval() time.Duration

	// SetReportInterval requests readings at interval d.
	//
	// Parameters:
	//   - d: the requested report interval
	SetReportInterval(d time.Duration)

	// Subscribe registers fn to receive every reading. fn may be called from any goroutine.
	//
	// Parameters:
	//   - fn: the reading callback
	//
	// Returns:
	//   - func(): a function that removes the subscription
	Subscribe(fn func(R)) func()
}

// Compass reports heading and magnetometer accuracy.
type Compass = Source[CompassReading]

// Inclinometer reports pitch, roll and yaw.
type Inclinometer = Source[InclinometerReading]

// OrientationSensor reports an absolute rotation matrix.
type OrientationSensor = Source[OrientationReading]

// reportInterval returns the interval to request from a source: its hardware minimum or floor, whichever is longer.
func reportInterval(minimum, floor time.Duration) time.Duration {
	return max(minimum, floor)
}
