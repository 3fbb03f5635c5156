package sensor

import (
	"log/slog"
	"time"
)

const (
	// DefaultThreshold is the largest absolute axis dot product an orientation sample may have against the current
	// rotation and still be accepted.
	DefaultThreshold = 0.1
	// DefaultCompassInterval is the report interval floor of the compass.
	DefaultCompassInterval = 200 * time.Millisecond
	// DefaultOrientationInterval is the report interval floor of the orientation sensor.
	DefaultOrientationInterval = 200 * time.Millisecond
	// DefaultInclinometerInterval is the report interval floor of the inclinometer.
	DefaultInclinometerInterval = 20 * time.Millisecond
)

// OrientationFilterBuilderOption is a functional option used to configure an OrientationFilter during construction.
type OrientationFilterBuilderOption func(*orientationFilter)

// WithCompass subscribes the filter to a compass.
//
// Parameters:
//   - c: the compass, nil when the device has none
//
// Returns:
//   - OrientationFilterBuilderOption: a function that sets the compass
func WithCompass(c Compass) OrientationFilterBuilderOption {
	return func(f *orientationFilter) {
		f.compass = c
	}
}

// WithInclinometer subscribes the filter to an inclinometer. Its readings only drive the rotation when no
// orientation sensor is available.
//
// Parameters:
//   - i: the inclinometer, nil when the device has none
//
// Returns:
//   - OrientationFilterBuilderOption: a function that sets the inclinometer
func WithInclinometer(i Inclinometer) OrientationFilterBuilderOption {
	return func(f *orientationFilter) {
		f.inclinometer = i
	}
}

// WithOrientationSensor subscribes the filter to a fused absolute-orientation sensor.
//
// Parameters:
//   - o: the orientation sensor, nil when the device has none
//
// Returns:
//   - OrientationFilterBuilderOption: a function that sets the orientation sensor
func WithOrientationSensor(o OrientationSensor) OrientationFilterBuilderOption {
	return func(f *orientationFilter) {
		f.orientation = o
	}
}

// WithThreshold sets the acceptance threshold for orientation samples.
//
// Parameters:
//   - t: the largest accepted absolute dot product
//
// Returns:
//   - OrientationFilterBuilderOption: a function that sets the threshold
func WithThreshold(t float32) OrientationFilterBuilderOption {
	return func(f *orientationFilter) {
		f.threshold = t
	}
}

// WithReportIntervals overrides the report interval floors. Zero values keep the defaults.
//
// Parameters:
//   - compass: the compass floor
//   - orientation: the orientation sensor floor
//   - inclinometer: the inclinometer floor
//
// Returns:
//   - OrientationFilterBuilderOption: a function that sets the floors
func WithReportIntervals(compass, orientation, inclinometer time.Duration) OrientationFilterBuilderOption {
	return func(f *orientationFilter) {
		if compass > 0 {
			f.compassFloor = compass
		}
		if orientation > 0 {
			f.orientationFloor = orientation
		}
		if inclinometer > 0 {
			f.inclinometerFloor = inclinometer
		}
	}
}

// WithAccuracyHandler sets the callback fired when the compass accuracy class changes. Only one handler is kept.
//
// Parameters:
//   - fn: the callback, invoked outside the filter lock
//
// Returns:
//   - OrientationFilterBuilderOption: a function that sets the handler
func WithAccuracyHandler(fn func(Accuracy)) OrientationFilterBuilderOption {
	return func(f *orientationFilter) {
		f.onAccuracy = fn
	}
}

// WithLogger sets the logger of the filter.
//
// Parameters:
//   - l: the logger, nil selects the engine logger
//
// Returns:
//   - OrientationFilterBuilderOption: a function that sets the logger
func WithLogger(l *slog.Logger) OrientationFilterBuilderOption {
	return func(f *orientationFilter) {
		f.logger = l
	}
}
