package sensor

import (
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource[R any] struct {
	minimum      time.Duration
	interval     time.Duration
	fn           func(R)
	unsubscribed int
}

func (s *fakeSource[R]) MinimumReportInterval() time.Duration { return s.minimum }
func (s *fakeSource[R]) SetReportInterval(d time.Duration)    { s.interval = d }

func (s *fakeSource[R]) Subscribe(fn func(R)) func() {
	s.fn = fn
	return func() {
		s.fn = nil
		s.unsubscribed++
	}
}

func (s *fakeSource[R]) emit(r R) {
	if s.fn != nil {
		s.fn(r)
	}
}

// cyclic maps X to Y, Y to Z and Z to X, leaving both the forward and the left axis perpendicular to where they were.
var cyclic = mgl32.Mat3{0, 1, 0, 0, 0, 1, 1, 0, 0}

func assertMat3(t *testing.T, want, got mgl32.Mat3) {
	t.Helper()
	assert.True(t, want.ApproxEqualThreshold(got, 1e-5), "want %v, got %v", want, got)
}

func TestReportIntervalsUseFloors(t *testing.T) {
	compass := &fakeSource[CompassReading]{minimum: 16 * time.Millisecond}
	orientation := &fakeSource[OrientationReading]{minimum: 500 * time.Millisecond}
	incline := &fakeSource[InclinometerReading]{minimum: 5 * time.Millisecond}

	f := NewOrientationFilter(WithCompass(compass), WithOrientationSensor(orientation), WithInclinometer(incline))
	defer f.Close()

	assert.Equal(t, 200*time.Millisecond, compass.interval)
	assert.Equal(t, 500*time.Millisecond, orientation.interval, "hardware minimum wins over the floor")
	assert.Equal(t, 20*time.Millisecond, incline.interval)

	custom := &fakeSource[CompassReading]{}
	NewOrientationFilter(WithCompass(custom), WithReportIntervals(50*time.Millisecond, 0, 0))
	assert.Equal(t, 50*time.Millisecond, custom.interval)
}

func TestStartsAtIdentityWithResetArmed(t *testing.T) {
	f := NewOrientationFilter()
	assertMat3(t, mgl32.Ident3(), f.Matrix())
	assert.True(t, f.Reset())
	assert.InDelta(t, 1, f.Quat().W, 1e-6)
}

func TestOrientationAcceptAndReject(t *testing.T) {
	f := NewOrientationFilter()

	first := OrientationReading{Rotation: mgl32.Ident3()}
	require.True(t, f.OnOrientationReading(first), "reset accepts any sample")
	assert.False(t, f.Reset())
	current := f.Matrix()
	assertMat3(t, quarterTurnX, current)

	assert.False(t, f.OnOrientationReading(first), "an aligned sample has dot products of 1")
	assertMat3(t, current, f.Matrix())

	// Choose a reading whose candidate is current * cyclic.
	next := OrientationReading{Rotation: current.Mul3(cyclic).Mul3(quarterTurnX.Inv())}
	require.True(t, f.OnOrientationReading(next))
	assertMat3(t, current.Mul3(cyclic), f.Matrix())
}

func TestForwardOrLeftDotAloneRejects(t *testing.T) {
	f := NewOrientationFilter()
	require.True(t, f.OnOrientationReading(OrientationReading{Rotation: quarterTurnX.Inv()}))
	assertMat3(t, mgl32.Ident3(), f.Matrix())

	// A quarter turn about Z moves left onto Y but leaves forward in place.
	aboutZ := mgl32.Rotate3DZ(mgl32.DegToRad(90))
	assert.False(t, f.OnOrientationReading(OrientationReading{Rotation: aboutZ.Mul3(quarterTurnX.Inv())}))
	// A quarter turn about X moves forward onto -Y but leaves left in place.
	aboutX := mgl32.Rotate3DX(mgl32.DegToRad(90))
	assert.False(t, f.OnOrientationReading(OrientationReading{Rotation: aboutX.Mul3(quarterTurnX.Inv())}))
	assertMat3(t, mgl32.Ident3(), f.Matrix())
}

func TestSetResetAcceptsNextSample(t *testing.T) {
	f := NewOrientationFilter(WithThreshold(0.5))
	require.True(t, f.OnOrientationReading(OrientationReading{Rotation: mgl32.Ident3()}))
	require.False(t, f.OnOrientationReading(OrientationReading{Rotation: mgl32.Ident3()}))

	f.SetReset(true)
	assert.True(t, f.OnOrientationReading(OrientationReading{Rotation: mgl32.Ident3()}))
	assert.False(t, f.Reset())
}

func TestInclinometerFallback(t *testing.T) {
	f := NewOrientationFilter(WithInclinometer(&fakeSource[InclinometerReading]{}))
	f.OnInclinometerReading(InclinometerReading{PitchDegrees: 90, YawDegrees: 30, RollDegrees: 45})

	want := common.RotationYawPitchRoll(mgl32.DegToRad(30), 0, 0)
	assertMat3(t, want, f.Matrix())

	f.OnInclinometerReading(InclinometerReading{PitchDegrees: 0})
	assertMat3(t, mgl32.Rotate3DX(mgl32.DegToRad(90)), f.Matrix())
}

func TestInclinometerIgnoredWithOrientationSensor(t *testing.T) {
	orientation := &fakeSource[OrientationReading]{}
	incline := &fakeSource[InclinometerReading]{}
	f := NewOrientationFilter(WithOrientationSensor(orientation), WithInclinometer(incline))

	incline.emit(InclinometerReading{PitchDegrees: 10, YawDegrees: 80})
	assertMat3(t, mgl32.Ident3(), f.Matrix())

	orientation.emit(OrientationReading{Rotation: mgl32.Ident3()})
	assertMat3(t, quarterTurnX, f.Matrix())
}

func TestCompassRecordsHeadingAndFiresOnChange(t *testing.T) {
	compass := &fakeSource[CompassReading]{}
	var fired []Accuracy
	f := NewOrientationFilter(WithCompass(compass), WithAccuracyHandler(func(a Accuracy) {
		fired = append(fired, a)
	}))

	compass.emit(CompassReading{HeadingDegrees: 12, Accuracy: AccuracyApproximate})
	compass.emit(CompassReading{HeadingDegrees: 14, Accuracy: AccuracyApproximate})
	compass.emit(CompassReading{HeadingDegrees: 15, Accuracy: AccuracyHigh})

	assert.Equal(t, []Accuracy{AccuracyApproximate, AccuracyHigh}, fired)
	assert.Equal(t, float32(15), f.Heading())
	assert.Equal(t, AccuracyHigh, f.Accuracy())
	assertMat3(t, mgl32.Ident3(), f.Matrix())
}

func TestCloseUnsubscribesOnce(t *testing.T) {
	compass := &fakeSource[CompassReading]{}
	orientation := &fakeSource[OrientationReading]{}
	f := NewOrientationFilter(WithCompass(compass), WithOrientationSensor(orientation))

	f.Close()
	f.Close()
	assert.Equal(t, 1, compass.unsubscribed)
	assert.Equal(t, 1, orientation.unsubscribed)

	compass.emit(CompassReading{HeadingDegrees: 99})
	assert.Zero(t, f.Heading())
}

func TestConcurrentFeedAndRead(t *testing.T) {
	f := NewOrientationFilter()
	var wg sync.WaitGroup
	for i := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				f.OnOrientationReading(OrientationReading{Rotation: mgl32.Rotate3DY(float32(i*j) * 0.01)})
				f.OnCompassReading(CompassReading{HeadingDegrees: float32(j)})
			}
		}()
	}
	for range 100 {
		_ = f.Matrix()
		_ = f.Quat()
	}
	wg.Wait()
}
