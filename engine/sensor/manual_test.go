package sensor

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestManualDeliversToSubscriber(t *testing.T) {
	m := NewManual[CompassReading](50 * time.Millisecond)
	m.Emit(CompassReading{HeadingDegrees: 10})

	var got []float32
	unsubscribe := m.Subscribe(func(r CompassReading) { got = append(got, r.HeadingDegrees) })
	m.Emit(CompassReading{HeadingDegrees: 20})
	unsubscribe()
	unsubscribe()
	m.Emit(CompassReading{HeadingDegrees: 30})

	assert.Equal(t, []float32{10, 20}, got, "the last reading is replayed on subscribe")
}

func TestManualDrivesFilterInclinometerFallback(t *testing.T) {
	incl := NewManual[InclinometerReading](5 * time.Millisecond)
	f := NewOrientationFilter(WithInclinometer(incl))
	defer f.Close()

	assert.Equal(t, DefaultInclinometerInterval, incl.ReportInterval())
	incl.Emit(InclinometerReading{PitchDegrees: 90, YawDegrees: 45})
	assertMat3(t, mgl32.Rotate3DY(mgl32.DegToRad(45)), f.Matrix())

	f.Close()
	incl.Emit(InclinometerReading{PitchDegrees: 90})
	assertMat3(t, mgl32.Rotate3DY(mgl32.DegToRad(45)), f.Matrix())
}
