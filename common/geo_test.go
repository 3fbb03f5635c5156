package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectLocalSamePointIsZero(t *testing.T) {
	p := GeoPoint{Latitude: 51.5007, Longitude: -0.1246}
	off := ProjectLocal(p, p)
	assert.Equal(t, 0.0, off.East)
	assert.Equal(t, 0.0, off.North)
}

func TestProjectLocalOneDegreeNorthAtEquator(t *testing.T) {
	off := ProjectLocal(GeoPoint{}, GeoPoint{Latitude: 1})
	assert.InDelta(t, 111195.0, off.North, 5.0)
	assert.InDelta(t, 0.0, off.East, 1e-9)
}

func TestProjectLocalSigns(t *testing.T) {
	origin := GeoPoint{Latitude: 10, Longitude: 20}

	tests := []struct {
		name        string
		target      GeoPoint
		east, north int
	}{
		{"north east", GeoPoint{Latitude: 10.001, Longitude: 20.001}, 1, 1},
		{"south west", GeoPoint{Latitude: 9.999, Longitude: 19.999}, -1, -1},
		{"north west", GeoPoint{Latitude: 10.001, Longitude: 19.999}, -1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			off := ProjectLocal(origin, tt.target)
			assert.Equal(t, tt.east, sign(off.East))
			assert.Equal(t, tt.north, sign(off.North))
		})
	}
}

func TestProjectLocalEastShrinksWithLatitude(t *testing.T) {
	equator := ProjectLocal(GeoPoint{}, GeoPoint{Longitude: 1})
	north := ProjectLocal(GeoPoint{Latitude: 60}, GeoPoint{Latitude: 60, Longitude: 1})
	assert.InDelta(t, equator.East/2, north.East, 50)
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func TestOffsetGeoInvertsProjectLocal(t *testing.T) {
	origin := GeoPoint{Latitude: 51.5007, Longitude: -0.1246}
	for _, want := range []LocalOffset{{East: 12, North: -4}, {East: -250, North: 90}, {}} {
		got := ProjectLocal(origin, OffsetGeo(origin, want))
		assert.InDelta(t, want.East, got.East, 1e-3)
		assert.InDelta(t, want.North, got.North, 1e-3)
	}
}
