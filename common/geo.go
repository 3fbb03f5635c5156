package common

import "math"

// EarthRadiusMeters is the mean earth radius used by the great-circle projection.
const EarthRadiusMeters = 6371000.0

// GeoPoint is a latitude/longitude pair in decimal degrees.
type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

// LocalOffset is a planar displacement in meters relative to a reference GeoPoint.
// East and North are signed: positive values lie east and north of the reference.
type LocalOffset struct {
	East  float64
	North float64
}

// HaversineDistance returns the great-circle distance in meters between a and b.
//
// Parameters:
//   - a, b: the two geo positions
//
// Returns:
//   - float64: the distance in meters
func HaversineDistance(a, b GeoPoint) float64 {
	lat1 := degToRad(a.Latitude)
	lat2 := degToRad(b.Latitude)
	dLat := lat2 - lat1
	dLon := degToRad(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMeters * c
}

// ProjectLocal decomposes the displacement from origin to target into independent east/west and
// north/south great-circle components. The east component is measured along the origin's
// latitude and the north component along the origin's longitude.
//
// Parameters:
//   - origin: the reference position (usually the player)
//   - target: the position being projected
//
// Returns:
//   - LocalOffset: signed offsets in meters
func ProjectLocal(origin, target GeoPoint) LocalOffset {
	east := HaversineDistance(origin, GeoPoint{Latitude: origin.Latitude, Longitude: target.Longitude})
	if target.Longitude < origin.Longitude {
		east = -east
	}
	north := HaversineDistance(origin, GeoPoint{Latitude: target.Latitude, Longitude: origin.Longitude})
	if target.Latitude < origin.Latitude {
		north = -north
	}
	return LocalOffset{East: east, North: north}
}

func degToRad(d float64) float64 {
	return d * math.Pi / 180
}

// OffsetGeo returns the position displaced from origin by offset. It inverts ProjectLocal for offsets that are small
// against the earth radius.
//
// Parameters:
//   - origin: the reference position
//   - offset: signed offsets in meters
//
// Returns:
//   - GeoPoint: the displaced position
func OffsetGeo(origin GeoPoint, offset LocalOffset) GeoPoint {
	lat := origin.Latitude + offset.North/EarthRadiusMeters*180/math.Pi
	lon := origin.Longitude + offset.East/(EarthRadiusMeters*math.Cos(degToRad(origin.Latitude)))*180/math.Pi
	return GeoPoint{Latitude: lat, Longitude: lon}
}
