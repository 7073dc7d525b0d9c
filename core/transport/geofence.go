package transport

import "math"

// EarthRadiusM is the mean earth radius used for great-circle distances.
const EarthRadiusM = 6371000.0

// HaversineMeters computes the great-circle distance between two points.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusM * c
}

// Circle is a stop's geofence: center + radius in meters.
type Circle struct {
	Lat     float64
	Lon     float64
	RadiusM float64
}

// Overlaps reports whether the two circles overlap (combined-radius test)
// along with the measured center distance.
func (c Circle) Overlaps(o Circle) (distance float64, overlap bool) {
	distance = HaversineMeters(c.Lat, c.Lon, o.Lat, o.Lon)
	return distance, distance < c.RadiusM+o.RadiusM
}

// CheckGeofence verifies a candidate circle against existing stops and fails
// with GeofenceOverlapError on the first active, geofenced stop it overlaps.
// Stops without coordinates and the stop identified by excludeID are skipped.
// Callers needing serializability against concurrent stop writes must invoke
// this under the store's isolation (see storage/database).
func CheckGeofence(candidate Circle, excludeID string, existing []Stop) error {
	for _, stop := range existing {
		if stop.ID == excludeID || !stop.Active || !stop.Geofenced() {
			continue
		}
		other := Circle{Lat: stop.Latitude.Float64, Lon: stop.Longitude.Float64, RadiusM: stop.GeofenceRadiusM}
		if dist, overlap := candidate.Overlaps(other); overlap {
			return &GeofenceOverlapError{StopID: stop.ID, StopName: stop.Name, DistanceMeters: dist}
		}
	}
	return nil
}
