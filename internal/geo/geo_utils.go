package geo

import (
	"math"

	"github.com/golang/geo/s2"
)

// earthRadiusKm represents the mean radius of the Earth in kilometers.
//
// This value (6,371 km) is the Earth's volumetric mean radius, commonly used
// for general geospatial calculations and spherical approximations.
//
// Reference: NASA Planetary Fact Sheet – Earth
// https://nssdc.gsfc.nasa.gov/planetary/factsheet/earthfact.html
const earthRadiusKm = 6371

// kmPerDegreeLatitude is the approximate length of one degree of latitude.
// Used only by the bounding-box distance estimate.
const kmPerDegreeLatitude = 111

// LatLng is a geographic coordinate pair in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// BoundingBox defines the corners of a lat/lng box.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// Contains checks whether the given latitude and longitude are within the bounding box
func (b *BoundingBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// IsValidLatLng returns true if the given latitude and longitude values
// fall within the valid geographic coordinate bounds.
//
// Latitude must be between -90 and 90 degrees, and longitude must be
// between -180 and 180 degrees.
//
// Note: This function treats the coordinate (0,0) as invalid, even though it
// is a valid location in the Gulf of Guinea. This assumption is made to help
// detect uninitialized or placeholder coordinates commonly represented as (0,0).
func IsValidLatLng(lat, lng float64) bool {
	if lat == 0 && lng == 0 {
		return false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return false
	}
	return true
}

// HaversineDistance returns the great-circle distance between two points in
// kilometers. It is symmetric and returns zero only for identical points.
func HaversineDistance(p1, p2 LatLng) float64 {
	a := s2.LatLngFromDegrees(p1.Lat, p1.Lng)
	b := s2.LatLngFromDegrees(p2.Lat, p2.Lng)
	return a.Distance(b).Radians() * earthRadiusKm
}

// PathDistance returns the total distance along a path of coordinates in
// kilometers, as the sum of consecutive haversine distances. Paths with fewer
// than two points have zero length.
func PathDistance(coords []LatLng) float64 {
	if len(coords) < 2 {
		return 0
	}

	var total float64
	for i := 0; i < len(coords)-1; i++ {
		total += HaversineDistance(coords[i], coords[i+1])
	}
	return total
}

// EstimateDistanceFromBoundingBox estimates a route length as the diagonal of
// its bounding box, using 111 km per degree of latitude and a cos(latitude)
// correction for longitude.
//
// This is a deliberately rough fallback for routes without detailed geometry.
// It is not a route-following distance: a winding trail is usually much longer
// than its bounding-box diagonal.
func EstimateDistanceFromBoundingBox(bbox BoundingBox) float64 {
	latDiff := bbox.MaxLat - bbox.MinLat
	lngDiff := bbox.MaxLng - bbox.MinLng

	latKm := latDiff * kmPerDegreeLatitude
	lngKm := lngDiff * kmPerDegreeLatitude * math.Cos(bbox.MinLat*math.Pi/180)

	return math.Sqrt(latKm*latKm + lngKm*lngKm)
}

// EstimateHikingTime estimates the walking time in minutes for a leg of the
// given distance, assuming an average hiking speed of 4 km/h on flat terrain.
//
// When an ascent is known, one hour is added per 600 m of climb (Naismith's
// rule). Descent only costs extra time when it exceeds 1000 m, at one hour per
// 1200 m. The result is rounded to the nearest whole minute and never negative.
func EstimateHikingTime(distanceKm float64, ascentM, descentM *float64) int {
	hours := distanceKm / 4

	if ascentM != nil && *ascentM > 0 {
		hours += *ascentM / 600
	}
	if descentM != nil && *descentM > 1000 {
		hours += *descentM / 1200
	}

	minutes := int(math.Round(hours * 60))
	if minutes < 0 {
		return 0
	}
	return minutes
}
