package models

import "math"

// Bounds is the smallest lat/lng box holding a set of coordinates.
type Bounds struct {
	SouthWest Coordinates `json:"southWest"`
	NorthEast Coordinates `json:"northEast"`
}

// BoundsOf returns the box around every workout's coordinates, or false
// when there are none.
func BoundsOf(ws []Workout) (Bounds, bool) {
	if len(ws) == 0 {
		return Bounds{}, false
	}
	b := Bounds{
		SouthWest: Coordinates{Lat: math.Inf(1), Lng: math.Inf(1)},
		NorthEast: Coordinates{Lat: math.Inf(-1), Lng: math.Inf(-1)},
	}
	for _, w := range ws {
		b.SouthWest.Lat = math.Min(b.SouthWest.Lat, w.Coords.Lat)
		b.SouthWest.Lng = math.Min(b.SouthWest.Lng, w.Coords.Lng)
		b.NorthEast.Lat = math.Max(b.NorthEast.Lat, w.Coords.Lat)
		b.NorthEast.Lng = math.Max(b.NorthEast.Lng, w.Coords.Lng)
	}
	return b, true
}
