package util

import "math"

// RoundPlaces rounds v to the given number of decimal places.
func RoundPlaces(v float64, places int) float64 {
	ratio := math.Pow(10, float64(places))
	return math.Round(v*ratio) / ratio
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
