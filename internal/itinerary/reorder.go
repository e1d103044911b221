package itinerary

// MoveStop removes the element at from and reinserts it at to, preserving
// the relative order of all other elements. Out-of-range indices return the
// input order untouched.
func MoveStop(stops []Stop, from, to int) []Stop {
	if from < 0 || from >= len(stops) || to < 0 || to >= len(stops) {
		return stops
	}

	out := make([]Stop, 0, len(stops))
	out = append(out, stops[:from]...)
	out = append(out, stops[from+1:]...)

	out = append(out[:to], append([]Stop{stops[from]}, out[to:]...)...)
	return out
}

// RecomputeStartDays rewrites OrderIndex and StartDay as a running total:
// the first stop starts at day 1, each next stop at the previous start plus
// its days count.
func RecomputeStartDays(stops []Stop) {
	day := 1
	for i := range stops {
		stops[i].OrderIndex = i
		stops[i].StartDay = day
		day += stops[i].Days
	}
}
