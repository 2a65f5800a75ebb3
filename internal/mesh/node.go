package mesh

// Node is one sample of the destination grid. The zero value is invalid.
// X and Y must not be read for interpolation unless Valid is set.
type Node struct {
	X, Y  float64
	Valid bool
}

// Stats summarises node validity after a build.
type Stats struct {
	Total   int
	Valid   int
	Invalid int
}

// ValidFraction is Valid/Total, or 0 for an empty grid.
func (s Stats) ValidFraction() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Valid) / float64(s.Total)
}
