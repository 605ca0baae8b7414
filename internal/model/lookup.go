package model

// LookupTable is a piecewise-linear interpolant from an x-grid to a
// y-grid (component B), sorted non-decreasing by x.
type LookupTable struct {
	Name   string
	Points [][2]float64
}

// NewLookupTable validates and constructs a LookupTable. Points must
// be non-empty and sorted non-decreasing by x (Invariants).
func NewLookupTable(name string, points [][2]float64) (*LookupTable, error) {
	if len(points) == 0 {
		return nil, &ModelValidationError{Message: "lookup table " + name + " has no points"}
	}
	for i := 1; i < len(points); i++ {
		if points[i][0] < points[i-1][0] {
			return nil, &ModelValidationError{Message: "lookup table " + name + " is not sorted by x"}
		}
	}
	return &LookupTable{Name: name, Points: points}, nil
}

// Lookup interpolates linearly between the bracketing points and
// extrapolates flat outside the domain. An empty table returns 0.
func (t *LookupTable) Lookup(x float64) float64 {
	if len(t.Points) == 0 {
		return 0
	}
	if x <= t.Points[0][0] {
		return t.Points[0][1]
	}
	last := len(t.Points) - 1
	if x >= t.Points[last][0] {
		return t.Points[last][1]
	}
	for i := 1; i <= last; i++ {
		if x <= t.Points[i][0] {
			x1, y1 := t.Points[i-1][0], t.Points[i-1][1]
			x2, y2 := t.Points[i][0], t.Points[i][1]
			alpha := (x - x1) / (x2 - x1)
			return y1 + alpha*(y2-y1)
		}
	}
	return t.Points[last][1]
}

// LookupPoints builds an ad-hoc table from a flat (x1,y1,x2,y2,...)
// sequence, as used by WITH_LOOKUP's inline points.
func LookupPoints(flat []float64) (*LookupTable, error) {
	if len(flat)%2 != 0 {
		return nil, &ModelValidationError{Message: "WITH_LOOKUP requires an even number of x,y values"}
	}
	points := make([][2]float64, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		points = append(points, [2]float64{flat[i], flat[i+1]})
	}
	return NewLookupTable("", points)
}
