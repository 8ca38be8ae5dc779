// Package hex implements axial hex-grid coordinates: the flat, deterministic
// geometry the match logic consumes. Positions on the wire are always axial
// (q, r) plus an elevation; world-space conversion only matters to renderers.
package hex

import "math"

// HexSize is the world-space radius of one hex tile.
const HexSize = 1.0

// Axial is a hex-grid position in axial coordinates.
type Axial struct {
	Q int `json:"q" yaml:"q"`
	R int `json:"r" yaml:"r"`
}

var (
	UpperLeft  = Axial{Q: 0, R: -1}
	UpperRight = Axial{Q: 1, R: -1}
	Right      = Axial{Q: 1, R: 0}
	LowerRight = Axial{Q: 0, R: 1}
	LowerLeft  = Axial{Q: -1, R: 1}
	Left       = Axial{Q: -1, R: 0}
)

// Directions returns the six neighbor offsets in clockwise order.
func Directions() [6]Axial {
	return [6]Axial{UpperLeft, UpperRight, Right, LowerRight, LowerLeft, Left}
}

func (a Axial) Add(b Axial) Axial {
	return Axial{Q: a.Q + b.Q, R: a.R + b.R}
}

// Neighbors returns the six adjacent positions.
func (a Axial) Neighbors() [6]Axial {
	d := Directions()
	var out [6]Axial
	for i, dir := range d {
		out[i] = a.Add(dir)
	}
	return out
}

// Distance is the hex-grid distance between two positions, in tiles.
func (a Axial) Distance(b Axial) int {
	return cubeFromAxial(a).distance(cubeFromAxial(b))
}

// FromWorld converts a world-space position to the nearest axial coordinate
// and its elevation.
func FromWorld(x, y, z float64) (Axial, int) {
	q := (math.Sqrt(3)/3*x - 1.0/3.0*z) / HexSize
	r := (2.0 / 3.0 * z) / HexSize
	elevation := int(math.Round(y))
	return roundAxial(q, r), elevation
}

// ToWorld converts an axial coordinate plus elevation back to world space.
func (a Axial) ToWorld(elevation int) (x, y, z float64) {
	x = HexSize * (math.Sqrt(3)*float64(a.Q) + math.Sqrt(3)/2*float64(a.R))
	z = HexSize * (3.0 / 2.0 * float64(a.R))
	return x, float64(elevation), z
}

func roundAxial(q, r float64) Axial {
	return cubeRound(q, r, -q-r).axial()
}
