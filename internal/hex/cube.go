package hex

import "math"

// cube is the three-axis form of an axial coordinate, with q+r+s == 0.
// Rounding and distance are simpler here, so axial converts through it.
type cube struct {
	q, r, s int
}

func cubeFromAxial(a Axial) cube {
	return cube{q: a.Q, r: a.R, s: -a.Q - a.R}
}

func (c cube) axial() Axial {
	return Axial{Q: c.q, R: c.r}
}

func (c cube) distance(o cube) int {
	dq := abs(c.q - o.q)
	dr := abs(c.r - o.r)
	ds := abs(c.s - o.s)
	return (dq + dr + ds) / 2
}

// cubeRound snaps fractional cube coordinates to the nearest valid tile,
// fixing up whichever component drifted furthest so q+r+s stays zero.
func cubeRound(fq, fr, fs float64) cube {
	q := math.Round(fq)
	r := math.Round(fr)
	s := math.Round(fs)

	qDiff := math.Abs(q - fq)
	rDiff := math.Abs(r - fr)
	sDiff := math.Abs(s - fs)

	if qDiff > rDiff && qDiff > sDiff {
		q = -r - s
	} else if rDiff > sDiff {
		r = -q - s
	} else {
		s = -q - r
	}

	return cube{q: int(q), r: int(r), s: int(s)}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
