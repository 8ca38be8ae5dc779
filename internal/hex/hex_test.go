package hex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	origin := Axial{}

	assert.Equal(t, 0, origin.Distance(origin))
	for _, n := range origin.Neighbors() {
		assert.Equal(t, 1, origin.Distance(n), "neighbor %+v", n)
	}
	assert.Equal(t, 7, origin.Distance(Axial{Q: 7, R: 0}))
	assert.Equal(t, 7, origin.Distance(Axial{Q: 0, R: 7}))
	// q and r deltas in opposite signs partially cancel
	assert.Equal(t, 3, origin.Distance(Axial{Q: 3, R: -3}))
}

func TestDistanceSymmetry(t *testing.T) {
	a := Axial{Q: -4, R: 2}
	b := Axial{Q: 5, R: -1}
	assert.Equal(t, a.Distance(b), b.Distance(a))
}

func TestWorldRoundTrip(t *testing.T) {
	for _, a := range []Axial{{}, {Q: 3, R: -2}, {Q: -5, R: 5}, {Q: 10, R: 7}} {
		for _, elev := range []int{0, 3, -2} {
			x, y, z := a.ToWorld(elev)
			got, gotElev := FromWorld(x, y, z)
			assert.Equal(t, a, got)
			assert.Equal(t, elev, gotElev)
		}
	}
}

func TestFromWorldOrigin(t *testing.T) {
	a, elev := FromWorld(0, 0, 0)
	assert.Equal(t, Axial{}, a)
	assert.Equal(t, 0, elev)
}

func TestNeighborsAreUnique(t *testing.T) {
	seen := map[Axial]bool{}
	for _, n := range (Axial{Q: 2, R: 1}).Neighbors() {
		assert.False(t, seen[n], "duplicate neighbor %+v", n)
		seen[n] = true
	}
}
