package mesh

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pmesh/internal/interp"
	"github.com/banshee-data/pmesh/internal/projection"
)

func TestProjectedBoundingRect_AllValid(t *testing.T) {
	t.Parallel()
	e := newEngine(t, -20, 10, 40, 70, 7, 4, interp.BundledBilinear)
	require.NoError(t, e.CalculateMesh(projection.Identity{}, shear))
	require.Zero(t, e.Stats().Invalid)

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range e.Nodes() {
		minX, maxX = math.Min(minX, n.X), math.Max(maxX, n.X)
		minY, maxY = math.Min(minY, n.Y), math.Max(maxY, n.Y)
	}

	b, err := e.ProjectedBoundingRect()
	require.NoError(t, err)
	assert.Equal(t, orb.Bound{Min: orb.Point{minX, minY}, Max: orb.Point{maxX, maxY}}, b)
}

func TestProjectedBoundingRect_Identity(t *testing.T) {
	t.Parallel()
	e := buildIdentity(t, 0, 0, 10, 10, 3, 3, interp.BundledBilinear)

	b, err := e.ProjectedBoundingRect()
	require.NoError(t, err)
	assert.Equal(t, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 10}}, b)
}

func TestProjectedBoundingRect_SlowPathForInvalidNodes(t *testing.T) {
	t.Parallel()
	dst := foldedAt44()
	dst.Nodes[[2]float64{4, 4}] = [2]float64{11, 4}
	e := newEngine(t, 0, 0, 8, 8, 5, 5, interp.BundledBilinear)
	require.NoError(t, e.CalculateMesh(projection.Identity{}, dst))
	require.Equal(t, 2, e.Stats().Invalid)

	b, err := e.ProjectedBoundingRect()
	require.NoError(t, err)
	assert.Equal(t, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{11, 8}}, b)
}

func TestProjectedBoundingRect_SlowPathFailure(t *testing.T) {
	t.Parallel()
	broken := false
	fold := foldedAt44()
	dst := &projection.Func{
		Label:       "breakable",
		ForwardFunc: fold.Forward,
		InverseFunc: func(lat, lon float64) (float64, float64, bool) {
			if broken {
				return 0, 0, false
			}
			return fold.Inverse(lat, lon)
		},
	}
	e := newEngine(t, 0, 0, 8, 8, 5, 5, interp.BundledBilinear)
	require.NoError(t, e.CalculateMesh(projection.Identity{}, dst))

	broken = true
	_, err := e.ProjectedBoundingRect()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknown)
	assert.Contains(t, err.Error(), "breakable inverse failed at node (2, 2)")
}

func TestProjectedBoundingRect_NotBuilt(t *testing.T) {
	t.Parallel()
	_, err := New().ProjectedBoundingRect()
	assert.ErrorIs(t, err, ErrNotBuilt)

	e := newEngine(t, 0, 0, 8, 8, 5, 5, interp.BundledBilinear)
	_, err = e.ProjectedBoundingRect()
	assert.ErrorIs(t, err, ErrNotBuilt)
}
