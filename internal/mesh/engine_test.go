package mesh

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pmesh/internal/interp"
	"github.com/banshee-data/pmesh/internal/projection"
)

// newEngine returns an unbuilt engine over the given bounds and resolution.
func newEngine(t *testing.T, left, bottom, right, top float64, w, h int, kind interp.Kind) *Engine {
	t.Helper()
	e := New()
	e.SetBounds(left, bottom, right, top)
	require.NoError(t, e.SetResolution(w, h))
	require.NoError(t, e.SetInterpolator(kind))
	return e
}

// buildIdentity builds an identity/identity mesh.
func buildIdentity(t *testing.T, left, bottom, right, top float64, w, h int, kind interp.Kind) *Engine {
	t.Helper()
	e := newEngine(t, left, bottom, right, top, w, h, kind)
	require.NoError(t, e.CalculateMesh(projection.Identity{}, projection.Identity{}))
	return e
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()
	e := New()

	assert.Equal(t, interp.BundledBilinear, e.Interpolator())
	assert.False(t, e.Built())
	w, h := e.Resolution()
	assert.Zero(t, w)
	assert.Zero(t, h)
	assert.Empty(t, e.Nodes())
	assert.Equal(t, "", e.Key())
}

func TestSetResolution_Clamp(t *testing.T) {
	t.Parallel()
	tests := []struct {
		w, h         int
		wantW, wantH int
	}{
		{0, 0, 3, 3},
		{-5, 1, 3, 3},
		{2, 10, 3, 10},
		{3, 3, 3, 3},
		{17, 4, 17, 4},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("%dx%d", tc.w, tc.h), func(t *testing.T) {
			e := New()
			require.NoError(t, e.SetResolution(tc.w, tc.h))
			w, h := e.Resolution()
			assert.Equal(t, tc.wantW, w)
			assert.Equal(t, tc.wantH, h)
			assert.Equal(t, tc.wantW, e.Width())
			assert.Equal(t, tc.wantH, e.Height())
			assert.Len(t, e.Nodes(), tc.wantW*tc.wantH)
			for _, n := range e.Nodes() {
				assert.False(t, n.Valid)
			}
		})
	}
}

func TestSetResolution_Allocation(t *testing.T) {
	t.Parallel()
	e := newEngine(t, 0, 0, 10, 10, 4, 5, interp.BundledBilinear)

	err := e.SetResolution(MaxNodes, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllocation)
	w, h := e.Resolution()
	assert.Equal(t, 4, w, "previous grid kept")
	assert.Equal(t, 5, h)
	assert.Len(t, e.Nodes(), 20)
}

func TestSpacing_EitherOrder(t *testing.T) {
	t.Parallel()
	a := New()
	a.SetBounds(100, 20, 200, 60)
	require.NoError(t, a.SetResolution(11, 5))

	b := New()
	require.NoError(t, b.SetResolution(11, 5))
	b.SetBounds(100, 20, 200, 60)

	ah, av := a.Spacing()
	bh, bv := b.Spacing()
	assert.Equal(t, 10.0, ah)
	assert.Equal(t, 10.0, av)
	assert.Equal(t, ah, bh)
	assert.Equal(t, av, bv)

	l, bo, r, top := a.SourceBounds()
	assert.Equal(t, []float64{100, 20, 200, 60}, []float64{l, bo, r, top})
}

func TestSpacing_BoundsBeforeResolution(t *testing.T) {
	t.Parallel()
	e := New()
	e.SetBounds(0, 0, 10, 10)
	h, v := e.Spacing()
	assert.Zero(t, h, "no division until resolution is set")
	assert.Zero(t, v)
}

func TestSourceCoordinate(t *testing.T) {
	t.Parallel()
	e := newEngine(t, -10, 0, 10, 30, 5, 4, interp.BundledBilinear)

	x, y := e.SourceCoordinate(0, 0)
	assert.Equal(t, -10.0, x)
	assert.Equal(t, 30.0, y, "row 0 is the top edge")

	x, y = e.SourceCoordinate(4, 3)
	assert.Equal(t, 10.0, x)
	assert.Equal(t, 0.0, y)

	x, y = e.SourceCoordinate(1, 2)
	assert.Equal(t, -5.0, x)
	assert.Equal(t, 10.0, y)
}

func TestNodeAccess_NotBuilt(t *testing.T) {
	t.Parallel()
	e := New()

	_, _, _, err := e.ProjectedCoordinate(0, 0)
	assert.ErrorIs(t, err, ErrNotBuilt)

	_, err = e.Node(0, 0)
	assert.ErrorIs(t, err, ErrNotBuilt)
}

func TestNodeAccess_Bounds(t *testing.T) {
	t.Parallel()
	e := buildIdentity(t, 0, 0, 10, 10, 3, 3, interp.BundledBilinear)

	// Last valid node.
	x, y, valid, err := e.ProjectedCoordinate(2, 2)
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Equal(t, 10.0, x)
	assert.Equal(t, 0.0, y)

	tests := []struct {
		name     string
		col, row int
	}{
		{"first index past the grid", 0, 3},
		{"column overflow that would alias into the next row", 3, 0},
		{"negative column", -1, 1},
		{"negative row", 1, -1},
		{"far corner", 3, 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, _, err := e.ProjectedCoordinate(tc.col, tc.row)
			assert.ErrorIs(t, err, ErrOutOfBounds)
			_, err = e.Node(tc.col, tc.row)
			assert.ErrorIs(t, err, ErrOutOfBounds)
		})
	}
}

func TestNodes_ReturnsCopy(t *testing.T) {
	t.Parallel()
	e := buildIdentity(t, 0, 0, 10, 10, 3, 3, interp.BundledBilinear)

	nodes := e.Nodes()
	nodes[0] = Node{X: -1, Y: -1}
	n, err := e.Node(0, 0)
	require.NoError(t, err)
	assert.Equal(t, Node{X: 0, Y: 10, Valid: true}, n)
}

func TestSetInterpolator(t *testing.T) {
	t.Parallel()
	e := New()
	for _, k := range interp.Kinds {
		require.NoError(t, e.SetInterpolator(k))
		assert.Equal(t, k, e.Interpolator())
	}

	err := e.SetInterpolator(interp.Kind(42))
	assert.ErrorIs(t, err, ErrUnknown)
	assert.ErrorIs(t, err, interp.ErrUnknownKind)
	assert.Equal(t, interp.BiCubicSpline, e.Interpolator(), "failed selection keeps the previous strategy")
}

func TestSetBounds_InvalidatesBuild(t *testing.T) {
	t.Parallel()
	e := buildIdentity(t, 0, 0, 10, 10, 3, 3, interp.BundledBilinear)
	require.True(t, e.Built())

	e.SetBounds(0, 0, 20, 20)
	assert.False(t, e.Built())
	assert.Equal(t, 0, e.Stats().Valid)
	_, err := e.ProjectedBoundingRect()
	assert.ErrorIs(t, err, ErrNotBuilt)
}

func TestSetResolution_InvalidatesBuild(t *testing.T) {
	t.Parallel()
	e := buildIdentity(t, 0, 0, 10, 10, 3, 3, interp.BundledBilinear)

	require.NoError(t, e.SetResolution(4, 4))
	assert.False(t, e.Built())
	_, _, ok := e.ProjectPoint(5, 5)
	assert.False(t, ok)
}

func TestError(t *testing.T) {
	t.Parallel()
	cause := errors.New("boom")
	err := newError(Unknown, "calculate mesh", cause)

	assert.Equal(t, "mesh: calculate mesh: unknown error: boom", err.Error())
	assert.ErrorIs(t, err, ErrUnknown)
	assert.NotErrorIs(t, err, ErrNotBuilt)
	assert.ErrorIs(t, err, cause)

	var me *Error
	require.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &me))
	assert.Equal(t, Unknown, me.Kind)
	assert.Equal(t, "calculate mesh", me.Op)

	assert.Equal(t, "mesh: out of bounds", ErrOutOfBounds.Error())
	assert.Equal(t, "not built", NotBuilt.String())
	assert.Equal(t, "allocation failure", Allocation.String())
	assert.Equal(t, "ErrorKind(9)", ErrorKind(9).String())
}

func TestStats(t *testing.T) {
	t.Parallel()
	assert.Zero(t, Stats{}.ValidFraction())
	assert.Equal(t, 0.75, Stats{Total: 4, Valid: 3, Invalid: 1}.ValidFraction())

	e := buildIdentity(t, 0, 0, 10, 10, 4, 3, interp.BundledBilinear)
	assert.Equal(t, Stats{Total: 12, Valid: 12}, e.Stats())
}
