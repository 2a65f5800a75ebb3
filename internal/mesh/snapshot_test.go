package mesh

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pmesh/internal/interp"
	"github.com/banshee-data/pmesh/internal/projection"
	"github.com/banshee-data/pmesh/internal/testutil"
)

// memStore records inserted snapshots.
type memStore struct {
	snaps []*Snapshot
	err   error
}

func (m *memStore) InsertSnapshot(s *Snapshot) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.snaps = append(m.snaps, s)
	return int64(len(m.snaps)), nil
}

func TestSnapshot_RoundTrip(t *testing.T) {
	t.Parallel()
	e := newEngine(t, 0, 0, 8, 8, 5, 5, interp.BiCubicSpline)
	require.NoError(t, e.CalculateMesh(projection.Identity{}, shear))

	snap, err := e.Snapshot("build")
	require.NoError(t, err)
	assert.NotEmpty(t, snap.SnapshotID)
	assert.Equal(t, e.Key(), snap.MeshKey)
	assert.Equal(t, "build", snap.Reason)
	assert.Equal(t, "bi-cubic-spline", snap.Interpolator)
	assert.Equal(t, "identity", snap.SourceProjection)
	assert.Equal(t, "affine", snap.DestProjection)
	assert.Equal(t, 25, snap.ValidNodes)
	assert.Zero(t, snap.CreatedUnixNanos, "the store stamps creation time")

	src := testutil.NewCounting(projection.Identity{})
	dst := testutil.NewCounting(shear)
	r, err := Restore(snap, src, dst)
	require.NoError(t, err)
	require.True(t, r.Built())

	f, _, _ := src.Calls()
	_, i, _ := dst.Calls()
	assert.Zero(t, f, "restore does not sample the source transform")
	assert.Zero(t, i, "restore does not sample the destination transform")

	if diff := cmp.Diff(e.Nodes(), r.Nodes()); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, e.Key(), r.Key())
	assert.Equal(t, e.Interpolator(), r.Interpolator())

	for _, q := range [][2]float64{{1.3, 6.1}, {5.9, 0.4}, {4, 4}} {
		wx, wy, wok := e.ProjectPoint(q[0], q[1])
		gx, gy, gok := r.ProjectPoint(q[0], q[1])
		assert.Equal(t, wok, gok)
		assert.Equal(t, wx, gx, "query %v", q)
		assert.Equal(t, wy, gy, "query %v", q)
	}

	wb, err := e.ProjectedBoundingRect()
	require.NoError(t, err)
	gb, err := r.ProjectedBoundingRect()
	require.NoError(t, err)
	assert.Equal(t, wb, gb)
}

func TestSnapshot_NotBuilt(t *testing.T) {
	t.Parallel()
	e := newEngine(t, 0, 0, 8, 8, 5, 5, interp.BundledBilinear)
	_, err := e.Snapshot("manual")
	assert.ErrorIs(t, err, ErrNotBuilt)

	_, err = e.Persist(&memStore{}, "manual")
	assert.ErrorIs(t, err, ErrNotBuilt)
}

func TestRestore_Rejects(t *testing.T) {
	t.Parallel()
	e := buildIdentity(t, 0, 0, 8, 8, 5, 5, interp.BundledBilinear)

	tests := []struct {
		name    string
		mutate  func(s *Snapshot)
		src     projection.Transform
		wantMsg string
	}{
		{"projection mismatch", nil, projection.WebMercator{}, "snapshot is identity -> identity"},
		{"corrupt blob", func(s *Snapshot) { s.GridBlob = []byte("not gzip") }, projection.Identity{}, "gzip reader"},
		{"empty blob", func(s *Snapshot) { s.GridBlob = nil }, projection.Identity{}, "empty grid blob"},
		{"size mismatch", func(s *Snapshot) { s.Width = 6 }, projection.Identity{}, "grid has 25 nodes, want 6x5"},
		{"unknown interpolator", func(s *Snapshot) { s.Interpolator = "nearest" }, projection.Identity{}, "unknown interpolator kind"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			snap, err := e.Snapshot("test")
			require.NoError(t, err)
			if tc.mutate != nil {
				tc.mutate(snap)
			}
			_, err = Restore(snap, tc.src, projection.Identity{})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnknown)
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}

	_, err := Restore(nil, projection.Identity{}, projection.Identity{})
	assert.ErrorIs(t, err, ErrUnknown)
	snap, err := e.Snapshot("test")
	require.NoError(t, err)
	_, err = Restore(snap, nil, projection.Identity{})
	assert.ErrorIs(t, err, ErrUnknown)
}

func TestPersist(t *testing.T) {
	t.Parallel()
	e := buildIdentity(t, 0, 0, 8, 8, 5, 5, interp.BundledBilinear)

	store := &memStore{}
	snap, err := e.Persist(store, "build")
	require.NoError(t, err)
	require.NotNil(t, snap.RowID)
	assert.Equal(t, int64(1), *snap.RowID)
	require.Len(t, store.snaps, 1)
	assert.Same(t, snap, store.snaps[0])

	second, err := e.Persist(store, "manual")
	require.NoError(t, err)
	assert.Equal(t, int64(2), *second.RowID)
	assert.NotEqual(t, snap.SnapshotID, second.SnapshotID)
	assert.Equal(t, snap.MeshKey, second.MeshKey)

	cause := errors.New("disk full")
	_, err = e.Persist(&memStore{err: cause}, "build")
	assert.ErrorIs(t, err, cause)

	_, err = e.Persist(nil, "build")
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	t.Parallel()
	a := buildIdentity(t, 0, 0, 8, 8, 5, 5, interp.BundledBilinear)
	b := buildIdentity(t, 0, 0, 8, 8, 5, 5, interp.BiCubic)
	assert.Len(t, a.Key(), 32)
	assert.Equal(t, a.Key(), b.Key(), "strategy does not change the grid")

	c := buildIdentity(t, 0, 0, 8, 8, 5, 6, interp.BundledBilinear)
	assert.NotEqual(t, a.Key(), c.Key())

	d := newEngine(t, 0, 0, 8, 8, 5, 5, interp.BundledBilinear)
	require.NoError(t, d.CalculateMesh(projection.Identity{}, shear))
	assert.NotEqual(t, a.Key(), d.Key(), "destination name is part of the key")
}

func TestSerializeNodes(t *testing.T) {
	t.Parallel()
	in := []Node{{X: 1, Y: 2, Valid: true}, {X: -3.5, Y: 1e300}, {}}
	blob, err := serializeNodes(in)
	require.NoError(t, err)
	out, err := deserializeNodes(blob)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
