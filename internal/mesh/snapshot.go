package mesh

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/banshee-data/pmesh/internal/interp"
	"github.com/banshee-data/pmesh/internal/projection"
)

// Snapshot is a persisted built mesh. It matches the mesh_snapshots table.
type Snapshot struct {
	RowID            *int64 // set by the store after insert
	SnapshotID       string
	MeshKey          string
	CreatedUnixNanos int64
	Reason           string // 'build', 'manual', ...

	Left, Bottom, Right, Top float64
	Width, Height            int
	Interpolator             string
	SourceProjection         string
	DestProjection           string

	ValidNodes int
	GridBlob   []byte // gob+gzip []Node
}

// SnapshotStore persists snapshots. Implemented by sqlite.Store.
type SnapshotStore interface {
	InsertSnapshot(s *Snapshot) (int64, error)
}

// SnapshotLoader finds the newest snapshot for a mesh key. Implemented by
// sqlite.Store.
type SnapshotLoader interface {
	LatestSnapshot(meshKey string) (*Snapshot, error)
}

// serializeNodes compresses the grid using gob encoding and gzip compression.
func serializeNodes(nodes []Node) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := gob.NewEncoder(gz)
	if err := enc.Encode(nodes); err != nil {
		gz.Close()
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// deserializeNodes decodes a gob+gzip grid blob.
func deserializeNodes(blob []byte) ([]Node, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("empty grid blob")
	}
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	var nodes []Node
	if err := gob.NewDecoder(gz).Decode(&nodes); err != nil {
		return nil, fmt.Errorf("failed to decode grid nodes: %w", err)
	}
	return nodes, nil
}

// snapshotKey hashes everything that determines the sampled grid. The
// interpolation strategy is not part of it: one grid serves every strategy.
func snapshotKey(left, bottom, right, top float64, width, height int, src, dst string) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	canon := fmt.Sprintf("%s|%s|%s,%s,%s,%s|%dx%d", src, dst, f(left), f(bottom), f(right), f(top), width, height)
	sum := sha256.Sum256([]byte(canon))
	return hex.EncodeToString(sum[:16])
}

// Key identifies the engine's grid. Transform names come from the last
// successful build, so Key is empty for an unbuilt engine.
func (e *Engine) Key() string {
	if !e.built {
		return ""
	}
	left, bottom, right, top := e.SourceBounds()
	return snapshotKey(left, bottom, right, top, e.width, e.height, e.src.Name(), e.dst.Name())
}

// Snapshot captures the built grid and the metadata needed to restore it.
// CreatedUnixNanos is left zero for the store to stamp on insert.
func (e *Engine) Snapshot(reason string) (*Snapshot, error) {
	if !e.built {
		return nil, newError(NotBuilt, "snapshot", fmt.Errorf("mesh has not been calculated"))
	}
	blob, err := serializeNodes(e.nodes)
	if err != nil {
		return nil, newError(Unknown, "snapshot", fmt.Errorf("serialize grid: %w", err))
	}
	left, bottom, right, top := e.SourceBounds()
	return &Snapshot{
		SnapshotID:       uuid.New().String(),
		MeshKey:          e.Key(),
		Reason:           reason,
		Left:             left,
		Bottom:           bottom,
		Right:            right,
		Top:              top,
		Width:            e.width,
		Height:           e.height,
		Interpolator:     e.kind.String(),
		SourceProjection: e.src.Name(),
		DestProjection:   e.dst.Name(),
		ValidNodes:       e.Stats().Valid,
		GridBlob:         blob,
	}, nil
}

// Persist writes a snapshot through store and returns it with RowID set.
func (e *Engine) Persist(store SnapshotStore, reason string) (*Snapshot, error) {
	if store == nil {
		return nil, fmt.Errorf("persist: nil store")
	}
	snap, err := e.Snapshot(reason)
	if err != nil {
		return nil, err
	}
	id, err := store.InsertSnapshot(snap)
	if err != nil {
		opsf("failed to persist snapshot %s: %v", snap.SnapshotID, err)
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}
	snap.RowID = &id
	diagf("persisted snapshot %s (row %d, key %s, reason=%s, %d bytes)", snap.SnapshotID, id, snap.MeshKey, reason, len(snap.GridBlob))
	return snap, nil
}

// Restore rebuilds an engine from a snapshot without calling the
// transforms. src and dst become the retained transforms and must carry the
// names recorded in the snapshot.
func Restore(s *Snapshot, src, dst projection.Transform) (*Engine, error) {
	const op = "restore"
	if s == nil {
		return nil, newError(Unknown, op, fmt.Errorf("nil snapshot"))
	}
	if src == nil || dst == nil {
		return nil, newError(Unknown, op, fmt.Errorf("nil transform"))
	}
	if src.Name() != s.SourceProjection || dst.Name() != s.DestProjection {
		return nil, newError(Unknown, op, fmt.Errorf("snapshot is %s -> %s, got %s -> %s",
			s.SourceProjection, s.DestProjection, src.Name(), dst.Name()))
	}
	kind, err := interp.ParseKind(s.Interpolator)
	if err != nil {
		return nil, newError(Unknown, op, err)
	}
	nodes, err := deserializeNodes(s.GridBlob)
	if err != nil {
		return nil, newError(Unknown, op, err)
	}

	e := New()
	e.SetBounds(s.Left, s.Bottom, s.Right, s.Top)
	if err := e.SetResolution(s.Width, s.Height); err != nil {
		return nil, err
	}
	if len(nodes) != len(e.nodes) || s.Width != e.width || s.Height != e.height {
		return nil, newError(Unknown, op, fmt.Errorf("grid has %d nodes, want %dx%d", len(nodes), s.Width, s.Height))
	}
	if err := e.SetInterpolator(kind); err != nil {
		return nil, err
	}
	copy(e.nodes, nodes)
	e.src, e.dst = src.Clone(), dst.Clone()
	e.built = true

	diagf("restored snapshot %s: %dx%d %s -> %s, %d nodes valid", s.SnapshotID, e.width, e.height, s.SourceProjection, s.DestProjection, e.Stats().Valid)
	return e, nil
}
