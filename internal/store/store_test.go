package store

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cluster "github.com/huangxianhong/supercluster"
)

type plainPoint struct {
	lon, lat float64
}

func (p plainPoint) GetCoordinates() cluster.GeoCoordinates {
	return cluster.GeoCoordinates{Lon: p.lon, Lat: p.lat}
}

func testPoints() []cluster.GeoPoint {
	named := geojson.NewPointFeature([]float64{13.4, 52.52})
	named.SetProperty("name", "Berlin")
	return []cluster.GeoPoint{
		cluster.GeoJSONPoint{Feature: named},
		plainPoint{lon: 2.35, lat: 48.85},
	}
}

func TestWriteRead(t *testing.T) {
	opts := cluster.DefaultOptions()
	opts.MaxZoom = 12
	opts.Radius = 60
	opts.Index = cluster.IndexRTree

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, opts, testPoints()))

	gotOpts, points, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, 12, gotOpts.MaxZoom)
	assert.Equal(t, 60.0, gotOpts.Radius)
	assert.Equal(t, cluster.IndexRTree, gotOpts.Index)

	require.Len(t, points, 2)
	assert.Equal(t, "Berlin", points[0].(cluster.GeoJSONPoint).Properties["name"])
	assert.Equal(t, cluster.GeoCoordinates{Lon: 2.35, Lat: 48.85}, points[1].GetCoordinates())
}

func TestReadRejectsForeignData(t *testing.T) {
	_, _, err := Read(bytes.NewReader([]byte("plain text")))
	assert.Error(t, err)

	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = enc.Write([]byte("NOPE and some more bytes"))
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	_, _, err = Read(&buf)
	assert.True(t, errors.Is(err, ErrBadSnapshot))
}

func TestReadSizeLimit(t *testing.T) {
	points := make([]cluster.GeoPoint, 500)
	for i := range points {
		points[i] = plainPoint{lon: float64(i%360) - 180, lat: float64(i%170) - 85}
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, cluster.DefaultOptions(), points))
	raw := buf.Bytes()

	defer func(size int64) { MaxSnapshotSize = size }(MaxSnapshotSize)
	MaxSnapshotSize = 4096
	_, _, err := Read(bytes.NewReader(raw))
	assert.True(t, errors.Is(err, ErrBadSnapshot), "%v", err)

	MaxSnapshotSize = 1 << 30
	_, got, err := Read(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Len(t, got, 500)
}

func TestSaveListFind(t *testing.T) {
	dir := t.TempDir()

	first, err := Save(dir, cluster.DefaultOptions(), testPoints())
	require.NoError(t, err)
	assert.Equal(t, 2, first.NumPoints)
	assert.Len(t, first.ID, 8)
	assert.Greater(t, first.FileSize, int64(0))

	// timestamps have second resolution
	time.Sleep(1100 * time.Millisecond)
	second, err := Save(dir, cluster.DefaultOptions(), testPoints()[:1])
	require.NoError(t, err)

	// unrelated files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	snapshots, err := List(dir)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, second.ID, snapshots[0].ID)
	assert.Equal(t, first.ID, snapshots[1].ID)
	assert.Equal(t, 1, snapshots[0].NumPoints)

	found, err := Find(dir, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Path, found.Path)

	opts, points, err := Open(found.Path)
	require.NoError(t, err)
	assert.Equal(t, cluster.DefaultOptions().MaxZoom, opts.MaxZoom)
	assert.Len(t, points, 2)

	_, err = Find(dir, "missing")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestListMissingDir(t *testing.T) {
	snapshots, err := List(filepath.Join(t.TempDir(), "nothing-here"))
	assert.NoError(t, err)
	assert.Nil(t, snapshots)
}

func TestParseFilename(t *testing.T) {
	s, ok := parseFilename("cluster-1500p-20240102-030405-abcd1234.zst")
	require.True(t, ok)
	assert.Equal(t, "abcd1234", s.ID)
	assert.Equal(t, 1500, s.NumPoints)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), s.Timestamp)

	for _, name := range []string{
		"cluster-1500p-20240102-030405.zst",
		"cluster-xp-20240102-030405-abcd1234.zst",
		"points-1500p-20240102-030405-abcd1234.zst",
		"cluster-1500p-20240102-030405-abcd1234.json",
	} {
		_, ok := parseFilename(name)
		assert.False(t, ok, name)
	}
}
