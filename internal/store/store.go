// Package store keeps compressed snapshots of loaded point sets.
//
// A snapshot holds the cluster options and the input points, the hierarchy
// itself is rebuilt on restore since Load is deterministic.
package store

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	geojson "github.com/paulmach/go.geojson"

	cluster "github.com/huangxianhong/supercluster"
)

const (
	magic          = "SCLU"
	formatVersion  = uint16(1)
	timeLayout     = "20060102-150405"
	fileExtension  = ".zst"
	maxOptionsSize = 1 << 20
)

// MaxSnapshotSize bounds the decompressed size of a snapshot
var MaxSnapshotSize int64 = 1 << 30

// ErrBadSnapshot is returned for files that are not snapshots of this format
var ErrBadSnapshot = errors.New("bad snapshot")

// Snapshot describes a saved point set
type Snapshot struct {
	ID        string    `json:"id"`
	Path      string    `json:"-"`
	NumPoints int       `json:"numPoints"`
	Timestamp time.Time `json:"timestamp"`
	FileSize  int64     `json:"fileSize"`
}

// Save writes options and points to a new snapshot file in dir.
// The file is named cluster-{numPoints}p-{timestamp}-{id}.zst
func Save(dir string, opts cluster.Options, points []cluster.GeoPoint) (Snapshot, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Snapshot{}, fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	now := time.Now().UTC()
	id := uuid.New().String()[:8]
	path := filepath.Join(dir, fmt.Sprintf("cluster-%dp-%s-%s%s", len(points), now.Format(timeLayout), id, fileExtension))

	file, err := os.Create(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := Write(file, opts, points); err != nil {
		os.Remove(path)
		return Snapshot{}, err
	}

	info, err := file.Stat()
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to stat snapshot: %w", err)
	}
	return Snapshot{
		ID:        id,
		Path:      path,
		NumPoints: len(points),
		Timestamp: now.Truncate(time.Second),
		FileSize:  info.Size(),
	}, nil
}

// Write encodes a snapshot to w
func Write(w io.Writer, opts cluster.Options, points []cluster.GeoPoint) error {
	bufWriter := bufio.NewWriterSize(w, 1024*1024)
	enc, err := zstd.NewWriter(bufWriter, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	defer enc.Close()

	optionsJSON, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("failed to marshal options: %w", err)
	}
	pointsJSON, err := pointsToGeoJSON(points).MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal points: %w", err)
	}

	// Header: magic, version, options size, options
	if _, err := enc.Write([]byte(magic)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := binary.Write(enc, binary.LittleEndian, formatVersion); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := binary.Write(enc, binary.LittleEndian, uint32(len(optionsJSON))); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := enc.Write(optionsJSON); err != nil {
		return fmt.Errorf("failed to write options: %w", err)
	}
	// Body: the points as a GeoJSON FeatureCollection
	if _, err := enc.Write(pointsJSON); err != nil {
		return fmt.Errorf("failed to write points: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to close encoder: %w", err)
	}
	if err := bufWriter.Flush(); err != nil {
		return fmt.Errorf("failed to flush buffer: %w", err)
	}
	return nil
}

// Open reads the options and points of a snapshot file
func Open(path string) (cluster.Options, []cluster.GeoPoint, error) {
	file, err := os.Open(path)
	if err != nil {
		return cluster.Options{}, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return Read(file)
}

// Read decodes a snapshot written by Write
func Read(r io.Reader) (cluster.Options, []cluster.GeoPoint, error) {
	var opts cluster.Options

	dec, err := zstd.NewReader(bufio.NewReaderSize(r, 1024*1024), zstd.WithDecoderMaxMemory(uint64(MaxSnapshotSize)))
	if err != nil {
		return opts, nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer dec.Close()

	header := make([]byte, len(magic))
	if _, err := io.ReadFull(dec, header); err != nil {
		return opts, nil, fmt.Errorf("%w: read header: %v", ErrBadSnapshot, err)
	}
	if string(header) != magic {
		return opts, nil, fmt.Errorf("%w: unexpected magic %q", ErrBadSnapshot, header)
	}
	var version uint16
	if err := binary.Read(dec, binary.LittleEndian, &version); err != nil {
		return opts, nil, fmt.Errorf("%w: read version: %v", ErrBadSnapshot, err)
	}
	if version != formatVersion {
		return opts, nil, fmt.Errorf("%w: unsupported version %d", ErrBadSnapshot, version)
	}
	var optionsSize uint32
	if err := binary.Read(dec, binary.LittleEndian, &optionsSize); err != nil {
		return opts, nil, fmt.Errorf("%w: read options size: %v", ErrBadSnapshot, err)
	}
	if optionsSize > maxOptionsSize {
		return opts, nil, fmt.Errorf("%w: options size %d", ErrBadSnapshot, optionsSize)
	}
	optionsJSON := make([]byte, optionsSize)
	if _, err := io.ReadFull(dec, optionsJSON); err != nil {
		return opts, nil, fmt.Errorf("%w: read options: %v", ErrBadSnapshot, err)
	}
	opts = cluster.DefaultOptions()
	if err := json.Unmarshal(optionsJSON, &opts); err != nil {
		return opts, nil, fmt.Errorf("%w: decode options: %v", ErrBadSnapshot, err)
	}

	pointsJSON, err := io.ReadAll(io.LimitReader(dec, MaxSnapshotSize+1))
	if err != nil {
		return opts, nil, fmt.Errorf("%w: read points: %v", ErrBadSnapshot, err)
	}
	if int64(len(pointsJSON)) > MaxSnapshotSize {
		return opts, nil, fmt.Errorf("%w: points exceed %d bytes", ErrBadSnapshot, MaxSnapshotSize)
	}
	fc, err := geojson.UnmarshalFeatureCollection(pointsJSON)
	if err != nil {
		return opts, nil, fmt.Errorf("%w: decode points: %v", ErrBadSnapshot, err)
	}
	points, err := cluster.PointsFromGeoJSON(fc)
	if err != nil {
		return opts, nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	return opts, points, nil
}

// List returns the snapshots in dir, newest first
func List(dir string) ([]Snapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot dir: %w", err)
	}

	var result []Snapshot
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		s, ok := parseFilename(e.Name())
		if !ok {
			continue
		}
		s.Path = filepath.Join(dir, e.Name())
		if info, err := e.Info(); err == nil {
			s.FileSize = info.Size()
		}
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	return result, nil
}

// Find returns the snapshot with id in dir
func Find(dir, id string) (Snapshot, error) {
	snapshots, err := List(dir)
	if err != nil {
		return Snapshot{}, err
	}
	for _, s := range snapshots {
		if s.ID == id {
			return s, nil
		}
	}
	return Snapshot{}, fmt.Errorf("snapshot %s: %w", id, os.ErrNotExist)
}

// parseFilename parses cluster-{numPoints}p-{date}-{time}-{id}.zst
func parseFilename(name string) (Snapshot, bool) {
	if !strings.HasPrefix(name, "cluster-") || !strings.HasSuffix(name, fileExtension) {
		return Snapshot{}, false
	}
	parts := strings.Split(strings.TrimSuffix(name, fileExtension), "-")
	if len(parts) != 5 {
		return Snapshot{}, false
	}
	numPoints, err := strconv.Atoi(strings.TrimSuffix(parts[1], "p"))
	if err != nil {
		return Snapshot{}, false
	}
	ts, err := time.Parse(timeLayout, parts[2]+"-"+parts[3])
	if err != nil {
		return Snapshot{}, false
	}
	return Snapshot{ID: parts[4], NumPoints: numPoints, Timestamp: ts}, true
}

func pointsToGeoJSON(points []cluster.GeoPoint) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range points {
		if gp, ok := p.(cluster.GeoJSONPoint); ok && gp.Feature != nil {
			fc.AddFeature(gp.Feature)
			continue
		}
		c := p.GetCoordinates()
		fc.AddFeature(geojson.NewPointFeature([]float64{c.Lon, c.Lat}))
	}
	return fc
}
