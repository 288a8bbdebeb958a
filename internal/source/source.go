// Package source reads input points for the clustering service.
package source

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	geojson "github.com/paulmach/go.geojson"

	cluster "github.com/huangxianhong/supercluster"
)

// DefaultPointsQuery selects the rows FromDB expects: id, longitude, latitude
const DefaultPointsQuery = "SELECT id, longitude, latitude FROM points ORDER BY id"

// FromGeoJSONFile reads a GeoJSON FeatureCollection of points
func FromGeoJSONFile(path string) ([]cluster.GeoPoint, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return FromGeoJSON(raw)
}

// FromGeoJSON parses a GeoJSON FeatureCollection of points
func FromGeoJSON(raw []byte) ([]cluster.GeoPoint, error) {
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("parse feature collection: %w", err)
	}
	return cluster.PointsFromGeoJSON(fc)
}

// FromDB runs query and turns every (id, longitude, latitude) row into a point feature.
// Row order is kept, so order the query for reproducible clusters.
func FromDB(ctx context.Context, db *sql.DB, query string) ([]cluster.GeoPoint, error) {
	if query == "" {
		query = DefaultPointsQuery
	}
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}
	defer rows.Close()

	var points []cluster.GeoPoint
	for rows.Next() {
		var (
			id       uint64
			lon, lat float64
		)
		if err := rows.Scan(&id, &lon, &lat); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		f := geojson.NewPointFeature([]float64{lon, lat})
		f.ID = id
		points = append(points, cluster.GeoJSONPoint{Feature: f})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate points: %w", err)
	}
	return points, nil
}
