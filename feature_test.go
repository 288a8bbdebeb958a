package cluster

import (
	"errors"
	"math"
	"testing"

	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbbreviateCount(t *testing.T) {
	assert.Equal(t, 950, abbreviateCount(950))
	assert.Equal(t, "1k", abbreviateCount(1000))
	assert.Equal(t, "1.2k", abbreviateCount(1234))
	assert.Equal(t, "9.9k", abbreviateCount(9949))
	assert.Equal(t, "10k", abbreviateCount(10000))
	assert.Equal(t, "15k", abbreviateCount(15432))
}

func TestPointsFromGeoJSON(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.AddFeature(geojson.NewPointFeature([]float64{2.35, 48.85}))
	fc.AddFeature(geojson.NewPointFeature([]float64{-0.12, 51.5}))

	points, err := PointsFromGeoJSON(fc)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, GeoCoordinates{Lon: -0.12, Lat: 51.5}, points[1].GetCoordinates())

	fc.AddFeature(geojson.NewLineStringFeature([][]float64{{0, 0}, {1, 1}}))
	_, err = PointsFromGeoJSON(fc)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	empty, err := PointsFromGeoJSON(nil)
	assert.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGeoJSONPointWithoutGeometry(t *testing.T) {
	c := GeoJSONPoint{Feature: &geojson.Feature{}}.GetCoordinates()
	assert.True(t, math.IsNaN(c.Lon))
	assert.True(t, math.IsNaN(c.Lat))
}

func TestFeatureToGeoJSON(t *testing.T) {
	source := geojson.NewPointFeature([]float64{30.52, 50.45})
	source.SetProperty("name", "Kyiv")

	c := NewCluster()
	require.NoError(t, c.Load([]GeoPoint{
		GeoJSONPoint{Feature: source},
		GeoJSONPoint{Feature: geojson.NewPointFeature([]float64{30.52001, 50.45001})},
	}))

	leaves := c.AllClusters(17)
	require.Len(t, leaves, 2)
	assert.Same(t, source, leaves[0].ToGeoJSON())

	clusters := c.AllClusters(0)
	require.Len(t, clusters, 1)
	gf := clusters[0].ToGeoJSON()
	assert.Equal(t, true, gf.Properties["cluster"])
	assert.Equal(t, 10, gf.Properties["cluster_id"])
	assert.Equal(t, 2, gf.Properties["point_count"])
	assert.Equal(t, 2, gf.Properties["point_count_abbreviated"])
	assert.Equal(t, 10, gf.ID)
	require.True(t, gf.Geometry.IsPoint())
	assert.InDelta(t, 30.520005, gf.Geometry.Point[0], 1e-6)

	fc := FeaturesToGeoJSON(append(clusters, leaves...))
	assert.Len(t, fc.Features, 3)
}

func TestNodeToFeatureOfPlainPoint(t *testing.T) {
	n := newLeaf(nil, 7, GeoCoordinates{Lon: 12.5, Lat: 41.9}, 17)
	f := nodeToFeature(n)
	assert.False(t, f.IsCluster)
	assert.Equal(t, 1, f.NumPoints)
	assert.Equal(t, [2]float64{12.5, 41.9}, f.Position)

	gf := f.ToGeoJSON()
	assert.Equal(t, 7, gf.ID)
	assert.Equal(t, []float64{12.5, 41.9}, gf.Geometry.Point)
}
