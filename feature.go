package cluster

import (
	"fmt"
	"math"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
)

// Feature is one result of a query: an input point or a cluster of points.
//
// For input points Source is the original GeoPoint, untouched, and Position its coordinates.
// For clusters Position is the weighted center of all points in the cluster.
type Feature struct {
	IsCluster bool       `json:"isCluster"`
	NumPoints int        `json:"numPoints"`
	Position  [2]float64 `json:"position"` // [lng, lat]
	Id        int        `json:"id"`
	Source    GeoPoint   `json:"-"`
}

func nodeToFeature(n *ClusterNode) Feature {
	if !n.IsCluster() {
		return Feature{
			NumPoints: 1,
			Position:  [2]float64{n.coordinates.Lon, n.coordinates.Lat},
			Id:        n.Id,
			Source:    n.Source,
		}
	}
	position := FromPlane(orb.Point{n.WX, n.WY})
	return Feature{
		IsCluster: true,
		NumPoints: n.NumPoints,
		Position:  [2]float64{position.Lon(), position.Lat()},
		Id:        n.Id,
	}
}

func nodesToFeatures(nodes []*ClusterNode) []Feature {
	result := make([]Feature, len(nodes))
	for i, n := range nodes {
		result[i] = nodeToFeature(n)
	}
	return result
}

// GeoJSONPoint adapts a GeoJSON feature with Point geometry to GeoPoint.
// Features without a usable point report NaN coordinates, which Load rejects.
type GeoJSONPoint struct {
	*geojson.Feature
}

func (p GeoJSONPoint) GetCoordinates() GeoCoordinates {
	if p.Feature == nil || p.Geometry == nil || !p.Geometry.IsPoint() || len(p.Geometry.Point) < 2 {
		return GeoCoordinates{Lon: math.NaN(), Lat: math.NaN()}
	}
	return GeoCoordinates{Lon: p.Geometry.Point[0], Lat: p.Geometry.Point[1]}
}

// PointsFromGeoJSON converts the features of a collection into points, keeping their order.
// Every feature must have a Point geometry.
func PointsFromGeoJSON(fc *geojson.FeatureCollection) ([]GeoPoint, error) {
	if fc == nil {
		return nil, nil
	}
	points := make([]GeoPoint, len(fc.Features))
	for i, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			return nil, fmt.Errorf("feature %d has no geometry: %w", i, ErrInvalidInput)
		}
		if !f.Geometry.IsPoint() || len(f.Geometry.Point) < 2 {
			return nil, fmt.Errorf("feature %d: %s geometry is not a point: %w", i, f.Geometry.Type, ErrInvalidInput)
		}
		points[i] = GeoJSONPoint{Feature: f}
	}
	return points, nil
}

// ToGeoJSON converts the feature to GeoJSON.
// Points loaded from GeoJSON come back as the very same feature,
// clusters carry cluster, cluster_id, point_count and point_count_abbreviated properties.
func (f Feature) ToGeoJSON() *geojson.Feature {
	if !f.IsCluster {
		if p, ok := f.Source.(GeoJSONPoint); ok && p.Feature != nil {
			return p.Feature
		}
		gf := geojson.NewPointFeature([]float64{f.Position[0], f.Position[1]})
		gf.ID = f.Id
		return gf
	}
	gf := geojson.NewPointFeature([]float64{f.Position[0], f.Position[1]})
	gf.ID = f.Id
	gf.SetProperty("cluster", true)
	gf.SetProperty("cluster_id", f.Id)
	gf.SetProperty("point_count", f.NumPoints)
	gf.SetProperty("point_count_abbreviated", abbreviateCount(f.NumPoints))
	return gf
}

// FeaturesToGeoJSON wraps query results into a FeatureCollection
func FeaturesToGeoJSON(features []Feature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		fc.AddFeature(f.ToGeoJSON())
	}
	return fc
}

// abbreviateCount formats counts for markers: 950, 1.2k, 15k
func abbreviateCount(count int) interface{} {
	switch {
	case count >= 10000:
		return fmt.Sprintf("%dk", int(math.Round(float64(count)/1000)))
	case count >= 1000:
		return fmt.Sprintf("%gk", math.Round(float64(count)/100)/10)
	default:
		return count
	}
}
