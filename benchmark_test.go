package cluster

import (
	"fmt"
	"math/rand"
	"testing"
)

type benchPoint struct {
	lon, lat float64
}

func (p benchPoint) GetCoordinates() GeoCoordinates {
	return GeoCoordinates{Lon: p.lon, Lat: p.lat}
}

// generateRandomPoints creates n random points within a geographic bounding box
func generateRandomPoints(n int, minLng, maxLng, minLat, maxLat float64) []GeoPoint {
	// Use deterministic seed for reproducibility
	r := rand.New(rand.NewSource(42))
	points := make([]GeoPoint, n)
	for i := range points {
		points[i] = benchPoint{
			lon: minLng + r.Float64()*(maxLng-minLng),
			lat: minLat + r.Float64()*(maxLat-minLat),
		}
	}
	return points
}

func benchmarkLoad(b *testing.B, numPoints int, index string) {
	// Generate random points in the US region
	points := generateRandomPoints(numPoints, -125.0, -65.0, 25.0, 49.0)
	opts := DefaultOptions()
	opts.Index = index

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c := New(opts)
		if err := c.Load(points); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLoad(b *testing.B) {
	for _, n := range []int{1000, 10000, 100000} {
		for _, index := range []string{IndexKDBush, IndexRTree} {
			b.Run(fmt.Sprintf("%s-%d", index, n), func(b *testing.B) {
				benchmarkLoad(b, n, index)
			})
		}
	}
}

func BenchmarkGetClusters(b *testing.B) {
	c := NewCluster()
	if err := c.Load(generateRandomPoints(100000, -125.0, -65.0, 25.0, 49.0)); err != nil {
		b.Fatal(err)
	}
	bbox := BBox{-100, 30, -90, 40}

	for _, zoom := range []int{2, 8, 14} {
		b.Run(fmt.Sprintf("zoom-%d", zoom), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				c.GetClusters(bbox, zoom)
			}
		})
	}
}
