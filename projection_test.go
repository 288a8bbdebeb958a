package cluster

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestProjectionRoundTrip(t *testing.T) {
	for lng := -180.0; lng <= 180; lng += 7.5 {
		assert.InDelta(t, lng, XLng(LngX(lng)), 1e-9, "longitude %v", lng)
	}
	for lat := -84.9; lat < 85; lat += 2.3 {
		assert.InDelta(t, lat, YLat(LatY(lat)), 1e-9, "latitude %v", lat)
	}
}

func TestProjectionKnownValues(t *testing.T) {
	assert.Equal(t, 0.0, LngX(-180))
	assert.Equal(t, 0.5, LngX(0))
	assert.Equal(t, 1.0, LngX(180))
	assert.InDelta(t, 0.5, LatY(0), 1e-15)

	// y grows to the south
	assert.Less(t, LatY(45), LatY(0))
	assert.Greater(t, LatY(-45), LatY(0))

	// edge of the web mercator square
	assert.InDelta(t, 0, LatY(85.0511287798066), 1e-9)
	assert.InDelta(t, 1, LatY(-85.0511287798066), 1e-9)
}

func TestProjectionSaturatesAtPoles(t *testing.T) {
	assert.Equal(t, 0.0, LatY(90))
	assert.Equal(t, 1.0, LatY(-90))
	assert.Equal(t, 0.0, LatY(89.9))
	assert.Equal(t, 1.0, LatY(-89.9))
	assert.False(t, math.IsNaN(LatY(90)))
}

func TestMercatorProjection(t *testing.T) {
	x, y := MercatorProjection(GeoCoordinates{Lon: 90, Lat: 0})
	assert.Equal(t, 0.75, x)
	assert.InDelta(t, 0.5, y, 1e-15)

	c := ReverseMercatorProjection(0.25, 0.5)
	assert.InDelta(t, -90, c.Lon, 1e-12)
	assert.InDelta(t, 0, c.Lat, 1e-12)
}

func TestOrbProjections(t *testing.T) {
	p := orb.Point{30.5234, 50.4501}
	plane := ToPlane(p)
	assert.Equal(t, LngX(p.Lon()), plane.X())
	assert.Equal(t, LatY(p.Lat()), plane.Y())

	back := FromPlane(plane)
	assert.InDelta(t, p.Lon(), back.Lon(), 1e-9)
	assert.InDelta(t, p.Lat(), back.Lat(), 1e-9)
}

func TestBBoxBound(t *testing.T) {
	b := orb.Bound{Min: orb.Point{-10, 40}, Max: orb.Point{10, 50}}
	bbox := BBoxFromBound(b)
	assert.Equal(t, BBox{-10, 40, 10, 50}, bbox)
	assert.Equal(t, b, bbox.Bound())
}
