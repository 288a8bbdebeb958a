package cluster

import (
	"math"

	"github.com/paulmach/orb"
)

// LngX maps longitude to the [0..1] plane
func LngX(lng float64) float64 {
	return lng/360.0 + 0.5
}

// LatY maps latitude to the [0..1] plane with spherical mercator.
// Y grows to the south. Values at and beyond the poles saturate to 0 or 1.
func LatY(lat float64) float64 {
	sin := math.Sin(lat * math.Pi / 180.0)
	y := 0.5 - 0.25*math.Log((1+sin)/(1-sin))/math.Pi
	if y < 0 {
		return 0
	}
	if y > 1 {
		return 1
	}
	return y
}

// XLng is the inverse of LngX
func XLng(x float64) float64 {
	return (x - 0.5) * 360
}

// YLat is the inverse of LatY
func YLat(y float64) float64 {
	y2 := (180 - y*360) * math.Pi / 180.0
	return 360*math.Atan(math.Exp(y2))/math.Pi - 90
}

// MercatorProjection converts longitude/latitude to spherical mercator in [0..1] range
func MercatorProjection(coordinates GeoCoordinates) (float64, float64) {
	return LngX(coordinates.Lon), LatY(coordinates.Lat)
}

// ReverseMercatorProjection converts [0..1] plane coordinates back to longitude/latitude
func ReverseMercatorProjection(x, y float64) GeoCoordinates {
	return GeoCoordinates{Lon: XLng(x), Lat: YLat(y)}
}

// ToPlane and FromPlane expose the projection as orb projections,
// so orb geometries can be moved in and out of the clustering plane.
var (
	ToPlane orb.Projection = func(p orb.Point) orb.Point {
		x, y := MercatorProjection(GeoCoordinates{Lon: p.Lon(), Lat: p.Lat()})
		return orb.Point{x, y}
	}
	FromPlane orb.Projection = func(p orb.Point) orb.Point {
		c := ReverseMercatorProjection(p.X(), p.Y())
		return orb.Point{c.Lon, c.Lat}
	}
)
