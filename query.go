package cluster

import (
	"math"

	"github.com/paulmach/orb"
)

// BBox is a geographic box [west, south, east, north] in degrees.
// West may be greater than east for boxes crossing the antimeridian.
type BBox [4]float64

// BBoxFromBound converts an orb bound with lon/lat corners
func BBoxFromBound(b orb.Bound) BBox {
	return BBox{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()}
}

// Bound converts the box to an orb bound, it does not handle antimeridian crossing
func (b BBox) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b[0], b[1]}, Max: orb.Point{b[2], b[3]}}
}

// GetClusters returns the clusters and points of zoom level inside the box.
// zoom is clamped to [MinZoom, MaxZoom+1]. The order of the result is unspecified.
func (c *Cluster) GetClusters(bbox BBox, zoom int) []Feature {
	h := c.current.Load()
	if h == nil {
		return []Feature{}
	}
	tier := h.tiers[c.limitZoom(zoom)-c.opts.MinZoom]

	b := bbox.Bound()
	minLng := wrapLng(b.Min.Lon())
	maxLng := b.Max.Lon()
	if maxLng != 180 {
		maxLng = wrapLng(maxLng)
	}
	minLat := clampLat(b.Min.Lat())
	maxLat := clampLat(b.Max.Lat())

	if b.Max.Lon()-b.Min.Lon() >= 360 {
		minLng, maxLng = -180, 180
	} else if minLng > maxLng {
		eastern := rangeGeo(tier, minLng, minLat, 180, maxLat)
		western := rangeGeo(tier, -180, minLat, maxLng, maxLat)
		return nodesToFeatures(append(eastern, western...))
	}
	return nodesToFeatures(rangeGeo(tier, minLng, minLat, maxLng, maxLat))
}

// rangeGeo searches the tier for a box that does not cross the antimeridian.
// Y of the plane grows to the south, so the north edge gives the minimum Y.
func rangeGeo(tier *Tier, west, south, east, north float64) []*ClusterNode {
	nw := ToPlane(orb.Point{west, north})
	se := ToPlane(orb.Point{east, south})
	return tier.Index.Range(nw.X(), nw.Y(), se.X(), se.Y())
}

// AllClusters returns every cluster and point of zoom level
func (c *Cluster) AllClusters(zoom int) []Feature {
	h := c.current.Load()
	if h == nil {
		return []Feature{}
	}
	return nodesToFeatures(h.tiers[c.limitZoom(zoom)-c.opts.MinZoom].Nodes)
}

// TileFeature is a feature positioned in tile pixel coordinates, in [0..Extent] inside the tile
type TileFeature struct {
	Feature
	TileX int `json:"tileX"`
	TileY int `json:"tileY"`
}

// GetTile returns the features of tile x, y at zoom z with pixel coordinates relative to the tile.
// Features within Radius of the tile border are included, so markers are not cut at tile edges,
// including the wrap around the antimeridian for the first and the last tile column.
func (c *Cluster) GetTile(x, y, z int) []TileFeature {
	h := c.current.Load()
	if h == nil || z < 0 || z > 30 {
		return []TileFeature{}
	}
	tier := h.tiers[c.limitZoom(z)-c.opts.MinZoom]
	z2 := 1 << uint(z)
	z2f := float64(z2)
	p := c.opts.Radius / float64(c.opts.Extent)
	top := (float64(y) - p) / z2f
	bottom := (float64(y) + 1 + p) / z2f

	nodes := tier.Index.Range((float64(x)-p)/z2f, top, (float64(x)+1+p)/z2f, bottom)
	result := c.nodesToTileFeatures(nil, nodes, float64(x), float64(y), z2f)

	if x == 0 {
		nodes = tier.Index.Range(1-p/z2f, top, 1, bottom)
		result = c.nodesToTileFeatures(result, nodes, z2f, float64(y), z2f)
	}
	if x == z2-1 {
		nodes = tier.Index.Range(0, top, p/z2f, bottom)
		result = c.nodesToTileFeatures(result, nodes, -1, float64(y), z2f)
	}
	return result
}

//calc node position regarding the tile
func (c *Cluster) nodesToTileFeatures(dst []TileFeature, nodes []*ClusterNode, x, y, z2 float64) []TileFeature {
	extent := float64(c.opts.Extent)
	for _, n := range nodes {
		dst = append(dst, TileFeature{
			Feature: nodeToFeature(n),
			TileX:   round(extent * (n.WX*z2 - x)),
			TileY:   round(extent * (n.WY*z2 - y)),
		})
	}
	return dst
}

// Children returns the nodes a cluster was merged from, as features
func (c *Cluster) Children(clusterID int) ([]Feature, error) {
	n, err := c.lookupCluster(clusterID)
	if err != nil {
		return nil, err
	}
	return nodesToFeatures(n.Children), nil
}

// Leaves returns the input points of a cluster, skipping offset points and returning at most limit.
// limit <= 0 returns all remaining points.
func (c *Cluster) Leaves(clusterID, limit, offset int) ([]Feature, error) {
	n, err := c.lookupCluster(clusterID)
	if err != nil {
		return nil, err
	}
	leaves := n.leaves(make([]*ClusterNode, 0, n.NumPoints))
	if offset < 0 {
		offset = 0
	}
	if offset > len(leaves) {
		offset = len(leaves)
	}
	leaves = leaves[offset:]
	if limit > 0 && limit < len(leaves) {
		leaves = leaves[:limit]
	}
	return nodesToFeatures(leaves), nil
}

// ExpansionZoom returns the zoom level at which the cluster breaks up into its children
func (c *Cluster) ExpansionZoom(clusterID int) (int, error) {
	n, err := c.lookupCluster(clusterID)
	if err != nil {
		return 0, err
	}
	return n.zoom + 1, nil
}

func (c *Cluster) lookupCluster(clusterID int) (*ClusterNode, error) {
	h := c.current.Load()
	if h == nil {
		return nil, ErrNotLoaded
	}
	n, ok := h.clusters[clusterID]
	if !ok {
		return nil, ErrClusterNotFound
	}
	return n, nil
}

func wrapLng(lng float64) float64 {
	return math.Mod(math.Mod(lng+180, 360)+360, 360) - 180
}

func clampLat(lat float64) float64 {
	return math.Max(-90, math.Min(90, lat))
}

func round(val float64) int {
	if val < 0 {
		return int(val - 0.5)
	}
	return int(val + 0.5)
}
