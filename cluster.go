package cluster

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/apex/log"
)

// Tier is the node set and spatial index of one zoom level.
// Tiers are immutable once Load returns.
type Tier struct {
	Zoom  int
	Nodes []*ClusterNode
	Index SpatialIndex
}

// hierarchy is the result of one Load, published as a whole
type hierarchy struct {
	//adding extra tier for the leaves, indexed by zoom - MinZoom
	tiers    []*Tier
	points   []GeoPoint
	leaves   []*ClusterNode
	clusters map[int]*ClusterNode

	clusterIdxSeed int
	clusterIDLast  int
}

// Cluster takes a list of geo objects
// and produces clusters for every zoom level from MinZoom to MaxZoom.
//
// Load builds the hierarchy, queries read it. Queries are safe for concurrent use,
// also while a Load is running: the new hierarchy replaces the old one only when it is complete.
type Cluster struct {
	opts     Options
	newIndex IndexBuilder

	loadMu  sync.Mutex
	current atomic.Pointer[hierarchy]
}

// NewCluster creates a Cluster with DefaultOptions:
// MinZoom = 0
// MaxZoom = 16
// Radius = 40
// Extent = 512 (GMaps and OSM default)
// NodeSize = 16
func NewCluster() *Cluster {
	return New(DefaultOptions())
}

// New creates a Cluster with the given options.
// Out of range values are clamped or replaced by their defaults, it never fails.
func New(opts Options) *Cluster {
	opts = opts.normalize()
	return &Cluster{
		opts:     opts,
		newIndex: indexBuilder(opts.Index),
	}
}

// Options returns the normalized options of the cluster
func (c *Cluster) Options() Options {
	return c.opts
}

// Load takes the points and creates multilevel clustered indexes.
// Points are not copied, and GetCoordinates is called only once for each of them.
//
// Load replaces any hierarchy built before, there is no incremental update.
// It fails with an error wrapping ErrInvalidInput if a point has a non finite
// coordinate or a longitude outside [-180, 180]. Latitudes beyond the poles are clamped.
func (c *Cluster) Load(points []GeoPoint) (err error) {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	if c.opts.Log {
		defer c.opts.Logger.WithField("points", len(points)).Trace("cluster load").Stop(&err)
	}

	h, err := c.build(points)
	if err != nil {
		return err
	}
	c.current.Store(h)
	return nil
}

func (c *Cluster) build(points []GeoPoint) (*hierarchy, error) {
	o := c.opts
	leaves, err := translateGeoPointsToClusterNodes(points, o.neverClaimed())
	if err != nil {
		return nil, err
	}

	//get digits number, start from next exponent
	//if we have 78 points, all cluster ids will start from 100
	//if we have 986 points, all cluster ids will start from 1000
	seed := int(math.Pow(10, float64(digitsCount(len(points)))))
	h := &hierarchy{
		tiers:          make([]*Tier, o.MaxZoom-o.MinZoom+2),
		points:         points,
		leaves:         leaves,
		clusters:       make(map[int]*ClusterNode),
		clusterIdxSeed: seed,
		clusterIDLast:  seed,
	}

	nodes := leaves
	for z := o.MaxZoom; z >= o.MinZoom; z-- {
		start := time.Now()

		//create index from clusters of the previous iteration
		tier := c.setTier(h, z+1, nodes)

		//create clusters for level up using just created index
		nodes = c.clusterize(h, tier.Index, nodes, z)

		if o.Log {
			o.Logger.WithFields(log.Fields{
				"zoom":     z,
				"clusters": len(nodes),
				"duration": time.Since(start).String(),
			}).Info("clusterize")
		}
	}

	//index topmost points
	c.setTier(h, o.MinZoom, nodes)
	return h, nil
}

func (c *Cluster) setTier(h *hierarchy, zoom int, nodes []*ClusterNode) *Tier {
	tier := &Tier{
		Zoom:  zoom,
		Nodes: nodes,
		Index: c.newIndex(nodes, c.opts.NodeSize),
	}
	h.tiers[zoom-c.opts.MinZoom] = tier
	return tier
}

// clusterize runs one greedy merge pass over points at zoom.
// index must be built from points.
func (c *Cluster) clusterize(h *hierarchy, index SpatialIndex, points []*ClusterNode, zoom int) []*ClusterNode {
	var result []*ClusterNode
	r := c.opts.Radius / (float64(c.opts.Extent) * math.Pow(2, float64(zoom)))
	r2 := r * r

	for _, p := range points {
		//skip points absorbed earlier in this pass
		if !p.claimable(zoom) {
			continue
		}
		p.claim(zoom)

		nPoints := p.NumPoints
		wx := p.WX * float64(nPoints)
		wy := p.WY * float64(nPoints)

		var foundNeighbours []*ClusterNode
		for _, b := range index.Range(p.X-r, p.Y-r, p.X+r, p.Y+r) {
			if !b.claimable(zoom) {
				continue
			}
			dx, dy := p.X-b.X, p.Y-b.Y
			if dx*dx+dy*dy > r2 {
				continue
			}
			b.claim(zoom)
			wx += b.WX * float64(b.NumPoints)
			wy += b.WY * float64(b.NumPoints)
			nPoints += b.NumPoints
			foundNeighbours = append(foundNeighbours, b)
		}

		if len(foundNeighbours) == 0 {
			result = append(result, p)
			continue
		}

		children := make([]*ClusterNode, 0, len(foundNeighbours)+1)
		children = append(children, p)
		children = append(children, foundNeighbours...)

		newCluster := &ClusterNode{
			X:         p.X,
			Y:         p.Y,
			WX:        wx / float64(nPoints),
			WY:        wy / float64(nPoints),
			NumPoints: nPoints,
			Id:        h.clusterIDLast,
			Children:  children,
			zoom:      zoom,
			claimed:   c.opts.neverClaimed(),
		}
		h.clusters[newCluster.Id] = newCluster
		h.clusterIDLast++
		result = append(result, newCluster)
	}
	return result
}

func (c *Cluster) limitZoom(zoom int) int {
	if zoom > c.opts.MaxZoom+1 {
		zoom = c.opts.MaxZoom + 1
	}
	if zoom < c.opts.MinZoom {
		zoom = c.opts.MinZoom
	}
	return zoom
}

// Tier returns the tier for zoom, clamped to [MinZoom, MaxZoom+1].
// It returns nil before the first Load. The returned tier must not be modified.
func (c *Cluster) Tier(zoom int) *Tier {
	h := c.current.Load()
	if h == nil {
		return nil
	}
	return h.tiers[c.limitZoom(zoom)-c.opts.MinZoom]
}

// ClusterIdxSeed returns the first id given to aggregate clusters by the last Load.
// Ids below it are indexes of input points.
func (c *Cluster) ClusterIdxSeed() int {
	h := c.current.Load()
	if h == nil {
		return 0
	}
	return h.clusterIdxSeed
}

/////////////////////////////////
// private stuff
/////////////////////////////////

//translate geopoints to leaf nodes with projection coordinates
func translateGeoPointsToClusterNodes(points []GeoPoint, zoom int) ([]*ClusterNode, error) {
	result := make([]*ClusterNode, len(points))
	for i, p := range points {
		if p == nil {
			return nil, fmt.Errorf("point %d is nil: %w", i, ErrInvalidInput)
		}
		coordinates := p.GetCoordinates()
		if !validCoordinates(coordinates) {
			return nil, &InvalidCoordinateError{Index: i, Lon: coordinates.Lon, Lat: coordinates.Lat}
		}
		coordinates.Lat = math.Max(-90, math.Min(90, coordinates.Lat))
		result[i] = newLeaf(p, i, coordinates, zoom)
	}
	return result, nil
}

func validCoordinates(c GeoCoordinates) bool {
	if math.IsNaN(c.Lon) || math.IsInf(c.Lon, 0) || math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) {
		return false
	}
	return c.Lon >= -180 && c.Lon <= 180
}

//count number of digits, for example 123356 will return 6
func digitsCount(a int) int {
	if a < 0 {
		a = -a
	}
	result := 1
	for a >= 10 {
		a /= 10
		result++
	}
	return result
}
