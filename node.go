package cluster

// GeoCoordinates represent position in the Earth
type GeoCoordinates struct {
	Lon float64
	Lat float64
}

// all object, that you want to cluster should implement this protocol
type GeoPoint interface {
	GetCoordinates() GeoCoordinates
}

// ClusterNode is one entry of a zoom tier.
// It is either a leaf wrapping one input point or an aggregate of nodes from the tier below.
//
// X,Y is the anchor used for indexing and distance checks. For an aggregate it is
// the anchor of the node that started the merge, so the index geometry stays stable
// between passes. WX,WY is the weighted center, used only for display.
type ClusterNode struct {
	X, Y      float64
	WX, WY    float64
	NumPoints int
	Id        int //Index of input point for leaves, cluster id for aggregates

	// Children are the absorbed nodes, the initiating node first. Empty for leaves.
	Children []*ClusterNode
	// Source is the input point, set for leaves only.
	Source GeoPoint
	// coordinates of Source as it was loaded
	coordinates GeoCoordinates

	// zoom the node was created at, MaxZoom+1 for leaves
	zoom int
	// zoom of the last merge pass that visited the node
	claimed int
}

// Coordinates implements kdbush.Point
func (n *ClusterNode) Coordinates() (float64, float64) {
	return n.X, n.Y
}

// IsCluster reports whether the node aggregates other nodes
func (n *ClusterNode) IsCluster() bool {
	return len(n.Children) > 0
}

// Zoom returns the zoom level the node was created at
func (n *ClusterNode) Zoom() int {
	return n.zoom
}

func newLeaf(p GeoPoint, id int, coordinates GeoCoordinates, zoom int) *ClusterNode {
	x, y := MercatorProjection(coordinates)
	return &ClusterNode{
		X:           x,
		Y:           y,
		WX:          x,
		WY:          y,
		NumPoints:   1,
		Id:          id,
		Source:      p,
		coordinates: coordinates,
		zoom:        zoom,
		claimed:     zoom,
	}
}

// claimable reports whether a pass at zoom may still visit or absorb the node
func (n *ClusterNode) claimable(zoom int) bool {
	return n.claimed > zoom
}

func (n *ClusterNode) claim(zoom int) {
	n.claimed = zoom
}

// leaves appends the input nodes under n in depth-first child order
func (n *ClusterNode) leaves(dst []*ClusterNode) []*ClusterNode {
	if !n.IsCluster() {
		return append(dst, n)
	}
	for _, c := range n.Children {
		dst = c.leaves(dst)
	}
	return dst
}
