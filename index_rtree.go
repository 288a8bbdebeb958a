package cluster

import (
	"github.com/dhconnelly/rtreego"
)

// rtreeTolerance pads point rectangles and query boxes so that points lying
// exactly on a box edge are still reported by the tree; the exact inclusive
// test is done afterwards.
const rtreeTolerance = 1e-12

// rtreeEntry adapts a node to rtreego.Spatial
type rtreeEntry struct {
	node *ClusterNode
}

func (e rtreeEntry) Bounds() rtreego.Rect {
	return rtreego.Point{e.node.X, e.node.Y}.ToRect(rtreeTolerance)
}

// rtreeIndex is an R-tree bulk loaded with the nodes of a tier
type rtreeIndex struct {
	tree *rtreego.Rtree
	size int
}

func newRTreeIndex(nodes []*ClusterNode, nodeSize int) SpatialIndex {
	if len(nodes) == 0 {
		return emptyIndex{}
	}
	maxChildren := nodeSize
	if maxChildren < 4 {
		maxChildren = 4
	}
	entries := make([]rtreego.Spatial, len(nodes))
	for i, n := range nodes {
		entries[i] = rtreeEntry{node: n}
	}
	// 2D tree, bulk loaded when there are more entries than maxChildren
	return &rtreeIndex{
		tree: rtreego.NewTree(2, maxChildren/2, maxChildren, entries...),
		size: len(nodes),
	}
}

func (i *rtreeIndex) Range(minX, minY, maxX, maxY float64) []*ClusterNode {
	if minX > maxX || minY > maxY {
		return nil
	}
	rect, err := rtreego.NewRect(
		rtreego.Point{minX - rtreeTolerance, minY - rtreeTolerance},
		[]float64{maxX - minX + 2*rtreeTolerance, maxY - minY + 2*rtreeTolerance},
	)
	if err != nil {
		return nil
	}
	var result []*ClusterNode
	for _, s := range i.tree.SearchIntersect(rect) {
		n := s.(rtreeEntry).node
		if n.X >= minX && n.X <= maxX && n.Y >= minY && n.Y <= maxY {
			result = append(result, n)
		}
	}
	return result
}

func (i *rtreeIndex) Len() int {
	return i.size
}
