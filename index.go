package cluster

import (
	"github.com/MadAppGang/kdbush"
)

// SpatialIndex is a static point index over the nodes of one zoom tier.
// It is built once from a node set and only read afterwards.
type SpatialIndex interface {
	// Range returns every node with minX <= X <= maxX and minY <= Y <= maxY.
	Range(minX, minY, maxX, maxY float64) []*ClusterNode
	Len() int
}

// IndexBuilder bulk loads a SpatialIndex from nodes.
// nodeSize is a fanout hint, implementations may ignore it.
type IndexBuilder func(nodes []*ClusterNode, nodeSize int) SpatialIndex

func indexBuilder(name string) IndexBuilder {
	if name == IndexRTree {
		return newRTreeIndex
	}
	return newKDBushIndex
}

// kdbushIndex is the default index, a static KD-tree sorted once on build
type kdbushIndex struct {
	bush *kdbush.KDBush
}

func newKDBushIndex(nodes []*ClusterNode, nodeSize int) SpatialIndex {
	if len(nodes) == 0 {
		return emptyIndex{}
	}
	return &kdbushIndex{bush: kdbush.NewBush(nodesToPoints(nodes), nodeSize)}
}

func (i *kdbushIndex) Range(minX, minY, maxX, maxY float64) []*ClusterNode {
	ids := i.bush.Range(minX, minY, maxX, maxY)
	result := make([]*ClusterNode, len(ids))
	for j, id := range ids {
		result[j] = i.bush.Points[id].(*ClusterNode)
	}
	return result
}

func (i *kdbushIndex) Len() int {
	return len(i.bush.Points)
}

type emptyIndex struct{}

func (emptyIndex) Range(minX, minY, maxX, maxY float64) []*ClusterNode { return nil }
func (emptyIndex) Len() int                                             { return 0 }

func nodesToPoints(nodes []*ClusterNode) []kdbush.Point {
	result := make([]kdbush.Point, len(nodes))
	for i, v := range nodes {
		result[i] = v
	}
	return result
}
