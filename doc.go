// MIT License
//
// Copyright (c) 2016 MadAppGang

// Package cluster is a very fast library for hierarchical geospatial point clustering.
//
// The cluster use hierarchical greedy clustering approach.
// For every zoom level, from the finest to the coarsest, the points of the level below are
// indexed and every point absorbs its still free neighbours within Radius pixels.
// Clusters are anchored at the point that started them and displayed at the
// weighted center of all points they contain.
//
// The result depends on the order of input points: an earlier point always claims
// its neighbours first. This is what makes the approach fast, the only drawback is
// that all clustered points are stored in memory.
//
// This library is deeply inspired by MapBox's supercluster JS library and blog post: https://www.mapbox.com/blog/supercluster/
//
// Very easy to use:
//
//	//1.Create new cluster
//	c := cluster.NewCluster()
//
//	//2.Convert slice of your objects to slice of GeoPoint (interface) objects
//	geoPoints := make([]cluster.GeoPoint, len(points))
//	for i := range points {
//		geoPoints[i] = points[i]
//	}
//
//	//3.Build index
//	if err := c.Load(geoPoints); err != nil {
//		return err
//	}
//
//	//4.Get clusters of the viewport [west, south, east, north] at zoom 10
//	result := c.GetClusters(cluster.BBox{-10, 40, 10, 50}, 10)
//
// Points are indexed with a static KD-tree (https://github.com/MadAppGang/kdbush),
// an R-tree (https://github.com/dhconnelly/rtreego) can be selected with Options.Index.
//
// Input points are returned by their index in the input slice, clusters get
// autoincrement ids starting at ClusterIdxSeed, the next power of ten above the number of points.
// For example, if input slice of points length is 78, ClusterIdxSeed == 100,
// if input slice of points length is 991, ClusterIdxSeed == 1000.
package cluster
