package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/apex/log"

	cluster "github.com/huangxianhong/supercluster"
	"github.com/huangxianhong/supercluster/internal/source"
)

func main() {
	points, err := source.FromGeoJSONFile("./testdata/places.json")
	if err != nil {
		log.Fatalf("Failed to read points: %v", err)
	}

	opts := cluster.DefaultOptions()
	opts.Radius = 60
	opts.MaxZoom = 3
	opts.Extent = 256
	opts.Log = true
	c := cluster.New(opts)
	if err := c.Load(points); err != nil {
		log.Fatalf("Failed to cluster points: %v", err)
	}

	result := c.GetClusters(cluster.BBox{-71.01562500000001, -83.79204408779539, 71.36718750000001, 83.7539108491127}, 2)
	fmt.Printf("Getting %d features\n", len(result))

	resultJSON, _ := json.MarshalIndent(cluster.FeaturesToGeoJSON(result), "", "  ")
	os.Stdout.Write(resultJSON)
	fmt.Println()
}
