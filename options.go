package cluster

import (
	"fmt"

	"github.com/apex/log"
	"github.com/mitchellh/mapstructure"
)

// MaxZoomLimit is the largest zoom level a hierarchy can be built for.
const MaxZoomLimit = 21

// Names of the spatial index implementations accepted by Options.Index.
const (
	IndexKDBush = "kdbush"
	IndexRTree  = "rtree"
)

// Options configures a Cluster.
//
// MinZoom - minimum zoom level to generate clusters (default 0)
// MaxZoom - maximum zoom level to generate clusters (default 16)
// Radius - cluster radius in pixels (default 40)
// Extent - tile extent in pixels, the radius is relative to it (default 512)
// NodeSize - leaf size of the spatial index (default 16). Higher means faster indexing but slower search.
// Log - log timing of every zoom pass
// Index - spatial index implementation, IndexKDBush (default) or IndexRTree
type Options struct {
	MinZoom  int     `mapstructure:"minZoom" json:"minZoom"`
	MaxZoom  int     `mapstructure:"maxZoom" json:"maxZoom"`
	Radius   float64 `mapstructure:"radius" json:"radius"`
	Extent   int     `mapstructure:"extent" json:"extent"`
	NodeSize int     `mapstructure:"nodeSize" json:"nodeSize"`
	Log      bool    `mapstructure:"log" json:"log"`
	Index    string  `mapstructure:"index" json:"index"`

	// Logger receives timing entries when Log is set. Defaults to log.Log.
	Logger log.Interface `mapstructure:"-" json:"-"`
}

// DefaultOptions returns options with every field at its documented default.
func DefaultOptions() Options {
	return Options{
		MinZoom:  0,
		MaxZoom:  16,
		Radius:   40,
		Extent:   512,
		NodeSize: 16,
		Index:    IndexKDBush,
	}
}

// OptionsFromMap builds options from a loosely typed map, e.g. decoded JSON or
// a config file section. Keys that are not recognized are ignored and missing
// keys keep their defaults.
func OptionsFromMap(m map[string]interface{}) (Options, error) {
	opts := DefaultOptions()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &opts,
	})
	if err != nil {
		return opts, err
	}
	if err := dec.Decode(m); err != nil {
		return DefaultOptions(), fmt.Errorf("decode cluster options: %w", err)
	}
	return opts.normalize(), nil
}

// normalize clamps the zoom range and replaces unusable values with defaults.
func (o Options) normalize() Options {
	def := DefaultOptions()
	if o.MaxZoom > MaxZoomLimit {
		o.MaxZoom = MaxZoomLimit
	}
	if o.MaxZoom < 0 {
		o.MaxZoom = 0
	}
	if o.MinZoom < 0 {
		o.MinZoom = 0
	}
	if o.MinZoom > o.MaxZoom {
		o.MinZoom = o.MaxZoom
	}
	if o.Radius <= 0 {
		o.Radius = def.Radius
	}
	if o.Extent <= 0 {
		o.Extent = def.Extent
	}
	if o.NodeSize <= 0 {
		o.NodeSize = def.NodeSize
	}
	if o.Index != IndexRTree {
		o.Index = IndexKDBush
	}
	if o.Logger == nil {
		o.Logger = log.Log
	}
	return o
}

// neverClaimed is the claim marker of a node no merge pass has visited yet.
// Any value above MaxZoom works since passes only run for zoom <= MaxZoom.
func (o Options) neverClaimed() int {
	return o.MaxZoom + 1
}
