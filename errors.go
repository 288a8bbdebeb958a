package cluster

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is wrapped by every error Load returns for bad input points
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotLoaded is returned by lookups made before the first Load
	ErrNotLoaded = errors.New("cluster is not loaded")
	// ErrClusterNotFound is returned for ids that are not aggregate clusters
	ErrClusterNotFound = errors.New("cluster not found")
)

// InvalidCoordinateError reports an input point that can not be projected.
type InvalidCoordinateError struct {
	Index int
	Lon   float64
	Lat   float64
}

func (e *InvalidCoordinateError) Error() string {
	return fmt.Sprintf("point %d: invalid coordinate [%v, %v]", e.Index, e.Lon, e.Lat)
}

func (e *InvalidCoordinateError) Unwrap() error {
	return ErrInvalidInput
}
