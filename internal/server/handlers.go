package server

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"

	cluster "github.com/huangxianhong/supercluster"
	"github.com/huangxianhong/supercluster/internal/metrics"
	"github.com/huangxianhong/supercluster/internal/source"
	"github.com/huangxianhong/supercluster/internal/store"
)

const (
	defaultLeavesLimit = 10
	// DefaultMaxLoadBytes bounds the body of a load request
	DefaultMaxLoadBytes = 256 << 20
)

type ClusterHandler struct {
	cluster      atomic.Pointer[cluster.Cluster]
	snapshotDir  string
	maxLoadBytes int64
}

// NewClusterHandler serves queries from c. When snapshotDir is set, every
// successful load is also saved there and snapshots can be restored.
func NewClusterHandler(c *cluster.Cluster, snapshotDir string) *ClusterHandler {
	h := &ClusterHandler{snapshotDir: snapshotDir, maxLoadBytes: DefaultMaxLoadBytes}
	h.cluster.Store(c)
	return h
}

// HealthCheck returns a simple health status
func (h *ClusterHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "cluster-service",
	})
}

func (h *ClusterHandler) GetClusters(c *gin.Context) {
	bbox, err := bboxFromQuery(c)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	zoom, err := strconv.ParseFloat(c.Query("zoom"), 64)
	if err != nil || math.IsNaN(zoom) || math.IsInf(zoom, 0) {
		c.String(http.StatusBadRequest, "Invalid zoom parameter")
		return
	}

	cl := h.cluster.Load()
	// clamp before the int conversion, huge values would overflow it
	zoom = math.Max(-1, math.Min(zoom, float64(cl.Options().MaxZoom+1)))
	features := cl.GetClusters(bbox, int(math.Floor(zoom)))
	metrics.ObserveQuery("clusters", len(features))
	c.JSON(http.StatusOK, cluster.FeaturesToGeoJSON(features))
}

func (h *ClusterHandler) GetTile(c *gin.Context) {
	z, errZ := strconv.Atoi(c.Param("z"))
	x, errX := strconv.Atoi(c.Param("x"))
	y, errY := strconv.Atoi(c.Param("y"))
	if errZ != nil || errX != nil || errY != nil || z < 0 || x < 0 || y < 0 {
		c.String(http.StatusBadRequest, "Invalid tile coordinates")
		return
	}
	if z > 30 || x >= 1<<uint(z) || y >= 1<<uint(z) {
		c.String(http.StatusBadRequest, fmt.Sprintf("Tile %d/%d/%d is out of range", z, x, y))
		return
	}

	features := h.cluster.Load().GetTile(x, y, z)
	metrics.ObserveQuery("tile", len(features))
	c.JSON(http.StatusOK, gin.H{
		"extent":   h.cluster.Load().Options().Extent,
		"features": features,
	})
}

func (h *ClusterHandler) GetChildren(c *gin.Context) {
	id, ok := clusterIDParam(c)
	if !ok {
		return
	}
	features, err := h.cluster.Load().Children(id)
	if err != nil {
		respondLookupError(c, id, err)
		return
	}
	metrics.ObserveQuery("children", len(features))
	c.JSON(http.StatusOK, cluster.FeaturesToGeoJSON(features))
}

func (h *ClusterHandler) GetLeaves(c *gin.Context) {
	id, ok := clusterIDParam(c)
	if !ok {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLeavesLimit)))
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid limit parameter")
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.String(http.StatusBadRequest, "Invalid offset parameter")
		return
	}
	features, err := h.cluster.Load().Leaves(id, limit, offset)
	if err != nil {
		respondLookupError(c, id, err)
		return
	}
	metrics.ObserveQuery("leaves", len(features))
	c.JSON(http.StatusOK, cluster.FeaturesToGeoJSON(features))
}

func (h *ClusterHandler) GetExpansionZoom(c *gin.Context) {
	id, ok := clusterIDParam(c)
	if !ok {
		return
	}
	zoom, err := h.cluster.Load().ExpansionZoom(id)
	if err != nil {
		respondLookupError(c, id, err)
		return
	}
	metrics.ObserveQuery("expansion_zoom", 1)
	c.JSON(http.StatusOK, gin.H{"cluster_id": id, "expansion_zoom": zoom})
}

// Load rebuilds the hierarchy from a GeoJSON FeatureCollection of points
func (h *ClusterHandler) Load(c *gin.Context) {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxLoadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.String(http.StatusRequestEntityTooLarge, fmt.Sprintf("Body is larger than %d bytes", tooLarge.Limit))
			return
		}
		log.Errorf("Failed to read the body of /load call: %v", err)
		c.String(http.StatusBadRequest, "Reading body failed")
		return
	}
	points, err := source.FromGeoJSON(raw)
	if err != nil {
		metrics.LoadErrorTotal.Inc()
		c.String(http.StatusBadRequest, fmt.Sprintf("Parsing points: %v", err))
		return
	}

	cl := h.cluster.Load()
	if err := LoadCluster(cl, points); err != nil {
		if errors.Is(err, cluster.ErrInvalidInput) {
			c.String(http.StatusBadRequest, fmt.Sprintf("Loading points: %v", err))
			return
		}
		c.String(http.StatusInternalServerError, fmt.Sprintf("Loading points: %v", err))
		return
	}

	response := gin.H{"numPoints": len(points)}
	if h.snapshotDir != "" {
		snapshot, err := store.Save(h.snapshotDir, cl.Options(), points)
		if err != nil {
			metrics.LoadErrorTotal.Inc()
			log.Errorf("Failed to save snapshot: %v", err)
			c.String(http.StatusInternalServerError, fmt.Sprintf("Saving snapshot: %v", err))
			return
		}
		response["snapshot"] = snapshot
	}
	c.JSON(http.StatusOK, response)
}

func (h *ClusterHandler) ListSnapshots(c *gin.Context) {
	snapshots, err := store.List(h.snapshotDir)
	if err != nil {
		log.Errorf("Error listing snapshots: %v", err)
		c.String(http.StatusInternalServerError, fmt.Sprint(err))
		return
	}
	if snapshots == nil {
		snapshots = []store.Snapshot{}
	}
	c.JSON(http.StatusOK, snapshots)
}

// RestoreSnapshot replaces the served cluster with one built from a saved snapshot
func (h *ClusterHandler) RestoreSnapshot(c *gin.Context) {
	if h.snapshotDir == "" {
		c.String(http.StatusNotFound, "Snapshots are disabled")
		return
	}
	snapshot, err := store.Find(h.snapshotDir, c.Param("id"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.String(http.StatusNotFound, fmt.Sprint(err))
			return
		}
		c.String(http.StatusInternalServerError, fmt.Sprint(err))
		return
	}
	cl, err := RestoreCluster(snapshot.Path)
	if err != nil {
		log.Errorf("Error restoring snapshot %s: %v", snapshot.ID, err)
		c.String(http.StatusInternalServerError, fmt.Sprint(err))
		return
	}
	h.cluster.Store(cl)
	c.JSON(http.StatusOK, snapshot)
}

// LoadCluster loads points into cl and records load metrics
func LoadCluster(cl *cluster.Cluster, points []cluster.GeoPoint) error {
	start := time.Now()
	if err := cl.Load(points); err != nil {
		metrics.LoadErrorTotal.Inc()
		return err
	}
	metrics.LoadDurationSeconds.Observe(time.Since(start).Seconds())
	metrics.LoadedPoints.Set(float64(len(points)))
	log.Infof("Loaded %d points in %v", len(points), time.Since(start))
	return nil
}

// RestoreCluster builds a new cluster from a snapshot file
func RestoreCluster(path string) (*cluster.Cluster, error) {
	opts, points, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	cl := cluster.New(opts)
	if err := LoadCluster(cl, points); err != nil {
		return nil, err
	}
	return cl, nil
}

func bboxFromQuery(c *gin.Context) (cluster.BBox, error) {
	var edges [4]float64
	for i, name := range []string{"west", "south", "east", "north"} {
		value, err := strconv.ParseFloat(c.Query(name), 64)
		if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
			return cluster.BBox{}, fmt.Errorf("Invalid %s parameter", name)
		}
		edges[i] = value
	}
	// west may exceed east for boxes crossing the antimeridian, so the bound is not normalized
	bound := orb.Bound{
		Min: orb.Point{edges[0], edges[1]},
		Max: orb.Point{edges[2], edges[3]},
	}
	return cluster.BBoxFromBound(bound), nil
}

func clusterIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid cluster id")
		return 0, false
	}
	return id, true
}

func respondLookupError(c *gin.Context, id int, err error) {
	switch {
	case errors.Is(err, cluster.ErrClusterNotFound):
		c.String(http.StatusNotFound, fmt.Sprintf("Cluster %d not found", id))
	case errors.Is(err, cluster.ErrNotLoaded):
		c.String(http.StatusServiceUnavailable, "No points loaded")
	default:
		log.Errorf("Error looking up cluster %d: %v", id, err)
		c.String(http.StatusInternalServerError, fmt.Sprint(err))
	}
}
