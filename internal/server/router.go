package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	EndPointHealth        = "/health"
	EndPointMetrics       = "/metrics"
	EndPointClusters      = "/clusters"
	EndPointTile          = "/tiles/:z/:x/:y"
	EndPointChildren      = "/clusters/:id/children"
	EndPointLeaves        = "/clusters/:id/leaves"
	EndPointExpansionZoom = "/clusters/:id/expansion_zoom"
	EndPointLoad          = "/load"
	EndPointSnapshots     = "/snapshots"
	EndPointRestore       = "/snapshots/:id/restore"
)

// NewRouter sets up the routes of the cluster service
func NewRouter(h *ClusterHandler) *gin.Engine {
	router := gin.Default()
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET(EndPointHealth, h.HealthCheck)
	router.GET(EndPointMetrics, gin.WrapH(promhttp.Handler()))

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET(EndPointClusters, h.GetClusters)
		apiV1.GET(EndPointTile, h.GetTile)
		apiV1.GET(EndPointChildren, h.GetChildren)
		apiV1.GET(EndPointLeaves, h.GetLeaves)
		apiV1.GET(EndPointExpansionZoom, h.GetExpansionZoom)
		apiV1.POST(EndPointLoad, h.Load)
		apiV1.GET(EndPointSnapshots, h.ListSnapshots)
		apiV1.POST(EndPointRestore, h.RestoreSnapshot)
	}

	return router
}
