package main

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/apex/log"
	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"

	cluster "github.com/huangxianhong/supercluster"
	"github.com/huangxianhong/supercluster/internal/config"
	"github.com/huangxianhong/supercluster/internal/metrics"
	"github.com/huangxianhong/supercluster/internal/server"
	"github.com/huangxianhong/supercluster/internal/source"
	"github.com/huangxianhong/supercluster/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using environment")
	}

	// Load configuration
	cfg := config.Load()

	log.Info("Starting the cluster service...")
	metrics.Register()

	cl, err := initialCluster(cfg)
	if err != nil {
		log.Fatalf("Failed to load initial points: %v", err)
	}

	handler := server.NewClusterHandler(cl, cfg.SnapshotDir)
	router := server.NewRouter(handler)

	// Get server port from config
	serverPort, err := strconv.Atoi(cfg.Port)
	if err != nil {
		log.Fatalf("Invalid PORT configuration: %v", err)
	}

	// Start server
	log.Infof("Cluster service starting on port %d", serverPort)
	if err := router.Run(fmt.Sprintf(":%d", serverPort)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// initialCluster builds the cluster from the configured source: the input
// file, the database, or the newest snapshot. With no source it starts empty.
func initialCluster(cfg *config.Config) (*cluster.Cluster, error) {
	var (
		points []cluster.GeoPoint
		err    error
	)
	switch {
	case cfg.InputFile != "":
		log.Infof("Reading points from %s", cfg.InputFile)
		points, err = source.FromGeoJSONFile(cfg.InputFile)
	case cfg.UseDB:
		points, err = pointsFromDB(cfg)
	case cfg.SnapshotDir != "":
		snapshots, err := store.List(cfg.SnapshotDir)
		if err != nil {
			return nil, err
		}
		if len(snapshots) > 0 {
			log.Infof("Restoring snapshot %s with %d points", snapshots[0].ID, snapshots[0].NumPoints)
			return server.RestoreCluster(snapshots[0].Path)
		}
	}
	if err != nil {
		return nil, err
	}

	cl := cluster.New(cfg.Cluster)
	if err := server.LoadCluster(cl, points); err != nil {
		return nil, err
	}
	return cl, nil
}

func pointsFromDB(cfg *config.Config) ([]cluster.GeoPoint, error) {
	db, err := sql.Open("mysql", cfg.MySQLAddress())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	db.SetConnMaxLifetime(time.Minute * 3)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	log.Infof("Reading points from database %s", cfg.DBName)
	return source.FromDB(ctx, db, cfg.PointsQuery)
}
