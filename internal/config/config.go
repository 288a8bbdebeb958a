package config

import (
	"fmt"
	"os"
	"strconv"

	cluster "github.com/huangxianhong/supercluster"
)

// Config holds all configuration for the cluster service
type Config struct {
	// Server configuration
	Port string

	// Points source: a GeoJSON file, a database query, or the newest snapshot
	InputFile   string
	SnapshotDir string
	UseDB       bool
	PointsQuery string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Clustering configuration
	Cluster cluster.Options
}

// Load loads configuration from environment variables
func Load() *Config {
	opts := cluster.DefaultOptions()
	opts.MinZoom = getIntEnv("MIN_ZOOM", opts.MinZoom)
	opts.MaxZoom = getIntEnv("MAX_ZOOM", opts.MaxZoom)
	opts.Radius = getFloatEnv("RADIUS", opts.Radius)
	opts.Extent = getIntEnv("EXTENT", opts.Extent)
	opts.NodeSize = getIntEnv("NODE_SIZE", opts.NodeSize)
	opts.Index = getEnv("INDEX", opts.Index)
	opts.Log = getBoolEnv("LOG_TIMING", opts.Log)

	config := &Config{
		// Server defaults
		Port: getEnv("PORT", "8080"),

		// Source defaults
		InputFile:   getEnv("INPUT_FILE", ""),
		SnapshotDir: getEnv("SNAPSHOT_DIR", ""),
		UseDB:       getBoolEnv("USE_DB", false),
		PointsQuery: getEnv("POINTS_QUERY", ""),

		// Database defaults
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: getEnv("DB_PASSWORD", "secret"),
		DBName:     getEnv("DB_NAME", "cleanapp"),

		Cluster: opts,
	}

	return config
}

// MySQLAddress returns the DSN of the configured database
func (c *Config) MySQLAddress() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
