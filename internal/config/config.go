package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the CiviDup server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Dedup    DedupConfig
}

type ServerConfig struct {
	Port              int
	Env               string
	RequestsPerMinute int
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// DedupConfig holds the duplicate-detection engine knobs. The auto-merge
// score was a literal 85 in the original design, distinct from the
// configurable similarity pre-filter; it is exposed here as a named setting
// with the observed default.
type DedupConfig struct {
	DistanceThresholdM  float64
	SimilarityThreshold float64
	AutoMergeScore      float64
	CandidateLimit      int
	SimilarityWeight    float64
	DistanceWeight      float64
	ClusterCacheTTL     time.Duration
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:              envInt("CIVIDUP_PORT", 8080),
			Env:               envString("CIVIDUP_ENV", "development"),
			RequestsPerMinute: envInt("CIVIDUP_REQUESTS_PER_MINUTE", 60),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Dedup: DedupConfig{
			DistanceThresholdM:  envFloat("CIVIDUP_DISTANCE_THRESHOLD_M", 100),
			SimilarityThreshold: envFloat("CIVIDUP_SIMILARITY_THRESHOLD", 80),
			AutoMergeScore:      envFloat("CIVIDUP_AUTO_MERGE_SCORE", 85),
			CandidateLimit:      envInt("CIVIDUP_CANDIDATE_LIMIT", 100),
			SimilarityWeight:    envFloat("CIVIDUP_SIMILARITY_WEIGHT", 0.6),
			DistanceWeight:      envFloat("CIVIDUP_DISTANCE_WEIGHT", 0.4),
			ClusterCacheTTL:     envDuration("CIVIDUP_CLUSTER_CACHE_TTL", 30*time.Second),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	d := c.Dedup
	if d.DistanceThresholdM <= 0 {
		return fmt.Errorf("CIVIDUP_DISTANCE_THRESHOLD_M must be positive, got %v", d.DistanceThresholdM)
	}
	if d.SimilarityThreshold < 0 || d.SimilarityThreshold > 100 {
		return fmt.Errorf("CIVIDUP_SIMILARITY_THRESHOLD must be in [0,100], got %v", d.SimilarityThreshold)
	}
	if d.AutoMergeScore < 0 || d.AutoMergeScore > 100 {
		return fmt.Errorf("CIVIDUP_AUTO_MERGE_SCORE must be in [0,100], got %v", d.AutoMergeScore)
	}
	if d.CandidateLimit <= 0 {
		return fmt.Errorf("CIVIDUP_CANDIDATE_LIMIT must be positive, got %d", d.CandidateLimit)
	}
	if d.SimilarityWeight < 0 || d.DistanceWeight < 0 {
		return fmt.Errorf("scoring weights must be non-negative, got %v/%v", d.SimilarityWeight, d.DistanceWeight)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
