package config

import (
	"fmt"

	"github.com/jackzampolin/kbase/internal/types"
)

// Config holds kbase configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Server   ServerCfg   `mapstructure:"server" yaml:"server"`
	Storage  StorageCfg  `mapstructure:"storage" yaml:"storage"`
	Worker   WorkerCfg   `mapstructure:"worker" yaml:"worker"`
	Defaults DefaultsCfg `mapstructure:"defaults" yaml:"defaults"`
}

// ServerCfg configures the HTTP server.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
	// RateLimit is requests per second across all clients; 0 disables it.
	RateLimit   float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	Burst       int     `mapstructure:"burst" yaml:"burst"`
	MaxUploadMB int     `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
}

// StorageCfg configures the embedded database.
type StorageCfg struct {
	// Path of the database directory (supports ${ENV_VAR} syntax). Empty
	// means {home}/data.
	Path     string `mapstructure:"path" yaml:"path"`
	InMemory bool   `mapstructure:"in_memory" yaml:"in_memory"`
}

// WorkerCfg configures the parse worker pool.
type WorkerCfg struct {
	PoolSize     int  `mapstructure:"pool_size" yaml:"pool_size"`         // concurrent runs, 0 = NumCPU/2
	QueueSize    int  `mapstructure:"queue_size" yaml:"queue_size"`       // runs waiting for a worker
	WriteRetries uint `mapstructure:"write_retries" yaml:"write_retries"` // attempts per chunk write
}

// DefaultsCfg holds the chunking values used when a knowledge base leaves
// them unset.
type DefaultsCfg struct {
	ChunkSize int `mapstructure:"chunk_size" yaml:"chunk_size"`
	Overlap   int `mapstructure:"overlap" yaml:"overlap"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host:        "127.0.0.1",
			Port:        "8080",
			RateLimit:   50,
			Burst:       100,
			MaxUploadMB: 100,
		},
		Worker: WorkerCfg{
			PoolSize:     0,
			QueueSize:    100,
			WriteRetries: 3,
		},
		Defaults: DefaultsCfg{
			ChunkSize: types.DefaultChunkSize,
			Overlap:   types.DefaultOverlap,
		},
	}
}

// Validate checks the config for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.RateLimit < 0 || c.Server.Burst < 0 {
		return fmt.Errorf("server.rate_limit and server.burst must not be negative")
	}
	if c.Server.RateLimit > 0 && c.Server.Burst == 0 {
		return fmt.Errorf("server.burst must be positive when rate limiting")
	}
	if c.Worker.PoolSize < 0 || c.Worker.QueueSize < 0 {
		return fmt.Errorf("worker.pool_size and worker.queue_size must not be negative")
	}
	if c.Defaults.ChunkSize <= 0 {
		return fmt.Errorf("defaults.chunk_size must be positive")
	}
	if c.Defaults.Overlap < 0 || c.Defaults.Overlap >= c.Defaults.ChunkSize {
		return fmt.Errorf("defaults.overlap must be in [0, chunk_size)")
	}
	return nil
}

// StoragePath resolves the database directory, expanding env references.
func (c *Config) StoragePath(fallback string) string {
	if p := ResolveEnvVars(c.Storage.Path); p != "" {
		return p
	}
	return fallback
}

// Chunking returns the default chunking config.
func (c *Config) Chunking() types.ChunkingConfig {
	return types.ChunkingConfig{ChunkSize: c.Defaults.ChunkSize, Overlap: c.Defaults.Overlap}
}

// MaxUploadBytes returns the upload cap in bytes.
func (c *Config) MaxUploadBytes() int64 {
	if c.Server.MaxUploadMB <= 0 {
		return 0
	}
	return int64(c.Server.MaxUploadMB) << 20
}
