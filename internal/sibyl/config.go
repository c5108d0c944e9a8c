// Package sibyl holds the top-level service configuration.
package sibyl

import (
	"sibyl/internal/cache"
	"sibyl/internal/classify"
	"sibyl/internal/database"
	"sibyl/internal/evaluate"
	"sibyl/internal/ingest"
	"sibyl/internal/registry"
	"sibyl/internal/setup"
)

var (
	_ setup.DatabaseConfigProvider = (*Config)(nil)
	_ setup.CacheConfigProvider    = (*Config)(nil)
	_ setup.RegistryConfigProvider = (*Config)(nil)
	_ setup.ManifestConfigProvider = (*Config)(nil)
)

type Config struct {
	SrvAddr            string `envconfig:"SIBYL_ADDR" default:":8787"`
	ManifestPath       string `envconfig:"SIBYL_MANIFEST" default:""`
	PreloadConcurrency int    `envconfig:"SIBYL_PRELOAD_CONCURRENCY" default:"4"`
	Database           database.Config
	Cache              cache.Config
	Registry           registry.Config
	Classify           classify.Config
	Evaluate           evaluate.Config
	Ingest             ingest.Config
}

func (c Config) DatabaseConfig() *database.Config {
	return &c.Database
}

func (c Config) CacheConfig() *cache.Config {
	return &c.Cache
}

func (c Config) RegistryConfig() *registry.Config {
	return &c.Registry
}

func (c Config) ManifestFile() string {
	return c.ManifestPath
}

func (c Config) PreloadWorkers() int {
	return c.PreloadConcurrency
}
