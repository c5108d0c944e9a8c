// Package setup resolves configuration into a wired service environment.
package setup

import (
	"context"
	"fmt"
	"sync"

	"github.com/kelseyhightower/envconfig"

	"sibyl/internal/cache"
	"sibyl/internal/database"
	datasetdb "sibyl/internal/dataset/database"
	"sibyl/internal/dataset/model"
	"sibyl/internal/frame"
	"sibyl/internal/logging"
	"sibyl/internal/manifest"
	"sibyl/internal/measure"
	"sibyl/internal/registry"
	"sibyl/internal/srvenv"
	"sibyl/pkg/rworker"
)

type DatabaseConfigProvider interface {
	DatabaseConfig() *database.Config
}

type CacheConfigProvider interface {
	CacheConfig() *cache.Config
}

type RegistryConfigProvider interface {
	RegistryConfig() *registry.Config
}

type ManifestConfigProvider interface {
	ManifestFile() string
	PreloadWorkers() int
}

func Setup(ctx context.Context, config interface{}) (*srvenv.SrvEnv, error) {
	logger := logging.FromContext(ctx)
	var serverEnvOpts []srvenv.Option
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	var (
		db                *database.DB
		labelCache        *cache.Cache
		registryProvideFn registry.ProvideFn
	)
	if dbConfigProvider, ok := config.(DatabaseConfigProvider); ok {
		logger.Info("Configuring db")
		dbFromEnv, err := database.NewFromEnv(ctx, dbConfigProvider.DatabaseConfig())
		if err != nil {
			return nil, fmt.Errorf("unable to connect to database: %v", err)
		}
		db = dbFromEnv
		serverEnvOpts = append(serverEnvOpts, srvenv.WithDatabase(db))
	}

	if cacheConfigProvider, ok := config.(CacheConfigProvider); ok {
		logger.Info("Configuring label cache")
		cacheFromEnv, err := cache.NewFromEnv(ctx, cacheConfigProvider.CacheConfig())
		if err != nil {
			return nil, fmt.Errorf("unable to connect to label cache: %v", err)
		}
		labelCache = cacheFromEnv
		serverEnvOpts = append(serverEnvOpts, srvenv.WithCache(labelCache))
	}

	if registryConfigProvider, ok := config.(RegistryConfigProvider); ok {
		logger.Info("Configuring registry")
		if db == nil {
			return nil, fmt.Errorf("registry requires a database")
		}
		provideFn, err := ProvideRegistryFor(registryConfigProvider.RegistryConfig(), db, labelCache)
		if err != nil {
			return nil, fmt.Errorf("unable create registry provide function: %v", err)
		}
		registryProvideFn = provideFn
		serverEnvOpts = append(serverEnvOpts, srvenv.WithRegistry(registryProvideFn))
	}

	if manifestConfigProvider, ok := config.(ManifestConfigProvider); ok && manifestConfigProvider.ManifestFile() != "" {
		if registryProvideFn == nil {
			return nil, fmt.Errorf("manifest preload requires a registry")
		}
		manager, err := registryProvideFn()
		if err != nil {
			return nil, fmt.Errorf("registry provider function error: %w", err)
		}
		if err := preload(ctx, manager, manifestConfigProvider); err != nil {
			return nil, fmt.Errorf("manifest preload: %w", err)
		}
	}

	return srvenv.New(serverEnvOpts...), nil
}

func ProvideRegistryFor(cfg *registry.Config, db *database.DB, labelCache *cache.Cache) (registry.ProvideFn, error) {
	if _, err := measure.For(measure.Type(cfg.Distance)); err != nil {
		return nil, err
	}
	return func() (registry.Manager, error) {
		return registry.New(
			datasetdb.New(db),
			registry.WithK(cfg.K),
			registry.WithDistance(measure.Type(cfg.Distance)),
			registry.WithSplitRatio(cfg.SplitRatio),
			registry.WithCache(labelCache),
		)
	}, nil
}

// preload reads every manifest entry's CSV and stores it, a few files at a
// time. Entries already stored are replaced.
func preload(ctx context.Context, manager registry.Manager, provider ManifestConfigProvider) error {
	logger := logging.FromContext(ctx)
	m, err := manifest.Load(provider.ManifestFile())
	if err != nil {
		return err
	}

	workers := provider.PreloadWorkers()
	if workers < 1 {
		workers = 1
	}

	var (
		wg    sync.WaitGroup
		rate  = make(chan struct{}, workers)
		errCh = make(chan error, 1)
	)
	for _, entry := range m.Datasets {
		entry := entry
		rworker.Job(ctx, &wg, func() error {
			f, err := frame.ReadCSV(entry.Path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", entry.Path, err)
			}
			if err := f.SetLabel(entry.Label); err != nil {
				return fmt.Errorf("dataset %q: %w", entry.Name, err)
			}
			dataset, err := model.FromFrame(entry.Name, f)
			if err != nil {
				return fmt.Errorf("dataset %q: %w", entry.Name, err)
			}
			if err := manager.Store(ctx, dataset); err != nil {
				return fmt.Errorf("storing %q: %w", entry.Name, err)
			}
			logger.Infof("preloaded dataset %q from %s", entry.Name, entry.Path)
			return nil
		}, rate, errCh)
	}
	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
