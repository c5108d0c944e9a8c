// Package srvenv collects the service dependencies wired during setup.
package srvenv

import (
	"context"

	"sibyl/internal/cache"
	"sibyl/internal/database"
	"sibyl/internal/registry"
)

type Option func(*SrvEnv) *SrvEnv

func New(opts ...Option) *SrvEnv {
	env := &SrvEnv{}
	for _, f := range opts {
		env = f(env)
	}

	return env
}

type SrvEnv struct {
	database *database.DB
	cache    *cache.Cache
	registry registry.ProvideFn
}

func (s *SrvEnv) ProvideRegistry() registry.ProvideFn {
	return s.registry
}

func (s *SrvEnv) Database() *database.DB {
	return s.database
}

func (s *SrvEnv) Cache() *cache.Cache {
	return s.cache
}

func WithRegistry(fn registry.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.registry = fn
		return s
	}
}

func WithCache(c *cache.Cache) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.cache = c
		return s
	}
}

func WithDatabase(db *database.DB) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.database = db
		return s
	}
}

func (s *SrvEnv) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}

	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			return err
		}
	}
	if s.database != nil {
		return s.database.Close(ctx)
	}
	return nil
}
