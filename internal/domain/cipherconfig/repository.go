package cipherconfig

import (
	"context"
	"errors"
)

var ErrCacheMiss = errors.New("cipher material not cached")

type Repository interface {
	// EnsureDefault inserts def unless a row with DefaultID exists.
	EnsureDefault(ctx context.Context, def *Config) (bool, error)
	FindByID(ctx context.Context, configID string) (*Config, error)
	List(ctx context.Context) ([]*Config, error)
	Create(ctx context.Context, cfg *Config) error
	// Delete points every license using configID back at DefaultID and then
	// removes the row. It returns the number of reassigned licenses.
	Delete(ctx context.Context, configID string) (int64, error)
}

// Cache holds resolved cipher material keyed by config id.
type Cache interface {
	Get(ctx context.Context, configID string) (Material, error)
	Set(ctx context.Context, m Material) error
	Invalidate(ctx context.Context, configID string) error
}
