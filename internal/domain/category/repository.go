package category

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, name string) error
	// Delete clears the category on every license using it, then removes
	// it. It returns the number of licenses cleared.
	Delete(ctx context.Context, name string) (int64, error)
	List(ctx context.Context) ([]string, error)
}
