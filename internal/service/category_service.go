package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/makkenzo/entitlement-service/internal/domain/category"
	"github.com/makkenzo/entitlement-service/internal/ierr"
	"go.uber.org/zap"
)

type CategoryService struct {
	repo   category.Repository
	logger *zap.Logger
}

func NewCategoryService(repo category.Repository, logger *zap.Logger) *CategoryService {
	return &CategoryService{
		repo:   repo,
		logger: logger.Named("CategoryService"),
	}
}

func (s *CategoryService) Add(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: category name is required", ierr.ErrValidation)
	}
	if err := s.repo.Create(ctx, name); err != nil {
		return err
	}
	s.logger.Info("Category added", zap.String("name", name))
	return nil
}

// Remove deletes the category and clears it on every license using it.
func (s *CategoryService) Remove(ctx context.Context, name string) (int64, error) {
	cleared, err := s.repo.Delete(ctx, name)
	if err != nil {
		return 0, err
	}
	s.logger.Info("Category removed", zap.String("name", name), zap.Int64("cleared_licenses", cleared))
	return cleared, nil
}

func (s *CategoryService) List(ctx context.Context) ([]string, error) {
	return s.repo.List(ctx)
}
