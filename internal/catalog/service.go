package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/retailpulse/retailpulse/internal/platform/httpx"
)

// Service guards catalog mutations with validation rules.
type Service struct {
	repo Repository
}

// NewService wires a Repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) GetCategory(ctx context.Context, id int64) (Category, error) {
	if id <= 0 {
		return Category{}, fmt.Errorf("%w: invalid category id", httpx.ErrValidation)
	}
	return s.repo.GetCategory(ctx, id)
}

func (s *Service) CreateCategory(ctx context.Context, c Category) (Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return Category{}, fmt.Errorf("%w: category name required", httpx.ErrValidation)
	}
	return s.repo.CreateCategory(ctx, c)
}

func (s *Service) UpdateCategory(ctx context.Context, id int64, c Category) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid category id", httpx.ErrValidation)
	}
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return fmt.Errorf("%w: category name required", httpx.ErrValidation)
	}
	return s.repo.UpdateCategory(ctx, id, c)
}

func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid category id", httpx.ErrValidation)
	}
	return s.repo.DeleteCategory(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.ListProducts(ctx, filter)
}

func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, fmt.Errorf("%w: invalid product id", httpx.ErrValidation)
	}
	return s.repo.GetProduct(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, p Product) (Product, error) {
	if err := validateProduct(p); err != nil {
		return Product{}, err
	}
	return s.repo.CreateProduct(ctx, p)
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, p Product) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid product id", httpx.ErrValidation)
	}
	if err := validateProduct(p); err != nil {
		return err
	}
	return s.repo.UpdateProduct(ctx, id, p)
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid product id", httpx.ErrValidation)
	}
	return s.repo.DeleteProduct(ctx, id)
}

func validateProduct(p Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product name required", httpx.ErrValidation)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", httpx.ErrValidation)
	}
	if p.Cost != nil && *p.Cost < 0 {
		return fmt.Errorf("%w: cost must not be negative", httpx.ErrValidation)
	}
	return nil
}
