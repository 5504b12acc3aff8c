package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

type Service interface {
	CreateProduct(ctx context.Context, p *Product) (*Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*Product, error)
	ListProducts(ctx context.Context, createdBy uuid.UUID) ([]Product, error)
	UpdateProduct(ctx context.Context, p *Product) (*Product, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ProductStats(ctx context.Context, createdBy uuid.UUID) (*Stats, error)

	CreateCategory(ctx context.Context, c *Category) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	if p.Name == "" {
		return nil, errors.New("service: product name is required")
	}
	if p.StockNumber < 0 {
		return nil, fmt.Errorf("service: stock number cannot be negative, got %d", p.StockNumber)
	}
	if p.Price.IsNegative() {
		return nil, fmt.Errorf("service: product price cannot be negative, got %s", p.Price)
	}

	p.ID = uuid.Nil

	if err := s.repo.CreateProduct(ctx, p); err != nil {
		log.Error().Err(err).Str("name", p.Name).Msg("service: failed to create product in repository")
		return nil, fmt.Errorf("service: failed to create product: %w", err)
	}

	p.StockStatus = ClassifyStock(p.StockNumber)

	log.Info().Stringer("product_id", p.ID).Str("sku", p.SKU).Msg("service: product created")
	return p, nil
}

func (s *service) GetProductByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("service: failed to fetch product")
		return nil, fmt.Errorf("service: failed to fetch product: %w", err)
	}
	p.StockStatus = ClassifyStock(p.StockNumber)
	return p, nil
}

func (s *service) ListProducts(ctx context.Context, createdBy uuid.UUID) ([]Product, error) {
	products, err := s.repo.ListProducts(ctx, createdBy)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list products")
		return nil, fmt.Errorf("service: failed to list products: %w", err)
	}
	for i := range products {
		products[i].StockStatus = ClassifyStock(products[i].StockNumber)
	}
	return products, nil
}

// UpdateProduct refreshes the mutable fields of an existing product. The
// current price does not touch order items that captured an older price.
func (s *service) UpdateProduct(ctx context.Context, p *Product) (*Product, error) {
	if p.StockNumber < 0 {
		return nil, fmt.Errorf("service: stock number cannot be negative, got %d", p.StockNumber)
	}
	if p.Price.IsNegative() {
		return nil, fmt.Errorf("service: product price cannot be negative, got %s", p.Price)
	}

	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		log.Error().Err(err).Stringer("product_id", p.ID).Msg("service: failed to update product")
		return nil, fmt.Errorf("service: failed to update product: %w", err)
	}

	return s.GetProductByID(ctx, p.ID)
}

func (s *service) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*Product, error) {
	p, err := s.repo.AdjustStock(ctx, id, delta)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		log.Error().Err(err).Stringer("product_id", id).Int("delta", delta).Msg("service: failed to adjust stock")
		return nil, fmt.Errorf("service: failed to adjust stock: %w", err)
	}
	p.StockStatus = ClassifyStock(p.StockNumber)
	return p, nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return ErrProductNotFound
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("service: failed to delete product")
		return fmt.Errorf("service: failed to delete product: %w", err)
	}
	return nil
}

// ProductStats reports per-class counts and the total valuation of the
// caller's catalog. An empty catalog reports zeros, not an error.
func (s *service) ProductStats(ctx context.Context, createdBy uuid.UUID) (*Stats, error) {
	products, err := s.repo.ListProducts(ctx, createdBy)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list products for stats")
		return nil, fmt.Errorf("service: failed to compute product stats: %w", err)
	}
	stats := ComputeStats(products)
	return &stats, nil
}

func (s *service) CreateCategory(ctx context.Context, c *Category) (*Category, error) {
	if c.Name == "" {
		return nil, errors.New("service: category name is required")
	}
	c.ID = uuid.Nil
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		log.Error().Err(err).Str("name", c.Name).Msg("service: failed to create category")
		return nil, fmt.Errorf("service: failed to create category: %w", err)
	}
	return c, nil
}

func (s *service) ListCategories(ctx context.Context) ([]Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list categories")
		return nil, fmt.Errorf("service: failed to list categories: %w", err)
	}
	return categories, nil
}
