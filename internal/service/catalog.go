package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/pkg/cache"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/metrics"
)

const (
	FeaturedCacheKey     = "featured_products"
	RecommendationsCount = 3
)

type JSONCache interface {
	GetJSON(ctx context.Context, key string, dst any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

type CatalogService struct {
	Repo   *repo.GormRepo
	Cache  JSONCache
	Search search.Index // nil falls back to the database
	Events events.Publisher
}

type CreateProductInput struct {
	Name        string
	Description string
	Price       int64
	Image       string
	Category    string
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.Repo.ListProducts(ctx)
}

// FeaturedProducts reads through the cache; a cache failure is served from
// the database.
func (s *CatalogService) FeaturedProducts(ctx context.Context) ([]models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.featured")

	var cached []models.Product
	err := s.Cache.GetJSON(ctx, FeaturedCacheKey, &cached)
	switch {
	case err == nil:
		metrics.RecordFeaturedCache("hit")
		return cached, nil
	case errors.Is(err, cache.ErrMiss):
		metrics.RecordFeaturedCache("miss")
	default:
		metrics.RecordFeaturedCache("error")
		l.Warn("featured_cache_read_failed", "error", err)
	}

	items, err := s.Repo.FeaturedProducts(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Cache.SetJSON(ctx, FeaturedCacheKey, items, 0); err != nil {
		l.Warn("featured_cache_write_failed", "error", err)
	}
	return items, nil
}

// refreshFeaturedCache rewrites the cached list from the database.
func (s *CatalogService) refreshFeaturedCache(ctx context.Context) {
	l := logging.FromContext(ctx).With("svc", "catalog.featured_refresh")

	items, err := s.Repo.FeaturedProducts(ctx)
	if err != nil {
		l.Error("featured_cache_refresh_failed", "reason", "cannot load featured products", "error", err)
		return
	}
	if err := s.Cache.SetJSON(ctx, FeaturedCacheKey, items, 0); err != nil {
		l.Error("featured_cache_refresh_failed", "reason", "cannot write cache", "error", err)
	}
}

func (s *CatalogService) Recommendations(ctx context.Context) ([]models.Product, error) {
	return s.Repo.RandomProducts(ctx, RecommendationsCount)
}

func (s *CatalogService) ProductsByCategory(ctx context.Context, category string) ([]models.Product, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, fmt.Errorf("category is required: %w", ErrValidation)
	}
	return s.Repo.ProductsByCategory(ctx, category)
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product not found: %w", ErrNotFound)
	}
	return p, err
}

// SearchProducts queries the search index and falls back to a database
// match when the index is absent or failing.
func (s *CatalogService) SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, nil, fmt.Errorf("query is required: %w", ErrValidation)
	}
	if s.Search != nil {
		total, items, err := s.Search.Search(ctx, q, offset, limit)
		if err == nil {
			return total, items, nil
		}
		logging.FromContext(ctx).Warn("search_index_failed", "reason", "falling back to database", "error", err)
	}
	return s.Repo.SearchProducts(ctx, q, offset, limit)
}

func (s *CatalogService) CreateProduct(ctx context.Context, in CreateProductInput) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create")

	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	if in.Name == "" || in.Category == "" {
		return nil, fmt.Errorf("name and category are required: %w", ErrValidation)
	}
	if in.Price < 0 {
		return nil, fmt.Errorf("price cannot be negative: %w", ErrValidation)
	}

	prod, err := s.Repo.CreateProduct(ctx, &models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Image:       in.Image,
		Category:    in.Category,
	})
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	if s.Search != nil {
		if err := s.Search.IndexProduct(ctx, prod); err != nil {
			l.Warn("search_index_failed", "product_id", prod.ID, "error", err)
		}
	}
	events.Emit(ctx, s.Events, events.TopicProduct, prod.ID.String(), events.Event{
		"type":      "product_created",
		"productID": prod.ID.String(),
		"name":      prod.Name,
		"price":     prod.Price,
	})
	return prod, nil
}

func (s *CatalogService) ToggleFeatured(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	prod, err := s.Repo.ToggleFeatured(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("toggle featured: %w", err)
	}
	s.refreshFeaturedCache(ctx)

	if s.Search != nil {
		if err := s.Search.IndexProduct(ctx, prod); err != nil {
			logging.FromContext(ctx).Warn("search_index_failed", "product_id", prod.ID, "error", err)
		}
	}
	events.Emit(ctx, s.Events, events.TopicProduct, prod.ID.String(), events.Event{
		"type":       "product_featured_toggled",
		"productID":  prod.ID.String(),
		"isFeatured": prod.IsFeatured,
	})
	return prod, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	prod, err := s.Repo.DeleteProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("product not found: %w", ErrNotFound)
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if prod.IsFeatured {
		s.refreshFeaturedCache(ctx)
	}

	if s.Search != nil {
		if err := s.Search.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_delete_failed", "product_id", id, "error", err)
		}
	}
	events.Emit(ctx, s.Events, events.TopicProduct, id.String(), events.Event{
		"type":      "product_deleted",
		"productID": id.String(),
	})
	return nil
}
