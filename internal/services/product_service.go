package services

import (
	"context"
	"fmt"
	"log"

	"shopping-assistant/internal/models"
	"shopping-assistant/internal/repositories"
)

// ProductService resolves product records, consulting the Redis cache before
// the platform and writing fetched records through. The cache is optional;
// without it every lookup goes to the platform.
type ProductService struct {
	client PlatformClientInterface
	cache  repositories.ProductRepository
	logger *log.Logger
}

// NewProductService creates a product service. cache may be nil.
func NewProductService(client PlatformClientInterface, cache repositories.ProductRepository, logger *log.Logger) *ProductService {
	return &ProductService{
		client: client,
		cache:  cache,
		logger: logger,
	}
}

// GetProduct returns a normalized product, from cache when possible
func (s *ProductService) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	if productID == "" {
		return nil, fmt.Errorf("product id is required")
	}

	if s.cache != nil {
		product, err := s.cache.Get(ctx, productID)
		if err == nil {
			return product, nil
		}
		if !repositories.IsNotFound(err) {
			// Cache trouble is not fatal; fall through to the platform
			s.logger.Printf("product cache read failed for %s: %v", productID, err)
		}
	}

	product, err := s.client.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	s.StoreProduct(ctx, product)
	return product, nil
}

// StoreProduct writes a product into the cache, if one is configured
func (s *ProductService) StoreProduct(ctx context.Context, product *models.Product) {
	if s.cache == nil || product == nil {
		return
	}
	if err := s.cache.Put(ctx, product, repositories.DefaultProductTTL); err != nil {
		s.logger.Printf("product cache write failed for %s: %v", product.ID, err)
	}
}

// StoreProducts writes a batch of products into the cache
func (s *ProductService) StoreProducts(ctx context.Context, products []models.Product) {
	if s.cache == nil || len(products) == 0 {
		return
	}
	refs := make([]*models.Product, 0, len(products))
	for i := range products {
		if products[i].ID != "" {
			refs = append(refs, &products[i])
		}
	}
	if err := s.cache.PutBatch(ctx, refs, repositories.DefaultProductTTL); err != nil {
		s.logger.Printf("product cache batch write failed: %v", err)
	}
}

// CacheEnabled reports whether a cache is configured
func (s *ProductService) CacheEnabled() bool {
	return s.cache != nil
}
