package repositories

import (
	"context"
	"errors"
	"time"

	"shopping-assistant/internal/models"
)

// ProductRepository defines the interface for the product cache.
// This abstracts Redis operations for normalized product records fetched
// from the assistant platform.
type ProductRepository interface {
	// Cache Operations
	Put(ctx context.Context, product *models.Product, ttl time.Duration) error
	Get(ctx context.Context, productID string) (*models.Product, error)
	Delete(ctx context.Context, productID string) error
	Exists(ctx context.Context, productID string) (bool, error)

	// Bulk Operations
	PutBatch(ctx context.Context, products []*models.Product, ttl time.Duration) error
	GetBatch(ctx context.Context, productIDs []string) ([]*models.Product, []string, error)

	// Query Operations
	ListIDs(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}

// ProductRepositoryError represents errors from the product cache
type ProductRepositoryError struct {
	Operation string
	ProductID string
	Err       error
	Message   string
}

func (e *ProductRepositoryError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	prefix := e.Operation
	if e.ProductID != "" {
		prefix += " (product: " + e.ProductID + ")"
	}
	if e.Err != nil {
		return prefix + ": " + e.Err.Error()
	}
	return prefix + ": unknown error"
}

func (e *ProductRepositoryError) Unwrap() error {
	return e.Err
}

// NewProductRepositoryError creates a new product repository error
func NewProductRepositoryError(operation string, productID string, err error, message string) *ProductRepositoryError {
	return &ProductRepositoryError{
		Operation: operation,
		ProductID: productID,
		Err:       err,
		Message:   message,
	}
}

// ProductNotFoundError marks a cache miss for a product id
func ProductNotFoundError(productID string) error {
	return NewProductRepositoryError(
		"get_product",
		productID,
		nil,
		"product not cached: "+productID,
	)
}

// InvalidProductError marks a product record that cannot be cached
func InvalidProductError(productID string, reason string) error {
	return NewProductRepositoryError(
		"validate_product",
		productID,
		nil,
		"invalid product: "+reason,
	)
}

// IsNotFound reports whether err is a cache miss
func IsNotFound(err error) bool {
	var repoErr *ProductRepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.Operation == "get_product" && repoErr.Err == nil
	}
	return false
}

// ValidateProduct checks that a product can be cached
func ValidateProduct(p *models.Product) error {
	if p == nil {
		return InvalidProductError("", "product is nil")
	}
	if p.ID == "" {
		return InvalidProductError("", "product ID is required")
	}
	return nil
}
