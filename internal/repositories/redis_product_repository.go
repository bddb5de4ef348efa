package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"shopping-assistant/internal/models"
)

const (
	// Redis key prefixes
	productKeyPrefix = "product:"
	productIndexKey  = "products:index"

	// DefaultProductTTL bounds how long a cached product is trusted before
	// the platform is consulted again.
	DefaultProductTTL = 15 * time.Minute
)

// RedisProductRepository implements ProductRepository using Redis
type RedisProductRepository struct {
	client *redis.Client
}

// NewRedisProductRepository creates a new Redis-based product cache
func NewRedisProductRepository(client *redis.Client) *RedisProductRepository {
	return &RedisProductRepository{
		client: client,
	}
}

// Put stores a normalized product record with the given TTL
func (r *RedisProductRepository) Put(ctx context.Context, product *models.Product, ttl time.Duration) error {
	if err := ValidateProduct(product); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = DefaultProductTTL
	}

	productJSON, err := json.Marshal(product)
	if err != nil {
		return NewProductRepositoryError("put", product.ID, err, "failed to marshal product")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, productKeyPrefix+product.ID, productJSON, ttl)
	pipe.SAdd(ctx, productIndexKey, product.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return NewProductRepositoryError("put", product.ID, err, "")
	}
	return nil
}

// Get retrieves a product by ID; a miss returns ProductNotFoundError
func (r *RedisProductRepository) Get(ctx context.Context, productID string) (*models.Product, error) {
	productJSON, err := r.client.Get(ctx, productKeyPrefix+productID).Result()
	if err == redis.Nil {
		// Key may have expired while still indexed; drop the stale index entry.
		r.client.SRem(ctx, productIndexKey, productID)
		return nil, ProductNotFoundError(productID)
	}
	if err != nil {
		return nil, NewProductRepositoryError("get", productID, err, "")
	}

	var product models.Product
	if err := json.Unmarshal([]byte(productJSON), &product); err != nil {
		return nil, NewProductRepositoryError("get", productID, err, "failed to unmarshal product")
	}
	return &product, nil
}

// Delete removes a product from the cache
func (r *RedisProductRepository) Delete(ctx context.Context, productID string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, productKeyPrefix+productID)
	pipe.SRem(ctx, productIndexKey, productID)

	if _, err := pipe.Exec(ctx); err != nil {
		return NewProductRepositoryError("delete", productID, err, "")
	}
	return nil
}

// Exists checks whether a product is cached
func (r *RedisProductRepository) Exists(ctx context.Context, productID string) (bool, error) {
	count, err := r.client.Exists(ctx, productKeyPrefix+productID).Result()
	if err != nil {
		return false, NewProductRepositoryError("exists", productID, err, "")
	}
	return count > 0, nil
}

// PutBatch stores multiple products in one round trip
func (r *RedisProductRepository) PutBatch(ctx context.Context, products []*models.Product, ttl time.Duration) error {
	if len(products) == 0 {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultProductTTL
	}

	pipe := r.client.TxPipeline()
	for _, product := range products {
		if err := ValidateProduct(product); err != nil {
			return err
		}
		productJSON, err := json.Marshal(product)
		if err != nil {
			return NewProductRepositoryError("put_batch", product.ID, err, "failed to marshal product")
		}
		pipe.Set(ctx, productKeyPrefix+product.ID, productJSON, ttl)
		pipe.SAdd(ctx, productIndexKey, product.ID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return NewProductRepositoryError("put_batch", "", err, "")
	}
	return nil
}

// GetBatch retrieves multiple products; misses are returned as the second
// value rather than as errors since partial hits are the normal case.
func (r *RedisProductRepository) GetBatch(ctx context.Context, productIDs []string) ([]*models.Product, []string, error) {
	if len(productIDs) == 0 {
		return nil, nil, nil
	}

	keys := make([]string, len(productIDs))
	for i, id := range productIDs {
		keys[i] = productKeyPrefix + id
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, nil, NewProductRepositoryError("get_batch", "", err, "")
	}

	var products []*models.Product
	var missing []string
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			missing = append(missing, productIDs[i])
			continue
		}
		var product models.Product
		if err := json.Unmarshal([]byte(raw), &product); err != nil {
			missing = append(missing, productIDs[i])
			continue
		}
		products = append(products, &product)
	}
	return products, missing, nil
}

// ListIDs returns the ids of all indexed products
func (r *RedisProductRepository) ListIDs(ctx context.Context) ([]string, error) {
	ids, err := r.client.SMembers(ctx, productIndexKey).Result()
	if err != nil {
		return nil, NewProductRepositoryError("list_ids", "", err, "")
	}
	return ids, nil
}

// Count returns the number of indexed products
func (r *RedisProductRepository) Count(ctx context.Context) (int, error) {
	count, err := r.client.SCard(ctx, productIndexKey).Result()
	if err != nil {
		return 0, NewProductRepositoryError("count", "", err, "")
	}
	return int(count), nil
}

// Ping checks the Redis connection
func (r *RedisProductRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying Redis client
func (r *RedisProductRepository) Close() error {
	return r.client.Close()
}
