package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"github.com/octoseek/searchdex/internal/backend"
	"github.com/octoseek/searchdex/internal/metrics"
)

// Compile-time check: Cache implements backend.Gateway.
var _ backend.Gateway = (*Cache)(nil)

// Config holds cache connection parameters.
type Config struct {
	Addrs    []string
	Username string
	Password string
	// TTL bounds how long a cached response stays valid.
	TTL time.Duration
	// KeyPrefix namespaces cache keys.
	KeyPrefix string
}

// Cache is a read-through response cache around a backend gateway.
// Cache failures degrade to the inner gateway; they never fail a request.
type Cache struct {
	inner  backend.Gateway
	client rueidis.Client
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// New creates a caching gateway decorator.
func New(inner backend.Gateway, cfg Config, logger *zap.Logger) (*Cache, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: cfg.Addrs,
		Username:    cfg.Username,
		Password:    cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create cache client: %w", err)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "searchdex:query:"
	}
	return &Cache{inner: inner, client: client, ttl: ttl, prefix: prefix, logger: logger}, nil
}

// Close shuts down the cache client.
func (c *Cache) Close() {
	c.client.Close()
}

// Execute serves a single search from cache when possible.
func (c *Cache) Execute(ctx context.Context, req *backend.SearchRequest) (*backend.SearchResponse, error) {
	key := c.prefix + req.Fingerprint()

	var cached backend.SearchResponse
	if c.get(ctx, key, &cached) {
		metrics.QueryCacheTotal.WithLabelValues("hit").Inc()
		return &cached, nil
	}
	metrics.QueryCacheTotal.WithLabelValues("miss").Inc()

	resp, err := c.inner.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	c.put(ctx, key, resp)
	return resp, nil
}

// ExecuteBatch serves a whole batch from cache when possible. The batch is
// cached as one unit so positional correlation survives a cache hit.
func (c *Cache) ExecuteBatch(ctx context.Context, reqs []*backend.SearchRequest) ([]*backend.SearchResponse, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	parts := make([]string, len(reqs))
	for i, req := range reqs {
		parts[i] = req.Fingerprint()
	}
	key := c.prefix + "batch:" + strings.Join(parts, ":")

	var cached []*backend.SearchResponse
	if c.get(ctx, key, &cached) && len(cached) == len(reqs) {
		metrics.QueryCacheTotal.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.QueryCacheTotal.WithLabelValues("miss").Inc()

	resps, err := c.inner.ExecuteBatch(ctx, reqs)
	if err != nil {
		return nil, err
	}
	c.put(ctx, key, resps)
	return resps, nil
}

// FetchByID is not cached; point reads are cheap and staleness hurts.
func (c *Cache) FetchByID(ctx context.Context, index, docType, id string) (*backend.Doc, error) {
	return c.inner.FetchByID(ctx, index, docType, id)
}

// Explain is a diagnostic path; never cached.
func (c *Cache) Explain(ctx context.Context, index, docType, id string, query backend.M) (map[string]any, error) {
	return c.inner.Explain(ctx, index, docType, id, query)
}

// TermVectors is a diagnostic path; never cached.
func (c *Cache) TermVectors(ctx context.Context, index, docType, id string, fields []string) (map[string]any, error) {
	return c.inner.TermVectors(ctx, index, docType, id, fields)
}

// ScrollAll bypasses the cache; exports must see live data.
func (c *Cache) ScrollAll(ctx context.Context, req *backend.SearchRequest, pageSize int, onPage func([]backend.Doc) error) error {
	return c.inner.ScrollAll(ctx, req, pageSize, onPage)
}

func (c *Cache) get(ctx context.Context, key string, out any) bool {
	cmd := c.client.B().Get().Key(key).Build()
	raw, err := c.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if !rueidis.IsRedisNil(err) {
			c.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *Cache) put(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	cmd := c.client.B().Set().Key(key).Value(string(raw)).Ex(c.ttl).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		c.logger.Warn("cache put failed", zap.String("key", key), zap.Error(err))
	}
}
