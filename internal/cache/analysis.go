package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/resumelens/resumelens/internal/model"
)

const (
	// analysisCachePrefix is the Redis key prefix for analysis records.
	analysisCachePrefix = "analysis:record:"
	// analysisCacheTTL bounds memory use. Records are immutable, so the
	// TTL only controls eviction, never staleness.
	analysisCacheTTL = time.Hour
)

// GetAnalysis retrieves a cached analysis record by id.
// Returns nil on a cache miss. Callers must still enforce ownership;
// the cache is keyed by record id alone.
func (c *Cache) GetAnalysis(ctx context.Context, id string) (*model.Analysis, error) {
	data, err := c.client.Get(ctx, analysisCachePrefix+id).Bytes()
	if err != nil {
		// Cache miss is not an error
		return nil, nil //nolint:nilerr
	}

	var record model.Analysis
	if err := json.Unmarshal(data, &record); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, nil //nolint:nilerr
	}

	return &record, nil
}

// SetAnalysis caches an analysis record.
func (c *Cache) SetAnalysis(ctx context.Context, record *model.Analysis) error {
	data, err := json.Marshal(cachedAnalysis(record))
	if err != nil {
		return fmt.Errorf("marshal analysis record: %w", err)
	}

	return c.client.Set(ctx, analysisCachePrefix+record.ID, data, analysisCacheTTL).Err()
}

// cachedAnalysis re-exposes fields the record hides from API serialization.
// The cache needs UserID for ownership checks on read.
func cachedAnalysis(record *model.Analysis) map[string]any {
	return map[string]any{
		"id":            record.ID,
		"user_id":       record.UserID,
		"original_name": record.OriginalName,
		"analysis":      record.Result,
		"score":         record.Score,
		"created_at":    record.CreatedAt,
	}
}
