// Package cache persists the last successful market snapshot under a single
// scoped key and answers staleness questions about it.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"GoldBoard/internal/model"
)

// DefaultKey is the scoped key holding the snapshot.
const DefaultKey = "black_stone_market_data"

// schemaVersion is bumped whenever the persisted layout changes; entries with
// any other version are discarded.
const schemaVersion = 1

// ErrMalformed marks a persisted entry that cannot be turned into a snapshot.
var ErrMalformed = errors.New("malformed cache entry")

// record is the persisted JSON layout.
type record struct {
	Version      int                     `json:"version"`
	Prices       []model.PricePoint      `json:"prices"`
	LastUpdated  time.Time               `json:"lastUpdated"`
	Sources      []model.GroundingSource `json:"sources"`
	Summary      string                  `json:"summary"`
	BasePriceUSD float64                 `json:"basePriceUSD,omitempty"`
}

// Cache holds at most one serialized MarketSnapshot.
type Cache struct {
	store  Store
	key    string
	logger *zerolog.Logger
}

// New creates a cache over store. An empty key uses DefaultKey.
func New(store Store, key string, logger *zerolog.Logger) *Cache {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Cache{store: store, key: key, logger: logger}
}

// Load returns the cached snapshot. Missing, unreadable and malformed entries
// all report absent; malformed entries are also deleted.
func (c *Cache) Load(ctx context.Context) (*model.MarketSnapshot, bool) {
	data, err := c.store.Get(ctx, c.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.logger.Warn().Err(err).Str("key", c.key).Msg("cache read failed")
		}
		return nil, false
	}

	snap, err := Decode(data)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", c.key).Msg("discarding cache entry")
		if err := c.store.Delete(ctx, c.key); err != nil {
			c.logger.Error().Err(err).Str("key", c.key).Msg("clear corrupt cache entry")
		}
		return nil, false
	}
	return snap, true
}

// Store overwrites the cached snapshot.
func (c *Cache) Store(ctx context.Context, snap *model.MarketSnapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	if err := c.store.Put(ctx, c.key, data); err != nil {
		return fmt.Errorf("write cache %s: %w", c.key, err)
	}
	return nil
}

// Clear removes the cached snapshot.
func (c *Cache) Clear(ctx context.Context) error {
	return c.store.Delete(ctx, c.key)
}

// Encode serializes a snapshot in the persisted layout.
func Encode(snap *model.MarketSnapshot) ([]byte, error) {
	data, err := json.Marshal(record{
		Version:      schemaVersion,
		Prices:       snap.Prices,
		LastUpdated:  snap.FetchedAt,
		Sources:      snap.Sources,
		Summary:      snap.Summary,
		BasePriceUSD: snap.BasePriceUSD,
	})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a persisted entry. Every failure wraps ErrMalformed.
func Decode(data []byte) (*model.MarketSnapshot, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if r.Version != schemaVersion {
		return nil, fmt.Errorf("%w: schema version %d, want %d", ErrMalformed, r.Version, schemaVersion)
	}
	if r.LastUpdated.IsZero() {
		return nil, fmt.Errorf("%w: missing lastUpdated", ErrMalformed)
	}
	snap := &model.MarketSnapshot{
		Prices:       r.Prices,
		FetchedAt:    r.LastUpdated,
		Sources:      r.Sources,
		Summary:      r.Summary,
		BasePriceUSD: r.BasePriceUSD,
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return snap, nil
}

// IsStale reports whether snap is older than ttl at now.
func IsStale(snap *model.MarketSnapshot, now time.Time, ttl time.Duration) bool {
	return now.Sub(snap.FetchedAt) > ttl
}
