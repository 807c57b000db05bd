package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Cache stores opaque values under string keys with an optional TTL.
// A zero TTL means the entry does not expire.
type Cache interface {
	// Get returns the value and true on a hit
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
}

// GetJSON reads a cached JSON value into dest and reports whether it was found
func GetJSON(ctx context.Context, c Cache, key string, dest interface{}) (bool, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to decode cached value: %w", err)
	}
	return true, nil
}

// SetJSON stores value as JSON
func SetJSON(ctx context.Context, c Cache, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	return c.Set(ctx, key, data, ttl)
}

// GenerateCacheKey builds "prefix:{json}" from params with keys sorted and nil values dropped,
// so equal parameter sets always produce the same key.
func GenerateCacheKey(prefix string, params map[string]interface{}) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == nil {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(":{")
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		b.Write(kb)
		b.WriteByte(':')
		vb, err := json.Marshal(params[k])
		if err != nil {
			vb = []byte(fmt.Sprintf("%q", fmt.Sprint(params[k])))
		}
		b.Write(vb)
	}
	b.WriteByte('}')
	return b.String()
}

// KeyFor derives a cache key from any JSON-encodable value. Fields omitted by
// their json tags do not take part in the key.
func KeyFor(prefix string, v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode cache key params: %w", err)
	}
	params := make(map[string]interface{})
	if err := json.Unmarshal(data, &params); err != nil {
		return "", fmt.Errorf("cache key params must encode to an object: %w", err)
	}
	return GenerateCacheKey(prefix, params), nil
}
