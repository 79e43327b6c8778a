package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/tmarche/fabula/pkg/ports"
	"github.com/tmarche/fabula/pkg/schema"
)

type piiMiddleware struct {
	next     ports.StorageAdapter
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks flags whose keys match
// the patterns before a save is persisted, in the payload and in every
// embedded checkpoint. The envelope checksum is re-stamped after masking so
// scrubbed saves still pass integrity validation. Masking is one-way; Load
// returns the scrubbed values.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.StorageAdapter) ports.StorageAdapter {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, key string, data []byte) error {
	env, err := schema.Decode(data)
	if err != nil {
		// Bytes that cannot be parsed cannot be scrubbed; refusing them
		// beats persisting them as-is.
		return fmt.Errorf("cannot scrub save %q: %w", key, err)
	}

	changed := maskMap(env.Payload.Flags, m.patterns)
	for _, cp := range env.Payload.Checkpoints {
		if cp.State != nil && maskMap(cp.State.Flags, m.patterns) {
			changed = true
		}
	}
	if !changed {
		return m.next.Save(ctx, key, data)
	}

	sum, err := schema.Checksum(env.Payload)
	if err != nil {
		return fmt.Errorf("failed to re-stamp scrubbed save: %w", err)
	}
	env.Checksum = sum

	masked, err := schema.Encode(env)
	if err != nil {
		return fmt.Errorf("failed to encode scrubbed save: %w", err)
	}
	return m.next.Save(ctx, key, masked)
}

func (m *piiMiddleware) Load(ctx context.Context, key string) ([]byte, error) {
	return m.next.Load(ctx, key)
}

func (m *piiMiddleware) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, key)
}

func (m *piiMiddleware) ListKeys(ctx context.Context) ([]string, error) {
	return m.next.ListKeys(ctx)
}

// maskMap replaces the value of every key matching a pattern with "***",
// recursing into nested maps. It reports whether anything was masked.
func maskMap(m map[string]any, patterns []*regexp.Regexp) bool {
	changed := false
	for k, v := range m {
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = "***"
				changed = true
				break
			}
		}

		if subMap, ok := v.(map[string]any); ok {
			if maskMap(subMap, patterns) {
				changed = true
			}
		}
	}
	return changed
}
