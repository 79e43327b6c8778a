// Package middleware wraps a StorageAdapter with cross-cutting behavior
// applied to every save: encryption at rest, PII scrubbing. Middleware
// composes; apply the scrubber first and the encryptor last so ciphertext
// is the outermost layer on disk.
package middleware

import "github.com/tmarche/fabula/pkg/ports"

// Middleware allows wrapping a StorageAdapter to add behavior.
type Middleware func(ports.StorageAdapter) ports.StorageAdapter
