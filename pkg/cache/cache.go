// Package cache stores rendered identicon artifacts.
//
// Rendering is deterministic, so an artifact is fully described by the
// content digest and the render options. [Keyer] turns those into cache
// keys and a [Cache] backend stores the bytes:
//
//   - [FileCache]: JSON entries under an XDG cache directory (CLI default)
//   - [RedisCache]: shared cache for the HTTP server
//   - [NullCache]: caching disabled
//
// Backends that talk to the network wrap transient failures with
// [Retryable] and run them through [RetryWithBackoff].
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A non-positive ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default entry lifetimes.
const (
	// TTLArtifact applies to rendered SVG and raster bytes.
	TTLArtifact = 7 * 24 * time.Hour

	// TTLIdenticon applies to the JSON description of an identicon.
	TTLIdenticon = 30 * 24 * time.Hour
)

// =============================================================================
// Keys
// =============================================================================

// ArtifactKeyOpts are the render options that change artifact bytes.
type ArtifactKeyOpts struct {
	Format string  `json:"format"`
	Size   int     `json:"size"`
	Scale  float64 `json:"scale,omitempty"`
	Width  int     `json:"width,omitempty"`
	Height int     `json:"height,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// IdenticonKey identifies the generated identicon for a content digest.
	IdenticonKey(digest string, size int) string

	// ArtifactKey identifies a rendered artifact.
	ArtifactKey(digest string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes every key component so keys have a fixed length no
// matter how long the content was.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// IdenticonKey returns "identicon:<sha256>".
func (DefaultKeyer) IdenticonKey(digest string, size int) string {
	return hashKey("identicon", digest, size)
}

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(digest string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", digest, opts)
}
