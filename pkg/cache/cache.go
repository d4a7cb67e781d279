// Package cache stores generated mask artifacts keyed by job content.
//
// Three backends implement [Cache]:
//   - [FileCache]: one JSON file per entry under a directory (CLI)
//   - [RedisCache]: a shared Redis instance (server deployments)
//   - [NullCache]: caching disabled
//
// Keys come from a [Keyer] so that callers never build key strings by hand.
// The key of an artifact covers the hash of the canonical job encoding and
// every option that changes the artifact bytes.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the stored value and whether it was found. Expired or
	// unreadable entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl keeps the entry until it is
	// deleted.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Expiry of cached entries.
const (
	TTLArtifact = 7 * 24 * time.Hour
	TTLReport   = 7 * 24 * time.Hour
)

// Keyer derives cache keys.
type Keyer interface {
	// ArtifactKey is the key of one rendered artifact of a job.
	ArtifactKey(jobHash string, opts ArtifactKeyOpts) string

	// ReportKey is the key of the generation report of a job.
	ReportKey(jobHash string) string
}

// ArtifactKeyOpts lists the options that change artifact bytes.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	Width  int    `json:"width,omitempty"`
}

// DefaultKeyer builds keys of the form "<kind>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(jobHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", jobHash, opts)
}

// ReportKey implements Keyer.
func (DefaultKeyer) ReportKey(jobHash string) string {
	return hashKey("report", jobHash)
}
