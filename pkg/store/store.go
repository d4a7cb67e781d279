// Package store keeps a history of generation runs.
//
// Backends:
//   - [FileStore]: JSON lines in the user state directory (CLI)
//   - [MongoStore]: a MongoDB collection (server deployments)
//   - [NullStore]: history disabled
package store

import (
	"context"
	"time"
)

// Record describes one generation run.
type Record struct {
	ID        string    `json:"id" bson:"_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`

	Job     string `json:"job" bson:"job"`
	JobHash string `json:"job_hash" bson:"job_hash"`
	Cell    string `json:"cell" bson:"cell"`

	Size     int `json:"size" bson:"size"`
	Rows     int `json:"rows" bson:"rows"`
	Cols     int `json:"cols" bson:"cols"`
	Sections int `json:"sections" bson:"sections"`
	Shapes   int `json:"shapes" bson:"shapes"`

	Formats  []string      `json:"formats" bson:"formats"`
	Outputs  []string      `json:"outputs,omitempty" bson:"outputs,omitempty"`
	CacheHit bool          `json:"cache_hit" bson:"cache_hit"`
	Duration time.Duration `json:"duration" bson:"duration"`
}

// Store persists run records.
type Store interface {
	// Save appends a record.
	Save(ctx context.Context, r Record) error

	// List returns up to limit records, newest first. A limit of zero or
	// less returns every record.
	List(ctx context.Context, limit int) ([]Record, error)

	// Get returns the record with the given ID or a NOT_FOUND error.
	Get(ctx context.Context, id string) (Record, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// NullStore discards every record.
type NullStore struct{}

// Save does nothing.
func (NullStore) Save(context.Context, Record) error { return nil }

// List returns no records.
func (NullStore) List(context.Context, int) ([]Record, error) { return nil, nil }

// Get always fails with NOT_FOUND.
func (NullStore) Get(_ context.Context, id string) (Record, error) { return Record{}, notFound(id) }

// Close does nothing.
func (NullStore) Close(context.Context) error { return nil }

var _ Store = NullStore{}
