package snapshot

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Entry is the persisted form of one catalog row.
type Entry struct {
	bun.BaseModel `bun:"table:catalog_entries,alias:ce"`

	ID        uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	Key       string         `bun:"key,notnull,unique" json:"key"`
	Kind      string         `bun:"kind,notnull" json:"kind"`
	EntryID   string         `bun:"entry_id,notnull" json:"entry_id"`
	Title     string         `bun:"title" json:"title"`
	Data      map[string]any `bun:"data,type:jsonb" json:"data"`
	RunID     string         `bun:"run_id" json:"run_id"`
	CreatedAt time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// BenchRecord is one flattened bench entry of a row, keyed by arch and variant.
type BenchRecord struct {
	bun.BaseModel `bun:"table:catalog_bench,alias:cb"`

	ID        uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	EntryID   uuid.UUID      `bun:"entry_id,notnull,type:uuid" json:"entry_id"`
	Arch      string         `bun:"arch,notnull" json:"arch"`
	Variant   string         `bun:"variant" json:"variant"`
	Data      map[string]any `bun:"data,type:jsonb" json:"data"`
	RunID     string         `bun:"run_id" json:"run_id"`
	CreatedAt time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// SaveResult counts what one Save call changed.
type SaveResult struct {
	Created int
	Updated int
	Bench   int
}

// EntryKey is the unique lookup key of a row: "<kind>:<id>".
func EntryKey(kind, id string) string {
	return kind + ":" + id
}
