package snapshot

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NewEntryRepository creates a repository for catalog entry records.
func NewEntryRepository(db *bun.DB) repository.Repository[*Entry] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Entry]{
		NewRecord: func() *Entry { return &Entry{} },
		GetID: func(entry *Entry) uuid.UUID {
			return entry.ID
		},
		SetID: func(entry *Entry, id uuid.UUID) {
			entry.ID = id
		},
		GetIdentifier: func() string {
			return "key"
		},
		GetIdentifierValue: func(entry *Entry) string {
			return entry.Key
		},
	})
}

// NewBenchRepository creates a repository for bench records.
func NewBenchRepository(db *bun.DB) repository.Repository[*BenchRecord] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*BenchRecord]{
		NewRecord: func() *BenchRecord { return &BenchRecord{} },
		GetID: func(record *BenchRecord) uuid.UUID {
			return record.ID
		},
		SetID: func(record *BenchRecord, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *BenchRecord) string {
			return record.ID.String()
		},
	})
}
