// Package snapshot persists catalog rows to a SQL database through bun so
// successive update runs can be compared and queried.
package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-jszoo/internal/catalog"
	"github.com/goliatone/go-jszoo/internal/identity"
	"github.com/goliatone/go-jszoo/internal/logging"
	"github.com/goliatone/go-jszoo/pkg/interfaces"
)

// NotFoundError is returned when a snapshot entry does not exist.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("snapshot entry %q not found", e.Key)
}

// Open connects to the snapshot database. sqlite3/sqlite and postgres/pg
// drivers are supported; file-backed SQLite databases get their parent
// directory created.
func Open(driver, dsn string) (*bun.DB, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite3", "sqlite":
		if err := ensureSQLiteDir(dsn); err != nil {
			return nil, err
		}
		sqlDB, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("snapshot: open sqlite: %w", err)
		}
		db := bun.NewDB(sqlDB, sqlitedialect.New())
		db.SetMaxOpenConns(1)
		return db, nil
	case "postgres", "pg":
		sqlDB, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("snapshot: open postgres: %w", err)
		}
		return bun.NewDB(sqlDB, pgdialect.New()), nil
	default:
		return nil, fmt.Errorf("snapshot: unsupported driver %q", driver)
	}
}

func ensureSQLiteDir(dsn string) error {
	file := strings.TrimPrefix(dsn, "file:")
	file, _, _ = strings.Cut(file, "?")
	if file == "" || strings.Contains(file, ":memory:") {
		return nil
	}
	dir := filepath.Dir(file)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("snapshot: create %s: %w", dir, err)
	}
	return nil
}

// Option configures a Store.
type Option func(*Store)

// WithCache wraps the entry repository with go-repository-cache.
func WithCache(cacheService cache.CacheService, serializer cache.KeySerializer) Option {
	return func(s *Store) {
		s.cacheService = cacheService
		s.serializer = serializer
	}
}

// WithNow overrides the clock used for timestamps.
func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger injects the store logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store upserts catalog rows keyed by their deterministic UUID.
type Store struct {
	db      *bun.DB
	entries repository.Repository[*Entry]
	// index is never cached: select criteria are closures and do not
	// produce distinct cache keys.
	index  repository.Repository[*Entry]
	bench  repository.Repository[*BenchRecord]
	now    func() time.Time
	logger interfaces.Logger

	cacheService cache.CacheService
	serializer   cache.KeySerializer
}

// NewStore builds a store over db.
func NewStore(db *bun.DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		now:    time.Now,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	base := NewEntryRepository(db)
	s.index = base
	s.entries = base
	if s.cacheService != nil && s.serializer != nil {
		s.entries = repositorycache.New(base, s.cacheService, s.serializer)
	}
	s.bench = NewBenchRepository(db)
	return s
}

// Migrate creates the snapshot tables when missing.
func (s *Store) Migrate(ctx context.Context) error {
	models := []any{(*Entry)(nil), (*BenchRecord)(nil)}
	for _, model := range models {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("snapshot: create table: %w", err)
		}
	}
	return nil
}

// Save upserts rows of kind, tagging each with runID. Each row and its bench
// entries are written in one transaction; bench entries are replaced as a set.
func (s *Store) Save(ctx context.Context, kind, runID string, rows []catalog.Row) (SaveResult, error) {
	var result SaveResult
	now := s.now().UTC()
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		id := row.ID()
		if id == "" {
			return result, fmt.Errorf("snapshot: %s row without id", kind)
		}
		entry := &Entry{
			ID:        identity.EntryUUID(kind, id),
			Key:       EntryKey(kind, id),
			Kind:      kind,
			EntryID:   id,
			Title:     row.Text(catalog.KeyTitle),
			Data:      entryData(row),
			RunID:     runID,
			CreatedAt: now,
			UpdatedAt: now,
		}

		var (
			created bool
			count   int
		)
		err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			var err error
			created, err = s.upsertEntry(ctx, tx, entry)
			if err != nil {
				return err
			}
			count, err = s.replaceBench(ctx, tx, entry.ID, runID, now, row)
			return err
		})
		if err != nil {
			return result, err
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
		result.Bench += count
	}
	s.logger.Debug("snapshot.saved",
		"kind", kind,
		"run_id", runID,
		"created", result.Created,
		"updated", result.Updated,
		"bench", result.Bench,
	)
	return result, nil
}

func (s *Store) upsertEntry(ctx context.Context, tx bun.IDB, entry *Entry) (bool, error) {
	exists, err := tx.NewSelect().Model((*Entry)(nil)).Where("id = ?", entry.ID).Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("snapshot: lookup %s: %w", entry.Key, err)
	}
	if exists {
		if _, err := s.entries.UpdateTx(ctx, tx, entry,
			repository.UpdateByID(entry.ID.String()),
			repository.UpdateColumns("title", "data", "run_id", "updated_at"),
		); err != nil {
			return false, fmt.Errorf("snapshot: update %s: %w", entry.Key, err)
		}
		return false, nil
	}
	if _, err := s.entries.CreateTx(ctx, tx, entry); err != nil {
		return false, fmt.Errorf("snapshot: create %s: %w", entry.Key, err)
	}
	return true, nil
}

func (s *Store) replaceBench(ctx context.Context, tx bun.IDB, entryID uuid.UUID, runID string, now time.Time, row catalog.Row) (int, error) {
	if _, err := tx.NewDelete().Model((*BenchRecord)(nil)).Where("entry_id = ?", entryID).Exec(ctx); err != nil {
		return 0, fmt.Errorf("snapshot: clear bench for %s: %w", row.ID(), err)
	}
	bench, _ := row[catalog.KeyBench].([]catalog.Row)
	for _, item := range bench {
		arch := item.Text(catalog.KeyArch)
		variant := item.Text(catalog.KeyVariant)
		record := &BenchRecord{
			ID:        identity.BenchUUID(entryID, arch, variant),
			EntryID:   entryID,
			Arch:      arch,
			Variant:   variant,
			Data:      map[string]any(item.Clone()),
			RunID:     runID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := s.bench.CreateTx(ctx, tx, record); err != nil {
			return 0, fmt.Errorf("snapshot: store bench %s/%s for %s: %w", arch, variant, row.ID(), err)
		}
	}
	return len(bench), nil
}

// Get loads one entry by kind and id.
func (s *Store) Get(ctx context.Context, kind, id string) (*Entry, error) {
	key := EntryKey(kind, id)
	record, err := s.entries.GetByIdentifier(ctx, key)
	if err != nil {
		return nil, mapRepositoryError(err, key)
	}
	return record, nil
}

// List returns the entries of kind ordered by id.
func (s *Store) List(ctx context.Context, kind string) ([]*Entry, error) {
	records, _, err := s.index.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.kind = ?", kind).Order("entry_id")
	}))
	return records, err
}

// Bench returns the bench records stored for an entry, ordered by arch and variant.
func (s *Store) Bench(ctx context.Context, entryID uuid.UUID) ([]*BenchRecord, error) {
	records, _, err := s.bench.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.entry_id = ?", entryID)
	}))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Arch != records[j].Arch {
			return records[i].Arch < records[j].Arch
		}
		return records[i].Variant < records[j].Variant
	})
	return records, nil
}

func entryData(row catalog.Row) map[string]any {
	data := map[string]any(row.Clone())
	delete(data, catalog.KeyBench)
	delete(data, catalog.KeyMarkdown)
	return data
}

func mapRepositoryError(err error, key string) error {
	if errors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Key: key}
	}
	return fmt.Errorf("snapshot repository error: %w", err)
}
