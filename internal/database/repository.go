package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

var (
	// ErrDuplicate is returned by Insert when a record with the same
	// fingerprint is already stored. The existing record is never touched.
	ErrDuplicate = errors.New("item with identical content already exists")

	// ErrNotFound is returned by point lookups for unknown ids.
	ErrNotFound = errors.New("history item not found")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("repository is closed")
)

// Repository is the bounded, pin-aware history store. A single mutex
// serializes all operations; store operations are never concurrent with
// each other, which keeps the uniqueness and eviction invariants race-free.
type Repository struct {
	mu     sync.Mutex
	db     *bun.DB
	closed bool
}

func NewRepository(dbPath string) (*Repository, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	repo := &Repository{db: db}

	if err := repo.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	ctx := context.Background()

	if _, err := r.db.NewCreateTable().
		Model((*HistoryItem)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create history table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_history_created_at ON clipboard_history(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_history_hash ON clipboard_history(hash)",
		"CREATE INDEX IF NOT EXISTS idx_history_pinned ON clipboard_history(pinned)",
		"CREATE INDEX IF NOT EXISTS idx_history_content_type ON clipboard_history(content_type)",
	}

	for _, idx := range indexes {
		if _, err := r.db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// HashExists is the cheap existence check callers run before doing any
// expensive encode or asset work for a capture.
func (r *Repository) HashExists(ctx context.Context, hash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false, ErrClosed
	}

	exists, err := r.db.NewSelect().
		Model((*HistoryItem)(nil)).
		Where("hash = ?", hash).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check hash existence: %w", err)
	}
	return exists, nil
}

// Insert persists a new record and returns its assigned id. A record whose
// fingerprint is already stored is rejected with ErrDuplicate.
func (r *Repository) Insert(ctx context.Context, item *HistoryItem) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, ErrClosed
	}

	exists, err := r.db.NewSelect().
		Model((*HistoryItem)(nil)).
		Where("hash = ?", item.Hash).
		Exists(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to check existing item: %w", err)
	}
	if exists {
		return 0, ErrDuplicate
	}

	if _, err := r.db.NewInsert().Model(item).Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to insert history item: %w", err)
	}

	return item.ID, nil
}

// RecentItems lists records pinned-first, newest-first within each group.
// A non-positive limit means unlimited.
func (r *Repository) RecentItems(ctx context.Context, limit int) ([]*HistoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}

	var items []*HistoryItem
	q := r.db.NewSelect().
		Model(&items).
		Order("pinned DESC", "created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list history items: %w", err)
	}
	return items, nil
}

// SearchItems does a substring match over plain_text and preview, with the
// same ordering as RecentItems.
func (r *Repository) SearchItems(ctx context.Context, query string, limit int) ([]*HistoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}

	pattern := "%" + query + "%"

	var items []*HistoryItem
	q := r.db.NewSelect().
		Model(&items).
		Where("plain_text LIKE ? OR preview LIKE ?", pattern, pattern).
		Order("pinned DESC", "created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to search history items: %w", err)
	}
	return items, nil
}

func (r *Repository) GetItemByID(ctx context.Context, id int64) (*HistoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}

	var item HistoryItem
	err := r.db.NewSelect().
		Model(&item).
		Where("id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item by id: %w", err)
	}
	return &item, nil
}

func (r *Repository) SetPinned(ctx context.Context, id int64, pinned bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}

	res, err := r.db.NewUpdate().
		Model((*HistoryItem)(nil)).
		Set("pinned = ?", pinned).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set pinned state: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteItem removes one record, reporting whether a row was deleted.
func (r *Repository) DeleteItem(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false, ErrClosed
	}

	res, err := r.db.NewDelete().
		Model((*HistoryItem)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to delete item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// ClearAllItems removes every record, pinned ones included.
func (r *Repository) ClearAllItems(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}

	if _, err := r.db.NewDelete().
		Model((*HistoryItem)(nil)).
		Where("1=1").
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, ErrClosed
	}

	count, err := r.db.NewSelect().
		Model((*HistoryItem)(nil)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count history items: %w", err)
	}
	return count, nil
}

// EnforceLimit deletes every unpinned record outside the max most-recent
// ones. Pinned records always survive. A non-positive max is unlimited and
// deletes nothing. The retain set is computed by a single DELETE statement,
// so the operation is one consistent snapshot and naturally idempotent.
func (r *Repository) EnforceLimit(ctx context.Context, max int) (int64, error) {
	if max <= 0 {
		return 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, ErrClosed
	}

	retain := r.db.NewSelect().
		Model((*HistoryItem)(nil)).
		Column("id").
		Where("pinned = FALSE").
		Order("created_at DESC").
		Limit(max)

	res, err := r.db.NewDelete().
		Model((*HistoryItem)(nil)).
		Where("pinned = FALSE").
		Where("id NOT IN (?)", retain).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to enforce storage limit: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

func (r *Repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.db.Close()
}
