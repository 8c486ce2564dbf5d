package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

var (
	ErrMemoryNotFound = errors.New("memory not found")
)

// PageParams describes one keyset page over the memories table.
// The cursor, location filter and date range are all optional; supplied
// filters are conjunctive.
type PageParams struct {
	Limit           int
	CursorCreatedAt *time.Time
	CursorID        int64
	Location        *Location
	From            *time.Time // inclusive
	To              *time.Time // exclusive
}

// MemoryRepository provides CRUD operations for memories.
type MemoryRepository struct {
	db *DB
}

// NewMemoryRepository creates a new MemoryRepository.
func NewMemoryRepository(db *DB) *MemoryRepository {
	return &MemoryRepository{db: db}
}

// Create inserts a new memory record and fills in its assigned ID
// and creation timestamp.
func (r *MemoryRepository) Create(ctx context.Context, m *Memory) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO memories (nickname, image_url, image_key, message, location, size)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`,
		m.Nickname,
		m.ImageURL,
		m.ImageKey,
		m.Message,
		string(m.Location),
		m.Size,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create memory: %w", err)
	}
	return nil
}

// GetByID retrieves a memory by its ID.
func (r *MemoryRepository) GetByID(ctx context.Context, id int64) (*Memory, error) {
	m := &Memory{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, nickname, image_url, image_key, message, location, size, created_at
		FROM memories WHERE id = $1
	`, id).Scan(
		&m.ID,
		&m.Nickname,
		&m.ImageURL,
		&m.ImageKey,
		&m.Message,
		&m.Location,
		&m.Size,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemoryNotFound
		}
		return nil, fmt.Errorf("failed to get memory: %w", err)
	}
	return m, nil
}

// ListPage returns one page of memories ordered by (created_at DESC, id DESC).
// The Postgres row comparison (created_at, id) < (cursor) gives exactly the
// keyset semantics: older created_at, or equal created_at with smaller id.
func (r *MemoryRepository) ListPage(ctx context.Context, p PageParams) ([]Memory, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if p.CursorCreatedAt != nil {
		conds = append(conds, fmt.Sprintf("(created_at, id) < (%s, %s)",
			arg(*p.CursorCreatedAt), arg(p.CursorID)))
	}
	if p.Location != nil {
		conds = append(conds, "location = "+arg(string(*p.Location)))
	}
	if p.From != nil {
		conds = append(conds, "created_at >= "+arg(*p.From))
	}
	if p.To != nil {
		conds = append(conds, "created_at < "+arg(*p.To))
	}

	query := "SELECT id, nickname, image_url, image_key, message, location, size, created_at FROM memories"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT " + arg(p.Limit)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories page: %w", err)
	}
	defer rows.Close()

	var memories []Memory
	for rows.Next() {
		var m Memory
		if err := rows.Scan(
			&m.ID,
			&m.Nickname,
			&m.ImageURL,
			&m.ImageKey,
			&m.Message,
			&m.Location,
			&m.Size,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

// OlderThan returns all memories created before the cutoff, oldest first.
// Used by the retention job, which needs the image keys before deleting rows.
func (r *MemoryRepository) OlderThan(ctx context.Context, cutoff time.Time) ([]Memory, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, nickname, image_url, image_key, message, location, size, created_at
		FROM memories WHERE created_at < $1
		ORDER BY created_at, id
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query old memories: %w", err)
	}
	defer rows.Close()

	var memories []Memory
	for rows.Next() {
		var m Memory
		if err := rows.Scan(
			&m.ID,
			&m.Nickname,
			&m.ImageURL,
			&m.ImageKey,
			&m.Message,
			&m.Location,
			&m.Size,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan old memory: %w", err)
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

// DeleteByIDs removes the given memory rows and reports how many were deleted.
func (r *MemoryRepository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.db.Pool.Exec(ctx, "DELETE FROM memories WHERE id = ANY($1)", ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete memories: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DistinctNicknames counts the distinct nicknames across all memories.
func (r *MemoryRepository) DistinctNicknames(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.Pool.QueryRow(ctx, "SELECT COUNT(DISTINCT nickname) FROM memories").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count distinct nicknames: %w", err)
	}
	return n, nil
}
