package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"memoir/internal/server/config"
	"memoir/internal/server/database"
	"memoir/internal/server/imaging"
	"memoir/internal/server/pagination"
	"memoir/internal/server/storage"
)

// Sentinel errors for the service layer.
var (
	ErrNotFound      = errors.New("memory not found")
	ErrValidation    = errors.New("invalid memory input")
	ErrImageTooLarge = errors.New("image exceeds maximum allowed size")
)

// defaultNickname is used when the caller omits one.
const defaultNickname = "anonymous"

// MemoryStore is the persistence interface the service works against.
type MemoryStore interface {
	Create(ctx context.Context, m *database.Memory) error
	GetByID(ctx context.Context, id int64) (*database.Memory, error)
	ListPage(ctx context.Context, p database.PageParams) ([]database.Memory, error)
	OlderThan(ctx context.Context, cutoff time.Time) ([]database.Memory, error)
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
}

// CreateMemoryInput carries one validated-and-normalized write request.
type CreateMemoryInput struct {
	Nickname    string
	Message     string
	Location    string
	Size        int64 // optional; non-positive means "measure from the upload"
	Image       []byte
	ContentType string
}

// ListRequest carries raw read-path query parameters. Invalid filter values
// are tolerated and ignored; only write paths reject bad input.
type ListRequest struct {
	Limit    string
	CursorID string
	Location string
	Date     string
}

// Page is one page of memories plus the cursor for the next one.
// NextCursor is nil when the data is exhausted.
type Page struct {
	Items      []database.Memory
	NextCursor *pagination.Cursor
}

// MemoryService contains the business logic for memory writes, reads and
// retention cleanup.
type MemoryService struct {
	memories   MemoryStore
	stats      *StatsService
	objects    storage.ObjectStore
	normalizer imaging.Normalizer
	cfg        *config.Config
	now        func() time.Time
}

// NewMemoryService creates a new memory service.
func NewMemoryService(memories MemoryStore, stats *StatsService, objects storage.ObjectStore, normalizer imaging.Normalizer, cfg *config.Config) *MemoryService {
	return &MemoryService{
		memories:   memories,
		stats:      stats,
		objects:    objects,
		normalizer: normalizer,
		cfg:        cfg,
		now:        time.Now,
	}
}

// CreateMemory handles an incoming memory write: validates the input,
// normalizes and stores the image, inserts the record, then credits the
// aggregate counters. Counter-update failures are logged and swallowed;
// the memories table is authoritative and the stats row is a derived,
// eventually-consistent view of it.
func (s *MemoryService) CreateMemory(ctx context.Context, in CreateMemoryInput) (*database.Memory, error) {
	// Validation runs before any side effect.
	if len(in.Image) == 0 {
		return nil, fmt.Errorf("%w: image is required", ErrValidation)
	}
	if in.Message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrValidation)
	}
	location, ok := database.ParseLocation(in.Location)
	if !ok {
		return nil, fmt.Errorf("%w: location must be one of MOUNTAIN, SEA, SKY", ErrValidation)
	}
	if int64(len(in.Image)) > s.cfg.MaxUploadSize {
		return nil, ErrImageTooLarge
	}

	nickname := in.Nickname
	if nickname == "" {
		nickname = defaultNickname
	}

	// The size counter tracks the original upload, not the normalized copy.
	size := in.Size
	if size <= 0 {
		size = int64(len(in.Image))
	}

	normalized, err := s.normalizer.Normalize(in.Image, in.ContentType)
	if err != nil {
		return nil, err
	}

	key := storage.NewKey(normalized.Ext)
	if _, err := s.objects.Save(key, bytes.NewReader(normalized.Data)); err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	memory := &database.Memory{
		Nickname: nickname,
		ImageURL: fmt.Sprintf("%s/images/%s", s.cfg.BaseURL, key),
		ImageKey: key,
		Message:  in.Message,
		Location: location,
		Size:     size,
	}

	if err := s.memories.Create(ctx, memory); err != nil {
		// Clean up stored image on DB failure
		if delErr := s.objects.Delete(key); delErr != nil {
			slog.Error("failed to clean up stored image", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("failed to create memory record: %w", err)
	}

	// Best-effort: the write already succeeded, counter errors never
	// surface to the caller.
	if err := s.stats.RecordMemoryAdded(ctx, size); err != nil {
		slog.Error("failed to update aggregate stats", "memory_id", memory.ID, "error", err)
	}

	slog.Info("memory created",
		"id", memory.ID,
		"nickname", memory.Nickname,
		"location", memory.Location,
		"size", size,
		"image_key", key,
	)

	return memory, nil
}

// GetMemory returns a single memory by ID.
func (s *MemoryService) GetMemory(ctx context.Context, id int64) (*database.Memory, error) {
	memory, err := s.memories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrMemoryNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return memory, nil
}

// ListMemories resolves the raw request into a page query and executes it.
//
// A cursorId that references no existing record is ignored and the first
// page is returned: the retention job may have deleted the cursor row out
// from under a paginating client, and stranding it on an error would make
// old cursors poisonous.
func (s *MemoryService) ListMemories(ctx context.Context, req ListRequest) (*Page, error) {
	query := pagination.Query{Limit: pagination.ParseLimit(req.Limit)}

	if loc, ok := database.ParseLocation(req.Location); ok {
		query.Location = &loc
	}
	if bucket, ok := pagination.ParseBucket(req.Date); ok {
		query.Bucket = &bucket
	}

	if req.CursorID != "" {
		if id, err := strconv.ParseInt(req.CursorID, 10, 64); err == nil {
			cursorRow, err := s.memories.GetByID(ctx, id)
			switch {
			case err == nil:
				query.Cursor = &pagination.Cursor{CreatedAt: cursorRow.CreatedAt, ID: cursorRow.ID}
			case errors.Is(err, database.ErrMemoryNotFound):
				slog.Warn("unknown pagination cursor, returning first page", "cursor_id", id)
			default:
				return nil, err
			}
		}
	}

	items, err := s.memories.ListPage(ctx, query.Params(s.now()))
	if err != nil {
		return nil, err
	}

	return &Page{
		Items:      items,
		NextCursor: pagination.NextCursor(items, query.Limit),
	}, nil
}

// CleanupOlderThan deletes all memories created before now-window, together
// with their stored image objects, and returns the number of rows removed.
// Aggregate counters are left untouched: they are historical totals and do
// not roll back when old rows age out.
//
// Objects are deleted before rows, so a failed row deletion leaves memories
// with dangling image URLs until the next cycle picks them up again;
// deleting an already-missing object is a no-op, so the retry converges.
func (s *MemoryService) CleanupOlderThan(ctx context.Context, window time.Duration) (int64, error) {
	cutoff := s.now().Add(-window)

	old, err := s.memories.OlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if len(old) == 0 {
		return 0, nil
	}

	ids := make([]int64, 0, len(old))
	for _, m := range old {
		if err := s.objects.Delete(m.ImageKey); err != nil {
			slog.Error("failed to delete stored image", "memory_id", m.ID, "key", m.ImageKey, "error", err)
		}
		ids = append(ids, m.ID)
	}

	deleted, err := s.memories.DeleteByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}

	slog.Info("cleaned up old memories", "deleted", deleted, "cutoff", cutoff)
	return deleted, nil
}
