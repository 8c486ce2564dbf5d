package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"memoir/internal/server/config"
	"memoir/internal/server/database"
	"memoir/internal/server/imaging"
	"memoir/internal/server/service"
	"memoir/internal/server/storage"

	"github.com/labstack/echo/v4"
)

// Handler contains the HTTP handlers for the memoir API.
type Handler struct {
	memories *service.MemoryService
	stats    *service.StatsService
	objects  storage.ObjectStore
	db       *database.DB
	cfg      *config.Config
}

// NewHandler creates a new handler with the given dependencies.
func NewHandler(memories *service.MemoryService, stats *service.StatsService, objects storage.ObjectStore, db *database.DB, cfg *config.Config) *Handler {
	return &Handler{
		memories: memories,
		stats:    stats,
		objects:  objects,
		db:       db,
		cfg:      cfg,
	}
}

// memoryResponse is the client-facing shape of a memory record.
type memoryResponse struct {
	ID        int64     `json:"id"`
	Nickname  string    `json:"nickname"`
	ImageURL  string    `json:"imageUrl"`
	Message   string    `json:"message"`
	Location  string    `json:"location"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

func toResponse(m *database.Memory) memoryResponse {
	return memoryResponse{
		ID:        m.ID,
		Nickname:  m.Nickname,
		ImageURL:  m.ImageURL,
		Message:   m.Message,
		Location:  string(m.Location),
		Size:      m.Size,
		CreatedAt: m.CreatedAt,
	}
}

// HandleCreateMemory handles POST /memory.
// Accepts a multipart form with an "image" part and fields "nickname"
// (optional), "message", "location" and "size" (optional).
func (h *Handler) HandleCreateMemory(c echo.Context) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "image is required (use form field 'image')",
		})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "failed to read uploaded image",
		})
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.cfg.MaxUploadSize+1))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "failed to read uploaded image",
		})
	}

	var size int64
	if raw := c.FormValue("size"); raw != "" {
		size, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || size < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "size must be a non-negative integer",
			})
		}
	}

	memory, err := h.memories.CreateMemory(c.Request().Context(), service.CreateMemoryInput{
		Nickname:    c.FormValue("nickname"),
		Message:     c.FormValue("message"),
		Location:    c.FormValue("location"),
		Size:        size,
		Image:       data,
		ContentType: fileHeader.Header.Get("Content-Type"),
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, toResponse(memory))
}

// HandleListMemories handles GET /memories.
// Query parameters: location, date (TODAY|YESTERDAY|DBY), cursorId, limit.
func (h *Handler) HandleListMemories(c echo.Context) error {
	page, err := h.memories.ListMemories(c.Request().Context(), service.ListRequest{
		Limit:    c.QueryParam("limit"),
		CursorID: c.QueryParam("cursorId"),
		Location: c.QueryParam("location"),
		Date:     c.QueryParam("date"),
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	items := make([]memoryResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, toResponse(&page.Items[i]))
	}

	resp := echo.Map{"items": items}
	if page.NextCursor != nil {
		resp["nextCursor"] = page.NextCursor
	}
	return c.JSON(http.StatusOK, resp)
}

// HandleGetMemory handles GET /memories/:id.
func (h *Handler) HandleGetMemory(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "memory not found"})
	}

	memory, err := h.memories.GetMemory(c.Request().Context(), id)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, toResponse(memory))
}

// HandleImage handles GET /images/:key, serving stored image objects.
func (h *Handler) HandleImage(c echo.Context) error {
	path, err := h.objects.Path(c.Param("key"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "image not found"})
	}
	return c.File(path)
}

// HandleCleanupSummary handles GET /cloud-cleanup-summary.
func (h *Handler) HandleCleanupSummary(c echo.Context) error {
	summary, err := h.stats.Summary(c.Request().Context())
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// HandleCleanup handles POST /internal/cleanup (shared-secret protected).
// Deletes memories older than the retention window and returns the count.
func (h *Handler) HandleCleanup(c echo.Context) error {
	deleted, err := h.memories.CleanupOlderThan(c.Request().Context(), h.cfg.RetentionWindow)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deletedCount": deleted})
}

// HandleRegisterDeleted handles POST /internal/deleted-photos
// (shared-secret protected). Credits the cleaned-up photo counter by the
// supplied amount; the count is not tied 1:1 to memory rows.
func (h *Handler) HandleRegisterDeleted(c echo.Context) error {
	var body struct {
		Count int64 `json:"count"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	if err := h.stats.RecordPhotosDeleted(c.Request().Context(), body.Count); err != nil {
		return mapServiceError(c, err)
	}

	summary, err := h.stats.Summary(c.Request().Context())
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// HandleHealth handles GET /health.
// Returns the health status of the server, including database connectivity.
func (h *Handler) HandleHealth(c echo.Context) error {
	status := "healthy"
	dbStatus := "connected"

	if err := h.db.HealthCheck(c.Request().Context()); err != nil {
		status = "degraded"
		dbStatus = fmt.Sprintf("error: %v", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":   status,
		"database": dbStatus,
	})
}

// mapServiceError translates service-layer errors into appropriate HTTP
// responses. Storage and database failures report generically; the cause
// stays in the logs.
func mapServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "memory not found"})
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, imaging.ErrUnsupportedFormat):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrImageTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{
			"error": "image exceeds maximum allowed size",
		})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}
