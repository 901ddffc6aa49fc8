package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/yourusername/songwriter-studio/internal/auth"
	"github.com/yourusername/songwriter-studio/internal/backup"
	"github.com/yourusername/songwriter-studio/internal/database"
	"github.com/yourusername/songwriter-studio/internal/models"
	"github.com/yourusername/songwriter-studio/internal/search"
)

// Failure kinds surfaced in the error envelope.
const (
	KindUnauthorized = "UNAUTHORIZED"
	KindNotFound     = "NOT_FOUND"
	KindValidation   = "VALIDATION_FAILED"
	KindInternal     = "INTERNAL"
)

// Store is the storage accessor the handlers operate on. *database.DB
// satisfies it; tests substitute an in-memory implementation.
type Store interface {
	CreateProject(userID string, req *models.CreateProjectRequest) (*models.SongProject, error)
	GetProject(userID, id string) (*models.SongProject, error)
	ListProjects(userID string) ([]models.SongProject, error)
	UpdateProject(userID, id string, patch *models.UpdateProjectRequest) (*models.SongProject, error)
	CreateSection(projectID string, orderIndex int, req *models.CreateSectionRequest) (*models.SongSection, error)
	ListSections(projectID string) ([]models.SongSection, error)
	UpdateSection(projectID, id string, patch *models.UpdateSectionRequest) (*models.SongSection, error)
	DeleteSection(projectID, id string) error
	SearchSections(userID, query string) ([]models.SectionHit, error)
	AllSectionHits() ([]models.SectionHit, error)
	EditCount() (int, error)
}

type Handler struct {
	store     Store
	search    *search.Client
	backups   *backup.Manager
	skipIndex bool
}

func New(store Store, sc *search.Client, backups *backup.Manager, skipIndex bool) *Handler {
	return &Handler{
		store:     store,
		search:    sc,
		backups:   backups,
		skipIndex: skipIndex,
	}
}

func ok(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func okList(c *fiber.Ctx, items any, total int) error {
	return ok(c, fiber.StatusOK, fiber.Map{
		"items": items,
		"total": total,
	})
}

func fail(c *fiber.Ctx, status int, kind, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error": fiber.Map{
			"kind":    kind,
			"message": message,
		},
	})
}

// storeFail maps storage errors onto the envelope. NotFound covers both a
// missing record and one the caller does not own.
func storeFail(c *fiber.Ctx, err error, notFoundMessage string) error {
	if errors.Is(err, database.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, KindNotFound, notFoundMessage)
	}
	if errors.Is(err, database.ErrNoFields) {
		return fail(c, fiber.StatusBadRequest, KindValidation, "at least one field is required")
	}
	log.Printf("Storage error: %v", err)
	return fail(c, fiber.StatusInternalServerError, KindInternal, "storage operation failed")
}

// afterMutation runs the backup edit-count check without blocking the
// response.
func (h *Handler) afterMutation() {
	if h.backups == nil {
		return
	}
	go func() {
		count, err := h.store.EditCount()
		if err != nil {
			log.Printf("Error getting edit count: %v", err)
			return
		}
		if err := h.backups.NoteEditCount(count); err != nil {
			log.Printf("Error checking backup threshold: %v", err)
		}
	}()
}

func (h *Handler) indexSection(section *models.SongSection, project *models.SongProject) {
	if h.skipIndex || h.search == nil {
		return
	}
	hit := &models.SectionHit{
		SongSection:  *section,
		UserID:       project.UserID,
		ProjectTitle: project.Title,
	}
	if err := h.search.IndexSection(hit); err != nil {
		// Search is best effort, never fail the request over it
		log.Printf("Error indexing section %s: %v", section.ID, err)
	}
}

func (h *Handler) unindexSection(id string) {
	if h.skipIndex || h.search == nil {
		return
	}
	if err := h.search.DeleteSection(id); err != nil {
		log.Printf("Error removing section %s from index: %v", id, err)
	}
}

// ============ Project Handlers ============

// CreateProject creates a new project owned by the caller
func (h *Handler) CreateProject(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, KindUnauthorized, err.Error())
	}

	var req models.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, KindValidation, "invalid request body")
	}

	if strings.TrimSpace(req.Title) == "" {
		return fail(c, fiber.StatusBadRequest, KindValidation, "title is required")
	}

	project, err := h.store.CreateProject(userID, &req)
	if err != nil {
		return storeFail(c, err, "project not found")
	}

	h.afterMutation()

	return ok(c, fiber.StatusCreated, project)
}

// ListProjects returns all projects owned by the caller
func (h *Handler) ListProjects(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, KindUnauthorized, err.Error())
	}

	projects, err := h.store.ListProjects(userID)
	if err != nil {
		return storeFail(c, err, "project not found")
	}

	return okList(c, projects, len(projects))
}

// GetProject retrieves one owned project by ID
func (h *Handler) GetProject(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, KindUnauthorized, err.Error())
	}

	// Params are backed by the reused request buffer, copy before they
	// cross into the store
	id := utils.CopyString(c.Params("id"))
	if id == "" {
		return fail(c, fiber.StatusBadRequest, KindValidation, "id is required")
	}

	project, err := h.store.GetProject(userID, id)
	if err != nil {
		return storeFail(c, err, "project not found")
	}

	return ok(c, fiber.StatusOK, project)
}

// UpdateProject applies a partial update to an owned project
func (h *Handler) UpdateProject(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, KindUnauthorized, err.Error())
	}

	// Params are backed by the reused request buffer, copy before they
	// cross into the store
	id := utils.CopyString(c.Params("id"))
	if id == "" {
		return fail(c, fiber.StatusBadRequest, KindValidation, "id is required")
	}

	var req models.UpdateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, KindValidation, "invalid request body")
	}

	// Empty patches are rejected before the store is touched
	if req.IsEmpty() {
		return fail(c, fiber.StatusBadRequest, KindValidation, "at least one field is required")
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return fail(c, fiber.StatusBadRequest, KindValidation, "title must not be empty")
	}

	project, err := h.store.UpdateProject(userID, id, &req)
	if err != nil {
		return storeFail(c, err, "project not found")
	}

	h.afterMutation()

	return ok(c, fiber.StatusOK, project)
}

// ============ Section Handlers ============

// ownedProject resolves the parent project scoped to the caller. Sections
// carry no owner of their own; this lookup is the authorization boundary
// for every section operation.
func (h *Handler) ownedProject(userID, projectID string) (*models.SongProject, error) {
	return h.store.GetProject(userID, projectID)
}

// CreateSection creates a new section under an owned project
func (h *Handler) CreateSection(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, KindUnauthorized, err.Error())
	}

	projectID := utils.CopyString(c.Params("projectId"))
	if projectID == "" {
		return fail(c, fiber.StatusBadRequest, KindValidation, "songProjectId is required")
	}

	var req models.CreateSectionRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, KindValidation, "invalid request body")
	}

	if strings.TrimSpace(req.Lyrics) == "" {
		return fail(c, fiber.StatusBadRequest, KindValidation, "lyrics is required")
	}

	project, err := h.ownedProject(userID, projectID)
	if err != nil {
		return storeFail(c, err, "project not found")
	}

	orderIndex := 1
	if req.OrderIndex != nil {
		orderIndex = *req.OrderIndex
	}

	section, err := h.store.CreateSection(project.ID, orderIndex, &req)
	if err != nil {
		return storeFail(c, err, "project not found")
	}

	h.indexSection(section, project)
	h.afterMutation()

	return ok(c, fiber.StatusCreated, section)
}

// ListSections returns all sections of an owned project
func (h *Handler) ListSections(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, KindUnauthorized, err.Error())
	}

	projectID := utils.CopyString(c.Params("projectId"))
	if projectID == "" {
		return fail(c, fiber.StatusBadRequest, KindValidation, "songProjectId is required")
	}

	if _, err := h.ownedProject(userID, projectID); err != nil {
		return storeFail(c, err, "project not found")
	}

	sections, err := h.store.ListSections(projectID)
	if err != nil {
		return storeFail(c, err, "section not found")
	}

	return okList(c, sections, len(sections))
}

// UpdateSection applies a partial update to a section of an owned project
func (h *Handler) UpdateSection(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, KindUnauthorized, err.Error())
	}

	projectID := utils.CopyString(c.Params("projectId"))
	id := utils.CopyString(c.Params("id"))
	if projectID == "" || id == "" {
		return fail(c, fiber.StatusBadRequest, KindValidation, "id and songProjectId are required")
	}

	var req models.UpdateSectionRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, KindValidation, "invalid request body")
	}

	if req.IsEmpty() {
		return fail(c, fiber.StatusBadRequest, KindValidation, "at least one field is required")
	}
	if req.Lyrics != nil && strings.TrimSpace(*req.Lyrics) == "" {
		return fail(c, fiber.StatusBadRequest, KindValidation, "lyrics must not be empty")
	}

	project, err := h.ownedProject(userID, projectID)
	if err != nil {
		return storeFail(c, err, "project not found")
	}

	section, err := h.store.UpdateSection(projectID, id, &req)
	if err != nil {
		return storeFail(c, err, "section not found")
	}

	h.indexSection(section, project)
	h.afterMutation()

	return ok(c, fiber.StatusOK, section)
}

// DeleteSection deletes a section of an owned project
func (h *Handler) DeleteSection(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, KindUnauthorized, err.Error())
	}

	projectID := utils.CopyString(c.Params("projectId"))
	id := utils.CopyString(c.Params("id"))
	if projectID == "" || id == "" {
		return fail(c, fiber.StatusBadRequest, KindValidation, "id and songProjectId are required")
	}

	if _, err := h.ownedProject(userID, projectID); err != nil {
		return storeFail(c, err, "project not found")
	}

	if err := h.store.DeleteSection(projectID, id); err != nil {
		return storeFail(c, err, "section not found")
	}

	h.unindexSection(id)
	h.afterMutation()

	return ok(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

// ============ Search Handlers ============

// SearchSections searches the caller's sections across all their projects
func (h *Handler) SearchSections(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, KindUnauthorized, err.Error())
	}

	query := utils.CopyString(c.Query("q"))
	if query == "" {
		// Treat an empty query as a wildcard listing
		query = "*"
	}

	// Fall back to PostgreSQL when the search index is disabled
	if h.search == nil {
		hits, err := h.store.SearchSections(userID, query)
		if err != nil {
			return storeFail(c, err, "section not found")
		}
		return okList(c, hits, len(hits))
	}

	hits, err := h.search.Search(userID, query)
	if err != nil {
		log.Printf("Error searching sections: %v", err)
		return fail(c, fiber.StatusInternalServerError, KindInternal, "search failed")
	}

	return okList(c, hits, len(hits))
}

// ReindexAll rebuilds the search index from the database
func (h *Handler) ReindexAll(c *fiber.Ctx) error {
	if h.search == nil {
		return fail(c, fiber.StatusBadRequest, KindValidation, "search index is disabled")
	}

	hits, err := h.store.AllSectionHits()
	if err != nil {
		return storeFail(c, err, "section not found")
	}

	if err := h.search.ReindexAll(hits); err != nil {
		log.Printf("Error reindexing: %v", err)
		return fail(c, fiber.StatusInternalServerError, KindInternal, "reindex failed")
	}

	return ok(c, fiber.StatusOK, fiber.Map{"indexed": len(hits)})
}

// ============ Admin Handlers ============

// GetBackups lists all retained backups
func (h *Handler) GetBackups(c *fiber.Ctx) error {
	if h.backups == nil {
		return fail(c, fiber.StatusBadRequest, KindValidation, "backups are disabled")
	}

	backups, err := h.backups.List()
	if err != nil {
		log.Printf("Error listing backups: %v", err)
		return fail(c, fiber.StatusInternalServerError, KindInternal, "failed to list backups")
	}

	return okList(c, backups, len(backups))
}

// CreateBackup manually triggers a backup
func (h *Handler) CreateBackup(c *fiber.Ctx) error {
	if h.backups == nil {
		return fail(c, fiber.StatusBadRequest, KindValidation, "backups are disabled")
	}

	if err := h.backups.Create("manual"); err != nil {
		log.Printf("Error creating backup: %v", err)
		return fail(c, fiber.StatusInternalServerError, KindInternal, "failed to create backup")
	}

	return ok(c, fiber.StatusOK, fiber.Map{"created": true})
}

// HealthCheck returns server health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
	})
}
