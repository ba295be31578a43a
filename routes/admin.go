package routes

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"edu-chatbot-backend/internal/logger"
	"edu-chatbot-backend/models"
	"edu-chatbot-backend/services"
	"edu-chatbot-backend/utils"
)

// DocumentCatalog is the persistence surface the admin handlers need.
// *database.DocumentStore implements it.
type DocumentCatalog interface {
	Create(ctx context.Context, doc *models.Document) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Document, error)
	List(ctx context.Context) ([]models.Document, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	UpdateSourceURL(ctx context.Context, id primitive.ObjectID, url string) error
	ExistsByTriple(ctx context.Context, syllabus, class, subject string, exclude primitive.ObjectID) (bool, error)
	Categories(ctx context.Context) (*models.CategoryLists, error)
}

// ChunkCatalog deletes a document's chunks alongside the document.
type ChunkCatalog interface {
	DeleteAll(ctx context.Context, documentID primitive.ObjectID) (int64, error)
}

// Enqueuer submits ingestion jobs.
type Enqueuer interface {
	EnqueueIngest(documentID string) error
}

// Locker matches the ingestion lease; deletion takes the same lease so
// it cannot interleave with a running ingestion.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), ok bool, err error)
}

// AdminHandler manages the document catalog. Every create and every
// source URL change enqueues ingestion; the worker does the heavy
// lifting asynchronously.
type AdminHandler struct {
	docs   DocumentCatalog
	chunks ChunkCatalog
	queue  Enqueuer
	locks  Locker
}

func NewAdminHandler(docs DocumentCatalog, chunks ChunkCatalog, queue Enqueuer, locks Locker) *AdminHandler {
	return &AdminHandler{docs: docs, chunks: chunks, queue: queue, locks: locks}
}

// HandleCreate handles POST /api/admin/documents.
func (h *AdminHandler) HandleCreate(c *gin.Context) {
	var req models.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithBadRequest(c, "Invalid request", err.Error())
		return
	}

	ctx := c.Request.Context()
	exists, err := h.docs.ExistsByTriple(ctx, req.Syllabus, req.Class, req.Subject, primitive.NilObjectID)
	if err != nil {
		utils.RespondWithInternalError(c, "Failed to check existing documents", nil)
		return
	}
	if exists {
		utils.RespondWithError(c, http.StatusConflict, "duplicate_categories",
			"A document already exists for this syllabus, class and subject", nil)
		return
	}

	doc := &models.Document{
		SourceURL: req.SourceURL,
		Syllabus:  req.Syllabus,
		Class:     req.Class,
		Subject:   req.Subject,
	}
	if err := h.docs.Create(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			utils.RespondWithError(c, http.StatusConflict, "duplicate_categories",
				"A document already exists for this syllabus, class and subject", nil)
			return
		}
		utils.RespondWithInternalError(c, "Failed to create document", nil)
		return
	}

	if err := h.queue.EnqueueIngest(doc.ID.Hex()); err != nil {
		// The document stays pending; a later URL update or manual
		// re-enqueue picks it up.
		logger.Error("Failed to enqueue ingestion", "document_id", doc.ID.Hex(), "error", err)
	}

	c.JSON(http.StatusCreated, doc)
}

// HandleUpdate handles PUT /api/admin/documents/:id. A changed source
// URL resets the document and re-runs ingestion.
func (h *AdminHandler) HandleUpdate(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.RespondWithBadRequest(c, "Invalid document id", nil)
		return
	}

	var req models.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithBadRequest(c, "Invalid request", err.Error())
		return
	}

	ctx := c.Request.Context()
	doc, err := h.docs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			utils.RespondWithNotFound(c, "Document not found")
			return
		}
		utils.RespondWithInternalError(c, "Failed to load document", nil)
		return
	}

	if doc.SourceURL == req.SourceURL {
		c.JSON(http.StatusOK, doc)
		return
	}

	if err := h.docs.UpdateSourceURL(ctx, id, req.SourceURL); err != nil {
		utils.RespondWithInternalError(c, "Failed to update document", nil)
		return
	}
	if err := h.queue.EnqueueIngest(id.Hex()); err != nil {
		logger.Error("Failed to enqueue ingestion", "document_id", id.Hex(), "error", err)
	}

	updated, err := h.docs.Get(ctx, id)
	if err != nil {
		utils.RespondWithInternalError(c, "Failed to load document", nil)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// HandleList handles GET /api/admin/documents.
func (h *AdminHandler) HandleList(c *gin.Context) {
	docs, err := h.docs.List(c.Request.Context())
	if err != nil {
		utils.RespondWithInternalError(c, "Failed to list documents", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// HandleGet handles GET /api/admin/documents/:id.
func (h *AdminHandler) HandleGet(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.RespondWithBadRequest(c, "Invalid document id", nil)
		return
	}

	doc, err := h.docs.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			utils.RespondWithNotFound(c, "Document not found")
			return
		}
		utils.RespondWithInternalError(c, "Failed to load document", nil)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// HandleDelete handles DELETE /api/admin/documents/:id. Deletion takes
// the document's ingestion lease, so it is refused while a worker holds
// it and a worker cannot start mid-delete. The chunks go with the
// document.
func (h *AdminHandler) HandleDelete(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.RespondWithBadRequest(c, "Invalid document id", nil)
		return
	}

	ctx := c.Request.Context()
	doc, err := h.docs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			utils.RespondWithNotFound(c, "Document not found")
			return
		}
		utils.RespondWithInternalError(c, "Failed to load document", nil)
		return
	}

	if doc.IngestionInFlight() {
		utils.RespondWithError(c, http.StatusConflict, "ingestion_in_progress",
			"Document is being ingested; retry once it is ready or failed", nil)
		return
	}

	release, ok, err := h.locks.Acquire(ctx, services.IngestLeaseKey(id.Hex()))
	if err != nil {
		utils.RespondWithInternalError(c, "Failed to acquire ingestion lease", nil)
		return
	}
	if !ok {
		utils.RespondWithError(c, http.StatusConflict, "ingestion_in_progress",
			"Document is being ingested; retry once it is ready or failed", nil)
		return
	}
	defer release()

	if err := h.docs.Delete(ctx, id); err != nil {
		utils.RespondWithInternalError(c, "Failed to delete document", nil)
		return
	}
	deleted, err := h.chunks.DeleteAll(ctx, id)
	if err != nil {
		// The document itself is gone; leftover chunks are unreachable
		// without an active generation.
		logger.Error("Failed to delete chunks", "document_id", id.Hex(), "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true, "chunks_removed": deleted})
}

// CategoriesHandler serves the public taxonomy listing.
type CategoriesHandler struct {
	docs DocumentCatalog
}

func NewCategoriesHandler(docs DocumentCatalog) *CategoriesHandler {
	return &CategoriesHandler{docs: docs}
}

// HandleCategories handles GET /api/categories.
func (h *CategoriesHandler) HandleCategories(c *gin.Context) {
	lists, err := h.docs.Categories(c.Request.Context())
	if err != nil {
		utils.RespondWithInternalError(c, "Failed to load categories", nil)
		return
	}
	c.JSON(http.StatusOK, lists)
}
