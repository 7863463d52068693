package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/docuflow/internal/filter"
	"github.com/starford/docuflow/internal/organizer"
)

const maxBodyBytes = 1 << 20

// Handler holds JSON API route handlers.
type Handler struct {
	sess *organizer.Session
}

// NewHandler creates a new Handler.
func NewHandler(sess *organizer.Session) *Handler {
	return &Handler{sess: sess}
}

// ListDocuments handles GET /api/documents.
// Query parameters category and q filter like the page does; they do not
// change the session's own filters. Responses carry an ETag.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := q.Get("category")
	if category == "" {
		category = filter.All
	}
	docs := filter.Apply(h.sess.Store().Documents(), category, q.Get("q"))
	writeJSONTagged(w, r, DocumentListResponse{Documents: docs, Total: len(docs)})
}

// CreateDocument handles POST /api/documents.
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	doc, err := h.sess.AddDocument(req.Name, req.CategoryID, &organizer.Scripted{})
	if err != nil {
		writeActionError(w, "create document", err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// DeleteDocument handles DELETE /api/documents/{id}.
// The caller answers the confirmation up front with ?confirm=true.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	p := &organizer.Scripted{Answer: confirmed}
	removed, err := h.sess.DeleteDocument(id, p)
	if err != nil {
		writeActionError(w, "delete document", err)
		return
	}
	if !confirmed {
		writeJSON(w, http.StatusPreconditionRequired, ConfirmRequiredResponse{
			Error:  "confirmation required",
			Prompt: organizer.MsgConfirmDelete,
		})
		return
	}
	if !removed {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCategories handles GET /api/categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSONTagged(w, r, CategoryListResponse{Categories: h.sess.Store().Categories()})
}

// CreateCategory handles POST /api/categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	cat, err := h.sess.AddCategory(req.Name, req.Color, &organizer.Scripted{})
	if err != nil {
		writeActionError(w, "create category", err)
		return
	}
	writeJSON(w, http.StatusCreated, cat)
}

// View handles GET /api/view.
func (h *Handler) View(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newViewResponse(h.sess.View()))
}
