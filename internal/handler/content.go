package handler

import (
	"net/http"

	"github.com/msomdec/coursetrack/internal/service"
)

// ContentHandler serves course structure edits.
type ContentHandler struct {
	content *service.ContentService
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(content *service.ContentService) *ContentHandler {
	return &ContentHandler{content: content}
}

// HandleReorderModules sets the module order of a course.
// PUT /api/courses/{courseID}/modules/order
// Request: {"ids": [3, 1, 2]}
func (h *ContentHandler) HandleReorderModules(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r, "courseID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req reorderRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := h.content.ReorderModules(r.Context(), UserFromContext(r.Context()), courseID, req.IDs); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleReorderLessons sets the lesson order of a module.
// PUT /api/modules/{moduleID}/lessons/order
// Request: {"ids": [3, 1, 2]}
func (h *ContentHandler) HandleReorderLessons(w http.ResponseWriter, r *http.Request) {
	moduleID, err := pathID(r, "moduleID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req reorderRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := h.content.ReorderLessons(r.Context(), UserFromContext(r.Context()), moduleID, req.IDs); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
