package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/varangian-core/mind-place/internal/apperror"
	"github.com/varangian-core/mind-place/internal/model"
	"github.com/varangian-core/mind-place/internal/service"
)

// SnippetHandler exposes snippet CRUD over HTTP.
//
// When the server runs without a database (svc == nil) the handler answers
// every request with usingLocalStorage=true. Clients treat that as a signal
// to run on their local mirror, so a database-less server still serves the
// full API surface instead of erroring.
type SnippetHandler struct {
	svc    *service.SnippetService
	logger *slog.Logger
}

// NewSnippetHandler creates a SnippetHandler. Pass a nil service to run in
// local-storage mode.
func NewSnippetHandler(svc *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{svc: svc, logger: logger}
}

// snippetListResponse is the envelope for GET /api/snippets.
type snippetListResponse struct {
	Snippets          []model.Snippet `json:"snippets"`
	UsingLocalStorage bool            `json:"usingLocalStorage,omitempty"`
}

// snippetResponse is the envelope for single-snippet endpoints.
type snippetResponse struct {
	Snippet           *model.Snippet `json:"snippet"`
	UsingLocalStorage bool           `json:"usingLocalStorage,omitempty"`
}

// createSnippetRequest is the body for POST /api/snippets.
type createSnippetRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	TopicID string `json:"topicId"`
}

// HandleList returns snippets newest first.
//
// HTTP: GET /api/snippets?limit=N&offset=M
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		writeJSON(w, http.StatusOK, snippetListResponse{
			Snippets:          []model.Snippet{},
			UsingLocalStorage: true,
		})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	snippets, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippetListResponse{Snippets: snippets})
}

// HandleGet returns a single snippet with its topic snapshot.
//
// HTTP: GET /api/snippets/{id}
func (h *SnippetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		writeJSON(w, http.StatusOK, snippetResponse{UsingLocalStorage: true})
		return
	}

	snippet, err := h.svc.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippetResponse{Snippet: snippet})
}

// HandleCreate saves a new snippet.
//
// HTTP: POST /api/snippets
// BODY: {"name": "...", "content": "...", "topicId": "..."}
//
// Without a database the handler still answers 201: it mints a local-style
// ID so the client has something to store in its mirror, and marks the
// response usingLocalStorage so the client knows nothing was persisted here.
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createSnippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid snippet JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	// Required fields are checked before the mode branch: a bad request is
	// rejected the same way whether or not a database is attached.
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, apperror.ValidationFailed("name", "snippet name is required"))
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, apperror.ValidationFailed("content", "snippet content is required"))
		return
	}

	if h.svc == nil {
		writeJSON(w, http.StatusCreated, snippetResponse{
			Snippet: &model.Snippet{
				ID:        model.NewLocalSnippetID(),
				Name:      req.Name,
				Content:   req.Content,
				TopicID:   req.TopicID,
				CreatedAt: time.Now().UTC(),
			},
			UsingLocalStorage: true,
		})
		return
	}

	snippet, err := h.svc.Create(r.Context(), req.Name, req.Content, req.TopicID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, snippetResponse{Snippet: snippet})
}
