package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/varangian-core/mind-place/internal/apperror"
	"github.com/varangian-core/mind-place/internal/model"
	"github.com/varangian-core/mind-place/internal/service"
)

// TopicHandler exposes topic CRUD over HTTP. Like SnippetHandler it keeps
// serving in local-storage mode when constructed without a service.
type TopicHandler struct {
	svc    *service.TopicService
	logger *slog.Logger
}

// NewTopicHandler creates a TopicHandler. Pass a nil service to run in
// local-storage mode.
func NewTopicHandler(svc *service.TopicService, logger *slog.Logger) *TopicHandler {
	return &TopicHandler{svc: svc, logger: logger}
}

type topicListResponse struct {
	Topics            []model.Topic `json:"topics"`
	UsingLocalStorage bool          `json:"usingLocalStorage,omitempty"`
}

type topicResponse struct {
	Topic             *model.Topic `json:"topic"`
	UsingLocalStorage bool         `json:"usingLocalStorage,omitempty"`
}

type createTopicRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// HandleList returns all topics by name ascending, each with its snippet count.
//
// HTTP: GET /api/topics
func (h *TopicHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		writeJSON(w, http.StatusOK, topicListResponse{
			Topics:            []model.Topic{},
			UsingLocalStorage: true,
		})
		return
	}

	topics, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, topicListResponse{Topics: topics})
}

// HandleCreate saves a new topic.
//
// HTTP: POST /api/topics
// BODY: {"name": "...", "description": "...", "icon": "..."}
func (h *TopicHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createTopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid topic JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	// Required fields are checked before the mode branch: a bad request is
	// rejected the same way whether or not a database is attached.
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, apperror.ValidationFailed("name", "topic name is required"))
		return
	}

	if h.svc == nil {
		writeJSON(w, http.StatusCreated, topicResponse{
			Topic: &model.Topic{
				ID:          model.NewLocalTopicID(),
				Name:        req.Name,
				Description: req.Description,
				Icon:        req.Icon,
				CreatedAt:   time.Now().UTC(),
			},
			UsingLocalStorage: true,
		})
		return
	}

	topic, err := h.svc.Create(r.Context(), req.Name, req.Description, req.Icon)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, topicResponse{Topic: topic})
}

// HandleDelete removes a topic; its snippets are reassigned to
// "uncategorized" in the same transaction.
//
// HTTP: DELETE /api/topics/{id}
func (h *TopicHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		writeJSON(w, http.StatusOK, topicResponse{UsingLocalStorage: true})
		return
	}

	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
