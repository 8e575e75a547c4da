package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"briefcaster/internal/middleware"
	"briefcaster/internal/models"
	"briefcaster/internal/podcast"
	"briefcaster/pkg/tasks"

	"github.com/google/uuid"
)

// PodcastService is the part of podcast.Service exposed over HTTP.
type PodcastService interface {
	CreateRequest(ctx context.Context, userID uuid.UUID, topicIDs []int64) (models.Podcast, error)
	GenerateScript(ctx context.Context, podcastID uuid.UUID) (string, error)
	GenerateAudio(ctx context.Context, podcastID uuid.UUID) (podcast.AudioResult, error)
	QuickGenerate(ctx context.Context, userID uuid.UUID, req podcast.QuickRequest) (podcast.QuickResult, error)
	GetOwned(ctx context.Context, userID, podcastID uuid.UUID) (models.Podcast, error)
	GetWithRelations(ctx context.Context, podcastID uuid.UUID) (podcast.Detail, error)
	ListForUser(ctx context.Context, userID uuid.UUID, page, perPage int) (podcast.Page, error)
	DeletePodcast(ctx context.Context, podcastID uuid.UUID) (bool, error)
}

type Handlers struct {
	podcasts         PodcastService
	asynqClient      tasks.TaskEnqueuer
	audioStoragePath string
	baseURL          string
	logger           *slog.Logger
}

func New(podcasts PodcastService, asynqClient tasks.TaskEnqueuer, audioStoragePath, baseURL string, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		podcasts:         podcasts,
		asynqClient:      asynqClient,
		audioStoragePath: audioStoragePath,
		baseURL:          baseURL,
		logger:           logger,
	}
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// statusFor maps a service failure tag to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, podcast.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, podcast.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, podcast.ErrQuotaExceeded):
		return http.StatusForbidden
	case errors.Is(err, podcast.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, podcast.ErrGenerationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: podcast.Kind(err), Detail: podcast.Reason(err)}
	switch status {
	case http.StatusInternalServerError:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		resp.Detail = "Internal server error"
	case http.StatusBadGateway:
		h.logger.Warn("upstream generation failed", "method", r.Method, "path", r.URL.Path, "error", err)
		resp.Detail = "Podcast generation failed"
	case http.StatusNotFound:
		resp.Detail = "Not found"
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

func badRequest(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_input", Detail: detail})
}

func currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
	}
	return userID, ok
}
