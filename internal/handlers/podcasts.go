package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"briefcaster/internal/podcast"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type createPodcastRequest struct {
	TopicIDs []int64 `json:"topic_ids"`
}

type quickGenerateRequest struct {
	UseCached *bool   `json:"use_cached"`
	TopicIDs  []int64 `json:"custom_topic_ids"`
}

func (h *Handlers) CreatePodcast(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req createPodcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	if req.TopicIDs == nil {
		badRequest(w, "topic_ids is required")
		return
	}

	p, err := h.podcasts.CreateRequest(r.Context(), userID, req.TopicIDs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handlers) ListPodcasts(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	page, err := queryInt(r, "page")
	if err != nil {
		badRequest(w, "page must be an integer")
		return
	}
	perPage, err := queryInt(r, "per_page")
	if err != nil {
		badRequest(w, "per_page must be an integer")
		return
	}

	result, err := h.podcasts.ListForUser(r.Context(), userID, page, perPage)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) GetPodcast(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownedPodcast(w, r)
	if !ok {
		return
	}
	detail, err := h.podcasts.GetWithRelations(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handlers) GenerateScript(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownedPodcast(w, r)
	if !ok {
		return
	}
	script, err := h.podcasts.GenerateScript(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"podcast_id": id, "script": script})
}

func (h *Handlers) GenerateAudio(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownedPodcast(w, r)
	if !ok {
		return
	}
	result, err := h.podcasts.GenerateAudio(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) QuickGenerate(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var body quickGenerateRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			badRequest(w, "Invalid request body")
			return
		}
	}
	req := podcast.QuickRequest{UseCached: true, TopicIDs: body.TopicIDs}
	if body.UseCached != nil {
		req.UseCached = *body.UseCached
	}

	result, err := h.podcasts.QuickGenerate(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) DeletePodcast(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownedPodcast(w, r)
	if !ok {
		return
	}
	deleted, err := h.podcasts.DeletePodcast(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !deleted {
		h.writeError(w, r, podcast.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownedPodcast parses the {id} route variable and checks that the caller owns it.
func (h *Handlers) ownedPodcast(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := currentUser(w, r)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		badRequest(w, "Invalid podcast ID")
		return uuid.Nil, false
	}
	if _, err := h.podcasts.GetOwned(r.Context(), userID, id); err != nil {
		h.writeError(w, r, err)
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
