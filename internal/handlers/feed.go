package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"path/filepath"

	"briefcaster/internal/db"
	"briefcaster/internal/feed"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

func (h *Handlers) GetRSSFeed(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(mux.Vars(r)["userID"])
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	user, err := db.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Error getting user", "user_id", userID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	podcasts, err := db.GetCompletedPodcastsByUserID(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("Error getting podcasts", "user_id", userID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	rss, err := feed.GenerateRSS(user, podcasts, feed.BaseURL(r, h.baseURL))
	if err != nil {
		h.logger.Error("Error generating RSS", "user_id", userID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml")
	w.Write([]byte(rss))
}

func (h *Handlers) ServeAudioFile(w http.ResponseWriter, r *http.Request) {
	filename := filepath.Base(mux.Vars(r)["filename"])
	if filepath.Ext(filename) != ".mp3" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeFile(w, r, filepath.Join(h.audioStoragePath, filename))
}
