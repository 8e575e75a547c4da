package handlers

import (
	"net/http"

	"briefcaster/internal/middleware"

	"github.com/gorilla/mux"
)

// NewRouter wires every endpoint. Quick generate is the only rate-limited route.
func NewRouter(h *Handlers, auth *middleware.Auth, limiter *middleware.RateLimiterMiddleware) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
	r.HandleFunc("/rss/{userID}", h.GetRSSFeed).Methods(http.MethodGet)
	r.HandleFunc("/audio/{filename}", h.ServeAudioFile).Methods(http.MethodGet, http.MethodHead)

	api := r.PathPrefix("/podcasts").Subrouter()
	api.Use(auth.Middleware)
	api.Handle("/quick-generate", limiter.Middleware(http.HandlerFunc(h.QuickGenerate))).Methods(http.MethodPost)
	api.HandleFunc("", h.CreatePodcast).Methods(http.MethodPost)
	api.HandleFunc("", h.ListPodcasts).Methods(http.MethodGet)
	api.HandleFunc("/{id}", h.GetPodcast).Methods(http.MethodGet)
	api.HandleFunc("/{id}", h.DeletePodcast).Methods(http.MethodDelete)
	api.HandleFunc("/{id}/generate-script", h.GenerateScript).Methods(http.MethodPost)
	api.HandleFunc("/{id}/generate-audio", h.GenerateAudio).Methods(http.MethodPost)

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.Middleware, middleware.RequireAdmin)
	admin.HandleFunc("/podcasts/daily", h.TriggerDailyBatch).Methods(http.MethodPost)
	admin.HandleFunc("/users/{userID}/podcasts", h.TriggerUserGeneration).Methods(http.MethodPost)

	return r
}
