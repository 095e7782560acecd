package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

func (app *application) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(app.logRequest)
	r.Use(middleware.Recoverer)

	if len(app.Config.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: app.Config.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
		}).Handler)
	}

	r.Get("/health", app.handleHealth)
	r.Post("/api/new", app.handleCreateRoom)
	r.Get("/api/rooms", app.handleListRooms)
	r.Get("/ws", app.handleWebSocket)

	if dir := app.Config.StaticDir; dir != "" {
		r.Handle("/*", http.FileServer(http.Dir(dir)))
	}

	return r
}
