package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes wires the HTTP surface: the JSON file/user API plus the
// realtime socket endpoint.
func SetupRoutes(h *Handlers, wsHandler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(LoggingMiddleware)

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Get("/files", h.ListFiles)
		r.Post("/upload", h.Upload)
		r.Post("/save", h.Save)
		r.Get("/files/{filename}", h.OpenFile)
		r.Delete("/files/{filename}", h.DeleteFile)
	})

	r.Handle("/socket.io/ws", wsHandler)

	fs := http.FileServer(http.Dir("static"))
	r.Handle("/*", fs)

	return r
}
