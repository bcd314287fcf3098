package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/linkmirror/linkmirror/internal/httpserver/deps"
	"github.com/linkmirror/linkmirror/internal/httpserver/handlers"
)

func init() { Register(registerSync) }

func registerSync(r chi.Router, d deps.Deps) {
	r.Post("/sync", handlers.Sync(d))
}
