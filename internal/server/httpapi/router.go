package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// ErasurePath is where the browser client calls the erasure function.
const ErasurePath = "/functions/v1/secure-delete-patient-data"

var (
	corsMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsHeaders = []string{"Content-Type", "Authorization", "X-Client-Info", "Apikey"}
)

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: corsMethods,
		AllowedHeaders: corsHeaders,
	}))
	r.Use(staticCORS)

	r.Get("/healthz", s.Health)

	r.Options(ErasurePath, preflight)
	r.Post(ErasurePath, s.DeleteAllData)

	r.Route("/api/v1", func(r chi.Router) {
		r.Options("/*", preflight)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Get("/profile", s.GetProfile)
			r.Put("/profile", s.SaveProfile)
			r.Get("/profile/avatar", s.GetAvatar)
			r.Post("/profile/avatar", s.CreateAvatarUpload)

			r.Get("/sessions", s.History)
			r.Post("/sessions", s.StartSession)
			r.Post("/sessions/{id}/messages", s.AddMessage)

			r.Get("/audit", s.AuditLog)
		})
	})

	return r
}
