package routes

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"imageoptimize/assets"
	"imageoptimize/field"
	"imageoptimize/logger"
	"imageoptimize/transforms"
)

// App carries what the handlers need
type App struct {
	Assets     *assets.Service
	Field      *field.Field
	Transforms *transforms.Service
	JWTSecret  []byte
	ServeDir   string // root of the local direct-serve volume
}

// NewRouter registers every route of the server
func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	r.Get("/health", HealthHandler)
	r.Get("/version", VersionHandler)

	r.Route("/assets", func(r chi.Router) {
		r.Post("/", app.UploadHandler)
		r.Get("/{id}", app.GetAssetHandler)
		r.Post("/{id}/resave", app.ResaveAssetHandler)
		r.Put("/{id}/focal-point", app.FocalPointHandler)
	})

	r.Route("/fields/{handle}/variants", func(r chi.Router) {
		r.Get("/", app.GetVariantsHandler)
		r.Put("/", app.PutVariantsHandler)
	})

	r.Get("/success", SuccessQueryHandler)
	r.Get("/success/list", SuccessListHandler)
	r.Get("/failures", FailureQueryHandler)
	r.Get("/failures/list", FailureListHandler)

	if app.ServeDir != "" {
		fs := http.StripPrefix("/serve/", http.FileServer(http.Dir(app.ServeDir)))
		r.Get("/serve/*", fs.ServeHTTP)
	}

	return r
}

// writeJSON sends v with the given status
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("Failed to encode response: %v", err)
	}
}

// writeError sends {"error": msg}
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
