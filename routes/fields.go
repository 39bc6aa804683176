package routes

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"imageoptimize/logger"
	"imageoptimize/variants"
)

// fieldFromURL checks the {handle} parameter against the configured field
func (app *App) fieldFromURL(w http.ResponseWriter, r *http.Request) bool {
	if handle := chi.URLParam(r, "handle"); handle != app.Field.Handle {
		writeError(w, http.StatusNotFound, "unknown field "+handle)
		return false
	}
	return true
}

func (app *App) GetVariantsHandler(w http.ResponseWriter, r *http.Request) {
	if !app.fieldFromURL(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, app.Field.Variants())
}

// PutVariantsHandler replaces the variant settings. Malformed settings are
// rejected with 422 and the problems found.
func (app *App) PutVariantsHandler(w http.ResponseWriter, r *http.Request) {
	if !app.fieldFromURL(w, r) {
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	if err := app.Field.SetVariants(body); err != nil {
		var cfgErr *variants.ConfigError
		if errors.As(err, &cfgErr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":    cfgErr.Error(),
				"problems": cfgErr.Problems,
			})
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := app.Field.SaveSettings(); err != nil {
		logger.Errorf("Failed to persist settings of field %s: %v", app.Field.Handle, err)
		writeError(w, http.StatusInternalServerError, "Failed to persist settings")
		return
	}
	writeJSON(w, http.StatusOK, app.Field.Variants())
}
