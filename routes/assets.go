package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"imageoptimize/assets"
	"imageoptimize/logger"
	"imageoptimize/models"
)

type assetResponse struct {
	*assets.Asset
	OptimizedImages *models.OptimizedImage `json:"optimizedImages,omitempty"`
	SrcSet          string                 `json:"srcset,omitempty"`
	SrcSetWebP      string                 `json:"srcsetWebp,omitempty"`
}

func (app *App) respondAsset(w http.ResponseWriter, status int, a *assets.Asset) {
	resp := assetResponse{Asset: a}
	if a.Kind == assets.KindImage {
		v, err := app.Field.Value(a)
		if err != nil {
			logger.Warnf("Stored %s value of asset %s is unreadable: %v", app.Field.Handle, a.ID, err)
		} else {
			resp.OptimizedImages = v
			resp.SrcSet = v.SrcSet()
			resp.SrcSetWebP = v.SrcSetWebP()
		}
	}
	writeJSON(w, status, resp)
}

// loadAsset resolves the {id} URL parameter, writing the error response itself
func loadAsset(w http.ResponseWriter, r *http.Request) (*assets.Asset, bool) {
	id := chi.URLParam(r, "id")
	a, err := assets.Get(id)
	if errors.Is(err, assets.ErrAssetNotFound) {
		writeError(w, http.StatusNotFound, "asset not found")
		return nil, false
	}
	if err != nil {
		logger.Errorf("Failed to load asset %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	return a, true
}

func (app *App) GetAssetHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := loadAsset(w, r)
	if !ok {
		return
	}
	app.respondAsset(w, http.StatusOK, a)
}

// ResaveAssetHandler saves an asset unchanged, which regenerates its field value
func (app *App) ResaveAssetHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := loadAsset(w, r)
	if !ok {
		return
	}
	if err := app.Assets.Save(r.Context(), a); err != nil {
		logger.Errorf("Failed to resave asset %s: %v", a.ID, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	app.respondAsset(w, http.StatusOK, a)
}

// FocalPointHandler moves the focal point and regenerates the transforms,
// whose crops depend on it. A null body resets to the center.
func (app *App) FocalPointHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := loadAsset(w, r)
	if !ok {
		return
	}

	var fp *models.FocalPoint
	if err := json.NewDecoder(r.Body).Decode(&fp); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if fp != nil && (fp.X < 0 || fp.X > 1 || fp.Y < 0 || fp.Y > 1) {
		writeError(w, http.StatusBadRequest, "focal point must be within [0,1]")
		return
	}

	a.FocalPoint = fp
	if _, err := app.Transforms.Forget(a); err != nil {
		logger.Warnf("Failed to forget transforms of asset %s: %v", a.ID, err)
	}
	if err := app.Assets.Save(r.Context(), a); err != nil {
		logger.Errorf("Failed to save asset %s: %v", a.ID, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	app.respondAsset(w, http.StatusOK, a)
}
