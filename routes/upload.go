package routes

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"imageoptimize/assets"
	"imageoptimize/encoder"
	"imageoptimize/logger"
	"imageoptimize/models"
	"imageoptimize/utils"
	"imageoptimize/volumes"
)

// verifyJWT verifies the JWT from the request and returns the claims
func (app *App) verifyJWT(r *http.Request) (*models.UploadClaims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, fmt.Errorf("authorization header required")
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == authHeader {
		return nil, fmt.Errorf("invalid authorization header format")
	}

	return utils.VerifyUploadJWT(token, utils.VerifyConfig{SecretKey: app.JWTSecret})
}

// cleanFolder turns a client supplied folder into a relative slash path
func cleanFolder(folder string) (string, error) {
	folder = strings.Trim(strings.ReplaceAll(folder, "\\", "/"), "/")
	if folder == "" {
		return "", nil
	}
	cleaned := path.Clean(folder)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("invalid folder %q", folder)
	}
	return cleaned, nil
}

// uniqueFilename returns name, or name with a numeric suffix, so that no
// existing file in dir shares its base name
func uniqueFilename(dir, name string) string {
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	taken := func(b string) bool {
		matches, _ := filepath.Glob(filepath.Join(dir, globEscape(b)+".*"))
		return len(matches) > 0
	}
	if !taken(base) {
		return name
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", base, i)
		if !taken(candidate) {
			return candidate + ext
		}
	}
}

func globEscape(s string) string {
	r := strings.NewReplacer("[", "\\[", "]", "\\]", "*", "\\*", "?", "\\?")
	return r.Replace(s)
}

// parseFocalPoint reads optional focalX/focalY form values in [0,1]
func parseFocalPoint(xs, ys string) (*models.FocalPoint, error) {
	if xs == "" && ys == "" {
		return nil, nil
	}
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid focalX: %w", err)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid focalY: %w", err)
	}
	if x < 0 || x > 1 || y < 0 || y > 1 {
		return nil, errors.New("focal point must be within [0,1]")
	}
	return &models.FocalPoint{X: x, Y: y}, nil
}

// UploadHandler stores an original and saves it as a new asset. The field
// value is generated by the save pipeline.
func (app *App) UploadHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := app.verifyJWT(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, fmt.Sprintf("Invalid token: %v", err))
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil { // 32 MB in memory
		writeError(w, http.StatusBadRequest, "Failed to parse multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to get file from form")
		return
	}
	defer file.Close()

	fp, err := parseFocalPoint(r.FormValue("focalX"), r.FormValue("focalY"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	folder, err := cleanFolder(claims.Folder)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	volume := claims.Volume
	if volume == "" {
		volume = volumes.DefaultHandle
	}
	if _, err := volumes.Get(volume); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(header.Filename, "\\", "/")))
	if name == "/" || name == "." {
		writeError(w, http.StatusBadRequest, "missing filename")
		return
	}

	a := &assets.Asset{
		Kind:       assets.KindFromFilename(name),
		Volume:     volume,
		Path:       folder,
		FocalPoint: fp,
	}
	dir := app.Transforms.OriginalDir(folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Errorf("Failed to create originals folder %s: %v", dir, err)
		writeError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}
	a.Filename = uniqueFilename(dir, name)

	dst := app.Transforms.OriginalPath(a)
	if err := saveUpload(dst, file); err != nil {
		logger.Errorf("Failed to store upload %s: %v", dst, err)
		writeError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	if a.Kind == assets.KindImage {
		if width, height, _, err := encoder.Probe(dst); err == nil {
			a.Width, a.Height = width, height
		} else {
			logger.Warnf("Could not read dimensions of %s: %v", dst, err)
		}
	}

	if err := app.Assets.Save(r.Context(), a); err != nil {
		logger.Errorf("Failed to save asset %s: %v", a.Filename, err)
		if a.ID == "" {
			os.Remove(dst)
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Infof("Uploaded asset %s (%s, %dx%d)", a.ID, a.Filename, a.Width, a.Height)
	app.respondAsset(w, http.StatusCreated, a)
}

func saveUpload(dst string, src io.Reader) error {
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(dst)
		return err
	}
	return f.Close()
}
