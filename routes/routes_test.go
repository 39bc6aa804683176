package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"imageoptimize/assets"
	"imageoptimize/encoder"
	"imageoptimize/failures"
	"imageoptimize/field"
	"imageoptimize/generator"
	"imageoptimize/models"
	"imageoptimize/success"
	taskqueue "imageoptimize/taskQueue"
	"imageoptimize/transforms"
	"imageoptimize/utils"
	"imageoptimize/volumes"
)

var testSecret = []byte("routes-test-secret-that-is-long-enough")

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	open := func(name string, fn func(string) error, closeFn func() error) {
		if err := fn(filepath.Join(dir, name)); err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		t.Cleanup(func() { closeFn() })
	}
	open("assets.db", assets.Init, assets.Close)
	open("volumes.db", volumes.OpenDB, volumes.CloseDB)
	open("success.db", success.Init, success.Close)
	open("failures.db", failures.Init, failures.Close)
	open("fields.db", field.InitSettings, field.CloseSettings)

	index, err := taskqueue.OpenQueue(filepath.Join(dir, "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { index.Close() })
	queue, err := taskqueue.OpenQueue(filepath.Join(dir, "queue.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { queue.Close() })

	serveDir := filepath.Join(dir, "serve")
	if err := volumes.Store(&volumes.Volume{
		Handle:      volumes.DefaultHandle,
		Type:        volumes.TypeDirectServe,
		BaseURL:     "/serve",
		Credentials: map[string]string{"baseDir": serveDir},
	}); err != nil {
		t.Fatal(err)
	}

	reg := encoder.NewRegistry()
	fake := func(ctx context.Context, in, out string, o encoder.EncodeOptions) error {
		return os.WriteFile(out, []byte(fmt.Sprintf("%dx%d", o.Width, o.Height)), 0644)
	}
	reg.Set("jpg", fake)
	reg.Set("png", fake)
	reg.SetDecodable("jpg", "png")

	tr := transforms.New(reg, index, queue, filepath.Join(dir, "originals"))
	svc := assets.NewService()
	f := field.New("optimizedImages", generator.New(tr.Codec()), tr, svc)
	svc.AddHook(f)

	srv := httptest.NewServer(NewRouter(&App{
		Assets:     svc,
		Field:      f,
		Transforms: tr,
		JWTSecret:  testSecret,
		ServeDir:   serveDir,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func uploadRequest(t *testing.T, url, token, filename string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, url+"/assets", &body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func validToken(t *testing.T) string {
	t.Helper()
	now := time.Now().Unix()
	token, err := utils.CreateUploadJWT(&models.UploadClaims{Subject: "editor", IssuedAt: now, ExpiresAt: now + 300}, testSecret)
	if err != nil {
		t.Fatal(err)
	}
	return token
}

type uploadedAsset struct {
	ID              string                 `json:"id"`
	Filename        string                 `json:"filename"`
	Width           int                    `json:"width"`
	Height          int                    `json:"height"`
	FocalPoint      *models.FocalPoint     `json:"focalPoint"`
	OptimizedImages *models.OptimizedImage `json:"optimizedImages"`
	SrcSet          string                 `json:"srcset"`
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func upload(t *testing.T, srv *httptest.Server) uploadedAsset {
	t.Helper()
	req := uploadRequest(t, srv.URL, validToken(t), "photo.png", pngBytes(t, 400, 300), map[string]string{"focalX": "0.25", "focalY": "0.5"})
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("upload status = %d: %s", resp.StatusCode, b)
	}
	var got uploadedAsset
	decode(t, resp, &got)
	return got
}

func TestUploadGeneratesVariants(t *testing.T) {
	srv := newTestServer(t)
	got := upload(t, srv)

	if got.ID == "" || got.Width != 400 || got.Height != 300 {
		t.Fatalf("unexpected asset: %+v", got)
	}
	if got.FocalPoint == nil || got.FocalPoint.X != 0.25 {
		t.Errorf("focal point = %+v", got.FocalPoint)
	}
	if got.OptimizedImages == nil {
		t.Fatal("missing optimizedImages")
	}
	if u := got.OptimizedImages.OptimizedImageURLs[320]; u != "/serve/_320x240_q60/photo.jpg" {
		t.Errorf("url[320] = %q", u)
	}
	if !strings.Contains(got.SrcSet, "320w") {
		t.Errorf("srcset = %q", got.SrcSet)
	}

	resp, err := http.Get(srv.URL + "/serve/_320x240_q60/photo.jpg")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "320x240" {
		t.Errorf("served transform = %d %q", resp.StatusCode, body)
	}

	resp, err = http.Get(srv.URL + "/success?asset=" + got.ID)
	if err != nil {
		t.Fatal(err)
	}
	var rec map[string]any
	decode(t, resp, &rec)
	if rec["status"] != "success" {
		t.Errorf("success record = %v", rec)
	}
}

func TestUploadRequiresToken(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.DefaultClient.Do(uploadRequest(t, srv.URL, "", "photo.png", pngBytes(t, 10, 10), nil))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestUploadRenamesDuplicates(t *testing.T) {
	srv := newTestServer(t)
	first := upload(t, srv)
	second := upload(t, srv)
	if first.Filename == second.Filename {
		t.Errorf("both uploads stored as %q", first.Filename)
	}
	if second.Filename != "photo_1.png" {
		t.Errorf("second filename = %q, want photo_1.png", second.Filename)
	}
}

func TestGetAsset(t *testing.T) {
	srv := newTestServer(t)
	got := upload(t, srv)

	resp, err := http.Get(srv.URL + "/assets/" + got.ID)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var again uploadedAsset
	decode(t, resp, &again)
	if again.ID != got.ID {
		t.Errorf("id = %q", again.ID)
	}

	resp, err = http.Get(srv.URL + "/assets/missing")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing asset status = %d", resp.StatusCode)
	}
}

func TestFocalPointUpdate(t *testing.T) {
	srv := newTestServer(t)
	got := upload(t, srv)

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/assets/"+got.ID+"/focal-point", strings.NewReader(`{"x":0.9,"y":0.1}`))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	var updated uploadedAsset
	decode(t, resp, &updated)
	if updated.FocalPoint == nil || updated.FocalPoint.X != 0.9 {
		t.Fatalf("focal point = %+v", updated.FocalPoint)
	}
	if fp := updated.OptimizedImages.FocalPoint; fp == nil || fp.Y != 0.1 {
		t.Errorf("field focal point = %+v", fp)
	}

	req, _ = http.NewRequest(http.MethodPut, srv.URL+"/assets/"+got.ID+"/focal-point", strings.NewReader(`{"x":2,"y":0}`))
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("out of range status = %d", resp.StatusCode)
	}
}

func TestVariantsSettings(t *testing.T) {
	srv := newTestServer(t)
	url := srv.URL + "/fields/optimizedImages/variants"

	req, _ := http.NewRequest(http.MethodPut, url, strings.NewReader(`[{"width":0,"aspectRatioX":1,"aspectRatioY":1,"quality":80,"format":"jpg"}]`))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	var problem struct {
		Problems []map[string]any `json:"problems"`
	}
	decode(t, resp, &problem)
	if resp.StatusCode != http.StatusUnprocessableEntity || len(problem.Problems) != 1 {
		t.Fatalf("invalid settings: status %d problems %v", resp.StatusCode, problem.Problems)
	}

	req, _ = http.NewRequest(http.MethodPut, url, strings.NewReader(`[{"width":640,"aspectRatioX":3,"aspectRatioY":2,"retinaSizes":[1,2],"quality":80,"format":"jpg"}]`))
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("valid settings status = %d", resp.StatusCode)
	}

	resp, err = http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	var specs []models.VariantSpec
	decode(t, resp, &specs)
	if len(specs) != 1 || specs[0].Width != 640 {
		t.Errorf("variants = %+v", specs)
	}

	resp, err = http.Get(srv.URL + "/fields/other/variants")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown field status = %d", resp.StatusCode)
	}
}

func TestHealthAndVersion(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	var health HealthResponse
	decode(t, resp, &health)
	if resp.StatusCode != http.StatusOK || health.Status != "healthy" {
		t.Errorf("health = %d %+v", resp.StatusCode, health)
	}

	resp, err = http.Get(srv.URL + "/version")
	if err != nil {
		t.Fatal(err)
	}
	var v VersionResponse
	decode(t, resp, &v)
	if v.Version != "dev" {
		t.Errorf("version = %q", v.Version)
	}
}
