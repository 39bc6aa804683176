package assets

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"imageoptimize/models"
)

func openTestStore(t *testing.T) {
	t.Helper()
	if err := Init(filepath.Join(t.TempDir(), "assets.db")); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { Close() })
}

type recordingHook struct {
	calls     []string
	beforeErr error
}

func (h *recordingHook) BeforeElementSave(ctx context.Context, a *Asset, isNew bool) error {
	if isNew {
		h.calls = append(h.calls, "before:new")
	} else {
		h.calls = append(h.calls, "before:"+a.ID)
	}
	return h.beforeErr
}

func (h *recordingHook) AfterElementSave(ctx context.Context, a *Asset, isNew bool) error {
	if a.ID == "" {
		h.calls = append(h.calls, "after:missing-id")
	} else if isNew {
		h.calls = append(h.calls, "after:new")
	} else {
		h.calls = append(h.calls, "after:existing")
	}
	return nil
}

func TestSaveAssignsIdentityAndRunsHooks(t *testing.T) {
	openTestStore(t)
	svc := NewService()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	hook := &recordingHook{}
	svc.AddHook(hook)

	a := &Asset{Filename: "Photo.JPG", Kind: KindImage, Width: 2000, Height: 1500}
	if err := svc.Save(context.Background(), a); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if a.ID == "" {
		t.Fatal("expected id to be assigned")
	}
	if !a.DateCreated.Equal(fixed) || !a.DateUpdated.Equal(fixed) {
		t.Errorf("dates = %v / %v", a.DateCreated, a.DateUpdated)
	}

	if err := svc.Save(context.Background(), a); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	want := []string{"before:new", "after:new", "before:" + a.ID, "after:existing"}
	if diff := cmp.Diff(want, hook.calls); diff != "" {
		t.Errorf("hook calls mismatch (-want +got):\n%s", diff)
	}

	got, err := Get(a.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if diff := cmp.Diff(a, got); diff != "" {
		t.Errorf("stored asset mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveAbortsOnBeforeHookError(t *testing.T) {
	openTestStore(t)
	svc := NewService()
	svc.AddHook(&recordingHook{beforeErr: errors.New("boom")})

	a := &Asset{Filename: "a.png", Kind: KindImage}
	if err := svc.Save(context.Background(), a); err == nil {
		t.Fatal("expected error")
	}
	if a.ID != "" {
		t.Errorf("id assigned despite aborted save: %q", a.ID)
	}
	list, err := List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected nothing persisted, got %d assets", len(list))
	}
}

func TestGetMissing(t *testing.T) {
	openTestStore(t)
	if _, err := Get("nope"); !errors.Is(err, ErrAssetNotFound) {
		t.Fatalf("err = %v, want ErrAssetNotFound", err)
	}
}

func TestPutListDelete(t *testing.T) {
	openTestStore(t)
	for _, id := range []string{"b", "a"} {
		a := &Asset{ID: id, Filename: id + ".jpg", FocalPoint: &models.FocalPoint{X: 0.2, Y: 0.8}}
		if err := Put(a); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	list, err := List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != "a" || list[1].ID != "b" {
		t.Fatalf("unexpected list: %+v", list)
	}
	if err := Delete("a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := Get("a"); !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("expected deleted asset to be gone, err = %v", err)
	}
}

func TestKindAndExtension(t *testing.T) {
	tests := []struct {
		name, kind, ext string
	}{
		{"photo.JPG", KindImage, "jpg"},
		{"doc.pdf", KindDocument, "pdf"},
		{"clip.mp4", KindVideo, "mp4"},
		{"README", KindUnknown, ""},
	}
	for _, tt := range tests {
		if got := KindFromFilename(tt.name); got != tt.kind {
			t.Errorf("KindFromFilename(%q) = %q, want %q", tt.name, got, tt.kind)
		}
		a := &Asset{Filename: tt.name}
		if got := a.Extension(); got != tt.ext {
			t.Errorf("Extension(%q) = %q, want %q", tt.name, got, tt.ext)
		}
	}
}
