package writerbackends

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"imageoptimize/volumes"
)

func TestWriteImageDirectServe(t *testing.T) {
	dir := t.TempDir()
	vol := &volumes.Volume{
		Handle:      "local",
		Type:        volumes.TypeDirectServe,
		BaseURL:     "https://cdn.example.com/img/",
		Subfolder:   "uploads",
		Credentials: map[string]string{"baseDir": dir},
	}

	url, err := WriteImage(context.Background(), vol, "_970x545_q82/photo.jpg", strings.NewReader("data"))
	if err != nil {
		t.Fatalf("WriteImage: %v", err)
	}
	if want := "https://cdn.example.com/img/uploads/_970x545_q82/photo.jpg"; url != want {
		t.Errorf("url = %q, want %q", url, want)
	}

	got, err := os.ReadFile(filepath.Join(dir, "uploads", "_970x545_q82", "photo.jpg"))
	if err != nil {
		t.Fatalf("read written file: %v", err)
	}
	if string(got) != "data" {
		t.Errorf("content = %q", got)
	}
}

func TestWriteImageUnknownType(t *testing.T) {
	vol := &volumes.Volume{Handle: "x", Type: "ftp"}
	if _, err := WriteImage(context.Background(), vol, "a.jpg", strings.NewReader("")); err == nil {
		t.Fatal("expected error for unknown backend type")
	}
}

func TestDirectServeRejectsTraversal(t *testing.T) {
	info := map[string]string{"baseDir": t.TempDir(), "key": "../../etc/passwd"}
	if err := UploadToDirectServe(context.Background(), info, strings.NewReader("x")); err == nil {
		t.Fatal("expected traversal key to be rejected")
	}
}

func TestPublicURLEscapes(t *testing.T) {
	vol := &volumes.Volume{BaseURL: "/serve"}
	if got, want := PublicURL(vol, "_10x10_q80/my photo.jpg"), "/serve/_10x10_q80/my%20photo.jpg"; got != want {
		t.Errorf("PublicURL = %q, want %q", got, want)
	}
}
