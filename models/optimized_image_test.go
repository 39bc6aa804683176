package models

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeNil(t *testing.T) {
	o, err := DecodeOptimizedImage(nil)
	if err != nil {
		t.Fatalf("decode nil: %v", err)
	}
	if len(o.OptimizedImageURLs) != 0 || len(o.OptimizedWebPImageURLs) != 0 {
		t.Error("expected empty URL maps")
	}
	if o.FocalPoint != nil || o.OriginalImageWidth != 0 || o.OriginalImageHeight != 0 {
		t.Errorf("expected default focal point and dimensions, got %+v", o)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	o := NewOptimizedImage()
	o.SetURL(320, "https://cdn.example.com/_320x240_q60/photo.jpg")
	o.SetURL(1170, "https://cdn.example.com/_1170x658_q82/photo.jpg")
	o.FocalPoint = &FocalPoint{X: 0.25, Y: 0.75}
	o.OriginalImageWidth = 4000
	o.OriginalImageHeight = 3000

	text, err := o.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	back, err := DecodeOptimizedImage(text)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(o, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	again, err := back.Serialize()
	if err != nil {
		t.Fatalf("serialize again: %v", err)
	}
	if again != text {
		t.Errorf("serialization not stable:\n%s\n%s", text, again)
	}
}

func TestDecodePersistedShape(t *testing.T) {
	raw := `{"optimizedImageUrls":{"320":"/a.jpg","640":"/b.jpg"},
	         "optimizedWebPImageUrls":{"320":"/a.jpg.webp","640":"/b.jpg.webp"},
	         "focalPoint":null,"originalImageWidth":1600,"originalImageHeight":1200,"extra":true}`
	forms := map[string]any{
		"text":  raw,
		"bytes": []byte(raw),
		"object": map[string]any{
			"optimizedImageUrls":     map[string]any{"320": "/a.jpg", "640": "/b.jpg"},
			"optimizedWebPImageUrls": map[string]any{"320": "/a.jpg.webp", "640": "/b.jpg.webp"},
			"focalPoint":             nil,
			"originalImageWidth":     1600,
			"originalImageHeight":    1200,
		},
	}
	for name, in := range forms {
		t.Run(name, func(t *testing.T) {
			o, err := DecodeOptimizedImage(in)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if diff := cmp.Diff([]int{320, 640}, o.Widths()); diff != "" {
				t.Errorf("widths (-want +got):\n%s", diff)
			}
			if o.OptimizedWebPImageURLs[640] != "/b.jpg.webp" || o.OriginalImageHeight != 1200 {
				t.Errorf("unexpected value: %+v", o)
			}
		})
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := DecodeOptimizedImage("{not json"); err == nil {
		t.Error("expected an error for malformed JSON text")
	}
	if _, err := DecodeOptimizedImage(42); err == nil {
		t.Error("expected an error for an unsupported type")
	}
}

func TestEmptyStringIsDefault(t *testing.T) {
	o, err := DecodeOptimizedImage("")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(o.OptimizedImageURLs) != 0 {
		t.Error("expected empty value")
	}
}

// The WebP URL is derived from the standard URL by suffix only; nothing checks
// that the codec actually wrote a WebP file there.
func TestWebPURLIsSuffixConvention(t *testing.T) {
	o := NewOptimizedImage()
	o.SetURL(750, "/img/_750x562_q60/photo.jpg")
	if got := o.OptimizedWebPImageURLs[750]; got != "/img/_750x562_q60/photo.jpg.webp" {
		t.Errorf("unexpected webp url %q", got)
	}
}

func TestSrcSet(t *testing.T) {
	o := NewOptimizedImage()
	o.SetURL(640, "/b.jpg")
	o.SetURL(320, "/a.jpg")
	if got := o.SrcSet(); got != "/a.jpg 320w, /b.jpg 640w" {
		t.Errorf("SrcSet = %q", got)
	}
	if got := o.SrcSetWebP(); got != "/a.jpg.webp 320w, /b.jpg.webp 640w" {
		t.Errorf("SrcSetWebP = %q", got)
	}
	if o.SrcURL() != "/a.jpg" {
		t.Errorf("SrcURL = %q", o.SrcURL())
	}
}

func TestTransformErrorIsFailure(t *testing.T) {
	cause := errors.New("disk full")
	err := error(&TransformError{Job: TransformJob{Width: 320, Height: 240, Quality: 60}, Err: cause})
	if !errors.Is(err, ErrTransformFailure) {
		t.Error("TransformError should match ErrTransformFailure")
	}
	if !errors.Is(err, cause) {
		t.Error("TransformError should unwrap to its cause")
	}
}

func TestSerializeKeyOrder(t *testing.T) {
	o := NewOptimizedImage()
	o.SetURL(320, "/a")
	o.SetURL(1170, "/b")
	text, err := o.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	// width keys sort as strings
	if strings.Index(text, `"1170"`) > strings.Index(text, `"320"`) {
		t.Errorf("unexpected key order: %s", text)
	}
	if diff := cmp.Diff([]int{320, 1170}, o.Widths()); diff != "" {
		t.Errorf("Widths (-want +got):\n%s", diff)
	}
}
