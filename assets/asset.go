// Package assets keeps the records of uploaded files and runs the save
// pipeline field types hook into.
package assets

import (
	"path"
	"strings"
	"time"

	"imageoptimize/models"
)

// Asset kinds
const (
	KindImage    = "image"
	KindDocument = "document"
	KindVideo    = "video"
	KindUnknown  = "unknown"
)

type Asset struct {
	ID          string             `json:"id"`
	Filename    string             `json:"filename"`
	Kind        string             `json:"kind"`
	Volume      string             `json:"volume"`     // handle of the volume transforms are written to
	Path        string             `json:"path"`       // folder inside the volume, "" for the root
	Width       int                `json:"width"`      // pixels, 0 when unknown
	Height      int                `json:"height"`     // pixels, 0 when unknown
	FocalPoint  *models.FocalPoint `json:"focalPoint"` // nil = centered
	Fields      map[string]string  `json:"fields,omitempty"`
	DateCreated time.Time          `json:"dateCreated"`
	DateUpdated time.Time          `json:"dateUpdated"`
}

// IsNew reports whether the asset has not been persisted yet
func (a *Asset) IsNew() bool {
	return a.ID == ""
}

// Extension returns the lowercased file extension without the dot
func (a *Asset) Extension() string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(a.Filename), "."))
}

// FieldValue returns the stored content of a field, "" when unset
func (a *Asset) FieldValue(handle string) string {
	if a.Fields == nil {
		return ""
	}
	return a.Fields[handle]
}

// SetFieldValue stores the serialized content of a field
func (a *Asset) SetFieldValue(handle, value string) {
	if a.Fields == nil {
		a.Fields = make(map[string]string)
	}
	a.Fields[handle] = value
}

var imageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "jpe": true, "png": true, "gif": true, "webp": true,
	"avif": true, "bmp": true, "tif": true, "tiff": true, "heic": true, "svg": true,
}

var videoExtensions = map[string]bool{
	"mp4": true, "mov": true, "webm": true, "mkv": true, "avi": true,
}

// KindFromFilename derives the asset kind from the file extension
func KindFromFilename(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	switch {
	case ext == "":
		return KindUnknown
	case imageExtensions[ext]:
		return KindImage
	case videoExtensions[ext]:
		return KindVideo
	default:
		return KindDocument
	}
}
