package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// OptimizedImage is the stored value of an optimized images field.
// It is replaced wholesale on every regeneration.
type OptimizedImage struct {
	OptimizedImageURLs     map[int]string `json:"optimizedImageUrls"`
	OptimizedWebPImageURLs map[int]string `json:"optimizedWebPImageUrls"`
	FocalPoint             *FocalPoint    `json:"focalPoint"`
	OriginalImageWidth     int            `json:"originalImageWidth"`
	OriginalImageHeight    int            `json:"originalImageHeight"`
}

// WebPSuffix is appended to a transform URL to address its WebP sibling.
// The sibling is served by convention and is not checked for existence.
const WebPSuffix = ".webp"

// NewOptimizedImage returns an empty value: no URLs, no focal point, zero dimensions
func NewOptimizedImage() *OptimizedImage {
	return &OptimizedImage{
		OptimizedImageURLs:     map[int]string{},
		OptimizedWebPImageURLs: map[int]string{},
	}
}

// SetURL records the transform URL for a width, overwriting any earlier entry at that width
func (o *OptimizedImage) SetURL(width int, url string) {
	o.OptimizedImageURLs[width] = url
	o.OptimizedWebPImageURLs[width] = url + WebPSuffix
}

// DecodeOptimizedImage builds a value from whatever the content store handed back:
// nil, JSON text (string or []byte), an already decoded JSON object, or a value.
func DecodeOptimizedImage(raw any) (*OptimizedImage, error) {
	switch v := raw.(type) {
	case nil:
		return NewOptimizedImage(), nil
	case *OptimizedImage:
		if v == nil {
			return NewOptimizedImage(), nil
		}
		return v.Clone(), nil
	case OptimizedImage:
		return v.Clone(), nil
	case string:
		return decodeText([]byte(v))
	case []byte:
		return decodeText(v)
	case json.RawMessage:
		return decodeText(v)
	case map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to re-encode field value: %w", err)
		}
		return decodeText(data)
	default:
		return nil, fmt.Errorf("unsupported field value type %T", raw)
	}
}

func decodeText(data []byte) (*OptimizedImage, error) {
	if strings.TrimSpace(string(data)) == "" || strings.TrimSpace(string(data)) == "null" {
		return NewOptimizedImage(), nil
	}
	o := NewOptimizedImage()
	if err := json.Unmarshal(data, o); err != nil {
		return nil, fmt.Errorf("failed to decode field value: %w", err)
	}
	if o.OptimizedImageURLs == nil {
		o.OptimizedImageURLs = map[int]string{}
	}
	if o.OptimizedWebPImageURLs == nil {
		o.OptimizedWebPImageURLs = map[int]string{}
	}
	return o, nil
}

// Serialize encodes the value as JSON text. encoding/json sorts map keys, so the
// output for a given value is always the same.
func (o *OptimizedImage) Serialize() (string, error) {
	if o == nil {
		o = NewOptimizedImage()
	}
	data, err := json.Marshal(o)
	if err != nil {
		return "", fmt.Errorf("failed to encode field value: %w", err)
	}
	return string(data), nil
}

// Clone returns a deep copy
func (o *OptimizedImage) Clone() *OptimizedImage {
	c := NewOptimizedImage()
	for k, v := range o.OptimizedImageURLs {
		c.OptimizedImageURLs[k] = v
	}
	for k, v := range o.OptimizedWebPImageURLs {
		c.OptimizedWebPImageURLs[k] = v
	}
	if o.FocalPoint != nil {
		fp := *o.FocalPoint
		c.FocalPoint = &fp
	}
	c.OriginalImageWidth = o.OriginalImageWidth
	c.OriginalImageHeight = o.OriginalImageHeight
	return c
}

// Widths returns the produced widths in ascending order
func (o *OptimizedImage) Widths() []int {
	widths := make([]int, 0, len(o.OptimizedImageURLs))
	for w := range o.OptimizedImageURLs {
		widths = append(widths, w)
	}
	sort.Ints(widths)
	return widths
}

// SrcURL returns the URL of the smallest variant, used as the img src fallback
func (o *OptimizedImage) SrcURL() string {
	widths := o.Widths()
	if len(widths) == 0 {
		return ""
	}
	return o.OptimizedImageURLs[widths[0]]
}

// SrcSet renders the standard URLs as an srcset attribute value
func (o *OptimizedImage) SrcSet() string {
	return srcset(o.Widths(), o.OptimizedImageURLs)
}

// SrcSetWebP renders the WebP URLs as an srcset attribute value
func (o *OptimizedImage) SrcSetWebP() string {
	return srcset(o.Widths(), o.OptimizedWebPImageURLs)
}

func srcset(widths []int, urls map[int]string) string {
	parts := make([]string, 0, len(widths))
	for _, w := range widths {
		if u, ok := urls[w]; ok {
			parts = append(parts, fmt.Sprintf("%s %dw", u, w))
		}
	}
	return strings.Join(parts, ", ")
}
