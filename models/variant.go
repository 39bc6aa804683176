package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// VariantSpec describes one desired output image of the optimized images field
type VariantSpec struct {
	Width        int       `json:"width" yaml:"width"`               // base width in pixels, before retina multipliers
	AspectRatioX float64   `json:"aspectRatioX" yaml:"aspectRatioX"` // ratio = X/Y
	AspectRatioY float64   `json:"aspectRatioY" yaml:"aspectRatioY"`
	RetinaSizes  []float64 `json:"retinaSizes" yaml:"retinaSizes"` // e.g. [1, 2]
	Quality      int       `json:"quality" yaml:"quality"`         // 1–100
	Format       string    `json:"format" yaml:"format"`           // "" = use the asset's own format
}

// AspectRatio returns X/Y
func (v VariantSpec) AspectRatio() float64 {
	return v.AspectRatioX / v.AspectRatioY
}

// variantWire mirrors VariantSpec but tolerates numbers stored as strings,
// which is how older settings persisted retina sizes ("1", "2").
type variantWire struct {
	Width        flexNumber   `json:"width"`
	AspectRatioX flexNumber   `json:"aspectRatioX"`
	AspectRatioY flexNumber   `json:"aspectRatioY"`
	RetinaSizes  []flexNumber `json:"retinaSizes"`
	Quality      flexNumber   `json:"quality"`
	Format       *string      `json:"format"`
}

// UnmarshalJSON accepts numeric fields as JSON numbers or numeric strings
func (v *VariantSpec) UnmarshalJSON(data []byte) error {
	var w variantWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	v.Width = int(w.Width)
	v.AspectRatioX = float64(w.AspectRatioX)
	v.AspectRatioY = float64(w.AspectRatioY)
	v.Quality = int(w.Quality)
	v.Format = ""
	if w.Format != nil {
		v.Format = *w.Format
	}
	v.RetinaSizes = nil
	for _, r := range w.RetinaSizes {
		v.RetinaSizes = append(v.RetinaSizes, float64(r))
	}
	return nil
}

// flexNumber decodes from a JSON number, a numeric string or null
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", s)
		}
		*n = flexNumber(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = flexNumber(f)
	return nil
}

// TransformJob is one concrete rendering request derived from a variant and a retina multiplier.
// It lives only for the duration of a generation run.
type TransformJob struct {
	Width      int     `json:"width"`      // effective width (base width * multiplier, rounded)
	Height     int     `json:"height"`     // effective height from the aspect ratio, floored
	Quality    int     `json:"quality"`    // 1–100
	Format     string  `json:"format"`     // "" = use the asset's own format
	Multiplier float64 `json:"multiplier"` // retina multiplier the job was derived from
	SpecIndex  int     `json:"specIndex"`  // position of the source VariantSpec
}

// FocalPoint is the editor-chosen point of interest, in relative coordinates (0..1)
type FocalPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
