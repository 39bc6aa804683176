package variants

import (
	"math"

	"imageoptimize/models"
)

// Plan expands variants into transform jobs, one per variant and retina multiplier.
// Specs are the outer loop and multipliers the inner one; later jobs win when two
// resolve to the same width, so this order matters. No deduplication happens here.
func Plan(specs []models.VariantSpec) []models.TransformJob {
	var jobs []models.TransformJob
	for i, spec := range specs {
		sizes := spec.RetinaSizes
		if len(sizes) == 0 {
			sizes = []float64{1}
		}
		for _, m := range sizes {
			width := int(math.Round(float64(spec.Width) * m))
			jobs = append(jobs, models.TransformJob{
				Width:      width,
				Height:     height(width, spec),
				Quality:    spec.Quality,
				Format:     spec.Format,
				Multiplier: m,
				SpecIndex:  i,
			})
		}
	}
	return jobs
}

// height is floor(width / (x/y)), computed as width*y/x so whole-number ratios
// such as 4:3 do not lose a pixel to float rounding.
func height(width int, spec models.VariantSpec) int {
	return int(math.Floor(float64(width) * spec.AspectRatioY / spec.AspectRatioX))
}
