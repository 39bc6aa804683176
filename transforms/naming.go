package transforms

import (
	"fmt"
	"path"
	"strings"

	"imageoptimize/assets"
	"imageoptimize/encoder"
	"imageoptimize/models"
)

// TransformDir returns the folder name of a transform, e.g. "_970x545_q82"
func TransformDir(job models.TransformJob) string {
	return fmt.Sprintf("_%dx%d_q%d", job.Width, job.Height, job.Quality)
}

// TransformKey returns the path of a transform inside the asset's volume
func TransformKey(a *assets.Asset, job models.TransformJob) string {
	base := strings.TrimSuffix(a.Filename, path.Ext(a.Filename))
	format := encoder.Normalize(job.Format)
	if format == "" {
		format = a.Extension()
	}
	return path.Join(a.Path, TransformDir(job), base+"."+format)
}

// indexKey identifies a transform across volumes
func indexKey(volume, key string) string {
	return volume + ":" + key
}

// belongsTo reports whether rel, a key relative to the asset's folder,
// is a transform of a ("_<w>x<h>_q<q>/<name>.<fmt>")
func belongsTo(rel string, a *assets.Asset) bool {
	dir, file := path.Split(rel)
	if !strings.HasPrefix(dir, "_") || strings.Count(dir, "/") != 1 {
		return false
	}
	base := strings.TrimSuffix(a.Filename, path.Ext(a.Filename))
	return strings.TrimSuffix(file, path.Ext(file)) == base
}
