package writerbackends

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"imageoptimize/volumes"
)

// WriteFunc uploads reader to the location described by accessInfo.
// accessInfo holds the volume credentials plus "key", the object path.
type WriteFunc func(ctx context.Context, accessInfo map[string]string, reader io.Reader) error

// Backends maps a volume type to its writer
var Backends = map[string]WriteFunc{
	volumes.TypeDirectServe: UploadToDirectServe,
	volumes.TypeS3:          UploadToS3WithCreds,
	volumes.TypeGCS:         UploadToGCSWithJSON,
	volumes.TypeSFTP:        UploadToSFTPWithCreds,
}

// ObjectKey joins the volume subfolder and a relative key
func ObjectKey(vol *volumes.Volume, key string) string {
	return strings.TrimPrefix(path.Join(vol.Subfolder, key), "/")
}

// WriteImage writes reader to key inside vol and returns the public URL of the file
func WriteImage(ctx context.Context, vol *volumes.Volume, key string, reader io.Reader) (string, error) {
	write, ok := Backends[vol.Type]
	if !ok {
		return "", fmt.Errorf("unknown backend type: %s", vol.Type)
	}

	accessInfo := make(map[string]string, len(vol.Credentials)+1)
	for k, v := range vol.Credentials {
		accessInfo[k] = v
	}
	accessInfo["key"] = ObjectKey(vol, key)

	if err := write(ctx, accessInfo, reader); err != nil {
		return "", fmt.Errorf("failed to upload to %s volume %s: %w", vol.Type, vol.Handle, err)
	}
	return PublicURL(vol, key), nil
}

// PublicURL returns the URL a file written under key is served from
func PublicURL(vol *volumes.Volume, key string) string {
	segments := strings.Split(ObjectKey(vol, key), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(vol.BaseURL, "/") + "/" + strings.Join(segments, "/")
}
