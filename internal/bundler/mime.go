package bundler

import (
	"path/filepath"
	"strings"
)

var mimeByExt = map[string]string{
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".m4v":  "video/x-m4v",
	".ogv":  "video/ogg",
	".pdf":  "application/pdf",
}

// MIMEByExtension maps a file path to its content type by extension.
// Unrecognised extensions fall back to application/octet-stream so the
// file can still be served as a generic asset.
func MIMEByExtension(path string) string {
	if m, ok := mimeByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return m
	}
	return "application/octet-stream"
}
