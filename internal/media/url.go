package media

import (
	"strings"

	"ramen-directory/internal/models"
)

const (
	DefaultUploadPath = "/uploads"
	PlaceholderImage  = "/placeholder-image.png"
)

// Resolver turns the relative media paths returned by the API into URLs a
// browser can load.
type Resolver struct {
	baseURL    string
	uploadPath string
}

func NewResolver(baseURL, uploadPath string) Resolver {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	uploadPath = strings.TrimSpace(uploadPath)
	if uploadPath == "" {
		uploadPath = DefaultUploadPath
	}
	if !strings.HasPrefix(uploadPath, "/") {
		uploadPath = "/" + uploadPath
	}
	if !strings.HasSuffix(uploadPath, "/") {
		uploadPath += "/"
	}
	return Resolver{baseURL: baseURL, uploadPath: uploadPath}
}

// Resolve accepts absolute http(s) URLs unchanged; relative paths get their
// separators normalised and are joined onto the upload base.
func (r Resolver) Resolve(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return PlaceholderImage
	}
	lower := strings.ToLower(path)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return path
	}
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.TrimLeft(path, "/")
	return r.baseURL + r.uploadPath + path
}

// ResolveAll returns copies of refs with resolved URLs.
func (r Resolver) ResolveAll(refs []models.MediaRef) []models.MediaRef {
	out := make([]models.MediaRef, len(refs))
	for i, ref := range refs {
		ref.URL = r.Resolve(ref.URL)
		out[i] = ref
	}
	return out
}
