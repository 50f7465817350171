// Package media covers attachments on the client side: local files waiting
// to be uploaded, their previews and the resolution of remote media paths.
package media

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"ramen-directory/internal/models"
)

// File is a locally selected attachment not yet sent to the server.
type File struct {
	Name        string
	ContentType string
	Content     []byte
}

func (f File) Size() int { return len(f.Content) }

// DetectContentType fills ContentType from the file extension, then from
// the first bytes of the content.
func (f File) DetectContentType() string {
	if ct := strings.TrimSpace(f.ContentType); ct != "" && ct != "application/octet-stream" {
		return strings.ToLower(ct)
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(f.Name))); ct != "" {
		return strings.ToLower(ct)
	}
	if len(f.Content) > 0 {
		return strings.ToLower(http.DetectContentType(f.Content))
	}
	return "application/octet-stream"
}

// Kind reports whether the file is an image or a video.
func (f File) Kind() (models.MediaKind, bool) {
	ct := f.DetectContentType()
	switch {
	case strings.HasPrefix(ct, "image/"):
		return models.MediaImage, true
	case strings.HasPrefix(ct, "video/"):
		return models.MediaVideo, true
	}
	return "", false
}

var ErrUnsupportedType = errors.New("only image or video files can be uploaded")

// UnsupportedFileError names the file that failed the type check.
type UnsupportedFileError struct {
	Name        string
	ContentType string
}

func (e *UnsupportedFileError) Error() string {
	return fmt.Sprintf("%s: %q is %s", ErrUnsupportedType, e.Name, e.ContentType)
}

func (e *UnsupportedFileError) Unwrap() error { return ErrUnsupportedType }

// CheckBatch verifies every file of a batch. The first offending file is
// reported; callers reject the whole batch.
func CheckBatch(files []File) error {
	for _, f := range files {
		if _, ok := f.Kind(); !ok {
			return &UnsupportedFileError{Name: f.Name, ContentType: f.DetectContentType()}
		}
	}
	return nil
}
