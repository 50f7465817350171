package client

import (
	"context"
	"encoding/json"
	"net/url"

	"ramen-directory/internal/media"
)

// Part is the JSON-encoded scalar section of a multipart request.
type Part struct {
	Name  string
	Value any
}

// RamenClientInterface is the raw transport to the ramen REST API. Every
// method returns the response envelope body; failures are *apierror.Error.
type RamenClientInterface interface {
	GetJSON(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
	SendJSON(ctx context.Context, method, path string, body any) (json.RawMessage, error)
	SendMultipart(ctx context.Context, method, path string, part *Part, files []media.File) (json.RawMessage, error)
	Delete(ctx context.Context, path string) (json.RawMessage, error)
}
