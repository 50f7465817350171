package mocks

import (
	"context"
	"encoding/json"
	"net/url"

	"ramen-directory/internal/client"
	"ramen-directory/internal/media"
)

type MockRamenClient struct {
	GetJSONFunc       func(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
	SendJSONFunc      func(ctx context.Context, method, path string, body any) (json.RawMessage, error)
	SendMultipartFunc func(ctx context.Context, method, path string, part *client.Part, files []media.File) (json.RawMessage, error)
	DeleteFunc        func(ctx context.Context, path string) (json.RawMessage, error)
}

func (m *MockRamenClient) GetJSON(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	return m.GetJSONFunc(ctx, path, query)
}

func (m *MockRamenClient) SendJSON(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	return m.SendJSONFunc(ctx, method, path, body)
}

func (m *MockRamenClient) SendMultipart(ctx context.Context, method, path string, part *client.Part, files []media.File) (json.RawMessage, error) {
	return m.SendMultipartFunc(ctx, method, path, part, files)
}

func (m *MockRamenClient) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return m.DeleteFunc(ctx, path)
}
