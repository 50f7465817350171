package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ramen-directory/internal/apierror"
	"ramen-directory/internal/config"
	"ramen-directory/internal/media"
	"ramen-directory/internal/metrics"
	"ramen-directory/internal/session"
	"ramen-directory/pkg/utils"
)

type RamenClient struct {
	client  *utils.RetryableClient
	baseURL string
	session *session.Store
	logger  *zap.Logger
}

func NewRamenClient(cfg *config.Config, store *session.Store, logger *zap.Logger) (*RamenClient, error) {
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL is required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient, err := utils.NewRetryableClient(utils.ClientOptions{
		ProxyURLs:   cfg.ProxyURLs,
		ClientHello: cfg.TLSClientHello,
		MaxRetries:  cfg.MaxRetries,
		Backoff:     cfg.RetryBackoff,
		Timeout:     cfg.RequestTimeout,
		MinInterval: cfg.RateLimitDelay,
		UserAgent:   cfg.UserAgent,
		Logger:      logger.Named("http"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &RamenClient{
		client:  httpClient,
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/") + cfg.APIPrefix,
		session: store,
		logger:  logger,
	}, nil
}

func (r *RamenClient) endpoint(path string, query url.Values) string {
	u := r.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (r *RamenClient) GetJSON(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint(path, query), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return r.do(req)
}

func (r *RamenClient) SendJSON(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.endpoint(path, nil), reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return r.do(req)
}

// SendMultipart sends the scalar fields as one JSON part and every file as a
// repeated "files" part.
func (r *RamenClient) SendMultipart(ctx context.Context, method, path string, part *Part, files []media.File) (json.RawMessage, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if part != nil {
		payload, err := json.Marshal(part.Value)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", part.Name, err)
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="blob"`, part.Name))
		h.Set("Content-Type", "application/json")
		pw, err := w.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("creating %s part: %w", part.Name, err)
		}
		if _, err := pw.Write(payload); err != nil {
			return nil, fmt.Errorf("writing %s part: %w", part.Name, err)
		}
	}

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, f.Name))
		h.Set("Content-Type", f.DetectContentType())
		fw, err := w.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("creating file part %s: %w", f.Name, err)
		}
		if _, err := fw.Write(f.Content); err != nil {
			return nil, fmt.Errorf("writing file part %s: %w", f.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.endpoint(path, nil), &buf)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return r.do(req)
}

func (r *RamenClient) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, r.endpoint(path, nil), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return r.do(req)
}

func (r *RamenClient) do(req *http.Request) (json.RawMessage, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token := r.session.Get(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, body, err := r.client.Do(req)
	if err != nil {
		metrics.ObserveRemote(req.Method, 0, time.Since(start))
		r.logger.Warn("api network error",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Error(err))
		return nil, apierror.Network(err)
	}
	metrics.ObserveRemote(req.Method, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 300 {
		return body, nil
	}

	apiErr := apierror.New(resp.StatusCode, messageFrom(body))
	if resp.StatusCode == http.StatusUnauthorized {
		r.session.Invalidate()
	}
	r.logger.Warn("api error",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.String("kind", apiErr.Kind().String()),
		zap.String("message", apiErr.Message))
	return nil, apiErr
}

func messageFrom(body []byte) string {
	var env struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Message != "" {
			return env.Message
		}
		return env.Error
	}
	return ""
}
