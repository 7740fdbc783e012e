package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// Gateway turns logical API calls into authenticated HTTP requests against
// the remote API. Every call is a single attempt; it keeps no per-call state
// and is safe for concurrent and repeated use.
type Gateway struct {
	client *http.Client
	base   string
	creds  CredentialStore
	log    logrus.FieldLogger
}

// NewGateway builds a gateway for baseURL. A zero timeout leaves the
// transport default in place.
func NewGateway(baseURL string, timeout time.Duration, creds CredentialStore, logger logrus.FieldLogger) *Gateway {
	if logger == nil {
		logger = discardLogger()
	}
	return &Gateway{
		client: &http.Client{Timeout: timeout},
		base:   baseURL,
		creds:  creds,
		log:    logger,
	}
}

// UploadForm is a multipart payload with one file part.
type UploadForm struct {
	Field    string // form field name, "file" when empty
	FileName string
	Content  io.Reader
	Fields   map[string]string
}

// Get issues a JSON GET and decodes the response into out (when non-nil).
func (g *Gateway) Get(ctx context.Context, path string, out any) error {
	return g.do(ctx, http.MethodGet, path, nil, "application/json", out)
}

// Post issues a JSON POST. A nil body sends no payload.
func (g *Gateway) Post(ctx context.Context, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	return g.do(ctx, http.MethodPost, path, reader, "application/json", out)
}

// Upload issues a multipart POST.
func (g *Gateway) Upload(ctx context.Context, path string, form UploadForm, out any) error {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range form.Fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	if form.Content != nil {
		field := form.Field
		if field == "" {
			field = "file"
		}
		part, err := mw.CreateFormFile(field, form.FileName)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, form.Content); err != nil {
			return fmt.Errorf("read upload content: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}
	return g.do(ctx, http.MethodPost, path, buf, mw.FormDataContentType(), out)
}

func (g *Gateway) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	reqID := uuid.NewString()
	logger := g.log.WithFields(logrus.Fields{"method": method, "path": path, "request_id": reqID})

	req, err := http.NewRequestWithContext(ctx, method, g.base+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if g.creds != nil {
		if cred, ok := g.creds.Get(ctx); ok {
			req.Header.Set("Authorization", "Bearer "+cred.Token)
		}
	}

	started := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		observeRequest(method, 0, started)
		logger.WithError(err).Warn("api request failed")
		return fmt.Errorf("%w: %s %s: %w", ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	observeRequest(method, resp.StatusCode, started)
	if err != nil {
		logger.WithError(err).Warn("api response read failed")
		return fmt.Errorf("%w: read %s %s: %w", ErrNetwork, method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(resp.StatusCode, data)
		logger.WithFields(logrus.Fields{"status": resp.StatusCode, "error": apiErr.Message}).Debug("api request rejected")
		return apiErr
	}
	logger.WithField("status", resp.StatusCode).Debug("api request ok")

	if !gjson.ValidBytes(data) {
		return fmt.Errorf("%w: %s %s", ErrMalformedResponse, method, path)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrMalformedResponse, method, path, err)
	}
	return nil
}
