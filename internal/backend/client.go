// Package backend talks to the external page and media service that
// stores published pages. Only the client lives here; the service itself
// is someone else's.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/conneroisu/pagecraft/internal/errors"
	"github.com/conneroisu/pagecraft/internal/logging"
)

// DefaultTimeout bounds a single backend request.
const DefaultTimeout = 30 * time.Second

// Client is the page/media backend contract.
type Client interface {
	CreatePage(ctx context.Context, in PageInput) (*Page, error)
	UpdatePage(ctx context.Context, id string, u PageUpdate) (*Page, error)
	DeletePage(ctx context.Context, id string) error
	GetPage(ctx context.Context, id string) (*Page, error)
	GetPages(ctx context.Context, q PageQuery) (*PageList, error)
	UploadFile(ctx context.Context, name string, r io.Reader) (*MediaFile, error)
	GetMediaFiles(ctx context.Context) ([]MediaFile, error)
	DeleteMediaFile(ctx context.Context, id string) error
}

// MaxResponseSize caps how much of a backend response is read.
const MaxResponseSize = 16 << 20

// HTTPClient implements Client over JSON HTTP with bearer auth.
type HTTPClient struct {
	baseURL         string
	token           string
	httpClient      *http.Client
	logger          logging.Logger
	maxResponseSize int64
}

// NewHTTPClient returns a client for baseURL. A zero timeout uses
// DefaultTimeout; an empty token sends no Authorization header.
func NewHTTPClient(baseURL, token string, timeout time.Duration, logger logging.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		baseURL:         strings.TrimRight(baseURL, "/"),
		token:           token,
		httpClient:      &http.Client{Timeout: timeout},
		logger:          logging.OrNop(logger).WithComponent("backend"),
		maxResponseSize: MaxResponseSize,
	}
}

func (c *HTTPClient) CreatePage(ctx context.Context, in PageInput) (*Page, error) {
	if err := in.Validate(); err != nil {
		return nil, errors.NewValidationError("invalid page", err)
	}
	return c.pageRequest(ctx, http.MethodPost, "/pages", in)
}

func (c *HTTPClient) UpdatePage(ctx context.Context, id string, u PageUpdate) (*Page, error) {
	if id == "" {
		return nil, errors.New(errors.ErrInvalidProps, "page id is required")
	}
	if err := u.Validate(); err != nil {
		return nil, errors.NewValidationError("invalid page update", err)
	}
	return c.pageRequest(ctx, http.MethodPut, "/pages/"+url.PathEscape(id), u)
}

func (c *HTTPClient) DeletePage(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/pages/"+url.PathEscape(id), nil, "", nil)
}

func (c *HTTPClient) GetPage(ctx context.Context, id string) (*Page, error) {
	return c.pageRequest(ctx, http.MethodGet, "/pages/"+url.PathEscape(id), nil)
}

func (c *HTTPClient) GetPages(ctx context.Context, q PageQuery) (*PageList, error) {
	if err := q.Validate(); err != nil {
		return nil, errors.NewValidationError("invalid page query", err)
	}
	params := url.Values{}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.Status != "" {
		params.Set("status", string(q.Status))
	}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	path := "/pages"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var list PageList
	if err := c.do(ctx, http.MethodGet, path, nil, "", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// UploadFile sends r as the multipart field "file".
func (c *HTTPClient) UploadFile(ctx context.Context, name string, r io.Reader) (*MediaFile, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, errors.NewInternalError("failed to build upload", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, errors.NewInternalError("failed to read upload", err)
	}
	if err := mw.Close(); err != nil {
		return nil, errors.NewInternalError("failed to build upload", err)
	}

	var resp struct {
		File *MediaFile `json:"file"`
	}
	if err := c.do(ctx, http.MethodPost, "/media/upload", &body, mw.FormDataContentType(), &resp); err != nil {
		return nil, err
	}
	if resp.File == nil {
		return nil, errors.New(errors.ErrBackend, "upload response has no file")
	}
	return resp.File, nil
}

func (c *HTTPClient) GetMediaFiles(ctx context.Context) ([]MediaFile, error) {
	var resp struct {
		Files []MediaFile `json:"files"`
	}
	if err := c.do(ctx, http.MethodGet, "/media", nil, "", &resp); err != nil {
		return nil, err
	}
	return resp.Files, nil
}

func (c *HTTPClient) DeleteMediaFile(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/media/"+url.PathEscape(id), nil, "", nil)
}

// pageRequest sends payload as JSON and decodes a page, accepting both a
// bare page and one wrapped as {"page": ...}.
func (c *HTTPClient) pageRequest(ctx context.Context, method, path string, payload any) (*Page, error) {
	var body io.Reader
	contentType := ""
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.NewInternalError("failed to encode request", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	var raw json.RawMessage
	if err := c.do(ctx, method, path, body, contentType, &raw); err != nil {
		return nil, err
	}

	var wrapped struct {
		Page *Page `json:"page"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Page != nil {
		return wrapped.Page, nil
	}
	var page Page
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, errors.New(errors.ErrBackend, "failed to decode page").WithCause(err)
	}
	return &page, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.NewInternalError("failed to create request", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Newf(errors.ErrBackend, "%s %s failed", method, path).WithCause(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize+1))
	if err != nil {
		return errors.Newf(errors.ErrBackend, "%s %s: failed to read response", method, path).WithCause(err)
	}
	if int64(len(data)) > c.maxResponseSize {
		return errors.Newf(errors.ErrBackend, "%s %s: response exceeds %d bytes", method, path, c.maxResponseSize)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn(ctx, nil, "Backend request failed",
			"method", method, "path", path, "status", resp.StatusCode)
		return errors.Newf(errors.ErrBackend, "%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data))).
			WithContext("status", resp.StatusCode)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Newf(errors.ErrBackend, "%s %s: failed to decode response", method, path).WithCause(err)
	}
	return nil
}

// StatusCode extracts the HTTP status from a failed backend call, or 0.
func StatusCode(err error) int {
	var ee *errors.EditorError
	if !errors.As(err, &ee) {
		return 0
	}
	if code, ok := ee.Context["status"].(int); ok {
		return code
	}
	return 0
}

var _ Client = (*HTTPClient)(nil)
