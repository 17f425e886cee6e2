package mlflow

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/bytedance/sonic"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/skosovsky/modelsync"
)

const (
	apiPrefix       = "/api/2.0/mlflow/"
	artifactsPrefix = "/api/2.0/mlflow-artifacts/artifacts/"

	// defaultUserAgent is the User-Agent header value for requests.
	defaultUserAgent = "modelsync-mlflow/1.0"

	// maxBodySize limits response body size (1 MB); REST responses are small.
	maxBodySize = 1 << 20

	defaultExperimentID = "0"
	instrumentationName = "github.com/skosovsky/modelsync/mlflow"

	requestIDHeader = "X-Request-ID"
)

// Ensures Client implements modelsync.Registry.
var _ modelsync.Registry = (*Client)(nil)

// Client talks to an MLflow tracking server over its REST API.
// It is safe for concurrent use.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	authToken      string
	username       string
	password       string
	experimentName string
	tracer         trace.Tracer
	logger         log.Interface

	mu           sync.RWMutex
	experimentID string
	sf           singleflight.Group
}

// New creates a Client. trackingURI must be an http(s) URL (e.g. http://localhost:5000).
func New(trackingURI string, opts ...Option) (*Client, error) {
	trackingURI = strings.TrimSuffix(trackingURI, "/")
	if trackingURI == "" {
		return nil, fmt.Errorf("mlflow: tracking URI must not be empty")
	}
	parsed, err := url.Parse(trackingURI)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("mlflow: invalid tracking URI %q", trackingURI)
	}
	c := &Client{
		baseURL:    trackingURI,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tracer:     otel.GetTracerProvider().Tracer(instrumentationName),
		logger:     log.Log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type requestIDKey struct{}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func (c *Client) setHeaders(ctx context.Context, req *http.Request, contentType string) {
	req.Header.Set("User-Agent", defaultUserAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		req.Header.Set(requestIDHeader, id)
	}
	switch {
	case c.authToken != "":
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	case c.username != "" || c.password != "":
		req.SetBasicAuth(c.username, c.password)
	}
}

// call sends a JSON request to the REST API endpoint (relative to /api/2.0/mlflow/)
// and decodes the JSON response into out when out is non-nil.
func (c *Client) call(ctx context.Context, method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := sonic.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: encode %s: %w", ErrRequestFailed, endpoint, err)
		}
		body = bytes.NewReader(data)
	}
	u := c.baseURL + apiPrefix + endpoint
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	contentType := ""
	if in != nil {
		contentType = "application/json"
	}
	c.setHeaders(ctx, req, contentType)
	data, err := c.do(req)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrRequestFailed, endpoint, err)
	}
	return nil
}

// putArtifact uploads data to the mlflow-artifacts proxy under path (relative to the artifact root).
func (c *Client) putArtifact(ctx context.Context, path string, data []byte) error {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	u := c.baseURL + artifactsPrefix + strings.Join(segments, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	c.setHeaders(ctx, req, "application/octet-stream")
	_, err = c.do(req)
	return err
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req) // #nosec G107 -- URL is from config and path-escaped
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()
	// One byte past the limit detects truncation.
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrRequestFailed, err)
	}
	oversized := len(data) > maxBodySize
	if oversized {
		data = data[:maxBodySize]
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeAPIError(resp.StatusCode, resp.Status, data)
	}
	if oversized {
		return nil, fmt.Errorf("%w: response body exceeds %d bytes", ErrRequestFailed, maxBodySize)
	}
	return data, nil
}

func decodeAPIError(status int, statusText string, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var payload struct {
		ErrorCode string `json:"error_code"`
		Message   string `json:"message"`
	}
	if err := sonic.Unmarshal(body, &payload); err == nil && payload.ErrorCode != "" {
		apiErr.Code = payload.ErrorCode
		apiErr.Message = payload.Message
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = statusText
	}
	return apiErr
}
