package mlflow

import (
	"net/http"

	"github.com/apex/log"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Client (functional options pattern).
type Option func(*Client)

// WithHTTPClient sets the HTTP client. Default has 30s timeout. If c is nil, the default client is left unchanged.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithAuthToken sets the Bearer token for the Authorization header (MLFLOW_TRACKING_TOKEN).
func WithAuthToken(token string) Option {
	return func(cl *Client) {
		cl.authToken = token
	}
}

// WithBasicAuth sets HTTP basic auth credentials (MLFLOW_TRACKING_USERNAME/PASSWORD).
// A configured Bearer token takes precedence.
func WithBasicAuth(username, password string) Option {
	return func(cl *Client) {
		cl.username = username
		cl.password = password
	}
}

// WithExperimentName logs runs into the named experiment, creating it if missing.
// Default is the server's default experiment (id "0").
func WithExperimentName(name string) Option {
	return func(cl *Client) {
		cl.experimentName = name
	}
}

// WithTracerProvider sets the tracer provider for LogModel spans. Default is the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cl *Client) {
		if tp != nil {
			cl.tracer = tp.Tracer(instrumentationName)
		}
	}
}

// WithLogger sets the logger. If l is nil, the default apex/log logger is left unchanged.
func WithLogger(l log.Interface) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}
