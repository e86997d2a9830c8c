package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Sanskargoyal608/Eziii/internal/domain"
	"github.com/Sanskargoyal608/Eziii/internal/ports"
	"github.com/rs/zerolog"
)

// PDF exports are the largest payloads the backend returns.
const maxResponseBytes = 32 << 20

var ErrResponseTooLarge = fmt.Errorf("response exceeds limit of %d bytes", maxResponseBytes)

const defaultRequestTimeout = 30 * time.Second

type Origins struct {
	APIBaseURL    string
	PortalBaseURL string
}

// Transport sends requests with net/http against the configured origins.
type Transport struct {
	Origins        Origins
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	UserAgent      string
	Metrics        ports.Metrics
	Log            zerolog.Logger
}

var _ ports.Transport = Transport{}

func (t Transport) Send(ctx context.Context, req ports.Request) (ports.Response, error) {
	if err := ctx.Err(); err != nil {
		return ports.Response{}, err
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	op := method + " " + req.Path

	baseURL, err := t.baseURL(req.Origin)
	if err != nil {
		return ports.Response{}, err
	}
	endpoint, err := buildAPIURL(baseURL, req.Path)
	if err != nil {
		return ports.Response{}, err
	}

	requestCtx, cancel := t.requestContext(ctx)
	defer cancel()

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(requestCtx, method, endpoint, body)
	if err != nil {
		return ports.Response{}, fmt.Errorf("create request: %w", err)
	}
	if req.Body != nil {
		contentType := req.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		httpReq.Header.Set("Content-Type", contentType)
	}
	accept := req.Accept
	if accept == "" {
		accept = "application/json"
	}
	httpReq.Header.Set("Accept", accept)
	if req.BearerToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.BearerToken)
	}
	if t.UserAgent != "" {
		httpReq.Header.Set("User-Agent", t.UserAgent)
	}

	started := time.Now()
	resp, err := t.httpClient().Do(httpReq)
	if err != nil {
		t.metrics().ObserveRequest(req.Origin, method, 0, time.Since(started))
		t.Log.Debug().Err(err).Str("op", op).Msg("request failed")
		return ports.Response{}, &domain.TransportError{Op: op, Err: unwrapURLError(err)}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	elapsed := time.Since(started)
	t.metrics().ObserveRequest(req.Origin, method, resp.StatusCode, elapsed)
	if err != nil {
		return ports.Response{}, &domain.TransportError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}
	if len(data) > maxResponseBytes {
		return ports.Response{}, &domain.TransportError{Op: op, Err: ErrResponseTooLarge}
	}

	t.Log.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Int("bytes", len(data)).
		Msg("request completed")

	return ports.Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (t Transport) baseURL(origin ports.Origin) (string, error) {
	switch origin {
	case ports.OriginAPI, "":
		return t.Origins.APIBaseURL, nil
	case ports.OriginPortal:
		return t.Origins.PortalBaseURL, nil
	default:
		return "", fmt.Errorf("unknown request origin %q", origin)
	}
}

func (t Transport) httpClient() *http.Client {
	if t.HTTPClient != nil {
		return t.HTTPClient
	}
	return http.DefaultClient
}

func (t Transport) metrics() ports.Metrics {
	if t.Metrics != nil {
		return t.Metrics
	}
	return ports.NopMetrics{}
}

func (t Transport) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := t.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	return context.WithTimeout(ctx, requestTimeout)
}

// buildAPIURL appends path to the base URL's own path, so a base of
// http://host/api and a path of /login/ give http://host/api/login/.
func buildAPIURL(baseURL string, path string) (string, error) {
	if baseURL == "" {
		return "", errors.New("api base url is required")
	}
	if path == "" {
		return "", errors.New("api path is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("api base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("api base url host is required")
	}

	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse api path: %w", err)
	}
	if ref.IsAbs() || ref.Host != "" {
		return "", fmt.Errorf("api path %q must be relative", path)
	}

	endpoint := *parsed
	endpoint.Path = strings.TrimRight(parsed.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	endpoint.RawPath = ""
	endpoint.RawQuery = ref.RawQuery

	return endpoint.String(), nil
}

func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}
	return err
}
