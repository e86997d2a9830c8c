package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Sanskargoyal608/Eziii/internal/adapters/metrics"
	"github.com/Sanskargoyal608/Eziii/internal/domain"
	"github.com/Sanskargoyal608/Eziii/internal/ports"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAPIURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		base    string
		path    string
		want    string
		wantErr string
	}{
		{name: "keeps base path", base: "http://127.0.0.1:8000/api", path: "/login/", want: "http://127.0.0.1:8000/api/login/"},
		{name: "base trailing slash", base: "http://127.0.0.1:8000/api/", path: "documents/", want: "http://127.0.0.1:8000/api/documents/"},
		{name: "bare host", base: "http://127.0.0.1:8000", path: "/portal/summary/7/", want: "http://127.0.0.1:8000/portal/summary/7/"},
		{name: "query string", base: "https://gw.example", path: "/jobs/recommended/?limit=5", want: "https://gw.example/jobs/recommended/?limit=5"},
		{name: "empty base", base: "", path: "/x/", wantErr: "api base url is required"},
		{name: "empty path", base: "http://h", path: "", wantErr: "api path is required"},
		{name: "bad scheme", base: "ftp://h", path: "/x/", wantErr: "http or https"},
		{name: "absolute path rejected", base: "http://h", path: "http://evil/x", wantErr: "must be relative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildAPIURL(tt.base, tt.path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSendRoutesByOriginAndSetsHeaders(t *testing.T) {
	t.Parallel()

	var gotPaths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPaths = append(gotPaths, r.URL.Path)
		switch r.URL.Path {
		case "/api/federated-query/":
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "ez/test", r.Header.Get("User-Agent"))
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.JSONEq(t, `{"query":"jobs?"}`, string(body))
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"response_text":"ok"}`))
		case "/portal/dashboard/":
			assert.Empty(t, r.Header.Get("Authorization"))
			assert.Empty(t, r.Header.Get("Content-Type"))
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"nope"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	t.Cleanup(server.Close)

	reg := metrics.NewRegistry()
	transport := Transport{
		Origins:    Origins{APIBaseURL: server.URL + "/api", PortalBaseURL: server.URL},
		HTTPClient: server.Client(),
		UserAgent:  "ez/test",
		Metrics:    reg,
	}

	resp, err := transport.Send(context.Background(), ports.Request{
		Method:      http.MethodPost,
		Origin:      ports.OriginAPI,
		Path:        "/federated-query/",
		Body:        []byte(`{"query":"jobs?"}`),
		BearerToken: "access-1",
	})
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.JSONEq(t, `{"response_text":"ok"}`, string(resp.Body))

	resp, err = transport.Send(context.Background(), ports.Request{Origin: ports.OriginPortal, Path: "/portal/dashboard/"})
	require.NoError(t, err, "non-2xx responses are not transport errors")
	assert.False(t, resp.OK())
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	assert.Equal(t, []string{"/api/federated-query/", "/portal/dashboard/"}, gotPaths)
	count, err := testutil.GatherAndCount(reg.Gatherer(), "ez_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSendUnreachableServerIsTransportError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	baseURL := server.URL
	server.Close()

	_, err := Transport{Origins: Origins{APIBaseURL: baseURL}}.Send(context.Background(), ports.Request{Path: "/documents/"})
	require.Error(t, err)

	var transportErr *domain.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "GET /documents/", transportErr.Op)
}

func TestSendAppliesDefaultTimeoutWithoutCallerDeadline(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	transport := Transport{
		Origins:        Origins{APIBaseURL: server.URL},
		HTTPClient:     server.Client(),
		RequestTimeout: 50 * time.Millisecond,
	}

	_, err := transport.Send(context.Background(), ports.Request{Path: "/jobs/recommended/"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestSendRejectsUnknownOrigin(t *testing.T) {
	t.Parallel()

	_, err := Transport{}.Send(context.Background(), ports.Request{Origin: "ftp", Path: "/x/"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "unknown request origin")
}

func TestSendRejectsOversizedResponse(t *testing.T) {
	t.Parallel()

	chunk := make([]byte, 1<<20)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		for written := 0; written <= maxResponseBytes; written += len(chunk) {
			if _, err := w.Write(chunk); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)

	transport := Transport{Origins: Origins{APIBaseURL: server.URL}, HTTPClient: server.Client()}
	_, err := transport.Send(context.Background(), ports.Request{Path: "/documents/7/pdf/"})
	require.Error(t, err)

	var transportErr *domain.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.ErrorIs(t, err, ErrResponseTooLarge)
}
