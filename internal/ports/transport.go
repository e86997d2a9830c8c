package ports

import (
	"context"
	"net/http"
)

// Origin selects which backend base URL a request is resolved against.
type Origin string

const (
	OriginAPI    Origin = "api"
	OriginPortal Origin = "portal"
)

type Request struct {
	Method      string
	Origin      Origin
	Path        string
	Body        []byte
	ContentType string
	BearerToken string
	Accept      string
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport sends one request and returns whatever the server answered.
// Only failures to reach the server are returned as errors; non-2xx
// responses are not.
type Transport interface {
	Send(ctx context.Context, req Request) (Response, error)
}
