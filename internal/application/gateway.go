package application

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Sanskargoyal608/Eziii/internal/domain"
	"github.com/Sanskargoyal608/Eziii/internal/ports"
	"github.com/rs/zerolog"
)

// Gateway is the only way application code reaches the backend. Student
// calls carry the bearer and enforce the 401 expiry rule; admin portal calls
// carry no credential and never end the session.
type Gateway struct {
	transport ports.Transport
	sessions  *SessionManager
	log       zerolog.Logger
}

func NewGateway(transport ports.Transport, sessions *SessionManager, log zerolog.Logger) *Gateway {
	return &Gateway{transport: transport, sessions: sessions, log: log}
}

// Student sends req to the API origin as the signed-in user. A 401 ends the
// session that issued the request and returns domain.ErrSessionExpired; if
// that session had already ended, domain.ErrStaleResponse is returned
// instead.
func (g *Gateway) Student(ctx context.Context, req ports.Request) (ports.Response, error) {
	token, sessionID, err := g.sessions.AccessToken()
	if err != nil {
		return ports.Response{}, err
	}

	req.Origin = ports.OriginAPI
	req.BearerToken = token

	resp, err := g.transport.Send(ctx, req)
	if err != nil {
		return ports.Response{}, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		expired, expireErr := g.sessions.Expire(ctx, sessionID)
		if expireErr != nil {
			return resp, fmt.Errorf("%s %s: %w", req.Method, req.Path, expireErr)
		}
		if !expired {
			return resp, fmt.Errorf("%s %s: %w", req.Method, req.Path, domain.ErrStaleResponse)
		}
		g.log.Debug().Str("path", req.Path).Msg("student request rejected with 401")
		return resp, fmt.Errorf("%s %s: %w", req.Method, req.Path, domain.ErrSessionExpired)
	}

	return resp, nil
}

// Admin sends req to the portal origin without credentials.
func (g *Gateway) Admin(ctx context.Context, req ports.Request) (ports.Response, error) {
	req.Origin = ports.OriginPortal
	req.BearerToken = ""

	return g.transport.Send(ctx, req)
}

func jsonRequest(method, path string, payload any) (ports.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return ports.Request{}, fmt.Errorf("encode %s body: %w", path, err)
	}
	return ports.Request{Method: method, Path: path, Body: body, ContentType: "application/json"}, nil
}

type errorPayload struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// failureReason is the server's error text for a non-2xx response, or the
// status when the body carries none.
func failureReason(resp ports.Response) string {
	var payload errorPayload
	if err := json.Unmarshal(resp.Body, &payload); err == nil {
		if text := strings.TrimSpace(payload.Error); text != "" {
			return text
		}
		if text := strings.TrimSpace(payload.Detail); text != "" {
			return text
		}
	}

	if text := http.StatusText(resp.StatusCode); text != "" {
		return fmt.Sprintf("status %d: %s", resp.StatusCode, text)
	}
	return fmt.Sprintf("status %d", resp.StatusCode)
}
