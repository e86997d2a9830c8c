package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/Sanskargoyal608/Eziii/internal/domain"
	"github.com/Sanskargoyal608/Eziii/internal/ports"
)

const (
	LoginPath    = "/login/"
	RegisterPath = "/register/"
)

// Client exchanges credentials for a token pair at the gateway.
type Client struct {
	Transport ports.Transport
}

var _ ports.Authenticator = Client{}

type tokenResponse struct {
	Access  string          `json:"access"`
	Refresh string          `json:"refresh"`
	User    json.RawMessage `json:"user"`
}

type registerRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c Client) Login(ctx context.Context, input domain.LoginInput) (domain.Credential, error) {
	return c.exchange(ctx, LoginPath, loginRequest{Email: input.Email, Password: input.Password})
}

func (c Client) Register(ctx context.Context, input domain.RegistrationInput) (domain.Credential, error) {
	return c.exchange(ctx, RegisterPath, registerRequest{FullName: input.FullName, Email: input.Email, Password: input.Password})
}

func (c Client) exchange(ctx context.Context, path string, payload any) (domain.Credential, error) {
	if c.Transport == nil {
		return domain.Credential{}, errors.New("auth transport is nil")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("encode %s request: %w", path, err)
	}

	resp, err := c.Transport.Send(ctx, ports.Request{
		Method: http.MethodPost,
		Origin: ports.OriginAPI,
		Path:   path,
		Body:   body,
	})
	if err != nil {
		return domain.Credential{}, err
	}

	if !resp.OK() {
		return domain.Credential{}, &domain.AuthError{Reason: decodeAuthError(resp.StatusCode, resp.Body)}
	}

	var tokens tokenResponse
	if err := json.Unmarshal(resp.Body, &tokens); err != nil {
		return domain.Credential{}, &domain.TransportError{Op: "POST " + path, Err: fmt.Errorf("decode token response: %w", err)}
	}
	if strings.TrimSpace(tokens.Access) == "" {
		return domain.Credential{}, &domain.TransportError{Op: "POST " + path, Err: errors.New("token response missing access token")}
	}

	return domain.Credential{AccessToken: tokens.Access, RefreshToken: tokens.Refresh}, nil
}

// decodeAuthError pulls the server's own wording out of a rejection: the
// error or detail field when present, otherwise the field-error map
// flattened as "field: message" pairs.
func decodeAuthError(statusCode int, body []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return formatStatus(statusCode)
	}

	for _, key := range []string{"error", "detail"} {
		if text := messageText(payload[key]); text != "" {
			return text
		}
	}

	fields := make([]string, 0, len(payload))
	for field := range payload {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		text := messageText(payload[field])
		if text == "" {
			continue
		}
		if field == "non_field_errors" {
			parts = append(parts, text)
			continue
		}
		parts = append(parts, field+": "+text)
	}
	if len(parts) == 0 {
		return formatStatus(statusCode)
	}

	return strings.Join(parts, "; ")
}

// messageText accepts a string or a list of strings.
func messageText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return strings.TrimSpace(single)
	}

	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return strings.TrimSpace(strings.Join(many, " "))
	}

	return ""
}

func formatStatus(statusCode int) string {
	if text := http.StatusText(statusCode); text != "" {
		return fmt.Sprintf("status %d: %s", statusCode, text)
	}
	return fmt.Sprintf("status %d", statusCode)
}
