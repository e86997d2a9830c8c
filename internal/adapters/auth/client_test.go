package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/Sanskargoyal608/Eziii/internal/domain"
	"github.com/Sanskargoyal608/Eziii/internal/ports"
	"github.com/Sanskargoyal608/Eziii/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLoginPostsCredentialsAndReturnsTokenPair(t *testing.T) {
	t.Parallel()

	transport := mocks.NewMockTransport(t)
	transport.EXPECT().Send(mock.Anything, mock.MatchedBy(func(req ports.Request) bool {
		var body map[string]string
		require.NoError(t, json.Unmarshal(req.Body, &body))
		return req.Method == http.MethodPost &&
			req.Origin == ports.OriginAPI &&
			req.Path == "/login/" &&
			req.BearerToken == "" &&
			body["email"] == "asha@example.com" &&
			body["password"] == "pw"
	})).Return(ports.Response{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"access":"a.b.c","refresh":"r","user":{"id":1}}`),
	}, nil).Once()

	cred, err := Client{Transport: transport}.Login(context.Background(), domain.LoginInput{Email: "asha@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, domain.Credential{AccessToken: "a.b.c", RefreshToken: "r"}, cred)
}

func TestRegisterSendsFullName(t *testing.T) {
	t.Parallel()

	transport := mocks.NewMockTransport(t)
	transport.EXPECT().Send(mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, req ports.Request) (ports.Response, error) {
			assert.Equal(t, "/register/", req.Path)
			assert.JSONEq(t, `{"full_name":"Asha Rao","email":"asha@example.com","password":"pw"}`, string(req.Body))
			return ports.Response{StatusCode: http.StatusCreated, Body: []byte(`{"access":"x.y.z","refresh":"r2","user":{}}`)}, nil
		}).Once()

	cred, err := Client{Transport: transport}.Register(context.Background(), domain.RegistrationInput{
		FullName: "Asha Rao",
		Email:    "asha@example.com",
		Password: "pw",
	})
	require.NoError(t, err)
	assert.Equal(t, "x.y.z", cred.AccessToken)
}

func TestLoginRejectionBecomesAuthError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "error field", status: http.StatusUnauthorized, body: `{"error":"Invalid credentials"}`, want: "Invalid credentials"},
		{name: "detail field", status: http.StatusUnauthorized, body: `{"detail":"No active account found with the given credentials"}`, want: "No active account found with the given credentials"},
		{name: "field errors", status: http.StatusBadRequest, body: `{"password":["This field may not be blank."],"email":["Enter a valid email address."]}`, want: "email: Enter a valid email address.; password: This field may not be blank."},
		{name: "non field errors", status: http.StatusBadRequest, body: `{"non_field_errors":["Unable to log in."]}`, want: "Unable to log in."},
		{name: "html body", status: http.StatusInternalServerError, body: `<h1>oops</h1>`, want: "status 500: Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := mocks.NewMockTransport(t)
			transport.EXPECT().Send(mock.Anything, mock.Anything).
				Return(ports.Response{StatusCode: tt.status, Body: []byte(tt.body)}, nil).Once()

			_, err := Client{Transport: transport}.Login(context.Background(), domain.LoginInput{Email: "a@b.co", Password: "x"})
			var authErr *domain.AuthError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, tt.want, authErr.Reason)
		})
	}
}

func TestLoginTransportFailurePassesThrough(t *testing.T) {
	t.Parallel()

	transport := mocks.NewMockTransport(t)
	want := &domain.TransportError{Op: "POST /login/", Err: errors.New("connection refused")}
	transport.EXPECT().Send(mock.Anything, mock.Anything).Return(ports.Response{}, want).Once()

	_, err := Client{Transport: transport}.Login(context.Background(), domain.LoginInput{Email: "a@b.co", Password: "x"})
	require.ErrorIs(t, err, want)

	var authErr *domain.AuthError
	assert.False(t, errors.As(err, &authErr))
}

func TestLoginSuccessWithoutAccessTokenIsTransportError(t *testing.T) {
	t.Parallel()

	transport := mocks.NewMockTransport(t)
	transport.EXPECT().Send(mock.Anything, mock.Anything).
		Return(ports.Response{StatusCode: http.StatusOK, Body: []byte(`{"user":{}}`)}, nil).Once()

	_, err := Client{Transport: transport}.Login(context.Background(), domain.LoginInput{Email: "a@b.co", Password: "x"})
	var transportErr *domain.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.ErrorContains(t, err, "missing access token")
}
