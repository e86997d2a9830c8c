package application

import (
	"context"
	"errors"
	"testing"

	"github.com/Sanskargoyal608/Eziii/internal/domain"
	"github.com/Sanskargoyal608/Eziii/internal/ports/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTokenStoreSaveAndLoad(t *testing.T) {
	t.Parallel()

	secrets := newMemSecrets()
	tokens := NewTokenStore(secrets, testNamespace, zerolog.Nop())
	access := fakeJWT(t, studentClaims(7))

	require.NoError(t, tokens.Save(context.Background(), domain.Credential{AccessToken: access, RefreshToken: "r-1"}))
	assert.Equal(t, access, secrets.values["eziii/accessToken"])
	assert.Equal(t, "r-1", secrets.values["eziii/refreshToken"])

	cred, claims, ok, err := tokens.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.Credential{AccessToken: access, RefreshToken: "r-1"}, cred)
	require.NotNil(t, claims.StudentID)
	assert.Equal(t, 7, *claims.StudentID)
	assert.Equal(t, "asha@example.com", claims.Email)
}

func TestTokenStoreLoadEmpty(t *testing.T) {
	t.Parallel()

	tokens := NewTokenStore(newMemSecrets(), testNamespace, zerolog.Nop())

	_, _, ok, err := tokens.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTokenStoreLoadClearsUndecodableToken(t *testing.T) {
	t.Parallel()

	secrets := newMemSecrets()
	secrets.values["eziii/accessToken"] = "not-a-jwt"
	secrets.values["eziii/refreshToken"] = "r-1"
	tokens := NewTokenStore(secrets, testNamespace, zerolog.Nop())

	_, _, ok, err := tokens.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, secrets.len())
}

func TestTokenStoreSaveRollsBackAccessTokenWhenRefreshFails(t *testing.T) {
	t.Parallel()

	store := mocks.NewMockSecretStore(t)
	tokens := NewTokenStore(store, testNamespace, zerolog.Nop())
	putErr := errors.New("keyring locked")

	store.EXPECT().Put(mock.Anything, "eziii/accessToken", "a-1").Return(nil)
	store.EXPECT().Put(mock.Anything, "eziii/refreshToken", "r-1").Return(putErr)
	store.EXPECT().Delete(mock.Anything, "eziii/accessToken").Return(nil)

	err := tokens.Save(context.Background(), domain.Credential{AccessToken: "a-1", RefreshToken: "r-1"})
	require.ErrorIs(t, err, putErr)
}

func TestTokenStoreSaveWithoutRefreshDropsStaleRefresh(t *testing.T) {
	t.Parallel()

	store := mocks.NewMockSecretStore(t)
	tokens := NewTokenStore(store, "", zerolog.Nop())

	store.EXPECT().Put(mock.Anything, "accessToken", "a-2").Return(nil)
	store.EXPECT().Delete(mock.Anything, "refreshToken").Return(nil)

	require.NoError(t, tokens.Save(context.Background(), domain.Credential{AccessToken: "a-2"}))
}

func TestTokenStoreSaveRejectsEmptyCredential(t *testing.T) {
	t.Parallel()

	tokens := NewTokenStore(newMemSecrets(), testNamespace, zerolog.Nop())
	require.Error(t, tokens.Save(context.Background(), domain.Credential{}))
}
