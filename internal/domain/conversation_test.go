package domain

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContextKey(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    ContextKey
		wantErr bool
	}{
		{name: "self", raw: "self", want: ContextSelf},
		{name: "aggregate is case insensitive", raw: " ALL ", want: ContextAggregate},
		{name: "student id", raw: "7", want: StudentContext(7)},
		{name: "zero id rejected", raw: "0", wantErr: true},
		{name: "negative id rejected", raw: "-3", wantErr: true},
		{name: "garbage rejected", raw: "everyone", wantErr: true},
		{name: "empty rejected", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseContextKey(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContextKeyValidFor(t *testing.T) {
	require.NoError(t, ContextSelf.ValidFor(RoleStudent))
	require.Error(t, ContextAggregate.ValidFor(RoleStudent))
	require.Error(t, StudentContext(7).ValidFor(RoleStudent))

	require.NoError(t, ContextAggregate.ValidFor(RoleAdmin))
	require.NoError(t, StudentContext(7).ValidFor(RoleAdmin))
	require.Error(t, ContextSelf.ValidFor(RoleAdmin))

	require.Error(t, ContextSelf.ValidFor(RoleAnonymous))
}

func TestNextMessageIDIsStrictlyIncreasing(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	conv := Conversation{Role: RoleStudent, Context: ContextSelf}

	first := conv.NextMessageID(now)
	assert.Equal(t, now.UnixMilli(), first)
	conv.Messages = append(conv.Messages, Message{ID: first})

	second := conv.NextMessageID(now)
	assert.Equal(t, first+1, second)
	conv.Messages = append(conv.Messages, Message{ID: second})

	// A clock that steps backwards still yields a larger id.
	third := conv.NextMessageID(now.Add(-time.Second))
	assert.Equal(t, second+1, third)
}

func TestRoleTexts(t *testing.T) {
	assert.Equal(t, StudentWelcomeText, WelcomeText(RoleStudent))
	assert.Equal(t, AdminWelcomeText, WelcomeText(RoleAdmin))
	assert.Equal(t, StudentClearedText, ClearedText(RoleStudent))
	assert.Equal(t, AdminClearedText, ClearedText(RoleAdmin))
}

func TestClaimsIdentity(t *testing.T) {
	id := 42
	student := Claims{StudentID: &id, Email: "asha@example.com", FullName: "Asha"}
	got := student.Identity()
	assert.Equal(t, RoleStudent, got.Role)
	require.NotNil(t, got.StudentID)
	assert.Equal(t, 42, *got.StudentID)
	assert.Equal(t, "Asha", got.DisplayName())

	staff := Claims{Email: "ops@example.com", IsStaff: true, RegisteredClaims: jwt.RegisteredClaims{Subject: "1"}}
	assert.Equal(t, RoleAdmin, staff.Identity().Role)
	assert.Equal(t, "ops@example.com", staff.Identity().DisplayName())

	unlinked := Claims{Role: "student"}
	assert.Nil(t, unlinked.Identity().StudentID)
}

func TestSessionAuthenticatedFollowsIdentity(t *testing.T) {
	assert.False(t, Session{Identity: AnonymousIdentity()}.Authenticated())
	assert.False(t, Session{}.Authenticated())
	assert.True(t, Session{Identity: Identity{Role: RoleStudent}}.Authenticated())
}

func TestParseResourceKind(t *testing.T) {
	kind, err := ParseResourceKind("Jobs")
	require.NoError(t, err)
	assert.Equal(t, KindJobs, kind)

	_, err = ParseResourceKind("grants")
	require.Error(t, err)
}

func TestParseSource(t *testing.T) {
	got, err := ParseSource("")
	require.NoError(t, err)
	assert.Equal(t, GatewaySource(), got)
	assert.Equal(t, "gateway", got.String())

	got, err = ParseSource("Gateway:V1")
	require.NoError(t, err)
	assert.Equal(t, Source{Origin: SourceGateway, Schema: SchemaV1}, got)
	assert.Equal(t, "gateway:v1", got.String())

	got, err = ParseSource("portal")
	require.NoError(t, err)
	assert.Equal(t, SourcePortal, got.Origin)

	_, err = ParseSource("flask")
	require.Error(t, err)

	_, err = ParseSource("gateway:v7")
	require.Error(t, err)
}
