package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-be/internal/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenManager(t *testing.T) {
	_, err := NewTokenManager("")
	assert.Error(t, err)

	m, err := NewTokenManager("secret")
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestTokenManager_IssueAndResolve(t *testing.T) {
	m, err := NewTokenManager("testsecret")
	require.NoError(t, err)

	t.Run("RoundTrip", func(t *testing.T) {
		token, err := m.Issue("user-1", "a@b.c", RoleAdmin)
		require.NoError(t, err)

		id, err := m.ResolveIdentity(token)
		require.NoError(t, err)
		assert.Equal(t, Identity{UserID: "user-1", Role: RoleAdmin}, id)
		assert.True(t, id.IsAdmin())
	})

	t.Run("DefaultsRoleToUser", func(t *testing.T) {
		token, err := m.Issue("user-2", "", "")
		require.NoError(t, err)

		id, err := m.ResolveIdentity(token)
		require.NoError(t, err)
		assert.Equal(t, RoleUser, id.Role)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := m.ResolveIdentity("")
		assert.ErrorIs(t, err, apperror.Unauthorized)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := m.ResolveIdentity("not-a-jwt")
		assert.ErrorIs(t, err, apperror.Forbidden)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		other, _ := NewTokenManager("other")
		token, err := other.Issue("user-1", "", RoleUser)
		require.NoError(t, err)

		_, err = m.ResolveIdentity(token)
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("Expired", func(t *testing.T) {
		past, _ := NewTokenManager("testsecret")
		past.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
		token, err := past.Issue("user-1", "", RoleUser)
		require.NoError(t, err)

		_, err = m.ResolveIdentity(token)
		assert.True(t, IsAuthError(err))
	})

	t.Run("RejectsNoneAlgorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-1"})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = m.ResolveIdentity(signed)
		assert.ErrorIs(t, err, apperror.Forbidden)
	})
}

func TestExtractCredential(t *testing.T) {
	t.Run("BearerHeader", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/cart", nil)
		r.Header.Set("Authorization", "Bearer abc.def.ghi")
		assert.Equal(t, "abc.def.ghi", ExtractCredential(r))
	})

	t.Run("Cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/cart", nil)
		r.AddCookie(&http.Cookie{Name: "access_token", Value: "cookie-token"})
		assert.Equal(t, "cookie-token", ExtractCredential(r))
	})

	t.Run("None", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/cart", nil)
		r.Header.Set("Authorization", "Basic xyz")
		assert.Equal(t, "", ExtractCredential(r))
	})
}

func TestIdentityContext(t *testing.T) {
	ctx := WithIdentity(httptest.NewRequest(http.MethodGet, "/", nil).Context(), Identity{UserID: "u1", Role: RoleUser})

	id, err := MustIdentity(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UserID)

	_, err = MustIdentity(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.True(t, errors.Is(err, ErrMissingCredential))
}
