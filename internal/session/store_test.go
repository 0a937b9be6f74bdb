package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "session", "token"))
}

func signedToken(t *testing.T, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestStore_TokenMissingFile(t *testing.T) {
	store := newTestStore(t)

	token, ok := store.Token()

	assert.False(t, ok)
	assert.Empty(t, token)
}

func TestStore_SaveThenToken(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save("token-abc"))

	token, ok := store.Token()
	assert.True(t, ok)
	assert.Equal(t, "token-abc", token)
}

func TestStore_SavePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, NewStore(path).Save("token-abc"))

	token, ok := NewStore(path).Token()

	assert.True(t, ok)
	assert.Equal(t, "token-abc", token)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStore_TokenTrimsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("token-abc\n"), 0o600))

	token, ok := NewStore(path).Token()

	assert.True(t, ok)
	assert.Equal(t, "token-abc", token)
}

func TestStore_Clear(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save("token-abc"))

	require.NoError(t, store.Clear())

	_, ok := store.Token()
	assert.False(t, ok)
	assert.Equal(t, LoggedOut, store.State().Kind)

	// Clearing an already-clear session is fine.
	require.NoError(t, store.Clear())
}

func TestStore_State(t *testing.T) {
	store := newTestStore(t)
	assert.Equal(t, LoggedOut, store.State().Kind)

	claims := Claims{UserID: "7", Email: "somchai@example.com", Role: "customer"}
	require.NoError(t, store.Save(signedToken(t, claims)))

	state := store.State()
	require.Equal(t, LoggedIn, state.Kind)
	require.NotNil(t, state.Claims)
	assert.Equal(t, "7", state.Claims.UserID)
	assert.Equal(t, "somchai@example.com", state.Claims.Email)
}

func TestStore_State_GarbageTokenIsLoggedOut(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save("not-a-jwt"))

	assert.Equal(t, LoggedOut, store.State().Kind)
}

func TestInspectToken(t *testing.T) {
	claims := Claims{UserID: "7", Email: "somchai@example.com"}
	got, err := InspectToken(signedToken(t, claims))

	require.NoError(t, err)
	assert.Equal(t, "7", got.UserID)

	_, err = InspectToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaims_Expired(t *testing.T) {
	now := time.Now()

	var noExpiry Claims
	assert.False(t, noExpiry.Expired(now))

	past := Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour))}}
	assert.True(t, past.Expired(now))

	future := Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))}}
	assert.False(t, future.Expired(now))
}
