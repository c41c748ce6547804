package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memDenylist is an in-process Denylist for token tests.
type memDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func newMemDenylist() *memDenylist {
	return &memDenylist{revoked: map[string]time.Time{}}
}

func (d *memDenylist) Revoke(_ context.Context, jti string, until time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revoked[jti] = until
	return nil
}

func (d *memDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.revoked[jti]
	return ok, nil
}

func testConfig() Config {
	return Config{Secret: "test-secret-test-secret-test-secret", Issuer: "hockey-test", TTL: time.Hour}
}

func TestService_IssueAndParse(t *testing.T) {
	svc := NewService(testConfig(), newMemDenylist())

	token, err := svc.Issue(42)
	require.NoError(t, err)
	assert.Equal(t, TokenType, token.TokenType)
	assert.Equal(t, int64(3600), token.ExpiresIn)
	assert.NotEmpty(t, token.AccessToken)

	claims, err := svc.Parse(context.Background(), token.AccessToken)
	require.NoError(t, err)
	userID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), userID)
	assert.Equal(t, "hockey-test", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestService_EachTokenHasOwnID(t *testing.T) {
	svc := NewService(testConfig(), newMemDenylist())
	ctx := context.Background()

	a, err := svc.Issue(1)
	require.NoError(t, err)
	b, err := svc.Issue(1)
	require.NoError(t, err)

	ca, err := svc.Parse(ctx, a.AccessToken)
	require.NoError(t, err)
	cb, err := svc.Parse(ctx, b.AccessToken)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestService_RejectsWrongSecret(t *testing.T) {
	issuer := NewService(Config{Secret: "other-secret", Issuer: "hockey-test", TTL: time.Hour}, newMemDenylist())
	svc := NewService(testConfig(), newMemDenylist())

	token, err := issuer.Issue(1)
	require.NoError(t, err)

	_, err = svc.Parse(context.Background(), token.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_RejectsWrongIssuer(t *testing.T) {
	cfg := testConfig()
	cfg.Issuer = "someone-else"
	issuer := NewService(cfg, newMemDenylist())
	svc := NewService(testConfig(), newMemDenylist())

	token, err := issuer.Issue(1)
	require.NoError(t, err)

	_, err = svc.Parse(context.Background(), token.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_RejectsExpired(t *testing.T) {
	svc := NewService(testConfig(), newMemDenylist())
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := svc.Issue(1)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Parse(context.Background(), token.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_RejectsOtherAlgorithms(t *testing.T) {
	svc := NewService(testConfig(), newMemDenylist())
	claims := jwt.RegisteredClaims{
		ID:        "abc",
		Subject:   "1",
		Issuer:    "hockey-test",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testConfig().Secret))
	require.NoError(t, err)

	_, err = svc.Parse(context.Background(), raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_RejectsGarbage(t *testing.T) {
	svc := NewService(testConfig(), newMemDenylist())
	_, err := svc.Parse(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_Revoke(t *testing.T) {
	denylist := newMemDenylist()
	svc := NewService(testConfig(), denylist)
	ctx := context.Background()

	token, err := svc.Issue(7)
	require.NoError(t, err)
	other, err := svc.Issue(7)
	require.NoError(t, err)

	claims, err := svc.Parse(ctx, token.AccessToken)
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(ctx, claims))

	_, err = svc.Parse(ctx, token.AccessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// Other sessions of the same user stay valid.
	_, err = svc.Parse(ctx, other.AccessToken)
	assert.NoError(t, err)

	assert.WithinDuration(t, claims.ExpiresAt.Time, denylist.revoked[claims.ID], time.Second)
}

func TestClaims_UserID(t *testing.T) {
	c := &Claims{}
	c.Subject = "15"
	id, err := c.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint64(15), id)

	for _, bad := range []string{"", "0", "-1", "abc"} {
		c.Subject = bad
		_, err := c.UserID()
		assert.ErrorIs(t, err, ErrInvalidToken, "subject %q", bad)
	}
}
