package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trentd187/hockey-league/internal/auth"
	"github.com/trentd187/hockey-league/internal/models"
	"github.com/trentd187/hockey-league/internal/testing/testdb"
)

type authFixture struct {
	app    *fiber.App
	tokens *auth.Service
	tdb    *testdb.TestDB
	user   models.User
}

// newAuthFixture serves GET /me behind Auth, echoing the user Auth resolved.
func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	tdb := testdb.New(t)
	tokens := auth.NewService(auth.Config{
		Secret: "middleware-test-secret",
		Issuer: "hockey-test",
		TTL:    time.Hour,
	}, auth.NewGormDenylist(tdb.DB))

	user := models.User{Name: "Coach", Email: "coach@example.com", PasswordHash: "x"}
	tdb.Create(&user)

	app := fiber.New()
	app.Get("/me", Auth(tokens, tdb.DB, zap.NewNop().Sugar()), func(c *fiber.Ctx) error {
		assert.NotNil(t, CurrentClaims(c))
		return c.JSON(CurrentUser(c))
	})

	return &authFixture{app: app, tokens: tokens, tdb: tdb, user: user}
}

func (f *authFixture) get(t *testing.T, authHeader string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func (f *authFixture) bearer(t *testing.T, userID uint64) string {
	t.Helper()
	token, err := f.tokens.Issue(userID)
	require.NoError(t, err)
	return "Bearer " + token.AccessToken
}

func TestAuth_ValidToken(t *testing.T) {
	f := newAuthFixture(t)

	status, body := f.get(t, f.bearer(t, f.user.ID))

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "coach@example.com", body["email"])
	assert.NotContains(t, body, "password_hash")
}

func TestAuth_Rejects(t *testing.T) {
	f := newAuthFixture(t)
	valid := f.bearer(t, f.user.ID)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not-a-jwt"},
		{"token without scheme", valid[len("Bearer "):]},
		{"unknown user", f.bearer(t, 9999)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := f.get(t, tt.header)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, "Unauthenticated.", body["message"])
		})
	}
}

func TestAuth_RevokedToken(t *testing.T) {
	f := newAuthFixture(t)
	header := f.bearer(t, f.user.ID)

	claims, err := f.tokens.Parse(f.tdb.Context(), header[len("Bearer "):])
	require.NoError(t, err)
	require.NoError(t, f.tokens.Revoke(f.tdb.Context(), claims))

	status, _ := f.get(t, header)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAuth_DeletedUser(t *testing.T) {
	f := newAuthFixture(t)
	header := f.bearer(t, f.user.ID)
	require.NoError(t, f.tdb.DB.Delete(&models.User{}, f.user.ID).Error)

	status, _ := f.get(t, header)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCurrentUser_OutsideAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		assert.Nil(t, CurrentUser(c))
		assert.Nil(t, CurrentClaims(c))
		return c.SendStatus(http.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
