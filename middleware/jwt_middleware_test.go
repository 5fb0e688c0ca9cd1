package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/refchain/commission_backend/models"
)

func TestGenerateJWTCarriesIdentity(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	agencyID := primitive.NewObjectID()
	user := &models.User{
		ID:       primitive.NewObjectID(),
		Email:    "op@example.com",
		Role:     models.RoleAgency,
		AgencyID: &agencyID,
	}

	signed, err := GenerateJWT(user)
	require.NoError(t, err)

	claims := &JwtCustomClaims{}
	_, err = jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)

	require.Equal(t, user.ID.Hex(), claims.UserID)
	require.Equal(t, "op@example.com", claims.Email)
	require.Equal(t, models.RoleAgency, claims.Role)
	require.Equal(t, agencyID.Hex(), claims.AgencyID)
	require.Greater(t, claims.ExpiresAt, claims.IssuedAt)
}

func TestGenerateJWTAdminHasNoAgency(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	user := &models.User{
		ID:    primitive.NewObjectID(),
		Email: "admin@example.com",
		Role:  models.RoleAdmin,
	}

	signed, err := GenerateJWT(user)
	require.NoError(t, err)

	claims := &JwtCustomClaims{}
	_, err = jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.Empty(t, claims.AgencyID)
}

func newContext(t *testing.T) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestActorFromContextRoundTrip(t *testing.T) {
	c := newContext(t)
	userID := primitive.NewObjectID()
	agencyID := primitive.NewObjectID()
	c.Set("userId", userID.Hex())
	c.Set("role", models.RoleAgency)
	c.Set("email", "op@example.com")
	c.Set("agencyId", agencyID.Hex())

	actor, err := ActorFromContext(c)
	require.NoError(t, err)
	require.Equal(t, userID, actor.UserID)
	require.Equal(t, models.RoleAgency, actor.Role)
	require.NotNil(t, actor.AgencyID)
	require.Equal(t, agencyID, *actor.AgencyID)
	require.False(t, actor.IsAdmin())
}

func TestActorFromContextRejectsMissingIdentity(t *testing.T) {
	c := newContext(t)
	_, err := ActorFromContext(c)
	require.Error(t, err)
}

func TestActorFromContextAdminWithoutAgency(t *testing.T) {
	c := newContext(t)
	c.Set("userId", primitive.NewObjectID().Hex())
	c.Set("role", models.RoleAdmin)
	c.Set("email", "admin@example.com")
	c.Set("agencyId", "")

	actor, err := ActorFromContext(c)
	require.NoError(t, err)
	require.Nil(t, actor.AgencyID)
	require.True(t, actor.IsAdmin())
}
