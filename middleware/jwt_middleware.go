// middleware/jwt_middleware.go
package middleware

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/refchain/commission_backend/models"
)

// JwtCustomClaims for JWT token
type JwtCustomClaims struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	AgencyID string `json:"agencyId,omitempty"`
	jwt.StandardClaims
}

// Valid implements the Claims interface for Echo's JWT middleware
func (c JwtCustomClaims) Valid() error {
	if c.ExpiresAt > 0 && time.Now().Unix() > c.ExpiresAt {
		return errors.New("token is expired")
	}
	if c.NotBefore > 0 && time.Now().Unix() < c.NotBefore {
		return errors.New("token used before valid")
	}
	return nil
}

// GetJWTSecret returns the JWT secret from environment variables
func GetJWTSecret() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		panic("JWT_SECRET environment variable is required")
	}
	return secret
}

// JWTMiddleware returns a configured JWT middleware
func JWTMiddleware() echo.MiddlewareFunc {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Printf("Warning: JWT_SECRET environment variable is not set")
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				return echo.NewHTTPError(echo.ErrUnauthorized.Code, "JWT configuration error")
			}
		}
	}

	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey: []byte(secret),
		Claims:     &JwtCustomClaims{},
		SuccessHandler: func(c echo.Context) {
			user := c.Get("user").(*jwt.Token)
			claims := user.Claims.(*JwtCustomClaims)

			c.Set("userId", claims.UserID)
			c.Set("role", claims.Role)
			c.Set("agencyId", claims.AgencyID)
			c.Set("email", claims.Email)
		},
		ErrorHandler: func(err error) error {
			log.Printf("JWT middleware error: %v", err)
			return echo.NewHTTPError(echo.ErrUnauthorized.Code, "Please provide valid credentials")
		},
	})
}

// GenerateJWT issues a signed token for a user. Expiry comes from
// JWT_EXPIRES_HOURS, default 24.
func GenerateJWT(user *models.User) (string, error) {
	expiresHours := 24
	if raw := os.Getenv("JWT_EXPIRES_HOURS"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			expiresHours = parsed
		}
	}

	claims := &JwtCustomClaims{
		UserID: user.ID.Hex(),
		Email:  user.Email,
		Role:   user.Role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(time.Duration(expiresHours) * time.Hour).Unix(),
		},
	}
	if user.AgencyID != nil {
		claims.AgencyID = user.AgencyID.Hex()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(GetJWTSecret()))
}

// ActorFromContext rebuilds the authenticated actor from the claims the JWT
// middleware stored on the request.
func ActorFromContext(c echo.Context) (models.Actor, error) {
	userIDHex, _ := c.Get("userId").(string)
	role, _ := c.Get("role").(string)
	email, _ := c.Get("email").(string)
	agencyIDHex, _ := c.Get("agencyId").(string)

	userID, err := primitive.ObjectIDFromHex(userIDHex)
	if err != nil {
		return models.Actor{}, fmt.Errorf("%w: invalid user ID in token", models.ErrUnauthorized)
	}

	actor := models.Actor{
		UserID: userID,
		Email:  email,
		Role:   role,
	}
	if agencyIDHex != "" {
		agencyID, err := primitive.ObjectIDFromHex(agencyIDHex)
		if err != nil {
			return models.Actor{}, fmt.Errorf("%w: invalid agency ID in token", models.ErrUnauthorized)
		}
		actor.AgencyID = &agencyID
	}
	return actor, nil
}
