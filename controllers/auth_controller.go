// controllers/auth_controller.go
package controllers

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image/png"
	"net/http"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"

	"github.com/refchain/commission_backend/middleware"
	"github.com/refchain/commission_backend/models"
	"github.com/refchain/commission_backend/repositories"
	"github.com/refchain/commission_backend/utils"
)

type AuthController struct {
	users    *repositories.UserRepository
	agencies *repositories.AgencyRepository
	redis    *redis.Client
}

func NewAuthController(users *repositories.UserRepository, agencies *repositories.AgencyRepository, redisClient *redis.Client) *AuthController {
	return &AuthController{users: users, agencies: agencies, redis: redisClient}
}

// Login authenticates with email and password, plus a TOTP code when the
// account has 2FA enabled. Invalid email, wrong password and inactive
// account all produce the same response.
func (ac *AuthController) Login(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Email and password are required",
		})
	}

	if err := utils.ValidateLoginAttempts(req.Email, ac.redis); err != nil {
		return c.JSON(http.StatusTooManyRequests, models.Response{
			Status:  http.StatusTooManyRequests,
			Message: "Too many login attempts, please try again later",
		})
	}

	user, err := ac.users.FindActiveByEmail(ctx, req.Email)
	if errors.Is(err, models.ErrNotFound) {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid credentials",
		})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}

	if !utils.CheckPassword(user.Password, req.Password) {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid credentials",
		})
	}

	deviceToken := ""
	if user.TwoFactorEnabled && !utils.IsTrustedDevice(user.ID.Hex(), req.DeviceToken, ac.redis) {
		if req.TwoFactorCode == "" {
			return c.JSON(http.StatusOK, models.Response{
				Status:  http.StatusOK,
				Message: "Two-factor code required",
				Data:    models.TwoFactorPending{RequiresTwoFactor: true},
			})
		}
		if err := utils.ValidateTwoFactorAttempts(user.ID.Hex(), ac.redis); err != nil {
			return c.JSON(http.StatusTooManyRequests, models.Response{
				Status:  http.StatusTooManyRequests,
				Message: "Too many verification attempts, please try again later",
			})
		}
		if !utils.VerifyTOTP(user.TwoFactorSecret, req.TwoFactorCode, time.Now()) {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Invalid two-factor code",
			})
		}
		if req.RememberDevice {
			if deviceToken, err = utils.TrustDevice(user.ID.Hex(), ac.redis); err != nil {
				c.Logger().Errorf("Failed to mint device token for %s: %v", user.ID.Hex(), err)
				deviceToken = ""
			}
		}
	}

	if err := ac.users.StampLastLogin(ctx, user.ID); err != nil {
		c.Logger().Errorf("Failed to stamp last login for %s: %v", user.ID.Hex(), err)
	}

	token, err := middleware.GenerateJWT(user)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	profile, err := ac.profileOf(ctx, user)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data:    models.LoginResponse{Token: token, User: *profile, DeviceToken: deviceToken},
	})
}

func (ac *AuthController) profileOf(ctx context.Context, user *models.User) (*models.Profile, error) {
	profile := &models.Profile{
		ID:               user.ID,
		Email:            user.Email,
		Role:             user.Role,
		AgencyID:         user.AgencyID,
		TwoFactorEnabled: user.TwoFactorEnabled,
		LastLogin:        user.LastLogin,
	}
	if user.AgencyID != nil {
		agency, err := ac.agencies.FindByID(ctx, *user.AgencyID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		if agency != nil {
			profile.AgencyName = agency.Name
		}
	}
	return profile, nil
}

// Setup2FA generates a fresh TOTP secret for the authenticated user and
// returns the provisioning URI plus a scannable QR code. 2FA stays off
// until a code is verified.
func (ac *AuthController) Setup2FA(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	secret, err := utils.GenerateTOTPSecret()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate secret",
		})
	}

	if err := ac.users.SetTwoFactorSecret(ctx, actor.UserID, secret); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to store secret",
		})
	}

	otpauthURL := utils.TOTPProvisioningURI(secret, actor.Email)

	qrCode, err := qr.Encode(otpauthURL, qr.M, qr.Auto)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate QR code",
		})
	}
	qrCode, err = barcode.Scale(qrCode, 200, 200)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to scale QR code",
		})
	}

	buffer := new(bytes.Buffer)
	if err := png.Encode(buffer, qrCode); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to encode QR code",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Two-factor setup initiated",
		Data: models.TwoFactorSetupResponse{
			Secret:     secret,
			OtpauthURL: otpauthURL,
			QRCode:     "data:image/png;base64," + base64.StdEncoding.EncodeToString(buffer.Bytes()),
		},
	})
}

// Verify2FA checks a code against the stored secret and enables 2FA.
func (ac *AuthController) Verify2FA(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	var req models.TwoFactorVerifyRequest
	if err := c.Bind(&req); err != nil || req.Code == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Verification code is required",
		})
	}

	user, err := ac.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}
	if user.TwoFactorSecret == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Two-factor setup has not been initiated",
		})
	}

	if !utils.VerifyTOTP(user.TwoFactorSecret, req.Code, time.Now()) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid code",
		})
	}

	if err := ac.users.EnableTwoFactor(ctx, actor.UserID); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to enable two-factor authentication",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Two-factor authentication enabled",
	})
}

// Me returns the authenticated user's profile.
func (ac *AuthController) Me(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	user, err := ac.users.FindByID(ctx, actor.UserID)
	if errors.Is(err, models.ErrNotFound) {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "User not found",
		})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}

	profile, err := ac.profileOf(ctx, user)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Profile retrieved",
		Data:    profile,
	})
}
