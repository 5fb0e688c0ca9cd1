// models/auth.go
package models

type LoginRequest struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required"`
	TwoFactorCode  string `json:"twoFactorCode,omitempty"`
	RememberDevice bool   `json:"rememberDevice,omitempty"`
	DeviceToken    string `json:"deviceToken,omitempty"`
}

type LoginResponse struct {
	Token       string  `json:"token"`
	User        Profile `json:"user"`
	DeviceToken string  `json:"deviceToken,omitempty"`
}

// TwoFactorPending is returned when credentials checked out but a TOTP code
// is still required.
type TwoFactorPending struct {
	RequiresTwoFactor bool `json:"requiresTwoFactor"`
}

type TwoFactorSetupResponse struct {
	Secret     string `json:"secret"`
	OtpauthURL string `json:"otpauthUrl"`
	QRCode     string `json:"qrCode"` // base64 PNG, data URI
}

type TwoFactorVerifyRequest struct {
	Code string `json:"code" validate:"required"`
}
