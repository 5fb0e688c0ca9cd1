// utils/totp.go
package utils

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"net/url"
	"time"
)

// RFC 6238 parameters: 30 second step, 6 digits, HMAC-SHA1.
const (
	totpStep   = 30 * time.Second
	totpDigits = 6
	totpSkew   = 1 // accept one step either side of now
)

// GenerateTOTPSecret returns a fresh base32 secret for an authenticator app.
func GenerateTOTPSecret() (string, error) {
	bytes := make([]byte, 20)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(bytes), nil
}

// TOTPProvisioningURI builds the otpauth:// URI an authenticator app scans.
func TOTPProvisioningURI(secret, accountEmail string) string {
	issuer := "Commission Tracker"
	label := url.PathEscape(fmt.Sprintf("%s (%s)", issuer, accountEmail))
	query := url.Values{}
	query.Set("secret", secret)
	query.Set("issuer", issuer)
	return fmt.Sprintf("otpauth://totp/%s?%s", label, query.Encode())
}

// VerifyTOTP checks a submitted code against the secret, tolerating one
// step of clock skew in either direction.
func VerifyTOTP(secret, code string, now time.Time) bool {
	if len(code) != totpDigits {
		return false
	}
	counter := uint64(now.Unix()) / uint64(totpStep.Seconds())
	for offset := -totpSkew; offset <= totpSkew; offset++ {
		expected, err := totpAt(secret, counter+uint64(int64(offset)))
		if err != nil {
			return false
		}
		if subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1 {
			return true
		}
	}
	return false
}

// totpAt computes the RFC 4226 HOTP value for a counter.
func totpAt(secret string, counter uint64) (string, error) {
	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(secret)
	if err != nil {
		return "", err
	}

	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	// Dynamic truncation per RFC 4226 §5.3.
	offset := sum[len(sum)-1] & 0x0f
	value := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	return fmt.Sprintf("%06d", value%1000000), nil
}
