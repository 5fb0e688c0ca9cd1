package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// RFC 6238 appendix B secret ("12345678901234567890" in base32).
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestVerifyTOTPAgainstRFCVectors(t *testing.T) {
	// Six-digit truncations of the RFC 6238 SHA-1 reference values.
	vectors := []struct {
		unix int64
		code string
	}{
		{59, "287082"},
		{1111111109, "081804"},
		{1111111111, "050471"},
		{1234567890, "005924"},
		{2000000000, "279037"},
	}

	for _, v := range vectors {
		require.True(t, VerifyTOTP(rfcSecret, v.code, time.Unix(v.unix, 0)),
			"code %s at t=%d", v.code, v.unix)
	}
}

func TestVerifyTOTPRejectsWrongCode(t *testing.T) {
	require.False(t, VerifyTOTP(rfcSecret, "000000", time.Unix(59, 0)))
	require.False(t, VerifyTOTP(rfcSecret, "28708", time.Unix(59, 0)), "short code")
	require.False(t, VerifyTOTP(rfcSecret, "", time.Unix(59, 0)))
}

func TestVerifyTOTPAllowsOneStepOfSkew(t *testing.T) {
	// 287082 is valid for the step containing t=59; the next step should
	// still accept it, the one after should not.
	require.True(t, VerifyTOTP(rfcSecret, "287082", time.Unix(59+30, 0)))
	require.False(t, VerifyTOTP(rfcSecret, "287082", time.Unix(59+90, 0)))
}

func TestGenerateTOTPSecretIsUsable(t *testing.T) {
	secret, err := GenerateTOTPSecret()
	require.NoError(t, err)
	require.NotEmpty(t, secret)

	// A code computed from the secret must verify against it.
	now := time.Now()
	counter := uint64(now.Unix()) / 30
	code, err := totpAt(secret, counter)
	require.NoError(t, err)
	require.True(t, VerifyTOTP(secret, code, now))
}

func TestProvisioningURI(t *testing.T) {
	uri := TOTPProvisioningURI(rfcSecret, "ops@example.com")
	require.Contains(t, uri, "otpauth://totp/")
	require.Contains(t, uri, "secret="+rfcSecret)
	require.Contains(t, uri, "issuer=Commission+Tracker")
}
