// utils/remember.go
package utils

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const deviceTokenTTL = 30 * 24 * time.Hour

func deviceKey(userID, token string) string {
	return "2fa_device:" + userID + ":" + token
}

// TrustDevice mints a device token letting this user skip the TOTP prompt
// for 30 days. Without Redis no token is minted and every login asks for a
// code.
func TrustDevice(userID string, rdb *redis.Client) (string, error) {
	if rdb == nil {
		return "", nil
	}
	token := uuid.NewString()
	if err := rdb.Set(context.Background(), deviceKey(userID, token), 1, deviceTokenTTL).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// IsTrustedDevice reports whether the token was minted for this user and has
// not expired.
func IsTrustedDevice(userID, token string, rdb *redis.Client) bool {
	if rdb == nil || token == "" {
		return false
	}
	exists, err := rdb.Exists(context.Background(), deviceKey(userID, token)).Result()
	return err == nil && exists > 0
}
