// utils/attempts.go
package utils

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// ValidateLoginAttempts throttles failed logins per email. Limit is 10
// attempts per hour; the counter resets on expiry, not on success, which is
// acceptable for a brute-force guard.
func ValidateLoginAttempts(email string, rdb *redis.Client) error {
	if rdb == nil {
		return nil // Redis optional; throttling disabled without it
	}
	return validateAttempts("login_attempts:"+email, 10, rdb)
}

// ValidateTwoFactorAttempts throttles 2FA code guesses per user, 5 per hour.
func ValidateTwoFactorAttempts(userID string, rdb *redis.Client) error {
	if rdb == nil {
		return nil
	}
	return validateAttempts("2fa_attempts:"+userID, 5, rdb)
}

func validateAttempts(key string, limit int64, rdb *redis.Client) error {
	ctx := context.Background()
	attempts, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return err
	}

	if attempts == 1 {
		rdb.Expire(ctx, key, 1*time.Hour)
	}

	if attempts > limit {
		return errors.New("too many attempts, try again later")
	}
	return nil
}
