package utils

import (
	"context"
	"sync"
	"time"
)

// Logout revokes a session token before its natural expiry. Revocations
// live in Redis keyed by the token with a TTL matching its remaining
// lifetime; without Redis they fall back to process memory, which is
// enough for a single instance.

const revokedKeyPrefix = "session:revoked:"

var (
	revoked   = map[string]time.Time{}
	revokedMu sync.RWMutex
)

// BlacklistToken revokes token until expiresAt.
func BlacklistToken(token string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Set(ctx, revokedKeyPrefix+token, "1", ttl).Err(); err == nil {
			return
		}
		// Redis write failed; record locally so this instance still
		// refuses the token.
	}
	revokedMu.Lock()
	revoked[token] = expiresAt
	revokedMu.Unlock()
}

// IsTokenBlacklisted reports whether token was revoked and has not yet
// expired on its own.
func IsTokenBlacklisted(token string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if n, err := rc.Exists(ctx, revokedKeyPrefix+token).Result(); err == nil && n > 0 {
			return true
		}
	}

	revokedMu.RLock()
	expiresAt, ok := revoked[token]
	revokedMu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(expiresAt) {
		revokedMu.Lock()
		delete(revoked, token)
		revokedMu.Unlock()
		return false
	}
	return true
}
