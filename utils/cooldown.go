package utils

import (
	"context"
	"sync"
	"time"
)

// in-memory fallback store
type cooldownEntry struct {
	expiresAt time.Time
}

var (
	cooldowns   = map[string]cooldownEntry{}
	cooldownsMu sync.Mutex
)

// EmailCooldownTrySet sets a cooldown key for sending an OTP email.
// Returns true if set, false if still cooling down. Prefer Redis; fallback
// to memory.
func EmailCooldownTrySet(email string, cooldown time.Duration) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		key := "cooldown:email:" + email
		// NX with TTL
		if ok, err := rc.SetNX(ctx, key, "1", cooldown).Result(); err == nil {
			return ok
		}
		// On Redis error (e.g., network), fall through to memory fallback
	}
	cooldownsMu.Lock()
	defer cooldownsMu.Unlock()
	if entry, ok := cooldowns[email]; ok && time.Now().Before(entry.expiresAt) {
		return false
	}
	cooldowns[email] = cooldownEntry{expiresAt: time.Now().Add(cooldown)}
	return true
}
