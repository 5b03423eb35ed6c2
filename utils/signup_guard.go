package utils

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cppla/blogpress/config"
)

func signupKey(parts ...string) string {
	return "signup:" + strings.Join(parts, ":")
}

var (
	signupMem   = map[string]signupCounter{}
	signupMemMu sync.Mutex
)

type signupCounter struct {
	n         int
	expiresAt time.Time
}

// SignupCooldownTry enforces a short cooldown between signup attempts per IP.
// Returns false while the IP is still cooling down.
func SignupCooldownTry(ip string) bool {
	sec := config.Get().SignupCooldownSec
	if sec <= 0 {
		return true
	}
	ttl := time.Duration(sec) * time.Second
	key := signupKey("cooldown", ip)
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		ok, err := rc.SetNX(ctx, key, "1", ttl).Result()
		if err == nil {
			return ok
		}
	}
	signupMemMu.Lock()
	defer signupMemMu.Unlock()
	if c, ok := signupMem[key]; ok && time.Now().Before(c.expiresAt) {
		return false
	}
	signupMem[key] = signupCounter{n: 1, expiresAt: time.Now().Add(ttl)}
	return true
}

// SignupDailyAllowed reports whether the IP is still under its daily quota of
// successful signups.
func SignupDailyAllowed(ip string) bool {
	limit := config.Get().SignupMaxPerIPPerDay
	if limit <= 0 {
		return true
	}
	key := signupKey("day", ip, time.Now().Format("20060102"))
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		n, err := rc.Get(ctx, key).Int()
		if err == nil || err == redis.Nil {
			return n < limit
		}
	}
	signupMemMu.Lock()
	defer signupMemMu.Unlock()
	c := signupMem[key]
	return time.Now().After(c.expiresAt) || c.n < limit
}

// SignupDailyIncrement counts a successful signup for today.
func SignupDailyIncrement(ip string) {
	if config.Get().SignupMaxPerIPPerDay <= 0 {
		return
	}
	key := signupKey("day", ip, time.Now().Format("20060102"))
	ttl := time.Until(time.Now().Truncate(24 * time.Hour).Add(24 * time.Hour))
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		if err := rc.Incr(ctx, key).Err(); err == nil {
			_ = rc.Expire(ctx, key, ttl).Err()
			return
		}
	}
	signupMemMu.Lock()
	defer signupMemMu.Unlock()
	c := signupMem[key]
	if time.Now().After(c.expiresAt) {
		c = signupCounter{expiresAt: time.Now().Add(ttl)}
	}
	c.n++
	signupMem[key] = c
}
