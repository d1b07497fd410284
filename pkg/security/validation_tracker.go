package security

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"nmo-web-backend/pkg/redis"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ValidationTrackerConfig holds configuration for rejected-form tracking
type ValidationTrackerConfig struct {
	LogLimit int           // Failures logged individually per window (default: 3)
	Window   time.Duration // Time window for counting failures (default: 15min)
}

// DefaultValidationTrackerConfig returns sensible defaults
func DefaultValidationTrackerConfig() ValidationTrackerConfig {
	return ValidationTrackerConfig{
		LogLimit: 3,
		Window:   15 * time.Minute,
	}
}

// ValidationTracker counts rejected form submissions per client so a bot
// hammering the form produces one suspicious_input event instead of a log flood
type ValidationTracker struct {
	config ValidationTrackerConfig
	logger *SecurityLogger

	mu     sync.Mutex
	memory map[string]*failureWindow
}

type failureWindow struct {
	count   int
	resetAt time.Time
}

// NewValidationTracker creates a new tracker with the given config
func NewValidationTracker(config ValidationTrackerConfig, logger *SecurityLogger) *ValidationTracker {
	if config.LogLimit <= 0 {
		config.LogLimit = DefaultValidationTrackerConfig().LogLimit
	}
	if config.Window <= 0 {
		config.Window = DefaultValidationTrackerConfig().Window
	}
	if logger == nil {
		logger = DefaultLogger()
	}
	return &ValidationTracker{
		config: config,
		logger: logger,
		memory: make(map[string]*failureWindow),
	}
}

// Redis key pattern
const failValidationIPPrefix = "nmo:fail:validation:ip:"

// Lua script for atomic increment with TTL on first set
// KEYS[1] = counter key
// ARGV[1] = TTL in seconds
// Returns: current count after increment
const incrWithTTLScript = `
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
end
return count
`

// RecordFailure counts a rejected form and logs it. The first LogLimit
// failures in a window are logged individually, the next one raises a single
// suspicious_input event, and the rest are only counted.
func (vt *ValidationTracker) RecordFailure(ctx context.Context, email, ip, requestID string, fields []string) int {
	count, err := vt.increment(ctx, ip)
	if err != nil {
		vt.logger.zapLogger.Warn("validation tracker falling back to memory", zap.Error(err))
		count = vt.incrementInMemory(ip, time.Now())
	}

	switch {
	case count <= vt.config.LogLimit:
		vt.logger.LogValidationFailed(ctx, email, ip, requestID, fields)
	case count == vt.config.LogLimit+1:
		vt.logger.LogSuspiciousInput(ctx, ip, requestID, count)
	}
	return count
}

// increment uses the shared Redis counter, or memory when Redis is not configured
func (vt *ValidationTracker) increment(ctx context.Context, ip string) (int, error) {
	client := redis.Client()
	if client == nil {
		return vt.incrementInMemory(ip, time.Now()), nil
	}

	ttlSeconds := int(vt.config.Window.Seconds())
	if ttlSeconds < 1 {
		ttlSeconds = 1
	}
	return atomicIncrement(ctx, client, failValidationIPPrefix+ip, ttlSeconds)
}

// atomicIncrement performs an atomic increment with TTL using Lua script
func atomicIncrement(ctx context.Context, client *goredis.Client, key string, ttlSeconds int) (int, error) {
	result, err := client.Eval(ctx, incrWithTTLScript, []string{key}, ttlSeconds).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", key, err)
	}
	count, ok := result.(int64)
	if !ok {
		return 0, errors.New("unexpected result type from Lua script")
	}
	return int(count), nil
}

func (vt *ValidationTracker) incrementInMemory(ip string, now time.Time) int {
	vt.mu.Lock()
	defer vt.mu.Unlock()

	// Drop expired windows so the map only holds active clients
	for key, w := range vt.memory {
		if now.After(w.resetAt) {
			delete(vt.memory, key)
		}
	}

	w, ok := vt.memory[ip]
	if !ok {
		w = &failureWindow{resetAt: now.Add(vt.config.Window)}
		vt.memory[ip] = w
	}
	w.count++
	return w.count
}
