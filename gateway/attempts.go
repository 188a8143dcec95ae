package gateway

import (
	"time"

	"github.com/go-redis/redis/v7"
	"github.com/sirupsen/logrus"
)

const (
	defaultAttemptsWindow    = 15 * time.Minute
	defaultAttemptsThreshold = 5
)

// Attempts tracks failed authentication attempts per external subject in
// redis, mostly as operator telemetry for brute-force or misconfiguration
// patterns. Without a redis client it degrades to a no-op.
type Attempts struct {
	Redis     *redis.Client
	Logger    *logrus.Logger
	Threshold int64
	Window    time.Duration
}

// Record counts one failed attempt for the subject.
func (a *Attempts) Record(subject string) {
	if a == nil || a.Redis == nil || subject == "" {
		return
	}
	window := a.Window
	if window <= 0 {
		window = defaultAttemptsWindow
	}
	threshold := a.Threshold
	if threshold <= 0 {
		threshold = defaultAttemptsThreshold
	}

	key := "sso:failed:" + subject
	count, err := a.Redis.Incr(key).Result()
	if err != nil {
		a.Logger.WithError(err).Debug("failed-attempt counter unavailable")
		return
	}
	a.Redis.Expire(key, window)
	if count >= threshold {
		a.Logger.WithFields(logrus.Fields{"sub": subject, "failures": count}).Warn("repeated authentication failures for subject")
	}
}
