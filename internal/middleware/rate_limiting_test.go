package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/2beens/fittracker/internal/telemetry/metrics"

	"github.com/go-redis/redis_rate/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

type testRateLimiter struct {
	perKey map[string]int
	err    error
}

func (l *testRateLimiter) Allow(_ context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.perKey[key]++
	if l.perKey[key] > limit.Rate {
		return &redis_rate.Result{Limit: limit, Allowed: 0, RetryAfter: 30 * time.Second}, nil
	}
	return &redis_rate.Result{Limit: limit, Allowed: 1, Remaining: limit.Rate - l.perKey[key]}, nil
}

func TestRateLimit(t *testing.T) {
	limiter := &testRateLimiter{perKey: map[string]int{}}
	metricsManager := metrics.NewTestManager()
	handler := RateLimit(limiter, "login", 2, metricsManager)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
	)

	send := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodPost, "/a/login", nil)
		req.RemoteAddr = remoteAddr
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1235"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:1236"))
	// other clients keep their own budget
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1234"))

	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterRateLimitedRequests))
	assert.Equal(t, 3, limiter.perKey["login||10.0.0.1"])
}

func TestRateLimit_LimiterError(t *testing.T) {
	limiter := &testRateLimiter{err: errors.New("redis down")}
	handler := RateLimit(limiter, "login", 2, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
	)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/a/login", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
