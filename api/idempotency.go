package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const idempotencyKeyHeader = "Idempotency-Key"

// RedisDeduper records the Idempotency-Key of every accepted create in Redis
// so a replay is refused by any instance until the key expires.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func createKey(userID, key string) string {
	return "idem:create:" + userID + ":" + key
}

// Add claims key for userID and reports whether it was free.
func (r *RedisDeduper) Add(ctx context.Context, userID, key string) (bool, error) {
	return r.client.SetNX(ctx, createKey(userID, key), 1, r.ttl).Result()
}

// Remove frees a claimed key so a create that failed validation may be retried.
func (r *RedisDeduper) Remove(ctx context.Context, userID, key string) error {
	return r.client.Del(ctx, createKey(userID, key)).Err()
}

// createClaim is the idempotency key a create request holds while it runs.
// The zero value holds nothing.
type createClaim struct {
	d      Deduper
	userID string
	key    string
}

// claimCreate claims the request's Idempotency-Key. A non-zero status means the
// request must stop with that status and message.
func (h *handlers) claimCreate(c echo.Context, userID string, m *requestMetrics) (createClaim, int, string) {
	key := strings.TrimSpace(c.Request().Header.Get(idempotencyKeyHeader))
	if key == "" || h.Deduper == nil {
		return createClaim{}, 0, ""
	}
	added, err := h.Deduper.Add(c.Request().Context(), userID, key)
	if err != nil {
		m.SetErrorStage("dedupe")
		h.Log.WithError(err).WithField("user", userID).Error("idempotency check failed")
		return createClaim{}, http.StatusInternalServerError, "idempotency check failed"
	}
	if !added {
		m.SetErrorStage("duplicate")
		return createClaim{}, http.StatusConflict, "duplicate request"
	}
	return createClaim{d: h.Deduper, userID: userID, key: key}, 0, ""
}

// rollback frees the key after a rejected create.
func (cl createClaim) rollback(ctx context.Context, h *handlers) {
	if cl.d == nil {
		return
	}
	if err := cl.d.Remove(ctx, cl.userID, cl.key); err != nil {
		h.Log.WithError(err).WithField("user", cl.userID).Warn("idempotency rollback failed")
	}
}
