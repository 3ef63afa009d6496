package middleware

import (
    "context"
    "fmt"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/lodging-booking/internal/config"
    "github.com/iliyamo/lodging-booking/internal/logging"
    "github.com/iliyamo/lodging-booking/internal/metrics"
)

// bucketScript refills whole intervals since the last refill, then takes one
// token. Reply: {allowed, remaining, retry_ms}.
var bucketScript = redis.NewScript(`
local tokens, last = unpack(redis.call('HMGET', KEYS[1], 't', 'ts'))
local now, cap, refill, every, ttl =
    tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])

tokens = tonumber(tokens) or cap
last = tonumber(last) or now

local steps = math.floor(math.max(0, now - last) / every)
if steps > 0 then
    tokens = math.min(cap, tokens + steps * refill)
    last = last + steps * every
end

local allowed, retry = 0, 0
if tokens >= 1 then
    allowed = 1
    tokens = tokens - 1
else
    retry = math.max(0, every - (now - last))
end

redis.call('HSET', KEYS[1], 't', tokens, 'ts', last)
redis.call('EXPIRE', KEYS[1], ttl)
return {allowed, tokens, retry}
`)

type bucketDecision struct {
    Allowed    bool
    Remaining  int64
    RetryAfter time.Duration
}

// bucket is one Redis token bucket per rate key.
type bucket struct {
    rdb *redis.Client
    cfg config.RateLimitConfig
}

func (b bucket) take(ctx context.Context, key string, now time.Time) (bucketDecision, error) {
    reply, err := bucketScript.Run(ctx, b.rdb, []string{key},
        now.UnixMilli(),
        b.cfg.Capacity,
        b.cfg.RefillTokens,
        b.cfg.RefillInterval.Milliseconds(),
        int64(b.cfg.TTL/time.Second),
    ).Int64Slice()
    if err != nil {
        return bucketDecision{}, err
    }
    if len(reply) != 3 {
        return bucketDecision{}, fmt.Errorf("ratelimit: unexpected reply %v", reply)
    }
    return bucketDecision{
        Allowed:    reply[0] == 1,
        Remaining:  reply[1],
        RetryAfter: time.Duration(reply[2]) * time.Millisecond,
    }, nil
}

// retrySeconds rounds up so clients never retry before a token exists.
func retrySeconds(d time.Duration) int {
    if d <= 0 {
        return 0
    }
    return int((d + time.Second - 1) / time.Second)
}

// NewTokenBucket limits requests per rate key with a Redis token bucket.
// Without Redis, or when disabled, it passes everything through. Redis
// errors fail open.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    b := bucket{rdb: rdb, cfg: cfg}

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            ctx := c.Request().Context()
            key := buildRateKey(cfg, c)

            d, err := b.take(ctx, key, time.Now())
            if err != nil {
                logging.WarnContext(ctx, "rate limiter unavailable", "key", key, "error", err)
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
            if cfg.Debug {
                h.Set("X-RateLimit-Key", key)
            }

            if !d.Allowed {
                h.Set("Retry-After", strconv.Itoa(retrySeconds(d.RetryAfter)))
                metrics.RecordRateLimited(c.Request().Method, c.Path())
                if cfg.Debug {
                    logging.InfoContext(ctx, "request throttled", "key", key, "retry_after", d.RetryAfter)
                }
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "error":   "too_many_requests",
                    "message": "Too many requests, please try again later",
                })
            }
            return next(c)
        }
    }
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// buildRateKey joins the dimensions named by the key strategy, e.g.
// "ip_user" gives "<prefix>:ip:<ip>:user:<uid>". Unknown strategies use
// all three dimensions.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    parts := []string{cfg.Prefix}
    for _, dim := range strings.Split(strings.ToLower(cfg.KeyStrategy), "_") {
        parts = appendDimension(parts, dim, c)
    }
    if len(parts) == 1 {
        for _, dim := range []string{"ip", "user", "route"} {
            parts = appendDimension(parts, dim, c)
        }
    }
    return strings.Join(parts, ":")
}

func appendDimension(parts []string, dim string, c echo.Context) []string {
    switch dim {
    case "ip":
        ip := c.RealIP()
        if ip == "" {
            ip = "unknown"
        }
        return append(parts, "ip", ip)
    case "user":
        return append(parts, "user", userKey(c))
    case "route":
        return append(parts, "route", c.Request().Method+" "+c.Path())
    }
    return parts
}
