package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/lodging-booking/internal/config"
    "github.com/iliyamo/lodging-booking/internal/logging"
    "github.com/iliyamo/lodging-booking/internal/metrics"
)

// cachedResponse is what a cache entry holds in Redis.
type cachedResponse struct {
    Status int         `json:"s"`
    Header http.Header `json:"h"`
    Body   []byte      `json:"b"`
}

// recorder tees the response body into a buffer up to limit bytes. Once the
// body outgrows the limit the entry is marked oversize and not stored.
type recorder struct {
    http.ResponseWriter
    status   int
    body     bytes.Buffer
    limit    int
    oversize bool
}

func (r *recorder) WriteHeader(code int) {
    r.status = code
    r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
    if !r.oversize {
        if r.limit > 0 && r.body.Len()+len(b) > r.limit {
            r.oversize = true
            r.body.Reset()
        } else {
            r.body.Write(b)
        }
    }
    return r.ResponseWriter.Write(b)
}

// generationKey holds a counter bumped by InvalidateCache. It is part of
// every entry key, so one INCR orphans all entries written before it.
func generationKey(cfg config.CacheConfig) string { return cfg.Prefix + ":gen" }

// cacheKeyFrom hashes the parts of the request named by the key strategy.
// The concrete path is used, never the route template, so
// /v1/listings/a and /v1/listings/b get separate entries.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context, gen int64) string {
    r := c.Request()
    var parts []string
    switch strings.ToLower(cfg.KeyStrategy) {
    case "route":
        parts = []string{"route", r.URL.Path}
    case "method_route":
        parts = []string{"method", r.Method, "route", r.URL.Path}
    case "method_route_query":
        parts = []string{"method", r.Method, "route", r.URL.Path, "q", r.URL.RawQuery}
    default:
        parts = []string{"route", r.URL.Path, "q", r.URL.RawQuery}
    }
    sum := sha1.Sum([]byte(strings.Join(parts, ":")))
    return fmt.Sprintf("%s:%d:%x", cfg.Prefix, gen, sum)
}

func encodeEntry(status int, header http.Header, body []byte) ([]byte, error) {
    return json.Marshal(cachedResponse{Status: status, Header: header, Body: body})
}

func decodeEntry(bs []byte) (cachedResponse, bool) {
    var e cachedResponse
    if err := json.Unmarshal(bs, &e); err != nil || e.Status == 0 {
        return cachedResponse{}, false
    }
    return e, true
}

// perResponse holds headers that belong to one response only.
var perResponse = map[string]bool{}

func init() {
    for _, k := range []string{"Content-Length", HeaderRequestID, "X-Cache",
        "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Key", "Retry-After"} {
        perResponse[http.CanonicalHeaderKey(k)] = true
    }
}

func skipHeader(k string) bool { return perResponse[http.CanonicalHeaderKey(k)] }

// NewRedisCache serves 200 responses for the configured methods out of Redis.
// Mount it on public routes only: the key does not include the caller.
// "Cache-Control: no-cache" on the request skips the lookup but still
// refreshes the entry.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = 30 * time.Second
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            req := c.Request()
            if !cfg.Caches(req.Method) {
                return next(c)
            }
            ctx := req.Context()
            gen, err := rdb.Get(ctx, generationKey(cfg)).Int64()
            if err != nil && !errors.Is(err, redis.Nil) {
                logging.WarnContext(ctx, "cache generation unavailable", "error", err)
                return next(c)
            }
            key := cacheKeyFrom(cfg, c, gen)

            if !strings.Contains(req.Header.Get("Cache-Control"), "no-cache") {
                if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
                    if e, ok := decodeEntry(bs); ok {
                        metrics.RecordCacheLookup(true)
                        return replay(c, e)
                    }
                } else if !errors.Is(err, redis.Nil) {
                    logging.WarnContext(ctx, "cache lookup failed", "key", key, "error", err)
                }
            }
            metrics.RecordCacheLookup(false)

            rec := &recorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            c.Response().Writer = rec
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }
            if rec.status != http.StatusOK || rec.oversize {
                return nil
            }

            hdr := http.Header{}
            for k, vals := range c.Response().Header() {
                if !skipHeader(k) {
                    hdr[k] = append([]string(nil), vals...)
                }
            }
            entry, err := encodeEntry(rec.status, hdr, rec.body.Bytes())
            if err != nil {
                return nil
            }
            if err := rdb.Set(context.WithoutCancel(ctx), key, entry, ttl).Err(); err != nil {
                logging.WarnContext(ctx, "cache store failed", "key", key, "error", err)
            }
            return nil
        }
    }
}

// InvalidateCache drops every cached response after a successful write.
// Mount it on the routes that change what the cached GETs return.
func InvalidateCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            err := next(c)
            if err != nil || c.Response().Status >= http.StatusBadRequest {
                return err
            }
            ctx := c.Request().Context()
            if err := rdb.Incr(context.WithoutCancel(ctx), generationKey(cfg)).Err(); err != nil {
                logging.WarnContext(ctx, "cache invalidation failed", "route", c.Path(), "error", err)
            }
            return nil
        }
    }
}

func replay(c echo.Context, e cachedResponse) error {
    h := c.Response().Header()
    for k, vals := range e.Header {
        if skipHeader(k) {
            continue
        }
        for _, v := range vals {
            h.Add(k, v)
        }
    }
    h.Set("X-Cache", "HIT")
    c.Response().WriteHeader(e.Status)
    if len(e.Body) == 0 {
        return nil
    }
    _, err := c.Response().Write(e.Body)
    return err
}
