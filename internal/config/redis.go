package config

// This file defines a Redis client constructor for the application.  Redis is
// used for distributed rate limiting and HTTP response caching.  If the
// connection fails during startup, the function returns nil and callers
// degrade gracefully by disabling caching and rate limiting.

import (
    "context"
    "crypto/tls"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfig is read with the REDIS_ prefix.  Host and Port take
// precedence over Addr when both are set.
type RedisConfig struct {
    Host     string `env:"HOST"`
    Port     string `env:"PORT"`
    Addr     string `env:"ADDR" envDefault:"localhost:6379"`
    Password string `env:"PASSWORD"`
    DB       int    `env:"DB" envDefault:"0"`
    TLS      bool   `env:"TLS" envDefault:"false"`
}

// Address resolves the host:port the client should dial.
func (r RedisConfig) Address() string {
    if r.Host != "" && r.Port != "" {
        return r.Host + ":" + r.Port
    }
    if r.Addr == "" {
        return "localhost:6379"
    }
    return r.Addr
}

// NewRedisClient instantiates a Redis client and pings it.  The returned
// client is nil if a connection cannot be established.
func NewRedisClient(ctx context.Context, rc RedisConfig) *redis.Client {
    var tlsConf *tls.Config
    if rc.TLS {
        tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      rc.Address(),
        Password:  rc.Password,
        DB:        rc.DB,
        TLSConfig: tlsConf,
    })
    // Ping the server with a short timeout.  Return nil on failure.
    pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    if err := client.Ping(pingCtx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}
