package storage

import (
	"context"
	"crypto/tls"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Redis keeps stats blobs in Redis under a key prefix. Keys never expire.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis connects to a redis:// or rediss:// URL and pings the server.
func NewRedis(ctx context.Context, rawURL, prefix string) (*Redis, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, errors.New("redis url required")
	}
	opts, err := parseRedisURL(rawURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "redis ping")
	}
	return NewRedisClient(rdb, prefix), nil
}

// NewRedisClient wraps an existing client.
func NewRedisClient(rdb *redis.Client, prefix string) *Redis {
	return &Redis{rdb: rdb, prefix: prefix}
}

func (r *Redis) key(k string) string { return r.prefix + k }

// Get returns the value at key. A missing key is not an error.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "redis get %s", key)
	}
	return raw, true, nil
}

// Set writes value at key.
func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.rdb.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return errors.Wrapf(err, "redis set %s", key)
	}
	return nil
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, errors.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, errors.Errorf("bad redis db %q", p)
		}
		db = n
	}
	pass, _ := u.User.Password()
	opts := &redis.Options{Addr: u.Host, Username: u.User.Username(), Password: pass, DB: db}
	if u.Scheme == "rediss" {
		opts.TLSConfig = &tls.Config{ServerName: u.Hostname(), MinVersion: tls.VersionTLS12}
	}
	return opts, nil
}
