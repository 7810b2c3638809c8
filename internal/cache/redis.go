// Package cache holds rendered exports and reports in Redis. Every function
// is a no-op when Redis is not connected, so the server runs without it.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	exportKeyFmt = "export:%s:%s:%d"
	reportKeyFmt = "report:%s:%s:%d"

	scanBatch = 100
)

var client *redis.Client

// ErrNotConnected is returned by Ping when Init never succeeded
var ErrNotConnected = errors.New("redis client not connected")

// Init connects to Redis; on failure the package stays disconnected
func Init(addr, password string) error {
	c := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return fmt.Errorf("redis ping %s: %w", addr, err)
	}
	client = c
	return nil
}

func Close() {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		log.Printf("[Redis] close: %v", err)
	}
	client = nil
}

// ExportKey addresses one reconciled export. The ledger version makes any
// write produce a new key, so stale exports are never served.
func ExportKey(sessionID, mode string, version uint64) string {
	return fmt.Sprintf(exportKeyFmt, sessionID, mode, version)
}

// ExportReportKey holds the row report of the export stored under exportKey
func ExportReportKey(exportKey string) string {
	return exportKey + ":rows"
}

// ReportKey addresses one rendered PDF report
func ReportKey(sessionID, mode string, version uint64) string {
	return fmt.Sprintf(reportKeyFmt, sessionID, mode, version)
}

// GetCached returns the bytes stored under key; misses and errors are false
func GetCached(ctx context.Context, key string) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[Redis] get %s: %v", key, err)
		}
		return nil, false
	}
	return data, true
}

func SetCached(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if client == nil {
		return
	}
	if err := client.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("[Redis] set %s: %v", key, err)
	}
}

// Store exposes the package cache as a value for services that take one
type Store struct{}

func (Store) Get(ctx context.Context, key string) ([]byte, bool) { return GetCached(ctx, key) }

func (Store) Set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	SetCached(ctx, key, data, ttl)
}

// InvalidateSessionCaches drops every export and report cached for a
// session. Called on import, teardown and expiry.
func InvalidateSessionCaches(ctx context.Context, sessionID string) {
	if client == nil {
		return
	}
	for _, prefix := range []string{"export", "report"} {
		pattern := fmt.Sprintf("%s:%s:*", prefix, sessionID)
		if err := deleteMatching(ctx, pattern); err != nil {
			log.Printf("[Redis] invalidate %s: %v", pattern, err)
		}
	}
}

// deleteMatching walks the keyspace with SCAN so large caches never block Redis
func deleteMatching(ctx context.Context, pattern string) error {
	iter := client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return client.Unlink(ctx, keys...).Err()
}

// IsHealthy pings with a short timeout
func IsHealthy() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return Ping(ctx) == nil
}

// Ping is the health probe for the cache
func Ping(ctx context.Context) error {
	if client == nil {
		return ErrNotConnected
	}
	return client.Ping(ctx).Err()
}
