// Package kv implements the session store client: key-value get/set/delete
// over Redis with an atomic multi-command primitive. Session token pairs are
// written and destroyed through Transaction so both directions of the
// mapping always change together.
package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("key not found")

// ErrUnavailable wraps transport-level Redis failures.
var ErrUnavailable = errors.New("session store unavailable")

// Supported transaction operations.
const (
	OpSet = "SET"
	OpDel = "DEL"
)

// Command is one key-value operation queued for atomic execution.
type Command struct {
	Op    string
	Key   string
	Value string // used by SET only
}

// Set builds a SET command.
func Set(key, value string) Command {
	return Command{Op: OpSet, Key: key, Value: value}
}

// Del builds a DEL command.
func Del(key string) Command {
	return Command{Op: OpDel, Key: key}
}

// Client wraps a Redis client. Session entries carry no TTL; they persist
// until explicit logout or admin deletion. General-purpose cached objects go
// through SetCached with a TTL in minutes.
type Client struct {
	rdb redis.UniversalClient
}

// New creates a Client backed by the given Redis client.
func New(rdb redis.UniversalClient) *Client {
	return &Client{rdb: rdb}
}

// Get returns the value for key, or ErrNotFound if the key is absent.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	value, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return value, nil
}

// Transaction applies the commands atomically and returns one reply per
// command in order: "OK" for a SET, the number of removed keys for a DEL.
// The store's command queue guarantees ordering and all-or-nothing
// application from the caller's perspective.
func (c *Client) Transaction(ctx context.Context, cmds []Command) ([]any, error) {
	if len(cmds) == 0 {
		return nil, nil
	}

	for _, cmd := range cmds {
		if cmd.Op != OpSet && cmd.Op != OpDel {
			return nil, fmt.Errorf("unsupported command %q", cmd.Op)
		}
	}

	cmders, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, cmd := range cmds {
			switch cmd.Op {
			case OpSet:
				pipe.Set(ctx, cmd.Key, cmd.Value, 0)
			case OpDel:
				pipe.Del(ctx, cmd.Key)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	replies := make([]any, len(cmders))
	for i, cmder := range cmders {
		switch typed := cmder.(type) {
		case *redis.StatusCmd:
			replies[i] = typed.Val()
		case *redis.IntCmd:
			replies[i] = typed.Val()
		}
	}
	return replies, nil
}

// SetCached stores a general-purpose cached value expiring after ttlMinutes.
func (c *Client) SetCached(ctx context.Context, key, value string, ttlMinutes int) error {
	if ttlMinutes <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %d", ttlMinutes)
	}

	err := c.rdb.Set(ctx, key, value, time.Duration(ttlMinutes)*time.Minute).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Ping returns a point-in-time availability check.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Close releases the underlying Redis client.
func (c *Client) Close() error {
	return c.rdb.Close()
}
