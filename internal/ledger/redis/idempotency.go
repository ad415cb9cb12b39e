package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ms-boxoffice/internal/logger"

	"github.com/go-redis/redis/v8"
)

const (
	keyPrefix    = "sale_idem:"
	pendingValue = "pending"
)

// Status of an idempotency key after Reserve.
type Status int

const (
	// Reserved means the caller owns the key and must Complete or Release it.
	Reserved Status = iota
	// InFlight means another request with the same key has not finished.
	InFlight
	// Replay means the request already completed and its result is returned.
	Replay
)

type Redis struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, log *logger.Logger) *Redis {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Redis{Client: client, TTL: ttl, Logger: log}
}

// Connect opens a client and pings it.
func Connect(addr, password string, db int, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: 10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	log.Info("REDIS", "connected to "+addr)
	return client, nil
}

// Reserve claims key for one sale request. When the key already holds a
// completed response, that response is returned for replay.
func (r *Redis) Reserve(ctx context.Context, key string) (Status, []byte, error) {
	k := keyPrefix + key
	ok, err := r.Client.SetNX(ctx, k, pendingValue, r.TTL).Result()
	if err != nil {
		return 0, nil, err
	}
	if ok {
		return Reserved, nil, nil
	}

	val, err := r.Client.Get(ctx, k).Bytes()
	if err == redis.Nil {
		// expired between SETNX and GET; try once more
		ok, err = r.Client.SetNX(ctx, k, pendingValue, r.TTL).Result()
		if err != nil {
			return 0, nil, err
		}
		if ok {
			return Reserved, nil, nil
		}
		return InFlight, nil, nil
	}
	if err != nil {
		return 0, nil, err
	}
	if string(val) == pendingValue {
		return InFlight, nil, nil
	}
	return Replay, val, nil
}

// Complete stores the response for key so retries replay it.
func (r *Redis) Complete(ctx context.Context, key string, response interface{}) error {
	body, err := json.Marshal(response)
	if err != nil {
		return err
	}
	if err := r.Client.Set(ctx, keyPrefix+key, body, r.TTL).Err(); err != nil {
		r.Logger.Warn("REDIS", fmt.Sprintf("store idempotent response %s: %v", key, err))
		return err
	}
	return nil
}

// Release drops a pending reservation after a failed request so the client
// may retry with the same key.
func (r *Redis) Release(ctx context.Context, key string) error {
	k := keyPrefix + key
	val, err := r.Client.Get(ctx, k).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if val != pendingValue {
		return nil
	}
	return r.Client.Del(ctx, k).Err()
}
