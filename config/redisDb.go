package config

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// Redis bundles the client and its lock helper so callers receive one
// injected handle. All helpers are nil-safe: when Redis is not
// configured or not yet connected they behave as a cache miss, never an
// error, because nothing in the checkout path may depend on Redis.
type Redis struct {
	Client *redis.Client
	Locker *redislock.Client
}

// ConnectRedisWithRetry dials REDIS_ADDRESS. Returns nil when the env
// var is empty so the service can run without a cache.
func ConnectRedisWithRetry() *Redis {
	address := os.Getenv("REDIS_ADDRESS")
	if address == "" {
		log.Printf("REDIS_ADDRESS not set; running without redis cache")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr: address,
	})

	var attempt int
	for {
		attempt++
		err := client.Ping(context.Background()).Err()
		if err == nil {
			log.Printf("connected to redis (attempt=%d)", attempt)
			return &Redis{
				Client: client,
				Locker: redislock.New(client),
			}
		}
		if attempt >= 5 {
			log.Printf("redis unavailable after %d attempts: %v; running without redis cache", attempt, err)
			return nil
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		log.Printf("failed to connect redis (attempt=%d): %v; retrying in %s", attempt, err, sleep)
		time.Sleep(sleep)
	}
}

func (r *Redis) GetObject(ctx context.Context, key string, dest interface{}) (bool, error) {
	if r == nil || r.Client == nil {
		return false, nil
	}
	val, err := r.Client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Redis) SetObject(ctx context.Context, key string, obj interface{}, exp time.Duration) error {
	if r == nil || r.Client == nil {
		return nil
	}
	objInByte, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, key, objInByte, exp).Err()
}

func (r *Redis) RemoveKey(ctx context.Context, keys ...string) error {
	if r == nil || r.Client == nil {
		return nil
	}
	_, err := r.Client.Del(ctx, keys...).Result()
	return err
}

// ObtainLock is a best-effort lock. A nil lock with nil error means the
// lock could not be obtained (or Redis is absent) and the caller should
// proceed anyway; correctness must not depend on it.
func (r *Redis) ObtainLock(ctx context.Context, key string, ttl time.Duration) (*redislock.Lock, error) {
	if r == nil || r.Locker == nil {
		return nil, nil
	}
	lock, err := r.Locker.Obtain(ctx, key, ttl, nil)
	if err == redislock.ErrNotObtained {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return lock, nil
}

func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
