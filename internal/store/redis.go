package store

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/goinginblind/lso-gateway/internal/pkg/logger"
	"github.com/goinginblind/lso-gateway/internal/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

const (
	backendRedis = "redis"

	// maxCASRetries bounds how many times Update retries after losing a WATCH race.
	maxCASRetries = 10
)

// RedisStore keeps one hash per collection, plus a sorted set
// recording the order in which keys were first written.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	logger logger.Logger
}

// NewRedisStore parses url (redis://...) and creates the client. It does not dial.
func NewRedisStore(url string, logger logger.Logger) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return &RedisStore{
		rdb:    redis.NewClient(opt),
		prefix: "lso:",
		logger: logger,
	}, nil
}

func (s *RedisStore) hashKey(c Collection) string  { return s.prefix + string(c) }
func (s *RedisStore) indexKey(c Collection) string { return s.prefix + string(c) + ":index" }

func (s *RedisStore) Get(ctx context.Context, c Collection, key string) ([]byte, error) {
	defer observe(backendRedis, "get", time.Now())

	body, err := s.rdb.HGet(ctx, s.hashKey(c), key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, s.wrap(err, fmt.Sprintf("getting %s/%s", c, key))
	}
	return body, nil
}

func (s *RedisStore) Put(ctx context.Context, c Collection, key string, doc []byte) error {
	defer observe(backendRedis, "put", time.Now())

	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, s.hashKey(c), key, doc)
		p.ZAddNX(ctx, s.indexKey(c), redis.Z{Score: float64(time.Now().UnixNano()), Member: key})
		return nil
	})
	if err != nil {
		return s.wrap(err, fmt.Sprintf("putting %s/%s", c, key))
	}
	return nil
}

// Update is an optimistic compare-and-swap: the hash is WATCHed while fn
// runs and the write is retried when another client changed it meanwhile.
func (s *RedisStore) Update(ctx context.Context, c Collection, key string, fn UpdateFunc) error {
	defer observe(backendRedis, "update", time.Now())

	hash := s.hashKey(c)
	txf := func(tx *redis.Tx) error {
		cur, err := tx.HGet(ctx, hash, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return err
		}

		next, err := fn(cur)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, hash, key, next)
			return nil
		})
		return err
	}

	for range maxCASRetries {
		err := s.rdb.Watch(ctx, txf, hash)
		if errors.Is(err, redis.TxFailedErr) {
			s.logger.Debugw("Redis update lost a race, retrying", "collection", c, "key", key)
			continue
		}
		if err != nil {
			if isRedisConnectionError(err) {
				return s.wrap(err, fmt.Sprintf("updating %s/%s", c, key))
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("updating %s/%s: %w", c, key, ErrConflict)
}

func (s *RedisStore) PutField(ctx context.Context, c Collection, key string, path []string, value any) error {
	return s.Update(ctx, c, key, func(doc []byte) ([]byte, error) {
		return setField(doc, path, value)
	})
}

// List returns the documents of c in first-write order.
func (s *RedisStore) List(ctx context.Context, c Collection) ([][]byte, error) {
	defer observe(backendRedis, "list", time.Now())

	keys, err := s.rdb.ZRange(ctx, s.indexKey(c), 0, -1).Result()
	if err != nil {
		return nil, s.wrap(err, fmt.Sprintf("listing %s keys", c))
	}
	if len(keys) == 0 {
		return nil, nil
	}

	vals, err := s.rdb.HMGet(ctx, s.hashKey(c), keys...).Result()
	if err != nil {
		return nil, s.wrap(err, fmt.Sprintf("listing %s", c))
	}

	out := make([][]byte, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue // index entry without a document
		}
		out = append(out, []byte(str))
	}
	return out, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return s.wrap(err, "pinging redis")
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) wrap(err error, op string) error {
	if isRedisConnectionError(err) {
		metrics.StoreTransientErrors.Inc()
		s.logger.Warnw("Redis connection error", "op", op, "error", err)
		return fmt.Errorf("%s: %w", op, ErrConnectionFailed)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isRedisConnectionError(err error) bool {
	if errors.Is(err, redis.ErrClosed) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
