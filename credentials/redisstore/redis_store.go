package redisstore

import (
	"context"
	"time"

	"github.com/jrsteele09/wakelni-client/credentials"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var _ credentials.BatchStore = (*Store)(nil)

// Store keeps the session in a single Redis hash, one field per key. Multi-field
// writes and deletes are single HSET/HDEL commands and therefore atomic.
type Store struct {
	client redis.Cmdable
	key    string
}

// New returns a store writing to the hash named key.
func New(client redis.Cmdable, key string) (*Store, error) {
	if client == nil {
		return nil, errors.New("[redisstore.New] client is required")
	}
	if key == "" {
		return nil, errors.New("[redisstore.New] key is required")
	}
	return &Store{client: client, key: key}, nil
}

// Connect opens a client and checks it with PING.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "[redisstore.Connect] ping %s", addr)
	}
	log.Debug().Str("addr", addr).Int("db", db).Msg("Connected to Redis")
	return client, nil
}

func (s *Store) Get(ctx context.Context, field string) (string, error) {
	v, err := s.client.HGet(ctx, s.key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", credentials.ErrKeyNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "[redisstore.Get] %s", field)
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, field, value string) error {
	if err := s.client.HSet(ctx, s.key, field, value).Err(); err != nil {
		return errors.Wrapf(err, "[redisstore.Set] %s", field)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, field string) error {
	if err := s.client.HDel(ctx, s.key, field).Err(); err != nil {
		return errors.Wrapf(err, "[redisstore.Remove] %s", field)
	}
	return nil
}

func (s *Store) SetAll(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	args := make([]interface{}, 0, 2*len(values))
	for k, v := range values {
		args = append(args, k, v)
	}
	if err := s.client.HSet(ctx, s.key, args...).Err(); err != nil {
		return errors.Wrap(err, "[redisstore.SetAll]")
	}
	return nil
}

func (s *Store) RemoveAll(ctx context.Context, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	if err := s.client.HDel(ctx, s.key, fields...).Err(); err != nil {
		return errors.Wrap(err, "[redisstore.RemoveAll]")
	}
	return nil
}

// Replace runs the HDEL and HSET in one MULTI/EXEC transaction.
func (s *Store) Replace(ctx context.Context, values map[string]string, remove ...string) error {
	if len(values) == 0 && len(remove) == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(remove) > 0 {
			pipe.HDel(ctx, s.key, remove...)
		}
		if len(values) > 0 {
			args := make([]interface{}, 0, 2*len(values))
			for k, v := range values {
				args = append(args, k, v)
			}
			pipe.HSet(ctx, s.key, args...)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "[redisstore.Replace]")
	}
	return nil
}
