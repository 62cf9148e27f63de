// Package redisstore keeps tokens in a Redis hash so several portal
// processes can share one session scope.
package redisstore

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/campus/core/session"
)

const keyPrefix = "campus:tokens:"

type Store struct {
	client redis.Cmdable
	key    string
}

var _ session.TokenStore = (*Store)(nil)

func New(client redis.Cmdable, scope string) *Store {
	if scope == "" {
		scope = "default"
	}
	return &Store{client: client, key: keyPrefix + scope}
}

func (s *Store) Key() string { return s.key }

func (s *Store) Get(ctx context.Context, name string) (string, error) {
	val, err := s.client.HGet(ctx, s.key, name).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "redis HGET %s %s", s.key, name)
	}
	return val, nil
}

func (s *Store) Set(ctx context.Context, name, value string) error {
	err := s.client.HSet(ctx, s.key, name, value).Err()
	return errors.Wrapf(err, "redis HSET %s %s", s.key, name)
}

// Remove drops every name with a single HDEL.
func (s *Store) Remove(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	err := s.client.HDel(ctx, s.key, names...).Err()
	return errors.Wrapf(err, "redis HDEL %s", s.key)
}
