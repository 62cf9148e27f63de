// Package tokenstore builds the configured session.TokenStore.
package tokenstore

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/session"
	"github.com/trezcool/campus/storage/tokenstore/filestore"
	"github.com/trezcool/campus/storage/tokenstore/inmem"
	"github.com/trezcool/campus/storage/tokenstore/redisstore"
)

const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

var ErrUnknownBackend = errors.New("unknown token store backend")

// New returns the store selected by conf.Tokens.Backend and a func releasing it.
func New(ctx context.Context, conf *core.Config) (session.TokenStore, func() error, error) {
	noop := func() error { return nil }

	switch conf.Tokens.Backend {
	case "", BackendMemory:
		return inmem.New(), noop, nil
	case BackendFile:
		return filestore.New(conf.Tokens.FilePath), noop, nil
	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     conf.Redis.Address,
			Password: conf.Redis.Password,
			DB:       conf.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, errors.Wrapf(err, "connecting to redis at %s", conf.Redis.Address)
		}
		return redisstore.New(client, conf.Tokens.Scope), client.Close, nil
	}
	return nil, noop, errors.Wrapf(ErrUnknownBackend, "%q", conf.Tokens.Backend)
}
