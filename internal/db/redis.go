package db

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis builds a client from a URL when given, otherwise from the
// address triple, and pings it.
func ConnectRedis(ctx context.Context, url, addr, password string, dbIndex int) (*redis.Client, error) {
	var opts *redis.Options
	if url != "" {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil, err
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     addr,
			Password: password,
			DB:       dbIndex,
		}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
