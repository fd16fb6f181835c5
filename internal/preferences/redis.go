package preferences

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/imagemeta/internal/models"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "imagemeta:prefs:"

const (
	fieldInterface = "interface"
	fieldMetadata  = "metadata"
)

// RedisStore keeps preferences in one hash per user
type RedisStore struct {
	rdb      *redis.Client
	defaults models.Languages
}

// Connect parses a redis:// URL and verifies the server answers
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	opts.DialTimeout = 10 * time.Second
	opts.ReadTimeout = 30 * time.Second
	opts.WriteTimeout = 30 * time.Second

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	slog.Info("Connected to redis", "addr", opts.Addr)
	return rdb, nil
}

func NewRedisStore(rdb *redis.Client, defaults models.Languages) *RedisStore {
	return &RedisStore{
		rdb:      rdb,
		defaults: withDefaults(defaults, Defaults()),
	}
}

func (s *RedisStore) Get(ctx context.Context, user string) (models.Languages, error) {
	values, err := s.rdb.HGetAll(ctx, keyPrefix+user).Result()
	if err != nil {
		return models.Languages{}, fmt.Errorf("failed to read preferences: %w", err)
	}
	return withDefaults(models.Languages{
		Interface: values[fieldInterface],
		Metadata:  values[fieldMetadata],
	}, s.defaults), nil
}

func (s *RedisStore) Set(ctx context.Context, user string, langs models.Languages) error {
	if err := Validate(langs); err != nil {
		return err
	}
	if err := s.rdb.HSet(ctx, keyPrefix+user, fieldInterface, langs.Interface, fieldMetadata, langs.Metadata).Err(); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}
