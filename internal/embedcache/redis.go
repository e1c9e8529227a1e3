// Package embedcache caches computed speaker embeddings so synthesis does
// not have to re-derive them from the raw audio on every call. The cache is
// optional; a miss simply means recomputing.
package embedcache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrMiss = errors.New("embedding not cached")

type Cache interface {
	Put(ctx context.Context, voiceID string, vector []float32) error
	Get(ctx context.Context, voiceID string) ([]float32, error)
}

type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

func NewRedis(cfg RedisConfig) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Redis{
		rdb: rdb,
		ttl: cfg.TTL,
	}
}

func (r *Redis) Put(ctx context.Context, voiceID string, vector []float32) error {
	if err := r.rdb.Set(ctx, key(voiceID), encode(vector), r.ttl).Err(); err != nil {
		return fmt.Errorf("store embedding in redis: %w", err)
	}

	return nil
}

func (r *Redis) Get(ctx context.Context, voiceID string) ([]float32, error) {
	val, err := r.rdb.Get(ctx, key(voiceID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}

		return nil, fmt.Errorf("retrieve embedding from redis: %w", err)
	}

	vector, err := decode(val)
	if err != nil {
		return nil, fmt.Errorf("decode cached embedding: %w", err)
	}

	return vector, nil
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

func key(voiceID string) string {
	return "embedding:" + voiceID
}

// Embeddings are stored as little-endian float32 sequences.
func encode(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decode(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("malformed embedding payload: %d bytes", len(buf))
	}

	vector := make([]float32, len(buf)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return vector, nil
}
