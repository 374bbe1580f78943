package oracle

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisSet stores custom dictionary words in a Redis set.
// Words are stored lowercased so lookups match Dictionary's lowercase form.
type RedisSet struct {
	client *redis.Client
	key    string
}

// NewRedisSet creates a RedisSet over key. An empty key defaults to "custom_dict".
func NewRedisSet(client *redis.Client, key string) *RedisSet {
	if key == "" {
		key = "custom_dict"
	}
	return &RedisSet{client: client, key: key}
}

// Add inserts a word into the custom dictionary.
func (rs *RedisSet) Add(ctx context.Context, word string) error {
	return rs.client.SAdd(ctx, rs.key, normalize(word)).Err()
}

// Remove deletes a word from the custom dictionary.
func (rs *RedisSet) Remove(ctx context.Context, word string) error {
	return rs.client.SRem(ctx, rs.key, normalize(word)).Err()
}

// All returns all words stored in the custom dictionary.
func (rs *RedisSet) All(ctx context.Context) ([]string, error) {
	return rs.client.SMembers(ctx, rs.key).Result()
}

// Has implements Backend.
func (rs *RedisSet) Has(ctx context.Context, word string) (bool, error) {
	return rs.client.SIsMember(ctx, rs.key, normalize(word)).Result()
}

// Ping checks connectivity.
func (rs *RedisSet) Ping(ctx context.Context) error {
	return rs.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (rs *RedisSet) Close() error {
	return rs.client.Close()
}

func normalize(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}
