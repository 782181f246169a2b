package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"musee/logger"

	"github.com/redis/go-redis/v9"
)

// Rewritten playlists embed signed URLs, so cache entries must expire well
// before the URLs inside them do. Callers pass half the signed-URL TTL.

// PlaylistKey builds the cache key for one track playlist, where name is
// "master" or "v<bitrate>".
func PlaylistKey(trackID, name string) string {
	return fmt.Sprintf("playlist:%s:%s", trackID, name)
}

// GetPlaylist returns a cached playlist body. A miss, or an unreachable
// Redis, returns ok=false and no error: the caller falls through to object
// storage.
func GetPlaylist(key string) (string, bool) {
	if RedisClient == nil {
		return "", false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	body, err := RedisClient.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("playlist cache read failed",
				logger.String("key", key),
				logger.ErrorField(err))
		}
		return "", false
	}

	logger.Debug("playlist cache hit", logger.String("key", key))
	return body, true
}

// SetPlaylist stores a rewritten playlist body. Failures are logged only;
// the cache is an optimization, never a dependency.
func SetPlaylist(key, body string, ttl time.Duration) {
	if RedisClient == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := RedisClient.Set(ctx, key, body, ttl).Err(); err != nil {
		logger.Warn("playlist cache write failed",
			logger.String("key", key),
			logger.ErrorField(err))
		return
	}

	logger.Debug("playlist cached",
		logger.String("key", key),
		logger.Int("size", len(body)),
		logger.Duration("ttl", ttl))
}

// InvalidateTrack drops every cached playlist for a track, used after the
// track is re-processed.
func InvalidateTrack(trackID string) {
	if RedisClient == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pattern := PlaylistKey(trackID, "*")
	keys, err := RedisClient.Keys(ctx, pattern).Result()
	if err != nil || len(keys) == 0 {
		return
	}
	if err := RedisClient.Del(ctx, keys...).Err(); err != nil {
		logger.Warn("playlist cache invalidation failed",
			logger.String("trackId", trackID),
			logger.ErrorField(err))
		return
	}

	logger.Debug("playlist cache invalidated",
		logger.String("trackId", trackID),
		logger.Int("keys", len(keys)))
}
