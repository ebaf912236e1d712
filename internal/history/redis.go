package history

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"menu-recommender/internal/common/config"
	"menu-recommender/internal/common/errors"
	"menu-recommender/internal/models"
)

const (
	recordKeyPrefix = "history:record:"
	userKeyPrefix   = "history:user:"
	allKey          = "history:all"
)

// RedisStore keeps each record as a JSON string and indexes it in sorted sets
// scored by the recommendation time in unix microseconds, the resolution
// records are kept at.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Backend() string { return config.HistoryBackendRedis }

func recordKey(id string) string { return recordKeyPrefix + id }

func userKey(userID string) string { return userKeyPrefix + userID }

func (s *RedisStore) Record(ctx context.Context, userID string, item models.MenuItem, at time.Time) (models.HistoryRecord, error) {
	rec := newRecord(uuid.NewString(), userID, item, at.Truncate(time.Microsecond))

	data, err := json.Marshal(rec)
	if err != nil {
		return models.HistoryRecord{}, errors.NewHistoryPersistenceError(s.Backend(), err)
	}

	member := redis.Z{Score: float64(rec.RecommendedAt.UnixMicro()), Member: rec.ID}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, recordKey(rec.ID), data, 0)
	pipe.ZAdd(ctx, allKey, member)
	if userID != "" {
		pipe.ZAdd(ctx, userKey(userID), member)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return models.HistoryRecord{}, errors.NewHistoryPersistenceError(s.Backend(), err)
	}

	return rec, nil
}

func (s *RedisStore) History(ctx context.Context, filter models.HistoryFilter) ([]models.HistoryRecord, error) {
	key := allKey
	if filter.UserID != "" {
		key = userKey(filter.UserID)
	}

	opt := &redis.ZRangeBy{
		Min:   "-inf",
		Max:   "+inf",
		Count: int64(ClampLimit(filter.Limit, DefaultLimit, MaxLimit)),
	}
	if !filter.Since.IsZero() {
		opt.Min = strconv.FormatInt(minScore(filter.Since), 10)
	}
	if !filter.Until.IsZero() {
		opt.Max = strconv.FormatInt(filter.Until.UnixMicro(), 10)
	}

	ids, err := s.client.ZRevRangeByScore(ctx, key, opt).Result()
	if err != nil {
		return nil, errors.NewHistoryQueryFailedError(s.Backend(), err)
	}
	if len(ids) == 0 {
		return []models.HistoryRecord{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = recordKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.NewHistoryQueryFailedError(s.Backend(), err)
	}

	records := make([]models.HistoryRecord, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var rec models.HistoryRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, errors.NewHistoryQueryFailedError(s.Backend(), err)
		}
		records = append(records, rec)
	}

	return records, nil
}

// minScore rounds since up to the next whole microsecond.
func minScore(since time.Time) int64 {
	score := since.UnixMicro()
	if since.Truncate(time.Microsecond).Before(since) {
		score++
	}
	return score
}
