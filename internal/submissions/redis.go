package submissions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisRecordPrefix = "submission:"
	redisIndexPrefix  = "submissions:index:"
	redisIndexAll     = redisIndexPrefix + "all"

	maxPatchRetries = 3
)

// RedisStore keeps one JSON document per submission plus sorted-set indexes
// (all, and one per type) scored by creation time, so listing never scans
// the keyspace.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func recordKey(id string) string { return redisRecordPrefix + id }

func indexKey(t Type) string {
	if t == "" {
		return redisIndexAll
	}
	return redisIndexPrefix + string(t)
}

func (r *RedisStore) Append(ctx context.Context, s Submission) (string, error) {
	prepareForAppend(&s, r.now())
	raw, err := json.Marshal(s)
	if err != nil {
		return "", err
	}

	// The record is written before it is indexed, so List never sees an id
	// without its document. A failed index write removes the record again.
	created, err := r.client.SetNX(ctx, recordKey(s.ID), raw, 0).Result()
	if err != nil {
		return "", unavailable(err)
	}
	if !created {
		return "", ErrDuplicateID
	}

	member := redis.Z{Score: float64(s.Timestamp.UnixMilli()), Member: s.ID}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, redisIndexAll, member)
		pipe.ZAdd(ctx, indexKey(s.Type), member)
		return nil
	})
	if err != nil {
		r.dropRecord(context.WithoutCancel(ctx), s)
		return "", unavailable(err)
	}
	return s.ID, nil
}

// dropRecord undoes a partial Append. MULTI does not roll back the commands
// that succeeded, so both index entries are removed as well.
func (r *RedisStore) dropRecord(ctx context.Context, s Submission) {
	_, _ = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, redisIndexAll, s.ID)
		pipe.ZRem(ctx, indexKey(s.Type), s.ID)
		pipe.Del(ctx, recordKey(s.ID))
		return nil
	})
}

func (r *RedisStore) Get(ctx context.Context, id string) (Submission, error) {
	raw, err := r.client.Get(ctx, recordKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Submission{}, ErrNotFound
	}
	if err != nil {
		return Submission{}, unavailable(err)
	}
	var s Submission
	if err := json.Unmarshal(raw, &s); err != nil {
		return Submission{}, fmt.Errorf("decode submission %s: %w", id, err)
	}
	return s, nil
}

func (r *RedisStore) List(ctx context.Context, filter ListFilter) ([]Submission, int64, error) {
	key := indexKey(filter.Type)

	// Type-only filters can page on the index directly.
	if filter.Read == nil && filter.Status == "" {
		total, err := r.client.ZCard(ctx, key).Result()
		if err != nil {
			return nil, 0, unavailable(err)
		}
		stop := int64(-1)
		if filter.Limit > 0 {
			stop = filter.Offset + filter.Limit - 1
		}
		ids, err := r.client.ZRevRange(ctx, key, filter.Offset, stop).Result()
		if err != nil {
			return nil, 0, unavailable(err)
		}
		items, err := r.load(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		return items, total, nil
	}

	ids, err := r.client.ZRevRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, 0, unavailable(err)
	}
	all, err := r.load(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	items := make([]Submission, 0, len(all))
	for _, s := range all {
		if filter.matches(s) {
			items = append(items, s)
		}
	}
	total := int64(len(items))
	return paginate(items, filter.Limit, filter.Offset), total, nil
}

func (r *RedisStore) load(ctx context.Context, ids []string) ([]Submission, error) {
	if len(ids) == 0 {
		return []Submission{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = recordKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, unavailable(err)
	}

	items := make([]Submission, 0, len(values))
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var s Submission
		if err := json.Unmarshal([]byte(str), &s); err != nil {
			return nil, fmt.Errorf("decode submission %s: %w", ids[i], err)
		}
		items = append(items, s)
	}
	sortNewestFirst(items)
	return items, nil
}

// Patch merges u into the stored document under WATCH, retrying when a
// concurrent writer touched the same record.
func (r *RedisStore) Patch(ctx context.Context, id string, u Update) (Submission, error) {
	key := recordKey(id)
	var updated Submission

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var s Submission
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("decode submission %s: %w", id, err)
		}
		u.apply(&s, r.now())
		next, err := json.Marshal(s)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, redis.KeepTTL)
			return nil
		})
		if err == nil {
			updated = s
		}
		return err
	}

	for i := 0; i < maxPatchRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, ErrNotFound) {
			return Submission{}, ErrNotFound
		}
		return Submission{}, unavailable(err)
	}
	return Submission{}, unavailable(redis.TxFailedErr)
}

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}
