package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/fiffu/framenotify/lib/models"
)

// RedisQueue keeps task ids in a sorted set scored by run-at (unix millis)
// and task bodies in a hash.
type RedisQueue struct {
	client   redis.UniversalClient
	schedule string
	bodies   string
}

func NewRedisQueue(client redis.UniversalClient, prefix string) *RedisQueue {
	return &RedisQueue{client, prefix + ":schedule", prefix + ":tasks"}
}

func (q *RedisQueue) Push(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	body, err := json.Marshal(task)
	if err != nil {
		return err
	}
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, q.bodies, task.ID, body)
		pipe.ZAdd(ctx, q.schedule, redis.Z{Score: float64(task.RunAt.UnixMilli()), Member: task.ID})
		return nil
	})
	return err
}

func (q *RedisQueue) Due(ctx context.Context, now time.Time, limit int) (models.Tasks, error) {
	ids, err := q.client.ZRangeByScore(ctx, q.schedule, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil || len(ids) == 0 {
		return nil, err
	}

	bodies, err := q.client.HMGet(ctx, q.bodies, ids...).Result()
	if err != nil {
		return nil, err
	}

	tasks := make(models.Tasks, 0, len(ids))
	for i, body := range bodies {
		s, ok := body.(string)
		if !ok {
			// Body went missing; drop the dangling schedule entry.
			q.client.ZRem(ctx, q.schedule, ids[i])
			continue
		}
		var task models.Task
		if err := json.Unmarshal([]byte(s), &task); err != nil {
			return nil, fmt.Errorf("decode task %s: %w", ids[i], err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (q *RedisQueue) Ack(ctx context.Context, id string) error {
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, q.schedule, id)
		pipe.HDel(ctx, q.bodies, id)
		return nil
	})
	return err
}
