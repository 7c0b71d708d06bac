package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiffu/framenotify/lib/models"
	"github.com/fiffu/framenotify/lib/scheduler"
	"github.com/fiffu/framenotify/lib/store/storetest"
)

func newRedisQueue(t *testing.T) *scheduler.RedisQueue {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return scheduler.NewRedisQueue(client, "framenotify")
}

func queues(t *testing.T) map[string]scheduler.Queue {
	return map[string]scheduler.Queue{
		"database": scheduler.NewDBQueue(storetest.Open(t)),
		"redis":    newRedisQueue(t),
	}
}

func TestQueue_DueOrderAndAck(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for name, q := range queues(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			late := scheduler.NewTask(models.TaskRetry, 1, "https://a.example.com", []string{"x", "y"}, now.Add(-time.Minute))
			early := scheduler.NewTask(models.TaskPublish, 2, "", nil, now.Add(-time.Hour))
			future := scheduler.NewTask(models.TaskRetry, 3, "https://b.example.com", []string{"z"}, now.Add(5*time.Minute))
			for _, task := range []*models.Task{late, early, future} {
				require.NoError(t, q.Push(ctx, task))
			}

			due, err := q.Due(ctx, now, 10)
			require.NoError(t, err)
			require.Len(t, due, 2)
			assert.Equal(t, early.ID, due[0].ID)
			assert.Equal(t, late.ID, due[1].ID)
			assert.Equal(t, "https://a.example.com", due[1].URL)
			assert.Equal(t, []string{"x", "y"}, []string(due[1].Tokens))
			assert.EqualValues(t, 1, due[1].PostID)

			require.NoError(t, q.Ack(ctx, early.ID))
			due, err = q.Due(ctx, now, 10)
			require.NoError(t, err)
			require.Len(t, due, 1)
			assert.Equal(t, late.ID, due[0].ID)

			due, err = q.Due(ctx, now.Add(time.Hour), 1)
			require.NoError(t, err)
			assert.Len(t, due, 1)
		})
	}
}

func TestQueue_EmptyDue(t *testing.T) {
	for name, q := range queues(t) {
		t.Run(name, func(t *testing.T) {
			due, err := q.Due(context.Background(), time.Now(), 10)
			require.NoError(t, err)
			assert.Empty(t, due)
		})
	}
}
