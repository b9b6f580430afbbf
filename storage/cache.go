package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"taskboard/domain"
)

type backend interface {
	LoadTasks(ctx context.Context, projectID string) ([]domain.Task, error)
	Apply(ctx context.Context, change domain.Change) error
}

// Cache wraps a backend with a Redis read-through cache for project task
// lists. Applied changes evict the project entry and are published on the
// project's board channel.
type Cache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) LoadTasks(ctx context.Context, projectID string) ([]domain.Task, error) {
	if tasks, ok := c.loadTasksFromCache(ctx, projectID); ok {
		return tasks, nil
	}

	tasks, err := c.base.LoadTasks(ctx, projectID)
	if err != nil {
		return nil, err
	}

	c.storeTasks(ctx, projectID, tasks)
	return tasks, nil
}

func (c *Cache) Apply(ctx context.Context, change domain.Change) error {
	if err := c.base.Apply(ctx, change); err != nil {
		return err
	}

	c.evict(ctx, change.Task.ProjectID)
	c.publish(ctx, change)
	return nil
}

func (c *Cache) loadTasksFromCache(ctx context.Context, projectID string) ([]domain.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, tasksCacheKey(projectID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, tasksCacheKey(projectID)).Err()
		}
		return nil, false
	}
	var tasks []domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, tasksCacheKey(projectID)).Err()
		return nil, false
	}
	return tasks, true
}

func (c *Cache) storeTasks(ctx context.Context, projectID string, tasks []domain.Task) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, tasksCacheKey(projectID), data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, projectID string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, tasksCacheKey(projectID)).Result()
}

func (c *Cache) publish(ctx context.Context, change domain.Change) {
	if c.redis == nil {
		return
	}
	data, err := json.Marshal(change)
	if err != nil {
		return
	}
	_ = c.redis.Publish(ctx, BoardChannel(change.Task.ProjectID), data).Err()
}

func tasksCacheKey(projectID string) string {
	return "tasks:" + projectID
}

// BoardChannel is the pubsub channel carrying applied changes of a project.
func BoardChannel(projectID string) string {
	return "board:" + projectID
}
