// Package queue implements the priority job queue on Redis lists with a delayed sorted set.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/ports"
)

const (
	defaultPrefix = "newsaggregator:"
	promoteBatch  = 100
)

// promote moves due members of the delayed set onto their lanes. Members are "<queue>|<payload>".
var promote = redis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', '0', ARGV[2])
local moved = 0
for _, member in ipairs(due) do
	if redis.call('ZREM', KEYS[1], member) == 1 then
		local sep = string.find(member, '|', 1, true)
		redis.call('LPUSH', ARGV[3] .. string.sub(member, 1, sep - 1), string.sub(member, sep + 1))
		moved = moved + 1
	end
end
return moved
`)

// RedisQueue implements ports.JobQueue.
type RedisQueue struct {
	client *redis.Client
	prefix string
}

var _ ports.JobQueue = (*RedisQueue)(nil)

// NewRedisQueue wraps a client. An empty prefix uses the default namespace.
func NewRedisQueue(client *redis.Client, prefix string) *RedisQueue {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &RedisQueue{client: client, prefix: prefix}
}

func (q *RedisQueue) laneKey(lane domain.Queue) string {
	return q.prefix + "queue:" + string(lane)
}

func (q *RedisQueue) delayedKey() string {
	return q.prefix + "delayed"
}

// Enqueue pushes the job onto its lane.
func (q *RedisQueue) Enqueue(ctx context.Context, job domain.Job) error {
	payload, lane, err := encode(job)
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.laneKey(lane), payload).Err(); err != nil {
		return fmt.Errorf("enqueue %s: %w", job.Name, err)
	}
	return nil
}

// Schedule parks the job until at.
func (q *RedisQueue) Schedule(ctx context.Context, job domain.Job, at time.Time) error {
	payload, lane, err := encode(job)
	if err != nil {
		return err
	}
	member := redis.Z{Score: float64(at.UnixMilli()), Member: string(lane) + "|" + payload}
	if err := q.client.ZAdd(ctx, q.delayedKey(), member).Err(); err != nil {
		return fmt.Errorf("schedule %s: %w", job.Name, err)
	}
	return nil
}

// Dequeue promotes due delayed jobs, then blocks on the lanes in priority order.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (domain.Job, bool, error) {
	if _, err := q.PromoteDue(ctx, time.Now()); err != nil {
		return domain.Job{}, false, err
	}

	keys := make([]string, 0, len(domain.Queues))
	for _, lane := range domain.Queues {
		keys = append(keys, q.laneKey(lane))
	}

	res, err := q.client.BRPop(ctx, timeout, keys...).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Job{}, false, nil
	}
	if err != nil {
		return domain.Job{}, false, fmt.Errorf("dequeue: %w", err)
	}
	if len(res) != 2 {
		return domain.Job{}, false, fmt.Errorf("dequeue: unexpected reply %v", res)
	}

	var job domain.Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return domain.Job{}, false, fmt.Errorf("decode job: %w", err)
	}
	return job, true, nil
}

// PromoteDue moves delayed jobs whose time has come and reports how many moved.
func (q *RedisQueue) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	moved, err := promote.Run(ctx, q.client,
		[]string{q.delayedKey()},
		strconv.FormatInt(now.UnixMilli(), 10), promoteBatch, q.prefix+"queue:",
	).Int()
	if err != nil {
		return 0, fmt.Errorf("promote delayed jobs: %w", err)
	}
	return moved, nil
}

// Depth returns the number of ready jobs per lane plus delayed jobs under "delayed".
func (q *RedisQueue) Depth(ctx context.Context) (map[string]int64, error) {
	pipe := q.client.Pipeline()
	lanes := make(map[domain.Queue]*redis.IntCmd, len(domain.Queues))
	for _, lane := range domain.Queues {
		lanes[lane] = pipe.LLen(ctx, q.laneKey(lane))
	}
	delayed := pipe.ZCard(ctx, q.delayedKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("queue depth: %w", err)
	}

	depth := make(map[string]int64, len(lanes)+1)
	for lane, cmd := range lanes {
		depth[string(lane)] = cmd.Val()
	}
	depth["delayed"] = delayed.Val()
	return depth, nil
}

func encode(job domain.Job) (string, domain.Queue, error) {
	lane := job.Queue
	if lane == "" {
		lane = domain.RouteFor(job.Name)
	}
	job.Queue = lane
	if strings.Contains(string(lane), "|") {
		return "", "", fmt.Errorf("invalid queue name %q", lane)
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return "", "", fmt.Errorf("encode job: %w", err)
	}
	return string(raw), lane, nil
}
