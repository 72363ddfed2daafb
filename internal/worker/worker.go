package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/glizzus/cronspan/internal/repository"
	"github.com/redis/go-redis/v9"
)

type ScheduleRunJob struct {
	RunID      int64
	ScheduleID string
	Name       string
	RunTime    time.Time
}

func JobFromRun(run repository.ScheduleRun) ScheduleRunJob {
	return ScheduleRunJob{
		RunID:      run.ID,
		ScheduleID: run.ScheduleID,
		Name:       run.Name,
		RunTime:    run.RunTime,
	}
}

// LogAttrs are the slog attributes identifying a job.
func (j ScheduleRunJob) LogAttrs() []any {
	return []any{
		slog.Int64("runID", j.RunID),
		slog.String("scheduleID", j.ScheduleID),
		slog.String("scheduleName", j.Name),
		slog.String("runAt", j.RunTime.Format("2006-01-02 15:04:05")),
	}
}

type JobHandler interface {
	HandleJobs(ctx context.Context, jobs ...ScheduleRunJob) error
}

type PrintingJobHandler struct{}

func (h *PrintingJobHandler) HandleJobs(ctx context.Context, jobs ...ScheduleRunJob) error {
	for _, job := range jobs {
		slog.InfoContext(ctx, "Handling schedule run", job.LogAttrs()...)
	}
	return nil
}

var _ JobHandler = (*PrintingJobHandler)(nil)

type RedisJobHandler struct {
	client *redis.Client
	stream string
}

// NewRedisJobHandler publishes jobs to stream, creating the stream and its
// consumer group if they do not exist yet.
func NewRedisJobHandler(ctx context.Context, client *redis.Client, stream, group string) (*RedisJobHandler, error) {
	if err := ensureGroup(ctx, client, stream, group); err != nil {
		return nil, err
	}
	return &RedisJobHandler{client: client, stream: stream}, nil
}

func ensureGroup(ctx context.Context, client *redis.Client, stream, group string) error {
	err := client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && err != redis.Nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group %s on %s: %w", group, stream, err)
	}
	return nil
}

func (h *RedisJobHandler) HandleJobs(ctx context.Context, jobs ...ScheduleRunJob) error {
	_, err := h.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, job := range jobs {
			pipe.XAdd(ctx, &redis.XAddArgs{
				Stream: h.stream,
				Values: map[string]any{
					"runID":        job.RunID,
					"scheduleID":   job.ScheduleID,
					"scheduleName": job.Name,
					"runAt":        job.RunTime.Format(time.RFC3339),
				},
			})
		}
		return nil
	})
	return err
}

var _ JobHandler = (*RedisJobHandler)(nil)

// RedisJobReceiver reads jobs from a stream as one consumer of a group.
// Messages are acknowledged as soon as they are read.
type RedisJobReceiver struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
	block    time.Duration
}

func NewRedisJobReceiver(ctx context.Context, client *redis.Client, stream, group, consumer string) (*RedisJobReceiver, error) {
	if err := ensureGroup(ctx, client, stream, group); err != nil {
		return nil, err
	}
	return &RedisJobReceiver{
		client:   client,
		stream:   stream,
		group:    group,
		consumer: consumer,
		block:    5 * time.Second,
	}, nil
}

// ReceiveJobs blocks until jobs arrive or the block timeout passes, in which
// case it returns no jobs and no error.
func (r *RedisJobReceiver) ReceiveJobs(ctx context.Context) ([]ScheduleRunJob, error) {
	streams, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    r.group,
		Consumer: r.consumer,
		Streams:  []string{r.stream, ">"},
		Count:    32,
		Block:    r.block,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read from stream %s: %w", r.stream, err)
	}

	var (
		jobs []ScheduleRunJob
		ids  []string
	)
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			ids = append(ids, msg.ID)
			job, err := jobFromValues(msg.Values)
			if err != nil {
				slog.WarnContext(ctx, "dropping malformed job", slog.String("messageID", msg.ID), slog.Any("error", err))
				continue
			}
			jobs = append(jobs, job)
		}
	}
	if len(ids) > 0 {
		if err := r.client.XAck(ctx, r.stream, r.group, ids...).Err(); err != nil {
			return nil, fmt.Errorf("failed to ack jobs: %w", err)
		}
	}
	return jobs, nil
}

func jobFromValues(values map[string]any) (ScheduleRunJob, error) {
	str := func(key string) string {
		s, _ := values[key].(string)
		return s
	}

	runID, err := strconv.ParseInt(str("runID"), 10, 64)
	if err != nil {
		return ScheduleRunJob{}, fmt.Errorf("invalid runID: %w", err)
	}
	runAt, err := time.Parse(time.RFC3339, str("runAt"))
	if err != nil {
		return ScheduleRunJob{}, fmt.Errorf("invalid runAt: %w", err)
	}
	scheduleID := str("scheduleID")
	if scheduleID == "" {
		return ScheduleRunJob{}, fmt.Errorf("missing scheduleID")
	}
	return ScheduleRunJob{
		RunID:      runID,
		ScheduleID: scheduleID,
		Name:       str("scheduleName"),
		RunTime:    runAt,
	}, nil
}
