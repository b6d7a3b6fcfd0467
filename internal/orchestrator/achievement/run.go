// Package achievement drains the achievement queue and grants the
// achievements a user has become eligible for.
package achievement

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"stepable/internal/pgmq"
	"stepable/internal/service"

	"github.com/rs/zerolog"
)

const (
	visibilityTimeoutSec = 30
	// Jobs read this many times without succeeding are dropped.
	maxReadCount = 5
)

// Queue is the part of pgmq the orchestrator reads from.
type Queue interface {
	ReadWithPoll(ctx context.Context, queue string, visibilitySec, timeoutSec, maxMessages int) ([]*pgmq.Message, error)
	Delete(ctx context.Context, queue string, msgIDs []int64) error
}

// Awarder grants newly earned achievements.
type Awarder interface {
	AwardAchievements(ctx context.Context, userID string) ([]string, error)
}

type Options struct {
	QueueName      string
	PollTimeoutSec int
	MaxMessages    int
}

// Run polls until ctx is cancelled.
func Run(ctx context.Context, logger zerolog.Logger, queue Queue, awarder Awarder, opts Options) error {
	logger = logger.With().Str("orchestrator", "achievement").Str("queue", opts.QueueName).Logger()
	logger.Info().Msg("Starting achievement orchestrator")
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Shutting down achievement orchestrator")
			return nil
		default:
		}

		msgs, err := queue.ReadWithPoll(ctx, opts.QueueName, visibilityTimeoutSec, opts.PollTimeoutSec, opts.MaxMessages)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				continue
			}
			logger.Error().Err(err).Msg("Error reading achievement queue")
			sleep(ctx, time.Second)
			continue
		}

		for _, msg := range msgs {
			ProcessMessage(ctx, logger, queue, awarder, opts.QueueName, msg)
		}
	}
}

// ProcessMessage handles one job. The message is deleted once handled or
// once it can never succeed; otherwise it becomes visible again after the
// visibility timeout.
func ProcessMessage(ctx context.Context, logger zerolog.Logger, queue Queue, awarder Awarder, queueName string, msg *pgmq.Message) {
	log := logger.With().Int64("msg_id", msg.ID).Int("read_ct", msg.ReadCnt).Logger()

	var job service.AchievementJob
	if err := json.Unmarshal(msg.Data, &job); err != nil || job.UserID == "" {
		log.Error().Err(err).Str("payload", string(msg.Data)).Msg("Dropping malformed achievement job")
		deleteMessage(ctx, log, queue, queueName, msg.ID)
		return
	}

	earned, err := awarder.AwardAchievements(ctx, job.UserID)
	if err != nil {
		if msg.ReadCnt >= maxReadCount {
			log.Error().Err(err).Str("user_id", job.UserID).Msg("Giving up on achievement job")
			deleteMessage(ctx, log, queue, queueName, msg.ID)
			return
		}
		log.Warn().Err(err).Str("user_id", job.UserID).Msg("Achievement job failed, will retry")
		return
	}

	if len(earned) > 0 {
		log.Info().Str("user_id", job.UserID).Strs("achievements", earned).Msg("Achievements granted")
	}
	deleteMessage(ctx, log, queue, queueName, msg.ID)
}

func deleteMessage(ctx context.Context, logger zerolog.Logger, queue Queue, queueName string, id int64) {
	if err := queue.Delete(ctx, queueName, []int64{id}); err != nil {
		logger.Error().Err(err).Msg("Error deleting achievement message")
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
