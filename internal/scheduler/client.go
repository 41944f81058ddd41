package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"rentops_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Client enqueues delayed reconciliation tasks. It implements the booking
// service's RetryScheduler port.
type Client struct {
	client *asynq.Client
	queue  string
}

// NewClient creates the asynq client from configuration.
func NewClient(cfg *config.Config) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

// Close releases the underlying Redis connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ScheduleEnsureTasks enqueues a delayed re-run of the booking task
// reconciliation.
func (c *Client) ScheduleEnsureTasks(ctx context.Context, bookingID string, delay time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewEnsureBookingTasksTask(EnsureBookingTasksPayload{BookingID: bookingID})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.ProcessIn(delay), asynq.Queue(c.queue))
	return err
}

// ScheduleTransferCheck enqueues a delayed execution check for a staged
// transfer task.
func (c *Client) ScheduleTransferCheck(ctx context.Context, taskID string, delay time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewTransferExecuteCheckTask(TransferExecuteCheckPayload{TaskID: taskID})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.ProcessIn(delay), asynq.Queue(c.queue))
	return err
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
