package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/utils"
)

const (
	DefaultQueue    = "analyses"
	DefaultExchange = "analysis_results"
	DefaultWorkers  = 3

	connectAttempts = 5
	connectBackoff  = 2 * time.Second
	consumerTag     = "matcher"
)

type Config struct {
	URL      string
	Queue    string
	Exchange string
	Workers  int
}

func (c *Config) setDefaults() {
	if c.Queue == "" {
		c.Queue = DefaultQueue
	}
	if c.Exchange == "" {
		c.Exchange = DefaultExchange
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
}

// Consumer runs a pool of workers over one AMQP channel.
type Consumer struct {
	cfg       Config
	processor *Processor
	log       *zap.Logger
}

func NewConsumer(cfg Config, processor *Processor, log *zap.Logger) (*Consumer, error) {
	if cfg.URL == "" {
		return nil, errors.New("amqp url is required")
	}
	if processor == nil {
		return nil, errors.New("processor is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	cfg.setDefaults()

	return &Consumer{cfg: cfg, processor: processor, log: log}, nil
}

// Run consumes until ctx is cancelled or the broker closes the connection.
// In-flight jobs are finished and acknowledged before Run returns.
func (c *Consumer) Run(ctx context.Context) error {
	var conn *amqp.Connection
	err := utils.Retry(ctx, connectAttempts, connectBackoff, func() error {
		var err error
		conn, err = amqp.Dial(c.cfg.URL)
		if err != nil {
			c.log.Warn("amqp dial failed", zap.Error(err))
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("dial amqp: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	deliveries, err := c.setup(ch)
	if err != nil {
		return err
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	publisher := NewAMQPPublisher(ch, c.cfg.Exchange)

	var wg sync.WaitGroup
	wg.Add(c.cfg.Workers)
	for i := range c.cfg.Workers {
		go func(id int) {
			defer wg.Done()
			c.work(ctx, id, deliveries, publisher)
		}(i + 1)
	}
	c.log.Info("worker pool started", zap.String("queue", c.cfg.Queue), zap.Int("workers", c.cfg.Workers))

	var runErr error
	select {
	case <-ctx.Done():
		if err := ch.Cancel(consumerTag, false); err != nil {
			c.log.Warn("cancel consumer", zap.Error(err))
		}
	case amqpErr := <-closed:
		if amqpErr != nil {
			runErr = fmt.Errorf("amqp connection closed: %w", amqpErr)
		}
	}

	wg.Wait()
	c.log.Info("worker pool stopped")
	return runErr
}

func (c *Consumer) setup(ch *amqp.Channel) (<-chan amqp.Delivery, error) {
	if err := ch.ExchangeDeclare(c.cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %q: %w", c.cfg.Exchange, err)
	}
	if _, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue %q: %w", c.cfg.Queue, err)
	}
	if err := ch.Qos(c.cfg.Workers, 0, false); err != nil {
		return nil, fmt.Errorf("set prefetch: %w", err)
	}

	deliveries, err := ch.Consume(c.cfg.Queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %q: %w", c.cfg.Queue, err)
	}
	return deliveries, nil
}

func (c *Consumer) work(ctx context.Context, id int, deliveries <-chan amqp.Delivery, publisher Publisher) {
	log := c.log.With(zap.Int("worker", id))
	// Jobs already taken off the queue finish even when shutdown starts.
	jobCtx := context.WithoutCancel(ctx)

	for d := range deliveries {
		result := c.processor.Process(jobCtx, d.Body)
		if err := publisher.Publish(result); err != nil {
			log.Error("publish result", zap.String("job_id", result.JobID), zap.Error(err))
		}
		if err := d.Ack(false); err != nil {
			log.Error("ack delivery", zap.String("job_id", result.JobID), zap.Error(err))
		}
	}
}
