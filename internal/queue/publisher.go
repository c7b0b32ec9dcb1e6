package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"

	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/report"
)

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"

	routingPrefix = "analysis."
)

// Result is published once per job.
type Result struct {
	JobID     string              `json:"job_id"`
	Status    string              `json:"status"`
	Report    *report.MatchReport `json:"report,omitempty"`
	Error     string              `json:"error,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

type Publisher interface {
	Publish(result *Result) error
}

type channelPublisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPPublisher sends results to a topic exchange keyed by job id.
type AMQPPublisher struct {
	ch       channelPublisher
	exchange string
}

func NewAMQPPublisher(ch channelPublisher, exchange string) *AMQPPublisher {
	return &AMQPPublisher{ch: ch, exchange: exchange}
}

func (p *AMQPPublisher) Publish(result *Result) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	return p.ch.Publish(p.exchange, RoutingKey(result.JobID), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    result.JobID,
		Timestamp:    result.Timestamp,
		Body:         body,
	})
}

func RoutingKey(jobID string) string {
	return routingPrefix + jobID
}
