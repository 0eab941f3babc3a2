package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// WorkerConfig describes the queue the worker consumes.
type WorkerConfig struct {
	RabbitURL   string
	Exchange    string
	Queue       string
	Prefetch    int
	MaxAttempts int
	ServiceName string
}

// Worker consumes push jobs from RabbitMQ and delivers them through a Notifier.
// Failed jobs are re-published with an incremented attempt header until
// MaxAttempts, then dropped.
type Worker struct {
	cfg      WorkerConfig
	notifier Notifier

	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewWorker(cfg WorkerConfig, n Notifier) *Worker {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 8
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &Worker{cfg: cfg, notifier: n}
}

func (w *Worker) Connect() error {
	conn, err := amqp.Dial(w.cfg.RabbitURL)
	if err != nil {
		return fmt.Errorf("rabbit dial failed: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel failed: %w", err)
	}

	fail := func(step string, err error) error {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("%s failed: %w", step, err)
	}

	if err := ch.ExchangeDeclare(w.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fail("declare exchange", err)
	}
	q, err := ch.QueueDeclare(w.cfg.Queue, true, false, false, false, nil)
	if err != nil {
		return fail("declare queue", err)
	}
	if err := ch.QueueBind(q.Name, RoutingKeyPush, w.cfg.Exchange, false, nil); err != nil {
		return fail("bind queue", err)
	}
	if err := ch.Qos(w.cfg.Prefetch, 0, false); err != nil {
		return fail("set qos", err)
	}

	w.conn = conn
	w.ch = ch
	return nil
}

func (w *Worker) Close() {
	if w.ch != nil {
		_ = w.ch.Close()
	}
	if w.conn != nil {
		_ = w.conn.Close()
	}
}

// Run consumes until ctx is cancelled or the delivery channel closes.
func (w *Worker) Run(ctx context.Context) error {
	msgs, err := w.ch.ConsumeWithContext(ctx, w.cfg.Queue, w.cfg.ServiceName, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume failed: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			w.handleDelivery(ctx, d)
		}
	}
}

func (w *Worker) handleDelivery(ctx context.Context, d amqp.Delivery) {
	job, retry, err := w.process(ctx, d.Body, d.Headers)
	if err != nil && retry {
		next := attemptFrom(d.Headers) + 1
		if perr := publishJob(ctx, w.publish, w.cfg.Exchange, job, next); perr != nil {
			log.Printf("[Notify] requeue failed, nacking: %v", perr)
			_ = d.Nack(false, true)
			return
		}
	}
	_ = d.Ack(false)
}

func (w *Worker) publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	return w.ch.PublishWithContext(ctx, exchange, key, false, false, msg)
}

// process delivers one message. retry is true when delivery failed and the
// job still has attempts left.
func (w *Worker) process(ctx context.Context, body []byte, headers amqp.Table) (Job, bool, error) {
	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		log.Printf("[Notify] dropping undecodable job: %v", err)
		return job, false, err
	}

	err := Deliver(ctx, w.notifier, job)
	if err == nil {
		return job, false, nil
	}
	if errors.Is(err, errNoTokens) {
		return job, false, err
	}

	attempt := attemptFrom(headers)
	if attempt >= w.cfg.MaxAttempts {
		log.Printf("[Notify] giving up on %q after %d attempts: %v", job.Message.Title, attempt, err)
		return job, false, err
	}
	log.Printf("[Notify] attempt %d/%d for %q failed: %v", attempt, w.cfg.MaxAttempts, job.Message.Title, err)
	return job, true, err
}
