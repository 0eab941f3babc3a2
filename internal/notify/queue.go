package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// RoutingKeyPush is the routing key every push job is published under.
	RoutingKeyPush = "push.send"

	attemptHeader  = "x-attempt"
	publishTimeout = 5 * time.Second
)

// QueuePublisher hands jobs to RabbitMQ for the notifier worker.
type QueuePublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	mu       sync.Mutex
	wg       sync.WaitGroup
}

func NewQueuePublisher(url, exchange string) (*QueuePublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &QueuePublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Dispatch publishes in the background so a slow broker never holds up the
// request that produced the job.
func (p *QueuePublisher) Dispatch(job Job) {
	if len(compactTokens(job.Tokens)) == 0 {
		log.Printf("[Notify] skipping %q: no push tokens", job.Message.Title)
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := publishJob(ctx, p.publish, p.exchange, job, 1); err != nil {
			log.Printf("[Notify] publish %q failed: %v", job.Message.Title, err)
		}
	}()
}

func (p *QueuePublisher) publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, exchange, key, false, false, msg)
}

// Close waits for in-flight publishes and closes the connection.
func (p *QueuePublisher) Close() error {
	p.wg.Wait()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

type publishFunc func(ctx context.Context, exchange, key string, msg amqp.Publishing) error

func publishJob(ctx context.Context, publish publishFunc, exchange string, job Job, attempt int) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return publish(ctx, exchange, RoutingKeyPush, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Headers:      amqp.Table{attemptHeader: int32(attempt)},
		Body:         body,
	})
}

func attemptFrom(headers amqp.Table) int {
	switch v := headers[attemptHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 1
}
