package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/corvexa/it-services-portal/internal/metrics"
	"github.com/corvexa/it-services-portal/internal/notify"
)

// Publisher implements notify.Notifier by publishing EmailJobs.  When the
// broker cannot be reached the email is handed to Fallback instead, so a
// broker outage never loses the message silently.
type Publisher struct {
	url      string
	log      *slog.Logger
	fallback notify.Notifier

	mu   sync.Mutex
	conn *amqp.Connection
	wg   sync.WaitGroup
}

func NewPublisher(url string, fallback notify.Notifier, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{url: url, fallback: fallback, log: log}
}

// Send publishes e on a background goroutine.
func (p *Publisher) Send(ctx context.Context, e notify.Email) {
	job := EmailJob{ID: uuid.NewString(), Email: e, QueuedAt: time.Now().UTC()}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := p.Publish(pctx, job); err != nil {
			metrics.NotificationsTotal.WithLabelValues("queue", "error").Inc()
			p.log.Warn("email publish failed", "job_id", job.ID, "to", e.To, "error", err)
			if p.fallback != nil {
				p.fallback.Send(ctx, e)
			}
			return
		}
		metrics.NotificationsTotal.WithLabelValues("queue", "ok").Inc()
	}()
}

// Publish sends job to the email queue as a persistent message.
func (p *Publisher) Publish(ctx context.Context, job EmailJob) error {
	conn, err := p.connection()
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		p.reset(conn)
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		EmailQueueName, // name
		true,           // durable
		false,          // autoDelete
		false,          // exclusive
		false,          // noWait
		nil,            // args
	); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	return ch.PublishWithContext(ctx,
		"",             // default exchange
		EmailQueueName, // routing key = queue name
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    job.ID,
			Timestamp:    job.QueuedAt,
			Body:         body,
		},
	)
}

// connection returns the shared connection, dialing when needed.
func (p *Publisher) connection() (*amqp.Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn, nil
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	p.conn = conn
	return conn, nil
}

func (p *Publisher) reset(conn *amqp.Connection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == conn {
		_ = conn.Close()
		p.conn = nil
	}
}

// Close waits for in-flight publishes and closes the connection.
func (p *Publisher) Close() error {
	p.wg.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}
