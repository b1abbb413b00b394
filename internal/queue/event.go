// Package queue moves outgoing email through RabbitMQ.  The publisher is a
// notify.Notifier; the consumer drains the queue into a notify.Deliverer.
package queue

import (
	"time"

	"github.com/corvexa/it-services-portal/internal/notify"
)

// EmailQueueName is the durable queue holding email jobs.
const EmailQueueName = "notifications.email"

// EmailJob is the message body published for each email.
type EmailJob struct {
	ID       string       `json:"id"`
	Email    notify.Email `json:"email"`
	QueuedAt time.Time    `json:"queued_at"`
}
