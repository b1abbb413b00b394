// Package notify sends transactional email without blocking the request
// that triggered it.  Delivery errors are logged and counted, never
// returned.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/corvexa/it-services-portal/internal/metrics"
)

// Email is one outgoing message.
type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	HTML    bool   `json:"html"`
}

// Notifier is implemented by every sender.  Send returns immediately.
type Notifier interface {
	Send(ctx context.Context, e Email)
}

// Deliverer performs the actual, blocking delivery.
type Deliverer interface {
	Deliver(ctx context.Context, e Email) error
}

// Async hands each email to a Deliverer on its own goroutine.
type Async struct {
	deliver Deliverer
	log     *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAsync(d Deliverer, log *slog.Logger) *Async {
	if log == nil {
		log = slog.Default()
	}
	return &Async{deliver: d, log: log, timeout: 30 * time.Second}
}

func (a *Async) Send(ctx context.Context, e Email) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		// the request context is cancelled when the handler returns
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()
		if err := a.deliver.Deliver(dctx, e); err != nil {
			metrics.NotificationsTotal.WithLabelValues("direct", "error").Inc()
			a.log.Warn("email delivery failed", "to", e.To, "subject", e.Subject, "error", err)
			return
		}
		metrics.NotificationsTotal.WithLabelValues("direct", "ok").Inc()
	}()
}

// Wait blocks until in-flight deliveries finish.  Called on shutdown.
func (a *Async) Wait() { a.wg.Wait() }

// LogDeliverer writes emails to the log instead of sending them.  Used when
// no SMTP relay is configured.
type LogDeliverer struct{ Log *slog.Logger }

func (l LogDeliverer) Deliver(_ context.Context, e Email) error {
	log := l.Log
	if log == nil {
		log = slog.Default()
	}
	log.Info("email not sent, smtp disabled", "to", e.To, "subject", e.Subject)
	return nil
}

// Recorder keeps every email in memory.
type Recorder struct {
	mu   sync.Mutex
	sent []Email
}

func (r *Recorder) Send(_ context.Context, e Email) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, e)
}

// Sent returns a copy of the recorded emails.
func (r *Recorder) Sent() []Email {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Email(nil), r.sent...)
}

// To returns the recorded emails addressed to addr.
func (r *Recorder) To(addr string) []Email {
	var out []Email
	for _, e := range r.Sent() {
		if e.To == addr {
			out = append(out, e)
		}
	}
	return out
}
