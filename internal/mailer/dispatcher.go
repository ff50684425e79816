package mailer

import (
	"sync"

	"github.com/rs/zerolog"
)

// Dispatcher decouples email delivery from the lifecycle operation that
// triggered it. Messages go onto a bounded queue and are sent by a worker
// goroutine; a full queue or a failed send is logged and otherwise dropped,
// so delivery problems never fail the operation itself.
type Dispatcher struct {
	logger *zerolog.Logger
	sender Sender
	queue  chan Email

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewDispatcher starts a dispatcher with the given queue capacity.
func NewDispatcher(logger *zerolog.Logger, sender Sender, capacity int) *Dispatcher {
	d := &Dispatcher{
		logger: logger,
		sender: sender,
		queue:  make(chan Email, capacity),
		done:   make(chan struct{}),
	}

	go d.run()

	return d
}

// Send enqueues an email for asynchronous delivery. It never blocks and never
// returns a delivery error; when the queue is full or the dispatcher is
// already closed the message is dropped with a warning.
func (d *Dispatcher) Send(email Email) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		d.logger.Warn().
			Strs("to", email.To).
			Str("subject", email.Subject).
			Msg("dispatcher closed, message dropped")
		return nil
	}

	select {
	case d.queue <- email:
	default:
		d.logger.Warn().
			Strs("to", email.To).
			Str("subject", email.Subject).
			Msg("email queue full, message dropped")
	}

	return nil
}

// Close stops accepting new messages and waits for the queue to drain. Safe
// to call concurrently with Send and safe to call more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for email := range d.queue {
		if err := d.sender.Send(email); err != nil {
			d.logger.Error().Err(err).
				Strs("to", email.To).
				Str("subject", email.Subject).
				Msg("failed to send email")
		}
	}
}
