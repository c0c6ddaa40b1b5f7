// internal/app/system/workers/notifier.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/Saravanans7/PlaceMate/internal/app/system/mailer"
	"go.uber.org/zap"
)

// Notifier delivers emails in the background so request handlers and
// scheduled jobs never wait on SMTP. Delivery is best effort: failures are
// logged and dropped.
type Notifier struct {
	sender  mailer.Sender
	log     *zap.Logger
	queue   chan mailer.Email
	workers int
	timeout time.Duration
	stopCh  chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// NewNotifier creates a notifier with the given queue depth and worker count.
func NewNotifier(sender mailer.Sender, logger *zap.Logger, queueSize, workers int) *Notifier {
	if queueSize <= 0 {
		queueSize = 256
	}
	if workers <= 0 {
		workers = 2
	}
	return &Notifier{
		sender:  sender,
		log:     logger,
		queue:   make(chan mailer.Email, queueSize),
		workers: workers,
		timeout: 30 * time.Second,
		stopCh:  make(chan struct{}),
	}
}

// Start launches the delivery goroutines.
func (n *Notifier) Start() {
	for i := 0; i < n.workers; i++ {
		n.wg.Add(1)
		go n.run()
	}
	n.log.Info("notifier started",
		zap.Int("workers", n.workers),
		zap.Int("queue", cap(n.queue)))
}

// Stop signals the workers, lets them drain what is queued, and waits.
func (n *Notifier) Stop() {
	n.once.Do(func() { close(n.stopCh) })
	n.wg.Wait()
	n.log.Info("notifier stopped")
}

// Enqueue schedules e for delivery. It never blocks; when the queue is full
// the email is dropped and false is returned.
func (n *Notifier) Enqueue(e mailer.Email) bool {
	if len(e.Recipients()) == 0 {
		return false
	}
	select {
	case n.queue <- e:
		return true
	default:
		n.log.Warn("notification queue full; dropping email",
			zap.String("subject", e.Subject),
			zap.Int("recipients", len(e.Recipients())))
		return false
	}
}

func (n *Notifier) run() {
	defer n.wg.Done()
	for {
		select {
		case e := <-n.queue:
			n.deliver(e)
		case <-n.stopCh:
			for {
				select {
				case e := <-n.queue:
					n.deliver(e)
				default:
					return
				}
			}
		}
	}
}

func (n *Notifier) deliver(e mailer.Email) {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	if err := n.sender.Send(ctx, e); err != nil {
		n.log.Warn("email delivery failed",
			zap.String("subject", e.Subject),
			zap.Int("recipients", len(e.Recipients())),
			zap.Error(err))
		return
	}
	n.log.Debug("email delivered", zap.String("subject", e.Subject))
}
