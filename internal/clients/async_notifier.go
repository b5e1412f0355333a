package clients

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultAsyncSendTimeout = 10 * time.Second

// AsyncNotifier hands every notification to the wrapped sink on its own goroutine, so a slow
// broker never holds up the request that triggered it. Failures are logged here.
type AsyncNotifier struct {
	next        Notifier
	sendTimeout time.Duration
	log         *logrus.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

var _ Notifier = (*AsyncNotifier)(nil)

func NewAsyncNotifier(next Notifier, logger *logrus.Logger) *AsyncNotifier {
	return &AsyncNotifier{
		next:        next,
		sendTimeout: defaultAsyncSendTimeout,
		log:         logger,
	}
}

// Notify returns immediately. The send outlives ctx cancellation but not sendTimeout.
func (n *AsyncNotifier) Notify(ctx context.Context, msg Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		n.log.Warnf("Notifier: Dropped %s for order %s after shutdown", msg.Kind, msg.OrderID)
		return nil
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.sendTimeout)
		defer cancel()
		if err := n.next.Notify(sendCtx, msg); err != nil {
			n.log.Warnf("Notifier: %s for order %s not delivered: %v", msg.Kind, msg.OrderID, err)
		}
	}()
	return nil
}

// Close stops accepting notifications and waits for the ones in flight.
func (n *AsyncNotifier) Close() error {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()
	n.wg.Wait()
	return nil
}
