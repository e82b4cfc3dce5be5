package email

import (
	"context"
	"time"

	"github.com/Dias221467/Saviya_Learn/internal/metrics"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

const breakerFailureThreshold = 5

// BreakerMailer stops calling the wrapped mailer after repeated failures
// and retries it once the open timeout has passed.
type BreakerMailer struct {
	next Mailer
	cb   *gobreaker.CircuitBreaker[struct{}]
}

func NewBreakerMailer(name string, next Mailer) *BreakerMailer {
	settings := gobreaker.Settings{
		Name:        "mail-" + name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logrus.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Mail circuit breaker changed state")
			if to == gobreaker.StateOpen {
				metrics.MailBreakerState.Set(1)
			} else {
				metrics.MailBreakerState.Set(0)
			}
		},
	}
	return &BreakerMailer{next: next, cb: gobreaker.NewCircuitBreaker[struct{}](settings)}
}

func (b *BreakerMailer) Send(ctx context.Context, msg Message) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Send(ctx, msg)
	})
	return err
}

func (b *BreakerMailer) State() gobreaker.State {
	return b.cb.State()
}
