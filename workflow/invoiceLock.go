package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
)

const invoiceLockTTL = 30 * time.Second

// InvoiceLocker serializes work on one invoice across processes. It is best
// effort: the row lock taken inside the transaction is what guarantees the
// balance check, so Lock never fails and always returns a release func.
type InvoiceLocker interface {
	Lock(ctx context.Context, invoiceId int) (release func())
}

func InvoiceLockKey(invoiceId int) string {
	return fmt.Sprintf("lock:invoice:%d", invoiceId)
}

type redisInvoiceLocker struct {
	client func() *redislock.Client
	logger *logrus.Logger
	ttl    time.Duration
	retry  redislock.RetryStrategy
}

// NewRedisInvoiceLocker resolves the client on every call because Redis is
// connected after the HTTP server starts listening.
func NewRedisInvoiceLocker(client func() *redislock.Client, logger *logrus.Logger) InvoiceLocker {
	return &redisInvoiceLocker{
		client: client,
		logger: logger,
		ttl:    invoiceLockTTL,
		retry:  redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 30),
	}
}

func (l *redisInvoiceLocker) Lock(ctx context.Context, invoiceId int) func() {
	var client *redislock.Client
	if l.client != nil {
		client = l.client()
	}
	if client == nil {
		l.logger.WithFields(logrus.Fields{
			"field":      "InvoiceLocker",
			"invoice_id": invoiceId,
		}).Warn("redis lock not ready; proceeding without redis lock")
		return func() {}
	}

	lock, err := client.Obtain(ctx, InvoiceLockKey(invoiceId), l.ttl, &redislock.Options{RetryStrategy: l.retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		l.logger.WithFields(logrus.Fields{
			"field":      "InvoiceLocker",
			"invoice_id": invoiceId,
		}).Warn("could not obtain redis lock; proceeding without redis lock")
		return func() {}
	} else if err != nil {
		l.logger.WithFields(logrus.Fields{
			"field":      "InvoiceLocker",
			"invoice_id": invoiceId,
		}).Warn("error obtaining redis lock; proceeding without redis lock: " + err.Error())
		return func() {}
	}

	return func() {
		if releaseErr := lock.Release(context.Background()); releaseErr != nil && !errors.Is(releaseErr, redislock.ErrLockNotHeld) {
			l.logger.WithFields(logrus.Fields{
				"field":      "InvoiceLocker",
				"invoice_id": invoiceId,
			}).Warn("failed to release redis lock: " + releaseErr.Error())
		}
	}
}

type noopInvoiceLocker struct{}

func (noopInvoiceLocker) Lock(context.Context, int) func() { return func() {} }

// NoopInvoiceLocker relies on the database row lock alone.
func NoopInvoiceLocker() InvoiceLocker { return noopInvoiceLocker{} }
