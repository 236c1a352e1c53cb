package workflow

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/twhracing/distributor_backend/config"
	"github.com/twhracing/distributor_backend/models"
	"github.com/twhracing/distributor_backend/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("twh-distributor/workflow")

// Engine runs the invoice, payment, commission and reminder operations
// against a Store. Every mutating operation is one transaction.
type Engine struct {
	store    models.Store
	locker   InvoiceLocker
	notifier Notifier
	logger   *logrus.Logger
	now      func() time.Time
	location *time.Location

	defaultTermDays    int
	reminderWindowDays int
}

type Option func(*Engine)

func WithLocker(l InvoiceLocker) Option {
	return func(e *Engine) { e.locker = l }
}

func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

func WithLogger(l *logrus.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock replaces time.Now, mostly for tests and back-dated sweeps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.location = loc }
}

func WithDefaultTermDays(days int) Option {
	return func(e *Engine) { e.defaultTermDays = days }
}

func WithReminderWindowDays(days int) Option {
	return func(e *Engine) { e.reminderWindowDays = days }
}

func NewEngine(store models.Store, opts ...Option) *Engine {
	e := &Engine{
		store:              store,
		notifier:           ActivityNotifier{},
		logger:             config.GetLogger(),
		now:                time.Now,
		location:           config.BusinessLocation(),
		defaultTermDays:    config.DefaultPaymentTermDays(),
		reminderWindowDays: config.ReminderDailyWindowDays(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logrus.StandardLogger()
	}
	if e.locker == nil {
		e.locker = NewRedisInvoiceLocker(config.GetRedisLock, e.logger)
	}
	return e
}

func (e *Engine) Store() models.Store {
	return e.store
}

// Today is the current calendar day in the business timezone.
func (e *Engine) Today() time.Time {
	return utils.TruncateToDate(e.now(), e.location)
}

func (e *Engine) Location() *time.Location {
	return e.location
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "workflow."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// post writes an activity message inside a savepoint so a failing notifier
// never rolls back the surrounding change.
func (e *Engine) post(ctx context.Context, tx models.Store, inv *models.Invoice, body string) {
	err := tx.WithinTransaction(ctx, func(inner models.Store) error {
		return e.notifier.PostMessage(ctx, inner, inv, "", body)
	})
	if err != nil {
		config.LogError(e.logger, "engine.go", "post", "PostMessage", inv.ID, err)
	}
}
