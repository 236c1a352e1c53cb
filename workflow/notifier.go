package workflow

import (
	"context"
	"time"

	"github.com/twhracing/distributor_backend/models"
	"github.com/twhracing/distributor_backend/utils"
)

// Notifier delivers invoice notifications. Implementations write through
// the Store they are given so the notification shares the caller's
// transaction.
type Notifier interface {
	PostMessage(ctx context.Context, tx models.Store, inv *models.Invoice, subject, body string) error
	ScheduleTodo(ctx context.Context, tx models.Store, inv *models.Invoice, summary, note string, assigneeId *int, deadline time.Time) error
}

// ActivityNotifier records notifications in the invoice activity feed.
// NotificationDispatcher publishes them after commit.
type ActivityNotifier struct{}

func (ActivityNotifier) PostMessage(ctx context.Context, tx models.Store, inv *models.Invoice, subject, body string) error {
	return tx.Activities().Create(ctx, models.NewMessageActivity(inv, subject, body, utils.ActorName(ctx)))
}

func (ActivityNotifier) ScheduleTodo(ctx context.Context, tx models.Store, inv *models.Invoice, summary, note string, assigneeId *int, deadline time.Time) error {
	return tx.Activities().Create(ctx, models.NewTodoActivity(inv, summary, note, assigneeId, deadline, utils.ActorName(ctx)))
}
