package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/twhracing/distributor_backend/config"
	"github.com/twhracing/distributor_backend/models"
	"github.com/twhracing/distributor_backend/utils"
	"go.opentelemetry.io/otel/attribute"
)

// SweepResult counts what one reminder sweep did.
type SweepResult struct {
	Date          string `json:"date"`
	Scanned       int    `json:"scanned"`
	Created       int    `json:"created"`
	Existing      int    `json:"existing"`
	MarkedOverdue int    `json:"marked_overdue"`
	Sent          int    `json:"sent"`
	Dismissed     int    `json:"dismissed"`
	Failed        int    `json:"failed"`
}

func (r *SweepResult) fields(sweep string) logrus.Fields {
	return logrus.Fields{
		"field":          "ReminderSweep",
		"sweep":          sweep,
		"date":           r.Date,
		"scanned":        r.Scanned,
		"created":        r.Created,
		"existing":       r.Existing,
		"marked_overdue": r.MarkedOverdue,
		"sent":           r.Sent,
		"dismissed":      r.Dismissed,
		"failed":         r.Failed,
	}
}

// CreateDueReminders makes sure every open tempo invoice has the reminders
// due on today, and forces past-due invoices to overdue. Each invoice is
// handled in its own transaction; running it twice on one day creates nothing new.
func (e *Engine) CreateDueReminders(ctx context.Context, today time.Time) (res *SweepResult, err error) {
	ctx, span := startSpan(ctx, "CreateDueReminders", attribute.String("date", today.Format(utils.DateLayout)))
	defer func() { endSpan(span, err) }()

	today = utils.TruncateToDate(today, e.location)
	res = &SweepResult{Date: today.Format(utils.DateLayout)}

	invoices, err := e.store.Invoices().ListOpenTempo(ctx)
	if err != nil {
		config.LogError(e.logger, "reminderWorkflow.go", "CreateDueReminders", "ListOpenTempo", nil, err)
		return nil, err
	}
	for _, inv := range invoices {
		res.Scanned++
		plans, forceOverdue := models.PlanReminders(inv, today, e.reminderWindowDays)
		if len(plans) == 0 {
			continue
		}
		var created, existing, overdue int
		txErr := e.store.WithinTransaction(ctx, func(tx models.Store) error {
			created, existing, overdue = 0, 0, 0
			for _, plan := range plans {
				exists, err := tx.Reminders().Exists(ctx, inv.ID, plan.Type, plan.Date)
				if err != nil {
					return err
				}
				if exists {
					existing++
					continue
				}
				err = tx.Reminders().Create(ctx, plan.ToReminder(inv))
				if errors.Is(err, models.ErrDuplicateReminder) {
					existing++
					continue
				} else if err != nil {
					return err
				}
				created++
			}
			if !forceOverdue {
				return nil
			}
			locked, err := tx.Invoices().GetForUpdate(ctx, inv.ID)
			if err != nil {
				return err
			}
			if !locked.Status.IsOpen() || locked.Status == models.InvoiceStatusOverdue {
				return nil
			}
			locked.Status = models.InvoiceStatusOverdue
			if err := tx.Invoices().Update(ctx, locked); err != nil {
				return err
			}
			overdue++
			return nil
		})
		if txErr != nil {
			res.Failed++
			config.LogError(e.logger, "reminderWorkflow.go", "CreateDueReminders", "invoice", inv.Name, txErr)
			continue
		}
		res.Created += created
		res.Existing += existing
		res.MarkedOverdue += overdue
	}

	e.logger.WithFields(res.fields("create")).Info("reminder create sweep finished")
	return res, nil
}

// SendDueReminders renders and delivers every pending reminder dated on or
// before today. A reminder is marked sent even when its notifications fail;
// failures are logged and counted, and never stop the batch.
func (e *Engine) SendDueReminders(ctx context.Context, today time.Time) (res *SweepResult, err error) {
	ctx, span := startSpan(ctx, "SendDueReminders", attribute.String("date", today.Format(utils.DateLayout)))
	defer func() { endSpan(span, err) }()

	today = utils.TruncateToDate(today, e.location)
	res = &SweepResult{Date: today.Format(utils.DateLayout)}

	reminders, err := e.store.Reminders().ListPendingDue(ctx, today)
	if err != nil {
		config.LogError(e.logger, "reminderWorkflow.go", "SendDueReminders", "ListPendingDue", nil, err)
		return nil, err
	}
	for _, pending := range reminders {
		res.Scanned++
		txErr := e.store.WithinTransaction(ctx, func(tx models.Store) error {
			return e.sendReminder(ctx, tx, pending.ID, today, res)
		})
		if txErr != nil {
			res.Failed++
			config.LogError(e.logger, "reminderWorkflow.go", "SendDueReminders", "reminder", pending.ID, txErr)
		}
	}

	e.logger.WithFields(res.fields("send")).Info("reminder send sweep finished")
	return res, nil
}

func (e *Engine) sendReminder(ctx context.Context, tx models.Store, reminderId int, today time.Time, res *SweepResult) error {
	r, err := tx.Reminders().Get(ctx, reminderId)
	if err != nil {
		return err
	}
	if r.Status != models.ReminderStatusPending {
		return nil
	}
	inv, err := tx.Invoices().Get(ctx, r.InvoiceId)
	if err != nil {
		return err
	}
	customerName := ""
	if customer, err := tx.Customers().Get(ctx, inv.CustomerId); err == nil {
		customerName = customer.Name
	} else {
		config.LogError(e.logger, "reminderWorkflow.go", "sendReminder", "GetCustomer", inv.CustomerId, err)
	}

	message := models.RenderReminderMessage(r, inv, customerName, today)
	delivered := true
	err = tx.WithinTransaction(ctx, func(inner models.Store) error {
		return e.notifier.PostMessage(ctx, inner, inv, r.Subject(), message)
	})
	if err != nil {
		delivered = false
		config.LogError(e.logger, "reminderWorkflow.go", "sendReminder", "PostMessage", r.ID, err)
	}
	if inv.SalesPersonId != nil {
		err = tx.WithinTransaction(ctx, func(inner models.Store) error {
			return e.notifier.ScheduleTodo(ctx, inner, inv, r.TodoSummary(), message, inv.SalesPersonId, r.ReminderDate)
		})
		if err != nil {
			delivered = false
			config.LogError(e.logger, "reminderWorkflow.go", "sendReminder", "ScheduleTodo", r.ID, err)
		}
	}

	now := e.now()
	r.Status = models.ReminderStatusSent
	r.Message = message
	r.SentAt = &now
	r.SentBy = utils.ActorName(ctx)
	if err := tx.Reminders().Update(ctx, r); err != nil {
		return err
	}
	res.Sent++
	if !delivered {
		res.Failed++
	}
	return nil
}

// CleanupPaidReminders dismisses pending reminders of invoices that are paid.
func (e *Engine) CleanupPaidReminders(ctx context.Context) (res *SweepResult, err error) {
	ctx, span := startSpan(ctx, "CleanupPaidReminders")
	defer func() { endSpan(span, err) }()

	res = &SweepResult{Date: e.Today().Format(utils.DateLayout)}
	reminders, err := e.store.Reminders().ListPendingForPaidInvoices(ctx)
	if err != nil {
		config.LogError(e.logger, "reminderWorkflow.go", "CleanupPaidReminders", "ListPendingForPaidInvoices", nil, err)
		return nil, err
	}
	for _, r := range reminders {
		res.Scanned++
		r.Status = models.ReminderStatusDismissed
		if err := e.store.Reminders().Update(ctx, r); err != nil {
			res.Failed++
			config.LogError(e.logger, "reminderWorkflow.go", "CleanupPaidReminders", "Update", r.ID, err)
			continue
		}
		res.Dismissed++
	}

	e.logger.WithFields(res.fields("cleanup")).Info("reminder cleanup sweep finished")
	return res, nil
}

func (e *Engine) DismissReminder(ctx context.Context, id int) (*models.Reminder, error) {
	var r *models.Reminder
	err := e.store.WithinTransaction(ctx, func(tx models.Store) error {
		var err error
		r, err = tx.Reminders().Get(ctx, id)
		if err != nil {
			return err
		}
		if r.Status != models.ReminderStatusPending {
			return models.NewPreconditionError("reminder %d is already %s", r.ID, r.Status)
		}
		r.Status = models.ReminderStatusDismissed
		return tx.Reminders().Update(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}
