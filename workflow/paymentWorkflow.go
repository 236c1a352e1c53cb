package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/twhracing/distributor_backend/models"
	"github.com/twhracing/distributor_backend/utils"
	"go.opentelemetry.io/otel/attribute"
)

// RecordPayment books a confirmed payment against an open invoice. The
// balance check runs under the invoice row lock against a fresh read of the
// confirmed payments, so concurrent payments cannot both pass it.
func (e *Engine) RecordPayment(ctx context.Context, invoiceId int, input models.NewPayment) (p *models.Payment, err error) {
	ctx, span := startSpan(ctx, "RecordPayment", attribute.Int("invoice.id", invoiceId))
	defer func() { endSpan(span, err) }()

	if err := input.Validate(); err != nil {
		return nil, err
	}

	release := e.locker.Lock(ctx, invoiceId)
	defer release()

	err = e.store.WithinTransaction(ctx, func(tx models.Store) error {
		inv, err := tx.Invoices().GetForUpdate(ctx, invoiceId)
		if err != nil {
			return err
		}
		if !inv.Status.IsOpen() {
			return models.NewPreconditionError("cannot record payment: invoice %s is %s", inv.DisplayName(), inv.Status)
		}
		payments, err := tx.Payments().ListByInvoice(ctx, inv.ID)
		if err != nil {
			return err
		}
		inv.ApplyPayments(payments)
		if !inv.RemainingAmount.IsPositive() {
			return models.NewPreconditionError("invoice %s is already settled", inv.DisplayName())
		}
		if input.Amount.GreaterThan(inv.RemainingAmount) {
			return models.NewValidationError("payment amount (%s) exceeds the remaining balance (%s)",
				utils.FormatRupiah(input.Amount), utils.FormatRupiah(inv.RemainingAmount))
		}

		date := e.Today()
		if input.PaymentDate != nil && !input.PaymentDate.IsZero() {
			date = input.PaymentDate.InLocation(e.location)
		}
		p, err = e.insertPayment(ctx, tx, inv, date, input.Amount, input.Method, input.Note)
		if err != nil {
			return err
		}

		inv.ApplyPayments(append(payments, p))
		inv.SyncStatus()
		if err := tx.Invoices().Update(ctx, inv); err != nil {
			return err
		}
		e.post(ctx, tx, inv, p.ReceiptMessage())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CancelPayment removes a payment from the paid sum and re-derives the invoice status.
func (e *Engine) CancelPayment(ctx context.Context, paymentId int) (p *models.Payment, err error) {
	ctx, span := startSpan(ctx, "CancelPayment", attribute.Int("payment.id", paymentId))
	defer func() { endSpan(span, err) }()

	existing, err := e.store.Payments().Get(ctx, paymentId)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("invoice.id", existing.InvoiceId))

	release := e.locker.Lock(ctx, existing.InvoiceId)
	defer release()

	err = e.store.WithinTransaction(ctx, func(tx models.Store) error {
		inv, err := tx.Invoices().GetForUpdate(ctx, existing.InvoiceId)
		if err != nil {
			return err
		}
		p, err = tx.Payments().Get(ctx, paymentId)
		if err != nil {
			return err
		}
		if p.Status == models.PaymentStatusCancelled {
			return models.NewPreconditionError("payment %s is already cancelled", p.Name)
		}
		p.Status = models.PaymentStatusCancelled
		if err := tx.Payments().Update(ctx, p); err != nil {
			return err
		}

		payments, err := tx.Payments().ListByInvoice(ctx, inv.ID)
		if err != nil {
			return err
		}
		inv.ApplyPayments(payments)
		inv.SyncStatus()
		if err := tx.Invoices().Update(ctx, inv); err != nil {
			return err
		}
		e.post(ctx, tx, inv, p.CancelMessage())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (e *Engine) insertPayment(ctx context.Context, tx models.Store, inv *models.Invoice, date time.Time, amount decimal.Decimal, method models.PaymentMethod, note string) (*models.Payment, error) {
	year := models.SequenceYear(date)
	number, err := tx.Sequences().Next(ctx, models.SequencePayment, year)
	if err != nil {
		return nil, err
	}
	p := &models.Payment{
		Name:        models.FormatSequenceNumber(models.SequencePayment, year, number),
		InvoiceId:   inv.ID,
		PaymentDate: date,
		Amount:      amount,
		Method:      method,
		Status:      models.PaymentStatusConfirmed,
		Note:        strings.TrimSpace(note),
		RecordedBy:  utils.ActorName(ctx),
	}
	if err := tx.Payments().Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
