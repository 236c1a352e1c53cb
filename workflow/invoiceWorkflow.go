package workflow

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/twhracing/distributor_backend/config"
	"github.com/twhracing/distributor_backend/models"
	"github.com/twhracing/distributor_backend/utils"
	"go.opentelemetry.io/otel/attribute"
)

const (
	msgInvoiceConfirmed = "Invoice telah dikonfirmasi"
	msgInvoicePaid      = "Invoice ditandai lunas"
	msgInvoiceCancelled = "Invoice dibatalkan"
	msgInvoiceDraft     = "Invoice dikembalikan ke draft"
	noteCashPayment     = "Pembayaran cash saat invoice dibuat"
)

// InvoiceDetail is an invoice with everything attached to it.
type InvoiceDetail struct {
	*models.Invoice
	Payments    []*models.Payment    `json:"payments"`
	Commissions []*models.Commission `json:"commissions"`
	Activities  []*models.Activity   `json:"activities"`
}

func (e *Engine) CreateInvoice(ctx context.Context, input models.NewInvoice) (*models.Invoice, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var inv *models.Invoice
	err := e.store.WithinTransaction(ctx, func(tx models.Store) error {
		customer, err := tx.Customers().Get(ctx, input.CustomerId)
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return models.NewValidationError("customer %d does not exist", input.CustomerId)
		} else if err != nil {
			return err
		}
		if input.SalesPersonId != nil {
			if _, err := tx.SalesPersons().Get(ctx, *input.SalesPersonId); errors.Is(err, utils.ErrorRecordNotFound) {
				return models.NewValidationError("sales person %d does not exist", *input.SalesPersonId)
			} else if err != nil {
				return err
			}
		}

		inv = &models.Invoice{
			CustomerId:      customer.ID,
			InvoiceDate:     e.Today(),
			SalesPersonId:   input.SalesPersonId,
			PriceTierCode:   input.PriceTierCode,
			PaymentType:     input.PaymentType,
			PaymentTermDays: utils.DereferencePtr(input.PaymentTermDays, e.defaultTermDays),
			DiscountPercent: decimal.Zero,
			Status:          models.InvoiceStatusDraft,
			Notes:           strings.TrimSpace(input.Notes),
			CreatedBy:       utils.ActorName(ctx),
		}
		if input.InvoiceDate != nil && !input.InvoiceDate.IsZero() {
			inv.InvoiceDate = input.InvoiceDate.InLocation(e.location)
		}
		if input.DiscountPercent != nil {
			inv.DiscountPercent = *input.DiscountPercent
		} else if customer.DiscountPercent.IsPositive() {
			inv.DiscountPercent = customer.DiscountPercent
		}

		lines, err := e.priceLines(ctx, tx, inv, input.Lines)
		if err != nil {
			return err
		}
		inv.Lines = lines
		return e.insertInvoice(ctx, tx, inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// insertInvoice numbers a new invoice, derives its due date and totals, and stores it with its lines.
func (e *Engine) insertInvoice(ctx context.Context, tx models.Store, inv *models.Invoice) error {
	year := models.SequenceYear(inv.InvoiceDate)
	number, err := tx.Sequences().Next(ctx, models.SequenceInvoice, year)
	if err != nil {
		return err
	}
	inv.Name = models.FormatSequenceNumber(models.SequenceInvoice, year, number)
	inv.RefreshDueDate()
	inv.Recompute()
	return tx.Invoices().Create(ctx, inv)
}

// priceLines turns line inputs into invoice lines. A line without a unit
// price takes the invoice tier's price and is rejected when that is zero.
func (e *Engine) priceLines(ctx context.Context, tx models.Store, inv *models.Invoice, inputs []models.NewInvoiceLine) ([]*models.InvoiceLine, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	ids := make([]int, 0, len(inputs))
	for _, in := range inputs {
		ids = append(ids, in.ProductId)
	}
	products, err := tx.Products().GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	byId := make(map[int]*models.Product, len(products))
	for _, p := range products {
		byId[p.ID] = p
	}
	pricing, err := tx.Pricing().PricesForProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	seq := inv.NextLineSequence()
	lines := make([]*models.InvoiceLine, 0, len(inputs))
	for _, in := range inputs {
		product, ok := byId[in.ProductId]
		if !ok {
			return nil, models.NewValidationError("product %d does not exist", in.ProductId)
		}
		line := &models.InvoiceLine{
			InvoiceId:   inv.ID,
			Sequence:    in.Sequence,
			ProductId:   product.ID,
			Description: strings.TrimSpace(in.Description),
			Quantity:    in.Quantity,
		}
		if line.Sequence <= 0 {
			line.Sequence = seq
			seq += 10
		}
		if line.Description == "" {
			line.Description = product.Name
		}
		if in.UnitPrice != nil {
			line.UnitPrice = *in.UnitPrice
		} else {
			line.UnitPrice = pricing.PriceFor(product.ID, inv.PriceTierCode)
			if line.UnitPrice.IsZero() {
				return nil, models.NewValidationError("product %s is not priced for tier %s", product.DisplayName(), inv.PriceTierCode)
			}
		}
		if err := line.Validate(); err != nil {
			return nil, err
		}
		line.Recompute()
		lines = append(lines, line)
	}
	return lines, nil
}

// editDraft runs fn on a row-locked draft invoice and saves the recomputed totals.
func (e *Engine) editDraft(ctx context.Context, invoiceId int, action string, fn func(tx models.Store, inv *models.Invoice) error) (*models.Invoice, error) {
	var inv *models.Invoice
	err := e.store.WithinTransaction(ctx, func(tx models.Store) error {
		var err error
		inv, err = tx.Invoices().GetForUpdate(ctx, invoiceId)
		if err != nil {
			return err
		}
		if err := inv.RequireDraft(action); err != nil {
			return err
		}
		if err := fn(tx, inv); err != nil {
			return err
		}
		inv.Recompute()
		return tx.Invoices().Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (e *Engine) AddInvoiceLine(ctx context.Context, invoiceId int, input models.NewInvoiceLine) (*models.Invoice, error) {
	return e.editDraft(ctx, invoiceId, "add a line", func(tx models.Store, inv *models.Invoice) error {
		lines, err := e.priceLines(ctx, tx, inv, []models.NewInvoiceLine{input})
		if err != nil {
			return err
		}
		if err := tx.Invoices().CreateLine(ctx, lines[0]); err != nil {
			return err
		}
		inv.Lines = append(inv.Lines, lines[0])
		return nil
	})
}

func (e *Engine) UpdateInvoiceLine(ctx context.Context, invoiceId, lineId int, change models.InvoiceLineChange) (*models.Invoice, error) {
	return e.editDraft(ctx, invoiceId, "edit a line", func(tx models.Store, inv *models.Invoice) error {
		line := inv.FindLine(lineId)
		if line == nil {
			return utils.ErrorRecordNotFound
		}
		if err := change.Apply(line); err != nil {
			return err
		}
		return tx.Invoices().UpdateLine(ctx, line)
	})
}

func (e *Engine) RemoveInvoiceLine(ctx context.Context, invoiceId, lineId int) (*models.Invoice, error) {
	return e.editDraft(ctx, invoiceId, "remove a line", func(tx models.Store, inv *models.Invoice) error {
		line := inv.FindLine(lineId)
		if line == nil {
			return utils.ErrorRecordNotFound
		}
		if err := tx.Invoices().DeleteLine(ctx, line); err != nil {
			return err
		}
		kept := inv.Lines[:0]
		for _, l := range inv.Lines {
			if l.ID != lineId {
				kept = append(kept, l)
			}
		}
		inv.Lines = kept
		return nil
	})
}

func (e *Engine) SetInvoiceDiscount(ctx context.Context, invoiceId int, pct decimal.Decimal) (*models.Invoice, error) {
	if err := models.ValidateDiscountPercent(pct); err != nil {
		return nil, err
	}
	return e.editDraft(ctx, invoiceId, "change the discount", func(_ models.Store, inv *models.Invoice) error {
		inv.DiscountPercent = pct
		return nil
	})
}

// ConfirmInvoice moves a draft to confirmed, regenerates its commissions and,
// for cash invoices, records the payment that settles the remaining balance.
func (e *Engine) ConfirmInvoice(ctx context.Context, invoiceId int) (inv *models.Invoice, err error) {
	ctx, span := startSpan(ctx, "ConfirmInvoice", attribute.Int("invoice.id", invoiceId))
	defer func() { endSpan(span, err) }()

	release := e.locker.Lock(ctx, invoiceId)
	defer release()

	err = e.store.WithinTransaction(ctx, func(tx models.Store) error {
		var err error
		inv, err = tx.Invoices().GetForUpdate(ctx, invoiceId)
		if err != nil {
			return err
		}
		if err := inv.RequireDraft("confirm"); err != nil {
			return err
		}
		if len(inv.Lines) == 0 {
			return models.NewPreconditionError("cannot confirm invoice %s without lines", inv.DisplayName())
		}
		inv.Recompute()
		if err := e.regenerateCommissions(ctx, tx, inv); err != nil {
			return err
		}

		payments, err := tx.Payments().ListByInvoice(ctx, inv.ID)
		if err != nil {
			return err
		}
		inv.Status = models.InvoiceStatusConfirmed
		inv.ApplyPayments(payments)
		inv.SyncStatus()

		var cashPayment *models.Payment
		if inv.PaymentType == models.PaymentTypeCash && inv.RemainingAmount.IsPositive() {
			cashPayment, err = e.insertPayment(ctx, tx, inv, inv.InvoiceDate, inv.RemainingAmount, models.PaymentMethodCash, noteCashPayment)
			if err != nil {
				return err
			}
			inv.ApplyPayments(append(payments, cashPayment))
			inv.SyncStatus()
		}

		if err := tx.Invoices().Update(ctx, inv); err != nil {
			return err
		}
		if cashPayment != nil {
			e.post(ctx, tx, inv, cashPayment.ReceiptMessage())
		}
		e.post(ctx, tx, inv, msgInvoiceConfirmed)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// CancelInvoice deletes the invoice's commissions and payments and
// dismisses its pending reminders.
func (e *Engine) CancelInvoice(ctx context.Context, invoiceId int) (inv *models.Invoice, err error) {
	ctx, span := startSpan(ctx, "CancelInvoice", attribute.Int("invoice.id", invoiceId))
	defer func() { endSpan(span, err) }()

	release := e.locker.Lock(ctx, invoiceId)
	defer release()

	err = e.store.WithinTransaction(ctx, func(tx models.Store) error {
		var err error
		inv, err = tx.Invoices().GetForUpdate(ctx, invoiceId)
		if err != nil {
			return err
		}
		if inv.Status == models.InvoiceStatusCancelled {
			return models.NewPreconditionError("invoice %s is already cancelled", inv.DisplayName())
		}
		if err := tx.Commissions().DeleteByInvoice(ctx, inv.ID); err != nil {
			return err
		}
		if err := tx.Payments().DeleteByInvoice(ctx, inv.ID); err != nil {
			return err
		}
		pending, err := tx.Reminders().ListPendingByInvoice(ctx, inv.ID)
		if err != nil {
			return err
		}
		for _, r := range pending {
			r.Status = models.ReminderStatusDismissed
			r.Notes = msgInvoiceCancelled
			if err := tx.Reminders().Update(ctx, r); err != nil {
				return err
			}
		}

		inv.Status = models.InvoiceStatusCancelled
		inv.TotalCommission = decimal.Zero
		inv.ApplyPayments(nil)
		if err := tx.Invoices().Update(ctx, inv); err != nil {
			return err
		}
		e.post(ctx, tx, inv, msgInvoiceCancelled)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// ResetInvoiceToDraft reopens an invoice for editing. Payments and
// commissions stay until the next confirmation recomputes them.
func (e *Engine) ResetInvoiceToDraft(ctx context.Context, invoiceId int) (*models.Invoice, error) {
	var inv *models.Invoice
	err := e.store.WithinTransaction(ctx, func(tx models.Store) error {
		var err error
		inv, err = tx.Invoices().GetForUpdate(ctx, invoiceId)
		if err != nil {
			return err
		}
		switch inv.Status {
		case models.InvoiceStatusCancelled:
			return models.NewPreconditionError("cannot reset cancelled invoice %s to draft", inv.DisplayName())
		case models.InvoiceStatusDraft:
			return models.NewPreconditionError("invoice %s is already draft", inv.DisplayName())
		}
		inv.Status = models.InvoiceStatusDraft
		if err := tx.Invoices().Update(ctx, inv); err != nil {
			return err
		}
		e.post(ctx, tx, inv, msgInvoiceDraft)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// MarkInvoicePaid is the manual settlement override.
func (e *Engine) MarkInvoicePaid(ctx context.Context, invoiceId int) (*models.Invoice, error) {
	var inv *models.Invoice
	err := e.store.WithinTransaction(ctx, func(tx models.Store) error {
		var err error
		inv, err = tx.Invoices().GetForUpdate(ctx, invoiceId)
		if err != nil {
			return err
		}
		if !inv.Status.IsOpen() {
			return models.NewPreconditionError("cannot mark invoice %s paid: status is %s", inv.DisplayName(), inv.Status)
		}
		inv.Status = models.InvoiceStatusPaid
		if err := tx.Invoices().Update(ctx, inv); err != nil {
			return err
		}
		e.post(ctx, tx, inv, msgInvoicePaid)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (e *Engine) GetInvoiceDetail(ctx context.Context, invoiceId int) (*InvoiceDetail, error) {
	inv, err := e.store.Invoices().Get(ctx, invoiceId)
	if err != nil {
		return nil, err
	}
	detail := &InvoiceDetail{Invoice: inv}
	if detail.Payments, err = e.store.Payments().ListByInvoice(ctx, invoiceId); err != nil {
		config.LogError(e.logger, "invoiceWorkflow.go", "GetInvoiceDetail", "ListPayments", invoiceId, err)
		return nil, err
	}
	if detail.Commissions, err = e.store.Commissions().ListByInvoice(ctx, invoiceId); err != nil {
		config.LogError(e.logger, "invoiceWorkflow.go", "GetInvoiceDetail", "ListCommissions", invoiceId, err)
		return nil, err
	}
	if detail.Activities, err = e.store.Activities().ListByInvoice(ctx, invoiceId); err != nil {
		config.LogError(e.logger, "invoiceWorkflow.go", "GetInvoiceDetail", "ListActivities", invoiceId, err)
		return nil, err
	}
	return detail, nil
}

func (e *Engine) CustomerStats(ctx context.Context, customerId int) (*models.CustomerStats, error) {
	if _, err := e.store.Customers().Get(ctx, customerId); err != nil {
		return nil, err
	}
	invoices, err := e.store.Invoices().ListByCustomer(ctx, customerId)
	if err != nil {
		return nil, err
	}
	return models.BuildCustomerStats(customerId, invoices), nil
}
