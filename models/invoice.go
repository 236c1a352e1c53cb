package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Invoice struct {
	ID              int             `gorm:"primary_key" json:"id"`
	Name            string          `gorm:"size:50;uniqueIndex:idx_invoice_name" json:"name"`
	CustomerId      int             `gorm:"index;not null" json:"customer_id"`
	InvoiceDate     time.Time       `gorm:"type:date;index;not null" json:"invoice_date"`
	SalesPersonId   *int            `gorm:"index" json:"sales_person_id"`
	PriceTierCode   PriceTierCode   `gorm:"size:20;not null;default:price_a" json:"price_tier_code"`
	PaymentType     PaymentType     `gorm:"size:10;not null;default:tempo" json:"payment_type"`
	PaymentTermDays int             `gorm:"not null;default:0" json:"payment_term_days"`
	DueDate         *time.Time      `gorm:"type:date;index" json:"due_date"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);default:0" json:"discount_percent"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"subtotal"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_amount"`
	Total           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total"`
	PaidAmount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"paid_amount"`
	RemainingAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"remaining_amount"`
	PaymentProgress decimal.Decimal `gorm:"type:decimal(7,2);default:0" json:"payment_progress"`
	PaymentCount    int             `gorm:"not null;default:0" json:"payment_count"`
	TotalCommission decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_commission"`
	Status          InvoiceStatus   `gorm:"size:20;index;not null;default:draft" json:"status"`
	SalesOrderId    *int            `gorm:"index" json:"sales_order_id"`
	Notes           string          `gorm:"type:text" json:"notes"`
	CreatedBy       string          `gorm:"size:100" json:"created_by"`
	Lines           []*InvoiceLine  `gorm:"foreignKey:InvoiceId" json:"lines"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type InvoiceLine struct {
	ID          int             `gorm:"primary_key" json:"id"`
	InvoiceId   int             `gorm:"index;not null" json:"invoice_id"`
	Sequence    int             `gorm:"not null;default:10" json:"sequence"`
	ProductId   int             `gorm:"index;not null" json:"product_id"`
	Description string          `gorm:"size:255" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);default:1" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"subtotal"`
}

type NewInvoice struct {
	CustomerId      int              `json:"customer_id" binding:"required"`
	InvoiceDate     *MyDateString    `json:"invoice_date"`
	SalesPersonId   *int             `json:"sales_person_id"`
	PriceTierCode   PriceTierCode    `json:"price_tier_code"`
	PaymentType     PaymentType      `json:"payment_type"`
	PaymentTermDays *int             `json:"payment_term_days"`
	DiscountPercent *decimal.Decimal `json:"discount_percent"`
	Notes           string           `json:"notes"`
	Lines           []NewInvoiceLine `json:"lines" binding:"dive"`
}

type NewInvoiceLine struct {
	ProductId   int              `json:"product_id" binding:"required"`
	Description string           `json:"description"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	Sequence    int              `json:"sequence"`
}

// Validate checks the header fields; lines are validated once priced.
func (input *NewInvoice) Validate() error {
	if input.PriceTierCode == "" {
		input.PriceTierCode = PriceTierCodePriceA
	}
	if !input.PriceTierCode.IsInvoiceTier() {
		return NewValidationError("price tier %q cannot be used on an invoice", input.PriceTierCode)
	}
	if input.PaymentType == "" {
		input.PaymentType = PaymentTypeTempo
	}
	if input.PaymentTermDays != nil && *input.PaymentTermDays < 0 {
		return NewValidationError("payment term days cannot be negative")
	}
	if input.DiscountPercent != nil {
		if err := ValidateDiscountPercent(*input.DiscountPercent); err != nil {
			return err
		}
	}
	return nil
}

func (l *InvoiceLine) Validate() error {
	if !l.Quantity.IsPositive() {
		return NewValidationError("quantity must be greater than zero")
	}
	if l.UnitPrice.IsNegative() {
		return NewValidationError("unit price cannot be negative")
	}
	return nil
}

func (l *InvoiceLine) Recompute() {
	l.Subtotal = l.Quantity.Mul(l.UnitPrice)
}

// Recompute derives every monetary field from the lines, the discount and
// the current paid amount.
func (inv *Invoice) Recompute() {
	subtotal := decimal.Zero
	for _, l := range inv.Lines {
		l.Recompute()
		subtotal = subtotal.Add(l.Subtotal)
	}
	inv.Subtotal = subtotal
	inv.DiscountAmount = subtotal.Mul(inv.DiscountPercent).Div(hundred).Round(2)
	inv.Total = subtotal.Sub(inv.DiscountAmount)
	inv.recomputeBalance()
}

// ApplyPayments sets the paid amount from the confirmed payments in the list.
func (inv *Invoice) ApplyPayments(payments []*Payment) {
	paid := decimal.Zero
	count := 0
	for _, p := range payments {
		if p.InvoiceId != inv.ID || p.Status != PaymentStatusConfirmed {
			continue
		}
		paid = paid.Add(p.Amount)
		count++
	}
	inv.PaidAmount = paid
	inv.PaymentCount = count
	inv.recomputeBalance()
}

func (inv *Invoice) recomputeBalance() {
	inv.RemainingAmount = inv.Total.Sub(inv.PaidAmount)
	if inv.Total.IsPositive() {
		inv.PaymentProgress = inv.PaidAmount.Div(inv.Total).Mul(hundred).Round(2)
	} else {
		inv.PaymentProgress = decimal.Zero
	}
}

func (inv *Invoice) IsTempo() bool {
	return inv.PaymentType == PaymentTypeTempo
}

func (inv *Invoice) IsSettled() bool {
	return !inv.RemainingAmount.IsPositive()
}

// RefreshDueDate sets the due date from the issue date, the payment type and the term.
func (inv *Invoice) RefreshDueDate() {
	if inv.PaymentType == PaymentTypeCash {
		inv.PaymentTermDays = 0
	}
	inv.DueDate = DueDate(inv.InvoiceDate, inv.PaymentType, inv.PaymentTermDays)
}

// DueDate is nil for cash invoices and for a zero term.
func DueDate(invoiceDate time.Time, paymentType PaymentType, termDays int) *time.Time {
	if paymentType != PaymentTypeTempo || termDays <= 0 || invoiceDate.IsZero() {
		return nil
	}
	d := invoiceDate.AddDate(0, 0, termDays)
	return &d
}

// DesiredStatus derives the settlement status from total and paid amount.
// Statuses outside the settlement flow are returned unchanged.
func DesiredStatus(current InvoiceStatus, total, paid decimal.Decimal) InvoiceStatus {
	if !current.IsSettlementTracked() {
		return current
	}
	remaining := total.Sub(paid)
	switch {
	case !remaining.IsPositive():
		return InvoiceStatusPaid
	case paid.IsPositive():
		return InvoiceStatusPartial
	case current == InvoiceStatusPartial || current == InvoiceStatusPaid:
		return InvoiceStatusConfirmed
	}
	return current
}

// SyncStatus applies DesiredStatus and reports whether the status changed.
func (inv *Invoice) SyncStatus() bool {
	desired := DesiredStatus(inv.Status, inv.Total, inv.PaidAmount)
	if desired == inv.Status {
		return false
	}
	inv.Status = desired
	return true
}

func (inv *Invoice) NextLineSequence() int {
	seq := 0
	for _, l := range inv.Lines {
		if l.Sequence > seq {
			seq = l.Sequence
		}
	}
	return seq + 10
}

func (inv *Invoice) FindLine(lineId int) *InvoiceLine {
	for _, l := range inv.Lines {
		if l.ID == lineId {
			return l
		}
	}
	return nil
}

func (inv *Invoice) RequireDraft(action string) error {
	if inv.Status != InvoiceStatusDraft {
		return NewPreconditionError("cannot %s: invoice %s is %s, not draft", action, inv.DisplayName(), inv.Status)
	}
	return nil
}

func (inv *Invoice) DisplayName() string {
	if strings.TrimSpace(inv.Name) == "" {
		return "(draft)"
	}
	return inv.Name
}

// InvoiceLineChange is a partial update of a draft line. Nil fields are kept.
type InvoiceLineChange struct {
	Description *string          `json:"description"`
	Quantity    *decimal.Decimal `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	Sequence    *int             `json:"sequence"`
}

func (c InvoiceLineChange) Apply(l *InvoiceLine) error {
	if c.Description != nil {
		l.Description = strings.TrimSpace(*c.Description)
	}
	if c.Quantity != nil {
		l.Quantity = *c.Quantity
	}
	if c.UnitPrice != nil {
		l.UnitPrice = *c.UnitPrice
	}
	if c.Sequence != nil {
		l.Sequence = *c.Sequence
	}
	if err := l.Validate(); err != nil {
		return err
	}
	l.Recompute()
	return nil
}
