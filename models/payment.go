package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/twhracing/distributor_backend/utils"
)

type Payment struct {
	ID          int             `gorm:"primary_key" json:"id"`
	Name        string          `gorm:"size:50;uniqueIndex:idx_payment_name" json:"name"`
	InvoiceId   int             `gorm:"index;not null" json:"invoice_id"`
	PaymentDate time.Time       `gorm:"type:date;index;not null" json:"payment_date"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Method      PaymentMethod   `gorm:"size:20;not null;default:bank_bca" json:"payment_method"`
	Status      PaymentStatus   `gorm:"size:20;index;not null;default:draft" json:"status"`
	Note        string          `gorm:"type:text" json:"note"`
	RecordedBy  string          `gorm:"size:100" json:"recorded_by"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPayment struct {
	PaymentDate *MyDateString   `json:"payment_date"`
	Amount      decimal.Decimal `json:"amount"`
	Method      PaymentMethod   `json:"payment_method"`
	Note        string          `json:"note"`
}

func (input *NewPayment) Validate() error {
	if !input.Amount.IsPositive() {
		return NewValidationError("payment amount must be greater than zero")
	}
	if input.Method == "" {
		input.Method = PaymentMethodBankBCA
	}
	if !input.Method.IsValid() {
		return NewValidationError("unknown payment method %q", input.Method)
	}
	return nil
}

// ReceiptMessage is the activity text posted when a payment is recorded.
func (p *Payment) ReceiptMessage() string {
	return fmt.Sprintf("Pembayaran diterima: %s via %s", utils.FormatRupiah(p.Amount), p.Method.Label())
}

func (p *Payment) CancelMessage() string {
	return fmt.Sprintf("Pembayaran dibatalkan: %s (%s)", utils.FormatRupiah(p.Amount), p.Name)
}
