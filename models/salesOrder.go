package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SalesOrder struct {
	ID              int               `gorm:"primary_key" json:"id"`
	Name            string            `gorm:"size:50;uniqueIndex:idx_sales_order_name" json:"name"`
	CustomerId      int               `gorm:"index;not null" json:"customer_id"`
	SalesPersonId   *int              `gorm:"index" json:"sales_person_id"`
	OrderDate       time.Time         `gorm:"type:date;not null" json:"order_date"`
	State           SalesOrderState   `gorm:"size:10;index;not null;default:draft" json:"state"`
	PriceTierId     *int              `json:"price_tier_id"`
	PriceTierCode   PriceTierCode     `gorm:"size:20" json:"price_tier_code"`
	PaymentTermDays int               `gorm:"not null;default:0" json:"payment_term_days"`
	InvoiceId       *int              `gorm:"index" json:"invoice_id"`
	Lines           []*SalesOrderLine `gorm:"foreignKey:SalesOrderId" json:"lines"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

type SalesOrderLine struct {
	ID           int             `gorm:"primary_key" json:"id"`
	SalesOrderId int             `gorm:"index;not null" json:"sales_order_id"`
	Sequence     int             `gorm:"not null;default:10" json:"sequence"`
	ProductId    int             `gorm:"not null" json:"product_id"`
	Description  string          `gorm:"size:255" json:"description"`
	Quantity     decimal.Decimal `gorm:"type:decimal(20,4);default:1" json:"quantity"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
}

type NewSalesOrder struct {
	CustomerId      int                 `json:"customer_id" binding:"required"`
	SalesPersonId   *int                `json:"sales_person_id"`
	OrderDate       *MyDateString       `json:"order_date"`
	PriceTierId     *int                `json:"price_tier_id"`
	PaymentTermDays int                 `json:"payment_term_days" binding:"gte=0"`
	Lines           []NewSalesOrderLine `json:"lines" binding:"required,min=1,dive"`
}

type NewSalesOrderLine struct {
	ProductId   int             `json:"product_id" binding:"required"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// CanGenerateInvoice returns a PreconditionError describing why an invoice
// cannot be generated from the order, or nil.
func (so *SalesOrder) CanGenerateInvoice() error {
	if so.PriceTierId == nil {
		return NewPreconditionError("choose a price tier on sales order %s first", so.Name)
	}
	if so.InvoiceId != nil {
		return NewPreconditionError("sales order %s already has an invoice", so.Name)
	}
	if !so.State.IsConfirmed() {
		return NewPreconditionError("sales order %s must be confirmed before invoicing", so.Name)
	}
	return nil
}

// InvoiceTierCode falls back to price_a when the order's tier has no usable code.
func (so *SalesOrder) InvoiceTierCode() PriceTierCode {
	if so.PriceTierCode.IsInvoiceTier() {
		return so.PriceTierCode
	}
	return PriceTierCodePriceA
}

func (so *SalesOrder) InvoiceTermDays(defaultDays int) int {
	if so.PaymentTermDays > 0 {
		return so.PaymentTermDays
	}
	return defaultDays
}

func (so *SalesOrder) InvoiceNotes() string {
	return "Dibuat dari Sales Order: " + so.Name
}
