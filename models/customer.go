package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/twhracing/distributor_backend/config"
	"github.com/twhracing/distributor_backend/utils"
)

type Customer struct {
	ID              int             `gorm:"primary_key" json:"id"`
	Name            string          `gorm:"size:200;not null" json:"name"`
	CustomerCode    string          `gorm:"size:50;index" json:"customer_code"`
	CustomerType    CustomerType    `gorm:"size:20;not null;default:retail" json:"customer_type"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);default:0" json:"discount_percent"`
	Phone           string          `gorm:"size:30" json:"phone"`
	IsActive        *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Name            string          `json:"name" binding:"required"`
	CustomerCode    string          `json:"customer_code"`
	CustomerType    CustomerType    `json:"customer_type"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Phone           string          `json:"phone"`
}

func (input NewCustomer) validate() error {
	if err := ValidateDiscountPercent(input.DiscountPercent); err != nil {
		return err
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, config.PhoneRegion()); err != nil {
			return NewValidationError("invalid phone number: %s", input.Phone)
		}
	}
	return nil
}

// ToCustomer validates the input and normalizes the phone to E.164.
func (input NewCustomer) ToCustomer() (*Customer, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	phone := input.Phone
	if phone != "" {
		normalized, err := utils.NormalizePhoneNumber(phone, config.PhoneRegion())
		if err != nil {
			return nil, NewValidationError("invalid phone number: %s", input.Phone)
		}
		phone = normalized
	}
	customerType := input.CustomerType
	if customerType == "" {
		customerType = CustomerTypeRetail
	}
	return &Customer{
		Name:            strings.TrimSpace(input.Name),
		CustomerCode:    strings.TrimSpace(input.CustomerCode),
		CustomerType:    customerType,
		DiscountPercent: input.DiscountPercent,
		Phone:           phone,
		IsActive:        utils.NewTrue(),
	}, nil
}

func ValidateDiscountPercent(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return NewValidationError("discount percent must be between 0 and 100")
	}
	return nil
}


type CustomerStats struct {
	CustomerId    int             `json:"customer_id"`
	InvoiceCount  int64           `json:"invoice_count"`
	TotalInvoiced decimal.Decimal `json:"total_invoiced"`
	Outstanding   decimal.Decimal `json:"outstanding"`
}

// BuildCustomerStats rolls up a customer's invoices.
func BuildCustomerStats(customerId int, invoices []*Invoice) *CustomerStats {
	stats := &CustomerStats{CustomerId: customerId}
	for _, inv := range invoices {
		if inv.CustomerId != customerId || !inv.Status.IsSettlementTracked() {
			continue
		}
		stats.InvoiceCount++
		stats.TotalInvoiced = stats.TotalInvoiced.Add(inv.Total)
		if inv.Status.IsOpen() {
			stats.Outstanding = stats.Outstanding.Add(inv.RemainingAmount)
		}
	}
	return stats
}
