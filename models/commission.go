package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Commission struct {
	ID             int              `gorm:"primary_key" json:"id"`
	InvoiceId      int              `gorm:"index;not null" json:"invoice_id"`
	InvoiceName    string           `gorm:"size:50" json:"invoice_name"`
	InvoiceLineId  int              `gorm:"not null;default:0" json:"invoice_line_id"`
	SalesPersonId  *int             `gorm:"index" json:"sales_person_id"`
	ProductId      int              `gorm:"index;not null" json:"product_id"`
	Quantity       decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	CostPrice      decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"cost_price"`
	SellingPrice   decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"selling_price"`
	Margin         decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"margin"`
	Amount         decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"commission_amount"`
	Status         CommissionStatus `gorm:"size:20;index;not null;default:draft" json:"status"`
	CommissionDate time.Time        `gorm:"type:date;index" json:"commission_date"`
	PaymentDate    *time.Time       `gorm:"type:date" json:"payment_date"`
	PaymentNotes   string           `gorm:"type:text" json:"payment_notes"`
	CreatedAt      time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

// BuildCommissions derives one commission per invoice line with a positive
// margin over the cost tier price. Lines at or below cost yield nothing.
func BuildCommissions(inv *Invoice, pricing *PricingTable) []*Commission {
	var result []*Commission
	for _, line := range inv.Lines {
		cost := pricing.PriceFor(line.ProductId, CostTierCode)
		margin := line.UnitPrice.Sub(cost)
		amount := margin.Mul(line.Quantity)
		if !amount.IsPositive() {
			continue
		}
		result = append(result, &Commission{
			InvoiceId:      inv.ID,
			InvoiceName:    inv.Name,
			InvoiceLineId:  line.ID,
			SalesPersonId:  inv.SalesPersonId,
			ProductId:      line.ProductId,
			Quantity:       line.Quantity,
			CostPrice:      cost,
			SellingPrice:   line.UnitPrice,
			Margin:         margin,
			Amount:         amount,
			Status:         CommissionStatusConfirmed,
			CommissionDate: inv.InvoiceDate,
		})
	}
	return result
}

func SumCommissions(commissions []*Commission) decimal.Decimal {
	total := decimal.Zero
	for _, c := range commissions {
		total = total.Add(c.Amount)
	}
	return total
}

// CommissionFilter narrows commission queries. Nil fields are not applied.
type CommissionFilter struct {
	SalesPersonId *int
	FromDate      *time.Time
	ToDate        *time.Time
	Statuses      []CommissionStatus
}

func (f CommissionFilter) Matches(c *Commission) bool {
	if f.SalesPersonId != nil && (c.SalesPersonId == nil || *c.SalesPersonId != *f.SalesPersonId) {
		return false
	}
	if f.FromDate != nil && c.CommissionDate.Before(*f.FromDate) {
		return false
	}
	if f.ToDate != nil && c.CommissionDate.After(*f.ToDate) {
		return false
	}
	if len(f.Statuses) > 0 {
		for _, s := range f.Statuses {
			if c.Status == s {
				return true
			}
		}
		return false
	}
	return true
}

type CommissionSummary struct {
	SalesPersonId   *int            `json:"sales_person_id"`
	FromDate        *time.Time      `json:"date_from"`
	ToDate          *time.Time      `json:"date_to"`
	TotalCommission decimal.Decimal `json:"total_commission"`
	TotalQuantity   decimal.Decimal `json:"total_qty"`
	InvoiceCount    int             `json:"invoice_count"`
	Commissions     []*Commission   `json:"commissions"`
}

// SummarizeCommissions totals an already filtered record set.
func SummarizeCommissions(filter CommissionFilter, commissions []*Commission) *CommissionSummary {
	summary := &CommissionSummary{
		SalesPersonId:   filter.SalesPersonId,
		FromDate:        filter.FromDate,
		ToDate:          filter.ToDate,
		TotalCommission: decimal.Zero,
		TotalQuantity:   decimal.Zero,
		Commissions:     commissions,
	}
	invoices := make(map[int]struct{})
	for _, c := range commissions {
		summary.TotalCommission = summary.TotalCommission.Add(c.Amount)
		summary.TotalQuantity = summary.TotalQuantity.Add(c.Quantity)
		invoices[c.InvoiceId] = struct{}{}
	}
	summary.InvoiceCount = len(invoices)
	return summary
}
