package models_test

import (
	"testing"

	"github.com/twhracing/distributor_backend/models"
)

func TestBuildCustomerStats(t *testing.T) {
	invoices := []*models.Invoice{
		{CustomerId: 1, Status: models.InvoiceStatusConfirmed, Total: d("100"), RemainingAmount: d("100")},
		{CustomerId: 1, Status: models.InvoiceStatusPartial, Total: d("200"), RemainingAmount: d("50")},
		{CustomerId: 1, Status: models.InvoiceStatusPaid, Total: d("300"), RemainingAmount: d("0")},
		{CustomerId: 1, Status: models.InvoiceStatusOverdue, Total: d("400"), RemainingAmount: d("400")},
		{CustomerId: 1, Status: models.InvoiceStatusDraft, Total: d("999"), RemainingAmount: d("999")},
		{CustomerId: 1, Status: models.InvoiceStatusCancelled, Total: d("999"), RemainingAmount: d("999")},
		{CustomerId: 2, Status: models.InvoiceStatusConfirmed, Total: d("999"), RemainingAmount: d("999")},
	}
	stats := models.BuildCustomerStats(1, invoices)
	if stats.InvoiceCount != 4 {
		t.Fatalf("invoice count=%d want 4", stats.InvoiceCount)
	}
	if !stats.TotalInvoiced.Equal(d("1000")) {
		t.Fatalf("total invoiced=%s want 1000", stats.TotalInvoiced)
	}
	if !stats.Outstanding.Equal(d("550")) {
		t.Fatalf("outstanding=%s want 550", stats.Outstanding)
	}
}

func TestNewCustomer_ToCustomer(t *testing.T) {
	c, err := models.NewCustomer{Name: " Bengkel Jaya ", Phone: "081234567890", DiscountPercent: d("5")}.ToCustomer()
	if err != nil {
		t.Fatalf("ToCustomer: %v", err)
	}
	if c.Name != "Bengkel Jaya" || c.Phone != "+6281234567890" || c.CustomerType != models.CustomerTypeRetail {
		t.Fatalf("unexpected customer %+v", c)
	}

	if _, err := (models.NewCustomer{Name: "X", Phone: "12"}).ToCustomer(); err == nil || !models.IsUserError(err) {
		t.Fatalf("invalid phone should be a validation error, got %v", err)
	}
	if _, err := (models.NewCustomer{Name: "X", DiscountPercent: d("101")}).ToCustomer(); err == nil {
		t.Fatalf("discount over 100 must be rejected")
	}
}
