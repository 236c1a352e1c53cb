package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/twhracing/distributor_backend/models"
	"github.com/twhracing/distributor_backend/utils"
)

func TestConfirmInvoice_GeneratesCommissions(t *testing.T) {
	f := newFixture(t)
	inv := f.mustConfirm(t, f.invoiceInput(
		models.NewInvoiceLine{ProductId: f.product.ID, Quantity: dec(5)},
		models.NewInvoiceLine{ProductId: f.cheap.ID, Quantity: dec(3)},
	))
	assertAmount(t, "total commission", inv.TotalCommission, 100000)

	commissions, _ := f.store.Commissions().ListByInvoice(f.ctx, inv.ID)
	if len(commissions) != 1 {
		t.Fatalf("commissions = %d, want 1 (zero margin line skipped)", len(commissions))
	}
	c := commissions[0]
	assertAmount(t, "margin", c.Margin, 20000)
	assertAmount(t, "cost", c.CostPrice, 100000)
	if c.ProductId != f.product.ID || c.SalesPersonId == nil || *c.SalesPersonId != f.sales.ID || !c.CommissionDate.Equal(inv.InvoiceDate) {
		t.Fatalf("commission = %+v", c)
	}
}

func TestReconfirm_ReplacesCommissions(t *testing.T) {
	f := newFixture(t)
	inv := f.mustConfirm(t, f.invoiceInput(models.NewInvoiceLine{ProductId: f.product.ID, Quantity: dec(5)}))

	if _, err := f.engine.ResetInvoiceToDraft(f.ctx, inv.ID); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := f.engine.AddInvoiceLine(f.ctx, inv.ID, models.NewInvoiceLine{ProductId: f.product.ID, Quantity: dec(1)}); err != nil {
		t.Fatalf("add line: %v", err)
	}
	inv, err := f.engine.ConfirmInvoice(f.ctx, inv.ID)
	if err != nil {
		t.Fatalf("reconfirm: %v", err)
	}

	commissions, _ := f.store.Commissions().ListByInvoice(f.ctx, inv.ID)
	if len(commissions) != 2 {
		t.Fatalf("commissions = %d, want 2", len(commissions))
	}
	assertAmount(t, "total commission", models.SumCommissions(commissions), 120000)
	assertAmount(t, "invoice commission", inv.TotalCommission, 120000)
}

func TestMarkCommissionsPaid(t *testing.T) {
	f := newFixture(t)
	inv := f.mustConfirm(t, f.invoiceInput(models.NewInvoiceLine{ProductId: f.product.ID, Quantity: dec(2)}))
	commissions, _ := f.store.Commissions().ListByInvoice(f.ctx, inv.ID)
	ids := []int{commissions[0].ID}

	paid, err := f.engine.MarkCommissionsPaid(f.ctx, ids, "  Transfer Juni ")
	if err != nil {
		t.Fatalf("MarkCommissionsPaid: %v", err)
	}
	c := paid[0]
	if c.Status != models.CommissionStatusPaid || c.PaymentDate == nil || !c.PaymentDate.Equal(f.today) || c.PaymentNotes != "Transfer Juni" {
		t.Fatalf("commission = %+v", c)
	}

	if _, err := f.engine.MarkCommissionsPaid(f.ctx, nil, ""); !isValidation(err) {
		t.Fatalf("empty ids err = %v", err)
	}
	if _, err := f.engine.MarkCommissionsPaid(f.ctx, []int{ids[0], 9999}, ""); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("unknown id err = %v", err)
	}

	confirmed, err := f.engine.ConfirmCommissions(f.ctx, ids)
	if err != nil {
		t.Fatalf("ConfirmCommissions: %v", err)
	}
	if confirmed[0].Status != models.CommissionStatusPaid {
		t.Fatalf("paid commission moved back to %s", confirmed[0].Status)
	}
}

func TestCommissionSummaryAndMonthly(t *testing.T) {
	f := newFixture(t)
	june := f.mustConfirm(t, f.invoiceInput(models.NewInvoiceLine{ProductId: f.product.ID, Quantity: dec(6)}))

	mayDate := models.MyDateString(day(t, "2024-05-20"))
	mayInput := f.invoiceInput(pricedLine(f.product.ID, 1, 130000))
	mayInput.InvoiceDate = &mayDate
	f.mustConfirm(t, mayInput)

	other, err := f.engine.CreateSalesPerson(f.ctx, models.NewSalesPerson{Name: "Budi"})
	if err != nil {
		t.Fatalf("sales person: %v", err)
	}
	otherInput := f.invoiceInput(pricedLine(f.product.ID, 1, 200000))
	otherInput.SalesPersonId = &other.ID
	f.mustConfirm(t, otherInput)

	cancelled := f.mustConfirm(t, f.invoiceInput(pricedLine(f.product.ID, 1, 500000)))
	if _, err := f.engine.CancelInvoice(f.ctx, cancelled.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	summary, err := f.engine.CommissionSummary(f.ctx, models.CommissionFilter{SalesPersonId: &f.sales.ID})
	if err != nil {
		t.Fatalf("CommissionSummary: %v", err)
	}
	assertAmount(t, "all time", summary.TotalCommission, 150000)
	if summary.InvoiceCount != 2 {
		t.Fatalf("invoice count = %d", summary.InvoiceCount)
	}
	assertAmount(t, "quantity", summary.TotalQuantity, 7)

	monthly, err := f.engine.MonthlyCommission(f.ctx, f.sales.ID, 2024, time.June)
	if err != nil {
		t.Fatalf("MonthlyCommission: %v", err)
	}
	assertAmount(t, "june", monthly.TotalCommission, 120000)
	if len(monthly.Commissions) != 1 || monthly.Commissions[0].InvoiceId != june.ID {
		t.Fatalf("june commissions = %+v", monthly.Commissions)
	}

	may, err := f.engine.MonthlyCommission(f.ctx, f.sales.ID, 2024, time.May)
	if err != nil {
		t.Fatalf("May: %v", err)
	}
	assertAmount(t, "may", may.TotalCommission, 30000)

	if _, err := f.engine.MonthlyCommission(f.ctx, f.sales.ID, 2024, 13); !isValidation(err) {
		t.Fatalf("month 13 err = %v", err)
	}
}
