package workflow

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/twhracing/distributor_backend/models"
	"github.com/twhracing/distributor_backend/utils"
)

var (
	wib     = time.FixedZone("WIB", 7*3600)
	errBoom = errors.New("boom")
)

type fixture struct {
	ctx      context.Context
	engine   *Engine
	store    *fakeStore
	today    time.Time
	product  *models.Product // bayu 100.000, price_a 120.000, price_b 110.000
	cheap    *models.Product // bayu 50.000, price_a 50.000
	unpriced *models.Product
	customer *models.Customer
	sales    *models.SalesPerson
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := utils.ParseDate(s, wib)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return d
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	today := day(t, "2024-06-10")
	store := newFakeStore()
	base := []Option{
		WithLocker(NoopInvoiceLocker()),
		WithLogger(quietLogger()),
		WithLocation(wib),
		WithClock(func() time.Time { return today.Add(9 * time.Hour) }),
		WithDefaultTermDays(60),
		WithReminderWindowDays(14),
	}
	f := &fixture{
		ctx:    utils.SetUserNameInContext(context.Background(), "Admin TWH"),
		engine: NewEngine(store, append(base, opts...)...),
		store:  store,
		today:  today,
	}

	if _, err := f.engine.SeedPriceTiers(f.ctx); err != nil {
		t.Fatalf("seed tiers: %v", err)
	}
	f.product = f.mustProduct(t, "Gear Ratio Set", "GR-01", map[models.PriceTierCode]int64{
		models.PriceTierCodeBayu:   100000,
		models.PriceTierCodePriceA: 120000,
		models.PriceTierCodePriceB: 110000,
	})
	f.cheap = f.mustProduct(t, "Busi Racing", "BR-02", map[models.PriceTierCode]int64{
		models.PriceTierCodeBayu:   50000,
		models.PriceTierCodePriceA: 50000,
	})
	f.unpriced = f.mustProduct(t, "Kampas Kopling", "KK-03", nil)

	var err error
	f.customer, err = f.engine.CreateCustomer(f.ctx, models.NewCustomer{Name: "Bengkel Jaya"})
	if err != nil {
		t.Fatalf("customer: %v", err)
	}
	f.sales, err = f.engine.CreateSalesPerson(f.ctx, models.NewSalesPerson{Name: "Andi"})
	if err != nil {
		t.Fatalf("sales person: %v", err)
	}
	return f
}

func (f *fixture) mustProduct(t *testing.T, name, code string, prices map[models.PriceTierCode]int64) *models.Product {
	t.Helper()
	p, err := f.engine.CreateProduct(f.ctx, models.NewProduct{Name: name, DefaultCode: code})
	if err != nil {
		t.Fatalf("product %s: %v", name, err)
	}
	for tier, price := range prices {
		if _, err := f.engine.SetProductPrice(f.ctx, p.ID, models.NewProductPrice{TierCode: tier, Price: dec(price)}); err != nil {
			t.Fatalf("price %s/%s: %v", name, tier, err)
		}
	}
	return p
}

// invoiceInput is a tempo invoice for the fixture customer and sales person.
func (f *fixture) invoiceInput(lines ...models.NewInvoiceLine) models.NewInvoice {
	return models.NewInvoice{
		CustomerId:    f.customer.ID,
		SalesPersonId: &f.sales.ID,
		Lines:         lines,
	}
}

func pricedLine(productId int, qty, price int64) models.NewInvoiceLine {
	p := dec(price)
	return models.NewInvoiceLine{ProductId: productId, Quantity: dec(qty), UnitPrice: &p}
}

func (f *fixture) mustCreate(t *testing.T, input models.NewInvoice) *models.Invoice {
	t.Helper()
	inv, err := f.engine.CreateInvoice(f.ctx, input)
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	return inv
}

func (f *fixture) mustConfirm(t *testing.T, input models.NewInvoice) *models.Invoice {
	t.Helper()
	inv := f.mustCreate(t, input)
	confirmed, err := f.engine.ConfirmInvoice(f.ctx, inv.ID)
	if err != nil {
		t.Fatalf("ConfirmInvoice: %v", err)
	}
	return confirmed
}

func (f *fixture) mustPay(t *testing.T, invoiceId int, amount int64) *models.Payment {
	t.Helper()
	p, err := f.engine.RecordPayment(f.ctx, invoiceId, models.NewPayment{Amount: dec(amount)})
	if err != nil {
		t.Fatalf("RecordPayment(%d): %v", amount, err)
	}
	return p
}

func (f *fixture) invoice(t *testing.T, id int) *models.Invoice {
	t.Helper()
	inv, err := f.store.Invoices().Get(f.ctx, id)
	if err != nil {
		t.Fatalf("Get invoice %d: %v", id, err)
	}
	return inv
}

func (f *fixture) activityBodies(t *testing.T, invoiceId int) []string {
	t.Helper()
	activities, err := f.store.Activities().ListByInvoice(f.ctx, invoiceId)
	if err != nil {
		t.Fatalf("activities: %v", err)
	}
	var bodies []string
	for i := len(activities) - 1; i >= 0; i-- {
		bodies = append(bodies, activities[i].Body)
	}
	return bodies
}

func isValidation(err error) bool {
	var v *models.ValidationError
	return errors.As(err, &v)
}

func isPrecondition(err error) bool {
	var p *models.PreconditionError
	return errors.As(err, &p)
}

func assertAmount(t *testing.T, what string, got decimal.Decimal, want int64) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("%s = %s, want %d", what, got, want)
	}
}

type failingNotifier struct{}

func (failingNotifier) PostMessage(context.Context, models.Store, *models.Invoice, string, string) error {
	return errors.New("notification service unavailable")
}

func (failingNotifier) ScheduleTodo(context.Context, models.Store, *models.Invoice, string, string, *int, time.Time) error {
	return errors.New("notification service unavailable")
}
