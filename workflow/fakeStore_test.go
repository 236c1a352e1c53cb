package workflow

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/twhracing/distributor_backend/models"
	"github.com/twhracing/distributor_backend/utils"
)

// memData is the whole fake database. Rows are stored by value so callers
// only change stored state through the repositories.
type memData struct {
	nextID      int
	invoices    map[int]models.Invoice
	lines       map[int]models.InvoiceLine
	payments    map[int]models.Payment
	commissions map[int]models.Commission
	reminders   map[int]models.Reminder
	tiers       map[int]models.PriceTier
	prices      map[int]models.ProductPrice
	activities  map[int]models.Activity
	orders      map[int]models.SalesOrder
	orderLines  map[int]models.SalesOrderLine
	sequences   map[string]int
	products    map[int]models.Product
	customers   map[int]models.Customer
	persons     map[int]models.SalesPerson
}

func newMemData() *memData {
	return &memData{
		invoices:    map[int]models.Invoice{},
		lines:       map[int]models.InvoiceLine{},
		payments:    map[int]models.Payment{},
		commissions: map[int]models.Commission{},
		reminders:   map[int]models.Reminder{},
		tiers:       map[int]models.PriceTier{},
		prices:      map[int]models.ProductPrice{},
		activities:  map[int]models.Activity{},
		orders:      map[int]models.SalesOrder{},
		orderLines:  map[int]models.SalesOrderLine{},
		sequences:   map[string]int{},
		products:    map[int]models.Product{},
		customers:   map[int]models.Customer{},
		persons:     map[int]models.SalesPerson{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *memData) clone() *memData {
	return &memData{
		nextID:      d.nextID,
		invoices:    cloneMap(d.invoices),
		lines:       cloneMap(d.lines),
		payments:    cloneMap(d.payments),
		commissions: cloneMap(d.commissions),
		reminders:   cloneMap(d.reminders),
		tiers:       cloneMap(d.tiers),
		prices:      cloneMap(d.prices),
		activities:  cloneMap(d.activities),
		orders:      cloneMap(d.orders),
		orderLines:  cloneMap(d.orderLines),
		sequences:   cloneMap(d.sequences),
		products:    cloneMap(d.products),
		customers:   cloneMap(d.customers),
		persons:     cloneMap(d.persons),
	}
}

func (d *memData) id() int {
	d.nextID++
	return d.nextID
}

type fakeDB struct {
	mu   sync.Mutex
	data *memData
	// fail makes the named operation return the error, e.g. "invoices.Update".
	fail map[string]error
}

// fakeStore implements models.Store. Transactions are serialized on one
// mutex and restore a snapshot when fn fails; nested calls act as savepoints.
type fakeStore struct {
	db   *fakeDB
	inTx bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{db: &fakeDB{data: newMemData(), fail: map[string]error{}}}
}

func (s *fakeStore) guard() func() {
	if s.inTx {
		return func() {}
	}
	s.db.mu.Lock()
	return s.db.mu.Unlock
}

func (s *fakeStore) failure(op string) error {
	return s.db.fail[op]
}

func (s *fakeStore) WithinTransaction(ctx context.Context, fn func(tx models.Store) error) error {
	if !s.inTx {
		s.db.mu.Lock()
		defer s.db.mu.Unlock()
	}
	snapshot := s.db.data.clone()
	if err := fn(&fakeStore{db: s.db, inTx: true}); err != nil {
		s.db.data = snapshot
		return err
	}
	return nil
}

func (s *fakeStore) Invoices() models.InvoiceRepository         { return fakeInvoices{s} }
func (s *fakeStore) Payments() models.PaymentRepository         { return fakePayments{s} }
func (s *fakeStore) Commissions() models.CommissionRepository   { return fakeCommissions{s} }
func (s *fakeStore) Reminders() models.ReminderRepository       { return fakeReminders{s} }
func (s *fakeStore) Pricing() models.PricingRepository          { return fakePricing{s} }
func (s *fakeStore) Activities() models.ActivityRepository      { return fakeActivities{s} }
func (s *fakeStore) SalesOrders() models.SalesOrderRepository   { return fakeSalesOrders{s} }
func (s *fakeStore) Sequences() models.SequenceRepository       { return fakeSequences{s} }
func (s *fakeStore) Products() models.ProductRepository         { return fakeProducts{s} }
func (s *fakeStore) Customers() models.CustomerRepository       { return fakeCustomers{s} }
func (s *fakeStore) SalesPersons() models.SalesPersonRepository { return fakeSalesPersons{s} }

func sameDay(a, b time.Time) bool {
	return a.Format(utils.DateLayout) == b.Format(utils.DateLayout)
}

// invoices

type fakeInvoices struct{ s *fakeStore }

func (r fakeInvoices) load(id int) (*models.Invoice, error) {
	row, ok := r.s.db.data.invoices[id]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	inv := row
	inv.Lines = nil
	for _, l := range r.s.db.data.lines {
		if l.InvoiceId == id {
			line := l
			inv.Lines = append(inv.Lines, &line)
		}
	}
	sort.Slice(inv.Lines, func(i, j int) bool {
		if inv.Lines[i].Sequence != inv.Lines[j].Sequence {
			return inv.Lines[i].Sequence < inv.Lines[j].Sequence
		}
		return inv.Lines[i].ID < inv.Lines[j].ID
	})
	return &inv, nil
}

func (r fakeInvoices) Create(ctx context.Context, inv *models.Invoice) error {
	defer r.s.guard()()
	if err := r.s.failure("invoices.Create"); err != nil {
		return err
	}
	d := r.s.db.data
	inv.ID = d.id()
	for _, l := range inv.Lines {
		l.ID = d.id()
		l.InvoiceId = inv.ID
		d.lines[l.ID] = *l
	}
	row := *inv
	row.Lines = nil
	d.invoices[inv.ID] = row
	return nil
}

func (r fakeInvoices) Get(ctx context.Context, id int) (*models.Invoice, error) {
	defer r.s.guard()()
	return r.load(id)
}

func (r fakeInvoices) GetForUpdate(ctx context.Context, id int) (*models.Invoice, error) {
	defer r.s.guard()()
	return r.load(id)
}

func (r fakeInvoices) Update(ctx context.Context, inv *models.Invoice) error {
	defer r.s.guard()()
	if err := r.s.failure("invoices.Update"); err != nil {
		return err
	}
	row := *inv
	row.Lines = nil
	r.s.db.data.invoices[inv.ID] = row
	return nil
}

func (r fakeInvoices) CreateLine(ctx context.Context, line *models.InvoiceLine) error {
	defer r.s.guard()()
	line.ID = r.s.db.data.id()
	r.s.db.data.lines[line.ID] = *line
	return nil
}

func (r fakeInvoices) UpdateLine(ctx context.Context, line *models.InvoiceLine) error {
	defer r.s.guard()()
	r.s.db.data.lines[line.ID] = *line
	return nil
}

func (r fakeInvoices) DeleteLine(ctx context.Context, line *models.InvoiceLine) error {
	defer r.s.guard()()
	delete(r.s.db.data.lines, line.ID)
	return nil
}

func (r fakeInvoices) list(keep func(models.Invoice) bool) []*models.Invoice {
	var out []*models.Invoice
	for id, row := range r.s.db.data.invoices {
		if keep(row) {
			inv, _ := r.load(id)
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r fakeInvoices) ListOpenTempo(ctx context.Context) ([]*models.Invoice, error) {
	defer r.s.guard()()
	return r.list(func(inv models.Invoice) bool {
		return inv.PaymentType == models.PaymentTypeTempo && inv.Status.IsOpen() && inv.DueDate != nil
	}), nil
}

func (r fakeInvoices) ListByCustomer(ctx context.Context, customerId int) ([]*models.Invoice, error) {
	defer r.s.guard()()
	return r.list(func(inv models.Invoice) bool { return inv.CustomerId == customerId }), nil
}

// payments

type fakePayments struct{ s *fakeStore }

func (r fakePayments) Create(ctx context.Context, p *models.Payment) error {
	defer r.s.guard()()
	if err := r.s.failure("payments.Create"); err != nil {
		return err
	}
	p.ID = r.s.db.data.id()
	r.s.db.data.payments[p.ID] = *p
	return nil
}

func (r fakePayments) Get(ctx context.Context, id int) (*models.Payment, error) {
	defer r.s.guard()()
	row, ok := r.s.db.data.payments[id]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	return &row, nil
}

func (r fakePayments) Update(ctx context.Context, p *models.Payment) error {
	defer r.s.guard()()
	r.s.db.data.payments[p.ID] = *p
	return nil
}

func (r fakePayments) ListByInvoice(ctx context.Context, invoiceId int) ([]*models.Payment, error) {
	defer r.s.guard()()
	var out []*models.Payment
	for _, row := range r.s.db.data.payments {
		if row.InvoiceId == invoiceId {
			p := row
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakePayments) DeleteByInvoice(ctx context.Context, invoiceId int) error {
	defer r.s.guard()()
	for id, row := range r.s.db.data.payments {
		if row.InvoiceId == invoiceId {
			delete(r.s.db.data.payments, id)
		}
	}
	return nil
}

// commissions

type fakeCommissions struct{ s *fakeStore }

func (r fakeCommissions) CreateMany(ctx context.Context, commissions []*models.Commission) error {
	defer r.s.guard()()
	for _, c := range commissions {
		c.ID = r.s.db.data.id()
		r.s.db.data.commissions[c.ID] = *c
	}
	return nil
}

func (r fakeCommissions) find(keep func(models.Commission) bool) []*models.Commission {
	var out []*models.Commission
	for _, row := range r.s.db.data.commissions {
		if keep(row) {
			c := row
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r fakeCommissions) ListByInvoice(ctx context.Context, invoiceId int) ([]*models.Commission, error) {
	defer r.s.guard()()
	return r.find(func(c models.Commission) bool { return c.InvoiceId == invoiceId }), nil
}

func (r fakeCommissions) DeleteByInvoice(ctx context.Context, invoiceId int) error {
	defer r.s.guard()()
	for id, row := range r.s.db.data.commissions {
		if row.InvoiceId == invoiceId {
			delete(r.s.db.data.commissions, id)
		}
	}
	return nil
}

func (r fakeCommissions) ListByIds(ctx context.Context, ids []int) ([]*models.Commission, error) {
	defer r.s.guard()()
	want := map[int]bool{}
	for _, id := range ids {
		want[id] = true
	}
	return r.find(func(c models.Commission) bool { return want[c.ID] }), nil
}

func (r fakeCommissions) Update(ctx context.Context, c *models.Commission) error {
	defer r.s.guard()()
	r.s.db.data.commissions[c.ID] = *c
	return nil
}

func (r fakeCommissions) Find(ctx context.Context, filter models.CommissionFilter) ([]*models.Commission, error) {
	defer r.s.guard()()
	return r.find(func(c models.Commission) bool { return filter.Matches(&c) }), nil
}

// reminders

type fakeReminders struct{ s *fakeStore }

func (r fakeReminders) exists(invoiceId int, reminderType models.ReminderType, date time.Time) bool {
	for _, row := range r.s.db.data.reminders {
		if row.InvoiceId == invoiceId && row.ReminderType == reminderType && sameDay(row.ReminderDate, date) {
			return true
		}
	}
	return false
}

func (r fakeReminders) Create(ctx context.Context, rem *models.Reminder) error {
	defer r.s.guard()()
	if r.exists(rem.InvoiceId, rem.ReminderType, rem.ReminderDate) {
		return models.ErrDuplicateReminder
	}
	rem.ID = r.s.db.data.id()
	r.s.db.data.reminders[rem.ID] = *rem
	return nil
}

func (r fakeReminders) Exists(ctx context.Context, invoiceId int, reminderType models.ReminderType, date time.Time) (bool, error) {
	defer r.s.guard()()
	return r.exists(invoiceId, reminderType, date), nil
}

func (r fakeReminders) Get(ctx context.Context, id int) (*models.Reminder, error) {
	defer r.s.guard()()
	row, ok := r.s.db.data.reminders[id]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	return &row, nil
}

func (r fakeReminders) Update(ctx context.Context, rem *models.Reminder) error {
	defer r.s.guard()()
	if err := r.s.failure("reminders.Update"); err != nil {
		return err
	}
	r.s.db.data.reminders[rem.ID] = *rem
	return nil
}

func (r fakeReminders) find(keep func(models.Reminder) bool) []*models.Reminder {
	var out []*models.Reminder
	for _, row := range r.s.db.data.reminders {
		if keep(row) {
			rem := row
			out = append(out, &rem)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r fakeReminders) ListPendingDue(ctx context.Context, today time.Time) ([]*models.Reminder, error) {
	defer r.s.guard()()
	return r.find(func(rem models.Reminder) bool {
		return rem.Status == models.ReminderStatusPending && !rem.ReminderDate.After(today)
	}), nil
}

func (r fakeReminders) ListPendingByInvoice(ctx context.Context, invoiceId int) ([]*models.Reminder, error) {
	defer r.s.guard()()
	return r.find(func(rem models.Reminder) bool {
		return rem.Status == models.ReminderStatusPending && rem.InvoiceId == invoiceId
	}), nil
}

func (r fakeReminders) ListPendingForPaidInvoices(ctx context.Context) ([]*models.Reminder, error) {
	defer r.s.guard()()
	return r.find(func(rem models.Reminder) bool {
		inv, ok := r.s.db.data.invoices[rem.InvoiceId]
		return ok && rem.Status == models.ReminderStatusPending && inv.Status == models.InvoiceStatusPaid
	}), nil
}

// pricing

type fakePricing struct{ s *fakeStore }

func (r fakePricing) CreateTier(ctx context.Context, tier *models.PriceTier) error {
	defer r.s.guard()()
	for _, t := range r.s.db.data.tiers {
		if t.Code == tier.Code {
			return models.ErrDuplicateTierCode
		}
	}
	tier.ID = r.s.db.data.id()
	r.s.db.data.tiers[tier.ID] = *tier
	return nil
}

func (r fakePricing) ListTiers(ctx context.Context) ([]*models.PriceTier, error) {
	defer r.s.guard()()
	var out []*models.PriceTier
	for _, row := range r.s.db.data.tiers {
		t := row
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sequence != out[j].Sequence {
			return out[i].Sequence < out[j].Sequence
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r fakePricing) GetTierByCode(ctx context.Context, code models.PriceTierCode) (*models.PriceTier, error) {
	defer r.s.guard()()
	for _, row := range r.s.db.data.tiers {
		if row.Code == code {
			t := row
			return &t, nil
		}
	}
	return nil, utils.ErrorRecordNotFound
}

func (r fakePricing) UpsertPrice(ctx context.Context, productId int, tier *models.PriceTier, price decimal.Decimal) (*models.ProductPrice, error) {
	defer r.s.guard()()
	if err := models.ValidatePrice(price); err != nil {
		return nil, err
	}
	for id, row := range r.s.db.data.prices {
		if row.ProductId == productId && row.TierId == tier.ID {
			row.Price = price
			r.s.db.data.prices[id] = row
			return &row, nil
		}
	}
	pp := models.ProductPrice{ID: r.s.db.data.id(), ProductId: productId, TierId: tier.ID, Price: price}
	r.s.db.data.prices[pp.ID] = pp
	return &pp, nil
}

func (r fakePricing) PricesForProducts(ctx context.Context, productIds []int) (*models.PricingTable, error) {
	defer r.s.guard()()
	want := map[int]bool{}
	for _, id := range productIds {
		want[id] = true
	}
	var rows []models.TierPrice
	for _, pp := range r.s.db.data.prices {
		tier, ok := r.s.db.data.tiers[pp.TierId]
		if !ok || !want[pp.ProductId] {
			continue
		}
		rows = append(rows, models.TierPrice{ProductId: pp.ProductId, TierCode: tier.Code, Price: pp.Price})
	}
	return models.NewPricingTable(rows), nil
}

// activities

type fakeActivities struct{ s *fakeStore }

func (r fakeActivities) Create(ctx context.Context, a *models.Activity) error {
	defer r.s.guard()()
	if err := r.s.failure("activities.Create"); err != nil {
		return err
	}
	a.ID = r.s.db.data.id()
	a.CreatedAt = time.Now()
	r.s.db.data.activities[a.ID] = *a
	return nil
}

func (r fakeActivities) ListByInvoice(ctx context.Context, invoiceId int) ([]*models.Activity, error) {
	defer r.s.guard()()
	var out []*models.Activity
	for _, row := range r.s.db.data.activities {
		if row.InvoiceId == invoiceId {
			a := row
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// sales orders

type fakeSalesOrders struct{ s *fakeStore }

func (r fakeSalesOrders) Create(ctx context.Context, so *models.SalesOrder) error {
	defer r.s.guard()()
	d := r.s.db.data
	so.ID = d.id()
	for _, l := range so.Lines {
		l.ID = d.id()
		l.SalesOrderId = so.ID
		d.orderLines[l.ID] = *l
	}
	row := *so
	row.Lines = nil
	d.orders[so.ID] = row
	return nil
}

func (r fakeSalesOrders) Get(ctx context.Context, id int) (*models.SalesOrder, error) {
	defer r.s.guard()()
	row, ok := r.s.db.data.orders[id]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	so := row
	for _, l := range r.s.db.data.orderLines {
		if l.SalesOrderId == id {
			line := l
			so.Lines = append(so.Lines, &line)
		}
	}
	sort.Slice(so.Lines, func(i, j int) bool { return so.Lines[i].Sequence < so.Lines[j].Sequence })
	return &so, nil
}

func (r fakeSalesOrders) Update(ctx context.Context, so *models.SalesOrder) error {
	defer r.s.guard()()
	row := *so
	row.Lines = nil
	r.s.db.data.orders[so.ID] = row
	return nil
}

// sequences

type fakeSequences struct{ s *fakeStore }

func (r fakeSequences) Next(ctx context.Context, prefix string, year int) (int, error) {
	defer r.s.guard()()
	key := models.FormatSequenceNumber(prefix, year, 0)
	r.s.db.data.sequences[key]++
	return r.s.db.data.sequences[key], nil
}

// master data

type fakeProducts struct{ s *fakeStore }

func (r fakeProducts) Create(ctx context.Context, p *models.Product) error {
	defer r.s.guard()()
	p.ID = r.s.db.data.id()
	r.s.db.data.products[p.ID] = *p
	return nil
}

func (r fakeProducts) Get(ctx context.Context, id int) (*models.Product, error) {
	defer r.s.guard()()
	row, ok := r.s.db.data.products[id]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	return &row, nil
}

func (r fakeProducts) GetMany(ctx context.Context, ids []int) ([]*models.Product, error) {
	defer r.s.guard()()
	var out []*models.Product
	for _, id := range uniqueInts(ids) {
		if row, ok := r.s.db.data.products[id]; ok {
			p := row
			out = append(out, &p)
		}
	}
	return out, nil
}

type fakeCustomers struct{ s *fakeStore }

func (r fakeCustomers) Create(ctx context.Context, c *models.Customer) error {
	defer r.s.guard()()
	c.ID = r.s.db.data.id()
	r.s.db.data.customers[c.ID] = *c
	return nil
}

func (r fakeCustomers) Get(ctx context.Context, id int) (*models.Customer, error) {
	defer r.s.guard()()
	row, ok := r.s.db.data.customers[id]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	return &row, nil
}

func (r fakeCustomers) GetMany(ctx context.Context, ids []int) ([]*models.Customer, error) {
	defer r.s.guard()()
	var out []*models.Customer
	for _, id := range uniqueInts(ids) {
		if row, ok := r.s.db.data.customers[id]; ok {
			c := row
			out = append(out, &c)
		}
	}
	return out, nil
}

type fakeSalesPersons struct{ s *fakeStore }

func (r fakeSalesPersons) Create(ctx context.Context, sp *models.SalesPerson) error {
	defer r.s.guard()()
	sp.ID = r.s.db.data.id()
	r.s.db.data.persons[sp.ID] = *sp
	return nil
}

func (r fakeSalesPersons) Get(ctx context.Context, id int) (*models.SalesPerson, error) {
	defer r.s.guard()()
	row, ok := r.s.db.data.persons[id]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	return &row, nil
}

func (r fakeSalesPersons) GetMany(ctx context.Context, ids []int) ([]*models.SalesPerson, error) {
	defer r.s.guard()()
	var out []*models.SalesPerson
	for _, id := range uniqueInts(ids) {
		if row, ok := r.s.db.data.persons[id]; ok {
			sp := row
			out = append(out, &sp)
		}
	}
	return out, nil
}
