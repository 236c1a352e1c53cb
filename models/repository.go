package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceRepository interface {
	Create(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, id int) (*Invoice, error)
	// GetForUpdate row-locks the invoice until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int) (*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
	CreateLine(ctx context.Context, line *InvoiceLine) error
	UpdateLine(ctx context.Context, line *InvoiceLine) error
	DeleteLine(ctx context.Context, line *InvoiceLine) error
	// ListOpenTempo returns tempo invoices in an open status that have a due date.
	ListOpenTempo(ctx context.Context) ([]*Invoice, error)
	ListByCustomer(ctx context.Context, customerId int) ([]*Invoice, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	Get(ctx context.Context, id int) (*Payment, error)
	Update(ctx context.Context, p *Payment) error
	ListByInvoice(ctx context.Context, invoiceId int) ([]*Payment, error)
	DeleteByInvoice(ctx context.Context, invoiceId int) error
}

type CommissionRepository interface {
	CreateMany(ctx context.Context, commissions []*Commission) error
	ListByInvoice(ctx context.Context, invoiceId int) ([]*Commission, error)
	DeleteByInvoice(ctx context.Context, invoiceId int) error
	ListByIds(ctx context.Context, ids []int) ([]*Commission, error)
	Update(ctx context.Context, c *Commission) error
	Find(ctx context.Context, filter CommissionFilter) ([]*Commission, error)
}

type ReminderRepository interface {
	// Create returns ErrDuplicateReminder when (invoice, type, date) already exists.
	Create(ctx context.Context, r *Reminder) error
	Exists(ctx context.Context, invoiceId int, reminderType ReminderType, date time.Time) (bool, error)
	Get(ctx context.Context, id int) (*Reminder, error)
	Update(ctx context.Context, r *Reminder) error
	ListPendingDue(ctx context.Context, today time.Time) ([]*Reminder, error)
	ListPendingByInvoice(ctx context.Context, invoiceId int) ([]*Reminder, error)
	ListPendingForPaidInvoices(ctx context.Context) ([]*Reminder, error)
}

type PricingRepository interface {
	CreateTier(ctx context.Context, tier *PriceTier) error
	ListTiers(ctx context.Context) ([]*PriceTier, error)
	GetTierByCode(ctx context.Context, code PriceTierCode) (*PriceTier, error)
	UpsertPrice(ctx context.Context, productId int, tier *PriceTier, price decimal.Decimal) (*ProductPrice, error)
	PricesForProducts(ctx context.Context, productIds []int) (*PricingTable, error)
}

type ActivityRepository interface {
	Create(ctx context.Context, a *Activity) error
	ListByInvoice(ctx context.Context, invoiceId int) ([]*Activity, error)
}

type SalesOrderRepository interface {
	Create(ctx context.Context, so *SalesOrder) error
	Get(ctx context.Context, id int) (*SalesOrder, error)
	Update(ctx context.Context, so *SalesOrder) error
}

type SequenceRepository interface {
	// Next issues the next number for prefix in year, starting at 1.
	Next(ctx context.Context, prefix string, year int) (int, error)
}

type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	Get(ctx context.Context, id int) (*Product, error)
	GetMany(ctx context.Context, ids []int) ([]*Product, error)
}

type CustomerRepository interface {
	Create(ctx context.Context, c *Customer) error
	Get(ctx context.Context, id int) (*Customer, error)
	GetMany(ctx context.Context, ids []int) ([]*Customer, error)
}

type SalesPersonRepository interface {
	Create(ctx context.Context, s *SalesPerson) error
	Get(ctx context.Context, id int) (*SalesPerson, error)
	GetMany(ctx context.Context, ids []int) ([]*SalesPerson, error)
}

// Store groups the repositories that share one unit of work.
type Store interface {
	Invoices() InvoiceRepository
	Payments() PaymentRepository
	Commissions() CommissionRepository
	Reminders() ReminderRepository
	Pricing() PricingRepository
	Activities() ActivityRepository
	SalesOrders() SalesOrderRepository
	Sequences() SequenceRepository
	Products() ProductRepository
	Customers() CustomerRepository
	SalesPersons() SalesPersonRepository

	// WithinTransaction runs fn against a Store bound to one transaction.
	// The transaction is rolled back when fn returns an error.
	WithinTransaction(ctx context.Context, fn func(tx Store) error) error
}
