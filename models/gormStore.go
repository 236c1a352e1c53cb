package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/twhracing/distributor_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a gorm connection (or transaction) as a Store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Invoices() InvoiceRepository         { return invoiceRepo{s.db} }
func (s *gormStore) Payments() PaymentRepository         { return paymentRepo{s.db} }
func (s *gormStore) Commissions() CommissionRepository   { return commissionRepo{s.db} }
func (s *gormStore) Reminders() ReminderRepository       { return reminderRepo{s.db} }
func (s *gormStore) Pricing() PricingRepository          { return pricingRepo{s.db} }
func (s *gormStore) Activities() ActivityRepository      { return activityRepo{s.db} }
func (s *gormStore) SalesOrders() SalesOrderRepository   { return salesOrderRepo{s.db} }
func (s *gormStore) Sequences() SequenceRepository       { return sequenceRepo{s.db} }
func (s *gormStore) Products() ProductRepository         { return productRepo{s.db} }
func (s *gormStore) Customers() CustomerRepository       { return customerRepo{s.db} }
func (s *gormStore) SalesPersons() SalesPersonRepository { return salesPersonRepo{s.db} }

func (s *gormStore) WithinTransaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.ErrorRecordNotFound
	}
	return err
}

func orderedLines(db *gorm.DB) *gorm.DB {
	return db.Order("sequence ASC, id ASC")
}

// invoices

type invoiceRepo struct{ db *gorm.DB }

func (r invoiceRepo) Create(ctx context.Context, inv *Invoice) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r invoiceRepo) Get(ctx context.Context, id int) (*Invoice, error) {
	var inv Invoice
	if err := r.db.WithContext(ctx).Preload("Lines", orderedLines).First(&inv, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

func (r invoiceRepo) GetForUpdate(ctx context.Context, id int) (*Invoice, error) {
	var inv Invoice
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Lines", orderedLines).
		First(&inv, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

func (r invoiceRepo) Update(ctx context.Context, inv *Invoice) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(inv).Error
}

func (r invoiceRepo) CreateLine(ctx context.Context, line *InvoiceLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

func (r invoiceRepo) UpdateLine(ctx context.Context, line *InvoiceLine) error {
	return r.db.WithContext(ctx).Save(line).Error
}

func (r invoiceRepo) DeleteLine(ctx context.Context, line *InvoiceLine) error {
	return r.db.WithContext(ctx).Where("invoice_id = ?", line.InvoiceId).Delete(&InvoiceLine{}, line.ID).Error
}

func (r invoiceRepo) ListOpenTempo(ctx context.Context) ([]*Invoice, error) {
	var invoices []*Invoice
	err := r.db.WithContext(ctx).
		Where("payment_type = ?", PaymentTypeTempo).
		Where("status IN ?", OpenInvoiceStatuses).
		Where("due_date IS NOT NULL").
		Order("due_date ASC, id ASC").
		Find(&invoices).Error
	return invoices, err
}

func (r invoiceRepo) ListByCustomer(ctx context.Context, customerId int) ([]*Invoice, error) {
	var invoices []*Invoice
	err := r.db.WithContext(ctx).Where("customer_id = ?", customerId).Order("id ASC").Find(&invoices).Error
	return invoices, err
}

// payments

type paymentRepo struct{ db *gorm.DB }

func (r paymentRepo) Create(ctx context.Context, p *Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r paymentRepo) Get(ctx context.Context, id int) (*Payment, error) {
	var p Payment
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r paymentRepo) Update(ctx context.Context, p *Payment) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r paymentRepo) ListByInvoice(ctx context.Context, invoiceId int) ([]*Payment, error) {
	var payments []*Payment
	err := r.db.WithContext(ctx).Where("invoice_id = ?", invoiceId).Order("payment_date ASC, id ASC").Find(&payments).Error
	return payments, err
}

func (r paymentRepo) DeleteByInvoice(ctx context.Context, invoiceId int) error {
	return r.db.WithContext(ctx).Where("invoice_id = ?", invoiceId).Delete(&Payment{}).Error
}

// commissions

type commissionRepo struct{ db *gorm.DB }

func (r commissionRepo) CreateMany(ctx context.Context, commissions []*Commission) error {
	if len(commissions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&commissions).Error
}

func (r commissionRepo) ListByInvoice(ctx context.Context, invoiceId int) ([]*Commission, error) {
	var commissions []*Commission
	err := r.db.WithContext(ctx).Where("invoice_id = ?", invoiceId).Order("id ASC").Find(&commissions).Error
	return commissions, err
}

func (r commissionRepo) DeleteByInvoice(ctx context.Context, invoiceId int) error {
	return r.db.WithContext(ctx).Where("invoice_id = ?", invoiceId).Delete(&Commission{}).Error
}

func (r commissionRepo) ListByIds(ctx context.Context, ids []int) ([]*Commission, error) {
	var commissions []*Commission
	if len(ids) == 0 {
		return commissions, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&commissions).Error
	return commissions, err
}

func (r commissionRepo) Update(ctx context.Context, c *Commission) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r commissionRepo) Find(ctx context.Context, filter CommissionFilter) ([]*Commission, error) {
	dbCtx := r.db.WithContext(ctx).Model(&Commission{})
	if filter.SalesPersonId != nil {
		dbCtx = dbCtx.Where("sales_person_id = ?", *filter.SalesPersonId)
	}
	if filter.FromDate != nil {
		dbCtx = dbCtx.Where("commission_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		dbCtx = dbCtx.Where("commission_date <= ?", *filter.ToDate)
	}
	if len(filter.Statuses) > 0 {
		dbCtx = dbCtx.Where("status IN ?", filter.Statuses)
	}
	var commissions []*Commission
	err := dbCtx.Order("commission_date DESC, id DESC").Find(&commissions).Error
	return commissions, err
}

// reminders

type reminderRepo struct{ db *gorm.DB }

func (r reminderRepo) Create(ctx context.Context, rem *Reminder) error {
	if err := r.db.WithContext(ctx).Create(rem).Error; err != nil {
		if utils.IsDuplicateKeyError(err) {
			return ErrDuplicateReminder
		}
		return err
	}
	return nil
}

func (r reminderRepo) Exists(ctx context.Context, invoiceId int, reminderType ReminderType, date time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Reminder{}).
		Where("invoice_id = ? AND reminder_type = ? AND reminder_date = ?", invoiceId, reminderType, date).
		Count(&count).Error
	return count > 0, err
}

func (r reminderRepo) Get(ctx context.Context, id int) (*Reminder, error) {
	var rem Reminder
	if err := r.db.WithContext(ctx).First(&rem, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &rem, nil
}

func (r reminderRepo) Update(ctx context.Context, rem *Reminder) error {
	return r.db.WithContext(ctx).Save(rem).Error
}

func (r reminderRepo) ListPendingDue(ctx context.Context, today time.Time) ([]*Reminder, error) {
	var reminders []*Reminder
	err := r.db.WithContext(ctx).
		Where("status = ? AND reminder_date <= ?", ReminderStatusPending, today).
		Order("reminder_date ASC, id ASC").
		Find(&reminders).Error
	return reminders, err
}

func (r reminderRepo) ListPendingByInvoice(ctx context.Context, invoiceId int) ([]*Reminder, error) {
	var reminders []*Reminder
	err := r.db.WithContext(ctx).
		Where("invoice_id = ? AND status = ?", invoiceId, ReminderStatusPending).
		Order("id ASC").
		Find(&reminders).Error
	return reminders, err
}

func (r reminderRepo) ListPendingForPaidInvoices(ctx context.Context) ([]*Reminder, error) {
	var reminders []*Reminder
	err := r.db.WithContext(ctx).
		Joins("JOIN invoices ON invoices.id = reminders.invoice_id").
		Where("reminders.status = ? AND invoices.status = ?", ReminderStatusPending, InvoiceStatusPaid).
		Order("reminders.id ASC").
		Find(&reminders).Error
	return reminders, err
}

// pricing

type pricingRepo struct{ db *gorm.DB }

func (r pricingRepo) CreateTier(ctx context.Context, tier *PriceTier) error {
	if err := r.db.WithContext(ctx).Create(tier).Error; err != nil {
		if utils.IsDuplicateKeyError(err) {
			return ErrDuplicateTierCode
		}
		return err
	}
	return nil
}

func (r pricingRepo) ListTiers(ctx context.Context) ([]*PriceTier, error) {
	var tiers []*PriceTier
	err := r.db.WithContext(ctx).Order("sequence ASC, id ASC").Find(&tiers).Error
	return tiers, err
}

func (r pricingRepo) GetTierByCode(ctx context.Context, code PriceTierCode) (*PriceTier, error) {
	var tier PriceTier
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&tier).Error; err != nil {
		return nil, notFound(err)
	}
	return &tier, nil
}

func (r pricingRepo) UpsertPrice(ctx context.Context, productId int, tier *PriceTier, price decimal.Decimal) (*ProductPrice, error) {
	if err := ValidatePrice(price); err != nil {
		return nil, err
	}
	var pp ProductPrice
	err := r.db.WithContext(ctx).Where("product_id = ? AND tier_id = ?", productId, tier.ID).First(&pp).Error
	switch {
	case err == nil:
		pp.Price = price
		if err := r.db.WithContext(ctx).Save(&pp).Error; err != nil {
			return nil, err
		}
		return &pp, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		pp = ProductPrice{ProductId: productId, TierId: tier.ID, Price: price}
		if err := r.db.WithContext(ctx).Create(&pp).Error; err != nil {
			if utils.IsDuplicateKeyError(err) {
				return nil, ErrDuplicateTierPrice
			}
			return nil, err
		}
		return &pp, nil
	default:
		return nil, err
	}
}

func (r pricingRepo) PricesForProducts(ctx context.Context, productIds []int) (*PricingTable, error) {
	var rows []TierPrice
	if len(productIds) > 0 {
		err := r.db.WithContext(ctx).
			Table("product_prices").
			Select("product_prices.product_id, price_tiers.code AS tier_code, product_prices.price").
			Joins("JOIN price_tiers ON price_tiers.id = product_prices.tier_id").
			Where("product_prices.product_id IN ?", productIds).
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
	}
	return NewPricingTable(rows), nil
}

// activities

type activityRepo struct{ db *gorm.DB }

func (r activityRepo) Create(ctx context.Context, a *Activity) error {
	if a.CorrelationId == "" {
		a.CorrelationId, _ = utils.GetCorrelationIdFromContext(ctx)
	}
	return r.db.WithContext(ctx).Create(a).Error
}

func (r activityRepo) ListByInvoice(ctx context.Context, invoiceId int) ([]*Activity, error) {
	var activities []*Activity
	err := r.db.WithContext(ctx).Where("invoice_id = ?", invoiceId).Order("id DESC").Find(&activities).Error
	return activities, err
}

// sales orders

type salesOrderRepo struct{ db *gorm.DB }

func (r salesOrderRepo) Create(ctx context.Context, so *SalesOrder) error {
	return r.db.WithContext(ctx).Create(so).Error
}

func (r salesOrderRepo) Get(ctx context.Context, id int) (*SalesOrder, error) {
	var so SalesOrder
	if err := r.db.WithContext(ctx).Preload("Lines", orderedLines).First(&so, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &so, nil
}

func (r salesOrderRepo) Update(ctx context.Context, so *SalesOrder) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(so).Error
}

// sequences

type sequenceRepo struct{ db *gorm.DB }

func (r sequenceRepo) Next(ctx context.Context, prefix string, year int) (int, error) {
	var next int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&Sequence{Prefix: prefix, Year: year}).Error; err != nil {
			return err
		}
		var seq Sequence
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("prefix = ? AND year = ?", prefix, year).
			First(&seq).Error; err != nil {
			return err
		}
		next = seq.LastNumber + 1
		return tx.Model(&Sequence{}).
			Where("prefix = ? AND year = ?", prefix, year).
			Update("last_number", next).Error
	})
	return next, err
}

// master data

type productRepo struct{ db *gorm.DB }

func (r productRepo) Create(ctx context.Context, p *Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r productRepo) Get(ctx context.Context, id int) (*Product, error) {
	var p Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r productRepo) GetMany(ctx context.Context, ids []int) ([]*Product, error) {
	var products []*Product
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error
	return products, err
}

type customerRepo struct{ db *gorm.DB }

func (r customerRepo) Create(ctx context.Context, c *Customer) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r customerRepo) Get(ctx context.Context, id int) (*Customer, error) {
	var c Customer
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r customerRepo) GetMany(ctx context.Context, ids []int) ([]*Customer, error) {
	var customers []*Customer
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&customers).Error
	return customers, err
}

type salesPersonRepo struct{ db *gorm.DB }

func (r salesPersonRepo) Create(ctx context.Context, s *SalesPerson) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r salesPersonRepo) Get(ctx context.Context, id int) (*SalesPerson, error) {
	var s SalesPerson
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r salesPersonRepo) GetMany(ctx context.Context, ids []int) ([]*SalesPerson, error) {
	var salesPersons []*SalesPerson
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&salesPersons).Error
	return salesPersons, err
}
