package workflow

import (
	"context"
	"errors"
	"strings"

	"github.com/twhracing/distributor_backend/models"
	"github.com/twhracing/distributor_backend/utils"
)

func (e *Engine) CreateSalesOrder(ctx context.Context, input models.NewSalesOrder) (*models.SalesOrder, error) {
	if input.PaymentTermDays < 0 {
		return nil, models.NewValidationError("payment term days cannot be negative")
	}
	if len(input.Lines) == 0 {
		return nil, models.NewValidationError("a sales order needs at least one line")
	}

	var so *models.SalesOrder
	err := e.store.WithinTransaction(ctx, func(tx models.Store) error {
		if _, err := tx.Customers().Get(ctx, input.CustomerId); errors.Is(err, utils.ErrorRecordNotFound) {
			return models.NewValidationError("customer %d does not exist", input.CustomerId)
		} else if err != nil {
			return err
		}

		so = &models.SalesOrder{
			CustomerId:      input.CustomerId,
			SalesPersonId:   input.SalesPersonId,
			OrderDate:       e.Today(),
			State:           models.SalesOrderStateDraft,
			PaymentTermDays: input.PaymentTermDays,
		}
		if input.OrderDate != nil && !input.OrderDate.IsZero() {
			so.OrderDate = input.OrderDate.InLocation(e.location)
		}
		if input.PriceTierId != nil {
			tier, err := findTier(ctx, tx, *input.PriceTierId)
			if err != nil {
				return err
			}
			so.PriceTierId = &tier.ID
			so.PriceTierCode = tier.Code
		}

		ids := make([]int, 0, len(input.Lines))
		for _, l := range input.Lines {
			ids = append(ids, l.ProductId)
		}
		products, err := tx.Products().GetMany(ctx, ids)
		if err != nil {
			return err
		}
		byId := make(map[int]*models.Product, len(products))
		for _, p := range products {
			byId[p.ID] = p
		}
		pricing, err := tx.Pricing().PricesForProducts(ctx, ids)
		if err != nil {
			return err
		}
		for i, in := range input.Lines {
			product, ok := byId[in.ProductId]
			if !ok {
				return models.NewValidationError("product %d does not exist", in.ProductId)
			}
			if !in.Quantity.IsPositive() {
				return models.NewValidationError("quantity must be greater than zero")
			}
			if in.UnitPrice.IsNegative() {
				return models.NewValidationError("unit price cannot be negative")
			}
			line := &models.SalesOrderLine{
				Sequence:    (i + 1) * 10,
				ProductId:   product.ID,
				Description: strings.TrimSpace(in.Description),
				Quantity:    in.Quantity,
				UnitPrice:   in.UnitPrice,
			}
			if line.Description == "" {
				line.Description = product.Name
			}
			if line.UnitPrice.IsZero() && so.PriceTierCode != "" {
				line.UnitPrice = pricing.PriceFor(product.ID, so.PriceTierCode)
			}
			so.Lines = append(so.Lines, line)
		}

		year := models.SequenceYear(so.OrderDate)
		number, err := tx.Sequences().Next(ctx, models.SequenceSalesOrder, year)
		if err != nil {
			return err
		}
		so.Name = models.FormatSequenceNumber(models.SequenceSalesOrder, year, number)
		return tx.SalesOrders().Create(ctx, so)
	})
	if err != nil {
		return nil, err
	}
	return so, nil
}

func findTier(ctx context.Context, tx models.Store, tierId int) (*models.PriceTier, error) {
	tiers, err := tx.Pricing().ListTiers(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tiers {
		if t.ID == tierId {
			return t, nil
		}
	}
	return nil, models.NewValidationError("price tier %d does not exist", tierId)
}

// ConfirmSalesOrder moves a draft or sent order to sale.
func (e *Engine) ConfirmSalesOrder(ctx context.Context, id int) (*models.SalesOrder, error) {
	var so *models.SalesOrder
	err := e.store.WithinTransaction(ctx, func(tx models.Store) error {
		var err error
		so, err = tx.SalesOrders().Get(ctx, id)
		if err != nil {
			return err
		}
		if so.State != models.SalesOrderStateDraft && so.State != models.SalesOrderStateSent {
			return models.NewPreconditionError("sales order %s cannot be confirmed from state %s", so.Name, so.State)
		}
		so.State = models.SalesOrderStateSale
		return tx.SalesOrders().Update(ctx, so)
	})
	if err != nil {
		return nil, err
	}
	return so, nil
}

// GenerateInvoiceFromSalesOrder creates a draft invoice carrying the
// order's lines, tier, term and salesperson, and links the two.
func (e *Engine) GenerateInvoiceFromSalesOrder(ctx context.Context, salesOrderId int) (*models.Invoice, error) {
	var inv *models.Invoice
	err := e.store.WithinTransaction(ctx, func(tx models.Store) error {
		so, err := tx.SalesOrders().Get(ctx, salesOrderId)
		if err != nil {
			return err
		}
		if err := so.CanGenerateInvoice(); err != nil {
			return err
		}

		inv = &models.Invoice{
			CustomerId:      so.CustomerId,
			InvoiceDate:     e.Today(),
			SalesPersonId:   so.SalesPersonId,
			PriceTierCode:   so.InvoiceTierCode(),
			PaymentType:     models.PaymentTypeTempo,
			PaymentTermDays: so.InvoiceTermDays(e.defaultTermDays),
			Status:          models.InvoiceStatusDraft,
			SalesOrderId:    &so.ID,
			Notes:           so.InvoiceNotes(),
			CreatedBy:       utils.ActorName(ctx),
		}
		if customer, err := tx.Customers().Get(ctx, so.CustomerId); err == nil && customer.DiscountPercent.IsPositive() {
			inv.DiscountPercent = customer.DiscountPercent
		}
		for _, l := range so.Lines {
			line := &models.InvoiceLine{
				Sequence:    l.Sequence,
				ProductId:   l.ProductId,
				Description: l.Description,
				Quantity:    l.Quantity,
				UnitPrice:   l.UnitPrice,
			}
			if err := line.Validate(); err != nil {
				return err
			}
			inv.Lines = append(inv.Lines, line)
		}
		if err := e.insertInvoice(ctx, tx, inv); err != nil {
			return err
		}

		so.InvoiceId = &inv.ID
		return tx.SalesOrders().Update(ctx, so)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}
