package workflow

import (
	"context"
	"errors"

	"github.com/twhracing/distributor_backend/models"
	"github.com/twhracing/distributor_backend/utils"
)

func (e *Engine) CreatePriceTier(ctx context.Context, input models.NewPriceTier) (*models.PriceTier, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	tier := &models.PriceTier{
		Name:        input.Name,
		Code:        input.Code,
		Sequence:    input.Sequence,
		IsActive:    utils.NewTrue(),
		Description: input.Description,
	}
	if tier.Sequence == 0 {
		tier.Sequence = 10
	}
	if err := e.store.Pricing().CreateTier(ctx, tier); err != nil {
		return nil, err
	}
	return tier, nil
}

// SeedPriceTiers creates the default tiers that do not exist yet and returns the full list.
func (e *Engine) SeedPriceTiers(ctx context.Context) ([]*models.PriceTier, error) {
	for _, input := range models.DefaultPriceTiers() {
		_, err := e.store.Pricing().GetTierByCode(ctx, input.Code)
		if err == nil {
			continue
		}
		if !errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, err
		}
		if _, err := e.CreatePriceTier(ctx, input); err != nil && !errors.Is(err, models.ErrDuplicateTierCode) {
			return nil, err
		}
	}
	return e.store.Pricing().ListTiers(ctx)
}

func (e *Engine) ListPriceTiers(ctx context.Context) ([]*models.PriceTier, error) {
	return e.store.Pricing().ListTiers(ctx)
}

// SetProductPrice creates or replaces the product's price at one tier.
func (e *Engine) SetProductPrice(ctx context.Context, productId int, input models.NewProductPrice) (*models.ProductPrice, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	var price *models.ProductPrice
	err := e.store.WithinTransaction(ctx, func(tx models.Store) error {
		if _, err := tx.Products().Get(ctx, productId); err != nil {
			return err
		}
		tier, err := tx.Pricing().GetTierByCode(ctx, input.TierCode)
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return models.NewValidationError("price tier %s has not been set up", input.TierCode)
		} else if err != nil {
			return err
		}
		price, err = tx.Pricing().UpsertPrice(ctx, productId, tier, input.Price)
		return err
	})
	if err != nil {
		return nil, err
	}
	return price, nil
}

func (e *Engine) ProductPrices(ctx context.Context, productId int) (*models.ProductPriceSnapshot, error) {
	if _, err := e.store.Products().Get(ctx, productId); err != nil {
		return nil, err
	}
	table, err := e.store.Pricing().PricesForProducts(ctx, []int{productId})
	if err != nil {
		return nil, err
	}
	snapshot := table.Snapshot(productId)
	return &snapshot, nil
}

func (e *Engine) CreateProduct(ctx context.Context, input models.NewProduct) (*models.Product, error) {
	p := input.ToProduct()
	if p.Name == "" {
		return nil, models.NewValidationError("product name is required")
	}
	if err := e.store.Products().Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (e *Engine) CreateCustomer(ctx context.Context, input models.NewCustomer) (*models.Customer, error) {
	c, err := input.ToCustomer()
	if err != nil {
		return nil, err
	}
	if err := e.store.Customers().Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (e *Engine) CreateSalesPerson(ctx context.Context, input models.NewSalesPerson) (*models.SalesPerson, error) {
	s, err := input.ToSalesPerson()
	if err != nil {
		return nil, err
	}
	if err := e.store.SalesPersons().Create(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}
