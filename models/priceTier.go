package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PriceTier struct {
	ID          int           `gorm:"primary_key" json:"id"`
	Name        string        `gorm:"size:100;not null" json:"name"`
	Code        PriceTierCode `gorm:"size:20;not null;uniqueIndex:idx_price_tier_code" json:"code"`
	Sequence    int           `gorm:"not null;default:10" json:"sequence"`
	IsActive    *bool         `gorm:"not null;default:true" json:"is_active"`
	Description string        `gorm:"type:text" json:"description"`
	CreatedAt   time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPriceTier struct {
	Name        string        `json:"name" binding:"required"`
	Code        PriceTierCode `json:"code" binding:"required"`
	Sequence    int           `json:"sequence"`
	Description string        `json:"description"`
}

func (input NewPriceTier) Validate() error {
	if !input.Code.IsValid() {
		return NewValidationError("unknown price tier code %q", input.Code)
	}
	return nil
}

// ProductPrice is the price of one product at one tier.
type ProductPrice struct {
	ID        int             `gorm:"primary_key" json:"id"`
	ProductId int             `gorm:"not null;uniqueIndex:idx_product_tier" json:"product_id"`
	TierId    int             `gorm:"not null;uniqueIndex:idx_product_tier" json:"tier_id"`
	Price     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProductPrice struct {
	TierCode PriceTierCode   `json:"tier_code" binding:"required"`
	Price    decimal.Decimal `json:"price"`
}

func (input NewProductPrice) Validate() error {
	if !input.TierCode.IsValid() {
		return NewValidationError("unknown price tier code %q", input.TierCode)
	}
	return ValidatePrice(input.Price)
}

func ValidatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return NewValidationError("price cannot be negative")
	}
	return nil
}

// TierPrice is a (product, tier code, price) row as read from the store.
type TierPrice struct {
	ProductId int             `json:"product_id"`
	TierCode  PriceTierCode   `json:"tier_code"`
	Price     decimal.Decimal `json:"price"`
}

type pricingKey struct {
	productId int
	tier      PriceTierCode
}

// PricingTable answers (product, tier) lookups from memory.
type PricingTable struct {
	prices map[pricingKey]decimal.Decimal
}

func NewPricingTable(rows []TierPrice) *PricingTable {
	t := &PricingTable{prices: make(map[pricingKey]decimal.Decimal, len(rows))}
	for _, r := range rows {
		t.Set(r.ProductId, r.TierCode, r.Price)
	}
	return t
}

func (t *PricingTable) Set(productId int, tier PriceTierCode, price decimal.Decimal) {
	if t.prices == nil {
		t.prices = make(map[pricingKey]decimal.Decimal)
	}
	t.prices[pricingKey{productId, tier}] = price
}

// PriceFor returns zero for a pair that has not been priced yet.
func (t *PricingTable) PriceFor(productId int, tier PriceTierCode) decimal.Decimal {
	if t == nil {
		return decimal.Zero
	}
	if p, ok := t.prices[pricingKey{productId, tier}]; ok {
		return p
	}
	return decimal.Zero
}

// ProductPriceSnapshot is a product's price at every tier.
type ProductPriceSnapshot struct {
	ProductId int             `json:"product_id"`
	Bayu      decimal.Decimal `json:"price_bayu"`
	Dealer    decimal.Decimal `json:"price_dealer"`
	PriceA    decimal.Decimal `json:"price_a"`
	PriceB    decimal.Decimal `json:"price_b"`
	Het       decimal.Decimal `json:"price_het"`
}

func (t *PricingTable) Snapshot(productId int) ProductPriceSnapshot {
	return ProductPriceSnapshot{
		ProductId: productId,
		Bayu:      t.PriceFor(productId, PriceTierCodeBayu),
		Dealer:    t.PriceFor(productId, PriceTierCodeDealer),
		PriceA:    t.PriceFor(productId, PriceTierCodePriceA),
		PriceB:    t.PriceFor(productId, PriceTierCodePriceB),
		Het:       t.PriceFor(productId, PriceTierCodeHet),
	}
}

// DefaultPriceTiers is the seed set in display order.
func DefaultPriceTiers() []NewPriceTier {
	return []NewPriceTier{
		{Name: "Bayu", Code: PriceTierCodeBayu, Sequence: 10, Description: "Harga modal"},
		{Name: "Dealer", Code: PriceTierCodeDealer, Sequence: 20},
		{Name: "Harga A", Code: PriceTierCodePriceA, Sequence: 30},
		{Name: "Harga B", Code: PriceTierCodePriceB, Sequence: 40},
		{Name: "HET", Code: PriceTierCodeHet, Sequence: 50, Description: "Harga eceran tertinggi"},
	}
}
