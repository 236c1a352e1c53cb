package workflow

import (
	"errors"
	"testing"

	"github.com/twhracing/distributor_backend/models"
	"github.com/twhracing/distributor_backend/utils"
)

func TestSeedPriceTiers_Idempotent(t *testing.T) {
	f := newFixture(t)
	tiers, err := f.engine.SeedPriceTiers(f.ctx)
	if err != nil {
		t.Fatalf("SeedPriceTiers: %v", err)
	}
	if len(tiers) != len(models.DefaultPriceTiers()) {
		t.Fatalf("tiers = %d", len(tiers))
	}
	if tiers[0].Code != models.PriceTierCodeBayu {
		t.Fatalf("first tier = %s", tiers[0].Code)
	}
}

func TestSetProductPrice_Upserts(t *testing.T) {
	f := newFixture(t)
	if _, err := f.engine.SetProductPrice(f.ctx, f.product.ID, models.NewProductPrice{TierCode: models.PriceTierCodePriceA, Price: dec(125000)}); err != nil {
		t.Fatalf("SetProductPrice: %v", err)
	}
	snapshot, err := f.engine.ProductPrices(f.ctx, f.product.ID)
	if err != nil {
		t.Fatalf("ProductPrices: %v", err)
	}
	assertAmount(t, "bayu", snapshot.Bayu, 100000)
	assertAmount(t, "price_a", snapshot.PriceA, 125000)
	assertAmount(t, "price_b", snapshot.PriceB, 110000)
	assertAmount(t, "het", snapshot.Het, 0)

	tests := []struct {
		name      string
		productId int
		input     models.NewProductPrice
		check     func(error) bool
	}{
		{"negative", f.product.ID, models.NewProductPrice{TierCode: models.PriceTierCodeHet, Price: dec(-1)}, isValidation},
		{"unknown tier", f.product.ID, models.NewProductPrice{TierCode: "grosir", Price: dec(1)}, isValidation},
		{"unknown product", 9999, models.NewProductPrice{TierCode: models.PriceTierCodeHet, Price: dec(1)}, func(err error) bool {
			return errors.Is(err, utils.ErrorRecordNotFound)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.engine.SetProductPrice(f.ctx, tt.productId, tt.input); !tt.check(err) {
				t.Fatalf("err = %v", err)
			}
		})
	}
}

func TestCreateMasterData_Validation(t *testing.T) {
	f := newFixture(t)
	if _, err := f.engine.CreateProduct(f.ctx, models.NewProduct{Name: "  "}); !isValidation(err) {
		t.Fatalf("blank product err = %v", err)
	}
	if _, err := f.engine.CreateCustomer(f.ctx, models.NewCustomer{Name: "Toko", DiscountPercent: dec(150)}); !isValidation(err) {
		t.Fatalf("discount 150 err = %v", err)
	}
	if _, err := f.engine.CreatePriceTier(f.ctx, models.NewPriceTier{Name: "Harga A", Code: models.PriceTierCodePriceA}); !errors.Is(err, models.ErrDuplicateTierCode) {
		t.Fatalf("duplicate tier err = %v", err)
	}
}
