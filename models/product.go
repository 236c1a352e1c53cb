package models

import (
	"strings"
	"time"

	"github.com/twhracing/distributor_backend/utils"
)

type Product struct {
	ID          int             `gorm:"primary_key" json:"id"`
	Name        string          `gorm:"size:200;not null" json:"name"`
	DefaultCode string          `gorm:"size:64;index" json:"default_code"`
	Category    ProductCategory `gorm:"size:30;not null;default:other" json:"twh_category"`
	BikeBrand   BikeBrand       `gorm:"size:20" json:"bike_brand"`
	BikeModel   string          `gorm:"size:100" json:"bike_model"`
	IsActive    *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Name        string          `json:"name" binding:"required"`
	DefaultCode string          `json:"default_code"`
	Category    ProductCategory `json:"twh_category"`
	BikeBrand   BikeBrand       `json:"bike_brand"`
	BikeModel   string          `json:"bike_model"`
}

func (input NewProduct) ToProduct() *Product {
	category := input.Category
	if category == "" {
		category = ProductCategoryOther
	}
	return &Product{
		Name:        strings.TrimSpace(input.Name),
		DefaultCode: strings.TrimSpace(input.DefaultCode),
		Category:    category,
		BikeBrand:   input.BikeBrand,
		BikeModel:   input.BikeModel,
		IsActive:    utils.NewTrue(),
	}
}

// DisplayName is "[CODE] Name" when the product has a code.
func (p Product) DisplayName() string {
	if p.DefaultCode == "" {
		return p.Name
	}
	return "[" + p.DefaultCode + "] " + p.Name
}
