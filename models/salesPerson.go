package models

import (
	"strings"
	"time"

	"github.com/twhracing/distributor_backend/config"
	"github.com/twhracing/distributor_backend/utils"
)

type SalesPerson struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:100" json:"email"`
	Phone     string    `gorm:"size:30" json:"phone"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSalesPerson struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phone"`
}

func (input NewSalesPerson) ToSalesPerson() (*SalesPerson, error) {
	phone := input.Phone
	if phone != "" {
		normalized, err := utils.NormalizePhoneNumber(phone, config.PhoneRegion())
		if err != nil {
			return nil, NewValidationError("invalid phone number: %s", input.Phone)
		}
		phone = normalized
	}
	return &SalesPerson{
		Name:     strings.TrimSpace(input.Name),
		Email:    strings.TrimSpace(input.Email),
		Phone:    phone,
		IsActive: utils.NewTrue(),
	}, nil
}
