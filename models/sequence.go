package models

import (
	"fmt"
	"time"
)

const (
	SequenceInvoice    = "TWH/INV"
	SequencePayment    = "TWH/PAY"
	SequenceSalesOrder = "TWH/SO"
)

// Sequence holds the last number issued for a prefix within a year.
type Sequence struct {
	Prefix     string `gorm:"size:20;primary_key" json:"prefix"`
	Year       int    `gorm:"primary_key;autoIncrement:false" json:"year"`
	LastNumber int    `gorm:"not null;default:0" json:"last_number"`
}

// FormatSequenceNumber renders e.g. TWH/INV/2024/00001.
func FormatSequenceNumber(prefix string, year, number int) string {
	return fmt.Sprintf("%s/%04d/%05d", prefix, year, number)
}

func SequenceYear(date time.Time) int {
	return date.Year()
}
