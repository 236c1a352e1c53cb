package models

import (
	"log"

	"github.com/twhracing/distributor_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&PriceTier{}, &ProductPrice{},
		&Product{}, &Customer{}, &SalesPerson{},
		&Invoice{}, &InvoiceLine{},
		&Payment{},
		&Commission{},
		&Reminder{},
		&Activity{},
		&SalesOrder{}, &SalesOrderLine{},
		&Sequence{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
