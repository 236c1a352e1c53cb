package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/twhracing/distributor_backend/config"
	"github.com/twhracing/distributor_backend/models"
	"github.com/twhracing/distributor_backend/utils"
	"github.com/xuri/excelize/v2"
)

type ProductSalesSort string

const (
	ProductSalesSortQuantity ProductSalesSort = "quantity"
	ProductSalesSortValue    ProductSalesSort = "value"
)

const DefaultTopN = 10

const (
	PeriodThisMonth   = "this_month"
	PeriodLast3Months = "last_3_months"
	PeriodLast6Months = "last_6_months"
	PeriodThisYear    = "this_year"
	PeriodCustomRange = "custom"
)

type ProductSalesResponse struct {
	Rank          int                    `json:"rank"`
	ProductId     int                    `json:"product_id"`
	ProductName   string                 `json:"product_name"`
	ProductCode   string                 `json:"product_code"`
	Category      models.ProductCategory `json:"twh_category"`
	TotalQuantity decimal.Decimal        `json:"total_quantity"`
	TotalValue    decimal.Decimal        `json:"total_value"`
	InvoiceCount  int                    `json:"invoice_count"`
	AveragePrice  decimal.Decimal        `json:"avg_price"`
}

// ProductSalesRange resolves an analytics period to an inclusive date range.
// Unknown periods and "custom" without dates fall back to this year.
func ProductSalesRange(period string, today time.Time, from, to *time.Time) (time.Time, time.Time) {
	switch period {
	case PeriodThisMonth:
		return utils.StartOfMonth(today), today
	case PeriodLast3Months:
		return utils.MonthsBack(today, 3), today
	case PeriodLast6Months:
		return utils.MonthsBack(today, 6), today
	case PeriodCustomRange:
		start, end := utils.StartOfYear(today), today
		if from != nil {
			start = *from
		}
		if to != nil {
			end = *to
		}
		return start, end
	}
	return utils.StartOfYear(today), today
}

// RankProductSales sorts grouped rows descending by the chosen measure, with
// ties broken by product id, fills the average price and keeps the top N.
// topN <= 0 keeps every row.
func RankProductSales(rows []*ProductSalesResponse, topN int, sortBy ProductSalesSort) []*ProductSalesResponse {
	for _, r := range rows {
		if r.TotalQuantity.IsPositive() {
			r.AveragePrice = r.TotalValue.Div(r.TotalQuantity).Round(2)
		} else {
			r.AveragePrice = decimal.Zero
		}
	}
	measure := func(r *ProductSalesResponse) decimal.Decimal {
		if sortBy == ProductSalesSortValue {
			return r.TotalValue
		}
		return r.TotalQuantity
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if c := measure(rows[i]).Cmp(measure(rows[j])); c != 0 {
			return c > 0
		}
		return rows[i].ProductId < rows[j].ProductId
	})
	if topN > 0 && len(rows) > topN {
		rows = rows[:topN]
	}
	for i, r := range rows {
		r.Rank = i + 1
	}
	return rows
}

func GetProductSalesReport(ctx context.Context, fromDate time.Time, toDate time.Time, topN int, sortBy ProductSalesSort) ([]*ProductSalesResponse, error) {
	sql := `
SELECT
    l.product_id,
    p.name AS product_name,
    p.default_code AS product_code,
    p.category,
    COALESCE(SUM(l.quantity), 0) AS total_quantity,
    COALESCE(SUM(l.subtotal), 0) AS total_value,
    COUNT(DISTINCT l.invoice_id) AS invoice_count
FROM
    invoice_lines AS l
        JOIN
    invoices AS iv ON iv.id = l.invoice_id
        LEFT JOIN
    products AS p ON p.id = l.product_id
WHERE
    iv.invoice_date BETWEEN @fromDate AND @toDate
        AND iv.status IN @statuses
GROUP BY l.product_id, p.name, p.default_code, p.category
`
	var rows []*ProductSalesResponse
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"fromDate": fromDate.Format(utils.DateLayout),
		"toDate":   toDate.Format(utils.DateLayout),
		"statuses": models.SalesInvoiceStatuses,
	}).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return RankProductSales(rows, topN, sortBy), nil
}

// ProductSalesWorkbook renders product sales rows as a single-sheet workbook.
func ProductSalesWorkbook(rows []*ProductSalesResponse, fromDate, toDate time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Product Sales"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	title := fmt.Sprintf("Product Sales %s - %s", fromDate.Format(utils.DateLayout), toDate.Format(utils.DateLayout))
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return nil, err
	}
	headers := []interface{}{"Rank", "Code", "Product", "Category", "Qty", "Value", "Invoices", "Avg Price"}
	if err := f.SetSheetRow(sheet, "A3", &headers); err != nil {
		return nil, err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+4)
		if err != nil {
			return nil, err
		}
		values := []interface{}{
			r.Rank,
			r.ProductCode,
			r.ProductName,
			string(r.Category),
			r.TotalQuantity.InexactFloat64(),
			r.TotalValue.InexactFloat64(),
			r.InvoiceCount,
			r.AveragePrice.InexactFloat64(),
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
	}
	return f, nil
}
