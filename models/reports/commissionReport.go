package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/twhracing/distributor_backend/config"
	"github.com/twhracing/distributor_backend/models"
	"github.com/twhracing/distributor_backend/utils"
	"github.com/xuri/excelize/v2"
)

type CommissionDetailResponse struct {
	CommissionDate  time.Time               `json:"commission_date"`
	InvoiceName     string                  `json:"invoice_name"`
	SalesPersonName string                  `json:"sales_person_name"`
	ProductName     string                  `json:"product_name"`
	Quantity        decimal.Decimal         `json:"quantity"`
	CostPrice       decimal.Decimal         `json:"cost_price"`
	SellingPrice    decimal.Decimal         `json:"selling_price"`
	Margin          decimal.Decimal         `json:"margin"`
	Amount          decimal.Decimal         `json:"commission_amount"`
	Status          models.CommissionStatus `json:"status"`
}

var reportedCommissionStatuses = []models.CommissionStatus{models.CommissionStatusConfirmed, models.CommissionStatusPaid}

func GetCommissionDetailReport(ctx context.Context, salesPersonId *int, fromDate *time.Time, toDate *time.Time) ([]*CommissionDetailResponse, error) {
	sqlT := `
SELECT
    c.commission_date,
    c.invoice_name,
    COALESCE(sp.name, '') AS sales_person_name,
    COALESCE(p.name, '') AS product_name,
    c.quantity,
    c.cost_price,
    c.selling_price,
    c.margin,
    c.amount,
    c.status
FROM
    commissions AS c
        LEFT JOIN
    sales_persons AS sp ON sp.id = c.sales_person_id
        LEFT JOIN
    products AS p ON p.id = c.product_id
WHERE
    c.status IN @statuses
    {{- if .salesPersonId }} AND c.sales_person_id = @salesPersonId {{- end }}
    {{- if .fromDate }} AND c.commission_date >= @fromDate {{- end }}
    {{- if .toDate }} AND c.commission_date <= @toDate {{- end }}
ORDER BY c.commission_date ASC, c.id ASC
`
	params := map[string]interface{}{
		"statuses":      reportedCommissionStatuses,
		"salesPersonId": utils.DereferencePtr(salesPersonId),
		"fromDate":      "",
		"toDate":        "",
	}
	if fromDate != nil {
		params["fromDate"] = fromDate.Format(utils.DateLayout)
	}
	if toDate != nil {
		params["toDate"] = toDate.Format(utils.DateLayout)
	}
	sql, err := utils.ExecTemplate(sqlT, params)
	if err != nil {
		return nil, err
	}
	var rows []*CommissionDetailResponse
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, params).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

var commissionHeaders = []interface{}{
	"Date", "Invoice", "Sales Person", "Product", "Qty", "Cost", "Selling", "Margin", "Commission", "Status",
}

// CommissionWorkbook writes commission rows followed by a totals row.
func CommissionWorkbook(rows []*CommissionDetailResponse) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Commissions"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheet, "A1", &commissionHeaders); err != nil {
		return nil, err
	}
	totalQty, totalCommission := decimal.Zero, decimal.Zero
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []interface{}{
			r.CommissionDate.Format(utils.DateLayout),
			r.InvoiceName,
			r.SalesPersonName,
			r.ProductName,
			r.Quantity.InexactFloat64(),
			r.CostPrice.InexactFloat64(),
			r.SellingPrice.InexactFloat64(),
			r.Margin.InexactFloat64(),
			r.Amount.InexactFloat64(),
			string(r.Status),
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
		totalQty = totalQty.Add(r.Quantity)
		totalCommission = totalCommission.Add(r.Amount)
	}
	cell, err := excelize.CoordinatesToCellName(1, len(rows)+2)
	if err != nil {
		return nil, err
	}
	totals := []interface{}{"TOTAL", "", "", "", totalQty.InexactFloat64(), "", "", "", totalCommission.InexactFloat64(), ""}
	if err := f.SetSheetRow(sheet, cell, &totals); err != nil {
		return nil, err
	}
	return f, nil
}
