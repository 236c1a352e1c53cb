package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/twhracing/distributor_backend/config"
	"github.com/twhracing/distributor_backend/models"
	"github.com/twhracing/distributor_backend/utils"
)

const (
	monthKeyLayout   = "2006-01"
	monthLabelLayout = "Jan 2006"
)

const (
	RevenuePeriodMonth = "month"
	RevenuePeriodYear  = "year"
	RevenuePeriodAll   = "all"
)

type SalesDataResponse struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

// MonthWindow is one calendar month of the sales series.
type MonthWindow struct {
	Key   string
	Label string
	Start time.Time
	End   time.Time
}

// TrailingMonthWindows returns `months` windows, oldest first. The last
// window is the current month and ends at today.
func TrailingMonthWindows(today time.Time, months int) []MonthWindow {
	if months <= 0 {
		return nil
	}
	windows := make([]MonthWindow, 0, months)
	for i := months - 1; i >= 0; i-- {
		start := utils.StartOfMonth(today).AddDate(0, -i, 0)
		end := utils.EndOfMonth(start)
		if i == 0 {
			end = today
		}
		windows = append(windows, MonthWindow{
			Key:   start.Format(monthKeyLayout),
			Label: start.Format(monthLabelLayout),
			Start: start,
			End:   end,
		})
	}
	return windows
}

// BuildSalesSeries maps per-month totals (keyed "2006-01") onto the windows.
// Months without sales read 0.
func BuildSalesSeries(windows []MonthWindow, totals map[string]decimal.Decimal) []SalesDataResponse {
	series := make([]SalesDataResponse, 0, len(windows))
	for _, w := range windows {
		amount := totals[w.Key]
		series = append(series, SalesDataResponse{
			Month:  w.Label,
			Amount: amount.Round(2).InexactFloat64(),
		})
	}
	return series
}

type monthTotal struct {
	MonthKey string
	Amount   decimal.Decimal
}

// GetSalesData sums invoice totals per month over the trailing window.
func GetSalesData(ctx context.Context, today time.Time, months int) ([]SalesDataResponse, error) {
	windows := TrailingMonthWindows(today, months)
	if len(windows) == 0 {
		return []SalesDataResponse{}, nil
	}
	sql := `
SELECT
    DATE_FORMAT(invoice_date, '%Y-%m') AS month_key,
    COALESCE(SUM(total), 0) AS amount
FROM
    invoices
WHERE
    invoice_date BETWEEN @fromDate AND @toDate
        AND status IN @statuses
GROUP BY month_key
`
	var rows []monthTotal
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"fromDate": windows[0].Start.Format(utils.DateLayout),
		"toDate":   windows[len(windows)-1].End.Format(utils.DateLayout),
		"statuses": models.SalesInvoiceStatuses,
	}).Scan(&rows).Error; err != nil {
		return nil, err
	}
	totals := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		totals[r.MonthKey] = r.Amount
	}
	return BuildSalesSeries(windows, totals), nil
}

type RevenueResponse struct {
	Amount       decimal.Decimal `json:"amount"`
	Formatted    string          `json:"formatted"`
	PeriodLabel  string          `json:"period_label"`
	PaymentCount int64           `json:"payment_count"`
	InvoiceCount int64           `json:"invoice_count"`
	Period       string          `json:"period"`
}

// RevenuePeriodRange resolves month|year|all. Anything else is treated as all,
// which has no date bounds.
func RevenuePeriodRange(period string, today time.Time) (from *time.Time, to *time.Time, label string, normalized string) {
	switch period {
	case RevenuePeriodMonth:
		start := utils.StartOfMonth(today)
		return &start, &today, today.Format("January 2006"), RevenuePeriodMonth
	case RevenuePeriodYear:
		start := utils.StartOfYear(today)
		return &start, &today, "Tahun " + today.Format("2006"), RevenuePeriodYear
	}
	return nil, nil, "Semua Waktu", RevenuePeriodAll
}

type revenueRow struct {
	Amount       decimal.Decimal
	PaymentCount int64
	InvoiceCount int64
}

// GetTotalRevenue sums confirmed payments received in the period.
func GetTotalRevenue(ctx context.Context, today time.Time, period string) (*RevenueResponse, error) {
	from, to, label, normalized := RevenuePeriodRange(period, today)
	sqlT := `
SELECT
    COALESCE(SUM(amount), 0) AS amount,
    COUNT(id) AS payment_count,
    COUNT(DISTINCT invoice_id) AS invoice_count
FROM
    payments
WHERE
    status = @status
    {{- if .fromDate }} AND payment_date >= @fromDate {{- end }}
    {{- if .toDate }} AND payment_date <= @toDate {{- end }}
`
	params := map[string]interface{}{
		"status":   models.PaymentStatusConfirmed,
		"fromDate": "",
		"toDate":   "",
	}
	if from != nil {
		params["fromDate"] = from.Format(utils.DateLayout)
		params["toDate"] = to.Format(utils.DateLayout)
	}
	sql, err := utils.ExecTemplate(sqlT, params)
	if err != nil {
		return nil, err
	}
	var row revenueRow
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, params).Scan(&row).Error; err != nil {
		return nil, err
	}
	return &RevenueResponse{
		Amount:       row.Amount,
		Formatted:    utils.FormatRupiah(row.Amount),
		PeriodLabel:  label,
		PaymentCount: row.PaymentCount,
		InvoiceCount: row.InvoiceCount,
		Period:       normalized,
	}, nil
}

type UnpaidStats struct {
	Count        int64
	Outstanding  decimal.Decimal
	OverdueCount int64
	PartialCount int64
}

func GetUnpaidStats(ctx context.Context) (*UnpaidStats, error) {
	sql := `
SELECT
    COALESCE(SUM(CASE WHEN payment_type = @tempo AND status IN @openStatuses THEN 1 ELSE 0 END), 0) AS count,
    COALESCE(SUM(CASE WHEN payment_type = @tempo AND status IN @openStatuses THEN remaining_amount ELSE 0 END), 0) AS outstanding,
    COALESCE(SUM(CASE WHEN status = @overdue THEN 1 ELSE 0 END), 0) AS overdue_count,
    COALESCE(SUM(CASE WHEN status = @partial THEN 1 ELSE 0 END), 0) AS partial_count
FROM
    invoices
`
	var stats UnpaidStats
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"tempo":        models.PaymentTypeTempo,
		"openStatuses": models.OpenInvoiceStatuses,
		"overdue":      models.InvoiceStatusOverdue,
		"partial":      models.InvoiceStatusPartial,
	}).Scan(&stats).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

func countActive(ctx context.Context, table string) (int64, error) {
	var count int64
	err := config.GetDB().WithContext(ctx).Table(table).Where("is_active = ?", true).Count(&count).Error
	return count, err
}

type DashboardSummaryResponse struct {
	TotalProducts       int64               `json:"total_products"`
	TotalCustomers      int64               `json:"total_customers"`
	UnpaidInvoices      int64               `json:"unpaid_invoices"`
	TotalOutstanding    string              `json:"total_outstanding"`
	OverdueCount        int64               `json:"overdue_count"`
	PartialCount        int64               `json:"partial_count"`
	TotalRevenue        string              `json:"total_revenue"`
	RevenuePeriod       string              `json:"revenue_period"`
	RevenuePeriodLabel  string              `json:"revenue_period_label"`
	RevenuePaymentCount int64               `json:"revenue_payment_count"`
	RevenueInvoiceCount int64               `json:"revenue_invoice_count"`
	MonthlySales        []SalesDataResponse `json:"monthly_sales"`
}

// EmptyDashboardSummary is served when the summary cannot be computed.
func EmptyDashboardSummary() *DashboardSummaryResponse {
	return &DashboardSummaryResponse{
		TotalOutstanding:   utils.FormatRupiah(decimal.Zero),
		TotalRevenue:       utils.FormatRupiah(decimal.Zero),
		RevenuePeriod:      RevenuePeriodMonth,
		RevenuePeriodLabel: "Bulan Ini",
		MonthlySales:       []SalesDataResponse{},
	}
}

func GetDashboardSummary(ctx context.Context, today time.Time, revenuePeriod string) (*DashboardSummaryResponse, error) {
	totalProducts, err := countActive(ctx, "products")
	if err != nil {
		return nil, err
	}
	totalCustomers, err := countActive(ctx, "customers")
	if err != nil {
		return nil, err
	}
	unpaid, err := GetUnpaidStats(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := GetTotalRevenue(ctx, today, revenuePeriod)
	if err != nil {
		return nil, err
	}
	monthlySales, err := GetSalesData(ctx, today, config.DashboardSalesMonths())
	if err != nil {
		return nil, err
	}
	return &DashboardSummaryResponse{
		TotalProducts:       totalProducts,
		TotalCustomers:      totalCustomers,
		UnpaidInvoices:      unpaid.Count,
		TotalOutstanding:    utils.FormatRupiah(unpaid.Outstanding),
		OverdueCount:        unpaid.OverdueCount,
		PartialCount:        unpaid.PartialCount,
		TotalRevenue:        revenue.Formatted,
		RevenuePeriod:       revenue.Period,
		RevenuePeriodLabel:  revenue.PeriodLabel,
		RevenuePaymentCount: revenue.PaymentCount,
		RevenueInvoiceCount: revenue.InvoiceCount,
		MonthlySales:        monthlySales,
	}, nil
}

type PeriodDashboardResponse struct {
	TotalSales       decimal.Decimal         `json:"total_sales"`
	TotalInvoices    int64                   `json:"total_invoices"`
	TotalCommission  decimal.Decimal         `json:"total_commission"`
	AvgInvoiceValue  decimal.Decimal         `json:"avg_invoice_value"`
	TopProductsByQty []*ProductSalesResponse `json:"top_products_by_qty"`
	Period           string                  `json:"period"`
	DateFrom         string                  `json:"date_from"`
	DateTo           string                  `json:"date_to"`
}

type periodTotals struct {
	TotalSales      decimal.Decimal
	TotalInvoices   int64
	TotalCommission decimal.Decimal
}

// EmptyPeriodDashboard is served when the period dashboard cannot be computed.
func EmptyPeriodDashboard(period string, fromDate, toDate time.Time) *PeriodDashboardResponse {
	return &PeriodDashboardResponse{
		TotalSales:       decimal.Zero,
		TotalCommission:  decimal.Zero,
		AvgInvoiceValue:  decimal.Zero,
		TopProductsByQty: []*ProductSalesResponse{},
		Period:           period,
		DateFrom:         fromDate.Format(utils.DateLayout),
		DateTo:           toDate.Format(utils.DateLayout),
	}
}

func GetPeriodDashboard(ctx context.Context, today time.Time, period string) (*PeriodDashboardResponse, error) {
	fromDate, toDate := ProductSalesRange(period, today, nil, nil)
	sql := `
SELECT
    COALESCE(SUM(total), 0) AS total_sales,
    COUNT(id) AS total_invoices,
    COALESCE(SUM(total_commission), 0) AS total_commission
FROM
    invoices
WHERE
    invoice_date BETWEEN @fromDate AND @toDate
        AND status IN @statuses
`
	var totals periodTotals
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"fromDate": fromDate.Format(utils.DateLayout),
		"toDate":   toDate.Format(utils.DateLayout),
		"statuses": models.SalesInvoiceStatuses,
	}).Scan(&totals).Error; err != nil {
		return nil, err
	}
	top, err := GetProductSalesReport(ctx, fromDate, toDate, DefaultTopN, ProductSalesSortQuantity)
	if err != nil {
		return nil, err
	}
	if top == nil {
		top = []*ProductSalesResponse{}
	}
	avg := decimal.Zero
	if totals.TotalInvoices > 0 {
		avg = totals.TotalSales.Div(decimal.NewFromInt(totals.TotalInvoices)).Round(2)
	}
	return &PeriodDashboardResponse{
		TotalSales:       totals.TotalSales,
		TotalInvoices:    totals.TotalInvoices,
		TotalCommission:  totals.TotalCommission,
		AvgInvoiceValue:  avg,
		TopProductsByQty: top,
		Period:           period,
		DateFrom:         fromDate.Format(utils.DateLayout),
		DateTo:           toDate.Format(utils.DateLayout),
	}, nil
}
