package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/twhracing/distributor_backend/config"
	"github.com/twhracing/distributor_backend/models/reports"
	"github.com/twhracing/distributor_backend/utils"
)

// The dashboard endpoints never fail: a query error is logged and the
// empty payload is served instead.

func (a *api) logDashboardError(c *gin.Context, funcName string, data any, err error) {
	config.LogError(a.logger, "dashboardHandlers.go", funcName, "serving empty dashboard payload", data, err)
}

func (a *api) salesDataHandler(c *gin.Context) {
	months := config.DashboardSalesMonths()
	series, err := a.reports.salesData(c.Request.Context(), a.today(), months)
	if err != nil {
		a.logDashboardError(c, "salesDataHandler", logrus.Fields{"months": months}, err)
		series = nil
	}
	if series == nil {
		series = []reports.SalesDataResponse{}
	}
	c.JSON(http.StatusOK, series)
}

// dashboardSummaryHandler accepts revenue_period from the query string or a JSON body.
func (a *api) dashboardSummaryHandler(c *gin.Context) {
	period := strings.TrimSpace(c.Query("revenue_period"))
	if period == "" && c.Request.Method == http.MethodPost && c.Request.ContentLength != 0 {
		var body struct {
			RevenuePeriod string `json:"revenue_period"`
		}
		if err := c.ShouldBindJSON(&body); err == nil {
			period = strings.TrimSpace(body.RevenuePeriod)
		}
	}
	if period == "" {
		period = reports.RevenuePeriodMonth
	}

	summary, err := a.reports.summary(c.Request.Context(), a.today(), period)
	if err != nil || summary == nil {
		if err != nil {
			a.logDashboardError(c, "dashboardSummaryHandler", logrus.Fields{"revenue_period": period}, err)
		}
		summary = reports.EmptyDashboardSummary()
	}
	c.JSON(http.StatusOK, summary)
}

func (a *api) periodDashboardHandler(c *gin.Context) {
	period := strings.TrimSpace(c.DefaultQuery("period", reports.PeriodThisMonth))
	today := a.today()
	dashboard, err := a.reports.periodDashboard(c.Request.Context(), today, period)
	if err != nil || dashboard == nil {
		if err != nil {
			a.logDashboardError(c, "periodDashboardHandler", logrus.Fields{"period": period}, err)
		}
		from, to := reports.ProductSalesRange(period, today, nil, nil)
		dashboard = reports.EmptyPeriodDashboard(period, from, to)
	}
	c.JSON(http.StatusOK, dashboard)
}

type productAnalyticsQuery struct {
	period string
	topN   int
	sortBy reports.ProductSalesSort
}

func (a *api) parseProductAnalytics(c *gin.Context) (productAnalyticsQuery, bool) {
	q := productAnalyticsQuery{
		period: strings.TrimSpace(c.Query("period")),
		topN:   reports.DefaultTopN,
		sortBy: reports.ProductSalesSortQuantity,
	}
	if raw := strings.TrimSpace(c.Query("top_n")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid top_n"})
			return q, false
		}
		q.topN = n
	}
	switch reports.ProductSalesSort(strings.TrimSpace(c.Query("sort_by"))) {
	case "", reports.ProductSalesSortQuantity:
	case reports.ProductSalesSortValue:
		q.sortBy = reports.ProductSalesSortValue
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "sort_by must be quantity or value"})
		return q, false
	}
	return q, true
}

func (a *api) productAnalyticsRows(c *gin.Context) ([]*reports.ProductSalesResponse, string, string, bool) {
	q, ok := a.parseProductAnalytics(c)
	if !ok {
		return nil, "", "", false
	}
	from, ok := a.queryDate(c, "date_from")
	if !ok {
		return nil, "", "", false
	}
	to, ok := a.queryDate(c, "date_to")
	if !ok {
		return nil, "", "", false
	}
	fromDate, toDate := reports.ProductSalesRange(q.period, a.today(), from, to)
	rows, err := a.reports.productSales(c.Request.Context(), fromDate, toDate, q.topN, q.sortBy)
	if err != nil {
		respondError(c, err)
		return nil, "", "", false
	}
	if rows == nil {
		rows = []*reports.ProductSalesResponse{}
	}
	return rows, fromDate.Format(utils.DateLayout), toDate.Format(utils.DateLayout), true
}

func (a *api) productAnalyticsHandler(c *gin.Context) {
	rows, from, to, ok := a.productAnalyticsRows(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date_from": from,
		"date_to":   to,
		"products":  rows,
	})
}

func (a *api) productAnalyticsExportHandler(c *gin.Context) {
	rows, from, to, ok := a.productAnalyticsRows(c)
	if !ok {
		return
	}
	fromDate, _ := utils.ParseDate(from, a.location)
	toDate, _ := utils.ParseDate(to, a.location)
	f, err := reports.ProductSalesWorkbook(rows, fromDate, toDate)
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("product_sales_%s_%s.xlsx", fromDate.Format("20060102"), toDate.Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		_ = c.Error(err)
	}
}
