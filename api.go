package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/twhracing/distributor_backend/config"
	"github.com/twhracing/distributor_backend/middlewares"
	"github.com/twhracing/distributor_backend/models"
	"github.com/twhracing/distributor_backend/models/reports"
	"github.com/twhracing/distributor_backend/utils"
	"github.com/twhracing/distributor_backend/workflow"
)

// reportFuncs are the read-side queries behind the dashboard and export endpoints.
type reportFuncs struct {
	salesData        func(ctx context.Context, today time.Time, months int) ([]reports.SalesDataResponse, error)
	summary          func(ctx context.Context, today time.Time, revenuePeriod string) (*reports.DashboardSummaryResponse, error)
	periodDashboard  func(ctx context.Context, today time.Time, period string) (*reports.PeriodDashboardResponse, error)
	productSales     func(ctx context.Context, from, to time.Time, topN int, sortBy reports.ProductSalesSort) ([]*reports.ProductSalesResponse, error)
	commissionDetail func(ctx context.Context, salesPersonId *int, from, to *time.Time) ([]*reports.CommissionDetailResponse, error)
}

func defaultReports() reportFuncs {
	return reportFuncs{
		salesData:        reports.GetSalesData,
		summary:          reports.GetDashboardSummaryCached,
		periodDashboard:  reports.GetPeriodDashboard,
		productSales:     reports.GetProductSalesReport,
		commissionDetail: reports.GetCommissionDetailReport,
	}
}

type api struct {
	engine   func() *workflow.Engine
	reports  reportFuncs
	logger   *logrus.Logger
	now      func() time.Time
	location *time.Location
}

func newAPI(engine func() *workflow.Engine, logger *logrus.Logger) *api {
	return &api{
		engine:   engine,
		reports:  defaultReports(),
		logger:   logger,
		now:      time.Now,
		location: config.BusinessLocation(),
	}
}

func (a *api) today() time.Time {
	return utils.TruncateToDate(a.now(), a.location)
}

func (a *api) registerRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	twh := r.Group("/twh")
	{
		twh.GET("/dashboard/sales_data", a.salesDataHandler)
		twh.POST("/dashboard/sales_data", a.salesDataHandler)
		twh.GET("/dashboard/summary", a.dashboardSummaryHandler)
		twh.POST("/dashboard/summary", a.dashboardSummaryHandler)
		twh.GET("/analytics/products", a.productAnalyticsHandler)
		twh.GET("/analytics/products/export", a.productAnalyticsExportHandler)
		twh.GET("/analytics/dashboard", a.periodDashboardHandler)
	}

	r.POST("/price-tiers", a.createPriceTierHandler)
	r.GET("/price-tiers", a.listPriceTiersHandler)
	r.PUT("/products/:id/prices", a.setProductPriceHandler)
	r.GET("/products/:id/prices", a.productPricesHandler)
	r.POST("/products", a.createProductHandler)
	r.POST("/customers", a.createCustomerHandler)
	r.GET("/customers/:id/stats", a.customerStatsHandler)
	r.POST("/sales-persons", a.createSalesPersonHandler)

	invoices := r.Group("/invoices")
	{
		invoices.POST("", a.createInvoiceHandler)
		invoices.GET("/:id", a.invoiceDetailHandler)
		invoices.POST("/:id/lines", a.addInvoiceLineHandler)
		invoices.PUT("/:id/lines/:lineId", a.updateInvoiceLineHandler)
		invoices.DELETE("/:id/lines/:lineId", a.removeInvoiceLineHandler)
		invoices.PUT("/:id/discount", a.setInvoiceDiscountHandler)
		invoices.POST("/:id/confirm", a.invoiceTransition((*workflow.Engine).ConfirmInvoice))
		invoices.POST("/:id/cancel", a.invoiceTransition((*workflow.Engine).CancelInvoice))
		invoices.POST("/:id/draft", a.invoiceTransition((*workflow.Engine).ResetInvoiceToDraft))
		invoices.POST("/:id/mark-paid", a.invoiceTransition((*workflow.Engine).MarkInvoicePaid))
		invoices.POST("/:id/payments", a.recordPaymentHandler)
	}
	r.POST("/payments/:id/cancel", a.cancelPaymentHandler)

	r.POST("/sales-orders", a.createSalesOrderHandler)
	r.POST("/sales-orders/:id/confirm", a.confirmSalesOrderHandler)
	r.POST("/sales-orders/:id/invoice", a.generateInvoiceHandler)

	commissions := r.Group("/commissions")
	{
		commissions.GET("/summary", a.commissionSummaryHandler)
		commissions.GET("/monthly", a.monthlyCommissionHandler)
		commissions.GET("/export", a.commissionExportHandler)
		commissions.POST("/mark-paid", a.markCommissionsPaidHandler)
		commissions.POST("/confirm", a.confirmCommissionsHandler)
	}

	r.POST("/reminders/:id/dismiss", a.dismissReminderHandler)

	jobs := r.Group("/internal/jobs", middlewares.JobAuthMiddleware(utils.JobRoleScheduler))
	{
		jobs.POST("/reminders/create", a.createRemindersJobHandler)
		jobs.POST("/reminders/send", a.sendRemindersJobHandler)
		jobs.POST("/reminders/cleanup", a.cleanupRemindersJobHandler)
	}
}

// respondError maps workflow errors onto HTTP statuses. Unexpected errors
// are attached to the gin context for the error logger and hidden from the caller.
func respondError(c *gin.Context, err error) {
	switch {
	case models.IsUserError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// bindJSON decodes the body into dest and answers 400 with the flattened
// validator errors when it does not bind.
func bindJSON(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": utils.ProcessValidationErrors(err)})
		return false
	}
	return true
}

func pathId(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func (a *api) queryDate(c *gin.Context, name string) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	t, err := utils.ParseDate(raw, a.location)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + ", expected YYYY-MM-DD"})
		return nil, false
	}
	return &t, true
}

func queryInt(c *gin.Context, name string) (*int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return nil, false
	}
	return &n, true
}
