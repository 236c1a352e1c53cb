package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/twhracing/distributor_backend/middlewares"
	"github.com/twhracing/distributor_backend/models"
	"github.com/twhracing/distributor_backend/workflow"
)

type invoiceLineView struct {
	*models.InvoiceLine
	ProductName string `json:"product_name"`
}

// invoiceView is the invoice detail with customer, salesperson and product
// names resolved through the request dataloaders.
type invoiceView struct {
	*workflow.InvoiceDetail
	CustomerName    string             `json:"customer_name"`
	SalesPersonName string             `json:"sales_person_name,omitempty"`
	Lines           []*invoiceLineView `json:"lines"`
}

func buildInvoiceView(ctx context.Context, detail *workflow.InvoiceDetail) (*invoiceView, error) {
	view := &invoiceView{InvoiceDetail: detail, Lines: make([]*invoiceLineView, 0, len(detail.Lines))}

	customer, err := middlewares.GetCustomer(ctx, detail.CustomerId)
	if err != nil {
		return nil, err
	}
	if customer != nil {
		view.CustomerName = customer.Name
	}
	if detail.SalesPersonId != nil {
		salesPerson, err := middlewares.GetSalesPerson(ctx, *detail.SalesPersonId)
		if err != nil {
			return nil, err
		}
		if salesPerson != nil {
			view.SalesPersonName = salesPerson.Name
		}
	}

	productIds := make([]int, 0, len(detail.Lines))
	for _, line := range detail.Lines {
		productIds = append(productIds, line.ProductId)
	}
	products, errs := middlewares.GetProducts(ctx, productIds)
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	for i, line := range detail.Lines {
		lv := &invoiceLineView{InvoiceLine: line}
		if i < len(products) && products[i] != nil {
			lv.ProductName = products[i].DisplayName()
		}
		view.Lines = append(view.Lines, lv)
	}
	return view, nil
}

func (a *api) createInvoiceHandler(c *gin.Context) {
	var input models.NewInvoice
	if !bindJSON(c, &input) {
		return
	}
	inv, err := a.engine().CreateInvoice(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

func (a *api) invoiceDetailHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	detail, err := a.engine().GetInvoiceDetail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	view, err := buildInvoiceView(c.Request.Context(), detail)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (a *api) addInvoiceLineHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewInvoiceLine
	if !bindJSON(c, &input) {
		return
	}
	inv, err := a.engine().AddInvoiceLine(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (a *api) updateInvoiceLineHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	lineId, ok := pathId(c, "lineId")
	if !ok {
		return
	}
	var change models.InvoiceLineChange
	if !bindJSON(c, &change) {
		return
	}
	inv, err := a.engine().UpdateInvoiceLine(c.Request.Context(), id, lineId, change)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (a *api) removeInvoiceLineHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	lineId, ok := pathId(c, "lineId")
	if !ok {
		return
	}
	inv, err := a.engine().RemoveInvoiceLine(c.Request.Context(), id, lineId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

type discountRequest struct {
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

func (a *api) setInvoiceDiscountHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input discountRequest
	if !bindJSON(c, &input) {
		return
	}
	inv, err := a.engine().SetInvoiceDiscount(c.Request.Context(), id, input.DiscountPercent)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

// invoiceTransition serves the body-less lifecycle endpoints.
func (a *api) invoiceTransition(op func(*workflow.Engine, context.Context, int) (*models.Invoice, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		inv, err := op(a.engine(), c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, inv)
	}
}

func (a *api) recordPaymentHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewPayment
	if !bindJSON(c, &input) {
		return
	}
	payment, err := a.engine().RecordPayment(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func (a *api) cancelPaymentHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	payment, err := a.engine().CancelPayment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (a *api) createSalesOrderHandler(c *gin.Context) {
	var input models.NewSalesOrder
	if !bindJSON(c, &input) {
		return
	}
	so, err := a.engine().CreateSalesOrder(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, so)
}

func (a *api) confirmSalesOrderHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	so, err := a.engine().ConfirmSalesOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, so)
}

func (a *api) generateInvoiceHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	inv, err := a.engine().GenerateInvoiceFromSalesOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

func (a *api) dismissReminderHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	reminder, err := a.engine().DismissReminder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reminder)
}
