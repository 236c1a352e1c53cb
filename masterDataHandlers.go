package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/twhracing/distributor_backend/models"
)

func (a *api) createPriceTierHandler(c *gin.Context) {
	var input models.NewPriceTier
	if !bindJSON(c, &input) {
		return
	}
	tier, err := a.engine().CreatePriceTier(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tier)
}

func (a *api) listPriceTiersHandler(c *gin.Context) {
	tiers, err := a.engine().ListPriceTiers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if tiers == nil {
		tiers = []*models.PriceTier{}
	}
	c.JSON(http.StatusOK, tiers)
}

func (a *api) setProductPriceHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewProductPrice
	if !bindJSON(c, &input) {
		return
	}
	price, err := a.engine().SetProductPrice(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, price)
}

func (a *api) productPricesHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	snapshot, err := a.engine().ProductPrices(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (a *api) createProductHandler(c *gin.Context) {
	var input models.NewProduct
	if !bindJSON(c, &input) {
		return
	}
	product, err := a.engine().CreateProduct(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (a *api) createCustomerHandler(c *gin.Context) {
	var input models.NewCustomer
	if !bindJSON(c, &input) {
		return
	}
	customer, err := a.engine().CreateCustomer(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (a *api) customerStatsHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	stats, err := a.engine().CustomerStats(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (a *api) createSalesPersonHandler(c *gin.Context) {
	var input models.NewSalesPerson
	if !bindJSON(c, &input) {
		return
	}
	salesPerson, err := a.engine().CreateSalesPerson(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, salesPerson)
}
