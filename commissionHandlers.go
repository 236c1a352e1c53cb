package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/twhracing/distributor_backend/models"
	"github.com/twhracing/distributor_backend/models/reports"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type commissionIdsRequest struct {
	Ids  []int  `json:"ids" binding:"required,min=1"`
	Note string `json:"note"`
}

func (a *api) commissionFilter(c *gin.Context) (models.CommissionFilter, bool) {
	var filter models.CommissionFilter
	spId, ok := queryInt(c, "sales_person_id")
	if !ok {
		return filter, false
	}
	from, ok := a.queryDate(c, "date_from")
	if !ok {
		return filter, false
	}
	to, ok := a.queryDate(c, "date_to")
	if !ok {
		return filter, false
	}
	filter.SalesPersonId, filter.FromDate, filter.ToDate = spId, from, to
	for _, s := range c.QueryArray("status") {
		if s = strings.TrimSpace(s); s != "" {
			filter.Statuses = append(filter.Statuses, models.CommissionStatus(s))
		}
	}
	return filter, true
}

func (a *api) commissionSummaryHandler(c *gin.Context) {
	filter, ok := a.commissionFilter(c)
	if !ok {
		return
	}
	summary, err := a.engine().CommissionSummary(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// monthlyCommissionHandler defaults to the current month.
func (a *api) monthlyCommissionHandler(c *gin.Context) {
	spId, ok := queryInt(c, "sales_person_id")
	if !ok {
		return
	}
	if spId == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sales_person_id is required"})
		return
	}
	today := a.today()
	year, month := today.Year(), int(today.Month())
	if v, ok := queryInt(c, "year"); !ok {
		return
	} else if v != nil {
		year = *v
	}
	if v, ok := queryInt(c, "month"); !ok {
		return
	} else if v != nil {
		month = *v
	}
	summary, err := a.engine().MonthlyCommission(c.Request.Context(), *spId, year, time.Month(month))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (a *api) commissionExportHandler(c *gin.Context) {
	filter, ok := a.commissionFilter(c)
	if !ok {
		return
	}
	rows, err := a.reports.commissionDetail(c.Request.Context(), filter.SalesPersonId, filter.FromDate, filter.ToDate)
	if err != nil {
		respondError(c, err)
		return
	}
	f, err := reports.CommissionWorkbook(rows)
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("commissions_%s.xlsx", a.today().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		_ = c.Error(err)
	}
}

func (a *api) markCommissionsPaidHandler(c *gin.Context) {
	var input commissionIdsRequest
	if !bindJSON(c, &input) {
		return
	}
	commissions, err := a.engine().MarkCommissionsPaid(c.Request.Context(), input.Ids, input.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, commissions)
}

func (a *api) confirmCommissionsHandler(c *gin.Context) {
	var input commissionIdsRequest
	if !bindJSON(c, &input) {
		return
	}
	commissions, err := a.engine().ConfirmCommissions(c.Request.Context(), input.Ids)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, commissions)
}
