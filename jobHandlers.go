package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/twhracing/distributor_backend/utils"
)

// sweepDate reads the optional ?date= override used for back-dated runs.
func (a *api) sweepDate(c *gin.Context) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query("date"))
	if raw == "" {
		return a.today(), true
	}
	date, err := utils.ParseDate(raw, a.location)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return time.Time{}, false
	}
	return date, true
}

func (a *api) createRemindersJobHandler(c *gin.Context) {
	date, ok := a.sweepDate(c)
	if !ok {
		return
	}
	res, err := a.engine().CreateDueReminders(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a *api) sendRemindersJobHandler(c *gin.Context) {
	date, ok := a.sweepDate(c)
	if !ok {
		return
	}
	res, err := a.engine().SendDueReminders(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a *api) cleanupRemindersJobHandler(c *gin.Context) {
	res, err := a.engine().CleanupPaidReminders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
