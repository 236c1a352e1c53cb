package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/twhracing/distributor_backend/models"
	"github.com/twhracing/distributor_backend/utils"
)

// regenerateCommissions replaces the invoice's commissions with ones built
// from its current lines and the cost tier.
func (e *Engine) regenerateCommissions(ctx context.Context, tx models.Store, inv *models.Invoice) error {
	if err := tx.Commissions().DeleteByInvoice(ctx, inv.ID); err != nil {
		return err
	}
	ids := make([]int, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		ids = append(ids, l.ProductId)
	}
	pricing, err := tx.Pricing().PricesForProducts(ctx, ids)
	if err != nil {
		return err
	}
	commissions := models.BuildCommissions(inv, pricing)
	if err := tx.Commissions().CreateMany(ctx, commissions); err != nil {
		return err
	}
	inv.TotalCommission = models.SumCommissions(commissions)
	return nil
}

// ConfirmCommissions moves draft commissions to confirmed. Others are left alone.
func (e *Engine) ConfirmCommissions(ctx context.Context, ids []int) ([]*models.Commission, error) {
	return e.updateCommissions(ctx, ids, func(c *models.Commission) bool {
		if c.Status != models.CommissionStatusDraft {
			return false
		}
		c.Status = models.CommissionStatusConfirmed
		return true
	})
}

// MarkCommissionsPaid records the payout of the given commissions as of today.
func (e *Engine) MarkCommissionsPaid(ctx context.Context, ids []int, note string) ([]*models.Commission, error) {
	today := e.Today()
	note = strings.TrimSpace(note)
	return e.updateCommissions(ctx, ids, func(c *models.Commission) bool {
		if c.Status == models.CommissionStatusPaid {
			return false
		}
		c.Status = models.CommissionStatusPaid
		c.PaymentDate = &today
		c.PaymentNotes = note
		return true
	})
}

func (e *Engine) updateCommissions(ctx context.Context, ids []int, apply func(c *models.Commission) bool) ([]*models.Commission, error) {
	if len(ids) == 0 {
		return nil, models.NewValidationError("no commissions selected")
	}
	var result []*models.Commission
	err := e.store.WithinTransaction(ctx, func(tx models.Store) error {
		commissions, err := tx.Commissions().ListByIds(ctx, ids)
		if err != nil {
			return err
		}
		if len(commissions) != len(uniqueInts(ids)) {
			return utils.ErrorRecordNotFound
		}
		for _, c := range commissions {
			if !apply(c) {
				continue
			}
			if err := tx.Commissions().Update(ctx, c); err != nil {
				return err
			}
		}
		result = commissions
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CommissionSummary totals confirmed and paid commissions matching the filter.
func (e *Engine) CommissionSummary(ctx context.Context, filter models.CommissionFilter) (*models.CommissionSummary, error) {
	if len(filter.Statuses) == 0 {
		filter.Statuses = []models.CommissionStatus{models.CommissionStatusConfirmed, models.CommissionStatusPaid}
	}
	commissions, err := e.store.Commissions().Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	return models.SummarizeCommissions(filter, commissions), nil
}

// MonthlyCommission is the summary for one salesperson over a calendar month.
func (e *Engine) MonthlyCommission(ctx context.Context, salesPersonId int, year int, month time.Month) (*models.CommissionSummary, error) {
	if month < time.January || month > time.December {
		return nil, models.NewValidationError("invalid month %d", month)
	}
	from := time.Date(year, month, 1, 0, 0, 0, 0, e.location)
	to := utils.EndOfMonth(from)
	return e.CommissionSummary(ctx, models.CommissionFilter{
		SalesPersonId: &salesPersonId,
		FromDate:      &from,
		ToDate:        &to,
	})
}

func uniqueInts(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
