package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/twhracing/distributor_backend/config"
	"github.com/twhracing/distributor_backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PublishFunc sends one notification and returns the broker message id.
type PublishFunc func(ctx context.Context, msg config.NotificationMessage) (string, error)

// NotificationDispatcher publishes activity rows to Pub/Sub after they commit.
type NotificationDispatcher struct {
	DB           *gorm.DB
	Logger       *logrus.Logger
	Publish      PublishFunc
	DispatcherID string

	BatchSize      int
	PollInterval   time.Duration
	LockTimeout    time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func NewNotificationDispatcher(db *gorm.DB, logger *logrus.Logger) *NotificationDispatcher {
	return &NotificationDispatcher{
		DB:             db,
		Logger:         logger,
		Publish:        config.PublishNotificationWithResult,
		DispatcherID:   uuid.NewString(),
		BatchSize:      50,
		PollInterval:   500 * time.Millisecond,
		LockTimeout:    30 * time.Second,
		MaxAttempts:    20,
		InitialBackoff: 5 * time.Second,
		MaxBackoff:     10 * time.Minute,
	}
}

func (d *NotificationDispatcher) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		d.DispatchOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.PollInterval):
		}
	}
}

// DispatchOnce claims one batch and publishes it. It returns how many rows were published.
func (d *NotificationDispatcher) DispatchOnce(ctx context.Context) int {
	if d.DB == nil || !config.NotificationPublishEnabled() {
		return 0
	}
	now := time.Now().UTC()
	staleBefore := now.Add(-d.LockTimeout)

	var claimed []*models.Activity
	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// PENDING/FAILED rows that are due, plus PROCESSING rows whose claim went stale.
		q := tx.
			Where(`
				(
					publish_status IN ? AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
				)
				OR
				(
					publish_status = ? AND locked_at IS NOT NULL AND locked_at <= ?
				)
			`, []string{models.OutboxPublishStatusPending, models.OutboxPublishStatusFailed}, now, models.OutboxPublishStatusProcessing, staleBefore).
			Order("id ASC").
			Limit(d.BatchSize).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		if err := q.Find(&claimed).Error; err != nil {
			return err
		}
		for _, a := range claimed {
			if d.MaxAttempts > 0 && a.PublishAttempts >= d.MaxAttempts {
				msg := fmt.Sprintf("max publish attempts exceeded (%d)", d.MaxAttempts)
				a.PublishStatus = models.OutboxPublishStatusDead
				if err := tx.Model(&models.Activity{}).Where("id = ?", a.ID).Updates(map[string]interface{}{
					"publish_status":     models.OutboxPublishStatusDead,
					"last_publish_error": &msg,
					"next_attempt_at":    nil,
					"locked_at":          nil,
					"locked_by":          nil,
				}).Error; err != nil {
					return err
				}
				continue
			}

			a.PublishStatus = models.OutboxPublishStatusProcessing
			a.LockedAt = &now
			a.LockedBy = &d.DispatcherID
			a.PublishAttempts++
			if err := tx.Model(&models.Activity{}).Where("id = ?", a.ID).Updates(map[string]interface{}{
				"publish_status":     a.PublishStatus,
				"locked_at":          a.LockedAt,
				"locked_by":          a.LockedBy,
				"publish_attempts":   gorm.Expr("publish_attempts + 1"),
				"last_publish_error": nil,
				"next_attempt_at":    nil,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		config.LogError(d.Logger, "notificationDispatcher.go", "DispatchOnce", "claim", nil, err)
		return 0
	}
	if len(claimed) == 0 {
		return 0
	}

	names := d.invoiceNames(ctx, claimed)
	published := 0
	for _, a := range claimed {
		if a.PublishStatus == models.OutboxPublishStatusDead {
			continue
		}
		pubID, pubErr := d.Publish(ctx, a.ToNotificationMessage(names[a.InvoiceId]))
		if pubErr != nil {
			d.markPublishFailed(ctx, a, pubErr)
			continue
		}
		d.markPublishSent(ctx, a.ID, pubID)
		published++
	}
	return published
}

func (d *NotificationDispatcher) invoiceNames(ctx context.Context, activities []*models.Activity) map[int]string {
	ids := make([]int, 0, len(activities))
	for _, a := range activities {
		ids = append(ids, a.InvoiceId)
	}
	var rows []struct {
		ID   int
		Name string
	}
	names := make(map[int]string, len(ids))
	if err := d.DB.WithContext(ctx).Model(&models.Invoice{}).Select("id, name").Where("id IN ?", uniqueInts(ids)).Scan(&rows).Error; err != nil {
		config.LogError(d.Logger, "notificationDispatcher.go", "invoiceNames", "Scan", ids, err)
		return names
	}
	for _, r := range rows {
		names[r.ID] = r.Name
	}
	return names
}

func (d *NotificationDispatcher) markPublishSent(ctx context.Context, activityId int, pubsubMsgID string) {
	now := time.Now().UTC()
	id := pubsubMsgID
	err := d.DB.WithContext(ctx).Model(&models.Activity{}).
		Where("id = ?", activityId).
		Updates(map[string]interface{}{
			"publish_status":     models.OutboxPublishStatusSent,
			"published_at":       &now,
			"pub_sub_message_id": &id,
			"locked_at":          nil,
			"locked_by":          nil,
			"next_attempt_at":    nil,
		}).Error
	if err != nil {
		config.LogError(d.Logger, "notificationDispatcher.go", "markPublishSent", "Updates", activityId, err)
	}
}

// NextBackoff doubles InitialBackoff per failed attempt, capped at MaxBackoff.
func (d *NotificationDispatcher) NextBackoff(attempt int) time.Duration {
	backoff := d.InitialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
		if backoff > d.MaxBackoff {
			return d.MaxBackoff
		}
	}
	return backoff
}

func (d *NotificationDispatcher) markPublishFailed(ctx context.Context, a *models.Activity, err error) {
	db := d.DB.WithContext(ctx)
	msg := err.Error()
	attempt := a.PublishAttempts

	if d.MaxAttempts > 0 && attempt >= d.MaxAttempts {
		_ = db.Model(&models.Activity{}).
			Where("id = ?", a.ID).
			Updates(map[string]interface{}{
				"publish_status":     models.OutboxPublishStatusDead,
				"last_publish_error": &msg,
				"next_attempt_at":    nil,
				"locked_at":          nil,
				"locked_by":          nil,
			}).Error
		d.Logger.WithFields(logrus.Fields{
			"field":       "NotificationDispatcher",
			"activity_id": a.ID,
			"invoice_id":  a.InvoiceId,
			"attempt":     attempt,
		}).Error("notification publish moved to DEAD after max attempts: " + msg)
		return
	}

	next := time.Now().UTC().Add(d.NextBackoff(attempt))
	_ = db.Model(&models.Activity{}).
		Where("id = ?", a.ID).
		Updates(map[string]interface{}{
			"publish_status":     models.OutboxPublishStatusFailed,
			"last_publish_error": &msg,
			"next_attempt_at":    &next,
			"locked_at":          nil,
			"locked_by":          nil,
		}).Error
	d.Logger.WithFields(logrus.Fields{
		"field":           "NotificationDispatcher",
		"activity_id":     a.ID,
		"invoice_id":      a.InvoiceId,
		"attempt":         attempt,
		"next_attempt_at": next.Format(time.RFC3339Nano),
	}).Error("notification publish failed: " + msg)
}
