package models

import (
	"time"

	"github.com/twhracing/distributor_backend/config"
)

// Outbox publish statuses for Activity.PublishStatus.
const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)

// Activity is an entry in an invoice's activity feed. Each row doubles as an
// outbox record that the notification dispatcher publishes after commit.
type Activity struct {
	ID            int          `gorm:"primary_key;index:idx_activity_dispatch,priority:3" json:"id"`
	InvoiceId     int          `gorm:"index;not null" json:"invoice_id"`
	Kind          ActivityKind `gorm:"size:10;not null;default:message" json:"kind"`
	Subject       string       `gorm:"size:255" json:"subject"`
	Body          string       `gorm:"type:text" json:"body"`
	AssigneeId    *int         `gorm:"index" json:"assignee_id"`
	DeadlineDate  *time.Time   `gorm:"type:date" json:"deadline_date"`
	Author        string       `gorm:"size:100" json:"author"`
	CorrelationId string       `gorm:"size:64;index" json:"correlation_id"`
	// publish metadata
	PublishStatus    string     `gorm:"size:20;index;not null;default:'PENDING';index:idx_activity_dispatch,priority:1" json:"publish_status"` // PENDING|PROCESSING|SENT|FAILED|DEAD
	PublishedAt      *time.Time `json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `gorm:"index;index:idx_activity_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time `json:"locked_at"`
	LockedBy         *string    `gorm:"size:100" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func NewMessageActivity(inv *Invoice, subject, body, author string) *Activity {
	return &Activity{
		InvoiceId:     inv.ID,
		Kind:          ActivityKindMessage,
		Subject:       subject,
		Body:          body,
		Author:        author,
		PublishStatus: OutboxPublishStatusPending,
	}
}

func NewTodoActivity(inv *Invoice, summary, note string, assigneeId *int, deadline time.Time, author string) *Activity {
	return &Activity{
		InvoiceId:     inv.ID,
		Kind:          ActivityKindTodo,
		Subject:       summary,
		Body:          note,
		AssigneeId:    assigneeId,
		DeadlineDate:  &deadline,
		Author:        author,
		PublishStatus: OutboxPublishStatusPending,
	}
}

// ToNotificationMessage is the Pub/Sub payload for this activity.
func (a *Activity) ToNotificationMessage(invoiceName string) config.NotificationMessage {
	return config.NotificationMessage{
		ActivityId:    a.ID,
		InvoiceId:     a.InvoiceId,
		InvoiceName:   invoiceName,
		Kind:          string(a.Kind),
		Subject:       a.Subject,
		Body:          a.Body,
		AssigneeId:    a.AssigneeId,
		DeadlineDate:  a.DeadlineDate,
		CreatedAt:     a.CreatedAt,
		CorrelationId: a.CorrelationId,
	}
}
