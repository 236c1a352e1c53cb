package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/twhracing/distributor_backend/utils"
)

type Reminder struct {
	ID            int            `gorm:"primary_key" json:"id"`
	InvoiceId     int            `gorm:"not null;uniqueIndex:idx_reminder_invoice_type_date" json:"invoice_id"`
	InvoiceName   string         `gorm:"size:50" json:"invoice_name"`
	ReminderDate  time.Time      `gorm:"type:date;not null;index;uniqueIndex:idx_reminder_invoice_type_date" json:"reminder_date"`
	ReminderType  ReminderType   `gorm:"size:20;not null;uniqueIndex:idx_reminder_invoice_type_date" json:"reminder_type"`
	DaysBeforeDue int            `gorm:"not null;default:0" json:"days_before_due"`
	Status        ReminderStatus `gorm:"size:20;index;not null;default:pending" json:"status"`
	Message       string         `gorm:"type:text" json:"message"`
	SentAt        *time.Time     `json:"sent_at"`
	SentBy        string         `gorm:"size:100" json:"sent_by"`
	Notes         string         `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// ReminderPlan is one reminder the sweep should make sure exists.
type ReminderPlan struct {
	Type          ReminderType
	Date          time.Time
	DaysBeforeDue int
}

// PlanReminders lists the reminders due for an invoice on `today`, and
// whether the invoice must be forced to overdue. Only open tempo invoices
// with a due date produce anything.
func PlanReminders(inv *Invoice, today time.Time, dailyWindowDays int) ([]ReminderPlan, bool) {
	if !inv.IsTempo() || !inv.Status.IsOpen() || inv.DueDate == nil {
		return nil, false
	}
	days := utils.DaysBetween(today, *inv.DueDate)
	if days < 0 {
		return []ReminderPlan{{Type: ReminderTypeOverdue, Date: today, DaysBeforeDue: days}}, inv.Status != InvoiceStatusOverdue
	}
	if days > dailyWindowDays {
		return nil, false
	}
	plans := []ReminderPlan{{Type: ReminderTypeDaily, Date: today, DaysBeforeDue: days}}
	if milestone, ok := milestoneReminderTypes[days]; ok {
		plans = append(plans, ReminderPlan{Type: milestone, Date: today, DaysBeforeDue: days})
	}
	return plans, false
}

func (p ReminderPlan) ToReminder(inv *Invoice) *Reminder {
	return &Reminder{
		InvoiceId:     inv.ID,
		InvoiceName:   inv.Name,
		ReminderDate:  p.Date,
		ReminderType:  p.Type,
		DaysBeforeDue: p.DaysBeforeDue,
		Status:        ReminderStatusPending,
	}
}

const dueDateLayout = "02 January 2006"

// RenderReminderMessage builds the notification body for a reminder.
func RenderReminderMessage(r *Reminder, inv *Invoice, customerName string, today time.Time) string {
	var headline string
	switch r.ReminderType {
	case ReminderTypeDaily:
		days := r.DaysBeforeDue
		if days < 0 {
			days = 0
		}
		headline = fmt.Sprintf("PENGINGAT HARIAN: Invoice %s akan jatuh tempo dalam %d hari.", inv.Name, days)
	case ReminderType7Days:
		headline = fmt.Sprintf("PENGINGAT: Invoice %s akan jatuh tempo dalam 7 hari!", inv.Name)
	case ReminderType3Days:
		headline = fmt.Sprintf("PERINGATAN: Invoice %s akan jatuh tempo dalam 3 hari!", inv.Name)
	case ReminderTypeDueDate:
		headline = fmt.Sprintf("JATUH TEMPO HARI INI: Invoice %s", inv.Name)
	case ReminderTypeOverdue:
		overdueDays := 0
		if inv.DueDate != nil {
			overdueDays = utils.DaysBetween(*inv.DueDate, today)
		}
		headline = fmt.Sprintf("TERLAMBAT %d HARI: Invoice %s", overdueDays, inv.Name)
	default:
		return ""
	}

	dueDate := ""
	if inv.DueDate != nil {
		dueDate = inv.DueDate.Format(dueDateLayout)
	}

	var b strings.Builder
	b.WriteString(headline)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Customer: %s\n", customerName)
	fmt.Fprintf(&b, "Tanggal Jatuh Tempo: %s\n", dueDate)
	if inv.PaidAmount.IsPositive() {
		fmt.Fprintf(&b, "Sudah Dibayar: %s (%s%%)\n", utils.FormatRupiah(inv.PaidAmount), inv.PaymentProgress.StringFixed(1))
		fmt.Fprintf(&b, "Sisa: %s", utils.FormatRupiah(inv.RemainingAmount))
	} else {
		fmt.Fprintf(&b, "Total: %s\n", utils.FormatRupiah(inv.Total))
		b.WriteString("Belum ada pembayaran")
	}
	if r.ReminderType == ReminderTypeOverdue {
		b.WriteString("\n\nSEGERA LAKUKAN PENAGIHAN!")
	}
	return b.String()
}

func (r *Reminder) TodoSummary() string {
	return fmt.Sprintf("Reminder: Invoice %s - %s", r.InvoiceName, r.ReminderType)
}

func (r *Reminder) Subject() string {
	return fmt.Sprintf("Reminder Pembayaran: %s", r.ReminderType)
}
