package config

import (
	"os"
	"strings"
	"time"
)

// DefaultPaymentTermDays is the term applied to new tempo invoices.
//
// Set via env:
// - DEFAULT_PAYMENT_TERM_DAYS=60
func DefaultPaymentTermDays() int {
	return intFromEnv("DEFAULT_PAYMENT_TERM_DAYS", 60)
}

// ReminderDailyWindowDays is how many days before the due date daily reminders start.
//
// Set via env:
// - REMINDER_DAILY_WINDOW_DAYS=14
func ReminderDailyWindowDays() int {
	return intFromEnv("REMINDER_DAILY_WINDOW_DAYS", 14)
}

// DashboardSalesMonths is the length of the monthly sales series.
func DashboardSalesMonths() int {
	n := intFromEnv("DASHBOARD_SALES_MONTHS", 6)
	if n <= 0 {
		return 6
	}
	return n
}

// NotificationPublishEnabled turns the activity -> Pub/Sub dispatcher on or off.
//
// Set via env:
// - NOTIFICATION_PUBLISH_ENABLED=false
func NotificationPublishEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("NOTIFICATION_PUBLISH_ENABLED")))
	if v == "" {
		return true
	}
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// PhoneRegion is the default libphonenumber region for customer phones.
func PhoneRegion() string {
	if v := strings.TrimSpace(os.Getenv("PHONE_REGION")); v != "" {
		return strings.ToUpper(v)
	}
	return "ID"
}

// BusinessLocation is the timezone "today" is evaluated in for sweeps and dashboards.
func BusinessLocation() *time.Location {
	name := strings.TrimSpace(os.Getenv("BUSINESS_TIMEZONE"))
	if name == "" {
		name = "Asia/Jakarta"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}
