package config

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestDatabaseSettingsDSN(t *testing.T) {
	jakarta := time.FixedZone("Asia/Jakarta", 7*3600)
	tests := []struct {
		name     string
		settings DatabaseSettings
		want     []string
	}{
		{
			name:     "tcp",
			settings: DatabaseSettings{User: "twh", Password: "secret", Host: "10.0.0.5", Port: "3306", Name: "racing", Location: jakarta},
			want:     []string{"twh:secret@tcp(10.0.0.5:3306)/racing", "parseTime=true", "multiStatements=true", "loc=Asia%2FJakarta", "transaction_isolation="},
		},
		{
			name:     "cloud sql socket",
			settings: DatabaseSettings{User: "twh", Host: "/cloudsql/proj:asia:db", Name: "racing"},
			want:     []string{"twh@unix(/cloudsql/proj:asia:db)/racing", "parseTime=true"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn := tt.settings.DSN()
			for _, w := range tt.want {
				if !strings.Contains(dsn, w) {
					t.Fatalf("DSN %q missing %q", dsn, w)
				}
			}
		})
	}
}

func TestLoadDatabaseSettingsPoolDefaults(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "")
	t.Setenv("DB_MAX_IDLE_CONNS", "not-a-number")
	t.Setenv("DB_CONN_MAX_LIFETIME_SECONDS", "60")
	s := LoadDatabaseSettings()
	if s.MaxOpen != 25 || s.MaxIdle != 10 || s.MaxLifetime != time.Minute {
		t.Fatalf("pool = %d/%d/%s", s.MaxOpen, s.MaxIdle, s.MaxLifetime)
	}
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{12, 30 * time.Second},
	}
	for _, tt := range tests {
		if got := retryDelay(tt.attempt); got != tt.want {
			t.Fatalf("retryDelay(%d) = %s, want %s", tt.attempt, got, tt.want)
		}
	}
}

func TestRedisOptions(t *testing.T) {
	t.Setenv("REDIS_ADDRESS", "")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("REDIS_POOL_SIZE", "")
	opts := redisOptions()
	if opts.Addr != "localhost:6379" || opts.DB != 2 || opts.PoolSize != 50 {
		t.Fatalf("options = %+v", opts)
	}
}

func TestRedisHelpersWithoutClient(t *testing.T) {
	var dest map[string]int
	found, err := GetRedisObject("missing", &dest)
	if err != nil || found {
		t.Fatalf("GetRedisObject = %v, %v", found, err)
	}
	if err := SetRedisObject("k", 1, time.Second); err != nil {
		t.Fatalf("SetRedisObject: %v", err)
	}
}

func TestFeatureFlagDefaults(t *testing.T) {
	t.Setenv("DEFAULT_PAYMENT_TERM_DAYS", "")
	t.Setenv("REMINDER_DAILY_WINDOW_DAYS", "")
	t.Setenv("DASHBOARD_SALES_MONTHS", "-1")
	t.Setenv("PHONE_REGION", "my")
	t.Setenv("BUSINESS_TIMEZONE", "Nowhere/Invalid")

	if got := DefaultPaymentTermDays(); got != 60 {
		t.Fatalf("DefaultPaymentTermDays = %d", got)
	}
	if got := ReminderDailyWindowDays(); got != 14 {
		t.Fatalf("ReminderDailyWindowDays = %d", got)
	}
	if got := DashboardSalesMonths(); got != 6 {
		t.Fatalf("DashboardSalesMonths = %d", got)
	}
	if got := PhoneRegion(); got != "MY" {
		t.Fatalf("PhoneRegion = %q", got)
	}
	if got := BusinessLocation(); got != time.Local {
		t.Fatalf("BusinessLocation = %s", got)
	}
}

func TestNotificationPublishEnabled(t *testing.T) {
	for raw, want := range map[string]bool{"": true, "yes": true, "TRUE": true, "0": false, "off": false} {
		t.Setenv("NOTIFICATION_PUBLISH_ENABLED", raw)
		if got := NotificationPublishEnabled(); got != want {
			t.Fatalf("NotificationPublishEnabled(%q) = %v", raw, got)
		}
	}
}

func TestLogLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	if got := logLevelFromEnv(); got != logrus.DebugLevel {
		t.Fatalf("level = %s", got)
	}
	t.Setenv("LOG_LEVEL", "loud")
	if got := logLevelFromEnv(); got != logrus.InfoLevel {
		t.Fatalf("level = %s", got)
	}
}

func TestLogErrorFields(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	LogError(logger, "workflow", "ConfirmInvoice", "invoice 7", nil, errors.New("boom"))
	out := buf.String()
	for _, w := range []string{`"module":"workflow"`, `"funcName":"ConfirmInvoice"`, `"msg":"boom"`} {
		if !strings.Contains(out, w) {
			t.Fatalf("log %q missing %s", out, w)
		}
	}

	buf.Reset()
	LogError(logger, "workflow", "ConfirmInvoice", "", nil, nil)
	if buf.Len() != 0 {
		t.Fatalf("nil error logged: %q", buf.String())
	}
}
