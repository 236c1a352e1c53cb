package reports

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/twhracing/distributor_backend/config"
	"github.com/twhracing/distributor_backend/utils"
)

func reportCacheTTL() time.Duration {
	// Env: REPORT_CACHE_TTL_SECONDS (default 60s)
	ttl := 60
	if v := strings.TrimSpace(os.Getenv("REPORT_CACHE_TTL_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttl = n
		}
	}
	return time.Duration(ttl) * time.Second
}

func reportSlowMs() int64 {
	// Env: REPORT_SLOW_MS (default 500ms)
	ms := int64(500)
	if v := strings.TrimSpace(os.Getenv("REPORT_SLOW_MS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			ms = n
		}
	}
	return ms
}

func logSlowReport(ctx context.Context, name string, started time.Time, extra map[string]any) {
	d := time.Since(started)
	if d.Milliseconds() < reportSlowMs() {
		return
	}
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	config.GetLogger().WithFields(logrus.Fields{
		"report":         name,
		"ms":             d.Milliseconds(),
		"correlation_id": cid,
		"extra":          extra,
	}).Warn("slow_report")
}

func cacheGet[T any](key string, dest *T) (bool, error) {
	return config.GetRedisObject(key, dest)
}

func cacheSet(key string, obj any, ttl time.Duration) error {
	return config.SetRedisObject(key, obj, ttl)
}

func DashboardSummaryCacheKey(period string) string {
	return "dashboard:summary:" + period
}

// GetDashboardSummaryCached serves the summary from Redis when present.
// Cache failures fall through to the database.
func GetDashboardSummaryCached(ctx context.Context, today time.Time, revenuePeriod string) (*DashboardSummaryResponse, error) {
	started := time.Now()
	key := DashboardSummaryCacheKey(revenuePeriod)

	var cached DashboardSummaryResponse
	if ok, err := cacheGet(key, &cached); err == nil && ok {
		return &cached, nil
	}

	summary, err := GetDashboardSummary(ctx, today, revenuePeriod)
	if err != nil {
		return nil, err
	}
	_ = cacheSet(key, summary, reportCacheTTL())
	logSlowReport(ctx, "dashboard_summary", started, map[string]any{"revenue_period": revenuePeriod})
	return summary, nil
}
