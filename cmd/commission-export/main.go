// commission-export writes the confirmed and paid commission lines for a
// period to an .xlsx workbook. It writes a local file, or uploads to
// GCS_BUCKET and prints a signed download URL when -upload is set.
//
// Usage:
//
//	go run ./cmd/commission-export -from 2024-06-01 -to 2024-06-30 [-sales-person-id 3] [-out commissions.xlsx]
//	go run ./cmd/commission-export -month 2024-06 -upload
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/twhracing/distributor_backend/config"
	"github.com/twhracing/distributor_backend/models/reports"
	"github.com/twhracing/distributor_backend/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func main() {
	from := flag.String("from", "", "Optional: start date (YYYY-MM-DD)")
	to := flag.String("to", "", "Optional: end date (YYYY-MM-DD)")
	month := flag.String("month", "", "Optional: calendar month (YYYY-MM); overrides -from/-to")
	salesPersonID := flag.Int("sales-person-id", 0, "Optional: only this salesperson")
	out := flag.String("out", "", "Output file. Defaults to commissions_<from>_<to>.xlsx")
	upload := flag.Bool("upload", false, "upload to GCS_BUCKET instead of writing a local file")
	urlTTL := flag.Duration("url-ttl", 24*time.Hour, "lifetime of the signed download URL")
	flag.Parse()

	loc := config.BusinessLocation()
	fromDate, toDate, err := exportRange(*from, *to, *month, loc)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	var spID *int
	if *salesPersonID > 0 {
		spID = salesPersonID
	}

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	ctx := context.Background()
	rows, err := reports.GetCommissionDetailReport(ctx, spID, fromDate, toDate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to query commissions: %v\n", err)
		os.Exit(1)
	}
	f, err := reports.CommissionWorkbook(rows)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build workbook: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	name := strings.TrimSpace(*out)
	if name == "" {
		name = exportName(fromDate, toDate)
	}

	if !*upload {
		if err := f.SaveAs(name); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", name, err)
			os.Exit(1)
		}
		fmt.Printf("wrote %d commission lines to %s\n", len(rows), name)
		return
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		fmt.Fprintf(os.Stderr, "failed to render workbook: %v\n", err)
		os.Exit(1)
	}
	objectName := "exports/commissions/" + name
	if err := utils.UploadToGCS(ctx, objectName, buf.Bytes(), xlsxContentType); err != nil {
		fmt.Fprintf(os.Stderr, "failed to upload: %v\n", err)
		os.Exit(1)
	}
	url, err := utils.SignedDownloadURL(ctx, objectName, *urlTTL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "uploaded %s but could not sign a download URL: %v\n", objectName, err)
		os.Exit(1)
	}
	fmt.Printf("uploaded %d commission lines to %s\n%s\n", len(rows), objectName, url)
}

func exportRange(from, to, month string, loc *time.Location) (*time.Time, *time.Time, error) {
	if month = strings.TrimSpace(month); month != "" {
		start, err := time.ParseInLocation("2006-01", month, loc)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid -month %q: expected YYYY-MM", month)
		}
		end := utils.EndOfMonth(start)
		return &start, &end, nil
	}
	var fromDate, toDate *time.Time
	if strings.TrimSpace(from) != "" {
		d, err := utils.ParseDate(from, loc)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid -from %q: expected YYYY-MM-DD", from)
		}
		fromDate = &d
	}
	if strings.TrimSpace(to) != "" {
		d, err := utils.ParseDate(to, loc)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid -to %q: expected YYYY-MM-DD", to)
		}
		toDate = &d
	}
	if fromDate != nil && toDate != nil && toDate.Before(*fromDate) {
		return nil, nil, fmt.Errorf("-to %s is before -from %s", to, from)
	}
	return fromDate, toDate, nil
}

func exportName(from, to *time.Time) string {
	part := func(t *time.Time, fallback string) string {
		if t == nil {
			return fallback
		}
		return t.Format("20060102")
	}
	return fmt.Sprintf("commissions_%s_%s.xlsx", part(from, "start"), part(to, "now"))
}
