// reminder-sweep runs the due-date reminder jobs once and exits. The daily
// cron uses it when it does not call /internal/jobs.
//
// Usage:
//
//	go run ./cmd/reminder-sweep -create -send -cleanup [-date 2024-06-10]
//
// With no job flags all three run, in the order create, send, cleanup.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/twhracing/distributor_backend/config"
	"github.com/twhracing/distributor_backend/models"
	"github.com/twhracing/distributor_backend/utils"
	"github.com/twhracing/distributor_backend/workflow"
)

func main() {
	create := flag.Bool("create", false, "create today's reminders and force past-due invoices to overdue")
	send := flag.Bool("send", false, "post pending reminders due today or earlier")
	cleanup := flag.Bool("cleanup", false, "dismiss pending reminders of paid or cancelled invoices")
	date := flag.String("date", "", "Optional: run as of this date (YYYY-MM-DD). Defaults to today in BUSINESS_TIMEZONE.")
	flag.Parse()

	if !*create && !*send && !*cleanup {
		*create, *send, *cleanup = true, true, true
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	// Each invoice is swept in its own transaction under its row lock.
	engine := workflow.NewEngine(models.NewGormStore(db),
		workflow.WithLogger(config.GetLogger()),
		workflow.WithLocker(workflow.NoopInvoiceLocker()),
	)

	today := engine.Today()
	if strings.TrimSpace(*date) != "" {
		d, err := utils.ParseDate(*date, engine.Location())
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -date %q: expected YYYY-MM-DD\n", *date)
			os.Exit(2)
		}
		today = d
	}

	ctx := utils.SetUserNameInContext(context.Background(), "ReminderSweep")
	failed := false
	report := func(name string, res *workflow.SweepResult, err error) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			failed = true
			return
		}
		out, _ := json.Marshal(res)
		fmt.Printf("%s: %s\n", name, out)
		if res.Failed > 0 {
			failed = true
		}
	}

	if *create {
		res, err := engine.CreateDueReminders(ctx, today)
		report("create", res, err)
	}
	if *send {
		res, err := engine.SendDueReminders(ctx, today)
		report("send", res, err)
	}
	if *cleanup {
		res, err := engine.CleanupPaidReminders(ctx)
		report("cleanup", res, err)
	}
	if failed {
		os.Exit(1)
	}
}
