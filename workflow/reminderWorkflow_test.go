package workflow

import (
	"strings"
	"testing"

	"github.com/twhracing/distributor_backend/models"
)

// shortTermInvoice is a confirmed tempo invoice due three days after the fixture's today.
func (f *fixture) shortTermInvoice(t *testing.T, price int64) *models.Invoice {
	t.Helper()
	input := f.invoiceInput(pricedLine(f.product.ID, 1, price))
	input.PaymentTermDays = intPtr(3)
	return f.mustConfirm(t, input)
}

func (f *fixture) pendingReminders(t *testing.T, invoiceId int) []*models.Reminder {
	t.Helper()
	reminders, err := f.store.Reminders().ListPendingByInvoice(f.ctx, invoiceId)
	if err != nil {
		t.Fatalf("pending reminders: %v", err)
	}
	return reminders
}

func TestCreateDueReminders_DailyAndMilestone(t *testing.T) {
	f := newFixture(t)
	inv := f.shortTermInvoice(t, 500000)
	f.mustConfirm(t, f.invoiceInput(pricedLine(f.product.ID, 1, 500000))) // due in 60 days
	f.mustCreate(t, f.invoiceInput(pricedLine(f.product.ID, 1, 500000)))  // draft

	res, err := f.engine.CreateDueReminders(f.ctx, f.today)
	if err != nil {
		t.Fatalf("CreateDueReminders: %v", err)
	}
	if res.Scanned != 2 || res.Created != 2 || res.Existing != 0 || res.MarkedOverdue != 0 {
		t.Fatalf("first sweep = %+v", res)
	}
	pending := f.pendingReminders(t, inv.ID)
	if len(pending) != 2 {
		t.Fatalf("pending = %d", len(pending))
	}
	types := map[models.ReminderType]bool{}
	for _, r := range pending {
		types[r.ReminderType] = true
		if r.DaysBeforeDue != 3 || r.InvoiceName != inv.Name || !r.ReminderDate.Equal(f.today) {
			t.Fatalf("reminder = %+v", r)
		}
	}
	if !types[models.ReminderTypeDaily] || !types[models.ReminderType3Days] {
		t.Fatalf("types = %v", types)
	}

	again, err := f.engine.CreateDueReminders(f.ctx, f.today)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if again.Created != 0 || again.Existing != 2 {
		t.Fatalf("second sweep = %+v", again)
	}
	if got := len(f.pendingReminders(t, inv.ID)); got != 2 {
		t.Fatalf("pending after second sweep = %d", got)
	}
}

func TestCreateDueReminders_ForcesOverdue(t *testing.T) {
	f := newFixture(t)
	issued := models.MyDateString(day(t, "2024-05-01"))
	input := f.invoiceInput(pricedLine(f.product.ID, 1, 750000))
	input.InvoiceDate = &issued
	input.PaymentTermDays = intPtr(10)
	inv := f.mustConfirm(t, input)
	if inv.Status != models.InvoiceStatusConfirmed {
		t.Fatalf("status = %s", inv.Status)
	}

	res, err := f.engine.CreateDueReminders(f.ctx, f.today)
	if err != nil {
		t.Fatalf("CreateDueReminders: %v", err)
	}
	if res.Created != 1 || res.MarkedOverdue != 1 {
		t.Fatalf("sweep = %+v", res)
	}
	after := f.invoice(t, inv.ID)
	if after.Status != models.InvoiceStatusOverdue {
		t.Fatalf("status = %s, want overdue", after.Status)
	}
	pending := f.pendingReminders(t, inv.ID)
	if len(pending) != 1 || pending[0].ReminderType != models.ReminderTypeOverdue || pending[0].DaysBeforeDue != -30 {
		t.Fatalf("pending = %+v", pending)
	}

	again, err := f.engine.CreateDueReminders(f.ctx, f.today)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if again.Created != 0 || again.Existing != 1 || again.MarkedOverdue != 0 {
		t.Fatalf("second sweep = %+v", again)
	}

	// a payment on an overdue invoice keeps it collectable as partial
	f.mustPay(t, inv.ID, 250000)
	if got := f.invoice(t, inv.ID).Status; got != models.InvoiceStatusPartial {
		t.Fatalf("status after payment = %s", got)
	}
}

func TestCreateDueReminders_IsolatesFailures(t *testing.T) {
	f := newFixture(t)
	issued := models.MyDateString(day(t, "2024-05-01"))
	input := f.invoiceInput(pricedLine(f.product.ID, 1, 750000))
	input.InvoiceDate = &issued
	input.PaymentTermDays = intPtr(10)
	overdue := f.mustConfirm(t, input)
	soon := f.shortTermInvoice(t, 200000)

	f.store.db.fail["invoices.Update"] = errBoom
	res, err := f.engine.CreateDueReminders(f.ctx, f.today)
	delete(f.store.db.fail, "invoices.Update")
	if err != nil {
		t.Fatalf("CreateDueReminders: %v", err)
	}
	if res.Failed != 1 || res.Created != 2 || res.MarkedOverdue != 0 {
		t.Fatalf("sweep = %+v", res)
	}
	if got := len(f.pendingReminders(t, overdue.ID)); got != 0 {
		t.Fatalf("overdue reminder survived rollback: %d", got)
	}
	if got := len(f.pendingReminders(t, soon.ID)); got != 2 {
		t.Fatalf("healthy invoice reminders = %d", got)
	}
}

func TestSendDueReminders_PostsMessageAndTodo(t *testing.T) {
	f := newFixture(t)
	inv := f.shortTermInvoice(t, 500000)
	f.mustPay(t, inv.ID, 200000)
	if _, err := f.engine.CreateDueReminders(f.ctx, f.today); err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := f.engine.SendDueReminders(f.ctx, f.today)
	if err != nil {
		t.Fatalf("SendDueReminders: %v", err)
	}
	if res.Scanned != 2 || res.Sent != 2 || res.Failed != 0 {
		t.Fatalf("send = %+v", res)
	}
	if got := len(f.pendingReminders(t, inv.ID)); got != 0 {
		t.Fatalf("still pending: %d", got)
	}

	activities, _ := f.store.Activities().ListByInvoice(f.ctx, inv.ID)
	var messages, todos int
	for _, a := range activities {
		switch a.Kind {
		case models.ActivityKindTodo:
			todos++
			if a.AssigneeId == nil || *a.AssigneeId != f.sales.ID {
				t.Fatalf("todo assignee = %v", a.AssigneeId)
			}
			if !strings.HasPrefix(a.Subject, "Reminder: Invoice "+inv.Name) {
				t.Fatalf("todo summary = %q", a.Subject)
			}
		case models.ActivityKindMessage:
			if strings.HasPrefix(a.Subject, "Reminder Pembayaran") {
				messages++
			}
		}
	}
	if messages != 2 || todos != 2 {
		t.Fatalf("messages = %d, todos = %d", messages, todos)
	}

	all, _ := f.store.Reminders().ListPendingDue(f.ctx, f.today)
	if len(all) != 0 {
		t.Fatalf("pending due = %d", len(all))
	}
	for _, a := range activities {
		if a.Kind != models.ActivityKindMessage || !strings.HasPrefix(a.Body, "PENGINGAT HARIAN") {
			continue
		}
		want := "PENGINGAT HARIAN: Invoice " + inv.Name + " akan jatuh tempo dalam 3 hari.\n\n" +
			"Customer: Bengkel Jaya\n" +
			"Tanggal Jatuh Tempo: 13 June 2024\n" +
			"Sudah Dibayar: Rp 200.000 (40.0%)\n" +
			"Sisa: Rp 300.000"
		if a.Body != want {
			t.Fatalf("daily message = %q, want %q", a.Body, want)
		}
	}

	again, err := f.engine.SendDueReminders(f.ctx, f.today)
	if err != nil {
		t.Fatalf("second send: %v", err)
	}
	if again.Scanned != 0 || again.Sent != 0 {
		t.Fatalf("second send = %+v", again)
	}
}

func TestSendDueReminders_NotifierFailureStillMarksSent(t *testing.T) {
	f := newFixture(t, WithNotifier(failingNotifier{}))
	inv := f.shortTermInvoice(t, 500000)
	if _, err := f.engine.CreateDueReminders(f.ctx, f.today); err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := f.engine.SendDueReminders(f.ctx, f.today)
	if err != nil {
		t.Fatalf("SendDueReminders: %v", err)
	}
	if res.Sent != 2 || res.Failed != 2 {
		t.Fatalf("send = %+v", res)
	}
	if got := len(f.pendingReminders(t, inv.ID)); got != 0 {
		t.Fatalf("still pending: %d", got)
	}
	if got := f.invoice(t, inv.ID).Status; got != models.InvoiceStatusConfirmed {
		t.Fatalf("invoice status = %s", got)
	}
}

func TestSendDueReminders_UpdateFailureKeepsReminderPending(t *testing.T) {
	f := newFixture(t)
	inv := f.shortTermInvoice(t, 500000)
	if _, err := f.engine.CreateDueReminders(f.ctx, f.today); err != nil {
		t.Fatalf("create: %v", err)
	}
	before := len(f.activityBodies(t, inv.ID))

	f.store.db.fail["reminders.Update"] = errBoom
	res, err := f.engine.SendDueReminders(f.ctx, f.today)
	delete(f.store.db.fail, "reminders.Update")
	if err != nil {
		t.Fatalf("SendDueReminders: %v", err)
	}
	if res.Sent != 0 || res.Failed != 2 {
		t.Fatalf("send = %+v", res)
	}
	if got := len(f.pendingReminders(t, inv.ID)); got != 2 {
		t.Fatalf("pending = %d, want 2", got)
	}
	if after := len(f.activityBodies(t, inv.ID)); after != before {
		t.Fatalf("activities leaked from rolled back send: %d -> %d", before, after)
	}
}

func TestCleanupPaidReminders(t *testing.T) {
	f := newFixture(t)
	paid := f.shortTermInvoice(t, 500000)
	open := f.shortTermInvoice(t, 300000)
	if _, err := f.engine.CreateDueReminders(f.ctx, f.today); err != nil {
		t.Fatalf("create: %v", err)
	}
	f.mustPay(t, paid.ID, 500000)

	res, err := f.engine.CleanupPaidReminders(f.ctx)
	if err != nil {
		t.Fatalf("CleanupPaidReminders: %v", err)
	}
	if res.Dismissed != 2 {
		t.Fatalf("cleanup = %+v", res)
	}
	if got := len(f.pendingReminders(t, paid.ID)); got != 0 {
		t.Fatalf("paid invoice pending = %d", got)
	}
	if got := len(f.pendingReminders(t, open.ID)); got != 2 {
		t.Fatalf("open invoice pending = %d", got)
	}
}

func TestDismissReminder(t *testing.T) {
	f := newFixture(t)
	inv := f.shortTermInvoice(t, 500000)
	if _, err := f.engine.CreateDueReminders(f.ctx, f.today); err != nil {
		t.Fatalf("create: %v", err)
	}
	r := f.pendingReminders(t, inv.ID)[0]

	dismissed, err := f.engine.DismissReminder(f.ctx, r.ID)
	if err != nil {
		t.Fatalf("DismissReminder: %v", err)
	}
	if dismissed.Status != models.ReminderStatusDismissed {
		t.Fatalf("status = %s", dismissed.Status)
	}
	if _, err := f.engine.DismissReminder(f.ctx, r.ID); !isPrecondition(err) {
		t.Fatalf("second dismiss err = %v", err)
	}
}
