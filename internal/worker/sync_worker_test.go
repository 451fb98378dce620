package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finanse/internal/amqp"
	"finanse/internal/core"
	"finanse/internal/ledger/memory"
	"finanse/internal/query"
	"finanse/internal/services"
)

const (
	foodID   = "00000000-0000-0000-0000-000000000002"
	salaryID = "00000000-0000-0000-0000-000000000001"
)

type appended struct {
	tx       core.Transaction
	category *core.Category
}

type fakeExporter struct {
	mu       sync.Mutex
	appended []appended
	err      error
}

func (f *fakeExporter) AppendTransaction(_ context.Context, tx core.Transaction, category *core.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.appended = append(f.appended, appended{tx, category})
	return nil
}

func (f *fakeExporter) WriteMonthlySummary(context.Context, []query.MonthSummary) error {
	return nil
}

type fakeMarker struct {
	marks int
}

func (f *fakeMarker) MarkDirty() { f.marks++ }

func setup(t *testing.T) (*services.LedgerService, *memory.Store, *fakeExporter, *fakeMarker, *SyncWorker) {
	t.Helper()
	store := memory.New(memory.DefaultCategories())
	svc := services.NewLedgerService(store, nil, time.Minute)
	exp := &fakeExporter{}
	marker := &fakeMarker{}
	return svc, store, exp, marker, NewSyncWorker(svc, exp, marker)
}

func addTx(t *testing.T, store *memory.Store, tx core.Transaction) {
	t.Helper()
	if err := store.CreateTransaction(context.Background(), tx); err != nil {
		t.Fatalf("create transaction: %v", err)
	}
}

func TestHandleLedgerEvent_ExportsCreatedTransaction(t *testing.T) {
	_, store, exp, marker, w := setup(t)
	addTx(t, store, core.Transaction{
		ID: "tx-1", Amount: decimal.NewFromInt(25), Description: "Lunch",
		Date: "2024-01-10", CategoryID: foodID, Type: core.Expense,
	})

	err := w.HandleLedgerEvent(context.Background(), amqp.NewLedgerEvent(amqp.TransactionCreated, "tx-1", 1))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(exp.appended) != 1 {
		t.Fatalf("expected one export, got %d", len(exp.appended))
	}
	got := exp.appended[0]
	if got.tx.ID != "tx-1" || got.category == nil || got.category.Name != "Food" {
		t.Fatalf("unexpected export %+v", got)
	}
	if marker.marks != 1 {
		t.Fatalf("expected summary marked dirty once, got %d", marker.marks)
	}
}

func TestHandleLedgerEvent_DeletedBeforeExport(t *testing.T) {
	_, _, exp, marker, w := setup(t)

	err := w.HandleLedgerEvent(context.Background(), amqp.NewLedgerEvent(amqp.TransactionCreated, "gone", 2))
	if err != nil {
		t.Fatalf("missing transaction should be skipped, got %v", err)
	}
	if len(exp.appended) != 0 {
		t.Fatalf("expected no export, got %d", len(exp.appended))
	}
	if marker.marks != 1 {
		t.Fatalf("expected summary marked dirty, got %d", marker.marks)
	}
}

func TestHandleLedgerEvent_DanglingCategory(t *testing.T) {
	_, store, exp, _, w := setup(t)
	addTx(t, store, core.Transaction{
		ID: "tx-2", Amount: decimal.NewFromInt(5), Description: "Mystery",
		Date: "2024-01-11", CategoryID: "missing", Type: core.Expense,
	})

	if err := w.HandleLedgerEvent(context.Background(), amqp.NewLedgerEvent(amqp.TransactionCreated, "tx-2", 3)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(exp.appended) != 1 || exp.appended[0].category != nil {
		t.Fatalf("expected export without category, got %+v", exp.appended)
	}
}

func TestHandleLedgerEvent_ExportFailureIsReturned(t *testing.T) {
	_, store, exp, marker, w := setup(t)
	exp.err = errors.New("quota exceeded")
	addTx(t, store, core.Transaction{
		ID: "tx-3", Amount: decimal.NewFromInt(5), Description: "Coffee",
		Date: "2024-01-11", CategoryID: foodID, Type: core.Expense,
	})

	err := w.HandleLedgerEvent(context.Background(), amqp.NewLedgerEvent(amqp.TransactionCreated, "tx-3", 4))
	if err == nil {
		t.Fatal("expected error so the message is requeued")
	}
	if marker.marks != 0 {
		t.Fatalf("summary should not be marked when the event will be redelivered, got %d", marker.marks)
	}
}

func TestHandleLedgerEvent_OtherKinds(t *testing.T) {
	tests := []struct {
		kind      amqp.EventKind
		wantMarks int
	}{
		{amqp.TransactionUpdated, 1},
		{amqp.TransactionDeleted, 1},
		{amqp.CategoryCreated, 1},
		{amqp.CurrencyCreated, 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			_, _, exp, marker, w := setup(t)
			if err := w.HandleLedgerEvent(context.Background(), amqp.NewLedgerEvent(tt.kind, "x", 1)); err != nil {
				t.Fatalf("handle: %v", err)
			}
			if len(exp.appended) != 0 {
				t.Fatalf("only created transactions are appended, got %d", len(exp.appended))
			}
			if marker.marks != tt.wantMarks {
				t.Fatalf("marks = %d, want %d", marker.marks, tt.wantMarks)
			}
		})
	}
}

func TestHandleLedgerEvent_InvalidatesSnapshot(t *testing.T) {
	svc, store, _, _, w := setup(t)
	ctx := context.Background()

	if _, err := svc.Snapshot(ctx); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	addTx(t, store, core.Transaction{
		ID: "tx-4", Amount: decimal.NewFromInt(1000), Description: "Pay",
		Date: "2024-01-01", CategoryID: salaryID, Type: core.Income,
	})

	before := svc.Version()
	if err := w.HandleLedgerEvent(ctx, amqp.NewLedgerEvent(amqp.TransactionCreated, "tx-4", 9)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if svc.Version() == before {
		t.Fatal("expected version bump")
	}
	snap, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Transactions) != 1 {
		t.Fatalf("expected fresh snapshot with one transaction, got %d", len(snap.Transactions))
	}
}

func TestStartupSyncCheck(t *testing.T) {
	_, store, exp, marker, w := setup(t)
	addTx(t, store, core.Transaction{
		ID: "old", Amount: decimal.NewFromInt(1), Description: "Old",
		Date: "2024-01-01", CategoryID: foodID, Type: core.Expense,
	})
	addTx(t, store, core.Transaction{
		ID: "new", Amount: decimal.NewFromInt(2), Description: "New",
		Date: "2024-02-01", CategoryID: "missing", Type: core.Expense,
	})

	if err := w.StartupSyncCheck(context.Background()); err != nil {
		t.Fatalf("startup check: %v", err)
	}
	if len(exp.appended) != 2 {
		t.Fatalf("expected two exports, got %d", len(exp.appended))
	}
	if exp.appended[0].tx.ID != "old" || exp.appended[1].tx.ID != "new" {
		t.Fatalf("expected oldest first, got %s then %s", exp.appended[0].tx.ID, exp.appended[1].tx.ID)
	}
	if exp.appended[0].category == nil || exp.appended[1].category != nil {
		t.Fatalf("unexpected categories %+v", exp.appended)
	}
	if marker.marks != 1 {
		t.Fatalf("expected summary marked dirty, got %d", marker.marks)
	}
}

func TestStartupSyncCheck_ContinuesOnErrors(t *testing.T) {
	_, store, exp, _, w := setup(t)
	exp.err = errors.New("boom")
	addTx(t, store, core.Transaction{
		ID: "a", Amount: decimal.NewFromInt(1), Description: "A",
		Date: "2024-01-01", CategoryID: foodID, Type: core.Expense,
	})

	if err := w.StartupSyncCheck(context.Background()); err != nil {
		t.Fatalf("export errors should be logged, got %v", err)
	}
}
