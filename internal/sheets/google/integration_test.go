//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finanse/internal/core"
	"finanse/internal/query"
)

// Integration tests require real Google Sheets credentials
// Run with: go test -tags=integration ./internal/sheets/google

func integrationConfig(t *testing.T) Config {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	cfg := Config{
		SpreadsheetID:   os.Getenv("GOOGLE_SPREADSHEET_ID"),
		CredentialsFile: os.Getenv("GOOGLE_CREDENTIALS_FILE"),
		OAuthClientFile: os.Getenv("GOOGLE_OAUTH_CLIENT_FILE"),
		OAuthTokenFile:  os.Getenv("GOOGLE_TOKEN_FILE"),
		SummaryTab:      os.Getenv("SHEETS_SUMMARY_TAB"),
		TransactionsTab: os.Getenv("SHEETS_TRANSACTIONS_TAB"),
	}
	if cfg.SpreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	if cfg.CredentialsFile == "" && (cfg.OAuthClientFile == "" || cfg.OAuthTokenFile == "") {
		t.Skip("Google credentials not configured, skipping integration test")
	}
	return cfg
}

func TestIntegration_ExportFlow(t *testing.T) {
	cfg := integrationConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	tx := core.Transaction{
		ID:          uuid.NewString(),
		Amount:      decimal.RequireFromString("12.34"),
		Description: "Integration Test Transaction",
		Date:        time.Now().Format("2006-01-02"),
		Type:        core.Expense,
	}
	cat := &core.Category{Name: "Integration"}

	t.Run("AppendTransaction", func(t *testing.T) {
		if err := client.AppendTransaction(ctx, tx, cat); err != nil {
			t.Fatalf("Failed to append transaction: %v", err)
		}
		client.InvalidateRowCache()
		before := client.nextRow()
		if err := client.AppendTransaction(ctx, tx, cat); err != nil {
			t.Fatalf("Failed to re-append transaction: %v", err)
		}
		if client.nextRow() < before {
			t.Errorf("row count went backwards")
		}
	})

	t.Run("WriteMonthlySummary", func(t *testing.T) {
		now := time.Now()
		rows := []query.MonthSummary{{
			Year:          now.Year(),
			Month:         now.Month(),
			Label:         now.Format("January 2006"),
			Income:        decimal.Zero,
			Expenses:      []query.CategoryAmount{{Name: "Integration", Amount: tx.Amount}},
			TotalExpenses: tx.Amount,
			Net:           tx.Amount.Neg(),
		}}
		if err := client.WriteMonthlySummary(ctx, rows); err != nil {
			t.Fatalf("Failed to write summary: %v", err)
		}
	})
}

func TestIntegration_InvalidSpreadsheetID(t *testing.T) {
	cfg := integrationConfig(t)
	cfg.SpreadsheetID = "invalid-spreadsheet-id"

	ctx := context.Background()
	client, err := New(ctx, cfg)
	if err != nil {
		t.Logf("Client creation failed as expected: %v", err)
		return
	}
	if err := client.WriteMonthlySummary(ctx, nil); err == nil {
		t.Error("Expected error when writing to an invalid spreadsheet")
	}
}
