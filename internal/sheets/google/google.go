package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finanse/internal/core"
	"finanse/internal/ledger"
	"finanse/internal/query"
)

// defaultRowCacheTTL bounds how long the transactions tab's row state is trusted.
const defaultRowCacheTTL = 2 * time.Minute

// Config selects the spreadsheet and its credentials. Either CredentialsFile
// (service account) or both OAuthClientFile and OAuthTokenFile must be set.
type Config struct {
	SpreadsheetID   string
	CredentialsFile string
	OAuthClientFile string
	OAuthTokenFile  string
	SummaryTab      string
	TransactionsTab string
}

// Client exports ledger data to a Google spreadsheet.
type Client struct {
	svc             *gsheet.Service
	spreadsheetID   string
	transactionsTab string
	summaryTab      string

	// appendMu serializes appends so row numbers are not handed out twice.
	appendMu sync.Mutex

	// Row state of the transactions tab, refreshed from column A.
	mu                 sync.Mutex
	cachedRowCount     int
	cachedIDs          map[string]struct{}
	cacheExpiresAt     time.Time
	cacheValidDuration time.Duration
}

// Ensure interface conformance
var _ ledger.Exporter = (*Client)(nil)

// jsonUnmarshal is indirected for tests.
var jsonUnmarshal = json.Unmarshal

func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if cfg.SummaryTab == "" {
		cfg.SummaryTab = "Monthly"
	}
	if cfg.TransactionsTab == "" {
		cfg.TransactionsTab = "Transactions"
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:                svc,
		spreadsheetID:      cfg.SpreadsheetID,
		transactionsTab:    cfg.TransactionsTab,
		summaryTab:         cfg.SummaryTab,
		cacheValidDuration: defaultRowCacheTTL,
	}, nil
}

// newSheetsService prefers service account credentials and falls back to an
// installed-app OAuth token created by cmd/oauth-init.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	if cfg.CredentialsFile != "" {
		slog.InfoContext(ctx, "Using service account credentials", "path", cfg.CredentialsFile)
		credentialsJSON, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		service, err := gsheet.NewService(ctx,
			goption.WithCredentialsJSON(credentialsJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope))
		if err != nil {
			return nil, fmt.Errorf("create sheets service: %w", err)
		}
		return service, nil
	}

	if cfg.OAuthClientFile == "" {
		return nil, errors.New("missing oauth client (set GOOGLE_CREDENTIALS_FILE or GOOGLE_OAUTH_CLIENT_FILE)")
	}
	if cfg.OAuthTokenFile == "" {
		return nil, errors.New("missing oauth token (set GOOGLE_TOKEN_FILE)")
	}

	clientJSON, err := os.ReadFile(cfg.OAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth client file: %w", err)
	}
	oauthCfg, err := googleoauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}

	tokenJSON, err := os.ReadFile(cfg.OAuthTokenFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth token file: %w", err)
	}
	var token oauth2.Token
	if err := jsonUnmarshal(tokenJSON, &token); err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}

	pooled := context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())
	httpClient := oauth2.NewClient(pooled, oauthCfg.TokenSource(pooled, &token))

	service, err := gsheet.NewService(ctx, goption.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created with OAuth token")
	return service, nil
}

// newHTTPClientWithPooling creates an HTTP client tuned for the Sheets API
// with connection pooling and timeouts.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// AppendTransaction writes tx as a new row of the transactions tab. A row
// whose ID is already present is not written again, so redelivered events
// are harmless.
func (c *Client) AppendTransaction(ctx context.Context, tx core.Transaction, category *core.Category) error {
	if tx.ID == "" {
		return errors.New("transaction without id")
	}
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	c.appendMu.Lock()
	defer c.appendMu.Unlock()

	rowCount, ids, err := c.rowState(ctx)
	if err != nil {
		return err
	}
	if _, ok := ids[tx.ID]; ok {
		slog.InfoContext(ctx, "Transaction already exported", "id", tx.ID)
		return nil
	}

	values := [][]any{transactionRow(tx, category)}
	nextRow := rowCount + 1
	if rowCount == 0 {
		values = [][]any{transactionHeader, values[0]}
	}
	last := nextRow + len(values) - 1
	rng := fmt.Sprintf("%s!A%d:F%d", c.transactionsTab, nextRow, last)

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		c.InvalidateRowCache()
		return fmt.Errorf("update %s: %w", rng, err)
	}

	c.mu.Lock()
	c.cachedRowCount = last
	if c.cachedIDs != nil {
		c.cachedIDs[tx.ID] = struct{}{}
	}
	c.mu.Unlock()

	slog.InfoContext(ctx, "Exported transaction to Google Sheets",
		"id", tx.ID,
		"range", rng)
	return nil
}

// rowState returns the number of used rows and the IDs already exported.
func (c *Client) rowState(ctx context.Context) (int, map[string]struct{}, error) {
	c.mu.Lock()
	if time.Now().Before(c.cacheExpiresAt) && c.cachedIDs != nil {
		n, ids := c.cachedRowCount, c.cachedIDs
		c.mu.Unlock()
		return n, ids, nil
	}
	c.mu.Unlock()

	rng := fmt.Sprintf("%s!A:A", c.transactionsTab)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, nil, fmt.Errorf("read %s: %w", rng, err)
	}
	n, ids := parseIDColumn(resp.Values)

	c.mu.Lock()
	c.cachedRowCount = n
	c.cachedIDs = ids
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	c.mu.Unlock()
	return n, ids, nil
}

// InvalidateRowCache forces the next append to re-read the tab.
func (c *Client) InvalidateRowCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cacheExpiresAt = time.Time{}
	c.cachedIDs = nil
}

// nextRow returns the row an append would write to, given a valid cache.
func (c *Client) nextRow() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cachedRowCount + 1
}

// WriteMonthlySummary replaces the summary tab with rows.
func (c *Client) WriteMonthlySummary(ctx context.Context, rows []query.MonthSummary) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	clearRng := fmt.Sprintf("%s!A:ZZ", c.summaryTab)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRng, err)
	}

	values := summaryValues(rows)
	rng := fmt.Sprintf("%s!A1", c.summaryTab)
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}

	slog.InfoContext(ctx, "Wrote monthly summary to Google Sheets",
		"tab", c.summaryTab,
		"months", len(rows))
	return nil
}
