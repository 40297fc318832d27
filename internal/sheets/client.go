package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bot-zamovlennya/internal/cache"
	"bot-zamovlennya/internal/ledger"
	"bot-zamovlennya/internal/metrics"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

const (
	titleCacheKey = "sheets:titles"
	titleCacheTTL = time.Minute
)

// Client provides typed access to the order-ledger spreadsheet. Sheet titles
// are cached briefly in Redis; row data is fetched fresh on every call so
// queries always see the current ledger.
type Client struct {
	srv           *sheetsapi.Service
	spreadsheetID string
	logger        *slog.Logger
	metrics       *metrics.Metrics
	cache         *cache.Redis
}

// Config holds Google Sheets client configuration.
type Config struct {
	SpreadsheetID   string
	CredentialsJSON string
}

// New creates a Sheets API client authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *slog.Logger, m *metrics.Metrics, redis *cache.Redis) (*Client, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("spreadsheet id is required")
	}
	if cfg.CredentialsJSON == "" {
		return nil, errors.New("service account credentials are required")
	}

	srv, err := sheetsapi.NewService(ctx,
		option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		srv:           srv,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger.With("component", "sheets"),
		metrics:       m,
		cache:         redis,
	}, nil
}

// SheetTitles returns the spreadsheet's sheet titles in document order.
func (c *Client) SheetTitles(ctx context.Context) ([]string, error) {
	if c.cache != nil {
		var cached []string
		ok, err := c.cache.GetJSON(ctx, titleCacheKey, &cached)
		if err != nil {
			c.logger.Warn("read sheet title cache failed", "error", err)
		} else if ok {
			return cached, nil
		}
	}

	start := time.Now()
	resp, err := c.srv.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).Do()
	c.observe("get_spreadsheet", start, err)
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet: %w", err)
	}

	titles := make([]string, 0, len(resp.Sheets))
	for _, sheet := range resp.Sheets {
		if sheet.Properties != nil {
			titles = append(titles, sheet.Properties.Title)
		}
	}

	if c.cache != nil {
		if err := c.cache.SetJSON(ctx, titleCacheKey, titles, titleCacheTTL); err != nil {
			c.logger.Warn("set sheet title cache failed", "error", err)
		}
	}
	return titles, nil
}

// Rows loads every data row of the titled sheet, mapped by the header row.
// Returns ledger.ErrSheetNotFound when no sheet carries that title.
func (c *Client) Rows(ctx context.Context, title string) ([]ledger.Row, error) {
	titles, err := c.SheetTitles(ctx)
	if err != nil {
		return nil, err
	}
	found := false
	for _, t := range titles {
		if t == title {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %q", ledger.ErrSheetNotFound, title)
	}

	start := time.Now()
	resp, err := c.srv.Spreadsheets.Values.Get(c.spreadsheetID, quoteTitle(title)).
		Context(ctx).Do()
	c.observe("get_values", start, err)
	if err != nil {
		return nil, fmt.Errorf("get values %q: %w", title, err)
	}

	if len(resp.Values) == 0 {
		return nil, nil
	}

	headers := make([]string, 0, len(resp.Values[0]))
	for _, cell := range resp.Values[0] {
		headers = append(headers, strings.TrimSpace(fmt.Sprint(cell)))
	}

	rows := make([]ledger.Row, 0, len(resp.Values)-1)
	for i, record := range resp.Values[1:] {
		values := make(map[string]string, len(headers))
		for col, header := range headers {
			if header == "" {
				continue
			}
			if col < len(record) {
				values[header] = fmt.Sprint(record[col])
			} else {
				values[header] = ""
			}
		}
		rows = append(rows, &Row{
			client:  c,
			sheet:   title,
			number:  i + 2,
			headers: headers,
			values:  values,
		})
	}
	return rows, nil
}

// FlushTitleCache drops the cached sheet-title list.
func (c *Client) FlushTitleCache(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Delete(ctx, titleCacheKey)
}

func (c *Client) observe(operation string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.metrics.SheetsRequests.WithLabelValues(operation, status).Inc()
	c.metrics.SheetsLatency.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}

// quoteTitle wraps a sheet title for use in an A1 range reference.
func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
