package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"insuralytics/internal/sources"
	"insuralytics/internal/target"
)

// Client reads baseline goals from a two-column range of a Google Sheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base name of the goals tab; "<year> <base>" is tried when the base is missing.
	goalsSheet string
	known      target.KnownSet
	now        func() time.Time
}

var _ sources.GoalSource = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_GOALS_SHEET_NAME (default "Goals").
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheet := strings.TrimSpace(os.Getenv("GOOGLE_GOALS_SHEET_NAME"))

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return New(svc, spreadsheetID, sheet), nil
}

// New wraps an existing Sheets service.
func New(svc *gsheet.Service, spreadsheetID, goalsSheet string) *Client {
	if goalsSheet == "" {
		goalsSheet = "Goals"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		goalsSheet:    goalsSheet,
		known:         target.NewKnownSet(target.DefaultBusinessTypes),
		now:           time.Now,
	}
}

// newSheetsService initializes a read-only Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	// Also check the standard Google Cloud environment variable
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created successfully")
	return service, nil
}

// ReadGoals implements sources.GoalSource. The range must start with the
// goal CSV header row; rows follow the same validation as CSV imports.
func (c *Client) ReadGoals(ctx context.Context) ([]target.GoalRow, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}

	values, err := c.readRange(ctx, c.goalsSheet)
	if err != nil {
		prefixed := yearPrefixedName(c.goalsSheet, c.now().Year())
		if prefixed == c.goalsSheet {
			return nil, err
		}
		slog.WarnContext(ctx, "Goals sheet not readable, trying year-prefixed name",
			"sheet", c.goalsSheet, "fallback", prefixed, "error", err)
		values, err = c.readRange(ctx, prefixed)
		if err != nil {
			return nil, err
		}
	}

	rows, err := target.ParseGoalValues(values, c.known)
	if err != nil {
		return rows, fmt.Errorf("parse goals sheet: %w", err)
	}
	slog.InfoContext(ctx, "Goals read from Google Sheets", "rows", len(rows))
	return rows, nil
}

func (c *Client) readRange(ctx context.Context, sheet string) ([][]string, error) {
	rng := fmt.Sprintf("'%s'!A:B", strings.ReplaceAll(sheet, "'", "''"))
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", rng, err)
	}
	out := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		out[i] = toStrings(row)
	}
	return out, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
