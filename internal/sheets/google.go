package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finanze/internal/core"
)

// GoogleClient writes transaction rows to a Google spreadsheet.
type GoogleClient struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// GoogleConfig selects the target spreadsheet and the credentials to use.
// Exactly one of CredentialsJSON or CredentialsFile must be set.
type GoogleConfig struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

func NewGoogleClient(ctx context.Context, cfg GoogleConfig) (*GoogleClient, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Transactions"
	}

	var opts []goption.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, goption.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		raw, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		opts = append(opts, goption.WithCredentialsJSON(raw))
	default:
		return nil, errors.New("missing Google credentials")
	}
	opts = append(opts, goption.WithScopes(gsheet.SpreadsheetsScope))

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &GoogleClient{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
	}, nil
}

var _ TransactionWriter = (*GoogleClient)(nil)

// Append adds one row (date, description, amount, category, account) to the
// end of the configured sheet.
func (c *GoogleClient) Append(ctx context.Context, t core.Transaction) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:E", c.sheetName)
	values := &gsheet.ValueRange{Values: [][]any{{
		t.Date.Format("2006-01-02"),
		t.Description,
		t.Amount,
		t.Category,
		t.Account,
	}}}

	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, values).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append row to sheet %s: %w", c.sheetName, err)
	}
	return nil
}
