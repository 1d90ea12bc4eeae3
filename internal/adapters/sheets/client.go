// Package sheets writes tabular exports to a Google Sheets spreadsheet.
package sheets

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"
)

// Writer replaces the contents of one tab with rows.
type Writer interface {
	ReplaceTab(ctx context.Context, tab string, rows [][]interface{}) error
}

// Client is a Writer backed by a service account.
type Client struct {
	srv           *sheetsv4.Service
	spreadsheetID string
}

// New authenticates with a service account JSON file.
// PRE: credentialsPath exists; the service account has edit access to spreadsheetID
func New(ctx context.Context, credentialsPath, spreadsheetID string) (*Client, error) {
	if _, err := os.Stat(credentialsPath); err != nil {
		return nil, fmt.Errorf("service account json: %w", err)
	}
	srv, err := sheetsv4.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(sheetsv4.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{srv: srv, spreadsheetID: spreadsheetID}, nil
}

// SpreadsheetID returns the target spreadsheet.
func (c *Client) SpreadsheetID() string { return c.spreadsheetID }

// ReplaceTab creates tab if missing, clears it, and writes rows from A1.
func (c *Client) ReplaceTab(ctx context.Context, tab string, rows [][]interface{}) error {
	if err := c.ensureTab(ctx, tab); err != nil {
		return err
	}
	rng := quote(tab)
	if _, err := c.srv.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &sheetsv4.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", tab, err)
	}
	if len(rows) == 0 {
		return nil
	}
	vr := &sheetsv4.ValueRange{Values: rows}
	if _, err := c.srv.Spreadsheets.Values.Update(c.spreadsheetID, rng+"!A1", vr).
		ValueInputOption("RAW").
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("write %s: %w", tab, err)
	}
	return nil
}

func (c *Client) ensureTab(ctx context.Context, tab string) error {
	ss, err := c.srv.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == tab {
			return nil
		}
	}
	req := &sheetsv4.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsv4.Request{{
			AddSheet: &sheetsv4.AddSheetRequest{Properties: &sheetsv4.SheetProperties{Title: tab}},
		}},
	}
	if _, err := c.srv.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add tab %s: %w", tab, err)
	}
	return nil
}

// quote wraps a tab title for A1 notation.
func quote(tab string) string {
	out := []rune{'\''}
	for _, r := range tab {
		if r == '\'' {
			out = append(out, '\'')
		}
		out = append(out, r)
	}
	return string(append(out, '\''))
}
