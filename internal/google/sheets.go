package google

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/sheets/v4"
	"gorm.io/gorm"

	"github.com/ppmimesir/wisuda/internal/models"
)

const clearRange = "A:ZZ"

func (c *Client) sheet(ctx context.Context) (*models.GoogleSheet, error) {
	var row models.GoogleSheet
	err := c.db.WithContext(ctx).Order("id DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoSheet
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (c *Client) service(ctx context.Context) (*sheets.Service, error) {
	ts, err := c.tokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return sheets.NewService(ctx, c.options(ts)...)
}

// BindSheet makes spreadsheetID the export target, or creates a new
// spreadsheet titled title when spreadsheetID is empty.
func (c *Client) BindSheet(ctx context.Context, spreadsheetID, title string) (*models.GoogleSheet, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return nil, err
	}

	var ss *sheets.Spreadsheet
	if id := strings.TrimSpace(spreadsheetID); id != "" {
		ss, err = svc.Spreadsheets.Get(id).Context(ctx).Do()
	} else {
		if title = strings.TrimSpace(title); title == "" {
			title = "Pendaftar Wisuda"
		}
		ss, err = svc.Spreadsheets.Create(&sheets.Spreadsheet{
			Properties: &sheets.SpreadsheetProperties{Title: title},
		}).Context(ctx).Do()
	}
	if err != nil {
		return nil, fmt.Errorf("google: spreadsheet: %w", err)
	}

	row := &models.GoogleSheet{SpreadsheetID: ss.SpreadsheetId, URL: ss.SpreadsheetUrl}
	if ss.Properties != nil {
		row.Title = ss.Properties.Title
	}
	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.GoogleSheet{}).Error; err != nil {
			return err
		}
		return tx.Create(row).Error
	})
	if err != nil {
		return nil, err
	}
	c.log.Infow("google sheet bound", "spreadsheet_id", row.SpreadsheetID, "title", row.Title)
	return row, nil
}

// Export replaces the bound sheet's contents with header followed by rows
// and returns the number of data rows written.
func (c *Client) Export(ctx context.Context, header []string, rows [][]string) (int, error) {
	target, err := c.sheet(ctx)
	if err != nil {
		return 0, err
	}
	svc, err := c.service(ctx)
	if err != nil {
		return 0, err
	}

	values := make([][]interface{}, 0, len(rows)+1)
	values = append(values, cells(header))
	for _, r := range rows {
		values = append(values, cells(r))
	}

	if _, err := svc.Spreadsheets.Values.Clear(target.SpreadsheetID, clearRange, &sheets.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return 0, fmt.Errorf("google: clear: %w", err)
	}
	if _, err := svc.Spreadsheets.Values.Update(target.SpreadsheetID, "A1", &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return 0, fmt.Errorf("google: update: %w", err)
	}

	now := time.Now()
	if err := c.db.WithContext(ctx).Model(target).Update("last_exported_at", &now).Error; err != nil {
		c.log.Warnw("export time not recorded", "err", err)
	}
	c.log.Infow("roster exported", "spreadsheet_id", target.SpreadsheetID, "rows", len(rows))
	return len(rows), nil
}

func cells(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}
