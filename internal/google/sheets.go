package google

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"google.golang.org/api/sheets/v4"
)

// DefaultValueInputOption makes the API parse values as if typed in the UI.
const DefaultValueInputOption = "USER_ENTERED"

// SheetsClient wraps the Google Sheets API.
type SheetsClient struct {
	service *sheets.Service
	logger  *slog.Logger
}

// SheetRef identifies a tab by numeric id or by title. ID wins when both are set.
type SheetRef struct {
	ID    *int64
	Title string
}

// DedupResult reports what a deduplication pass removed.
type DedupResult struct {
	Message string
	Deleted []int64
}

// UpdateCell writes a single value into cellRange.
func (c *SheetsClient) UpdateCell(ctx context.Context, spreadsheetID, cellRange string, value interface{}, inputOption string) (*sheets.UpdateValuesResponse, error) {
	body := &sheets.ValueRange{Values: [][]interface{}{{value}}}
	resp, err := c.service.Spreadsheets.Values.Update(spreadsheetID, cellRange, body).
		ValueInputOption(inputOption).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", cellRange, err)
	}
	return resp, nil
}

// AppendRows appends rows after the table found in rangeName, inserting new rows.
func (c *SheetsClient) AppendRows(ctx context.Context, spreadsheetID, rangeName string, values [][]interface{}, inputOption string) (*sheets.UpdateValuesResponse, error) {
	resp, err := c.service.Spreadsheets.Values.Append(spreadsheetID, rangeName, &sheets.ValueRange{Values: values}).
		ValueInputOption(inputOption).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to append rows to %s: %w", rangeName, err)
	}
	c.logger.Info("Appended rows", "spreadsheetID", spreadsheetID, "rows", len(values))
	return resp.Updates, nil
}

// DeleteRows removes rows [start, end) from a tab.
func (c *SheetsClient) DeleteRows(ctx context.Context, spreadsheetID string, sheetID, start, end int64) (*sheets.BatchUpdateSpreadsheetResponse, error) {
	return c.batchUpdate(ctx, spreadsheetID, deleteRowsRequest(sheetID, start, end))
}

// AddSheet creates a new tab and returns its properties.
func (c *SheetsClient) AddSheet(ctx context.Context, spreadsheetID, title string) (*sheets.SheetProperties, error) {
	resp, err := c.batchUpdate(ctx, spreadsheetID, &sheets.Request{
		AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: title}},
	})
	if err != nil {
		return nil, err
	}
	for _, reply := range resp.Replies {
		if reply != nil && reply.AddSheet != nil {
			return reply.AddSheet.Properties, nil
		}
	}
	return nil, fmt.Errorf("add sheet reply missing from response")
}

// ClearValues clears values, keeping formatting, in rangeName.
func (c *SheetsClient) ClearValues(ctx context.Context, spreadsheetID, rangeName string) (*sheets.ClearValuesResponse, error) {
	resp, err := c.service.Spreadsheets.Values.Clear(spreadsheetID, rangeName, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to clear %s: %w", rangeName, err)
	}
	return resp, nil
}

// Metadata returns spreadsheet and tab properties.
func (c *SheetsClient) Metadata(ctx context.Context, spreadsheetID string) (*sheets.Spreadsheet, error) {
	ss, err := c.service.Spreadsheets.Get(spreadsheetID).Fields("properties,sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get spreadsheet metadata: %w", err)
	}
	return ss, nil
}

// ResolveSheet looks up a tab's numeric id and title.
func (c *SheetsClient) ResolveSheet(ctx context.Context, spreadsheetID string, ref SheetRef) (int64, string, error) {
	ss, err := c.Metadata(ctx, spreadsheetID)
	if err != nil {
		return 0, "", err
	}
	for _, sheet := range ss.Sheets {
		if sheet == nil || sheet.Properties == nil {
			continue
		}
		p := sheet.Properties
		if ref.ID != nil && p.SheetId == *ref.ID {
			return p.SheetId, p.Title, nil
		}
		if ref.ID == nil && p.Title == ref.Title {
			return p.SheetId, p.Title, nil
		}
	}
	if ref.ID != nil {
		return 0, "", &NotFoundError{Kind: "sheet with id", Key: strconv.FormatInt(*ref.ID, 10)}
	}
	return 0, "", &NotFoundError{Kind: "sheet named", Key: strconv.Quote(ref.Title)}
}

// quoteSheetTitle renders a tab title for A1 notation. Quotes inside the
// title are doubled.
func quoteSheetTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// ReadSheet returns every row of a tab, columns A through ZZ.
func (c *SheetsClient) ReadSheet(ctx context.Context, spreadsheetID, title string) ([][]interface{}, error) {
	resp, err := c.service.Spreadsheets.Values.Get(spreadsheetID, quoteSheetTitle(title)+"!A:ZZ").Context(ctx).Do()
	if err != nil && isUnparseableRange(err) {
		c.logger.Warn("Range not accepted, retrying with bare sheet title", "title", title)
		resp, err = c.service.Spreadsheets.Values.Get(spreadsheetID, title).Context(ctx).Do()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", title, err)
	}
	return resp.Values, nil
}

// Deduplicate deletes rows whose key columns repeat, keeping one occurrence.
// Deletes are sent in one batch in descending index order. A failed batch is
// neither retried nor rolled back.
func (c *SheetsClient) Deduplicate(ctx context.Context, spreadsheetID string, ref SheetRef, keyColumns []int, headerRows int, keep Keep) (*DedupResult, error) {
	sheetID, title, err := c.ResolveSheet(ctx, spreadsheetID, ref)
	if err != nil {
		return nil, err
	}

	values, err := c.ReadSheet(ctx, spreadsheetID, title)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return &DedupResult{Message: "Sheet is empty, no duplicates to remove."}, nil
	}
	if len(values) <= headerRows {
		return &DedupResult{Message: "No data rows to process after headers."}, nil
	}

	doomed := DuplicateRows(values, keyColumns, headerRows, keep)
	if len(doomed) == 0 {
		return &DedupResult{Message: "No duplicate rows found."}, nil
	}

	requests := make([]*sheets.Request, 0, len(doomed))
	for _, idx := range doomed {
		requests = append(requests, deleteRowsRequest(sheetID, idx, idx+1))
	}
	if _, err := c.batchUpdate(ctx, spreadsheetID, requests...); err != nil {
		return nil, err
	}

	c.logger.Info("Removed duplicate rows", "spreadsheetID", spreadsheetID, "sheet", title, "count", len(doomed))
	return &DedupResult{
		Message: fmt.Sprintf("Deduplication complete. %d row(s) removed.", len(doomed)),
		Deleted: doomed,
	}, nil
}

func deleteRowsRequest(sheetID, start, end int64) *sheets.Request {
	return &sheets.Request{
		DeleteDimension: &sheets.DeleteDimensionRequest{
			Range: &sheets.DimensionRange{
				SheetId:         sheetID,
				Dimension:       "ROWS",
				StartIndex:      start,
				EndIndex:        end,
				ForceSendFields: []string{"SheetId", "StartIndex"},
			},
		},
	}
}

func (c *SheetsClient) batchUpdate(ctx context.Context, spreadsheetID string, requests ...*sheets.Request) (*sheets.BatchUpdateSpreadsheetResponse, error) {
	c.logger.Debug("Updating spreadsheet", "spreadsheetID", spreadsheetID, "requests", len(requests))
	resp, err := c.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update spreadsheet %s: %w", spreadsheetID, err)
	}
	return resp, nil
}
