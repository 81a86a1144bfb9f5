package google

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/api/docs/v1"
)

const documentReadFields = "body,title,documentId,documentStyle,namedStyles,revisionId,suggestionsViewMode"

// ParagraphStyles are the named styles accepted by FormatParagraph.
var ParagraphStyles = []string{
	"NORMAL_TEXT", "TITLE", "SUBTITLE",
	"HEADING_1", "HEADING_2", "HEADING_3", "HEADING_4", "HEADING_5", "HEADING_6",
}

// DocsClient wraps the Google Docs API.
type DocsClient struct {
	service *docs.Service
	logger  *slog.Logger
}

// TextStyle selects which character formats to set. Nil leaves a format unchanged.
type TextStyle struct {
	Bold      *bool
	Italic    *bool
	Underline *bool
}

// CreateDocument creates an empty document.
func (c *DocsClient) CreateDocument(ctx context.Context, title string) (*docs.Document, error) {
	doc, err := c.service.Documents.Create(&docs.Document{Title: title}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	c.logger.Info("Created document", "documentID", doc.DocumentId)
	return doc, nil
}

// GetDocument returns the document body and styles.
func (c *DocsClient) GetDocument(ctx context.Context, documentID string) (*docs.Document, error) {
	doc, err := c.service.Documents.Get(documentID).Fields(documentReadFields).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", documentID, err)
	}
	return doc, nil
}

// InsertText inserts text at index, or at the end of the segment when index is nil.
func (c *DocsClient) InsertText(ctx context.Context, documentID, text string, index *int64, segmentID string) (*docs.BatchUpdateDocumentResponse, error) {
	req := &docs.InsertTextRequest{Text: text}
	if index != nil {
		req.Location = &docs.Location{Index: *index, SegmentId: segmentID}
	} else {
		req.EndOfSegmentLocation = &docs.EndOfSegmentLocation{SegmentId: segmentID}
	}
	return c.batchUpdate(ctx, documentID, &docs.Request{InsertText: req})
}

// DeleteRange removes the content between start and end.
func (c *DocsClient) DeleteRange(ctx context.Context, documentID string, start, end int64, segmentID string) (*docs.BatchUpdateDocumentResponse, error) {
	return c.batchUpdate(ctx, documentID, &docs.Request{
		DeleteContentRange: &docs.DeleteContentRangeRequest{
			Range: &docs.Range{StartIndex: start, EndIndex: end, SegmentId: segmentID},
		},
	})
}

// FormatParagraph applies a named paragraph style to a range.
func (c *DocsClient) FormatParagraph(ctx context.Context, documentID string, start, end int64, style, segmentID string) (*docs.BatchUpdateDocumentResponse, error) {
	return c.batchUpdate(ctx, documentID, &docs.Request{
		UpdateParagraphStyle: &docs.UpdateParagraphStyleRequest{
			Range:          &docs.Range{StartIndex: start, EndIndex: end, SegmentId: segmentID},
			ParagraphStyle: &docs.ParagraphStyle{NamedStyleType: style},
			Fields:         "namedStyleType",
		},
	})
}

// FormatText sets bold, italic or underline on a range. At least one must be set.
func (c *DocsClient) FormatText(ctx context.Context, documentID string, start, end int64, style TextStyle, segmentID string) (*docs.BatchUpdateDocumentResponse, error) {
	ts := &docs.TextStyle{}
	var fields []string
	if style.Bold != nil {
		ts.Bold = *style.Bold
		fields = append(fields, "bold")
		ts.ForceSendFields = append(ts.ForceSendFields, "Bold")
	}
	if style.Italic != nil {
		ts.Italic = *style.Italic
		fields = append(fields, "italic")
		ts.ForceSendFields = append(ts.ForceSendFields, "Italic")
	}
	if style.Underline != nil {
		ts.Underline = *style.Underline
		fields = append(fields, "underline")
		ts.ForceSendFields = append(ts.ForceSendFields, "Underline")
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no text style changes specified")
	}

	return c.batchUpdate(ctx, documentID, &docs.Request{
		UpdateTextStyle: &docs.UpdateTextStyleRequest{
			Range:     &docs.Range{StartIndex: start, EndIndex: end, SegmentId: segmentID},
			TextStyle: ts,
			Fields:    strings.Join(fields, ","),
		},
	})
}

// InsertTable inserts an empty rows x columns table.
func (c *DocsClient) InsertTable(ctx context.Context, documentID string, rows, columns int64, index *int64, segmentID string) (*docs.BatchUpdateDocumentResponse, error) {
	req := &docs.InsertTableRequest{Rows: rows, Columns: columns}
	if index != nil {
		req.Location = &docs.Location{Index: *index, SegmentId: segmentID}
	} else {
		req.EndOfSegmentLocation = &docs.EndOfSegmentLocation{SegmentId: segmentID}
	}
	return c.batchUpdate(ctx, documentID, &docs.Request{InsertTable: req})
}

func (c *DocsClient) batchUpdate(ctx context.Context, documentID string, requests ...*docs.Request) (*docs.BatchUpdateDocumentResponse, error) {
	c.logger.Debug("Updating document", "documentID", documentID, "requests", len(requests))
	resp, err := c.service.Documents.BatchUpdate(documentID, &docs.BatchUpdateDocumentRequest{Requests: requests}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update document %s: %w", documentID, err)
	}
	return resp, nil
}
