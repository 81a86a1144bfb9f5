package google

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/slides/v1"
)

// DefaultLayout is used when a new slide names no layout.
const DefaultLayout = "BLANK"

// SlidesClient wraps the Google Slides API.
type SlidesClient struct {
	service *slides.Service
	logger  *slog.Logger
}

// RGB is a color with components in [0, 1].
type RGB struct {
	Red   float64 `json:"red"`
	Green float64 `json:"green"`
	Blue  float64 `json:"blue"`
}

func (c RGB) opaque() *slides.OpaqueColor {
	return &slides.OpaqueColor{RgbColor: &slides.RgbColor{
		Red: c.Red, Green: c.Green, Blue: c.Blue,
		ForceSendFields: []string{"Red", "Green", "Blue"},
	}}
}

// SlideTextStyle selects the character formats to set. Zero values are left alone.
type SlideTextStyle struct {
	Color      *RGB
	Bold       *bool
	Italic     *bool
	FontFamily string
	FontSizePt float64
}

// ImagePlacement positions an image on a page, in points from the top-left corner.
type ImagePlacement struct {
	WidthPt  float64
	HeightPt float64
	XPt      float64
	YPt      float64
}

// CreatePresentation creates an empty presentation.
func (c *SlidesClient) CreatePresentation(ctx context.Context, title string) (*slides.Presentation, error) {
	p, err := c.service.Presentations.Create(&slides.Presentation{Title: title}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create presentation: %w", err)
	}
	c.logger.Info("Created presentation", "presentationID", p.PresentationId)
	return p, nil
}

// GetPresentation returns a presentation with all its pages.
func (c *SlidesClient) GetPresentation(ctx context.Context, presentationID string) (*slides.Presentation, error) {
	p, err := c.service.Presentations.Get(presentationID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get presentation %s: %w", presentationID, err)
	}
	return p, nil
}

// CreateSlide adds a slide using a predefined layout, at index when given.
func (c *SlidesClient) CreateSlide(ctx context.Context, presentationID, layout string, index *int64) (*slides.CreateSlideResponse, error) {
	if layout == "" {
		layout = DefaultLayout
	}
	req := &slides.CreateSlideRequest{
		SlideLayoutReference: &slides.LayoutReference{PredefinedLayout: layout},
	}
	if index != nil {
		req.InsertionIndex = *index
		req.ForceSendFields = []string{"InsertionIndex"}
	}

	resp, err := c.batchUpdate(ctx, presentationID, &slides.Request{CreateSlide: req})
	if err != nil {
		return nil, err
	}
	for _, reply := range resp.Replies {
		if reply != nil && reply.CreateSlide != nil {
			c.logger.Info("Created slide", "presentationID", presentationID, "slideID", reply.CreateSlide.ObjectId)
			return reply.CreateSlide, nil
		}
	}
	return &slides.CreateSlideResponse{}, nil
}

// InsertText inserts text into a shape or table cell at index.
func (c *SlidesClient) InsertText(ctx context.Context, presentationID, objectID, text string, index int64) (*slides.BatchUpdatePresentationResponse, error) {
	return c.batchUpdate(ctx, presentationID, &slides.Request{
		InsertText: &slides.InsertTextRequest{
			ObjectId:        objectID,
			InsertionIndex:  index,
			Text:            text,
			ForceSendFields: []string{"InsertionIndex"},
		},
	})
}

// DeleteText removes the characters in [start, end) of a shape.
func (c *SlidesClient) DeleteText(ctx context.Context, presentationID, objectID string, start, end int64) (*slides.BatchUpdatePresentationResponse, error) {
	return c.batchUpdate(ctx, presentationID, &slides.Request{
		DeleteText: &slides.DeleteTextRequest{
			ObjectId:  objectID,
			TextRange: fixedRange(start, end),
		},
	})
}

// UpdateTextStyle styles [start, end) of a shape. ok is false when style sets
// nothing, in which case no request is sent.
func (c *SlidesClient) UpdateTextStyle(ctx context.Context, presentationID, objectID string, start, end int64, style SlideTextStyle) (resp *slides.BatchUpdatePresentationResponse, ok bool, err error) {
	ts := &slides.TextStyle{}
	var fields []string
	if style.Color != nil {
		ts.ForegroundColor = &slides.OptionalColor{OpaqueColor: style.Color.opaque()}
		fields = append(fields, "foregroundColor")
	}
	if style.Bold != nil {
		ts.Bold = *style.Bold
		ts.ForceSendFields = append(ts.ForceSendFields, "Bold")
		fields = append(fields, "bold")
	}
	if style.Italic != nil {
		ts.Italic = *style.Italic
		ts.ForceSendFields = append(ts.ForceSendFields, "Italic")
		fields = append(fields, "italic")
	}
	if style.FontFamily != "" {
		ts.FontFamily = style.FontFamily
		fields = append(fields, "fontFamily")
	}
	if style.FontSizePt > 0 {
		ts.FontSize = &slides.Dimension{Magnitude: style.FontSizePt, Unit: "PT"}
		fields = append(fields, "fontSize")
	}
	if len(fields) == 0 {
		c.logger.Warn("No text style attributes provided", "objectID", objectID)
		return nil, false, nil
	}

	resp, err = c.batchUpdate(ctx, presentationID, &slides.Request{
		UpdateTextStyle: &slides.UpdateTextStyleRequest{
			ObjectId:  objectID,
			TextRange: fixedRange(start, end),
			Style:     ts,
			Fields:    strings.Join(fields, ","),
		},
	})
	return resp, true, err
}

// SetBackground fills a page with a solid color.
func (c *SlidesClient) SetBackground(ctx context.Context, presentationID, pageID string, color RGB) (*slides.BatchUpdatePresentationResponse, error) {
	return c.batchUpdate(ctx, presentationID, &slides.Request{
		UpdatePageProperties: &slides.UpdatePagePropertiesRequest{
			ObjectId: pageID,
			PageProperties: &slides.PageProperties{
				PageBackgroundFill: &slides.PageBackgroundFill{
					SolidFill: &slides.SolidFill{Color: color.opaque()},
				},
			},
			Fields: "pageBackgroundFill.solidFill.color",
		},
	})
}

// AddImage places the image at url on a page and returns the new element id
// with the API response.
func (c *SlidesClient) AddImage(ctx context.Context, presentationID, pageID, url string, at ImagePlacement) (string, *slides.BatchUpdatePresentationResponse, error) {
	objectID := NewImageObjectID()
	resp, err := c.batchUpdate(ctx, presentationID, &slides.Request{
		CreateImage: &slides.CreateImageRequest{
			ObjectId: objectID,
			Url:      url,
			ElementProperties: &slides.PageElementProperties{
				PageObjectId: pageID,
				Size: &slides.Size{
					Width:  &slides.Dimension{Magnitude: at.WidthPt, Unit: "PT"},
					Height: &slides.Dimension{Magnitude: at.HeightPt, Unit: "PT"},
				},
				Transform: &slides.AffineTransform{
					ScaleX:          1,
					ScaleY:          1,
					TranslateX:      at.XPt,
					TranslateY:      at.YPt,
					Unit:            "PT",
					ForceSendFields: []string{"ShearX", "ShearY", "TranslateX", "TranslateY"},
				},
			},
		},
	})
	if err != nil {
		return "", nil, err
	}
	return objectID, resp, nil
}

// NewImageObjectID returns a unique, API-valid object id for an image.
func NewImageObjectID() string {
	return "image_" + uuid.New().String()
}

func fixedRange(start, end int64) *slides.Range {
	return &slides.Range{
		Type:       "FIXED_RANGE",
		StartIndex: googleapi.Int64(start),
		EndIndex:   googleapi.Int64(end),
	}
}

func (c *SlidesClient) batchUpdate(ctx context.Context, presentationID string, requests ...*slides.Request) (*slides.BatchUpdatePresentationResponse, error) {
	c.logger.Debug("Updating presentation", "presentationID", presentationID, "requests", len(requests))
	resp, err := c.service.Presentations.BatchUpdate(presentationID, &slides.BatchUpdatePresentationRequest{Requests: requests}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update presentation %s: %w", presentationID, err)
	}
	return resp, nil
}
