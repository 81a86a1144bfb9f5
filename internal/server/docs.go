package server

import (
	"net/http"
	"slices"
	"strings"
	"suiteagent/internal/google"

	"github.com/gorilla/mux"
)

func (s *Server) docsRoutes(r routeGroup) {
	r.HandleFunc("/create", s.handleCreateDocument).Methods(http.MethodPost)
	r.HandleFunc("/{document_id}/read", s.handleReadDocument).Methods(http.MethodPost)
	r.HandleFunc("/{document_id}/insert_text", s.handleInsertDocText).Methods(http.MethodPost)
	r.HandleFunc("/{document_id}/delete_range", s.handleDeleteDocRange).Methods(http.MethodPost)
	r.HandleFunc("/{document_id}/format/paragraph", s.handleFormatParagraph).Methods(http.MethodPost)
	r.HandleFunc("/{document_id}/format/text", s.handleFormatDocText).Methods(http.MethodPost)
	r.HandleFunc("/{document_id}/insert_table", s.handleInsertTable).Methods(http.MethodPost)
}

type docRangeRequest struct {
	StartIndex *int64 `json:"start_index"`
	EndIndex   *int64 `json:"end_index"`
	SegmentID  string `json:"segment_id"`
}

// bounds checks that both indices are present, start is at least lowest and end follows start.
func (d *docRangeRequest) bounds(lowest int64) (int64, int64, error) {
	if d.StartIndex == nil || d.EndIndex == nil {
		return 0, 0, invalid("start_index", "start_index and end_index are required")
	}
	start, end := *d.StartIndex, *d.EndIndex
	if start < lowest {
		return 0, 0, invalid("start_index", "start_index must be at least %d", lowest)
	}
	if end <= start {
		return 0, 0, invalid("end_index", "end_index must be greater than start_index")
	}
	return start, end, nil
}

// docsClient resolves the caller's token and opens a Docs client.
func (s *Server) docsClient(r *http.Request) (*google.DocsClient, error) {
	token, err := s.accessToken(r)
	if err != nil {
		return nil, err
	}
	return s.google.Docs(r.Context(), token)
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err, "Document")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		s.fail(w, r, invalid("title", "title is required"), "Document")
		return
	}

	client, err := s.docsClient(r)
	if err != nil {
		s.fail(w, r, err, "Document")
		return
	}
	doc, err := client.CreateDocument(r.Context(), req.Title)
	if err != nil {
		s.fail(w, r, err, "Document")
		return
	}
	writeOK(w, envelope{"message": "Document created successfully.", "document": doc})
}

func (s *Server) handleReadDocument(w http.ResponseWriter, r *http.Request) {
	client, err := s.docsClient(r)
	if err != nil {
		s.fail(w, r, err, "Document")
		return
	}
	doc, err := client.GetDocument(r.Context(), mux.Vars(r)["document_id"])
	if err != nil {
		s.fail(w, r, err, "Document")
		return
	}
	writeOK(w, envelope{"document": doc})
}

func (s *Server) handleInsertDocText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text          *string `json:"text"`
		LocationIndex *int64  `json:"location_index"`
		SegmentID     string  `json:"segment_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err, "Document")
		return
	}
	if req.Text == nil {
		s.fail(w, r, invalid("text", "text is required"), "Document")
		return
	}
	if req.LocationIndex != nil && *req.LocationIndex < 1 {
		s.fail(w, r, invalid("location_index", "location_index must be at least 1"), "Document")
		return
	}

	client, err := s.docsClient(r)
	if err != nil {
		s.fail(w, r, err, "Document")
		return
	}
	resp, err := client.InsertText(r.Context(), mux.Vars(r)["document_id"], *req.Text, req.LocationIndex, req.SegmentID)
	if err != nil {
		s.fail(w, r, err, "Document")
		return
	}
	writeOK(w, envelope{"message": "Text inserted successfully.", "details": resp})
}

func (s *Server) handleDeleteDocRange(w http.ResponseWriter, r *http.Request) {
	var req docRangeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err, "Document")
		return
	}
	start, end, err := req.bounds(1)
	if err != nil {
		s.fail(w, r, err, "Document")
		return
	}

	client, err := s.docsClient(r)
	if err != nil {
		s.fail(w, r, err, "Document")
		return
	}
	resp, err := client.DeleteRange(r.Context(), mux.Vars(r)["document_id"], start, end, req.SegmentID)
	if err != nil {
		s.fail(w, r, err, "Document")
		return
	}
	writeOK(w, envelope{"message": "Content deleted successfully.", "details": resp})
}

func (s *Server) handleFormatParagraph(w http.ResponseWriter, r *http.Request) {
	var req struct {
		docRangeRequest
		StyleType string `json:"style_type"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err, "Document")
		return
	}
	start, end, err := req.bounds(0)
	if err != nil {
		s.fail(w, r, err, "Document")
		return
	}
	style := strings.ToUpper(strings.TrimSpace(req.StyleType))
	if !slices.Contains(google.ParagraphStyles, style) {
		s.fail(w, r, invalid("style_type", "style_type must be one of %s", strings.Join(google.ParagraphStyles, ", ")), "Document")
		return
	}

	client, err := s.docsClient(r)
	if err != nil {
		s.fail(w, r, err, "Document")
		return
	}
	resp, err := client.FormatParagraph(r.Context(), mux.Vars(r)["document_id"], start, end, style, req.SegmentID)
	if err != nil {
		s.fail(w, r, err, "Document")
		return
	}
	writeOK(w, envelope{"message": "Paragraph style updated.", "details": resp})
}

func (s *Server) handleFormatDocText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		docRangeRequest
		Bold      *bool `json:"bold"`
		Italic    *bool `json:"italic"`
		Underline *bool `json:"underline"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err, "Document")
		return
	}
	start, end, err := req.bounds(0)
	if err != nil {
		s.fail(w, r, err, "Document")
		return
	}
	if req.Bold == nil && req.Italic == nil && req.Underline == nil {
		s.fail(w, r, invalid("bold", "At least one formatting option (bold, italic, underline) must be provided."), "Document")
		return
	}

	client, err := s.docsClient(r)
	if err != nil {
		s.fail(w, r, err, "Document")
		return
	}
	style := google.TextStyle{Bold: req.Bold, Italic: req.Italic, Underline: req.Underline}
	resp, err := client.FormatText(r.Context(), mux.Vars(r)["document_id"], start, end, style, req.SegmentID)
	if err != nil {
		s.fail(w, r, err, "Document")
		return
	}
	writeOK(w, envelope{"message": "Text style updated.", "details": resp})
}

func (s *Server) handleInsertTable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rows          int64  `json:"rows"`
		Columns       int64  `json:"columns"`
		LocationIndex *int64 `json:"location_index"`
		SegmentID     string `json:"segment_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err, "Document")
		return
	}
	if req.Rows < 1 || req.Columns < 1 {
		s.fail(w, r, invalid("rows", "rows and columns must be positive integers"), "Document")
		return
	}

	client, err := s.docsClient(r)
	if err != nil {
		s.fail(w, r, err, "Document")
		return
	}
	resp, err := client.InsertTable(r.Context(), mux.Vars(r)["document_id"], req.Rows, req.Columns, req.LocationIndex, req.SegmentID)
	if err != nil {
		s.fail(w, r, err, "Document")
		return
	}
	writeOK(w, envelope{"message": "Table inserted successfully.", "details": resp})
}
