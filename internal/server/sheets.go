package server

import (
	"net/http"
	"strings"
	"suiteagent/internal/google"

	"github.com/gorilla/mux"
)

const defaultHeaderRows = 1

func (s *Server) sheetsRoutes(r routeGroup) {
	r.HandleFunc("/{spreadsheet_id}/cell/update", s.handleUpdateCell).Methods(http.MethodPost)
	r.HandleFunc("/{spreadsheet_id}/rows/append", s.handleAppendRows).Methods(http.MethodPost)
	r.HandleFunc("/{spreadsheet_id}/rows/delete", s.handleDeleteRows).Methods(http.MethodPost)
	r.HandleFunc("/{spreadsheet_id}/tabs/create", s.handleCreateTab).Methods(http.MethodPost)
	r.HandleFunc("/{spreadsheet_id}/values/clear", s.handleClearValues).Methods(http.MethodPost)
	r.HandleFunc("/{spreadsheet_id}/metadata", s.handleSheetMetadata).Methods(http.MethodPost)
	r.HandleFunc("/{spreadsheet_id}/deduplicate", s.handleDeduplicate).Methods(http.MethodPost)
}

// sheetsClient resolves the caller's token and opens a Sheets client.
func (s *Server) sheetsClient(r *http.Request) (*google.SheetsClient, error) {
	token, err := s.accessToken(r)
	if err != nil {
		return nil, err
	}
	return s.google.Sheets(r.Context(), token)
}

func valueInputOption(v string) string {
	if v == "" {
		return google.DefaultValueInputOption
	}
	return strings.ToUpper(v)
}

func (s *Server) handleUpdateCell(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CellRange        string      `json:"cell_range"`
		NewValue         interface{} `json:"new_value"`
		ValueInputOption string      `json:"value_input_option"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err, "Spreadsheet")
		return
	}
	if req.CellRange == "" {
		s.fail(w, r, invalid("cell_range", "cell_range is required"), "Spreadsheet")
		return
	}
	if req.NewValue == nil {
		s.fail(w, r, invalid("new_value", "new_value is required"), "Spreadsheet")
		return
	}

	client, err := s.sheetsClient(r)
	if err != nil {
		s.fail(w, r, err, "Spreadsheet")
		return
	}
	resp, err := client.UpdateCell(r.Context(), mux.Vars(r)["spreadsheet_id"], req.CellRange, req.NewValue, valueInputOption(req.ValueInputOption))
	if err != nil {
		s.fail(w, r, err, "Spreadsheet")
		return
	}
	writeOK(w, envelope{"message": "Cell updated successfully.", "details": resp})
}

func (s *Server) handleAppendRows(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RangeName        string          `json:"range_name"`
		ValuesData       [][]interface{} `json:"values_data"`
		ValueInputOption string          `json:"value_input_option"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err, "Spreadsheet")
		return
	}
	if req.RangeName == "" {
		s.fail(w, r, invalid("range_name", "range_name is required"), "Spreadsheet")
		return
	}
	if len(req.ValuesData) == 0 {
		s.fail(w, r, invalid("values_data", "values_data must be a non-empty list of rows"), "Spreadsheet")
		return
	}

	client, err := s.sheetsClient(r)
	if err != nil {
		s.fail(w, r, err, "Spreadsheet")
		return
	}
	updates, err := client.AppendRows(r.Context(), mux.Vars(r)["spreadsheet_id"], req.RangeName, req.ValuesData, valueInputOption(req.ValueInputOption))
	if err != nil {
		s.fail(w, r, err, "Spreadsheet")
		return
	}
	writeOK(w, envelope{"message": "Rows appended successfully.", "details": updates})
}

func (s *Server) handleDeleteRows(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SheetID       *int64 `json:"sheet_id"`
		StartRowIndex *int64 `json:"start_row_index"`
		EndRowIndex   *int64 `json:"end_row_index"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err, "Spreadsheet")
		return
	}
	switch {
	case req.SheetID == nil:
		s.fail(w, r, invalid("sheet_id", "sheet_id is required"), "Spreadsheet")
		return
	case req.StartRowIndex == nil || req.EndRowIndex == nil:
		s.fail(w, r, invalid("start_row_index", "start_row_index and end_row_index are required"), "Spreadsheet")
		return
	case *req.StartRowIndex < 0:
		s.fail(w, r, invalid("start_row_index", "start_row_index must not be negative"), "Spreadsheet")
		return
	case *req.EndRowIndex <= *req.StartRowIndex:
		s.fail(w, r, invalid("end_row_index", "end_row_index must be greater than start_row_index"), "Spreadsheet")
		return
	}

	client, err := s.sheetsClient(r)
	if err != nil {
		s.fail(w, r, err, "Spreadsheet")
		return
	}
	resp, err := client.DeleteRows(r.Context(), mux.Vars(r)["spreadsheet_id"], *req.SheetID, *req.StartRowIndex, *req.EndRowIndex)
	if err != nil {
		s.fail(w, r, err, "Spreadsheet")
		return
	}
	writeOK(w, envelope{"message": "Row deletion request processed.", "details": resp})
}

func (s *Server) handleCreateTab(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewSheetTitle string `json:"new_sheet_title"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err, "Spreadsheet")
		return
	}
	if strings.TrimSpace(req.NewSheetTitle) == "" {
		s.fail(w, r, invalid("new_sheet_title", "new_sheet_title is required"), "Spreadsheet")
		return
	}

	client, err := s.sheetsClient(r)
	if err != nil {
		s.fail(w, r, err, "Spreadsheet")
		return
	}
	props, err := client.AddSheet(r.Context(), mux.Vars(r)["spreadsheet_id"], req.NewSheetTitle)
	if err != nil {
		s.fail(w, r, err, "Spreadsheet")
		return
	}
	writeOK(w, envelope{"message": "New tab/sheet created successfully.", "new_sheet_properties": props})
}

func (s *Server) handleClearValues(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RangeName string `json:"range_name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err, "Spreadsheet")
		return
	}
	if req.RangeName == "" {
		s.fail(w, r, invalid("range_name", "range_name is required"), "Spreadsheet")
		return
	}

	client, err := s.sheetsClient(r)
	if err != nil {
		s.fail(w, r, err, "Spreadsheet")
		return
	}
	resp, err := client.ClearValues(r.Context(), mux.Vars(r)["spreadsheet_id"], req.RangeName)
	if err != nil {
		s.fail(w, r, err, "Spreadsheet")
		return
	}
	writeOK(w, envelope{"message": "Values cleared successfully.", "details": resp})
}

func (s *Server) handleSheetMetadata(w http.ResponseWriter, r *http.Request) {
	client, err := s.sheetsClient(r)
	if err != nil {
		s.fail(w, r, err, "Spreadsheet")
		return
	}
	meta, err := client.Metadata(r.Context(), mux.Vars(r)["spreadsheet_id"])
	if err != nil {
		s.fail(w, r, err, "Spreadsheet")
		return
	}
	writeOK(w, envelope{"metadata": meta})
}

type dedupRequest struct {
	SheetName  string `json:"sheet_name"`
	SheetID    *int64 `json:"sheet_id"`
	KeyColumns []int  `json:"key_columns"`
	HeaderRows *int   `json:"header_rows"`
	Keep       string `json:"keep"`
}

func (d *dedupRequest) validate() (google.SheetRef, int, google.Keep, error) {
	if d.SheetName == "" && d.SheetID == nil {
		return google.SheetRef{}, 0, "", invalid("sheet_name", "Either sheet_name or sheet_id is required")
	}
	if len(d.KeyColumns) == 0 {
		return google.SheetRef{}, 0, "", invalid("key_columns", "key_columns must be a non-empty list of column indices")
	}
	for _, c := range d.KeyColumns {
		if c < 0 {
			return google.SheetRef{}, 0, "", invalid("key_columns", "key_columns must contain non-negative 0-based indices, got %d", c)
		}
	}

	headerRows := defaultHeaderRows
	if d.HeaderRows != nil {
		headerRows = *d.HeaderRows
	}
	if headerRows < 0 {
		return google.SheetRef{}, 0, "", invalid("header_rows", "header_rows must not be negative")
	}

	keep, err := google.ParseKeep(d.Keep)
	if err != nil {
		return google.SheetRef{}, 0, "", invalid("keep", "%v", err)
	}
	return google.SheetRef{ID: d.SheetID, Title: d.SheetName}, headerRows, keep, nil
}

func (s *Server) handleDeduplicate(w http.ResponseWriter, r *http.Request) {
	var req dedupRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err, "Sheet")
		return
	}
	ref, headerRows, keep, err := req.validate()
	if err != nil {
		s.fail(w, r, err, "Sheet")
		return
	}

	client, err := s.sheetsClient(r)
	if err != nil {
		s.fail(w, r, err, "Sheet")
		return
	}
	res, err := client.Deduplicate(r.Context(), mux.Vars(r)["spreadsheet_id"], ref, req.KeyColumns, headerRows, keep)
	if err != nil {
		s.fail(w, r, err, "Sheet")
		return
	}

	body := envelope{"message": res.Message, "rows_deleted_count": len(res.Deleted)}
	if len(res.Deleted) > 0 {
		body["deleted_row_indices_0_based"] = res.Deleted
	}
	writeOK(w, body)
}
