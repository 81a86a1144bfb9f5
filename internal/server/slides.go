package server

import (
	"net/http"
	"strings"
	"suiteagent/internal/google"

	"github.com/gorilla/mux"
)

func (s *Server) slidesRoutes(r routeGroup) {
	r.HandleFunc("/create", s.handleCreatePresentation).Methods(http.MethodPost)
	r.HandleFunc("/{presentation_id}/read", s.handleReadPresentation).Methods(http.MethodPost)
	r.HandleFunc("/{presentation_id}/slide/create", s.handleCreateSlide).Methods(http.MethodPost)
	r.HandleFunc("/{presentation_id}/element/{element_id}/text/insert", s.handleInsertSlideText).Methods(http.MethodPost)
	r.HandleFunc("/{presentation_id}/element/{element_id}/text/delete", s.handleDeleteSlideText).Methods(http.MethodPost)
	r.HandleFunc("/{presentation_id}/element/{element_id}/text/style", s.handleSlideTextStyle).Methods(http.MethodPost)
	r.HandleFunc("/{presentation_id}/page/{page_id}/background", s.handleSlideBackground).Methods(http.MethodPost)
	r.HandleFunc("/{presentation_id}/page/{page_id}/image/add", s.handleAddImage).Methods(http.MethodPost)
}

// slidesClient resolves the caller's token and opens a Slides client.
func (s *Server) slidesClient(r *http.Request) (*google.SlidesClient, error) {
	token, err := s.accessToken(r)
	if err != nil {
		return nil, err
	}
	return s.google.Slides(r.Context(), token)
}

type textRangeRequest struct {
	StartIndex *int64 `json:"start_index"`
	EndIndex   *int64 `json:"end_index"`
}

func (t *textRangeRequest) bounds() (int64, int64, error) {
	if t.StartIndex == nil || t.EndIndex == nil {
		return 0, 0, invalid("start_index", "start_index and end_index are required")
	}
	if *t.StartIndex < 0 {
		return 0, 0, invalid("start_index", "start_index must not be negative")
	}
	if *t.EndIndex <= *t.StartIndex {
		return 0, 0, invalid("end_index", "end_index must be greater than start_index")
	}
	return *t.StartIndex, *t.EndIndex, nil
}

func validRGB(c *google.RGB) bool {
	in := func(v float64) bool { return v >= 0 && v <= 1 }
	return in(c.Red) && in(c.Green) && in(c.Blue)
}

func (s *Server) handleCreatePresentation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err, "Presentation")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		s.fail(w, r, invalid("title", "title is required"), "Presentation")
		return
	}

	client, err := s.slidesClient(r)
	if err != nil {
		s.fail(w, r, err, "Presentation")
		return
	}
	p, err := client.CreatePresentation(r.Context(), req.Title)
	if err != nil {
		s.fail(w, r, err, "Presentation")
		return
	}
	writeOK(w, envelope{"message": "Presentation created successfully.", "presentation": p})
}

func (s *Server) handleReadPresentation(w http.ResponseWriter, r *http.Request) {
	client, err := s.slidesClient(r)
	if err != nil {
		s.fail(w, r, err, "Presentation")
		return
	}
	p, err := client.GetPresentation(r.Context(), mux.Vars(r)["presentation_id"])
	if err != nil {
		s.fail(w, r, err, "Presentation")
		return
	}
	writeOK(w, envelope{"presentation": p})
}

func (s *Server) handleCreateSlide(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Layout string `json:"layout"`
		Index  *int64 `json:"index"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err, "Presentation")
		return
	}
	if req.Index != nil && *req.Index < 0 {
		s.fail(w, r, invalid("index", "index must not be negative"), "Presentation")
		return
	}

	client, err := s.slidesClient(r)
	if err != nil {
		s.fail(w, r, err, "Presentation")
		return
	}
	slide, err := client.CreateSlide(r.Context(), mux.Vars(r)["presentation_id"], strings.ToUpper(req.Layout), req.Index)
	if err != nil {
		s.fail(w, r, err, "Presentation")
		return
	}
	writeOK(w, envelope{"message": "Slide created successfully.", "slide": slide})
}

func (s *Server) handleInsertSlideText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text           *string `json:"text"`
		InsertionIndex int64   `json:"insertion_index"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err, "Element")
		return
	}
	if req.Text == nil {
		s.fail(w, r, invalid("text", "text is required"), "Element")
		return
	}
	if req.InsertionIndex < 0 {
		s.fail(w, r, invalid("insertion_index", "insertion_index must not be negative"), "Element")
		return
	}

	client, err := s.slidesClient(r)
	if err != nil {
		s.fail(w, r, err, "Element")
		return
	}
	vars := mux.Vars(r)
	resp, err := client.InsertText(r.Context(), vars["presentation_id"], vars["element_id"], *req.Text, req.InsertionIndex)
	if err != nil {
		s.fail(w, r, err, "Element")
		return
	}
	writeOK(w, envelope{"message": "Text inserted.", "details": resp})
}

func (s *Server) handleDeleteSlideText(w http.ResponseWriter, r *http.Request) {
	var req textRangeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err, "Element")
		return
	}
	start, end, err := req.bounds()
	if err != nil {
		s.fail(w, r, err, "Element")
		return
	}

	client, err := s.slidesClient(r)
	if err != nil {
		s.fail(w, r, err, "Element")
		return
	}
	vars := mux.Vars(r)
	resp, err := client.DeleteText(r.Context(), vars["presentation_id"], vars["element_id"], start, end)
	if err != nil {
		s.fail(w, r, err, "Element")
		return
	}
	writeOK(w, envelope{"message": "Text deleted.", "details": resp})
}

func (s *Server) handleSlideTextStyle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		textRangeRequest
		ColorRGB   *google.RGB `json:"color_rgb"`
		Bold       *bool       `json:"bold"`
		Italic     *bool       `json:"italic"`
		FontFamily string      `json:"font_family"`
		FontSizePt float64     `json:"font_size_pt"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err, "Element")
		return
	}
	start, end, err := req.bounds()
	if err != nil {
		s.fail(w, r, err, "Element")
		return
	}
	if req.ColorRGB != nil && !validRGB(req.ColorRGB) {
		s.fail(w, r, invalid("color_rgb", "color_rgb components must be between 0 and 1"), "Element")
		return
	}
	if req.FontSizePt < 0 {
		s.fail(w, r, invalid("font_size_pt", "font_size_pt must be positive"), "Element")
		return
	}

	client, err := s.slidesClient(r)
	if err != nil {
		s.fail(w, r, err, "Element")
		return
	}
	style := google.SlideTextStyle{
		Color:      req.ColorRGB,
		Bold:       req.Bold,
		Italic:     req.Italic,
		FontFamily: req.FontFamily,
		FontSizePt: req.FontSizePt,
	}
	vars := mux.Vars(r)
	resp, ok, err := client.UpdateTextStyle(r.Context(), vars["presentation_id"], vars["element_id"], start, end, style)
	if err != nil {
		s.fail(w, r, err, "Element")
		return
	}
	if !ok {
		writeOK(w, envelope{"message": "Text style updated.", "details": envelope{"warning": "No text style attributes provided."}})
		return
	}
	writeOK(w, envelope{"message": "Text style updated.", "details": resp})
}

func (s *Server) handleSlideBackground(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ColorRGB *google.RGB `json:"color_rgb"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err, "Page")
		return
	}
	if req.ColorRGB == nil {
		s.fail(w, r, invalid("color_rgb", "color_rgb is required"), "Page")
		return
	}
	if !validRGB(req.ColorRGB) {
		s.fail(w, r, invalid("color_rgb", "color_rgb components must be between 0 and 1"), "Page")
		return
	}

	client, err := s.slidesClient(r)
	if err != nil {
		s.fail(w, r, err, "Page")
		return
	}
	vars := mux.Vars(r)
	resp, err := client.SetBackground(r.Context(), vars["presentation_id"], vars["page_id"], *req.ColorRGB)
	if err != nil {
		s.fail(w, r, err, "Page")
		return
	}
	writeOK(w, envelope{"message": "Page background updated.", "details": resp})
}

func (s *Server) handleAddImage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ImageURL string  `json:"image_url"`
		WidthPt  float64 `json:"width_pt"`
		HeightPt float64 `json:"height_pt"`
		XPt      float64 `json:"x_pt"`
		YPt      float64 `json:"y_pt"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err, "Page")
		return
	}
	if req.ImageURL == "" {
		s.fail(w, r, invalid("image_url", "image_url is required"), "Page")
		return
	}
	if req.WidthPt <= 0 || req.HeightPt <= 0 {
		s.fail(w, r, invalid("width_pt", "width_pt and height_pt must be positive"), "Page")
		return
	}

	client, err := s.slidesClient(r)
	if err != nil {
		s.fail(w, r, err, "Page")
		return
	}
	vars := mux.Vars(r)
	at := google.ImagePlacement{WidthPt: req.WidthPt, HeightPt: req.HeightPt, XPt: req.XPt, YPt: req.YPt}
	objectID, resp, err := client.AddImage(r.Context(), vars["presentation_id"], vars["page_id"], req.ImageURL, at)
	if err != nil {
		s.fail(w, r, err, "Page")
		return
	}
	writeOK(w, envelope{"message": "Image added.", "image_object_id": objectID, "details": resp})
}
