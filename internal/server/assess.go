package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	surfboardgwp "github.com/swellcycle/surfboard-gwp"
	"github.com/swellcycle/surfboard-gwp/internal/archive"
	"github.com/swellcycle/surfboard-gwp/internal/auth"
	"github.com/swellcycle/surfboard-gwp/internal/input"
	"github.com/swellcycle/surfboard-gwp/internal/report"
	"github.com/swellcycle/surfboard-gwp/model"
)

// evaluateForm recomputes the assessment from the submitted form.
func (s *Server) evaluateForm(r *http.Request) (input.Document, surfboardgwp.Assessment, error) {
	if err := r.ParseForm(); err != nil {
		return input.Document{}, surfboardgwp.Assessment{}, fmt.Errorf("invalid form: %w", err)
	}

	doc, err := input.ParseForm(r.PostForm)
	if err != nil {
		return input.Document{}, surfboardgwp.Assessment{}, err
	}
	doc = doc.Compact()

	req, warnings := input.Resolve(doc, s.evaluator.Defaults)
	return doc, s.evaluator.Evaluate(req, warnings), nil
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.UserFromContext(r.Context())

	doc := input.Encode(model.Baseline(s.evaluator.Defaults))
	req, warnings := input.Resolve(doc, s.evaluator.Defaults)
	assessment := s.evaluator.Evaluate(req, warnings)

	s.render(w, http.StatusOK, "dashboard.html", newDashboardView(username, doc, assessment, s.history != nil))
}

func (s *Server) handleAssessForm(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.UserFromContext(r.Context())

	doc, assessment, err := s.evaluateForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.render(w, http.StatusOK, "dashboard.html", newDashboardView(username, doc, assessment, s.history != nil))
}

// handleExport renders the submitted assessment in the requested format.
// When an archive is configured the file is also uploaded under a new
// report id.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.UserFromContext(r.Context())

	_, assessment, err := s.evaluateForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	meta := report.Meta{Username: username, CreatedAt: time.Now()}
	var file report.File
	switch chi.URLParam(r, "format") {
	case "csv":
		file, err = report.CSV(assessment)
	case "xlsx":
		file, err = report.XLSX(assessment, meta)
	case "pdf":
		file, err = report.PDF(assessment, meta)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("failed to render report", "err", err.Error())
		http.Error(w, "failed to render report", http.StatusInternalServerError)
		return
	}

	if s.archive != nil {
		reportID := uuid.NewString()
		err := archive.UploadAll(r.Context(), s.archive, reportID, []archive.Object{
			{Name: file.Name, ContentType: file.ContentType, Data: file.Data},
		})
		if err != nil {
			slog.Error("failed to archive report", "report_id", reportID, "err", err.Error())
		} else {
			slog.Info("report archived", "report_id", reportID, "file", file.Name)
			w.Header().Set("X-Report-Id", reportID)
		}
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	if _, err := w.Write(file.Data); err != nil {
		slog.Debug("failed to write report", "err", err.Error())
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type assessmentResponse struct {
	Stages     []stageResponse   `json:"stages"`
	GrandTotal float64           `json:"grand_total_kgco2eq"`
	Warnings   []warningResponse `json:"warnings"`
}

type stageResponse struct {
	Stage string         `json:"stage"`
	Valid bool           `json:"valid"`
	Total *float64       `json:"total_kgco2eq"`
	Items []itemResponse `json:"items"`
}

type itemResponse struct {
	Name           string  `json:"name"`
	Quantity       float64 `json:"quantity"`
	Unit           string  `json:"unit"`
	EmissionFactor float64 `json:"emission_factor"`
	TotalGWP       float64 `json:"total_gwp"`
}

type warningResponse struct {
	Field      string  `json:"field"`
	Raw        string  `json:"raw"`
	Substitute float64 `json:"substitute"`
	Message    string  `json:"message"`
}

func newAssessmentResponse(assessment surfboardgwp.Assessment) assessmentResponse {
	resp := assessmentResponse{
		Stages:     make([]stageResponse, 0, len(assessment.Stages)),
		GrandTotal: assessment.GrandTotal.Rounded(),
		Warnings:   make([]warningResponse, 0, len(assessment.Warnings)),
	}

	for _, stage := range assessment.Stages {
		sr := stageResponse{
			Stage: string(stage.Stage),
			Valid: stage.Valid,
			Items: make([]itemResponse, 0, len(stage.Items)),
		}
		if stage.Valid {
			total := stage.Total.Rounded()
			sr.Total = &total
		}
		for _, item := range stage.Items {
			sr.Items = append(sr.Items, itemResponse{
				Name:           item.Name,
				Quantity:       item.Quantity,
				Unit:           item.Unit,
				EmissionFactor: item.EmissionFactor,
				TotalGWP:       item.Total.Rounded(),
			})
		}
		resp.Stages = append(resp.Stages, sr)
	}

	for _, w := range assessment.Warnings {
		resp.Warnings = append(resp.Warnings, warningResponse{
			Field:      w.Field,
			Raw:        w.Raw,
			Substitute: w.Substitute,
			Message:    w.Message(),
		})
	}
	return resp
}

func (s *Server) handleAPIAssess(w http.ResponseWriter, r *http.Request) {
	doc, err := input.ParseJSON(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	req, warnings := input.Resolve(doc, s.evaluator.Defaults)
	writeJSON(w, http.StatusOK, newAssessmentResponse(s.evaluator.Evaluate(req, warnings)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode json response", "err", err.Error())
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		slog.Debug("failed to write json response", "err", err.Error())
	}
}
