package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	surfboardgwp "github.com/swellcycle/surfboard-gwp"
	"github.com/swellcycle/surfboard-gwp/internal/auth"
	"github.com/swellcycle/surfboard-gwp/internal/store"
)

type historyView struct {
	Username string
	Enabled  bool
	Rows     []historyRow
}

type historyRow struct {
	ID             string
	CreatedAt      string
	Username       string
	Materials      string
	ProcessEnergy  string
	Transportation string
	GrandTotal     string
	Warnings       int
}

func newHistoryRow(snapshot store.Snapshot) historyRow {
	transportation := "not computed"
	if snapshot.TransportationValid {
		transportation = surfboardgwp.Emissions(snapshot.Transportation).String()
	}
	return historyRow{
		ID:             snapshot.ID,
		CreatedAt:      snapshot.CreatedAt.Local().Format("2006-01-02 15:04"),
		Username:       snapshot.Username,
		Materials:      surfboardgwp.Emissions(snapshot.Materials).String(),
		ProcessEnergy:  surfboardgwp.Emissions(snapshot.ProcessEnergy).String(),
		Transportation: transportation,
		GrandTotal:     surfboardgwp.Emissions(snapshot.GrandTotal).String(),
		Warnings:       snapshot.Warnings,
	}
}

// handleSave stores a snapshot of the submitted assessment.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "history is disabled", http.StatusNotFound)
		return
	}
	username, _ := auth.UserFromContext(r.Context())

	doc, assessment, err := s.evaluateForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	document, err := json.Marshal(doc)
	if err != nil {
		http.Error(w, "failed to encode assessment", http.StatusInternalServerError)
		return
	}

	snapshot, err := s.history.Save(r.Context(), store.NewSnapshot(username, assessment, document))
	if err != nil {
		slog.Error("failed to save assessment", "err", err.Error())
		http.Error(w, "failed to save assessment", http.StatusInternalServerError)
		return
	}

	slog.Info("assessment saved", "id", snapshot.ID, "user", username)
	http.Redirect(w, r, "/history", http.StatusSeeOther)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.UserFromContext(r.Context())
	view := historyView{Username: username, Enabled: s.history != nil}

	if s.history != nil {
		snapshots, err := s.history.List(r.Context(), historyLimit)
		if err != nil {
			slog.Error("failed to list assessments", "err", err.Error())
			http.Error(w, "failed to load history", http.StatusInternalServerError)
			return
		}
		for _, snapshot := range snapshots {
			view.Rows = append(view.Rows, newHistoryRow(snapshot))
		}
	}

	s.render(w, http.StatusOK, "history.html", view)
}

// handleSnapshot downloads the input document of a saved assessment.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "history is disabled", http.StatusNotFound)
		return
	}

	snapshot, err := s.history.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("failed to load assessment", "id", chi.URLParam(r, "id"), "err", err.Error())
		http.Error(w, "failed to load assessment", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": "assessment_" + snapshot.ID + ".json",
	}))
	w.Write(snapshot.Document)
}
