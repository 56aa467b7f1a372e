// Package report renders assessments as downloadable CSV, XLSX and PDF files.
package report

import (
	"fmt"
	"time"

	surfboardgwp "github.com/swellcycle/surfboard-gwp"
)

// Download file names.
const (
	CSVName  = "gwp_summary.csv"
	XLSXName = "gwp_report.xlsx"
	PDFName  = "gwp_report.pdf"
)

// Content types of the generated files.
const (
	CSVContentType  = "text/csv; charset=utf-8"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	PDFContentType  = "application/pdf"
)

// TotalHeader is the header of the total column of the summary.
const TotalHeader = "Total GWP (kg CO₂ eq)"

// File is a generated report.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Meta describes the context a report is generated in.
type Meta struct {
	Title     string
	Username  string
	CreatedAt time.Time
}

func (m Meta) title() string {
	if m.Title == "" {
		return "Surfboard GWP assessment"
	}
	return m.Title
}

// SummaryRow is one line of the stage summary.
type SummaryRow struct {
	Component string
	Total     surfboardgwp.Emissions
	Valid     bool
}

// Summary returns one row per stage in display order.
func Summary(assessment surfboardgwp.Assessment) []SummaryRow {
	rows := make([]SummaryRow, 0, len(surfboardgwp.Stages))
	for _, stage := range surfboardgwp.Stages {
		total, found := assessment.Stage(stage)
		rows = append(rows, SummaryRow{
			Component: stage.Component(),
			Total:     total.Total,
			Valid:     found && total.Valid,
		})
	}
	return rows
}

// formatTotal renders a total, empty when the stage has no total.
func formatTotal(total surfboardgwp.Emissions, valid bool) string {
	if !valid {
		return ""
	}
	return total.String()
}

// All renders every report format.
func All(assessment surfboardgwp.Assessment, meta Meta) ([]File, error) {
	renderers := []func(surfboardgwp.Assessment, Meta) (File, error){
		func(a surfboardgwp.Assessment, _ Meta) (File, error) { return CSV(a) },
		XLSX,
		PDF,
	}

	files := make([]File, 0, len(renderers))
	for _, render := range renderers {
		file, err := render(assessment, meta)
		if err != nil {
			return nil, fmt.Errorf("failed to render report: %w", err)
		}
		files = append(files, file)
	}
	return files, nil
}
