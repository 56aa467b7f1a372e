package server

import (
	"fmt"
	"html/template"
	"strconv"

	surfboardgwp "github.com/swellcycle/surfboard-gwp"
	"github.com/swellcycle/surfboard-gwp/internal/input"
	"github.com/swellcycle/surfboard-gwp/internal/report"
	"github.com/swellcycle/surfboard-gwp/model"
)

// spareRows is the number of blank rows offered under every input section.
const spareRows = 1

// chart geometry, in svg user units
const (
	chartWidth      = 560
	chartLabelWidth = 170
	chartValueWidth = 110
	chartBarHeight  = 20
	chartBarGap     = 8
)

var templateFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

type dashboardView struct {
	Username       string
	SolarPercent   string
	Sections       []sectionView
	Stages         []stageView
	Summary        []summaryView
	GrandTotal     string
	ShareChart     chartView
	Warnings       []string
	HistoryEnabled bool
}

type sectionView struct {
	Title   string
	Section string
	Fields  []model.Field
	Rows    [][]cellView
}

type cellView struct {
	Name    string
	Value   string
	Label   string
	Numeric bool
}

type stageView struct {
	Title string
	Valid bool
	Total string
	Items []itemView
	Chart chartView
}

type itemView struct {
	Name     string
	Quantity string
	Unit     string
	Factor   string
	Total    string
}

type summaryView struct {
	Component string
	Total     string
}

type chartView struct {
	Width  int
	Height int
	Bars   []barView
}

type barView struct {
	Label  string
	Value  string
	Y      int
	TextY  int
	X      int
	Width  float64
	ValueX float64
}

func newDashboardView(username string, doc input.Document, assessment surfboardgwp.Assessment, historyEnabled bool) dashboardView {
	view := dashboardView{
		Username:       username,
		SolarPercent:   string(doc.SolarPercent),
		GrandTotal:     assessment.GrandTotal.String(),
		HistoryEnabled: historyEnabled,
	}

	values := doc.Values()
	for _, def := range model.StageDefinitions {
		section := sectionView{
			Title:   def.Stage.Title(),
			Section: def.Section,
			Fields:  def.Fields,
		}
		for i := range rowCount(doc, def.Section) + spareRows {
			row := make([]cellView, 0, len(def.Fields))
			for _, field := range def.Fields {
				name := def.Section + "." + strconv.Itoa(i) + "." + field.Key
				row = append(row, cellView{
					Name:    name,
					Value:   values.Get(name),
					Label:   field.Label,
					Numeric: field.Numeric,
				})
			}
			section.Rows = append(section.Rows, row)
		}
		view.Sections = append(view.Sections, section)
	}

	for _, stage := range assessment.Stages {
		sv := stageView{
			Title: stage.Stage.Title(),
			Valid: stage.Valid,
			Total: stage.Total.String(),
		}
		labels := make([]string, 0, len(stage.Items))
		totals := make([]float64, 0, len(stage.Items))
		for _, item := range stage.Items {
			sv.Items = append(sv.Items, itemView{
				Name:     item.Name,
				Quantity: strconv.FormatFloat(surfboardgwp.Round(item.Quantity), 'f', -1, 64),
				Unit:     item.Unit,
				Factor:   strconv.FormatFloat(item.EmissionFactor, 'g', -1, 64),
				Total:    item.Total.String(),
			})
			labels = append(labels, item.Name)
			totals = append(totals, item.Total.KgCO2eq())
		}
		sv.Chart = newBarChart(labels, totals, func(i int) string {
			return strconv.FormatFloat(surfboardgwp.Round(totals[i]), 'f', surfboardgwp.DisplayPrecision, 64)
		})
		view.Stages = append(view.Stages, sv)
	}

	labels := make([]string, 0, len(surfboardgwp.Stages))
	totals := make([]float64, 0, len(surfboardgwp.Stages))
	for _, row := range report.Summary(assessment) {
		total := "not computed"
		if row.Valid {
			total = row.Total.String()
		}
		view.Summary = append(view.Summary, summaryView{Component: row.Component, Total: total})
		labels = append(labels, row.Component)
		totals = append(totals, row.Total.KgCO2eq())
	}
	view.ShareChart = newBarChart(labels, totals, func(i int) string {
		return fmt.Sprintf("%.1f%%", assessment.Share(surfboardgwp.Stages[i]))
	})

	for _, w := range assessment.Warnings {
		view.Warnings = append(view.Warnings, w.Message())
	}
	return view
}

func rowCount(doc input.Document, section string) int {
	switch section {
	case "materials":
		return len(doc.Materials)
	case "processes":
		return len(doc.Processes)
	case "transport":
		return len(doc.Transport)
	}
	return 0
}

// newBarChart lays out one horizontal bar per value, scaled on the largest.
func newBarChart(labels []string, values []float64, format func(i int) string) chartView {
	chart := chartView{
		Width:  chartWidth,
		Height: len(values)*(chartBarHeight+chartBarGap) + chartBarGap,
	}

	largest := 0.0
	for _, v := range values {
		largest = max(largest, v)
	}

	barSpace := float64(chartWidth - chartLabelWidth - chartValueWidth)
	for i, v := range values {
		width := 0.0
		if largest > 0 {
			width = v / largest * barSpace
		}
		y := chartBarGap + i*(chartBarHeight+chartBarGap)
		chart.Bars = append(chart.Bars, barView{
			Label:  labels[i],
			Value:  format(i),
			Y:      y,
			TextY:  y + chartBarHeight*3/4,
			X:      chartLabelWidth,
			Width:  width,
			ValueX: chartLabelWidth + width + 6,
		})
	}
	return chart
}
