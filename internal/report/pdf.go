package report

import (
	"fmt"
	"strconv"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	surfboardgwp "github.com/swellcycle/surfboard-gwp"
)

// pdfTotalHeader avoids glyphs missing from the core PDF fonts.
const pdfTotalHeader = "Total GWP (kg CO2 eq)"

var (
	grey      = &props.Color{Red: 100, Green: 100, Blue: 100}
	ocean     = &props.Color{Red: 11, Green: 79, Blue: 108}
	headerRow = &props.Color{Red: 230, Green: 240, Blue: 245}
)

// PDF renders the summary and the line items of every stage.
func PDF(assessment surfboardgwp.Assessment, meta Meta) (File, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).
		WithTopMargin(12).
		WithRightMargin(12).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   grey,
		}).
		Build()

	m := maroto.New(cfg)

	addPDFHeader(m, meta)
	addPDFSummary(m, assessment)
	for _, stage := range assessment.Stages {
		addPDFStage(m, stage)
	}
	addPDFWarnings(m, assessment.Warnings)

	doc, err := m.Generate()
	if err != nil {
		return File{}, fmt.Errorf("failed to generate gwp pdf: %w", err)
	}

	return File{
		Name:        PDFName,
		ContentType: PDFContentType,
		Data:        doc.GetBytes(),
	}, nil
}

func addPDFHeader(m core.Maroto, meta Meta) {
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(text.New(meta.title(), props.Text{
				Size:  16,
				Style: fontstyle.Bold,
				Align: align.Left,
				Color: ocean,
			})),
		),
	)

	details := ""
	if !meta.CreatedAt.IsZero() {
		details = meta.CreatedAt.Format("2006-01-02 15:04")
	}
	if meta.Username != "" {
		if details != "" {
			details += " | "
		}
		details += meta.Username
	}
	if details != "" {
		m.AddRows(
			row.New(6).Add(
				col.New(12).Add(text.New(details, props.Text{Size: 8, Color: grey})),
			),
		)
	}

	m.AddRows(row.New(4))
}

func addPDFSummary(m core.Maroto, assessment surfboardgwp.Assessment) {
	header := props.Text{Size: 9, Style: fontstyle.Bold, Top: 1.5}
	m.AddRows(
		row.New(8).WithStyle(&props.Cell{BackgroundColor: headerRow}).Add(
			col.New(8).Add(text.New("Component", header)),
			col.New(4).Add(text.New(pdfTotalHeader, props.Text{Size: 9, Style: fontstyle.Bold, Top: 1.5, Align: align.Right})),
		),
	)

	for _, summary := range Summary(assessment) {
		total := formatTotal(summary.Total, summary.Valid)
		if total == "" {
			total = "not computed"
		}
		m.AddRows(
			row.New(7).Add(
				col.New(8).Add(text.New(summary.Component, props.Text{Size: 9, Top: 1})),
				col.New(4).Add(text.New(total, props.Text{Size: 9, Top: 1, Align: align.Right})),
			),
		)
	}

	m.AddRows(
		row.New(8).Add(
			col.New(8).Add(text.New("Total", props.Text{Size: 10, Style: fontstyle.Bold, Top: 1.5})),
			col.New(4).Add(text.New(assessment.GrandTotal.String(), props.Text{Size: 10, Style: fontstyle.Bold, Top: 1.5, Align: align.Right})),
		),
		row.New(6),
	)
}

func addPDFStage(m core.Maroto, stage surfboardgwp.StageTotal) {
	m.AddRows(
		row.New(9).Add(
			col.New(12).Add(text.New(stage.Stage.Title(), props.Text{Size: 11, Style: fontstyle.Bold, Color: ocean})),
		),
	)

	if !stage.Valid {
		m.AddRows(
			row.New(7).Add(
				col.New(12).Add(text.New("Stage total not computed, see warnings.", props.Text{Size: 8, Color: grey})),
			),
			row.New(4),
		)
		return
	}

	header := props.Text{Size: 8, Style: fontstyle.Bold, Top: 1}
	right := props.Text{Size: 8, Style: fontstyle.Bold, Top: 1, Align: align.Right}
	m.AddRows(
		row.New(7).WithStyle(&props.Cell{BackgroundColor: headerRow}).Add(
			col.New(5).Add(text.New("Item", header)),
			col.New(2).Add(text.New("Quantity", right)),
			col.New(2).Add(text.New("Factor", right)),
			col.New(3).Add(text.New("kg CO2 eq", right)),
		),
	)

	cell := props.Text{Size: 8, Top: 1}
	cellRight := props.Text{Size: 8, Top: 1, Align: align.Right}
	for _, item := range stage.Items {
		quantity := strconv.FormatFloat(surfboardgwp.Round(item.Quantity), 'f', -1, 64) + " " + item.Unit
		m.AddRows(
			row.New(6).Add(
				col.New(5).Add(text.New(item.Name, cell)),
				col.New(2).Add(text.New(quantity, cellRight)),
				col.New(2).Add(text.New(strconv.FormatFloat(item.EmissionFactor, 'g', -1, 64), cellRight)),
				col.New(3).Add(text.New(item.Total.String(), cellRight)),
			),
		)
	}

	m.AddRows(
		row.New(7).Add(
			col.New(9).Add(text.New("Stage total", props.Text{Size: 8, Style: fontstyle.Bold, Top: 1})),
			col.New(3).Add(text.New(stage.Total.String(), right)),
		),
		row.New(4),
	)
}

func addPDFWarnings(m core.Maroto, warnings []surfboardgwp.Warning) {
	if len(warnings) == 0 {
		return
	}

	m.AddRows(
		row.New(9).Add(
			col.New(12).Add(text.New("Warnings", props.Text{Size: 11, Style: fontstyle.Bold, Color: ocean})),
		),
	)
	for _, w := range warnings {
		m.AddRows(
			row.New(6).Add(
				col.New(12).Add(text.New(w.Message(), props.Text{Size: 8})),
			),
		)
	}
}
