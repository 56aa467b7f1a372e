package report

import (
	"fmt"

	surfboardgwp "github.com/swellcycle/surfboard-gwp"
	"github.com/xuri/excelize/v2"
)

const summarySheet = "Summary"

// XLSX renders a workbook with the stage summary, a pie chart of the stage
// totals, one sheet of line items per stage and the input warnings.
func XLSX(assessment surfboardgwp.Assessment, meta Meta) (File, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return File{}, fmt.Errorf("set sheet name: %w", err)
	}

	styles, err := newSheetStyles(f)
	if err != nil {
		return File{}, err
	}

	if err := writeSummarySheet(f, styles, assessment, meta); err != nil {
		return File{}, err
	}

	for _, stage := range assessment.Stages {
		if err := writeStageSheet(f, styles, stage); err != nil {
			return File{}, err
		}
	}

	if len(assessment.Warnings) > 0 {
		if err := writeWarningsSheet(f, styles, assessment.Warnings); err != nil {
			return File{}, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return File{}, fmt.Errorf("write workbook: %w", err)
	}

	return File{
		Name:        XLSXName,
		ContentType: XLSXContentType,
		Data:        buf.Bytes(),
	}, nil
}

type sheetStyles struct {
	title  int
	header int
	cell   int
	number int
	total  int
}

func newSheetStyles(f *excelize.File) (sheetStyles, error) {
	var (
		styles sheetStyles
		err    error
	)

	styles.title, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16},
	})
	if err != nil {
		return styles, fmt.Errorf("create title style: %w", err)
	}

	// bold white text on a deep ocean background
	styles.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#0B4F6C"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return styles, fmt.Errorf("create header style: %w", err)
	}

	styles.cell, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Size: 10},
		Border: thinBorders(),
	})
	if err != nil {
		return styles, fmt.Errorf("create cell style: %w", err)
	}

	numFmt := "0.000"
	styles.number, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Size: 10},
		Border:       thinBorders(),
		CustomNumFmt: &numFmt,
	})
	if err != nil {
		return styles, fmt.Errorf("create number style: %w", err)
	}

	styles.total, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true, Size: 11},
		Border:       thinBorders(),
		CustomNumFmt: &numFmt,
	})
	if err != nil {
		return styles, fmt.Errorf("create total style: %w", err)
	}

	return styles, nil
}

func writeSummarySheet(f *excelize.File, styles sheetStyles, assessment surfboardgwp.Assessment, meta Meta) error {
	if err := f.SetColWidth(summarySheet, "A", "A", 22); err != nil {
		return fmt.Errorf("set summary width: %w", err)
	}
	if err := f.SetColWidth(summarySheet, "B", "B", 24); err != nil {
		return fmt.Errorf("set summary width: %w", err)
	}

	f.SetCellValue(summarySheet, "A1", sanitizeExcelCell(meta.title()))
	f.SetCellStyle(summarySheet, "A1", "A1", styles.title)
	if !meta.CreatedAt.IsZero() {
		f.SetCellValue(summarySheet, "A2", "Date: "+meta.CreatedAt.Format("2006-01-02 15:04"))
	}
	if meta.Username != "" {
		f.SetCellValue(summarySheet, "B2", "By: "+sanitizeExcelCell(meta.Username))
	}

	f.SetCellValue(summarySheet, "A4", "Component")
	f.SetCellValue(summarySheet, "B4", TotalHeader)
	f.SetCellStyle(summarySheet, "A4", "B4", styles.header)

	row := 5
	for _, summary := range Summary(assessment) {
		f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), summary.Component)
		f.SetCellStyle(summarySheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), styles.cell)
		if summary.Valid {
			f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), summary.Total.Rounded())
		} else {
			f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), "not computed")
		}
		f.SetCellStyle(summarySheet, fmt.Sprintf("B%d", row), fmt.Sprintf("B%d", row), styles.number)
		row++
	}
	lastStageRow := row - 1

	f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), "Total")
	f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), assessment.GrandTotal.Rounded())
	f.SetCellStyle(summarySheet, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), styles.total)

	err := f.AddChart(summarySheet, "D4", &excelize.Chart{
		Type: excelize.Pie,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$4", summarySheet),
			Categories: fmt.Sprintf("%s!$A$5:$A$%d", summarySheet, lastStageRow),
			Values:     fmt.Sprintf("%s!$B$5:$B$%d", summarySheet, lastStageRow),
		}},
		Title: []excelize.RichTextRun{{Text: "GWP by lifecycle stage"}},
		PlotArea: excelize.ChartPlotArea{
			ShowPercent: true,
		},
	})
	if err != nil {
		return fmt.Errorf("add summary chart: %w", err)
	}
	return nil
}

func writeStageSheet(f *excelize.File, styles sheetStyles, stage surfboardgwp.StageTotal) error {
	sheet := stage.Stage.Title()
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create %s sheet: %w", sheet, err)
	}

	columns := []string{"A", "B", "C", "D", "E"}
	widths := []float64{36, 14, 10, 22, 22}
	for i, col := range columns {
		if err := f.SetColWidth(sheet, col, col, widths[i]); err != nil {
			return fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	headers := []string{"Item", "Quantity", "Unit", "Emission factor", TotalHeader}
	for i, h := range headers {
		f.SetCellValue(sheet, columns[i]+"1", h)
	}
	f.SetCellStyle(sheet, "A1", "E1", styles.header)

	row := 2
	for _, item := range stage.Items {
		r := fmt.Sprint(row)
		f.SetCellValue(sheet, "A"+r, sanitizeExcelCell(item.Name))
		f.SetCellValue(sheet, "B"+r, item.Quantity)
		f.SetCellValue(sheet, "C"+r, item.Unit)
		f.SetCellValue(sheet, "D"+r, item.EmissionFactor)
		f.SetCellValue(sheet, "E"+r, item.TotalGWP())
		f.SetCellStyle(sheet, "A"+r, "C"+r, styles.cell)
		f.SetCellStyle(sheet, "D"+r, "D"+r, styles.cell)
		f.SetCellStyle(sheet, "E"+r, "E"+r, styles.number)
		row++
	}

	r := fmt.Sprint(row)
	f.SetCellValue(sheet, "A"+r, "Stage total")
	if stage.Valid {
		f.SetCellValue(sheet, "E"+r, stage.Total.Rounded())
	} else {
		f.SetCellValue(sheet, "E"+r, "not computed")
	}
	f.SetCellStyle(sheet, "A"+r, "E"+r, styles.total)
	return nil
}

func writeWarningsSheet(f *excelize.File, styles sheetStyles, warnings []surfboardgwp.Warning) error {
	const sheet = "Warnings"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create warnings sheet: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", "A", 100); err != nil {
		return fmt.Errorf("set warnings width: %w", err)
	}

	f.SetCellValue(sheet, "A1", "Warning")
	f.SetCellStyle(sheet, "A1", "A1", styles.header)
	for i, w := range warnings {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", i+2), sanitizeExcelCell(w.Message()))
	}
	return nil
}

// sanitizeExcelCell prevents formula injection by prefixing values that
// start with formula-triggering characters with a single quote.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// thinBorders returns thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{
			Type:  side,
			Color: "#000000",
			Style: 1,
		}
	}
	return borders
}
