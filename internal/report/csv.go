package report

import (
	"bytes"
	"encoding/csv"
	"fmt"

	surfboardgwp "github.com/swellcycle/surfboard-gwp"
)

// CSV renders the stage summary with the Component and total columns.
func CSV(assessment surfboardgwp.Assessment) (File, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)

	records := [][]string{{"Component", TotalHeader}}
	for _, row := range Summary(assessment) {
		records = append(records, []string{row.Component, formatTotal(row.Total, row.Valid)})
	}

	if err := w.WriteAll(records); err != nil {
		return File{}, fmt.Errorf("failed to write csv summary: %w", err)
	}

	return File{
		Name:        CSVName,
		ContentType: CSVContentType,
		Data:        buf.Bytes(),
	}, nil
}
