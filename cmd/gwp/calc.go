package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	surfboardgwp "github.com/swellcycle/surfboard-gwp"
	"github.com/swellcycle/surfboard-gwp/internal/demo"
	"github.com/swellcycle/surfboard-gwp/internal/input"
	"github.com/swellcycle/surfboard-gwp/internal/report"
	"github.com/swellcycle/surfboard-gwp/internal/terminal"
)

func newCalcCmd(opts *options) *cobra.Command {
	var (
		baseline   bool
		exportPath string
		exportDir  string
	)

	cmd := &cobra.Command{
		Use:   "calc [file]",
		Short: "Evaluate an assessment file and print its tables",
		Long: `Evaluates an assessment document (.json, .yaml or .yml) and prints the
line items, stage totals and stage shares.

Example:
  gwp calc board.yaml --export board.xlsx
  gwp calc board.yaml --export-dir reports/
  gwp calc --demo`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if baseline == (len(args) == 1) {
				return errors.New("either an assessment file or --demo is required")
			}

			evaluator, err := opts.evaluator()
			if err != nil {
				return err
			}

			var assessment surfboardgwp.Assessment
			if baseline {
				assessment, err = demo.NewSource(evaluator).Assess(cmd.Context())
				if err != nil {
					return err
				}
			} else {
				doc, err := input.ParseFile(args[0])
				if err != nil {
					return err
				}
				req, warnings := input.Resolve(doc, evaluator.Defaults)
				assessment = evaluator.Evaluate(req, warnings)
			}

			fprintln(cmd, terminal.Render(assessment, terminal.DefaultStyles()))

			if exportPath != "" {
				if err := exportReport(assessment, exportPath); err != nil {
					return err
				}
			}
			if exportDir != "" {
				return exportReports(assessment, exportDir)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&baseline, "demo", false, "evaluate the baseline board")
	cmd.Flags().StringVar(&exportPath, "export", "", "also write the report to this .csv, .xlsx or .pdf file")
	cmd.Flags().StringVar(&exportDir, "export-dir", "", "also write every report format to this directory")
	return cmd
}

// exportReport writes the report matching the extension of path.
func exportReport(assessment surfboardgwp.Assessment, path string) error {
	meta := report.Meta{CreatedAt: time.Now()}

	var (
		file report.File
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		file, err = report.CSV(assessment)
	case ".xlsx":
		file, err = report.XLSX(assessment, meta)
	case ".pdf":
		file, err = report.PDF(assessment, meta)
	default:
		return fmt.Errorf("unsupported report extension: %q", ext)
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, file.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	slog.Info("report written", "path", path, "size", len(file.Data))
	return nil
}

// exportReports writes every report format into dir.
func exportReports(assessment surfboardgwp.Assessment, dir string) error {
	files, err := report.All(assessment, report.Meta{CreatedAt: time.Now()})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	for _, file := range files {
		path := filepath.Join(dir, file.Name)
		if err := os.WriteFile(path, file.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		slog.Info("report written", "path", path, "size", len(file.Data))
	}
	return nil
}
