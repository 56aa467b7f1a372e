package surfboardgwp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// AssessmentSource produces the assessment exposed on the metrics endpoint.
type AssessmentSource interface {
	Assess(ctx context.Context) (Assessment, error)
}

// OpenMetricsHandler implements the http.Handler interface
type OpenMetricsHandler struct {
	defaultTimeout time.Duration
	source         AssessmentSource
	sourceName     string
}

// NewOpenMetricsHandler create a new OpenMetricsHandler
func NewOpenMetricsHandler(sourceName string, source AssessmentSource) *OpenMetricsHandler {
	return &OpenMetricsHandler{
		defaultTimeout: 10 * time.Second,
		source:         source,
		sourceName:     sourceName,
	}
}

// ServeHTTP implements the http.Handler interface. The assessment is recomputed on
// every scrape and its metrics are written in the http response.
func (handler *OpenMetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	metrics := make(chan *Metric)

	baseLabels := map[string]string{
		"source": handler.sourceName,
	}

	errg, errgctx := errgroup.WithContext(r.Context())
	errgctx, cancel := context.WithTimeout(errgctx, handler.defaultTimeout)
	defer cancel()

	errg.Go(func() error {
		defer close(metrics)

		assessment, err := handler.source.Assess(errgctx)
		if err != nil {
			return fmt.Errorf("failed to assess %s: %w", handler.sourceName, err)
		}

		for _, m := range AssessmentMetrics(assessment) {
			m.Labels = MergeLabels(m.Labels, baseLabels)
			select {
			case metrics <- m:
			case <-errgctx.Done():
				return nil
			}
		}

		select {
		case metrics <- &Metric{
			Name:   "gwp_evaluation_duration_ms",
			Labels: baseLabels,
			Value:  float64(time.Since(start).Milliseconds()),
		}:
		case <-errgctx.Done():
		}

		return nil
	})

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	errg.Go(func() error {
		return writeMetrics(errgctx, w, metrics)
	})

	if err := errg.Wait(); err != nil {
		slog.Error("failed to collect metrics", "err", err.Error())
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Debug("metrics have been successfully collected", "duration_ms", time.Since(start).Milliseconds())
}

// AssessmentMetrics converts an assessment into item, stage and total metrics.
func AssessmentMetrics(assessment Assessment) []*Metric {
	metrics := make([]*Metric, 0)
	for _, stage := range assessment.Stages {
		for _, item := range stage.Items {
			metrics = append(metrics, NewItemMetric(item).AddLabel("stage", string(stage.Stage)))
		}

		valid := "true"
		if !stage.Valid {
			valid = "false"
		}
		metrics = append(metrics, (&Metric{
			Name:  "gwp_stage_kgco2eq",
			Value: stage.Total.KgCO2eq(),
		}).AddLabel("stage", string(stage.Stage)).AddLabel("valid", valid))
	}

	metrics = append(metrics,
		&Metric{Name: "gwp_total_kgco2eq", Value: assessment.GrandTotal.KgCO2eq()},
		&Metric{Name: "gwp_input_warnings", Value: float64(len(assessment.Warnings))},
	)
	return metrics
}

// writeMetrics write all metrics sent over the channel and write them on the writer.
// Metrics labels are sorted lexicographically before being written.
func writeMetrics(ctx context.Context, w io.Writer, metrics chan *Metric) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case metric, ok := <-metrics:
			if !ok {
				return nil
			}

			if metric == nil {
				slog.Warn("discarding nil metric")
				continue
			}
			if err := writeMetric(w, metric); err != nil {
				return fmt.Errorf("failed to write metric on writer: %w", err)
			}
		}
	}
}

func writeMetric(w io.Writer, metric *Metric) error {
	metric = metric.SanitizeLabels()

	// sort labels in lexicographical order
	labels := make([]string, 0, len(metric.Labels))
	for labelName, labelValue := range metric.Labels {
		labels = append(labels, fmt.Sprintf(`%s="%s"`, labelName, escapeLabelValue(labelValue)))
	}
	slices.SortFunc(labels, strings.Compare)

	_, err := fmt.Fprintf(w, "%s{%s} %0.10f\n", metric.Name, strings.Join(labels, ","), metric.Value)
	if err != nil {
		return fmt.Errorf("writing metric %s failed: %w", metric.Name, err)
	}

	return nil
}

func escapeLabelValue(v string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`).Replace(v)
}

// Metric olds the name and value of a measurement in addition to its labels.
type Metric struct {
	Name   string
	Labels map[string]string
	Value  float64
}

func (m *Metric) AddLabel(key, value string) *Metric {
	m.Labels = MergeLabels(
		m.Labels,
		map[string]string{
			key: value,
		},
	)
	return m
}

func (m *Metric) SanitizeLabels() *Metric {
	newLabels := make(map[string]string)
	invalidChars := []string{".", "/", "-", ":", ";", " "}
	for label, value := range m.Labels {
		for _, char := range invalidChars {
			label = strings.ReplaceAll(label, char, "_")
		}
		newLabels[label] = value
	}
	m.Labels = newLabels
	return m
}

func NewItemMetric(item ItemTotal) *Metric {
	return &Metric{
		Name:  "gwp_item_kgco2eq",
		Value: item.Total.KgCO2eq(),
		Labels: map[string]string{
			"item": item.Name,
			"unit": item.Unit,
		},
	}
}

// MergeLabels merges label sets, later sets win and empty values are dropped.
func MergeLabels(labels ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, l := range labels {
		for k, v := range l {
			if v == "" {
				continue
			}
			result[k] = v
		}
	}
	return result
}
