// Package demo provides the reference board as an assessment source.
package demo

import (
	"context"
	"time"

	surfboardgwp "github.com/swellcycle/surfboard-gwp"
	"github.com/swellcycle/surfboard-gwp/model"
)

// Source implements the surfboardgwp.AssessmentSource interface.
// It evaluates the baseline board on every call.
type Source struct {
	evaluator *model.Evaluator
	daylight  bool
	now       func() time.Time
}

type Option func(s *Source)

// WithDaylight makes the solar share of the energy mix follow the hour of
// the day instead of the fixed baseline value.
func WithDaylight() Option {
	return func(s *Source) {
		s.daylight = true
	}
}

// WithClock overrides the clock used by WithDaylight.
func WithClock(now func() time.Time) Option {
	return func(s *Source) {
		s.now = now
	}
}

// NewSource returns a new baseline source
func NewSource(evaluator *model.Evaluator, opts ...Option) *Source {
	s := &Source{
		evaluator: evaluator,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) Assess(ctx context.Context) (surfboardgwp.Assessment, error) {
	if err := ctx.Err(); err != nil {
		return surfboardgwp.Assessment{}, err
	}

	req := model.Baseline(s.evaluator.Defaults)
	if s.daylight {
		now := s.now()
		req.Mix = model.DefaultEnergyMix(s.evaluator.Defaults, daylightSolarPercent(now.Hour(), now.Minute()))
	}

	return s.evaluator.Evaluate(req, nil), nil
}

// daylightSolarPercent interpolates the solar share of the workshop energy
// between two hours.
func daylightSolarPercent(hour, minute int) float64 {
	hourlySolarPercent := [24]float64{
		0, 0, 0, 0, 0, 0,
		5, 10, 20, 30, 40, 50,
		60, 60, 50, 40, 30, 20,
		10, 5, 0, 0, 0, 0,
	}

	hour = hour % 24
	current := hourlySolarPercent[hour]
	next := hourlySolarPercent[(hour+1)%24]
	return current + (next-current)*float64(minute)/60
}
