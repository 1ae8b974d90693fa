package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary holds the display scalars of one run, rounded to cents.
type Summary struct {
	StartOfPeriod  decimal.Decimal  `json:"start_of_period"`
	MidPeriod      decimal.Decimal  `json:"mid_period"`
	PreviousPeriod decimal.Decimal  `json:"previous_period"`
	Latest         decimal.Decimal  `json:"latest"`
	Forecast       *decimal.Decimal `json:"forecast,omitempty"`

	PeriodHigh decimal.Decimal `json:"period_high"`
	PeriodLow  decimal.Decimal `json:"period_low"`
	// RangePosition is where Latest sits between PeriodLow (0) and PeriodHigh (1).
	RangePosition decimal.Decimal  `json:"range_position"`
	MovingAverage *decimal.Decimal `json:"moving_average,omitempty"`
}

// Dashboard is the display-ready output of a pipeline run.
type Dashboard struct {
	RunID       string         `json:"run_id"`
	Symbol      string         `json:"symbol"`
	GeneratedAt time.Time      `json:"generated_at"`
	Prices      []PricePoint   `json:"prices"`
	Summary     *Summary       `json:"summary,omitempty"`
	Forecast    OptionalFloat  `json:"forecast"`
	Chart       *AlignedSeries `json:"chart,omitempty"`
	Degraded    bool           `json:"degraded"`
	Issues      []string       `json:"issues,omitempty"`
}

// Degrade marks the dashboard as partial and records why.
func (d *Dashboard) Degrade(issue string) {
	d.Degraded = true
	d.Issues = append(d.Issues, issue)
}
