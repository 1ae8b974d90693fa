package notifier

import (
	"fmt"
	"html"
	"strings"

	"PricePulse/internal/model"
	"PricePulse/internal/series"
)

// FormatForecastReport renders a dashboard as a Telegram HTML message.
func FormatForecastReport(d *model.Dashboard) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📈 <b>PricePulse %s</b> | %s\n\n",
		html.EscapeString(d.Symbol), d.GeneratedAt.Format("2006-01-02 15:04")))

	if s := d.Summary; s != nil {
		b.WriteString(fmt.Sprintf("Start of period: %s\n", s.StartOfPeriod.StringFixed(2)))
		b.WriteString(fmt.Sprintf("Mid period: %s\n", s.MidPeriod.StringFixed(2)))
		b.WriteString(fmt.Sprintf("Previous: %s\n", s.PreviousPeriod.StringFixed(2)))
		b.WriteString(fmt.Sprintf("Latest: %s\n", s.Latest.StringFixed(2)))
		b.WriteString(fmt.Sprintf("Range: %s ~ %s (position %s%%)\n",
			s.PeriodLow.StringFixed(2), s.PeriodHigh.StringFixed(2), s.RangePosition.Shift(2).StringFixed(0)))
		if s.MovingAverage != nil {
			b.WriteString(fmt.Sprintf("MA%d: %s\n", series.DefaultMAPeriod, s.MovingAverage.StringFixed(2)))
		}
		if s.Forecast != nil {
			b.WriteString(fmt.Sprintf("\n🔮 <b>Forecast (%s):</b> %s\n", model.ForecastKey, s.Forecast.StringFixed(2)))
			if !s.Latest.IsZero() {
				change := s.Forecast.Sub(s.Latest).Div(s.Latest).Shift(2)
				b.WriteString(fmt.Sprintf("   vs latest: %s%%\n", signed(change.StringFixed(2))))
			}
		}
	}

	if d.Degraded {
		b.WriteString("\n⚠️ <b>Partial result</b>\n")
		for _, issue := range d.Issues {
			b.WriteString("  • " + html.EscapeString(issue) + "\n")
		}
	}

	b.WriteString(fmt.Sprintf("\nrun %s", d.RunID))
	return b.String()
}

// FormatFailure renders an aborted run.
func FormatFailure(symbol string, err error) string {
	return fmt.Sprintf("❌ <b>PricePulse %s</b>: forecast run aborted\n%s",
		html.EscapeString(symbol), html.EscapeString(err.Error()))
}

// FormatHistory lists the most recent stored forecasts, newest first.
func FormatHistory(preds []model.Prediction, limit int) string {
	if len(preds) == 0 {
		return "No stored forecasts yet."
	}
	if limit > 0 && len(preds) > limit {
		preds = preds[len(preds)-limit:]
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗂 <b>Last %d forecasts</b>\n\n", len(preds)))
	for i := len(preds) - 1; i >= 0; i-- {
		p := preds[i]
		b.WriteString(fmt.Sprintf("%s  %.2f\n", p.CreatedAt.UTC().Format("2006-01-02 15:04"), p.Value))
	}
	return b.String()
}

func signed(s string) string {
	if strings.HasPrefix(s, "-") {
		return s
	}
	return "+" + s
}
