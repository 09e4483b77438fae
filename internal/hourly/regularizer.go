// Package hourly re-slices parsed forecasts onto calendar-hour boundaries
// and regroups them by the hour they describe.
package hourly

import (
	"iter"
	"time"

	"github.com/ohaynold/artaf/internal/taf"
)

// Regularize expands each of a forecast's from lines into one line per
// calendar hour. A line whose start is not hour-aligned is rounded up to the
// next full hour, dropping the sub-hour remainder. NIL forecasts pass through
// unchanged. A gap or overlap in the resulting hour chain yields a
// ParseError and discards the forecast's hourly content.
func Regularize(f *taf.Forecast) (*taf.Forecast, *taf.ParseError) {
	if f.FromLines == nil {
		return f, nil
	}

	out := *f
	out.FromLines = make([]taf.FromLine, 0, len(f.FromLines))
	for _, line := range f.FromLines {
		hour := line.ValidFrom.Truncate(time.Hour)
		if !hour.Equal(line.ValidFrom) {
			hour = hour.Add(time.Hour)
		}
		for hour.Before(line.ValidUntil) {
			if n := len(out.FromLines); n > 0 && !hour.Equal(out.FromLines[n-1].ValidUntil) {
				return nil, &taf.ParseError{Detail: "non-contiguous hours", Message: f.String()}
			}
			out.FromLines = append(out.FromLines, taf.FromLine{
				ValidFrom:  hour,
				ValidUntil: hour.Add(time.Hour),
				Conditions: line.Conditions,
			})
			hour = hour.Add(time.Hour)
		}
	}
	return &out, nil
}

// RegularizeStream applies Regularize across a stream of parse results,
// passing errors through unchanged.
func RegularizeStream(in iter.Seq[taf.Result]) iter.Seq[taf.Result] {
	return func(yield func(taf.Result) bool) {
		for res := range in {
			switch {
			case res.Forecast != nil:
				f, perr := Regularize(res.Forecast)
				if perr != nil {
					res = taf.Result{Err: perr}
				} else {
					res = taf.Result{Forecast: f}
				}
			case res.Err != nil:
				// Errors pass through unmodified.
			default:
				panic("hourly: result carries neither forecast nor error")
			}
			if !yield(res) {
				return
			}
		}
	}
}
