package taf

import (
	"fmt"
	"strings"
	"time"
)

// Amendment classifies a TAF reissue. The zero value means an original,
// unamended forecast.
type Amendment uint8

const (
	AmendmentNone Amendment = iota
	AmendmentCorrected
	AmendmentAmended
)

func (a Amendment) String() string {
	switch a {
	case AmendmentNone:
		return "none"
	case AmendmentCorrected:
		return "corrected"
	case AmendmentAmended:
		return "amended"
	}
	panic(fmt.Sprintf("taf: invalid amendment %d", uint8(a)))
}

// Conditions is one forecast condition set: wind, visibility, uninterpreted
// weather phenomena codes, and cloud layers in non-decreasing base order.
type Conditions struct {
	Wind       Wind
	Visibility Visibility
	Weather    []string
	Clouds     []CloudLayer
}

// FromLine is one time-windowed condition set of a forecast, covering the
// half-open interval [ValidFrom, ValidUntil).
type FromLine struct {
	ValidFrom  time.Time
	ValidUntil time.Time
	Conditions Conditions
}

// Forecast is a fully parsed TAF. FromLines are contiguous and
// non-overlapping, tiling [ValidFrom, ValidUntil) exactly; a nil FromLines
// slice marks a NIL (no-content) TAF. All times are naive UTC.
type Forecast struct {
	Aerodrome  string
	IssuedAt   time.Time
	IssuedIn   string
	ValidFrom  time.Time
	ValidUntil time.Time
	Amendment  Amendment
	FromLines  []FromLine
}

func (f *Forecast) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "TAF %s issued %s valid %s/%s",
		f.Aerodrome,
		f.IssuedAt.Format("2006-01-02 15:04"),
		f.ValidFrom.Format("2006-01-02 15:04"),
		f.ValidUntil.Format("2006-01-02 15:04"))
	if f.Amendment != AmendmentNone {
		fmt.Fprintf(&b, " (%s)", f.Amendment)
	}
	if f.FromLines == nil {
		b.WriteString(" NIL")
	} else {
		fmt.Fprintf(&b, " with %d lines", len(f.FromLines))
	}
	return b.String()
}

// ParseError is the failure value for one TAF message. It carries what went
// wrong, the full raw message, and an optional caret-marked snippet of the
// failure location. It never carries a partial forecast.
type ParseError struct {
	Detail  string
	Message string
	Hint    string
}

func (e *ParseError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s\n%s", e.Detail, e.Hint)
	}
	return e.Detail
}

// Result is the outcome of parsing one message: exactly one of Forecast or
// Err is non-nil. A Result with both fields nil indicates a wiring bug
// between pipeline stages and makes downstream consumers panic.
type Result struct {
	Forecast *Forecast
	Err      *ParseError
}

// Ok reports whether the result carries a forecast.
func (r Result) Ok() bool { return r.Forecast != nil }
