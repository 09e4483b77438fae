package taf

import (
	"fmt"
	"math"
	"strings"
)

// CloudCoverage is the coverage class of one cloud layer.
type CloudCoverage uint8

const (
	CoverageSkyClear CloudCoverage = iota
	CoverageFew
	CoverageScattered
	CoverageBroken
	CoverageOvercast
	CoverageVerticalVisibility
)

// coverageFromCode maps a TAF coverage code to its enum value.
func coverageFromCode(code string) (CloudCoverage, bool) {
	switch code {
	case "SKC":
		return CoverageSkyClear, true
	case "FEW":
		return CoverageFew, true
	case "SCT":
		return CoverageScattered, true
	case "BKN":
		return CoverageBroken, true
	case "OVC":
		return CoverageOvercast, true
	case "VV":
		return CoverageVerticalVisibility, true
	}
	return 0, false
}

// Code returns the TAF encoding of the coverage, e.g. "BKN".
func (c CloudCoverage) Code() string {
	switch c {
	case CoverageSkyClear:
		return "SKC"
	case CoverageFew:
		return "FEW"
	case CoverageScattered:
		return "SCT"
	case CoverageBroken:
		return "BKN"
	case CoverageOvercast:
		return "OVC"
	case CoverageVerticalVisibility:
		return "VV"
	}
	panic(fmt.Sprintf("taf: invalid cloud coverage %d", uint8(c)))
}

func (c CloudCoverage) String() string { return c.Code() }

// Fraction returns the covered fraction of the sky. The okta ranges are taken
// from AC 00-45H, section 5.11.2.9.1.
func (c CloudCoverage) Fraction() float64 {
	switch c {
	case CoverageSkyClear:
		return 0.0 // exactly no clouds; the slightest whiff is FEW
	case CoverageFew:
		return 0.125 // 0-2 oktas
	case CoverageScattered:
		return 0.375 // 3-4 oktas
	case CoverageBroken:
		return 0.6875 // 5-7 oktas
	case CoverageOvercast:
		return 0.9375 // 7-8 oktas; no code parallels SKC for exactly 100%
	case CoverageVerticalVisibility:
		return 1.0 // sky not visible anywhere
	}
	panic(fmt.Sprintf("taf: invalid cloud coverage %d", uint8(c)))
}

// InEnglish returns a natural-language rendering of the coverage.
func (c CloudCoverage) InEnglish() string {
	switch c {
	case CoverageSkyClear:
		return "Sky clear"
	case CoverageFew:
		return "Few"
	case CoverageScattered:
		return "Scattered"
	case CoverageBroken:
		return "Broken"
	case CoverageOvercast:
		return "Overcast"
	case CoverageVerticalVisibility:
		return "Vertical visibility"
	}
	panic(fmt.Sprintf("taf: invalid cloud coverage %d", uint8(c)))
}

// CloudLayer is one layer of a cloud group: base altitude in feet AGL (nil
// only for sky clear), coverage class, and whether the layer is cumulonimbus.
type CloudLayer struct {
	Base         *int
	Coverage     CloudCoverage
	Cumulonimbus bool
}

// IsSkyClear reports whether the layer encodes a clear sky.
func (l CloudLayer) IsSkyClear() bool { return l.Coverage == CoverageSkyClear }

func (l CloudLayer) String() string {
	var b strings.Builder
	b.WriteString(l.Coverage.InEnglish())
	if l.Base != nil {
		fmt.Fprintf(&b, " %d feet", *l.Base)
	}
	if l.Cumulonimbus {
		b.WriteString(", cumulonimbus")
	}
	return b.String()
}

// Wind is the sustained wind of one conditions group. Direction is degrees
// true in [0,359], nil for variable ("VRB"); 360 in the source encoding is
// normalized to 0 at parse time. Gust, when present, strictly exceeds Speed.
type Wind struct {
	Direction *int
	Speed     int // knots
	Gust      *int
}

// SpeedWithGust returns the gust speed if one is forecast, otherwise the
// sustained speed.
func (w Wind) SpeedWithGust() int {
	if w.Gust != nil {
		return *w.Gust
	}
	return w.Speed
}

// Cartesian resolves the wind into northerly and easterly components in
// knots. Direction is the direction the wind blows from, so the velocity
// vector points the opposite way. ok is false for variable winds, which have
// no defined components.
func (w Wind) Cartesian() (north, east float64, ok bool) {
	if w.Direction == nil {
		return 0, 0, false
	}
	rad := float64(*w.Direction) * math.Pi / 180
	return -float64(w.Speed) * math.Cos(rad), -float64(w.Speed) * math.Sin(rad), true
}

func (w Wind) String() string {
	var b strings.Builder
	if w.Direction == nil {
		b.WriteString("variable")
	} else {
		fmt.Fprintf(&b, "from %03d degrees", *w.Direction)
	}
	fmt.Fprintf(&b, " at %d knots", w.Speed)
	if w.Gust != nil {
		fmt.Fprintf(&b, " gusting %d knots", *w.Gust)
	}
	return b.String()
}

// Visibility is horizontal visibility as a non-negative fraction of statute
// miles. IsExcess marks the "P" prefix, meaning at least this value.
type Visibility struct {
	Num      int
	Den      int
	IsExcess bool
}

// Miles returns the visibility as a floating-point number of statute miles.
func (v Visibility) Miles() float64 {
	if v.Den == 0 {
		return 0
	}
	return float64(v.Num) / float64(v.Den)
}

func (v Visibility) String() string {
	if v.Den == 0 {
		return "0SM"
	}
	var b strings.Builder
	if v.IsExcess {
		b.WriteString("P")
	}
	whole := v.Num / v.Den
	rem := v.Num % v.Den
	switch {
	case rem == 0:
		fmt.Fprintf(&b, "%d", whole)
	case whole == 0:
		fmt.Fprintf(&b, "%d/%d", v.Num, v.Den)
	default:
		fmt.Fprintf(&b, "%d %d/%d", whole, rem, v.Den)
	}
	b.WriteString("SM")
	return b.String()
}
