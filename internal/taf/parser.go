package taf

import (
	"regexp"
	"strconv"
	"time"
)

var (
	// Transmission preamble fields.
	sequenceRe    = regexp.MustCompile(`^\d{3}$`)
	wmoHeadingRe  = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{2}\d{2}$`)
	headingTimeRe = regexp.MustCompile(`^\d{6}$`)
	pilRe         = regexp.MustCompile(`^[A-Z0-9]{4,9}$`)

	// Header fields.
	aerodromeRe = regexp.MustCompile(`^[A-Z]{4}$`)
	issueTimeRe = regexp.MustCompile(`^(\d{6})Z$`)
	validityRe  = regexp.MustCompile(`^(\d{4})/(\d{4})$`)

	// Condition group fields.
	fmRe         = regexp.MustCompile(`^FM(\d{6})$`)
	windRe       = regexp.MustCompile(`^(VRB|\d{3})(\d{2,3})(?:G(\d{2,3}))?KT$`)
	visWholeRe   = regexp.MustCompile(`^(P?)(\d{1,2})SM$`)
	visFracRe    = regexp.MustCompile(`^(P?)(\d{1,2})/(\d{1,2})SM$`)
	visNumRe     = regexp.MustCompile(`^(P?)(\d{1,2})$`)
	weatherRe    = regexp.MustCompile(`^[+-]?[A-Z]{2,8}$`)
	cloudLayerRe = regexp.MustCompile(`^(FEW|SCT|BKN|OVC)(\d{3})(CB)?$`)
	vvRe         = regexp.MustCompile(`^VV(\d{3})$`)
)

// Parser parses raw TAF messages. It is immutable and safe for concurrent
// use; construct one at startup and share it across pipelines.
type Parser struct{}

// NewParser returns a ready-to-use TAF parser.
func NewParser() *Parser { return &Parser{} }

// Parse parses one raw TAF message. messageTime anchors the message's
// abbreviated day/hour fields to a calendar date; the forecast's IssuedAt is
// re-derived from the header against that anchor. Parse never returns a Go
// error: all mismatches come back as a Result carrying a *ParseError.
func (p *Parser) Parse(messageTime time.Time, message string) Result {
	toks, serr := lex(message)
	if serr == nil {
		r := &run{issueDate: messageTime.UTC(), message: message, toks: toks}
		f, err := r.parseMessage()
		if err == nil {
			return Result{Forecast: f}
		}
		serr = err
	}
	return Result{Err: &ParseError{
		Detail:  serr.detail,
		Message: message,
		Hint:    contextHint(message, serr.offset),
	}}
}

// run is the state of one parse: a cursor over the token stream plus the
// issue date used to resolve abbreviated times.
type run struct {
	issueDate time.Time
	message   string
	toks      []token
	pos       int
}

func (r *run) peek() (token, bool) {
	if r.pos >= len(r.toks) {
		return token{}, false
	}
	return r.toks[r.pos], true
}

func (r *run) next() (token, bool) {
	tok, ok := r.peek()
	if ok {
		r.pos++
	}
	return tok, ok
}

// eofError reports an unexpected end of message, pointing past the last token.
func (r *run) eofError(expected string) *syntaxError {
	off := len(r.message)
	if n := len(r.toks); n > 0 {
		off = r.toks[n-1].offset + len(r.toks[n-1].text)
	}
	return &syntaxError{detail: "unexpected end of message, expected " + expected, offset: off}
}

func (r *run) parseMessage() (*Forecast, *syntaxError) {
	f := &Forecast{}

	if tok, ok := r.peek(); ok && sequenceRe.MatchString(tok.text) {
		if err := r.parsePreamble(f); err != nil {
			return nil, err
		}
	}
	if tok, ok := r.peek(); ok && tok.text == "TAF" {
		r.pos++
		r.parseAmendment(f)
	}
	if err := r.parseHeader(f); err != nil {
		return nil, err
	}
	if err := r.parseContent(f); err != nil {
		return nil, err
	}
	if tok, ok := r.peek(); ok {
		return nil, errAt(tok, "unexpected token %q after end of forecast", tok.text)
	}
	return f, nil
}

// parsePreamble consumes the transmission envelope: sequence number, WMO
// heading (product class, originating center, time), and AFOS product
// identifier. The originating center becomes IssuedIn.
func (r *run) parsePreamble(f *Forecast) *syntaxError {
	r.pos++ // sequence number, already matched

	tok, ok := r.next()
	if !ok || !wmoHeadingRe.MatchString(tok.text) {
		return r.expected(tok, ok, "WMO heading")
	}
	center, ok := r.next()
	if !ok || !aerodromeRe.MatchString(center.text) {
		return r.expected(center, ok, "originating center")
	}
	f.IssuedIn = center.text
	tok, ok = r.next()
	if !ok || !headingTimeRe.MatchString(tok.text) {
		return r.expected(tok, ok, "heading day/hour/minute")
	}
	tok, ok = r.next()
	if !ok || !pilRe.MatchString(tok.text) {
		return r.expected(tok, ok, "product identifier")
	}
	return nil
}

// parseAmendment consumes an optional AMD or COR marker.
func (r *run) parseAmendment(f *Forecast) {
	tok, ok := r.peek()
	if !ok {
		return
	}
	switch tok.text {
	case "AMD":
		f.Amendment = AmendmentAmended
		r.pos++
	case "COR":
		f.Amendment = AmendmentCorrected
		r.pos++
	}
}

func (r *run) parseHeader(f *Forecast) *syntaxError {
	tok, ok := r.next()
	if !ok || !aerodromeRe.MatchString(tok.text) {
		return r.expected(tok, ok, "aerodrome identifier")
	}
	f.Aerodrome = tok.text

	tok, ok = r.next()
	if !ok {
		return r.eofError("issue time")
	}
	m := issueTimeRe.FindStringSubmatch(tok.text)
	if m == nil {
		return errAt(tok, "expected issue time DDHHMMZ, got %q", tok.text)
	}
	issued, err := r.resolveDayHourMinute(tok, m[1])
	if err != nil {
		return err
	}
	f.IssuedAt = issued

	tok, ok = r.next()
	if !ok {
		return r.eofError("validity period")
	}
	m = validityRe.FindStringSubmatch(tok.text)
	if m == nil {
		return errAt(tok, "expected validity period DDHH/DDHH, got %q", tok.text)
	}
	if f.ValidFrom, err = r.resolveDayHour(tok, m[1]); err != nil {
		return err
	}
	if f.ValidUntil, err = r.resolveDayHour(tok, m[2]); err != nil {
		return err
	}

	r.parseAmendment(f)
	return nil
}

// parseContent parses the body: NIL, or an initial conditions group followed
// by FM groups. Each group's end time is the next group's start, or the
// validity end for the last; this is where the implicit FM boundaries become
// explicit intervals.
func (r *run) parseContent(f *Forecast) *syntaxError {
	if tok, ok := r.peek(); ok && tok.text == "NIL" {
		r.pos++
		f.FromLines = nil
		return nil
	}

	starts := []time.Time{f.ValidFrom}
	conds := []Conditions{{}}
	if err := r.parseConditions(&conds[0]); err != nil {
		return err
	}

	for {
		tok, ok := r.peek()
		if !ok {
			break
		}
		m := fmRe.FindStringSubmatch(tok.text)
		if m == nil {
			break
		}
		r.pos++
		start, err := r.resolveDayHourMinute(tok, m[1])
		if err != nil {
			return err
		}
		var c Conditions
		if err := r.parseConditions(&c); err != nil {
			return err
		}
		starts = append(starts, start)
		conds = append(conds, c)
	}

	f.FromLines = make([]FromLine, len(conds))
	for i := range conds {
		until := f.ValidUntil
		if i+1 < len(starts) {
			until = starts[i+1]
		}
		f.FromLines[i] = FromLine{ValidFrom: starts[i], ValidUntil: until, Conditions: conds[i]}
	}
	return nil
}

// parseConditions parses one conditions group: wind, visibility, weather
// phenomena, then clouds.
func (r *run) parseConditions(c *Conditions) *syntaxError {
	if err := r.parseWind(c); err != nil {
		return err
	}
	if err := r.parseVisibility(c); err != nil {
		return err
	}

	// Weather phenomena codes pass through uninterpreted until the cloud
	// section starts.
	for {
		tok, ok := r.peek()
		if !ok || fmRe.MatchString(tok.text) {
			return r.eofOrErr(tok, ok, "cloud information")
		}
		if isCloudToken(tok.text) {
			break
		}
		if !weatherRe.MatchString(tok.text) {
			return errAt(tok, "unexpected token %q in conditions", tok.text)
		}
		c.Weather = append(c.Weather, tok.text)
		r.pos++
	}

	return r.parseClouds(c)
}

func (r *run) parseWind(c *Conditions) *syntaxError {
	tok, ok := r.next()
	if !ok {
		return r.eofError("wind group")
	}
	m := windRe.FindStringSubmatch(tok.text)
	if m == nil {
		return errAt(tok, "expected wind group, got %q", tok.text)
	}

	var w Wind
	if m[1] != "VRB" {
		dir, _ := strconv.Atoi(m[1])
		if dir == 360 {
			dir = 0
		}
		if dir >= 360 {
			return errAt(tok, "wind direction %s out of range", m[1])
		}
		w.Direction = &dir
	}
	w.Speed, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		gust, _ := strconv.Atoi(m[3])
		if gust <= w.Speed {
			return errAt(tok, "gust %d does not exceed wind speed %d", gust, w.Speed)
		}
		w.Gust = &gust
	}
	c.Wind = w
	return nil
}

func (r *run) parseVisibility(c *Conditions) *syntaxError {
	tok, ok := r.next()
	if !ok {
		return r.eofError("visibility group")
	}

	if m := visWholeRe.FindStringSubmatch(tok.text); m != nil {
		miles, _ := strconv.Atoi(m[2])
		c.Visibility = Visibility{Num: miles, Den: 1, IsExcess: m[1] == "P"}
		return nil
	}
	if m := visFracRe.FindStringSubmatch(tok.text); m != nil {
		return r.setFractionVisibility(c, tok, m, 0)
	}
	// Mixed numbers span two tokens: "1 1/2SM".
	if m := visNumRe.FindStringSubmatch(tok.text); m != nil {
		frac, ok := r.peek()
		if ok {
			if fm := visFracRe.FindStringSubmatch(frac.text); fm != nil && fm[1] == "" {
				r.pos++
				whole, _ := strconv.Atoi(m[2])
				fm[1] = m[1]
				return r.setFractionVisibility(c, frac, fm, whole)
			}
		}
	}
	return errAt(tok, "expected visibility group, got %q", tok.text)
}

func (r *run) setFractionVisibility(c *Conditions, tok token, m []string, whole int) *syntaxError {
	num, _ := strconv.Atoi(m[2])
	den, _ := strconv.Atoi(m[3])
	if den == 0 {
		return errAt(tok, "visibility fraction with zero denominator")
	}
	c.Visibility = Visibility{Num: whole*den + num, Den: den, IsExcess: m[1] == "P"}
	return nil
}

func isCloudToken(text string) bool {
	return text == "SKC" || vvRe.MatchString(text) || cloudLayerRe.MatchString(text)
}

// parseClouds parses the cloud section: sky clear, vertical visibility, or
// one or more layers with non-decreasing bases.
func (r *run) parseClouds(c *Conditions) *syntaxError {
	tok, _ := r.next() // caller guaranteed a cloud token

	if tok.text == "SKC" {
		c.Clouds = []CloudLayer{{Coverage: CoverageSkyClear}}
		return nil
	}
	if m := vvRe.FindStringSubmatch(tok.text); m != nil {
		alt, _ := strconv.Atoi(m[1])
		base := alt * 100
		c.Clouds = []CloudLayer{{Base: &base, Coverage: CoverageVerticalVisibility}}
		return nil
	}

	for {
		m := cloudLayerRe.FindStringSubmatch(tok.text)
		coverage, known := coverageFromCode(m[1])
		if !known {
			return errAt(tok, "unknown cloud coverage %q", m[1])
		}
		alt, _ := strconv.Atoi(m[2])
		base := alt * 100
		if n := len(c.Clouds); n > 0 && base < *c.Clouds[n-1].Base {
			return errAt(tok, "cloud layers not ascending")
		}
		c.Clouds = append(c.Clouds, CloudLayer{
			Base:         &base,
			Coverage:     coverage,
			Cumulonimbus: m[3] == "CB",
		})

		nextTok, ok := r.peek()
		if !ok || !cloudLayerRe.MatchString(nextTok.text) {
			return nil
		}
		r.pos++
		tok = nextTok
	}
}

// resolveDayHourMinute turns a DDHHMM field into an absolute UTC time
// relative to the issue date.
func (r *run) resolveDayHourMinute(tok token, s string) (time.Time, *syntaxError) {
	day, _ := strconv.Atoi(s[0:2])
	hour, _ := strconv.Atoi(s[2:4])
	minute, _ := strconv.Atoi(s[4:6])
	if day < 1 || day > 31 || hour > 23 || minute > 59 {
		return time.Time{}, errAt(tok, "invalid day/hour/minute %q", s)
	}
	return r.resolveDate(day, hour, minute), nil
}

// resolveDayHour turns a DDHH field into an absolute UTC time. Hour 24
// encodes midnight of the following day.
func (r *run) resolveDayHour(tok token, s string) (time.Time, *syntaxError) {
	day, _ := strconv.Atoi(s[0:2])
	hour, _ := strconv.Atoi(s[2:4])
	if day < 1 || day > 31 || hour > 24 {
		return time.Time{}, errAt(tok, "invalid day/hour %q", s)
	}
	if hour == 24 {
		return r.resolveDate(day, 0, 0).AddDate(0, 0, 1), nil
	}
	return r.resolveDate(day, hour, 0), nil
}

// resolveDate reconstructs the full date for an abbreviated day-of-month: a
// day at or after the issue day is in the issue month, an earlier day is in
// the next month.
func (r *run) resolveDate(day, hour, minute int) time.Time {
	year, month := r.issueDate.Year(), r.issueDate.Month()
	if day < r.issueDate.Day() {
		if month == time.December {
			year++
			month = time.January
		} else {
			month++
		}
	}
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func (r *run) expected(tok token, ok bool, what string) *syntaxError {
	if !ok {
		return r.eofError(what)
	}
	return errAt(tok, "expected %s, got %q", what, tok.text)
}

func (r *run) eofOrErr(tok token, ok bool, what string) *syntaxError {
	if !ok {
		return r.eofError(what)
	}
	return errAt(tok, "missing %s before %q", what, tok.text)
}
