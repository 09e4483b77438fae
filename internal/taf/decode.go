package taf

import (
	"iter"
	"time"
)

// RawMessage is one raw TAF as retrieved from an archive: the distribution
// timestamp and the full product text.
type RawMessage struct {
	Time time.Time
	Text string
}

// DecodeStream lazily parses a sequence of raw messages, yielding exactly one
// Result per input in order. Bad messages become error results; the stream
// never stops early on account of input content.
func (p *Parser) DecodeStream(messages iter.Seq[RawMessage]) iter.Seq[Result] {
	return func(yield func(Result) bool) {
		for msg := range messages {
			if !yield(p.Parse(msg.Time, msg.Text)) {
				return
			}
		}
	}
}
