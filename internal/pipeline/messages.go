package pipeline

import (
	"github.com/ohaynold/artaf/internal/histogram"
	"github.com/ohaynold/artaf/internal/taf"
)

// Message is the typed protocol workers send back to the coordinator over
// the results channel. The coordinator type-switches on the concrete type.
type Message interface {
	isMessage()
}

// FlushMessage carries one completed histogram table for one job.
type FlushMessage struct {
	Station      string
	Job          string
	AscendingKey []string
	Records      []histogram.Record
}

// ProgressMessage reports cumulative per-station counters. Within one worker
// messages stay in emission order; across workers no ordering holds.
type ProgressMessage struct {
	Station   string
	Processed int
	Errors    int
}

// ErrorMessage carries one recoverable per-message failure for diagnostics.
type ErrorMessage struct {
	Station string
	Err     *taf.ParseError
}

func (FlushMessage) isMessage()    {}
func (ProgressMessage) isMessage() {}
func (ErrorMessage) isMessage()    {}
