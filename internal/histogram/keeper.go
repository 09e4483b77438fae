// Package histogram accumulates streaming histograms of hourly forecast
// value transitions, grouped by a caller-defined key schema.
package histogram

import (
	"slices"
	"sort"
	"strings"

	"github.com/ohaynold/artaf/internal/hourly"
)

// GroupKey names a function extracting one key component from a group.
type GroupKey struct {
	Name string
	Fn   func(*hourly.Group) string
}

// Value names a function extracting one stringified value from an item.
// Values are compared and sorted as strings to keep cross-run output
// deterministic.
type Value struct {
	Name string
	Fn   func(hourly.Item) string
}

// Job configures one histogram: an ascending group-by (guaranteed by the
// caller to be monotonically non-decreasing over the input stream), a
// secondary group-by, and the set of values to histogram.
type Job struct {
	Name             string
	AscendingGroupBy []GroupKey
	OtherGroupBy     []GroupKey
	Values           []Value
}

// FieldNames returns the column names of the ascending and secondary keys.
func (j Job) FieldNames() (ascending, other []string) {
	for _, g := range j.AscendingGroupBy {
		ascending = append(ascending, g.Name)
	}
	for _, g := range j.OtherGroupBy {
		other = append(other, g.Name)
	}
	return ascending, other
}

// Record is one row of an emitted counts table: how often a value moved from
// Previous to Current on its way to Final within one secondary group.
type Record struct {
	Group    []string
	Value    string
	Previous string
	Current  string
	Final    string
	Count    int
}

// FlushFunc receives one completed counts table: the ascending key it was
// accumulated under, its records in lexicographic order, and the job name.
type FlushFunc func(ascendingKey []string, records []Record, job string)

// countKey identifies one cell of the accumulation table. The secondary
// group parts are joined with an unprintable separator to stay comparable.
type countKey struct {
	group    string
	value    string
	previous string
	current  string
	final    string
}

const groupSep = "\x1f"

// Keeper accumulates one job's histogram. It is not safe for concurrent use;
// each worker owns its keepers exclusively.
type Keeper struct {
	job     Job
	flush   FlushFunc
	current []string
	haveKey bool
	counts  map[countKey]int
}

// NewKeeper creates a Keeper that reports completed tables to flush.
func NewKeeper(job Job, flush FlushFunc) *Keeper {
	return &Keeper{job: job, flush: flush, counts: make(map[countKey]int)}
}

// Process folds one hourly group into the accumulation table. Groups with
// fewer than three items carry no interior transition and are ignored. When
// the ascending key changes, the table accumulated under the previous key is
// flushed first.
func (k *Keeper) Process(g *hourly.Group) {
	if len(g.Items) < 3 {
		return
	}

	key := make([]string, len(k.job.AscendingGroupBy))
	for i, gk := range k.job.AscendingGroupBy {
		key[i] = gk.Fn(g)
	}
	if k.haveKey && !slices.Equal(key, k.current) {
		k.Flush()
	}
	k.current = key
	k.haveKey = true

	otherParts := make([]string, len(k.job.OtherGroupBy))
	for i, gk := range k.job.OtherGroupBy {
		otherParts[i] = gk.Fn(g)
	}
	other := strings.Join(otherParts, groupSep)

	last := len(g.Items) - 1
	for _, v := range k.job.Values {
		previous := v.Fn(g.Items[0])
		final := v.Fn(g.Items[last])
		for i := 1; i < last; i++ {
			current := v.Fn(g.Items[i])
			k.counts[countKey{
				group:    other,
				value:    v.Name,
				previous: previous,
				current:  current,
				final:    final,
			}]++
			previous = current
		}
	}
}

// Flush emits the current accumulation table, if non-empty, under the key it
// was accumulated for, then resets. Call once more at end of stream.
func (k *Keeper) Flush() {
	if len(k.counts) == 0 {
		return
	}

	records := make([]Record, 0, len(k.counts))
	for ck, n := range k.counts {
		var group []string
		if len(k.job.OtherGroupBy) > 0 {
			group = strings.Split(ck.group, groupSep)
		}
		records = append(records, Record{
			Group:    group,
			Value:    ck.value,
			Previous: ck.previous,
			Current:  ck.current,
			Final:    ck.final,
			Count:    n,
		})
	}
	sort.Slice(records, func(i, j int) bool { return recordLess(records[i], records[j]) })

	k.flush(k.current, records, k.job.Name)
	k.counts = make(map[countKey]int)
}

// recordLess orders records lexicographically over the full stringified key.
func recordLess(a, b Record) bool {
	for i := range a.Group {
		if a.Group[i] != b.Group[i] {
			return a.Group[i] < b.Group[i]
		}
	}
	if a.Value != b.Value {
		return a.Value < b.Value
	}
	if a.Previous != b.Previous {
		return a.Previous < b.Previous
	}
	if a.Current != b.Current {
		return a.Current < b.Current
	}
	return a.Final < b.Final
}
