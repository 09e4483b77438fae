package hourly

import (
	"fmt"
	"iter"
	"sort"
	"time"

	"github.com/ohaynold/artaf/internal/taf"
)

// Item is one forecast's contribution to a single hour.
type Item struct {
	IssuedAt   time.Time
	Amendment  taf.Amendment
	Conditions taf.Conditions
}

// Group collects every forecast issued for one aerodrome and one hour, in
// ascending order of issuance. A group is emitted exactly once, after no
// further forecast can contribute to it.
type Group struct {
	Aerodrome    string
	HourStarting time.Time
	Items        []Item
}

// GroupResult is the windower's per-element output: exactly one of Group or
// Err is non-nil.
type GroupResult struct {
	Group *Group
	Err   *taf.ParseError
}

// Windower regroups regularized forecasts for one aerodrome by the hour they
// describe. Forecasts must arrive in ascending order of issue time.
//
// DropMisfiled controls what happens to a forecast whose own aerodrome code
// differs from Aerodrome: either way a "misfiled TAF" error is emitted, and
// unless DropMisfiled is set the forecast's hours are still windowed under
// the expected aerodrome.
type Windower struct {
	Aerodrome    string
	DropMisfiled bool
}

// closeMargin is how far an hour must lie behind the newest issue time
// before its group is complete: no forecast updates hours further in the
// past than one hour.
const closeMargin = time.Hour

// Window lazily regroups the input stream. Buckets are held per open hour
// only, so memory stays bounded by the forecast horizon regardless of input
// length. Errors in the input pass through in their relative order. At end
// of input all remaining open hours are flushed in ascending order.
func (w *Windower) Window(in iter.Seq[taf.Result]) iter.Seq[GroupResult] {
	return func(yield func(GroupResult) bool) {
		buckets := make(map[time.Time][]Item)

		for res := range in {
			switch {
			case res.Err != nil:
				if !yield(GroupResult{Err: res.Err}) {
					return
				}
				continue
			case res.Forecast == nil:
				panic("hourly: result carries neither forecast nor error")
			}

			f := res.Forecast
			if f.Aerodrome != w.Aerodrome {
				misfiled := &taf.ParseError{
					Detail:  "misfiled TAF",
					Message: fmt.Sprintf("expected %q, got %q", w.Aerodrome, f.Aerodrome),
				}
				if !yield(GroupResult{Err: misfiled}) {
					return
				}
				if w.DropMisfiled {
					continue
				}
			}
			if f.FromLines == nil {
				continue
			}

			for _, line := range f.FromLines {
				buckets[line.ValidFrom] = append(buckets[line.ValidFrom], Item{
					IssuedAt:   f.IssuedAt,
					Amendment:  f.Amendment,
					Conditions: line.Conditions,
				})
			}

			for len(buckets) > 0 {
				hour := minHour(buckets)
				if !hour.Before(f.IssuedAt.Add(-closeMargin)) {
					break
				}
				if !yield(w.close(buckets, hour)) {
					return
				}
			}
		}

		// End of input: flush whatever is still open, oldest first.
		for _, hour := range sortedHours(buckets) {
			if !yield(w.close(buckets, hour)) {
				return
			}
		}
	}
}

func (w *Windower) close(buckets map[time.Time][]Item, hour time.Time) GroupResult {
	items := buckets[hour]
	delete(buckets, hour)
	return GroupResult{Group: &Group{Aerodrome: w.Aerodrome, HourStarting: hour, Items: items}}
}

func minHour(buckets map[time.Time][]Item) time.Time {
	var min time.Time
	first := true
	for hour := range buckets {
		if first || hour.Before(min) {
			min = hour
			first = false
		}
	}
	return min
}

func sortedHours(buckets map[time.Time][]Item) []time.Time {
	hours := make([]time.Time, 0, len(buckets))
	for hour := range buckets {
		hours = append(hours, hour)
	}
	sort.Slice(hours, func(i, j int) bool { return hours[i].Before(hours[j]) })
	return hours
}
