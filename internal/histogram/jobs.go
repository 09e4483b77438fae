package histogram

import (
	"math"
	"strconv"

	"github.com/ohaynold/artaf/internal/hourly"
)

// maxAltitude is the highest cloud base we distinguish, in feet. Anything at
// or above it, including a clear sky, is reported as this value.
const maxAltitude = 18000

// DefaultJobs returns the standard analysis jobs: per-station yearly
// histograms over the wind, cloud, and visibility variables.
func DefaultJobs() []Job {
	return []Job{
		{
			Name: "YearlyStations",
			AscendingGroupBy: []GroupKey{
				{Name: "aerodrome", Fn: aerodrome},
				{Name: "year", Fn: year},
			},
			Values: []Value{
				{Name: "wind_speed", Fn: windSpeed},
				{Name: "wind_speed_with_gust", Fn: windSpeedWithGust},
				{Name: "wind_gust_spread", Fn: windGustSpread},
				{Name: "wind_north", Fn: windNorth},
				{Name: "wind_east", Fn: windEast},
				{Name: "clouds_lowest_base", Fn: cloudsLowestBase},
				{Name: "clouds_ceiling", Fn: cloudsCeiling},
				{Name: "visibility", Fn: visibility},
			},
		},
	}
}

func aerodrome(g *hourly.Group) string { return g.Aerodrome }

func year(g *hourly.Group) string { return g.HourStarting.Format("2006") }

func windSpeed(it hourly.Item) string {
	return strconv.Itoa(it.Conditions.Wind.Speed)
}

func windSpeedWithGust(it hourly.Item) string {
	return strconv.Itoa(it.Conditions.Wind.SpeedWithGust())
}

func windGustSpread(it hourly.Item) string {
	return strconv.Itoa(it.Conditions.Wind.SpeedWithGust() - it.Conditions.Wind.Speed)
}

// windNorth and windEast report rounded Cartesian components, or an empty
// string for variable winds, which have none.
func windNorth(it hourly.Item) string {
	north, _, ok := it.Conditions.Wind.Cartesian()
	if !ok {
		return ""
	}
	return strconv.Itoa(int(math.Round(north)))
}

func windEast(it hourly.Item) string {
	_, east, ok := it.Conditions.Wind.Cartesian()
	if !ok {
		return ""
	}
	return strconv.Itoa(int(math.Round(east)))
}

// cloudsLowestBase reports the base of the lowest layer regardless of
// coverage, capped at maxAltitude.
func cloudsLowestBase(it hourly.Item) string {
	lowest := it.Conditions.Clouds[0]
	if lowest.IsSkyClear() {
		return strconv.Itoa(maxAltitude)
	}
	return strconv.Itoa(min(*lowest.Base, maxAltitude))
}

// cloudsCeiling reports the base of the lowest layer covering at least half
// the sky, or maxAltitude when there is none.
func cloudsCeiling(it hourly.Item) string {
	for _, layer := range it.Conditions.Clouds {
		if layer.Coverage.Fraction() >= 0.5 {
			return strconv.Itoa(min(*layer.Base, maxAltitude))
		}
	}
	return strconv.Itoa(maxAltitude)
}

func visibility(it hourly.Item) string {
	return strconv.FormatFloat(it.Conditions.Visibility.Miles(), 'g', -1, 64)
}
