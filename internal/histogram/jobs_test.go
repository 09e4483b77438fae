package histogram_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ohaynold/artaf/internal/histogram"
	"github.com/ohaynold/artaf/internal/hourly"
	"github.com/ohaynold/artaf/internal/taf"
)

func yearlyValues(t *testing.T) map[string]func(hourly.Item) string {
	t.Helper()
	jobs := histogram.DefaultJobs()
	require.Len(t, jobs, 1)
	values := make(map[string]func(hourly.Item) string, len(jobs[0].Values))
	for _, v := range jobs[0].Values {
		values[v.Name] = v.Fn
	}
	return values
}

func item(c taf.Conditions) hourly.Item {
	return hourly.Item{Conditions: c}
}

func TestDefaultJobs_WindValues(t *testing.T) {
	values := yearlyValues(t)

	dir, gust := 180, 25
	gusty := item(taf.Conditions{Wind: taf.Wind{Direction: &dir, Speed: 15, Gust: &gust}})
	assert.Equal(t, "15", values["wind_speed"](gusty))
	assert.Equal(t, "25", values["wind_speed_with_gust"](gusty))
	assert.Equal(t, "10", values["wind_gust_spread"](gusty))
	assert.Equal(t, "15", values["wind_north"](gusty))
	assert.Equal(t, "0", values["wind_east"](gusty))

	steady := item(taf.Conditions{Wind: taf.Wind{Direction: &dir, Speed: 15}})
	assert.Equal(t, "15", values["wind_speed_with_gust"](steady))
	assert.Equal(t, "0", values["wind_gust_spread"](steady))

	variable := item(taf.Conditions{Wind: taf.Wind{Speed: 5}})
	assert.Equal(t, "", values["wind_north"](variable))
	assert.Equal(t, "", values["wind_east"](variable))
}

func TestDefaultJobs_CloudValues(t *testing.T) {
	values := yearlyValues(t)

	base1, base2 := 1500, 4000
	layered := item(taf.Conditions{Clouds: []taf.CloudLayer{
		{Base: &base1, Coverage: taf.CoverageFew},
		{Base: &base2, Coverage: taf.CoverageBroken},
	}})
	// FEW does not make a ceiling; the lowest base still counts.
	assert.Equal(t, "1500", values["clouds_lowest_base"](layered))
	assert.Equal(t, "4000", values["clouds_ceiling"](layered))

	clear := item(taf.Conditions{Clouds: []taf.CloudLayer{{Coverage: taf.CoverageSkyClear}}})
	assert.Equal(t, "18000", values["clouds_lowest_base"](clear))
	assert.Equal(t, "18000", values["clouds_ceiling"](clear))

	high := 30000
	cirrus := item(taf.Conditions{Clouds: []taf.CloudLayer{
		{Base: &high, Coverage: taf.CoverageOvercast},
	}})
	assert.Equal(t, "18000", values["clouds_lowest_base"](cirrus))
	assert.Equal(t, "18000", values["clouds_ceiling"](cirrus))

	low := 200
	fog := item(taf.Conditions{Clouds: []taf.CloudLayer{
		{Base: &low, Coverage: taf.CoverageVerticalVisibility},
	}})
	assert.Equal(t, "200", values["clouds_ceiling"](fog))
}

func TestDefaultJobs_Visibility(t *testing.T) {
	values := yearlyValues(t)

	assert.Equal(t, "6", values["visibility"](item(taf.Conditions{
		Visibility: taf.Visibility{Num: 6, Den: 1, IsExcess: true},
	})))
	assert.Equal(t, "1.5", values["visibility"](item(taf.Conditions{
		Visibility: taf.Visibility{Num: 3, Den: 2},
	})))
	assert.Equal(t, "0.25", values["visibility"](item(taf.Conditions{
		Visibility: taf.Visibility{Num: 1, Den: 4},
	})))
}
