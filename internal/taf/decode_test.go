package taf_test

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ohaynold/artaf/internal/taf"
)

func TestDecodeStream(t *testing.T) {
	msgs := []taf.RawMessage{
		{Time: anchor, Text: "KORD 251131Z 2512/2618 21012KT P6SM SKC="},
		{Time: anchor, Text: "KORD 251131Z garbled="},
		{Time: anchor.Add(6 * time.Hour), Text: "KORD 251740Z 2518/2624 22015KT P6SM SKC="},
	}

	var results []taf.Result
	for res := range taf.NewParser().DecodeStream(slices.Values(msgs)) {
		results = append(results, res)
	}

	require.Len(t, results, 3)
	assert.True(t, results[0].Ok())
	assert.False(t, results[1].Ok())
	assert.True(t, results[2].Ok())
	assert.Equal(t, time.Date(2024, time.April, 25, 17, 40, 0, 0, time.UTC), results[2].Forecast.IssuedAt)
}

func TestDecodeStream_EarlyStop(t *testing.T) {
	msgs := []taf.RawMessage{
		{Time: anchor, Text: "KORD 251131Z 2512/2618 21012KT P6SM SKC="},
		{Time: anchor, Text: "KORD 251731Z 2518/2624 21012KT P6SM SKC="},
	}

	count := 0
	for range taf.NewParser().DecodeStream(slices.Values(msgs)) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}
