package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimes_StructuredIsNoOp(t *testing.T) {
	in := map[string]float64{"zurich": 3600, "bern": 5400}

	got := ParseTimes(in)
	assert.Equal(t, in, got)

	// Idempotent: parsing the parsed result changes nothing.
	assert.Equal(t, got, ParseTimes(got))
}

func TestParseTimes_SerializedRoundTrip(t *testing.T) {
	structured := map[string]float64{"zurich": 3600, "bern": 5400.5}

	data, err := json.Marshal(structured)
	require.NoError(t, err)

	assert.Equal(t, ParseTimes(structured), ParseTimes(string(data)))
	assert.Equal(t, ParseTimes(structured), ParseTimes(data))
	assert.Equal(t, ParseTimes(structured), ParseTimes(json.RawMessage(data)))
}

func TestParseTimes_GenericMap(t *testing.T) {
	in := map[string]any{
		"zurich": float64(3600),
		"bern":   json.Number("5400"),
		"basel":  nil,       // missing measurement
		"luzern": "unknown", // junk value
	}

	got := ParseTimes(in)
	assert.Equal(t, map[string]float64{"zurich": 3600, "bern": 5400}, got)
}

func TestParseTimes_MalformedResolvesEmpty(t *testing.T) {
	assert.Empty(t, ParseTimes("not json at all"))
	assert.Empty(t, ParseTimes(nil))
	assert.Empty(t, ParseTimes(42))
	assert.Empty(t, ParseTimes(`["a","b"]`))
	assert.NotNil(t, ParseTimes(nil))
}
