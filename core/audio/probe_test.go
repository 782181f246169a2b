package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProbeOutput(t *testing.T) {
	data := []byte(`{"format":{"bit_rate":"192000","duration":"215.300000"}}`)

	result, err := parseProbeOutput(data)
	require.NoError(t, err)
	assert.Equal(t, 192, result.SourceBitrateKbps)
	assert.InDelta(t, 215.3, result.DurationSeconds, 0.001)
}

func TestParseProbeOutputRoundsBitrate(t *testing.T) {
	result, err := parseProbeOutput([]byte(`{"format":{"bit_rate":"128500"}}`))
	require.NoError(t, err)
	assert.Equal(t, 129, result.SourceBitrateKbps)

	result, err = parseProbeOutput([]byte(`{"format":{"bit_rate":"128400"}}`))
	require.NoError(t, err)
	assert.Equal(t, 128, result.SourceBitrateKbps)
}

func TestParseProbeOutputMissingBitrate(t *testing.T) {
	cases := map[string]string{
		"absent":  `{"format":{"duration":"12.0"}}`,
		"empty":   `{"format":{"bit_rate":""}}`,
		"zero":    `{"format":{"bit_rate":"0"}}`,
		"garbage": `{"format":{"bit_rate":"n/a"}}`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseProbeOutput([]byte(data))
			require.ErrorIs(t, err, ErrBitrateUndeterminable)
		})
	}
}

func TestParseProbeOutputDurationOptional(t *testing.T) {
	result, err := parseProbeOutput([]byte(`{"format":{"bit_rate":"96000"}}`))
	require.NoError(t, err)
	assert.Equal(t, 96, result.SourceBitrateKbps)
	assert.Zero(t, result.DurationSeconds)
}

func TestParseProbeOutputInvalidJSON(t *testing.T) {
	_, err := parseProbeOutput([]byte("not json"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrBitrateUndeterminable)
}
