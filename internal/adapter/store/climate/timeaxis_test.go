package climate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTimes_Days(t *testing.T) {
	got, err := decodeTimes([]float64{0, 1, 31.5}, "days since 2023-01-01 00:00:00", "standard")
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 2, 1, 12, 0, 0, 0, time.UTC),
	}, got)
}

func TestDecodeTimes_Hours(t *testing.T) {
	got, err := decodeTimes([]float64{12, 36}, "hours since 2024-05-01", "")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), got[0])
	assert.Equal(t, time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC), got[1])
}

func TestDecodeTimes_Errors(t *testing.T) {
	_, err := decodeTimes([]float64{0}, "days after 2023-01-01", "")
	assert.Error(t, err)

	_, err = decodeTimes([]float64{0}, "fortnights since 2023-01-01", "")
	assert.Error(t, err)

	_, err = decodeTimes([]float64{0}, "days since 2023-01-01", "360_day")
	assert.Error(t, err)
}

func TestParseTimeUnits_ZoneSuffix(t *testing.T) {
	step, ref, err := parseTimeUnits("seconds since 1970-01-01 00:00:00 UTC")
	require.NoError(t, err)
	assert.Equal(t, time.Second, step)
	assert.Equal(t, time.Unix(0, 0).UTC(), ref)
}
