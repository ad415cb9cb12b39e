package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tod(s string) *TimeOfDay {
	t := MustTimeOfDay(s)
	return &t
}

func nightSchedule(start, end string) Schedule {
	return Schedule{
		BasePrice:     decimal.NewFromInt(1000),
		AutoSwitch:    true,
		Start:         tod(start),
		End:           tod(end),
		OverridePrice: decimal.NewNullDecimal(decimal.NewFromInt(1500)),
	}
}

func at(hhmm string) time.Time {
	t := MustTimeOfDay(hhmm)
	return time.Date(2025, 3, 1, int(t)/60, int(t)%60, 0, 0, time.UTC)
}

func TestEffectivePriceAt(t *testing.T) {
	tests := []struct {
		name     string
		schedule Schedule
		now      string
		wrap     bool
		want     int64
	}{
		{"switch off uses base", Schedule{BasePrice: decimal.NewFromInt(800)}, "23:30", true, 800},
		{"same day window inside", nightSchedule("20:00", "22:00"), "21:15", true, 1500},
		{"same day window start inclusive", nightSchedule("20:00", "22:00"), "20:00", true, 1500},
		{"same day window end inclusive", nightSchedule("20:00", "22:00"), "22:00", true, 1500},
		{"same day window outside", nightSchedule("20:00", "22:00"), "22:01", true, 1000},
		{"overnight window before midnight", nightSchedule("23:00", "01:00"), "23:30", true, 1500},
		{"overnight window after midnight", nightSchedule("23:00", "01:00"), "00:45", true, 1500},
		{"overnight window midday", nightSchedule("23:00", "01:00"), "12:00", true, 1000},
		{"overnight window without wrap", nightSchedule("23:00", "01:00"), "23:30", false, 1000},
		{"incomplete schedule uses base", Schedule{BasePrice: decimal.NewFromInt(1000), AutoSwitch: true, Start: tod("23:00")}, "23:30", true, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EffectivePriceAt(tt.schedule, at(tt.now), tt.wrap)
			assert.True(t, decimal.NewFromInt(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestResolverUsesVenueTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/Argentina/Cordoba")
	require.NoError(t, err)

	// 02:30 UTC is 23:30 in Cordoba (UTC-3).
	clock := Fake(time.Date(2025, 3, 2, 2, 30, 0, 0, time.UTC))
	r := NewResolver(clock, loc, true)

	got := r.EffectivePrice(nightSchedule("23:00", "01:00"))
	assert.True(t, decimal.NewFromInt(1500).Equal(got))

	clock.Advance(12 * time.Hour)
	got = r.EffectivePrice(nightSchedule("23:00", "01:00"))
	assert.True(t, decimal.NewFromInt(1000).Equal(got))
}

func TestParseTimeOfDay(t *testing.T) {
	v, err := ParseTimeOfDay("23:00:00")
	require.NoError(t, err)
	assert.Equal(t, "23:00", v.String())

	v, err = ParseTimeOfDay("01:05")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay(65), v)

	for _, bad := range []string{"", "24:00", "12", "12:60", "aa:bb", "10:00:99"} {
		_, err := ParseTimeOfDay(bad)
		assert.Error(t, err, bad)
	}
}

func TestTimeOfDayScan(t *testing.T) {
	var v TimeOfDay
	require.NoError(t, v.Scan("21:30:00"))
	assert.Equal(t, "21:30", v.String())

	require.NoError(t, v.Scan([]byte("06:15")))
	assert.Equal(t, "06:15", v.String())

	require.NoError(t, v.Scan(time.Date(0, 1, 1, 23, 45, 0, 0, time.UTC)))
	assert.Equal(t, "23:45", v.String())

	assert.Error(t, v.Scan(42))

	val, err := MustTimeOfDay("07:05").Value()
	require.NoError(t, err)
	assert.Equal(t, "07:05:00", val)
}

func TestTimeOfDayJSON(t *testing.T) {
	var v TimeOfDay
	require.NoError(t, v.UnmarshalJSON([]byte(`"23:00"`)))
	b, err := v.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"23:00"`, string(b))
	assert.Error(t, v.UnmarshalJSON([]byte(`"25:00"`)))
}
