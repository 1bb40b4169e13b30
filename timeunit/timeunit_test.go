package timeunit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAdd(t *testing.T) {
	base := time.Date(2024, time.January, 31, 10, 30, 0, 0, time.UTC)
	tests := []struct {
		name   string
		unit   Unit
		amount int
		want   time.Time
	}{
		{"seconds", Second, 90, time.Date(2024, time.January, 31, 10, 31, 30, 0, time.UTC)},
		{"minutes", Minute, -30, time.Date(2024, time.January, 31, 10, 0, 0, 0, time.UTC)},
		{"hours", Hour, 14, time.Date(2024, time.February, 1, 0, 30, 0, 0, time.UTC)},
		{"days", Day, -31, time.Date(2023, time.December, 31, 10, 30, 0, 0, time.UTC)},
		{"weeks", Week, 2, time.Date(2024, time.February, 14, 10, 30, 0, 0, time.UTC)},
		{"month clamps to leap day", Month, 1, time.Date(2024, time.February, 29, 10, 30, 0, 0, time.UTC)},
		{"month backwards clamps", Month, -2, time.Date(2023, time.November, 30, 10, 30, 0, 0, time.UTC)},
		{"thirteen months", Month, 13, time.Date(2025, time.February, 28, 10, 30, 0, 0, time.UTC)},
		{"year", Year, 1, time.Date(2025, time.January, 31, 10, 30, 0, 0, time.UTC)},
		{"ten billion seconds", Second, 10000000000, time.Date(2340, time.December, 21, 4, 16, 40, 0, time.UTC)},
		{"three million hours", Hour, 3000000, time.Date(2366, time.April, 28, 10, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(Add(base, tt.unit, tt.amount)), "Add(%s, %d) = %v", tt.unit, tt.amount, Add(base, tt.unit, tt.amount))
		})
	}
}

func TestAddLeapYear(t *testing.T) {
	leap := time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), Add(leap, Year, 1))
}

func TestAddIsUTC(t *testing.T) {
	zone := time.FixedZone("UTC+4", 4*60*60)
	base := time.Date(2024, time.March, 1, 2, 0, 0, 0, zone)
	got := Add(base, Day, 1)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, time.Date(2024, time.March, 1, 22, 0, 0, 0, time.UTC), got)
}

func TestAddUnknownUnitPanics(t *testing.T) {
	assert.Panics(t, func() { Add(time.Now(), Unit(42), 1) })
}

func TestAddChecked(t *testing.T) {
	base := time.Date(2024, time.January, 31, 10, 30, 0, 0, time.UTC)
	tests := []struct {
		name   string
		unit   Unit
		amount int
		ok     bool
		want   time.Time
	}{
		{"ordinary", Day, 1, true, time.Date(2024, time.February, 1, 10, 30, 0, 0, time.UTC)},
		{"ten billion seconds", Second, 10000000000, true, time.Date(2340, time.December, 21, 4, 16, 40, 0, time.UTC)},
		{"last representable year", Year, 7975, true, time.Date(9999, time.January, 31, 10, 30, 0, 0, time.UTC)},
		{"first year past the range", Year, 7976, false, time.Time{}},
		{"back to year zero", Year, -2024, true, time.Date(0, time.January, 31, 10, 30, 0, 0, time.UTC)},
		{"before year zero", Year, -2025, false, time.Time{}},
		{"seconds overflowing a duration", Second, 99999999999999, false, time.Time{}},
		{"hundreds of millions of hours", Hour, 300000000, false, time.Time{}},
		{"huge days", Day, 9000000000000, false, time.Time{}},
		{"huge weeks", Week, -9000000000000, false, time.Time{}},
		{"huge months", Month, 1 << 40, false, time.Time{}},
		{"huge years", Year, 800000000000000000, false, time.Time{}},
		{"unknown unit", Unit(42), 1, false, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AddChecked(base, tt.unit, tt.amount)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "AddChecked(%s, %d) = %v", tt.unit, tt.amount, got)
			}
		})
	}
}

func TestParseUnit(t *testing.T) {
	for _, s := range []string{"day", "DAYS", "Day"} {
		u, ok := ParseUnit(s)
		assert.True(t, ok, s)
		assert.Equal(t, Day, u, s)
	}
	_, ok := ParseUnit("fortnight")
	assert.False(t, ok)
	_, ok = ParseUnit("dayss")
	assert.False(t, ok)
}
