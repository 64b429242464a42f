package placeholder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", PolicyZero, false},
		{"zero", PolicyZero, false},
		{"RANDOM", PolicyRandom, false},
		{" error ", PolicyError, false},
		{"fake", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 12.35, Round2(12.345))
	assert.Equal(t, 1.1, Round2(1.1))
	assert.Equal(t, 0.0123, Round(0.012345, 4))
}

func TestQuoteZeroAndError(t *testing.T) {
	for _, p := range []Policy{PolicyZero, PolicyError} {
		g := New(p, Config{Seed: 1})
		assert.Equal(t, Quote{}, g.Quote(false))
		assert.False(t, g.Fabricates())
	}
}

func TestQuoteRandomRanges(t *testing.T) {
	g := New(PolicyRandom, Config{Seed: 42})
	for i := 0; i < 200; i++ {
		q := g.Quote(false)
		assert.GreaterOrEqual(t, q.PrevClose, 10.0)
		assert.LessOrEqual(t, q.PrevClose, 100.0)
		assert.LessOrEqual(t, q.ChangePercent, 0.04)
		assert.GreaterOrEqual(t, q.ChangePercent, -0.04)
		assert.GreaterOrEqual(t, q.Volume, 1e5)
		assert.Less(t, q.Volume, 1e7)
		assert.GreaterOrEqual(t, q.High, q.Low)

		idx := g.Quote(true)
		assert.GreaterOrEqual(t, idx.PrevClose, 3000.0)
		assert.LessOrEqual(t, idx.PrevClose, 4000.0)
		assert.LessOrEqual(t, idx.ChangePercent, 0.02)
	}
}

func TestQuoteSeedIsDeterministic(t *testing.T) {
	a := New(PolicyRandom, Config{Seed: 7})
	b := New(PolicyRandom, Config{Seed: 7})
	assert.Equal(t, a.Quote(false), b.Quote(false))
}

func TestChartDailyWeekdaysOnly(t *testing.T) {
	g := New(PolicyRandom, Config{Seed: 3})
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local) // 周一
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.Local)

	bars := g.Chart(start, end, "1d", false)
	require.Len(t, bars, 23)
	for _, b := range bars {
		d, err := time.ParseInLocation("2006-01-02", b.Date, time.Local)
		require.NoError(t, err)
		assert.True(t, isWeekday(d), b.Date)
		assert.GreaterOrEqual(t, b.High, b.Low)
		assert.GreaterOrEqual(t, b.Volume, 100000.0)
	}
	for i := 1; i < len(bars); i++ {
		assert.Less(t, bars[i-1].Date, bars[i].Date)
	}
}

func TestChartIntraday(t *testing.T) {
	g := New(PolicyRandom, Config{Seed: 3})
	end := time.Date(2024, 1, 10, 14, 0, 0, 0, time.Local) // 周三
	start := end.AddDate(0, 0, -1)

	bars := g.Chart(start, end, "1m", true)
	require.Len(t, bars, 60)
	assert.Equal(t, "2024-01-09 09:00", bars[0].Date)
	assert.Equal(t, "2024-01-09 09:59", bars[59].Date)
	assert.InDelta(t, 3500, bars[0].Open, 0.01)
}

func TestChartPadsToMinimum(t *testing.T) {
	g := New(PolicyRandom, Config{Seed: 3})
	sat := time.Date(2024, 1, 6, 12, 0, 0, 0, time.Local)

	bars := g.Chart(sat, sat, "1d", false)
	assert.Len(t, bars, 10)

	// 周末的分时请求也会补齐
	bars = g.Chart(sat, sat.AddDate(0, 0, 1), "5m", false)
	assert.Len(t, bars, 10)
}

func TestChartNonRandomPolicies(t *testing.T) {
	now := time.Now()
	for _, p := range []Policy{PolicyZero, PolicyError} {
		bars := New(p, Config{}).Chart(now.AddDate(0, 0, -30), now, "1d", false)
		assert.NotNil(t, bars)
		assert.Empty(t, bars)
	}
}
