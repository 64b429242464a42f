package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_Accessors(t *testing.T) {
	tb := NewTable([]string{"日期", "开盘", "成交量"}, [][]string{
		{"2024-01-02", "10.5", "1,200"},
		{"2024-01-03", "-", ""},
	})

	assert.Equal(t, 2, tb.Len())
	assert.False(t, tb.Empty())
	assert.True(t, tb.Has("日期", "开盘"))
	assert.False(t, tb.Has("日期", "收盘"))
	assert.Equal(t, []string{"收盘"}, tb.Missing("开盘", "收盘"))

	assert.Equal(t, "2024-01-02", tb.Get(0, "日期"))
	assert.Equal(t, "", tb.Get(5, "日期"), "越界返回空串")
	assert.Equal(t, "", tb.Get(0, "不存在"))

	v, ok := tb.Float(0, "开盘")
	assert.True(t, ok)
	assert.Equal(t, 10.5, v)
	assert.Equal(t, 1200.0, tb.FloatOr(0, "成交量", 0))

	_, ok = tb.Float(1, "开盘")
	assert.False(t, ok, "横杠视为无效数值")
	assert.Equal(t, 0.0, tb.FloatOr(1, "成交量", 0))

	head := tb.Head(1)
	assert.Equal(t, 1, head.Len())
	assert.Equal(t, 2, tb.Head(10).Len())
}

func TestTable_Nil(t *testing.T) {
	var tb *Table
	assert.Equal(t, 0, tb.Len())
	assert.True(t, tb.Empty())
	assert.False(t, tb.Has("x"))
	assert.Equal(t, "", tb.Get(0, "x"))
	assert.Nil(t, tb.Head(3))
}

func TestParseFloat(t *testing.T) {
	for in, want := range map[string]float64{"1.5": 1.5, " 2 ": 2, "3.1%": 3.1, "-0.8": -0.8, "1,000.25": 1000.25} {
		v, ok := ParseFloat(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, v, in)
	}
	for _, in := range []string{"", "-", "NaN", "nan", "abc", "None", "Inf", "-inf", "+Infinity", "1e400"} {
		_, ok := ParseFloat(in)
		assert.False(t, ok, in)
	}
}

func TestBaseError(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapError(CodeUpstream, "stock_zh_a_hist failed", cause).WithContext("source", "stock_zh_a_hist")

	assert.Contains(t, err.Error(), "UPSTREAM_ERROR")
	assert.Contains(t, err.Error(), "connection refused")
	assert.ErrorIs(t, err, cause)
	assert.True(t, errors.Is(err, NewError(CodeUpstream, "")))
	assert.False(t, errors.Is(err, NewError(CodeCacheIO, "")))
	assert.Equal(t, "stock_zh_a_hist", err.Context["source"])

	wrapped := fmt.Errorf("fetch: %w", err)
	code, ok := CodeOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeUpstream, code)

	_, ok = CodeOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestHistoryRecord_Bar(t *testing.T) {
	r := HistoryRecord{Date: "2024-01-05", Open: 1, Close: 2, High: 3, Low: 0.5, Volume: 100, Amount: 999}
	assert.Equal(t, Bar{Date: "2024-01-05", Open: 1, Close: 2, High: 3, Low: 0.5, Volume: 100}, r.Bar())
}
