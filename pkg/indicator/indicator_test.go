package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func values(ps []*float64) []interface{} {
	out := make([]interface{}, len(ps))
	for i, p := range ps {
		if p == nil {
			out[i] = nil
		} else {
			out[i] = *p
		}
	}
	return out
}

func TestSMA(t *testing.T) {
	got := SMA([]float64{1, 2, 3, 4, 5}, 3)
	assert.Equal(t, []interface{}{nil, nil, 2.0, 3.0, 4.0}, values(got))

	assert.Equal(t, []interface{}{nil, nil}, values(SMA([]float64{1, 2}, 5)))
	assert.Len(t, SMA(nil, 5), 0)
	assert.Equal(t, []interface{}{nil}, values(SMA([]float64{1}, 0)))
}

func TestRSI(t *testing.T) {
	t.Run("单边上涨", func(t *testing.T) {
		closes := []float64{1, 2, 3, 4, 5, 6}
		got := RSI(closes, 3)
		assert.Equal(t, []interface{}{nil, nil, nil, 100.0, 100.0, 100.0}, values(got))
	})

	t.Run("横盘无定义", func(t *testing.T) {
		got := RSI([]float64{5, 5, 5, 5, 5}, 3)
		assert.Equal(t, []interface{}{nil, nil, nil, nil, nil}, values(got))
	})

	t.Run("涨跌混合", func(t *testing.T) {
		// 涨跌: +2, -1, +1, -2
		closes := []float64{10, 12, 11, 12, 10}
		got := RSI(closes, 2)
		require.Len(t, got, 5)
		assert.Nil(t, got[0])
		assert.Nil(t, got[1])
		// 窗口 [+2, -1]: avgGain=1, avgLoss=0.5, rs=2
		assert.InDelta(t, 100-100/3.0, *got[2], 1e-9)
		// 窗口 [-1, +1]: rs=1
		assert.InDelta(t, 50.0, *got[3], 1e-9)
		// 窗口 [+1, -2]: rs=0.5
		assert.InDelta(t, 100-100/1.5, *got[4], 1e-9)
	})

	t.Run("数据不足", func(t *testing.T) {
		got := RSI([]float64{1, 2, 3}, 14)
		assert.Equal(t, []interface{}{nil, nil, nil}, values(got))
	})
}
