// Package indicator 计算历史行情上的常用技术指标。
// 窗口未满或无法定义的位置返回 nil，序列化后为 null。
package indicator

// SMA 简单移动平均，前 window-1 个位置为 nil
func SMA(values []float64, window int) []*float64 {
	out := make([]*float64, len(values))
	if window <= 0 {
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = ptr(sum / float64(window))
		}
	}
	return out
}

// RSI 相对强弱指标：逐日涨跌幅分成上涨和下跌两部分，分别取 window 日简单平均。
// 第一天没有涨跌，因此前 window 个位置为 nil。
// 平均跌幅为 0 时，平均涨幅大于 0 记为 100，两者都为 0 记为 nil。
func RSI(closes []float64, window int) []*float64 {
	out := make([]*float64, len(closes))
	if window <= 0 || len(closes) <= window {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		diff := closes[i] - closes[i-1]
		if diff > 0 {
			gains[i] = diff
		} else {
			losses[i] = -diff
		}
	}

	var gainSum, lossSum float64
	for i := 1; i < len(closes); i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if i > window {
			gainSum -= gains[i-window]
			lossSum -= losses[i-window]
		}
		if i < window {
			continue
		}
		avgGain := gainSum / float64(window)
		avgLoss := lossSum / float64(window)
		switch {
		case avgLoss == 0 && avgGain == 0:
			// 0/0 无定义
		case avgLoss == 0:
			out[i] = ptr(100)
		default:
			rs := avgGain / avgLoss
			out[i] = ptr(100 - 100/(1+rs))
		}
	}
	return out
}

func ptr(v float64) *float64 {
	return &v
}
