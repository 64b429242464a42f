// Package ticker 负责股票/指数代码的标准化与市场归属判断。
package ticker

import (
	"strings"
)

// IndexMarker 指数代码前缀标记，例如 ^sh000300
const IndexMarker = "^"

// knownIndices 无需 ^ 标记也视为指数的代码
var knownIndices = map[string]bool{
	"sh000016": true,
	"sh000300": true,
	"sh000852": true,
	"sh000001": true,
	"sz399001": true,
	"sz399006": true,
	// 图表接口使用的无前缀写法
	"000016": true,
	"000300": true,
	"000852": true,
}

var indexNames = map[string]string{
	"000016": "上证50",
	"000300": "沪深300",
	"000852": "中证1000",
	"000001": "上证指数",
	"399001": "深证成指",
	"399006": "创业板指",
}

// Normalize 去掉指数标记并判断是否为指数。对已标准化的代码再次调用结果不变。
func Normalize(raw string) (string, bool) {
	code := strings.TrimSpace(raw)
	marked := strings.HasPrefix(code, IndexMarker)
	code = strings.TrimLeft(code, IndexMarker)
	return code, marked || knownIndices[strings.ToLower(code)]
}

// IsKnownIndex 代码是否在指数白名单中
func IsKnownIndex(code string) bool {
	return knownIndices[strings.ToLower(code)]
}

// KnownIndices 返回带市场前缀的指数白名单
func KnownIndices() []string {
	return []string{"sh000001", "sz399001", "sz399006", "sh000016", "sh000300", "sh000852"}
}

// StripMarketPrefix 去掉 sh/sz/bj 前缀
func StripMarketPrefix(code string) string {
	lower := strings.ToLower(code)
	for _, p := range []string{"sh", "sz", "bj"} {
		if strings.HasPrefix(lower, p) {
			return code[len(p):]
		}
	}
	return code
}

// HasMarketPrefix 代码是否已带 sh/sz/bj 前缀
func HasMarketPrefix(code string) bool {
	return StripMarketPrefix(code) != code
}

// MarketPrefix 根据股票代码首位判断交易所前缀
func MarketPrefix(code string) string {
	code = StripMarketPrefix(code)
	switch {
	case strings.HasPrefix(code, "6"), strings.HasPrefix(code, "5"), strings.HasPrefix(code, "9"):
		return "sh"
	case strings.HasPrefix(code, "0"), strings.HasPrefix(code, "3"),
		strings.HasPrefix(code, "1"), strings.HasPrefix(code, "2"):
		return "sz"
	case strings.HasPrefix(code, "4"), strings.HasPrefix(code, "8"):
		return "bj"
	default:
		return "sz"
	}
}

// WithMarketPrefix 为代码加上交易所前缀，已有前缀时原样返回（统一小写）
func WithMarketPrefix(code string) string {
	if HasMarketPrefix(code) {
		return strings.ToLower(code[:2]) + code[2:]
	}
	return MarketPrefix(code) + code
}

// WithIndexPrefix 为指数代码加前缀：399 开头属于深市，其余按沪市处理
func WithIndexPrefix(code string) string {
	if HasMarketPrefix(code) {
		return strings.ToLower(code[:2]) + code[2:]
	}
	if strings.HasPrefix(code, "399") {
		return "sz" + code
	}
	return "sh" + code
}

// IsAShare 六位数字的沪深京A股代码
func IsAShare(code string) bool {
	code = StripMarketPrefix(code)
	if len(code) != 6 || !isDigits(code) {
		return false
	}
	switch code[0] {
	case '0', '3', '6', '4', '8':
		return true
	}
	return false
}

// Exchange 返回交易所简称和全称
func Exchange(code string) (string, string) {
	var prefix string
	if HasMarketPrefix(code) {
		prefix = strings.ToLower(code[:2])
	} else {
		prefix = MarketPrefix(code)
	}
	switch prefix {
	case "sh":
		return "SSE", "上海证券交易所"
	case "bj":
		return "BSE", "北京证券交易所"
	default:
		return "SZSE", "深圳证券交易所"
	}
}

// IndexName 返回常见指数的中文名称
func IndexName(code string) (string, bool) {
	name, ok := indexNames[StripMarketPrefix(code)]
	return name, ok
}

// DisplayName 指数取中文名称，其余返回 "股票 <code>"
func DisplayName(code string, isIndex bool) string {
	if isIndex {
		if name, ok := IndexName(code); ok {
			return name
		}
	}
	return "股票 " + code
}

// SafeFileName 把代码中的 . 和 ^ 替换为下划线，用于缓存文件名
func SafeFileName(code string) string {
	return strings.NewReplacer(".", "_", "^", "_").Replace(code)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
