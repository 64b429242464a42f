package core

import "time"

// Bar 一根K线（日线或分钟线）
// 所有数值字段统一为 float64，成交量缺失时为 0
type Bar struct {
	Date   string  `json:"date"`   // YYYY-MM-DD 或 YYYY-MM-DD HH:MM[:SS]
	Open   float64 `json:"open"`   // 开盘价
	Close  float64 `json:"close"`  // 收盘价
	High   float64 `json:"high"`   // 最高价
	Low    float64 `json:"low"`    // 最低价
	Volume float64 `json:"volume"` // 成交量
}

// HistoryRecord 历史行情记录，对应历史缓存文件中的一行
type HistoryRecord struct {
	Date          string  `json:"日期" parquet:"date"`
	Open          float64 `json:"开盘" parquet:"open"`
	Close         float64 `json:"收盘" parquet:"close"`
	High          float64 `json:"最高" parquet:"high"`
	Low           float64 `json:"最低" parquet:"low"`
	Volume        float64 `json:"成交量" parquet:"volume"`
	Amount        float64 `json:"成交额" parquet:"amount"`
	Amplitude     float64 `json:"振幅" parquet:"amplitude"`
	ChangePercent float64 `json:"涨跌幅" parquet:"change_percent"`
	Change        float64 `json:"涨跌额" parquet:"change"`
	Turnover      float64 `json:"换手率" parquet:"turnover"`
}

// Bar 转换为通用K线
func (r HistoryRecord) Bar() Bar {
	return Bar{Date: r.Date, Open: r.Open, Close: r.Close, High: r.High, Low: r.Low, Volume: r.Volume}
}

// Quote 单只股票或指数的行情快照
type Quote struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	PrevClose     float64   `json:"prev_close"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"` // 小数形式，0.01 表示 1%
	Volume        float64   `json:"volume"`
	Currency      string    `json:"currency"`
	Exchange      string    `json:"exchange"`
	Timestamp     time.Time `json:"timestamp"`
}

// SpotRow A股实时行情列表中的一行
type SpotRow struct {
	Code          string  `json:"code"`           // 代码
	Name          string  `json:"name"`           // 名称
	Price         float64 `json:"price"`          // 最新价
	ChangePercent float64 `json:"change_percent"` // 涨跌幅(%)
	Change        float64 `json:"change"`         // 涨跌额
	Volume        float64 `json:"volume"`         // 成交量
	Amount        float64 `json:"amount"`         // 成交额
	High          float64 `json:"high"`           // 最高
	Low           float64 `json:"low"`            // 最低
	Open          float64 `json:"open"`           // 今开
	PrevClose     float64 `json:"prev_close"`     // 昨收
	PE            float64 `json:"pe"`             // 市盈率-动态
	MarketCap     float64 `json:"market_cap"`     // 总市值
	Sector        string  `json:"sector"`         // 所属行业
}

// NewsItem 新闻快讯
type NewsItem struct {
	Title     string `json:"title"`
	Time      string `json:"time"`
	Content   string `json:"content"`
	URL       string `json:"url"`
	Publisher string `json:"publisher,omitempty"`
}

// CodeName 代码与名称
type CodeName struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
