package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"stockapi/pkg/core"
	"stockapi/pkg/ticker"
)

// IndexDailyTX 腾讯指数日线 stock_zh_index_daily_tx
// 每行依次为 日期、开盘、收盘、最高、最低、成交量
func (c *Client) IndexDailyTX(ctx context.Context, args Args) (*core.Table, error) {
	symbol := ticker.WithIndexPrefix(args.Symbol)
	start := dashedDate(args.StartDate, "2000-01-01")
	end := dashedDate(args.EndDate, "2050-12-31")

	q := url.Values{}
	q.Set("param", strings.Join([]string{symbol, "day", start, end, "2000", ""}, ","))

	var resp struct {
		Code int                        `json:"code"`
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := c.getJSON(ctx, c.endpoints.Tencent+"/appstock/app/fqkline/get?"+q.Encode(), "https://gu.qq.com/", &resp); err != nil {
		return nil, fmt.Errorf("stock_zh_index_daily_tx %s: %w", symbol, err)
	}

	raw, ok := resp.Data[symbol]
	if !ok {
		return nil, fmt.Errorf("stock_zh_index_daily_tx %s: %w", symbol, core.ErrEmptyResult)
	}
	var series map[string]json.RawMessage
	if err := json.Unmarshal(raw, &series); err != nil {
		return nil, fmt.Errorf("stock_zh_index_daily_tx %s: %w", symbol, err)
	}

	days, ok := series["day"]
	if !ok {
		days, ok = series["qfqday"]
	}
	if !ok {
		return nil, fmt.Errorf("stock_zh_index_daily_tx %s: %w", symbol, core.ErrEmptyResult)
	}

	var rows [][]interface{}
	if err := decodeJSON(days, &rows); err != nil {
		return nil, fmt.Errorf("stock_zh_index_daily_tx %s: %w", symbol, err)
	}

	t := core.NewTable([]string{"date", "open", "close", "high", "low", "volume"}, make([][]string, 0, len(rows)))
	for _, r := range rows {
		if len(r) < 6 {
			continue
		}
		t.Append(str(r[0]), str(r[1]), str(r[2]), str(r[3]), str(r[4]), str(r[5]))
	}
	return t, nil
}

// dashedDate 把 YYYYMMDD 转为 YYYY-MM-DD
func dashedDate(s, def string) string {
	s = compactDate(s, "")
	if len(s) != 8 {
		return def
	}
	return s[:4] + "-" + s[4:6] + "-" + s[6:]
}
