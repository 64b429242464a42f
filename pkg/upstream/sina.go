package upstream

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"

	"stockapi/pkg/core"
	"stockapi/pkg/ticker"
)

const sinaReferer = "https://finance.sina.com.cn/"

// sinaKLine json_v2 K线接口，scale 为分钟数，240 即日线
func (c *Client) sinaKLine(ctx context.Context, symbol, scale string, datalen int) ([]map[string]interface{}, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("scale", scale)
	q.Set("ma", "no")
	q.Set("datalen", strconv.Itoa(datalen))

	body, err := c.get(ctx, c.endpoints.SinaQuotes+"/cn/api/json_v2.php/CN_MarketDataService.getKLineData?"+q.Encode(), sinaReferer)
	if err != nil {
		return nil, err
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, core.ErrEmptyResult
	}

	var rows []map[string]interface{}
	if err := decodeJSON(body, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, core.ErrEmptyResult
	}
	return rows, nil
}

func klineTable(rows []map[string]interface{}, dateColumn string) *core.Table {
	t := core.NewTable([]string{dateColumn, "open", "high", "low", "close", "volume"}, make([][]string, 0, len(rows)))
	for _, r := range rows {
		t.Append(str(r["day"]), str(r["open"]), str(r["high"]), str(r["low"]), str(r["close"]), str(r["volume"]))
	}
	return t
}

// StockMinute 新浪个股分钟线 stock_zh_a_minute
func (c *Client) StockMinute(ctx context.Context, args Args) (*core.Table, error) {
	period := args.Period
	if period == "" {
		period = "1"
	}
	rows, err := c.sinaKLine(ctx, ticker.WithMarketPrefix(args.Symbol), period, 1970)
	if err != nil {
		return nil, fmt.Errorf("stock_zh_a_minute %s: %w", args.Symbol, err)
	}
	return klineTable(rows, "day"), nil
}

// IndexDaily 新浪指数日线 stock_zh_index_daily
func (c *Client) IndexDaily(ctx context.Context, args Args) (*core.Table, error) {
	rows, err := c.sinaKLine(ctx, ticker.WithIndexPrefix(args.Symbol), "240", 10000)
	if err != nil {
		return nil, fmt.Errorf("stock_zh_index_daily %s: %w", args.Symbol, err)
	}
	return klineTable(rows, "date"), nil
}

// IndexSpot 新浪沪深指数实时行情 stock_zh_index_spot_sina
func (c *Client) IndexSpot(ctx context.Context, _ Args) (*core.Table, error) {
	t := core.NewTable([]string{"代码", "名称", "最新价", "涨跌额", "涨跌幅", "昨收", "今开", "最高", "最低", "成交量", "成交额"}, nil)

	for page := 1; page <= 20; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("num", "80")
		q.Set("sort", "symbol")
		q.Set("asc", "1")
		q.Set("node", "hs_s")
		q.Set("_s_r_a", "page")

		var rows []map[string]interface{}
		if err := c.getJSON(ctx, c.endpoints.SinaMarket+"/quotes_service/api/json_v2.php/Market_Center.getHQNodeData?"+q.Encode(), sinaReferer, &rows); err != nil {
			if page == 1 {
				return nil, fmt.Errorf("stock_zh_index_spot_sina: %w", err)
			}
			break
		}
		if len(rows) == 0 {
			break
		}
		for _, r := range rows {
			t.Append(str(r["symbol"]), str(r["name"]), str(r["trade"]), str(r["pricechange"]),
				str(r["changepercent"]), str(r["settlement"]), str(r["open"]), str(r["high"]),
				str(r["low"]), str(r["volume"]), str(r["amount"]))
		}
		if len(rows) < 80 {
			break
		}
	}
	return t, nil
}

// GlobalNewsSina 新浪财经全球快讯 stock_info_global_sina
func (c *Client) GlobalNewsSina(ctx context.Context, _ Args) (*core.Table, error) {
	q := url.Values{}
	q.Set("page", "1")
	q.Set("page_size", "100")
	q.Set("zhibo_id", "152")
	q.Set("tag_id", "0")
	q.Set("dire", "f")
	q.Set("dpc", "1")
	q.Set("type", "0")

	var resp struct {
		Result struct {
			Data struct {
				Feed struct {
					List []struct {
						RichText   string `json:"rich_text"`
						CreateTime string `json:"create_time"`
					} `json:"list"`
				} `json:"feed"`
			} `json:"data"`
		} `json:"result"`
	}
	if err := c.getJSON(ctx, c.endpoints.SinaZhibo+"/api/zhibo/feed?"+q.Encode(), sinaReferer, &resp); err != nil {
		return nil, fmt.Errorf("stock_info_global_sina: %w", err)
	}

	t := core.NewTable([]string{"时间", "内容"}, nil)
	for _, n := range resp.Result.Data.Feed.List {
		t.Append(n.CreateTime, n.RichText)
	}
	return t, nil
}

// BrokerNewsSina 新浪证券原创 stock_info_broker_sina
func (c *Client) BrokerNewsSina(ctx context.Context, args Args) (*core.Table, error) {
	page := args.Page
	if page <= 0 {
		page = 1
	}
	q := url.Values{}
	q.Set("pageid", "186")
	q.Set("lid", "1746")
	q.Set("num", "50")
	q.Set("page", strconv.Itoa(page))

	var resp struct {
		Result struct {
			Data []map[string]interface{} `json:"data"`
		} `json:"result"`
	}
	if err := c.getJSON(ctx, c.endpoints.SinaFeed+"/api/roll/get?"+q.Encode(), sinaReferer, &resp); err != nil {
		return nil, fmt.Errorf("stock_info_broker_sina: %w", err)
	}

	t := core.NewTable([]string{"时间", "内容", "链接"}, nil)
	for _, n := range resp.Result.Data {
		ts := ""
		if tm := unixToLocal(str(n["ctime"])); !tm.IsZero() {
			ts = tm.Format("2006-01-02 15:04:05")
		}
		t.Append(ts, str(n["title"]), str(n["url"]))
	}
	return t, nil
}
