package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"stockapi/pkg/core"
	"stockapi/pkg/ticker"
)

const eastmoneyReferer = "https://quote.eastmoney.com/"

// 东方财富K线 fields2=f51..f61 的顺序
var (
	histColumns      = []string{"日期", "开盘", "收盘", "最高", "最低", "成交量", "成交额", "振幅", "涨跌幅", "涨跌额", "换手率"}
	minuteKColumns   = []string{"时间", "开盘", "收盘", "最高", "最低", "成交量", "成交额", "振幅", "涨跌幅", "涨跌额", "换手率"}
	trendColumns     = []string{"时间", "开盘", "收盘", "最高", "最低", "成交量", "成交额", "均价"}
	indexDailyColumn = []string{"date", "open", "close", "high", "low", "volume", "amount"}
)

type emKlineResponse struct {
	Data *struct {
		Code   string   `json:"code"`
		Name   string   `json:"name"`
		Klines []string `json:"klines"`
		Trends []string `json:"trends"`
	} `json:"data"`
}

// stockSecID 个股 secid：沪市 1.，深市和北交所 0.
func stockSecID(code string) string {
	code = ticker.StripMarketPrefix(code)
	if ticker.MarketPrefix(code) == "sh" {
		return "1." + code
	}
	return "0." + code
}

// indexSecID 指数 secid：399 开头为深市，其余按沪市
func indexSecID(code string) string {
	prefixed := ticker.WithIndexPrefix(code)
	if strings.HasPrefix(prefixed, "sz") {
		return "0." + prefixed[2:]
	}
	return "1." + prefixed[2:]
}

func klt(period string) string {
	switch strings.ToLower(period) {
	case "weekly":
		return "102"
	case "monthly":
		return "103"
	case "1", "5", "15", "30", "60":
		return period
	default:
		return "101"
	}
}

func fqt(adjust string) string {
	switch adjust {
	case "qfq":
		return "1"
	case "hfq":
		return "2"
	default:
		return "0"
	}
}

// compactDate 把 YYYY-MM-DD[ HH:MM:SS] 规整为 YYYYMMDD
func compactDate(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	return strings.ReplaceAll(s, "-", "")
}

func (c *Client) emKline(ctx context.Context, secid, period, adjust, beg, end string) ([]string, error) {
	q := url.Values{}
	q.Set("fields1", "f1,f2,f3,f4,f5,f6")
	q.Set("fields2", "f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61")
	q.Set("ut", "7eea3edcaed734bea9cbfc24409ed989")
	q.Set("klt", klt(period))
	q.Set("fqt", fqt(adjust))
	q.Set("secid", secid)
	q.Set("beg", compactDate(beg, "0"))
	q.Set("end", compactDate(end, "20500101"))

	var resp emKlineResponse
	if err := c.getJSON(ctx, c.endpoints.EastmoneyHist+"/api/qt/stock/kline/get?"+q.Encode(), eastmoneyReferer, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil || len(resp.Data.Klines) == 0 {
		return nil, core.ErrEmptyResult
	}
	return resp.Data.Klines, nil
}

func (c *Client) emTrends(ctx context.Context, secid string) ([]string, error) {
	q := url.Values{}
	q.Set("fields1", "f1,f2,f3,f4,f5,f6,f7,f8,f9,f10,f11,f12,f13")
	q.Set("fields2", "f51,f52,f53,f54,f55,f56,f57,f58")
	q.Set("ut", "7eea3edcaed734bea9cbfc24409ed989")
	q.Set("ndays", "5")
	q.Set("iscr", "0")
	q.Set("secid", secid)

	var resp emKlineResponse
	if err := c.getJSON(ctx, c.endpoints.EastmoneyHist+"/api/qt/stock/trends2/get?"+q.Encode(), eastmoneyReferer, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil || len(resp.Data.Trends) == 0 {
		return nil, core.ErrEmptyResult
	}
	return resp.Data.Trends, nil
}

// splitLines 把逗号分隔的行拆成表格，字段数不足的行丢弃
func splitLines(lines []string, columns []string) *core.Table {
	t := core.NewTable(columns, make([][]string, 0, len(lines)))
	for _, line := range lines {
		parts := strings.Split(line, ",")
		if len(parts) < len(columns) {
			continue
		}
		t.Append(parts[:len(columns)]...)
	}
	return t
}

// filterByTime 按首列的时间字符串过滤 [start, end]，空边界不限制
func filterByTime(t *core.Table, start, end string) *core.Table {
	if start == "" && end == "" {
		return t
	}
	out := core.NewTable(t.Columns, nil)
	for _, row := range t.Rows {
		ts := row[0]
		if start != "" && ts < start {
			continue
		}
		if end != "" && ts > end {
			continue
		}
		out.Append(row...)
	}
	return out
}

// StockHist 个股历史行情 stock_zh_a_hist
func (c *Client) StockHist(ctx context.Context, args Args) (*core.Table, error) {
	lines, err := c.emKline(ctx, stockSecID(args.Symbol), args.Period, args.Adjust, args.StartDate, args.EndDate)
	if err != nil {
		return nil, fmt.Errorf("stock_zh_a_hist %s: %w", args.Symbol, err)
	}
	return splitLines(lines, histColumns), nil
}

// StockHistMin 个股分时 stock_zh_a_hist_min_em，period=1 走分时走势接口
func (c *Client) StockHistMin(ctx context.Context, args Args) (*core.Table, error) {
	t, err := c.minute(ctx, stockSecID(args.Symbol), args)
	if err != nil {
		return nil, fmt.Errorf("stock_zh_a_hist_min_em %s: %w", args.Symbol, err)
	}
	return t, nil
}

// IndexHistMin 指数分时 index_zh_a_hist_min_em
func (c *Client) IndexHistMin(ctx context.Context, args Args) (*core.Table, error) {
	t, err := c.minute(ctx, indexSecID(args.Symbol), args)
	if err != nil {
		return nil, fmt.Errorf("index_zh_a_hist_min_em %s: %w", args.Symbol, err)
	}
	return t, nil
}

func (c *Client) minute(ctx context.Context, secid string, args Args) (*core.Table, error) {
	period := args.Period
	if period == "" {
		period = "1"
	}
	var t *core.Table
	if period == "1" {
		lines, err := c.emTrends(ctx, secid)
		if err != nil {
			return nil, err
		}
		t = splitLines(lines, trendColumns)
	} else {
		lines, err := c.emKline(ctx, secid, period, args.Adjust, "", "")
		if err != nil {
			return nil, err
		}
		t = splitLines(lines, minuteKColumns)
	}
	return filterByTime(t, args.StartDate, args.EndDate), nil
}

// IndexHist 指数历史行情 index_zh_a_hist
func (c *Client) IndexHist(ctx context.Context, args Args) (*core.Table, error) {
	lines, err := c.emKline(ctx, indexSecID(args.Symbol), args.Period, "", args.StartDate, args.EndDate)
	if err != nil {
		return nil, fmt.Errorf("index_zh_a_hist %s: %w", args.Symbol, err)
	}
	return splitLines(lines, histColumns), nil
}

// IndexDailyEM 指数日线 stock_zh_index_daily_em，英文列名
func (c *Client) IndexDailyEM(ctx context.Context, args Args) (*core.Table, error) {
	lines, err := c.emKline(ctx, indexSecID(args.Symbol), "daily", "", "", "")
	if err != nil {
		return nil, fmt.Errorf("stock_zh_index_daily_em %s: %w", args.Symbol, err)
	}
	return splitLines(lines, indexDailyColumn), nil
}

// clist 实时行情列表中的字段
var spotFields = []struct {
	key    string
	column string
}{
	{"f12", "代码"},
	{"f14", "名称"},
	{"f2", "最新价"},
	{"f3", "涨跌幅"},
	{"f4", "涨跌额"},
	{"f5", "成交量"},
	{"f6", "成交额"},
	{"f7", "振幅"},
	{"f15", "最高"},
	{"f16", "最低"},
	{"f17", "今开"},
	{"f18", "昨收"},
	{"f8", "换手率"},
	{"f9", "市盈率-动态"},
	{"f23", "市净率"},
	{"f20", "总市值"},
	{"f21", "流通市值"},
	{"f100", "所属行业"},
}

const clistPageSize = 100

type emClistResponse struct {
	Data *struct {
		Total int                      `json:"total"`
		Diff  []map[string]interface{} `json:"diff"`
	} `json:"data"`
}

// clist 分页拉取沪深京A股列表
func (c *Client) clist(ctx context.Context, fields string) ([]map[string]interface{}, error) {
	var all []map[string]interface{}
	for page := 1; page <= 100; page++ {
		q := url.Values{}
		q.Set("pn", strconv.Itoa(page))
		q.Set("pz", strconv.Itoa(clistPageSize))
		q.Set("po", "1")
		q.Set("np", "1")
		q.Set("ut", "bd1d9ddb04089700cf9c27f6f7426281")
		q.Set("fltt", "2")
		q.Set("invt", "2")
		q.Set("fid", "f12")
		q.Set("fs", "m:0 t:6,m:0 t:80,m:1 t:2,m:1 t:23,m:0 t:81 s:2048")
		q.Set("fields", fields)

		var resp emClistResponse
		if err := c.getJSON(ctx, c.endpoints.EastmoneyPush+"/api/qt/clist/get?"+q.Encode(), eastmoneyReferer, &resp); err != nil {
			return nil, err
		}
		if resp.Data == nil || len(resp.Data.Diff) == 0 {
			break
		}
		all = append(all, resp.Data.Diff...)
		if len(all) >= resp.Data.Total {
			break
		}
	}
	if len(all) == 0 {
		return nil, core.ErrEmptyResult
	}
	return all, nil
}

// StockSpot 沪深京A股实时行情 stock_zh_a_spot_em
func (c *Client) StockSpot(ctx context.Context, _ Args) (*core.Table, error) {
	keys := make([]string, len(spotFields))
	columns := make([]string, len(spotFields))
	for i, f := range spotFields {
		keys[i] = f.key
		columns[i] = f.column
	}

	items, err := c.clist(ctx, strings.Join(keys, ","))
	if err != nil {
		return nil, fmt.Errorf("stock_zh_a_spot_em: %w", err)
	}

	t := core.NewTable(columns, make([][]string, 0, len(items)))
	for _, item := range items {
		row := make([]string, len(keys))
		for i, k := range keys {
			row[i] = str(item[k])
		}
		t.Append(row...)
	}
	return t, nil
}

// StockCodeNames A股代码名称表 stock_info_a_code_name
func (c *Client) StockCodeNames(ctx context.Context, _ Args) (*core.Table, error) {
	items, err := c.clist(ctx, "f12,f14")
	if err != nil {
		return nil, fmt.Errorf("stock_info_a_code_name: %w", err)
	}
	t := core.NewTable([]string{"code", "name"}, make([][]string, 0, len(items)))
	for _, item := range items {
		t.Append(str(item["f12"]), str(item["f14"]))
	}
	return t, nil
}

var (
	jsonpPattern = regexp.MustCompile(`(?s)^[^(]*\((.*)\)\s*;?\s*$`)
	emTagPattern = regexp.MustCompile(`</?em>`)
)

// StockNews 个股新闻 stock_news_em
func (c *Client) StockNews(ctx context.Context, args Args) (*core.Table, error) {
	size := args.Count
	if size <= 0 {
		size = 10
	}
	param, _ := json.Marshal(map[string]interface{}{
		"uid":           "",
		"keyword":       args.Symbol,
		"type":          []string{"cmsArticleWebOld"},
		"client":        "web",
		"clientType":    "web",
		"clientVersion": "curr",
		"param": map[string]interface{}{
			"cmsArticleWebOld": map[string]interface{}{
				"searchScope": "default",
				"sort":        "default",
				"pageIndex":   1,
				"pageSize":    size,
				"preTag":      "<em>",
				"postTag":     "</em>",
			},
		},
	})
	q := url.Values{}
	q.Set("cb", "jQuery")
	q.Set("param", string(param))

	body, err := c.get(ctx, c.endpoints.EastmoneySearch+"/search/jsonp?"+q.Encode(), "https://so.eastmoney.com/")
	if err != nil {
		return nil, fmt.Errorf("stock_news_em %s: %w", args.Symbol, err)
	}
	if m := jsonpPattern.FindSubmatch(body); m != nil {
		body = m[1]
	}

	var resp struct {
		Result struct {
			Articles []struct {
				Date      string `json:"date"`
				Title     string `json:"title"`
				Content   string `json:"content"`
				MediaName string `json:"mediaName"`
				URL       string `json:"url"`
				Code      string `json:"code"`
			} `json:"cmsArticleWebOld"`
		} `json:"result"`
	}
	if err := decodeJSON(body, &resp); err != nil {
		return nil, fmt.Errorf("stock_news_em %s: %w", args.Symbol, err)
	}

	clean := strings.NewReplacer("　", "", "\r\n", " ", "\n", " ")
	t := core.NewTable([]string{"关键词", "新闻标题", "新闻内容", "发布时间", "文章来源", "新闻链接"}, nil)
	for _, a := range resp.Result.Articles {
		link := a.URL
		if link == "" && a.Code != "" {
			link = "http://finance.eastmoney.com/a/" + a.Code + ".html"
		}
		t.Append(args.Symbol,
			clean.Replace(emTagPattern.ReplaceAllString(a.Title, "")),
			clean.Replace(emTagPattern.ReplaceAllString(a.Content, "")),
			a.Date, a.MediaName, link)
	}
	return t, nil
}

// GlobalNewsEM 东方财富全球快讯 stock_info_global_em
func (c *Client) GlobalNewsEM(ctx context.Context, _ Args) (*core.Table, error) {
	q := url.Values{}
	q.Set("client", "web")
	q.Set("biz", "web_724")
	q.Set("fastColumn", "102")
	q.Set("sortEnd", "")
	q.Set("pageSize", "200")
	q.Set("req_trace", uuid.NewString())

	var resp struct {
		Data struct {
			List []struct {
				Code     string `json:"code"`
				Title    string `json:"title"`
				Summary  string `json:"summary"`
				ShowTime string `json:"showTime"`
			} `json:"fastNewsList"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, c.endpoints.EastmoneyNews+"/comm/web/getFastNewsList?"+q.Encode(), "https://kuaixun.eastmoney.com/", &resp); err != nil {
		return nil, fmt.Errorf("stock_info_global_em: %w", err)
	}

	t := core.NewTable([]string{"标题", "摘要", "发布时间", "链接"}, nil)
	for _, n := range resp.Data.List {
		t.Append(n.Title, n.Summary, n.ShowTime, "https://finance.eastmoney.com/a/"+n.Code+".html")
	}
	return t, nil
}

// BreakfastEM 东方财富财经早餐 stock_info_cjzc_em
func (c *Client) BreakfastEM(ctx context.Context, args Args) (*core.Table, error) {
	page := args.Page
	if page <= 0 {
		page = 1
	}
	q := url.Values{}
	q.Set("client", "web")
	q.Set("biz", "web_news_col")
	q.Set("column", "1207")
	q.Set("order", "1")
	q.Set("needInteractData", "0")
	q.Set("page_index", strconv.Itoa(page))
	q.Set("page_size", "200")
	q.Set("req_trace", uuid.NewString())
	q.Set("fields", "code,showTime,title,mediaName,summary,image,url,uniqueUrl")

	var resp struct {
		Data struct {
			List []struct {
				Title     string `json:"title"`
				Summary   string `json:"summary"`
				ShowTime  string `json:"showTime"`
				UniqueURL string `json:"uniqueUrl"`
			} `json:"list"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, c.endpoints.EastmoneyList+"/comm/web/getNewsByColumns?"+q.Encode(), "https://stock.eastmoney.com/", &resp); err != nil {
		return nil, fmt.Errorf("stock_info_cjzc_em: %w", err)
	}

	t := core.NewTable([]string{"标题", "摘要", "发布时间", "链接"}, nil)
	for _, n := range resp.Data.List {
		t.Append(n.Title, n.Summary, n.ShowTime, n.UniqueURL)
	}
	return t, nil
}
