package provider

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"stockapi/pkg/core"
	"stockapi/pkg/ticker"
	"stockapi/pkg/upstream"
)

// Match 搜索结果中的一个代码
type Match struct {
	Symbol    string
	Name      string
	Exchange  string
	QuoteType string // EQUITY, INDEX
}

// NewsSource 快讯来源
type NewsSource struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DefaultNewsSource 未识别来源时使用的快讯来源
const DefaultNewsSource = "sina"

var newsSources = []NewsSource{
	{ID: "sina", Name: "新浪财经", Description: "新浪财经全球快讯"},
	{ID: "eastmoney", Name: "东方财富", Description: "东方财富全球快讯"},
	{ID: "cls", Name: "财联社", Description: "财联社电报"},
	{ID: "broker_sina", Name: "新浪证券", Description: "新浪证券原创"},
	{ID: "cjzc", Name: "财经早餐", Description: "东方财富财经早餐"},
}

// NewsSources 支持的快讯来源
func NewsSources() []NewsSource {
	out := make([]NewsSource, len(newsSources))
	copy(out, newsSources)
	return out
}

// newsFeed 快讯来源对应的上游函数和列映射
type newsFeed struct {
	fn  string
	row func(t *core.Table, i int) core.NewsItem
}

var newsFeeds = map[string]newsFeed{
	"sina": {upstream.FnGlobalNewsSina, func(t *core.Table, i int) core.NewsItem {
		content := t.Get(i, "内容")
		return core.NewsItem{Title: content, Time: t.Get(i, "时间"), Content: content}
	}},
	"eastmoney": {upstream.FnGlobalNewsEM, emNewsRow},
	"cls": {upstream.FnTelegraphCLS, func(t *core.Table, i int) core.NewsItem {
		return core.NewsItem{
			Title:   t.Get(i, "标题"),
			Time:    strings.TrimSpace(t.Get(i, "发布日期") + " " + t.Get(i, "发布时间")),
			Content: t.Get(i, "内容"),
		}
	}},
	"broker_sina": {upstream.FnBrokerNewsSina, func(t *core.Table, i int) core.NewsItem {
		content := t.Get(i, "内容")
		return core.NewsItem{Title: content, Time: t.Get(i, "时间"), Content: content, URL: t.Get(i, "链接")}
	}},
	"cjzc": {upstream.FnBreakfastEM, emNewsRow},
}

func emNewsRow(t *core.Table, i int) core.NewsItem {
	return core.NewsItem{
		Title:   t.Get(i, "标题"),
		Time:    t.Get(i, "发布时间"),
		Content: t.Get(i, "摘要"),
		URL:     t.Get(i, "链接"),
	}
}

// ResolveNewsSource 未识别的来源回退到新浪
func ResolveNewsSource(source string) string {
	if _, ok := newsFeeds[source]; ok {
		return source
	}
	return DefaultNewsSource
}

// News 快讯列表，最多返回 count 条。page 只对 broker_sina 有效。
func (p *Provider) News(ctx context.Context, source string, count, page int) ([]core.NewsItem, error) {
	source = ResolveNewsSource(source)
	if source != "broker_sina" || page <= 0 {
		page = 1
	}
	key := source + ":" + strconv.Itoa(page)

	items, ok := p.news.Get(key)
	if !ok {
		feed := newsFeeds[source]
		table, err := p.call(ctx, feed.fn, upstream.Args{Page: page})
		if err != nil {
			return nil, err
		}
		items = make([]core.NewsItem, 0, table.Len())
		for i := 0; i < table.Len(); i++ {
			items = append(items, feed.row(table, i))
		}
		if len(items) > 0 {
			p.news.Add(key, items)
		}
	}
	return headNews(items, count), nil
}

func headNews(items []core.NewsItem, n int) []core.NewsItem {
	if n >= 0 && len(items) > n {
		items = items[:n]
	}
	out := make([]core.NewsItem, len(items))
	copy(out, items)
	return out
}

// defaultPublisher 个股新闻缺少来源时的发布者
const defaultPublisher = "东方财富网"

// StockNews 个股相关新闻
func (p *Provider) StockNews(ctx context.Context, code string, count int) ([]core.NewsItem, error) {
	table, err := p.call(ctx, upstream.FnStockNews, upstream.Args{Symbol: code, Count: count})
	if err != nil {
		return nil, err
	}
	items := make([]core.NewsItem, 0, table.Len())
	for i := 0; i < table.Len(); i++ {
		publisher := getOr(table, i, "文章来源", defaultPublisher)
		items = append(items, core.NewsItem{
			Title:     table.Get(i, "新闻标题"),
			Time:      table.Get(i, "发布时间"),
			Content:   table.Get(i, "新闻内容"),
			URL:       table.Get(i, "新闻链接"),
			Publisher: publisher,
		})
	}
	return headNews(items, count), nil
}

func getOr(table *core.Table, i int, col, def string) string {
	if v := table.Get(i, col); v != "" {
		return v
	}
	return def
}

// CodeNames A股代码名称表，在进程内缓存
func (p *Provider) CodeNames(ctx context.Context) ([]core.CodeName, error) {
	const key = "a"
	if list, ok := p.listing.Get(key); ok {
		return list, nil
	}

	v, err, _ := p.group.Do("code_names", func() (interface{}, error) {
		table, err := p.call(ctx, upstream.FnStockCodeNames, upstream.Args{})
		if err != nil {
			return nil, err
		}
		if missing := table.Missing("code", "name"); len(missing) > 0 {
			return nil, fmt.Errorf("%w: %v", core.ErrMissingColumns, missing)
		}
		list := make([]core.CodeName, 0, table.Len())
		for i := 0; i < table.Len(); i++ {
			list = append(list, core.CodeName{Code: table.Get(i, "code"), Name: table.Get(i, "name")})
		}
		if len(list) > 0 {
			p.listing.Add(key, list)
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]core.CodeName), nil
}

// Spot 全市场A股实时行情。并发请求合并为一次上游调用，结果在快照存储中共享 SpotTTL。
// 上游返回空表时报错且不写入快照。
func (p *Provider) Spot(ctx context.Context) ([]core.SpotRow, error) {
	if rows, ok := p.spot.Load(ctx); ok {
		return rows, nil
	}

	v, err, shared := p.group.Do("spot", func() (interface{}, error) {
		table, err := p.call(ctx, upstream.FnStockSpot, upstream.Args{})
		if err != nil {
			return nil, err
		}
		rows, err := mapSpot(table, spotColumns)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("%s: %w", upstream.FnStockSpot, core.ErrEmptyResult)
		}
		if err := p.spot.Save(ctx, rows, p.spotTTL); err != nil {
			p.log.WithError(err).Warn("保存行情快照失败")
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	rows := v.([]core.SpotRow)
	if shared {
		out := make([]core.SpotRow, len(rows))
		copy(out, rows)
		return out, nil
	}
	return rows, nil
}

// IndexSpot 沪深指数实时行情
func (p *Provider) IndexSpot(ctx context.Context) ([]core.SpotRow, error) {
	table, err := p.call(ctx, upstream.FnIndexSpot, upstream.Args{})
	if err != nil {
		return nil, err
	}
	return mapSpot(table, indexSpotColumns)
}

// spotColumnMap 行情列表的列名
type spotColumnMap struct {
	Code, Name, Price, ChangePercent, Change, Volume, Amount, High, Low, Open, PrevClose, PE, MarketCap, Sector string
}

var (
	spotColumns = spotColumnMap{
		Code: "代码", Name: "名称", Price: "最新价", ChangePercent: "涨跌幅", Change: "涨跌额",
		Volume: "成交量", Amount: "成交额", High: "最高", Low: "最低", Open: "今开", PrevClose: "昨收",
		PE: "市盈率-动态", MarketCap: "总市值", Sector: "所属行业",
	}
	indexSpotColumns = spotColumnMap{
		Code: "代码", Name: "名称", Price: "最新价", ChangePercent: "涨跌幅", Change: "涨跌额",
		Volume: "成交量", Amount: "成交额", High: "最高", Low: "最低", Open: "今开", PrevClose: "昨收",
	}
)

// mapSpot 停牌等导致的非数值字段记为 0
func mapSpot(t *core.Table, m spotColumnMap) ([]core.SpotRow, error) {
	if t.Empty() {
		return []core.SpotRow{}, nil
	}
	if missing := t.Missing(m.Code, m.Name); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", core.ErrMissingColumns, missing)
	}
	f := func(i int, col string) float64 {
		if col == "" {
			return 0
		}
		return t.FloatOr(i, col, 0)
	}
	rows := make([]core.SpotRow, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		row := core.SpotRow{
			Code:          t.Get(i, m.Code),
			Name:          t.Get(i, m.Name),
			Price:         f(i, m.Price),
			ChangePercent: f(i, m.ChangePercent),
			Change:        f(i, m.Change),
			Volume:        f(i, m.Volume),
			Amount:        f(i, m.Amount),
			High:          f(i, m.High),
			Low:           f(i, m.Low),
			Open:          f(i, m.Open),
			PrevClose:     f(i, m.PrevClose),
			PE:            f(i, m.PE),
			MarketCap:     f(i, m.MarketCap),
		}
		if m.Sector != "" {
			row.Sector = t.Get(i, m.Sector)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Search 按代码或名称模糊搜索。以 ^ 开头时搜索指数，否则搜索A股。
func (p *Provider) Search(ctx context.Context, query string) ([]Match, error) {
	query = strings.TrimSpace(query)

	if strings.HasPrefix(query, ticker.IndexMarker) {
		needle := strings.ToLower(strings.TrimPrefix(query, ticker.IndexMarker))
		rows, err := p.IndexSpot(ctx)
		if err != nil {
			return nil, err
		}
		matches := make([]Match, 0)
		for _, r := range rows {
			if containsFold(r.Code, needle) || containsFold(r.Name, needle) {
				matches = append(matches, Match{
					Symbol:    ticker.IndexMarker + r.Code,
					Name:      r.Name,
					Exchange:  "SSE",
					QuoteType: "INDEX",
				})
			}
		}
		return matches, nil
	}

	list, err := p.CodeNames(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(query)
	matches := make([]Match, 0)
	for _, cn := range list {
		if containsFold(cn.Code, needle) || containsFold(cn.Name, needle) {
			exchange := "SZSE"
			if strings.HasPrefix(cn.Code, "6") {
				exchange = "SSE"
			}
			matches = append(matches, Match{Symbol: cn.Code, Name: cn.Name, Exchange: exchange, QuoteType: "EQUITY"})
		}
	}
	return matches, nil
}

func containsFold(s, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(s), lowerNeedle)
}
