package upstream

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/piquette/finance-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockapi/pkg/core"
)

// newTestClient 所有数据源都指向同一个测试服务器
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	ep := Endpoints{
		EastmoneyHist:   server.URL,
		EastmoneyPush:   server.URL,
		EastmoneySearch: server.URL,
		EastmoneyNews:   server.URL,
		EastmoneyList:   server.URL,
		SinaQuotes:      server.URL,
		SinaMarket:      server.URL,
		SinaZhibo:       server.URL,
		SinaFeed:        server.URL,
		Tencent:         server.URL,
		CLS:             server.URL,
	}
	return NewClient(Options{Timeout: 2 * time.Second, Endpoints: ep, HTTPClient: server.Client()})
}

func TestGbkToUtf8(t *testing.T) {
	gbkBytes := []byte{0xc6, 0xd6, 0xb7, 0xa2, 0xd2, 0xf8, 0xd0, 0xd0} // "浦发银行" in GBK
	assert.Equal(t, "浦发银行", string(gbkToUtf8(gbkBytes)))
	assert.True(t, isGBK("application/javascript; charset=GBK"))
	assert.False(t, isGBK("application/json; charset=utf-8"))
}

func TestSecID(t *testing.T) {
	assert.Equal(t, "1.600519", stockSecID("600519"))
	assert.Equal(t, "1.600519", stockSecID("sh600519"))
	assert.Equal(t, "0.000001", stockSecID("000001"))
	assert.Equal(t, "0.300750", stockSecID("300750"))

	assert.Equal(t, "1.000300", indexSecID("000300"))
	assert.Equal(t, "1.000001", indexSecID("sh000001"))
	assert.Equal(t, "0.399006", indexSecID("399006"))
	assert.Equal(t, "0.399001", indexSecID("sz399001"))
}

func TestStockHist(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/qt/stock/kline/get", r.URL.Path)
		assert.Equal(t, "1.600519", r.URL.Query().Get("secid"))
		assert.Equal(t, "101", r.URL.Query().Get("klt"))
		assert.Equal(t, "1", r.URL.Query().Get("fqt"))
		assert.Equal(t, "20240101", r.URL.Query().Get("beg"))
		assert.Equal(t, "https://quote.eastmoney.com/", r.Header.Get("Referer"))

		_, _ = w.Write([]byte(`{"rc":0,"data":{"code":"600519","name":"贵州茅台","klines":[
			"2024-01-02,1715.00,1685.01,1718.19,1678.10,32156,5440000000.00,2.34,-1.74,-29.82,0.26",
			"2024-01-03,1681.11,1694.00,1695.22,1676.33,20211,3420000000.00,1.12,0.53,8.99,0.16",
			"broken,line"]}}`))
	})

	table, err := client.StockHist(context.Background(), Args{Symbol: "600519", Period: "daily", StartDate: "20240101", EndDate: "20240105", Adjust: "qfq"})
	require.NoError(t, err)
	require.Equal(t, 2, table.Len(), "字段不足的行被丢弃")
	assert.Equal(t, histColumns, table.Columns)
	assert.Equal(t, "2024-01-02", table.Get(0, "日期"))
	assert.Equal(t, 1685.01, table.FloatOr(0, "收盘", 0))
	assert.Equal(t, 0.16, table.FloatOr(1, "换手率", 0))
}

func TestStockHist_EmptyData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rc":0,"data":null}`))
	})

	_, err := client.StockHist(context.Background(), Args{Symbol: "000001"})
	assert.ErrorIs(t, err, core.ErrEmptyResult)
}

func TestStockHist_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.StockHist(context.Background(), Args{Symbol: "000001"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP status error: 502")
}

func TestMinute_TrendsAndFilter(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/qt/stock/trends2/get", r.URL.Path)
		assert.Equal(t, "0.399006", r.URL.Query().Get("secid"))
		_, _ = w.Write([]byte(`{"data":{"trends":[
			"2024-01-04 14:59,1900.1,1901.2,1902.0,1899.5,1000,200000.0,1900.5",
			"2024-01-05 09:31,1901.0,1903.0,1904.0,1900.0,1200,230000.0,1902.0",
			"2024-01-05 09:32,1903.0,1902.5,1903.5,1902.0,800,150000.0,1902.3"]}}`))
	})

	table, err := client.IndexHistMin(context.Background(), Args{Symbol: "sz399006", Period: "1", StartDate: "2024-01-05 00:00:00", EndDate: "2024-01-05 23:59:59"})
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "2024-01-05 09:31", table.Get(0, "时间"))
	assert.Equal(t, 800.0, table.FloatOr(1, "成交量", 0))
}

func TestMinute_KlinePeriod(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/qt/stock/kline/get", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("klt"))
		_, _ = w.Write([]byte(`{"data":{"klines":["2024-01-05 09:35,10.0,10.2,10.3,9.9,5000,51000.0,4.0,2.0,0.2,0.1"]}}`))
	})

	table, err := client.StockHistMin(context.Background(), Args{Symbol: "000001", Period: "5"})
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, minuteKColumns, table.Columns)
}

func TestStockMinute_Sina(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cn/api/json_v2.php/CN_MarketDataService.getKLineData", r.URL.Path)
		assert.Equal(t, "sz000001", r.URL.Query().Get("symbol"))
		assert.Equal(t, "1", r.URL.Query().Get("scale"))
		_, _ = w.Write([]byte(`[{"day":"2024-01-05 09:31:00","open":"9.100","high":"9.120","low":"9.090","close":"9.110","volume":"123400"}]`))
	})

	table, err := client.StockMinute(context.Background(), Args{Symbol: "000001"})
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "2024-01-05 09:31:00", table.Get(0, "day"))
	assert.Equal(t, 123400.0, table.FloatOr(0, "volume", 0))
}

func TestStockMinute_NullBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("null"))
	})

	_, err := client.StockMinute(context.Background(), Args{Symbol: "600519"})
	assert.ErrorIs(t, err, core.ErrEmptyResult)
}

func TestIndexDailyTX(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/appstock/app/fqkline/get", r.URL.Path)
		assert.True(t, strings.HasPrefix(r.URL.Query().Get("param"), "sh000300,day,2024-01-01,2024-01-31"))
		_, _ = w.Write([]byte(`{"code":0,"msg":"","data":{"sh000300":{"day":[
			["2024-01-02","3431.11","3386.35","3431.11","3383.73","123456.00"],
			["2024-01-03","3386.00","3390.00","3400.00","3380.00","110000.00",{"nd":"2024"}],
			["bad"]],"qt":{},"version":"16"}}}`))
	})

	table, err := client.IndexDailyTX(context.Background(), Args{Symbol: "000300", StartDate: "20240101", EndDate: "20240131"})
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, 3386.35, table.FloatOr(0, "close", 0))
	assert.Equal(t, "2024-01-03", table.Get(1, "date"))
}

func TestStockSpot_Pagination(t *testing.T) {
	var pages []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		pages = append(pages, r.URL.Query().Get("pn"))
		switch r.URL.Query().Get("pn") {
		case "1":
			_, _ = w.Write([]byte(`{"data":{"total":2,"diff":[{"f12":"600519","f14":"贵州茅台","f2":1690.5,"f3":0.53,"f4":8.99,"f5":20211,"f6":3420000000,"f15":1695.2,"f16":1676.3,"f17":1681.1,"f18":1681.51,"f9":25.3,"f20":2123000000000,"f100":"酿酒行业"}]}}`))
		default:
			_, _ = w.Write([]byte(`{"data":{"total":2,"diff":[{"f12":"000001","f14":"平安银行","f2":"-","f3":"-","f100":"银行"}]}}`))
		}
	})

	table, err := client.StockSpot(context.Background(), Args{})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, pages)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "600519", table.Get(0, "代码"))
	assert.Equal(t, 1690.5, table.FloatOr(0, "最新价", 0))
	assert.Equal(t, 3420000000.0, table.FloatOr(0, "成交额", 0))
	_, ok := table.Float(1, "最新价")
	assert.False(t, ok, "停牌股票价格为 -")
}

func TestIndexSpot_GBK(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			_, _ = w.Write([]byte("[]"))
			return
		}
		var body bytes.Buffer
		body.WriteString(`[{"symbol":"sh000300","name":"`)
		body.Write([]byte{0xbb, 0xa6, 0xc9, 0xee, 0x33, 0x30, 0x30}) // 沪深300 in GBK
		body.WriteString(`","trade":"3386.35","pricechange":"-44.76","changepercent":"-1.304"}]`)
		w.Header().Set("Content-Type", "application/json; charset=gbk")
		_, _ = w.Write(body.Bytes())
	})

	table, err := client.IndexSpot(context.Background(), Args{})
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "sh000300", table.Get(0, "代码"))
	assert.Equal(t, "沪深300", table.Get(0, "名称"))
}

func TestStockNews_JSONP(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/jsonp", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("param"), `"keyword":"600519"`)
		_, _ = w.Write([]byte(`jQuery({"result":{"cmsArticleWebOld":[{"date":"2024-01-05 10:00:00","title":"<em>贵州茅台</em>发布公告","content":"内容\r\n第二行","mediaName":"证券时报","url":"http://finance.eastmoney.com/a/1.html"}]}})`))
	})

	table, err := client.StockNews(context.Background(), Args{Symbol: "600519"})
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "贵州茅台发布公告", table.Get(0, "新闻标题"))
	assert.Equal(t, "内容 第二行", table.Get(0, "新闻内容"))
	assert.Equal(t, "证券时报", table.Get(0, "文章来源"))
}

func TestNewsSources(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/zhibo/feed":
			_, _ = w.Write([]byte(`{"result":{"data":{"feed":{"list":[{"rich_text":"快讯一","create_time":"2024-01-05 10:00:00"}]}}}}`))
		case "/comm/web/getFastNewsList":
			assert.NotEmpty(t, r.URL.Query().Get("req_trace"))
			_, _ = w.Write([]byte(`{"data":{"fastNewsList":[{"code":"202401051","title":"标题","summary":"摘要","showTime":"2024-01-05 10:01:00"}]}}`))
		case "/nodeapi/telegraphList":
			_, _ = w.Write([]byte(`{"data":{"roll_data":[{"title":"电报","content":"电报内容","ctime":1704420000}]}}`))
		case "/api/roll/get":
			_, _ = w.Write([]byte(`{"result":{"data":[{"title":"原创","url":"https://finance.sina.com.cn/x.shtml","ctime":"1704420000"}]}}`))
		case "/comm/web/getNewsByColumns":
			_, _ = w.Write([]byte(`{"data":{"list":[{"title":"早餐","summary":"早餐摘要","showTime":"2024-01-05 07:00:00","uniqueUrl":"https://finance.eastmoney.com/a/2.html"}]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	sina, err := client.GlobalNewsSina(ctx, Args{})
	require.NoError(t, err)
	assert.Equal(t, "快讯一", sina.Get(0, "内容"))

	em, err := client.GlobalNewsEM(ctx, Args{})
	require.NoError(t, err)
	assert.Equal(t, "https://finance.eastmoney.com/a/202401051.html", em.Get(0, "链接"))

	cls, err := client.TelegraphCLS(ctx, Args{})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05", cls.Get(0, "发布日期"))
	assert.Equal(t, "10:00:00", cls.Get(0, "发布时间"))

	broker, err := client.BrokerNewsSina(ctx, Args{Page: 2})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05 10:00:00", broker.Get(0, "时间"))
	assert.Equal(t, "原创", broker.Get(0, "内容"))

	cjzc, err := client.BreakfastEM(ctx, Args{})
	require.NoError(t, err)
	assert.Equal(t, "早餐", cjzc.Get(0, "标题"))
}

func TestRegistry(t *testing.T) {
	client := NewClient(Options{})

	_, ok := client.Lookup(FnStockHist)
	assert.True(t, ok)
	assert.Contains(t, client.Names(), FnIndexDailyTX)
	assert.Len(t, client.Names(), 17)

	_, err := client.Call(context.Background(), "no_such_function", Args{})
	assert.ErrorIs(t, err, core.ErrUnknownFunction)
}

func TestYahooQuote(t *testing.T) {
	client := NewClient(Options{YahooQuote: func(symbol string) (*finance.Quote, error) {
		if symbol != "AAPL" {
			return nil, nil
		}
		q := &finance.Quote{}
		q.Symbol = "AAPL"
		q.ShortName = "Apple Inc."
		q.RegularMarketPrice = 190.5
		q.RegularMarketPreviousClose = 188
		q.RegularMarketChange = 2.5
		q.RegularMarketChangePercent = 1.33
		q.RegularMarketVolume = 1000
		return q, nil
	}})

	q, err := client.YahooQuote(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, 190.5, q.Price)
	assert.Equal(t, "USD", q.Currency)
	assert.InDelta(t, 0.0133, q.ChangePercent, 1e-9)
	assert.Equal(t, 1000.0, q.Volume)

	_, err = client.YahooQuote(context.Background(), "MSFT")
	assert.ErrorIs(t, err, core.ErrEmptyResult)

	failing := NewClient(Options{YahooQuote: func(string) (*finance.Quote, error) { return nil, errors.New("crumb required") }})
	_, err = failing.YahooQuote(context.Background(), "AAPL")
	assert.Error(t, err)
}
