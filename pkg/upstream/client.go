// Package upstream 封装各行情网站的 HTTP 接口。
// 每个接口按函数名注册，返回列名随数据源而不同的 core.Table，
// 列名到标准字段的映射由 provider 包负责。
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"stockapi/pkg/core"
	"stockapi/pkg/logger"
)

// Endpoints 各数据源的基础地址，测试时可替换为 httptest 服务器
type Endpoints struct {
	EastmoneyHist   string // K线、分时
	EastmoneyPush   string // 实时行情列表
	EastmoneySearch string // 个股新闻搜索
	EastmoneyNews   string // 全球快讯
	EastmoneyList   string // 财经早餐
	SinaQuotes      string // 分钟/日K线 json_v2
	SinaMarket      string // 指数实时行情
	SinaZhibo       string // 全球快讯
	SinaFeed        string // 证券原创滚动新闻
	Tencent         string // 指数日线
	CLS             string // 财联社电报
}

// DefaultEndpoints 线上地址
func DefaultEndpoints() Endpoints {
	return Endpoints{
		EastmoneyHist:   "https://push2his.eastmoney.com",
		EastmoneyPush:   "https://82.push2.eastmoney.com",
		EastmoneySearch: "https://search-api-web.eastmoney.com",
		EastmoneyNews:   "https://np-weblist.eastmoney.com",
		EastmoneyList:   "https://np-listapi.eastmoney.com",
		SinaQuotes:      "https://quotes.sina.cn",
		SinaMarket:      "https://vip.stock.finance.sina.com.cn",
		SinaZhibo:       "https://zhibo.sina.com.cn",
		SinaFeed:        "https://feed.mix.sina.com.cn",
		Tencent:         "https://web.ifzq.gtimg.cn",
		CLS:             "https://www.cls.cn",
	}
}

// Args 上游函数的通用参数，不同函数只使用其中一部分
type Args struct {
	Symbol    string
	Period    string // daily/weekly/monthly，分钟接口为 1/5/15/30/60
	StartDate string // YYYYMMDD，分钟接口为 YYYY-MM-DD HH:MM:SS
	EndDate   string
	Adjust    string // "", qfq, hfq
	Page      int
	Count     int
}

// Func 一个上游函数
type Func func(ctx context.Context, args Args) (*core.Table, error)

// YahooQuoteFunc 海外行情查询函数
type YahooQuoteFunc func(symbol string) (*finance.Quote, error)

// Options 客户端配置
type Options struct {
	Timeout     time.Duration
	UserAgent   string
	Endpoints   Endpoints
	HTTPClient  *http.Client
	YahooQuote  YahooQuoteFunc
	MinInterval time.Duration // 同一主机两次请求的最小间隔，0 表示不限制
}

// Client 上游接口客户端
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	endpoints  Endpoints
	yahooQuote YahooQuoteFunc
	throttle   *hostThrottle
	log        *logrus.Entry
	funcs      map[string]Func
}

// NewClient 创建上游客户端，未设置的选项使用默认值
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	}
	if opts.Endpoints == (Endpoints{}) {
		opts.Endpoints = DefaultEndpoints()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
			},
		}
	}
	if opts.YahooQuote == nil {
		opts.YahooQuote = quote.Get
	}

	c := &Client{
		httpClient: opts.HTTPClient,
		timeout:    opts.Timeout,
		userAgent:  opts.UserAgent,
		endpoints:  opts.Endpoints,
		yahooQuote: opts.YahooQuote,
		throttle:   newHostThrottle(opts.MinInterval),
		log:        logger.WithComponent("Upstream"),
	}
	c.funcs = c.register()
	return c
}

// Close 释放空闲连接
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// get 发起 GET 请求，响应为 GBK 编码时转换为 UTF-8
func (c *Client) get(ctx context.Context, rawURL, referer string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	if err := c.throttle.wait(ctx, req.URL.Host); err != nil {
		return nil, fmt.Errorf("HTTP request throttled: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP status error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response failed: %w", err)
	}
	c.log.WithFields(logrus.Fields{
		"url":      req.URL.Path,
		"bytes":    len(body),
		"duration": time.Since(start).String(),
	}).Debug("upstream request done")

	if isGBK(resp.Header.Get("Content-Type")) {
		body = gbkToUtf8(body)
	}
	return body, nil
}

// getJSON 请求并解码 JSON，数字保留为 json.Number
func (c *Client) getJSON(ctx context.Context, rawURL, referer string, out interface{}) error {
	body, err := c.get(ctx, rawURL, referer)
	if err != nil {
		return err
	}
	return decodeJSON(body, out)
}

func decodeJSON(body []byte, out interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode response failed: %w", err)
	}
	return nil
}

func isGBK(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "gbk") || strings.Contains(ct, "gb2312") || strings.Contains(ct, "gb18030")
}

// gbkToUtf8 将GBK编码转换为UTF-8，转换失败时原样返回
func gbkToUtf8(data []byte) []byte {
	if len(data) == 0 {
		return data
	}
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), simplifiedchinese.GBK.NewDecoder()))
	if err != nil {
		return data
	}
	return out
}

// str 把 JSON 解码出的任意值转为字符串
func str(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// unixToLocal 把秒级时间戳转为北京时间
func unixToLocal(s string) time.Time {
	sec, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0).In(beijing)
}

var beijing = time.FixedZone("CST", 8*3600)
