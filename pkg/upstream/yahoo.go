package upstream

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stockapi/pkg/core"
)

// YahooQuote 海外市场报价，通过 finance-go 查询 Yahoo
func (c *Client) YahooQuote(ctx context.Context, symbol string) (*core.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	q, err := c.yahooQuote(symbol)
	if err != nil {
		return nil, fmt.Errorf("yahoo quote %s: %w", symbol, err)
	}
	if q == nil || q.RegularMarketPrice == 0 {
		return nil, fmt.Errorf("yahoo quote %s: %w", symbol, core.ErrEmptyResult)
	}

	currency := q.CurrencyID
	if currency == "" {
		currency = "USD"
	}
	return &core.Quote{
		Symbol:        q.Symbol,
		Name:          q.ShortName,
		Price:         q.RegularMarketPrice,
		Open:          q.RegularMarketOpen,
		High:          q.RegularMarketDayHigh,
		Low:           q.RegularMarketDayLow,
		PrevClose:     q.RegularMarketPreviousClose,
		Change:        q.RegularMarketChange,
		ChangePercent: q.RegularMarketChangePercent / 100,
		Volume:        float64(q.RegularMarketVolume),
		Currency:      currency,
		Exchange:      q.FullExchangeName,
		Timestamp:     time.Now(),
	}, nil
}
