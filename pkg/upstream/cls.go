package upstream

import (
	"context"
	"fmt"
	"net/url"

	"stockapi/pkg/core"
)

// TelegraphCLS 财联社电报 stock_info_global_cls
func (c *Client) TelegraphCLS(ctx context.Context, _ Args) (*core.Table, error) {
	q := url.Values{}
	q.Set("app", "CailianpressWeb")
	q.Set("category", "")
	q.Set("lastTime", "")
	q.Set("last_time", "")
	q.Set("os", "web")
	q.Set("refresh_type", "1")
	q.Set("rn", "200")
	q.Set("sv", "7.7.5")

	var resp struct {
		Data struct {
			RollData []map[string]interface{} `json:"roll_data"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, c.endpoints.CLS+"/nodeapi/telegraphList?"+q.Encode(), "https://www.cls.cn/telegraph", &resp); err != nil {
		return nil, fmt.Errorf("stock_info_global_cls: %w", err)
	}

	t := core.NewTable([]string{"标题", "内容", "发布日期", "发布时间"}, nil)
	for _, n := range resp.Data.RollData {
		var day, clock string
		if tm := unixToLocal(str(n["ctime"])); !tm.IsZero() {
			day, clock = tm.Format("2006-01-02"), tm.Format("15:04:05")
		}
		t.Append(str(n["title"]), str(n["content"]), day, clock)
	}
	return t, nil
}
