package storage

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/sirupsen/logrus"

	"stockapi/pkg/core"
	"stockapi/pkg/logger"
)

// HistoryMeasurement 历史K线在 InfluxDB 中的 measurement
const HistoryMeasurement = "stock_history"

var beijing = time.FixedZone("CST", 8*3600)

// InfluxOptions InfluxDB 连接参数
type InfluxOptions struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// InfluxMirror 把拉取到的历史K线写入 InfluxDB
type InfluxMirror struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      *logrus.Entry
}

// NewInfluxMirror 创建客户端并做健康检查
func NewInfluxMirror(ctx context.Context, opts InfluxOptions) (*InfluxMirror, error) {
	client := influxdb2.NewClient(opts.URL, opts.Token)

	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	health, err := client.Health(healthCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to InfluxDB: %w", err)
	}
	if health.Status != "pass" {
		client.Close()
		return nil, fmt.Errorf("InfluxDB health check failed: %s", health.Status)
	}
	return newInfluxMirror(client, opts), nil
}

func newInfluxMirror(client influxdb2.Client, opts InfluxOptions) *InfluxMirror {
	return &InfluxMirror{
		client:   client,
		writeAPI: client.WriteAPIBlocking(opts.Org, opts.Bucket),
		log:      logger.WithComponent("InfluxMirror"),
	}
}

// WriteBars 每行一个点，tag 为代码、周期和复权方式
func (m *InfluxMirror) WriteBars(ctx context.Context, ticker, period, adjust string, rows []core.HistoryRecord) error {
	if len(rows) == 0 {
		return nil
	}
	points := make([]*write.Point, 0, len(rows))
	for _, r := range rows {
		point, err := historyPoint(ticker, period, adjust, r)
		if err != nil {
			m.log.WithError(err).WithField("date", r.Date).Debug("跳过无法解析日期的记录")
			continue
		}
		points = append(points, point)
	}
	if err := m.writeAPI.WritePoint(ctx, points...); err != nil {
		return NewStorageError(ErrStorageIO, "write "+HistoryMeasurement, err)
	}
	m.log.WithFields(logrus.Fields{"ticker": ticker, "rows": len(points)}).Debug("历史K线已写入 InfluxDB")
	return nil
}

func historyPoint(ticker, period, adjust string, r core.HistoryRecord) (*write.Point, error) {
	ts, err := time.ParseInLocation("2006-01-02", r.Date, beijing)
	if err != nil {
		return nil, err
	}
	if adjust == "" {
		adjust = "none"
	}
	return influxdb2.NewPointWithMeasurement(HistoryMeasurement).
		AddTag("ticker", ticker).
		AddTag("period", period).
		AddTag("adjust", adjust).
		AddField("open", r.Open).
		AddField("close", r.Close).
		AddField("high", r.High).
		AddField("low", r.Low).
		AddField("volume", r.Volume).
		AddField("amount", r.Amount).
		AddField("change_percent", r.ChangePercent).
		AddField("turnover", r.Turnover).
		SetTime(ts), nil
}

func (m *InfluxMirror) Close() error {
	m.client.Close()
	return nil
}

// Ping 健康检查
func (m *InfluxMirror) Ping(ctx context.Context) error {
	ok, err := m.client.Ping(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("InfluxDB is not ready")
	}
	return nil
}
