package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockapi/pkg/core"
)

func TestMemorySpotStore_TTL(t *testing.T) {
	store := NewMemorySpotStore()
	now := time.Date(2024, 1, 5, 10, 0, 0, 0, time.Local)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_, ok := store.Load(ctx)
	assert.False(t, ok, "空快照")

	rows := []core.SpotRow{{Code: "600000", Name: "浦发银行", Price: 8.5}}
	require.NoError(t, store.Save(ctx, rows, 10*time.Second))

	got, ok := store.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, rows, got)

	got[0].Price = 99
	again, _ := store.Load(ctx)
	assert.Equal(t, 8.5, again[0].Price, "返回副本")

	now = now.Add(11 * time.Second)
	_, ok = store.Load(ctx)
	assert.False(t, ok, "过期")

	stats := store.GetStats()
	assert.Equal(t, int64(1), stats.Saves)
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)

	require.NoError(t, store.Close())
}

func TestRedisSpotStore_Unavailable(t *testing.T) {
	_, err := NewRedisSpotStore(context.Background(), RedisOptions{Addr: "127.0.0.1:1"})
	require.Error(t, err)

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	store := NewRedisSpotStoreWithClient(client)
	defer store.Close()

	_, ok := store.Load(context.Background())
	assert.False(t, ok, "Redis 不可用按未命中处理")

	err = store.Save(context.Background(), []core.SpotRow{{Code: "600000"}}, time.Second)
	code, ok := core.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrStorageIO, code)
}

func TestInfluxMirror_WriteBars(t *testing.T) {
	var (
		mu    sync.Mutex
		body  string
		query string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/write" {
			http.NotFound(w, r)
			return
		}
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		body = string(data)
		query = r.URL.RawQuery
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := influxdb2.NewClient(srv.URL, "token")
	mirror := newInfluxMirror(client, InfluxOptions{Org: "stockapi", Bucket: "history"})
	defer mirror.Close()

	rows := []core.HistoryRecord{
		{Date: "2024-01-04", Open: 10, Close: 10.5, High: 10.8, Low: 9.9, Volume: 1000},
		{Date: "bad-date", Close: 1},
		{Date: "2024-01-05", Open: 10.5, Close: 11, High: 11.2, Low: 10.4, Volume: 2000},
	}
	require.NoError(t, mirror.WriteBars(context.Background(), "600000", "daily", "", rows))

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, query, "bucket=history")
	assert.Contains(t, query, "org=stockapi")
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 2, "无法解析日期的记录被跳过")
	assert.True(t, strings.HasPrefix(lines[0], "stock_history,"))
	assert.Contains(t, lines[0], "ticker=600000")
	assert.Contains(t, lines[0], "period=daily")
	assert.Contains(t, lines[0], "adjust=none")
	assert.Contains(t, lines[0], "close=10.5")
	assert.Contains(t, lines[1], "volume=2000")
}

func TestInfluxMirror_WriteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"unauthorized","message":"unauthorized access"}`))
	}))
	defer srv.Close()

	mirror := newInfluxMirror(influxdb2.NewClient(srv.URL, "bad"), InfluxOptions{Org: "o", Bucket: "b"})
	defer mirror.Close()

	err := mirror.WriteBars(context.Background(), "600000", "daily", "qfq", []core.HistoryRecord{{Date: "2024-01-05", Close: 1}})
	require.Error(t, err)
	code, _ := core.CodeOf(err)
	assert.Equal(t, ErrStorageIO, code)
}

type recordingMirror struct {
	mu     sync.Mutex
	calls  []string
	rows   int
	fail   bool
	closed bool
}

func (m *recordingMirror) WriteBars(ctx context.Context, ticker, period, adjust string, rows []core.HistoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("write failed")
	}
	m.calls = append(m.calls, ticker+"/"+period+"/"+adjust)
	m.rows += len(rows)
	return nil
}

func (m *recordingMirror) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *recordingMirror) snapshot() ([]string, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...), m.rows
}

func bars(n int) []core.HistoryRecord {
	rows := make([]core.HistoryRecord, n)
	for i := range rows {
		rows[i] = core.HistoryRecord{Date: time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC).Format("2006-01-02"), Close: float64(i)}
	}
	return rows
}

func TestBatchWriter_FlushOnClose(t *testing.T) {
	mirror := &recordingMirror{}
	bw := NewBatchWriter(mirror, BatchWriterConfig{BatchSize: 100, MaxBufferSize: 1000})

	ctx := context.Background()
	require.NoError(t, bw.WriteBars(ctx, "600000", "daily", "", bars(3)))
	require.NoError(t, bw.WriteBars(ctx, "000001", "daily", "qfq", bars(2)))
	require.NoError(t, bw.WriteBars(ctx, "000002", "daily", "", nil))

	calls, _ := mirror.snapshot()
	assert.Empty(t, calls, "未达到批次大小不写入")
	assert.Equal(t, 5, bw.GetStats().BufferSize)

	require.NoError(t, bw.Close())
	calls, rows := mirror.snapshot()
	assert.Equal(t, []string{"600000/daily/", "000001/daily/qfq"}, calls)
	assert.Equal(t, 5, rows)
	assert.True(t, mirror.closed)

	stats := bw.GetStats()
	assert.Equal(t, int64(5), stats.TotalRecords)
	assert.Equal(t, 0, stats.BufferSize)
	require.NoError(t, bw.Close(), "重复关闭")
}

func TestBatchWriter_FlushOnBatchSize(t *testing.T) {
	mirror := &recordingMirror{}
	bw := NewBatchWriter(mirror, BatchWriterConfig{BatchSize: 4})
	defer bw.Close()

	require.NoError(t, bw.WriteBars(context.Background(), "600000", "daily", "", bars(5)))
	assert.Eventually(t, func() bool {
		_, rows := mirror.snapshot()
		return rows == 5
	}, time.Second, 10*time.Millisecond)
}

func TestBatchWriter_PeriodicFlush(t *testing.T) {
	mirror := &recordingMirror{}
	bw := NewBatchWriter(mirror, BatchWriterConfig{BatchSize: 1000, FlushInterval: 20 * time.Millisecond})
	defer bw.Close()

	require.NoError(t, bw.WriteBars(context.Background(), "600000", "daily", "", bars(1)))
	assert.Eventually(t, func() bool {
		calls, _ := mirror.snapshot()
		return len(calls) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestBatchWriter_OverflowAndErrors(t *testing.T) {
	mirror := &recordingMirror{fail: true}
	bw := NewBatchWriter(mirror, BatchWriterConfig{BatchSize: 100, MaxBufferSize: 3})

	err := bw.WriteBars(context.Background(), "600000", "daily", "", bars(4))
	require.Error(t, err, "超过缓冲上限时同步刷新并返回错误")

	stats := bw.GetStats()
	assert.Equal(t, int64(1), stats.BufferOverflows)
	assert.Equal(t, int64(1), stats.FlushErrors)
	assert.Equal(t, int64(0), stats.TotalRecords)
	bw.Close()
}

func TestNopMirror(t *testing.T) {
	var m HistoryMirror = NopMirror{}
	assert.NoError(t, m.WriteBars(context.Background(), "600000", "daily", "", bars(1)))
	assert.NoError(t, m.Close())
}
