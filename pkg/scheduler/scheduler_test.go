package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockapi/pkg/config"
	"stockapi/pkg/timing"
)

// recordingJob 记录每次执行的 run id
type recordingJob struct {
	mu     sync.Mutex
	runIDs []string
	err    error
}

func (r *recordingJob) run(ctx context.Context, runID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runIDs = append(r.runIDs, runID)
	return r.err
}

func (r *recordingJob) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runIDs)
}

func TestNewJobScheduler(t *testing.T) {
	scheduler := NewJobScheduler()

	assert.NotNil(t, scheduler)
	assert.NotNil(t, scheduler.cron)
	assert.NotNil(t, scheduler.jobs)
	assert.NotNil(t, scheduler.logger)
	assert.NotNil(t, scheduler.ctx)
}

func TestJobScheduler_AddJobValidation(t *testing.T) {
	noop := func(context.Context, string) error { return nil }

	tests := []struct {
		name        string
		config      JobConfig
		fn          JobFunc
		expectError bool
	}{
		{"有效配置", JobConfig{Name: "a", Enabled: true, Schedule: "*/5 * * * * *"}, noop, false},
		{"描述符", JobConfig{Name: "b", Enabled: true, Schedule: "@every 1h"}, noop, false},
		{"空名称", JobConfig{Schedule: "* * * * * *"}, noop, true},
		{"空表达式", JobConfig{Name: "c"}, noop, true},
		{"无效的 cron 表达式", JobConfig{Name: "d", Schedule: "invalid-cron"}, noop, true},
		{"五段表达式缺少秒", JobConfig{Name: "e", Schedule: "0 3 * * *"}, noop, true},
		{"空任务体", JobConfig{Name: "f", Schedule: "* * * * * *"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewJobScheduler()
			err := s.AddJob(tt.config, tt.fn)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestJobScheduler_DuplicateAndRemove(t *testing.T) {
	s := NewJobScheduler()
	job := &recordingJob{}
	cfg := JobConfig{Name: "dup", Enabled: true, Schedule: "0 0 * * * *"}

	require.NoError(t, s.AddJob(cfg, job.run))
	assert.Error(t, s.AddJob(cfg, job.run))

	require.NoError(t, s.RemoveJob("dup"))
	assert.Error(t, s.RemoveJob("dup"))
	_, err := s.GetJob("dup")
	assert.Error(t, err)
}

func TestJobScheduler_RunJob(t *testing.T) {
	s := NewJobScheduler()
	ok := &recordingJob{}
	bad := &recordingJob{err: errors.New("disk full")}

	require.NoError(t, s.AddJob(JobConfig{Name: "ok", Enabled: true, Schedule: "0 0 * * * *"}, ok.run))
	require.NoError(t, s.AddJob(JobConfig{Name: "bad", Enabled: true, Schedule: "0 0 * * * *"}, bad.run))
	require.NoError(t, s.AddJob(JobConfig{Name: "off", Enabled: false, Schedule: "0 0 * * * *"}, ok.run))

	require.NoError(t, s.RunJob("ok"))
	require.NoError(t, s.RunJob("ok"))
	job, err := s.GetJob("ok")
	require.NoError(t, err)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, int64(2), job.RunCount)
	require.Len(t, ok.runIDs, 2)
	assert.NotEqual(t, ok.runIDs[0], ok.runIDs[1], "每次执行的 run id 不同")
	assert.Equal(t, ok.runIDs[1], job.LastRunID)

	assert.Error(t, s.RunJob("bad"))
	job, _ = s.GetJob("bad")
	assert.Equal(t, JobStatusError, job.Status)
	assert.Equal(t, int64(1), job.ErrorCount)

	assert.Error(t, s.RunJob("off"))
	job, _ = s.GetJob("off")
	assert.Equal(t, JobStatusDisabled, job.Status)

	assert.Error(t, s.RunJob("missing"))

	names := []string{}
	for _, j := range s.GetAllJobs() {
		names = append(names, j.Config.Name)
	}
	assert.Equal(t, []string{"bad", "off", "ok"}, names)

	sums := Summaries(s)
	require.Len(t, sums, 3)
	assert.Equal(t, "bad", sums[0].Name)
	assert.Contains(t, sums[0].LastError, "disk full")
	assert.False(t, sums[1].Enabled)
	assert.Equal(t, int64(2), sums[2].RunCount)
	assert.Empty(t, sums[2].LastError)
}

func TestJobScheduler_RecoversPanic(t *testing.T) {
	s := NewJobScheduler()
	require.NoError(t, s.AddJob(JobConfig{Name: "panic", Enabled: true, Schedule: "@every 1h"}, func(context.Context, string) error {
		panic("boom")
	}))

	err := s.RunJob("panic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestJobScheduler_StartRunsCronJobs(t *testing.T) {
	if testing.Short() {
		t.Skip("跳过需要等待调度的测试")
	}

	s := NewJobScheduler()
	var runs atomic.Int32
	require.NoError(t, s.AddJob(JobConfig{Name: "tick", Enabled: true, Schedule: "* * * * * *"}, func(context.Context, string) error {
		runs.Add(1)
		return nil
	}))

	require.NoError(t, s.Start())
	assert.Error(t, s.Start(), "重复启动")

	job, _ := s.GetJob("tick")
	require.NotNil(t, job.NextRun)

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
	require.NoError(t, s.Stop())
}

type fakePruner struct {
	maxAge  time.Duration
	removed int
	err     error
}

func (f *fakePruner) Prune(maxAge time.Duration) (int, error) {
	f.maxAge = maxAge
	return f.removed, f.err
}

type fakeCloser struct {
	mu      sync.Mutex
	tickers []string
	fail    map[string]bool
}

func (f *fakeCloser) PreviousClose(_ context.Context, ticker string) (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tickers = append(f.tickers, ticker)
	return 3000, !f.fail[ticker]
}

func TestPruneHistoryJob(t *testing.T) {
	p := &fakePruner{removed: 4}
	require.NoError(t, PruneHistoryJob(p, 30*24*time.Hour)(context.Background(), "run-1"))
	assert.Equal(t, 30*24*time.Hour, p.maxAge)

	p.err = errors.New("permission denied")
	assert.Error(t, PruneHistoryJob(p, time.Hour)(context.Background(), "run-2"))
}

func TestWarmIndexJob(t *testing.T) {
	wednesday := &timing.FixedTimeService{At: time.Date(2024, 1, 10, 9, 20, 0, 0, time.Local)}
	saturday := &timing.FixedTimeService{At: time.Date(2024, 1, 13, 9, 20, 0, 0, time.Local)}

	c := &fakeCloser{}
	require.NoError(t, WarmIndexJob(c, wednesday)(context.Background(), "run"))
	assert.Len(t, c.tickers, 6)
	assert.Contains(t, c.tickers, "^sh000300")

	c = &fakeCloser{}
	require.NoError(t, WarmIndexJob(c, saturday)(context.Background(), "run"))
	assert.Empty(t, c.tickers, "周末不预热")

	c = &fakeCloser{fail: map[string]bool{"^sz399006": true}}
	err := WarmIndexJob(c, wednesday)(context.Background(), "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "399006")
}

func TestRegisterMaintenance(t *testing.T) {
	s := NewJobScheduler()
	cfg := config.Default()

	err := RegisterMaintenance(s, cfg.Scheduler, cfg.Cache, Maintenance{
		History: &fakePruner{},
		Closer:  &fakeCloser{},
	})
	require.NoError(t, err)

	jobs := s.GetAllJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, JobPruneHistory, jobs[0].Config.Name)
	assert.Equal(t, JobWarmIndex, jobs[1].Config.Name)
	assert.Equal(t, JobStatusPending, jobs[0].Status)

	// 调度器关闭时任务注册为禁用
	s = NewJobScheduler()
	cfg.Scheduler.Enabled = false
	require.NoError(t, RegisterMaintenance(s, cfg.Scheduler, cfg.Cache, Maintenance{History: &fakePruner{}}))
	job, err := s.GetJob(JobPruneHistory)
	require.NoError(t, err)
	assert.Equal(t, JobStatusDisabled, job.Status)

	cfg.Scheduler.PruneSchedule = "not a schedule"
	assert.Error(t, RegisterMaintenance(NewJobScheduler(), cfg.Scheduler, cfg.Cache, Maintenance{History: &fakePruner{}}))
}
