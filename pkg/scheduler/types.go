package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

// JobConfig 单个任务的配置
type JobConfig struct {
	Name     string `mapstructure:"name" json:"name"`
	Enabled  bool   `mapstructure:"enabled" json:"enabled"`
	Schedule string `mapstructure:"schedule" json:"schedule"` // 带秒字段的 cron 表达式
}

// JobFunc 任务体，runID 用于在日志中关联同一次执行
type JobFunc func(ctx context.Context, runID string) error

// Job 表示一个已注册的任务
type Job struct {
	ID         string
	Config     JobConfig
	EntryID    cron.EntryID
	Status     JobStatus
	LastRun    *time.Time
	LastRunID  string
	NextRun    *time.Time
	RunCount   int64
	ErrorCount int64
	LastError  error

	run JobFunc
}

// JobStatus 任务状态
type JobStatus string

const (
	JobStatusPending  JobStatus = "pending"
	JobStatusRunning  JobStatus = "running"
	JobStatusError    JobStatus = "error"
	JobStatusDisabled JobStatus = "disabled"
)

// JobScheduler 任务调度器接口
type JobScheduler interface {
	// 启动调度器
	Start() error

	// 停止调度器，等待运行中的任务结束
	Stop() error

	// 添加任务
	AddJob(config JobConfig, fn JobFunc) error

	// 移除任务
	RemoveJob(jobName string) error

	// 获取任务状态
	GetJob(jobName string) (*Job, error)

	// 获取所有任务
	GetAllJobs() []*Job

	// 手动执行任务
	RunJob(jobName string) error
}

// JobSummary 任务状态的可序列化视图
type JobSummary struct {
	Name       string     `json:"name"`
	Schedule   string     `json:"schedule"`
	Enabled    bool       `json:"enabled"`
	Status     JobStatus  `json:"status"`
	LastRun    *time.Time `json:"last_run,omitempty"`
	NextRun    *time.Time `json:"next_run,omitempty"`
	RunCount   int64      `json:"run_count"`
	ErrorCount int64      `json:"error_count"`
	LastError  string     `json:"last_error,omitempty"`
}

// Summaries 所有任务的状态，按名称排序
func Summaries(s JobScheduler) []JobSummary {
	jobs := s.GetAllJobs()
	out := make([]JobSummary, 0, len(jobs))
	for _, job := range jobs {
		sum := JobSummary{
			Name:       job.Config.Name,
			Schedule:   job.Config.Schedule,
			Enabled:    job.Config.Enabled,
			Status:     job.Status,
			LastRun:    job.LastRun,
			NextRun:    job.NextRun,
			RunCount:   job.RunCount,
			ErrorCount: job.ErrorCount,
		}
		if job.LastError != nil {
			sum.LastError = job.LastError.Error()
		}
		out = append(out, sum)
	}
	return out
}
