// Package scheduler 按 cron 表达式运行缓存维护任务。
// 任务失败只记录日志，不影响服务本身。
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"stockapi/pkg/logger"
)

// jobTimeout 单次任务的最长执行时间
const jobTimeout = 5 * time.Minute

// DefaultJobScheduler 默认任务调度器实现
type DefaultJobScheduler struct {
	cron    *cron.Cron
	jobs    map[string]*Job
	mu      sync.RWMutex
	wg      sync.WaitGroup
	started bool
	logger  *logrus.Entry
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewJobScheduler 创建新的任务调度器
func NewJobScheduler() *DefaultJobScheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &DefaultJobScheduler{
		cron:   cron.New(cron.WithSeconds()),
		jobs:   make(map[string]*Job),
		logger: logger.WithComponent("Scheduler"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start 启动调度器
func (s *DefaultJobScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("任务调度器已在运行")
	}
	s.started = true
	s.cron.Start()
	s.logger.WithField("jobs", len(s.jobs)).Info("任务调度器已启动")

	// 更新任务的下次运行时间
	s.updateNextRunTimes()

	return nil
}

// Stop 停止调度器
func (s *DefaultJobScheduler) Stop() error {
	s.mu.Lock()
	s.cancel()
	ctx := s.cron.Stop()
	s.started = false
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		s.wg.Wait()
		close(done)
	}()

	// 等待所有任务完成
	select {
	case <-done:
		s.logger.Info("任务调度器已停止")
	case <-time.After(30 * time.Second):
		s.logger.Warn("任务调度器停止超时")
	}

	return nil
}

// AddJob 添加任务
func (s *DefaultJobScheduler) AddJob(config JobConfig, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateJobConfig(config); err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("任务体不能为空: %s", config.Name)
	}

	return s.addJobInternal(config, fn)
}

// RemoveJob 移除任务
func (s *DefaultJobScheduler) RemoveJob(jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[jobName]
	if !exists {
		return fmt.Errorf("任务不存在: %s", jobName)
	}

	s.cron.Remove(job.EntryID)
	delete(s.jobs, jobName)

	s.logger.WithField("job", jobName).Info("任务已移除")
	return nil
}

// GetJob 获取任务状态
func (s *DefaultJobScheduler) GetJob(jobName string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobName]
	if !exists {
		return nil, fmt.Errorf("任务不存在: %s", jobName)
	}

	// 创建副本避免并发修改
	jobCopy := *job
	return &jobCopy, nil
}

// GetAllJobs 获取所有任务，按名称排序
func (s *DefaultJobScheduler) GetAllJobs() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobCopy := *job
		jobs = append(jobs, &jobCopy)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Config.Name < jobs[j].Config.Name })

	return jobs
}

// RunJob 手动执行任务，同步等待结束
func (s *DefaultJobScheduler) RunJob(jobName string) error {
	s.mu.RLock()
	job, exists := s.jobs[jobName]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("任务不存在: %s", jobName)
	}

	if !job.Config.Enabled {
		return fmt.Errorf("任务已禁用: %s", jobName)
	}

	return s.executeJob(job)
}

var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// validateJobConfig 验证任务配置
func validateJobConfig(config JobConfig) error {
	if config.Name == "" {
		return fmt.Errorf("任务名称不能为空")
	}

	if config.Schedule == "" {
		return fmt.Errorf("任务调度表达式不能为空")
	}

	// 支持秒级调度
	if _, err := cronParser.Parse(config.Schedule); err != nil {
		return fmt.Errorf("无效的调度表达式 '%s': %w", config.Schedule, err)
	}

	return nil
}

// addJobInternal 内部添加任务方法（需要持有锁）
func (s *DefaultJobScheduler) addJobInternal(config JobConfig, fn JobFunc) error {
	if _, exists := s.jobs[config.Name]; exists {
		return fmt.Errorf("任务已存在: %s", config.Name)
	}

	job := &Job{
		ID:     uuid.New().String(),
		Config: config,
		Status: JobStatusPending,
		run:    fn,
	}
	log := s.logger.WithFields(logrus.Fields{"job": config.Name, "schedule": config.Schedule})

	if !config.Enabled {
		job.Status = JobStatusDisabled
		s.jobs[config.Name] = job
		log.Info("任务已添加（已禁用）")
		return nil
	}

	entryID, err := s.cron.AddFunc(config.Schedule, func() {
		_ = s.executeJob(job)
	})
	if err != nil {
		return fmt.Errorf("添加任务到调度器失败: %w", err)
	}

	job.EntryID = entryID
	s.jobs[config.Name] = job
	if s.started {
		s.updateNextRunTimes()
	}

	log.Info("任务已添加")
	return nil
}

// errJobRunning 同一任务上一次执行尚未结束
var errJobRunning = errors.New("任务正在运行")

// executeJob 执行任务，每次执行分配一个 run id
func (s *DefaultJobScheduler) executeJob(job *Job) error {
	s.mu.Lock()
	if job.Status == JobStatusRunning {
		s.mu.Unlock()
		s.logger.WithField("job", job.Config.Name).Warn("任务正在运行，跳过本次执行")
		return errJobRunning
	}
	runID := uuid.New().String()
	job.Status = JobStatusRunning
	now := time.Now()
	job.LastRun = &now
	job.LastRunID = runID
	job.RunCount++
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	log := s.logger.WithFields(logrus.Fields{"job": job.Config.Name, "run_id": runID})
	log.Info("开始执行任务")

	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	err := runSafely(ctx, job.run, runID)

	s.mu.Lock()
	if err != nil {
		job.Status = JobStatusError
		job.LastError = err
		job.ErrorCount++
		log.WithError(err).Error("任务执行失败")
	} else {
		job.Status = JobStatusPending
		job.LastError = nil
		log.WithField("elapsed", time.Since(now).String()).Info("任务执行成功")
	}
	s.updateNextRunTimes()
	s.mu.Unlock()
	return err
}

func runSafely(ctx context.Context, fn JobFunc, runID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("任务异常: %v", r)
		}
	}()
	return fn(ctx, runID)
}

// updateNextRunTimes 更新所有任务的下次运行时间（需要持有锁）
func (s *DefaultJobScheduler) updateNextRunTimes() {
	entries := s.cron.Entries()
	for _, job := range s.jobs {
		if !job.Config.Enabled {
			continue
		}
		for _, entry := range entries {
			if entry.ID == job.EntryID {
				nextRun := entry.Next
				job.NextRun = &nextRun
				break
			}
		}
	}
}
