package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/core/automation"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/model"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/repository"
)

const maxScheduledRules = 1000

// Runner 执行单条规则
type Runner interface {
	Run(ctx context.Context, rule *model.Automation, ev automation.Event)
}

// Scheduler 定时规则调度器, 负责 schedule 类型的自动化规则
type Scheduler struct {
	mu             sync.Mutex
	cron           *cron.Cron
	logger         *zap.Logger
	automationRepo repository.AutomationRepository
	runner         Runner
	cronSchedules  map[string]cron.EntryID // 规则ID -> 任务ID
}

// NewScheduler 创建调度器
func NewScheduler(automationRepo repository.AutomationRepository, runner Runner, logger *zap.Logger) *Scheduler {
	// 标准5段 cron: 分 时 日 月 周
	c := cron.New(cron.WithLocation(time.UTC))

	return &Scheduler{
		cron:           c,
		logger:         logger,
		automationRepo: automationRepo,
		runner:         runner,
		cronSchedules:  make(map[string]cron.EntryID),
	}
}

// Start 加载规则并启动调度器
func (s *Scheduler) Start() error {
	log := s.logger.Sugar()
	log.Info("启动定时任务调度器...")

	// 先启动 cron, 加载失败时后续 Reload 注册的规则仍能触发
	s.cron.Start()

	if err := s.Reload(); err != nil {
		log.Errorf("加载定时规则失败: %v", err)
		return err
	}

	log.Info("定时任务调度器启动成功")
	return nil
}

// Reload 按数据库中启用的 schedule 规则重建任务
func (s *Scheduler) Reload() error {
	enabled := true
	rules, _, err := s.automationRepo.List(repository.AutomationFilter{
		Enabled:     &enabled,
		TriggerType: model.TriggerSchedule,
	}, repository.Page{Limit: maxScheduledRules})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, entryID := range s.cronSchedules {
		s.cron.Remove(entryID)
		delete(s.cronSchedules, id)
	}

	for _, rule := range rules {
		schedule, err := automation.ParseSchedule(rule.TriggerConfig)
		if err != nil {
			s.logger.Warn("跳过无效的定时规则", zap.String("automation_id", rule.ID), zap.Error(err))
			continue
		}
		rule := rule
		entryID := s.cron.Schedule(schedule, cron.FuncJob(func() {
			s.runRule(rule)
		}))
		s.cronSchedules[rule.ID] = entryID
		s.logger.Info("定时规则已注册",
			zap.String("automation_id", rule.ID),
			zap.Any("cron", rule.TriggerConfig["cron"]),
			zap.Int("entry_id", int(entryID)))
	}
	return nil
}

func (s *Scheduler) runRule(rule *model.Automation) {
	s.logger.Info("执行定时规则", zap.String("automation_id", rule.ID))

	ev := automation.Event{
		Type: model.TriggerSchedule,
		Payload: map[string]interface{}{
			"automation_id": rule.ID,
			"name":          rule.Name,
			"fired_at":      time.Now().UTC().Format(time.RFC3339),
		},
	}
	if rule.ProjectID != nil {
		ev.ProjectID = *rule.ProjectID
		ev.Payload["project_id"] = *rule.ProjectID
	}
	if !automation.Evaluate(rule, ev).Matched {
		return
	}
	s.runner.Run(context.Background(), rule, ev)
}

// Entries 已注册的规则数量
func (s *Scheduler) Entries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cronSchedules)
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	s.logger.Info("正在停止定时任务调度器...")

	// 等待正在执行的任务完成
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.logger.Info("定时任务调度器已停止")
}
