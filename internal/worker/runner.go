package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/domainkeeper/internal/metrics"
)

// Task はスケジュール実行されるバックグラウンドタスク。
type Task interface {
	// Name はログとメトリクスで使用するタスク名を返す。
	Name() string
	// Run はタスクを1回実行する。
	Run(ctx context.Context) error
}

// entry はタスクとスケジュールの組。
type entry struct {
	task     Task
	schedule Schedule
}

// Scheduler は登録されたタスクをスケジュールに従って実行する。
// タスクごとに独立したタイマーループを持ち、1つのタスクの失敗やパニックが
// 他のタスクやプロセス全体に影響しないよう隔離する。
type Scheduler struct {
	entries []entry
	metrics metrics.MetricsCollector
	logger  *slog.Logger
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
func NewScheduler(collector metrics.MetricsCollector, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		metrics: collector,
		logger:  logger,
	}
}

// Add はタスクをスケジュールに登録する。Start前に呼び出すこと。
func (s *Scheduler) Add(task Task, schedule Schedule) {
	s.entries = append(s.entries, entry{task: task, schedule: schedule})
}

// Start は全タスクのタイマーループを起動し、コンテキストがキャンセルされるまで
// ブロックする。
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("タスクスケジューラを開始しました",
		slog.Int("task_count", len(s.entries)),
	)

	var wg sync.WaitGroup
	for _, e := range s.entries {
		wg.Add(1)
		go func(e entry) {
			defer wg.Done()
			s.loop(ctx, e)
		}(e)
	}
	wg.Wait()

	s.logger.Info("タスクスケジューラを停止しました")
}

// loop は単一タスクのタイマーループ。
func (s *Scheduler) loop(ctx context.Context, e entry) {
	for {
		next := e.schedule.Next(time.Now())
		s.logger.Info("次回実行時刻を設定しました",
			slog.String("task", e.task.Name()),
			slog.Time("next_run", next),
		)

		if !sleepUntil(ctx, next) {
			return
		}
		s.RunTask(ctx, e.task)
	}
}

// RunTask はタスクを1回実行する。エラーとパニックはログとメトリクスに
// 記録した上で握りつぶし、呼び出し元には伝播しない。
func (s *Scheduler) RunTask(ctx context.Context, task Task) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("タスクの実行中にパニックが発生しました",
				slog.String("task", task.Name()),
				slog.Any("panic", r),
			)
			s.metrics.RecordTaskFailure(task.Name())
		}
	}()

	if err := task.Run(ctx); err != nil {
		s.logger.Error("タスクの実行に失敗しました",
			slog.String("task", task.Name()),
			slog.String("error", err.Error()),
		)
		s.metrics.RecordTaskFailure(task.Name())
		return
	}

	s.metrics.RecordTaskDuration(task.Name(), time.Since(start))
}
