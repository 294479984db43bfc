// Package cleanup はドメイン候補の自動削除ジョブを提供する。
// 既に購入済みドメインとして登録されている名前と一致する候補を
// 日次バッチで削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/domainkeeper/internal/metrics"
	"github.com/hitoshi/domainkeeper/internal/repository"
)

// TaskName はログとメトリクスで使用するタスク名。
const TaskName = "cleanup-domain-ideas"

// CleanupJob は購入済みドメインと重複するドメイン候補の自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	ideas   repository.DomainIdeaRepository
	metrics metrics.MetricsCollector
	logger  *slog.Logger
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(ideas repository.DomainIdeaRepository, collector metrics.MetricsCollector, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		ideas:   ideas,
		metrics: collector,
		logger:  logger,
	}
}

// Name はタスク名を返す。
func (j *CleanupJob) Name() string {
	return TaskName
}

// Run はdomainsに同名のレコードが存在するドメイン候補を削除する。
// 名前の比較は大文字小文字を区別しない。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	deleted, err := j.ideas.DeletePurchased(ctx)
	if err != nil {
		j.logger.Error("ドメイン候補クリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("ドメイン候補クリーンアップの実行に失敗: %w", err)
	}

	for _, name := range deleted {
		j.logger.Info("購入済みドメインと重複する候補を削除しました",
			slog.String("domain_name", name),
		)
	}

	j.metrics.RecordIdeasDeleted(len(deleted))

	duration := time.Since(start)
	j.logger.Info("ドメイン候補クリーンアップジョブが完了しました",
		slog.Int("deleted_count", len(deleted)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
