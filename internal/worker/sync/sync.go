// Package sync はレジストラからのドメイン同期ジョブを提供する。
// レジストラAPIから取得したドメイン一覧をローカルのインベントリへUPSERTする。
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/domainkeeper/internal/metrics"
	"github.com/hitoshi/domainkeeper/internal/model"
	"github.com/hitoshi/domainkeeper/internal/registrar"
	"github.com/hitoshi/domainkeeper/internal/repository"
)

// TaskName はログとメトリクスで使用するタスク名。
const TaskName = "registrar-sync"

// SyncJob はレジストラのドメイン一覧をインベントリへ同期するジョブ。
// ドメイン名をキーにUPSERTし、プロジェクト割り当て状態は変更しない。
type SyncJob struct {
	provider registrar.Provider
	domains  repository.DomainRepository
	metrics  metrics.MetricsCollector
	logger   *slog.Logger

	// now はテスト用に現在時刻を差し替え可能
	now func() time.Time
}

// NewSyncJob は新しいSyncJobを生成する。
func NewSyncJob(provider registrar.Provider, domains repository.DomainRepository, collector metrics.MetricsCollector, logger *slog.Logger) *SyncJob {
	return &SyncJob{
		provider: provider,
		domains:  domains,
		metrics:  collector,
		logger:   logger,
		now:      time.Now,
	}
}

// Name はタスク名を返す。
func (j *SyncJob) Name() string {
	return TaskName
}

// Run はレジストラの全ドメインを取得し、1件ずつUPSERTする。
// 個別のUPSERT失敗は記録した上で残りの処理を継続する。
func (j *SyncJob) Run(ctx context.Context) error {
	start := j.now()

	records, err := j.provider.ListDomains(ctx)
	if err != nil {
		return fmt.Errorf("レジストラからのドメイン取得に失敗: %w", err)
	}

	synced := 0
	var firstErr error
	for _, r := range records {
		// IDと作成時刻は新規挿入時のみ使われる。
		// 既存行は名前の衝突で更新され、元のIDとcreated_atを保持する。
		domain := &model.Domain{
			ID:          uuid.New().String(),
			Name:        r.Name,
			Provider:    j.provider.Name(),
			PurchasedAt: r.PurchasedAt,
			ExpiresAt:   r.ExpiresAt,
			IsExpired:   !r.ExpiresAt.IsZero() && r.ExpiresAt.Before(start),
			AutoRenew:   r.AutoRenew,
			IsLocked:    r.IsLocked,
			CreatedAt:   start,
			UpdatedAt:   start,
		}
		if err := j.domains.UpsertByName(ctx, domain); err != nil {
			j.logger.Error("ドメインのUPSERTに失敗しました",
				slog.String("domain", r.Name),
				slog.String("error", err.Error()),
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		synced++
	}

	j.metrics.RecordDomainsSynced(synced)

	duration := time.Since(start)
	j.logger.Info("レジストラ同期ジョブが完了しました",
		slog.String("registrar", j.provider.Name()),
		slog.Int("synced_count", synced),
		slog.Int("total_count", len(records)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	if firstErr != nil {
		return fmt.Errorf("一部のドメインの同期に失敗: %w", firstErr)
	}
	return nil
}
