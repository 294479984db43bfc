// Package purge は期限切れセッションの削除ジョブを提供する。
// セッション検索は有効期限で絞り込むため期限切れ行が認証に影響することはないが、
// 放置するとテーブルが無制限に成長するため定期的に物理削除する。
package purge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/domainkeeper/internal/repository"
)

// TaskName はログで使用するタスク名。
const TaskName = "session-purge"

// PurgeJob は期限切れセッションの定期削除ジョブ。
type PurgeJob struct {
	sessions repository.SessionRepository
	logger   *slog.Logger
}

// NewPurgeJob は新しいPurgeJobを生成する。
func NewPurgeJob(sessions repository.SessionRepository, logger *slog.Logger) *PurgeJob {
	return &PurgeJob{
		sessions: sessions,
		logger:   logger,
	}
}

// Name はタスク名を返す。
func (j *PurgeJob) Name() string {
	return TaskName
}

// Run は期限切れセッションを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *PurgeJob) Run(ctx context.Context) error {
	start := time.Now()

	deleted, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("セッション削除ジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("期限切れセッションの削除に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("セッション削除ジョブが完了しました",
		slog.Int64("deleted_count", deleted),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
