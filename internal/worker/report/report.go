// Package report は有効期限が近いドメインの週次レポートジョブを提供する。
// 30日以内に期限を迎えるドメインを集計し、Webhook経由で通知する。
package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/domainkeeper/internal/mailer"
	"github.com/hitoshi/domainkeeper/internal/metrics"
	"github.com/hitoshi/domainkeeper/internal/model"
	"github.com/hitoshi/domainkeeper/internal/repository"
)

// TaskName はログとメトリクスで使用するタスク名。
const TaskName = "expiring-report"

// Notifier は通知メッセージの配信インターフェース。
type Notifier interface {
	Broadcast(ctx context.Context, text string) (int, error)
}

// MailSender はレポートのメール配信インターフェース。
type MailSender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// ReportJob は有効期限レポートの生成と配信を行うジョブ。
type ReportJob struct {
	domains    repository.DomainRepository
	notifier   Notifier
	metrics    metrics.MetricsCollector
	logger     *slog.Logger
	WindowDays int // 期限チェックの対象期間（日数）

	mail   MailSender
	mailTo string

	// now はテスト用に現在時刻を差し替え可能
	now func() time.Time
}

// NewReportJob は新しいReportJobを生成する。
func NewReportJob(domains repository.DomainRepository, notifier Notifier, collector metrics.MetricsCollector, logger *slog.Logger, windowDays int) *ReportJob {
	return &ReportJob{
		domains:    domains,
		notifier:   notifier,
		metrics:    collector,
		logger:     logger,
		WindowDays: windowDays,
		now:        time.Now,
	}
}

// WithMail はレポートのメール配信先を設定する。
// 設定された場合、Webhook配信に加えて同じ本文をメールでも送信する。
func (j *ReportJob) WithMail(mail MailSender, to string) *ReportJob {
	j.mail = mail
	j.mailTo = to
	return j
}

// Name はタスク名を返す。
func (j *ReportJob) Name() string {
	return TaskName
}

// Run は対象期間内に期限を迎えるドメインを集計し、通知を配信する。
// 対象期間は現在時刻からWindowDays日後までで、両端を含む。
// 対象ドメインが0件の場合は通知を送信しない。
func (j *ReportJob) Run(ctx context.Context) error {
	now := j.now()
	from := now
	to := now.AddDate(0, 0, j.WindowDays)

	domains, err := j.domains.ListExpiringBetween(ctx, from, to)
	if err != nil {
		return fmt.Errorf("期限切れ間近ドメインの取得に失敗: %w", err)
	}

	if len(domains) == 0 {
		j.logger.Info("期限切れ間近のドメインはありません",
			slog.Int("window_days", j.WindowDays),
		)
		return nil
	}

	message := BuildMessage(domains)

	sent, err := j.notifier.Broadcast(ctx, message)
	if err != nil {
		j.logger.Error("有効期限レポートの配信に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("succeeded", sent),
		)
		return fmt.Errorf("有効期限レポートの配信に失敗: %w", err)
	}

	if j.mail != nil && j.mailTo != "" {
		mailErr := j.mail.Send(ctx, mailer.Message{
			Kind:    mailer.KindGeneric,
			To:      j.mailTo,
			Subject: "Upcoming Domain Expirations",
			Body:    message,
		})
		if mailErr != nil {
			// メール配信はベストエフォート。Webhook配信が成功していればジョブは成功扱いとする。
			j.logger.Error("有効期限レポートのメール配信に失敗しました",
				slog.String("error", mailErr.Error()),
				slog.String("to", j.mailTo),
			)
		}
	}

	j.metrics.RecordReportSent(len(domains))
	j.logger.Info("有効期限レポートを配信しました",
		slog.Int("expiring_domains", len(domains)),
		slog.Int("window_days", j.WindowDays),
	)

	return nil
}

// BuildMessage はレポート本文を構築する。
// 本文は外部サービス（Slack/Discord）で表示されるため英語とする。
func BuildMessage(domains []*model.Domain) string {
	var b strings.Builder
	b.WriteString("Upcoming Domain Expirations:\n\n")
	for _, d := range domains {
		fmt.Fprintf(&b, "Domain: %s | Expires: %s | Auto-Renew: %t | Is Locked: %t\n",
			d.Name,
			d.ExpiresAt.UTC().Format("2006-01-02"),
			d.AutoRenew,
			d.IsLocked,
		)
	}
	return b.String()
}
