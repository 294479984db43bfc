// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ワーカーやメーラーから利用する。
type MetricsCollector interface {
	RecordIdeasDeleted(count int)
	RecordReportSent(domainCount int)
	RecordWebhookFailure(statusCode int)
	RecordEmailSuppressed(point string)
	RecordDomainsSynced(count int)
	RecordTaskFailure(task string)
	RecordTaskDuration(task string, duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	ideasDeleted     prometheus.Counter
	reportsSent      prometheus.Counter
	reportedDomains  prometheus.Counter
	webhookFail      *prometheus.CounterVec
	emailsSuppressed *prometheus.CounterVec
	domainsSynced    prometheus.Counter
	taskFailures     *prometheus.CounterVec
	taskDuration     *prometheus.HistogramVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		ideasDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "domainkeeper_ideas_deleted_total",
			Help: "クリーンアップタスクが削除したドメイン候補の合計数",
		}),
		reportsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "domainkeeper_reports_sent_total",
			Help: "送信に成功した有効期限レポートの合計数",
		}),
		reportedDomains: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "domainkeeper_reported_domains_total",
			Help: "レポートに含まれた期限切れ間近ドメインの合計数",
		}),
		webhookFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "domainkeeper_webhook_fail_total",
			Help: "HTTPステータスコード別のWebhook配信失敗数",
		}, []string{"status_code"}),
		emailsSuppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "domainkeeper_emails_suppressed_total",
			Help: "拡張ポイント別の抑止されたメール送信数",
		}, []string{"point"}),
		domainsSynced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "domainkeeper_domains_synced_total",
			Help: "レジストラ同期でUPSERTされたドメインの合計数",
		}),
		taskFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "domainkeeper_task_failures_total",
			Help: "タスク名別のスケジュールタスク失敗数",
		}, []string{"task"}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "domainkeeper_task_duration_seconds",
			Help:    "タスク名別のスケジュールタスク実行時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"task"}),
	}

	reg.MustRegister(
		c.ideasDeleted,
		c.reportsSent,
		c.reportedDomains,
		c.webhookFail,
		c.emailsSuppressed,
		c.domainsSynced,
		c.taskFailures,
		c.taskDuration,
	)

	return c
}

// RecordIdeasDeleted は削除されたドメイン候補数を記録する。
func (c *Collector) RecordIdeasDeleted(count int) {
	c.ideasDeleted.Add(float64(count))
}

// RecordReportSent はレポート送信成功と対象ドメイン数を記録する。
func (c *Collector) RecordReportSent(domainCount int) {
	c.reportsSent.Inc()
	c.reportedDomains.Add(float64(domainCount))
}

// RecordWebhookFailure はWebhook配信失敗を記録する。
func (c *Collector) RecordWebhookFailure(statusCode int) {
	c.webhookFail.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordEmailSuppressed は抑止されたメール送信を記録する。
func (c *Collector) RecordEmailSuppressed(point string) {
	c.emailsSuppressed.WithLabelValues(point).Inc()
}

// RecordDomainsSynced は同期されたドメイン数を記録する。
func (c *Collector) RecordDomainsSynced(count int) {
	c.domainsSynced.Add(float64(count))
}

// RecordTaskFailure はスケジュールタスクの失敗を記録する。
func (c *Collector) RecordTaskFailure(task string) {
	c.taskFailures.WithLabelValues(task).Inc()
}

// RecordTaskDuration はスケジュールタスクの実行時間を記録する。
func (c *Collector) RecordTaskDuration(task string, duration time.Duration) {
	c.taskDuration.WithLabelValues(task).Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop は何も記録しないMetricsCollector実装。テスト用。
type Nop struct{}

func (Nop) RecordIdeasDeleted(count int)                           {}
func (Nop) RecordReportSent(domainCount int)                       {}
func (Nop) RecordWebhookFailure(statusCode int)                    {}
func (Nop) RecordEmailSuppressed(point string)                     {}
func (Nop) RecordDomainsSynced(count int)                          {}
func (Nop) RecordTaskFailure(task string)                          {}
func (Nop) RecordTaskDuration(task string, duration time.Duration) {}

// compile-time interface checks
var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)
