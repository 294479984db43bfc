// Package notify はWebhook経由の通知配信機能を提供する。
// SlackおよびDiscord互換のWebhookエンドポイントへテキストメッセージを送信する。
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hitoshi/domainkeeper/internal/metrics"
)

// WebhookClient は複数のWebhookエンドポイントへ通知を配信するクライアント。
// エンドポイントのホスト名からペイロード形式を判定する。
type WebhookClient struct {
	httpClient *http.Client
	endpoints  []string
	metrics    metrics.MetricsCollector
	logger     *slog.Logger
}

// NewWebhookClient はWebhookClientの新しいインスタンスを生成する。
func NewWebhookClient(httpClient *http.Client, endpoints []string, collector metrics.MetricsCollector, logger *slog.Logger) *WebhookClient {
	return &WebhookClient{
		httpClient: httpClient,
		endpoints:  endpoints,
		metrics:    collector,
		logger:     logger,
	}
}

// Broadcast は全エンドポイントへメッセージを送信する。
// 一部のエンドポイントが失敗しても残りへの配信は継続し、
// 成功数と最初のエラーを返す。
func (c *WebhookClient) Broadcast(ctx context.Context, text string) (int, error) {
	if len(c.endpoints) == 0 {
		c.logger.Info("Webhookエンドポイントが設定されていないため通知をスキップします")
		return 0, nil
	}

	succeeded := 0
	var firstErr error
	for _, endpoint := range c.endpoints {
		if err := c.send(ctx, endpoint, text); err != nil {
			c.logger.Error("Webhookの配信に失敗しました",
				slog.String("endpoint_host", hostOf(endpoint)),
				slog.String("error", err.Error()),
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		succeeded++
	}

	c.logger.Info("Webhook通知を配信しました",
		slog.Int("succeeded", succeeded),
		slog.Int("total", len(c.endpoints)),
	)
	return succeeded, firstErr
}

// send は単一のエンドポイントへメッセージを送信する。
func (c *WebhookClient) send(ctx context.Context, endpoint, text string) error {
	payload, err := json.Marshal(payloadFor(endpoint, text))
	if err != nil {
		return fmt.Errorf("ペイロードのエンコードに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordWebhookFailure(0)
		return fmt.Errorf("Webhookの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.RecordWebhookFailure(resp.StatusCode)
		return fmt.Errorf("Webhookがステータス %d を返しました", resp.StatusCode)
	}

	return nil
}

// payloadFor はエンドポイントのホスト名に応じたペイロードを構築する。
// Discordは {"content": ...}、それ以外（Slack互換）は {"text": ...} を受け付ける。
func payloadFor(endpoint, text string) map[string]string {
	host := hostOf(endpoint)
	if strings.HasSuffix(host, "discord.com") || strings.HasSuffix(host, "discordapp.com") {
		return map[string]string{"content": text}
	}
	return map[string]string{"text": text}
}

func hostOf(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return ""
	}
	return u.Host
}
