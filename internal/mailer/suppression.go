package mailer

import (
	"context"
	"log/slog"

	"github.com/hitoshi/domainkeeper/internal/hook"
)

// RegisterSuppressionHooks は全メール拡張ポイントに送信抑止ハンドラーを登録する。
// 管理アプリからの自動メール送信を運用で止めたい場合に使用する。
// 起動ポイントには抑止モジュールの読み込みを記録するハンドラーを登録する。
func RegisterSuppressionHooks(d *hook.Dispatcher, logger *slog.Logger) {
	d.Register(hook.PointBootstrap, func(ctx context.Context, e hook.Event) hook.Result {
		logger.Info("メール抑止モジュールを読み込みました",
			slog.Int("point_count", len(hook.MailerPoints)),
		)
		return hook.Continue()
	})

	for _, point := range hook.MailerPoints {
		p := point
		d.Register(p, func(ctx context.Context, e hook.Event) hook.Result {
			logger.Warn("メール送信をブロックしました",
				slog.String("hook_point", string(p)),
				slog.String("to", e.Detail["to"]),
			)
			return hook.Suppress("抑止モジュールにより送信がブロックされました")
		})
	}
}
