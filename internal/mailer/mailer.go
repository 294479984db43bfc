// Package mailer はメール送信とフック経由の送信抑止を提供する。
// 送信前にフックディスパッチャーへ問い合わせ、抑止された場合は送信しない。
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/domainkeeper/internal/hook"
	"github.com/hitoshi/domainkeeper/internal/metrics"
)

// Kind はメールの種別。フック拡張ポイントに対応する。
type Kind string

const (
	KindGeneric       Kind = "generic"
	KindAuthAlert     Kind = "auth_alert"
	KindPasswordReset Kind = "password_reset"
	KindVerification  Kind = "verification"
	KindEmailChange   Kind = "email_change"
	KindOTP           Kind = "otp"
)

// hookPoint はメール種別を対応するフック拡張ポイントに変換する。
func (k Kind) hookPoint() hook.Point {
	switch k {
	case KindAuthAlert:
		return hook.PointMailerAuthAlert
	case KindPasswordReset:
		return hook.PointMailerPasswordReset
	case KindVerification:
		return hook.PointMailerVerification
	case KindEmailChange:
		return hook.PointMailerEmailChange
	case KindOTP:
		return hook.PointMailerOTP
	default:
		return hook.PointMailerSend
	}
}

// Message は送信するメールの内容。
type Message struct {
	Kind    Kind
	To      string
	Subject string
	Body    string
}

// Sender は実際のメール配送を行うインターフェース。
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer は送信前にフックを評価するメーラー。
// いずれかのハンドラーが抑止を返した場合、配送は行われない（エラーにもならない）。
type Mailer struct {
	sender     Sender
	dispatcher *hook.Dispatcher
	metrics    metrics.MetricsCollector
	logger     *slog.Logger
}

// NewMailer はMailerの新しいインスタンスを生成する。
func NewMailer(sender Sender, dispatcher *hook.Dispatcher, collector metrics.MetricsCollector, logger *slog.Logger) *Mailer {
	return &Mailer{
		sender:     sender,
		dispatcher: dispatcher,
		metrics:    collector,
		logger:     logger,
	}
}

// Send はフックを評価した上でメールを送信する。
// 抑止された場合はWARNログを記録してnilを返す。
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	point := msg.Kind.hookPoint()

	result := m.dispatcher.Dispatch(ctx, hook.Event{
		Point: point,
		Detail: map[string]string{
			"to":      msg.To,
			"subject": msg.Subject,
		},
	})
	if result.Suppressed() {
		m.logger.Warn("メール送信が抑止されました",
			slog.String("hook_point", string(point)),
			slog.String("to", msg.To),
			slog.String("reason", result.Reason()),
		)
		m.metrics.RecordEmailSuppressed(string(point))
		return nil
	}

	if err := m.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("メールの送信に失敗しました: %w", err)
	}

	m.logger.Info("メールを送信しました",
		slog.String("hook_point", string(point)),
		slog.String("to", msg.To),
	)
	return nil
}
