// Package hook はライフサイクルフックの登録とディスパッチを提供する。
// ハンドラは明示的なタグ付き結果（Continue / Suppress）を返し、
// ディスパッチャがその結果を解釈してデフォルト動作の抑止を決定する。
package hook

import (
	"context"
	"log/slog"
	"sync"
)

// Point は拡張ポイントの名前を表す。
type Point string

const (
	// PointBootstrap はアプリケーション起動時に1回発火する。
	PointBootstrap Point = "bootstrap"

	// メール送信系の拡張ポイント。送信の直前に発火する。
	PointMailerSend          Point = "mailer.send"
	PointMailerAuthAlert     Point = "mailer.auth_alert"
	PointMailerPasswordReset Point = "mailer.password_reset"
	PointMailerVerification  Point = "mailer.verification"
	PointMailerEmailChange   Point = "mailer.email_change"
	PointMailerOTP           Point = "mailer.otp"
)

// MailerPoints は全メール送信系拡張ポイントの一覧。
var MailerPoints = []Point{
	PointMailerSend,
	PointMailerAuthAlert,
	PointMailerPasswordReset,
	PointMailerVerification,
	PointMailerEmailChange,
	PointMailerOTP,
}

// Event はハンドラに渡されるイベント情報。
type Event struct {
	Point Point
	// Detail はポイント固有の補足情報（メールの宛先等）。
	Detail map[string]string
}

// Handler は拡張ポイントで呼び出されるコールバック。
// Continueを返すとチェーンが継続し、Suppressを返すと
// 以降のハンドラとデフォルト動作がスキップされる。
type Handler func(ctx context.Context, ev Event) Result

// Dispatcher は拡張ポイントごとのハンドラチェーンを管理する。
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[Point][]Handler
	logger   *slog.Logger
}

// NewDispatcher はDispatcherを生成する。
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[Point][]Handler),
		logger:   logger,
	}
}

// Register は拡張ポイントにハンドラを追加する。
// ハンドラは登録順に呼び出される。
func (d *Dispatcher) Register(point Point, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[point] = append(d.handlers[point], h)
}

// Dispatch は拡張ポイントのハンドラチェーンを実行する。
// 最初にSuppressを返したハンドラでチェーンを打ち切り、その結果を返す。
// ハンドラのpanicは捕捉してエラーログを出力し、Continueとして扱う。
// フック障害がディスパッチ元の処理を壊してはならない。
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) Result {
	d.mu.RLock()
	chain := d.handlers[ev.Point]
	d.mu.RUnlock()

	for _, h := range chain {
		result := d.invoke(ctx, ev, h)
		if result.Suppressed() {
			return result
		}
	}
	return Continue()
}

// invoke は1つのハンドラをpanic隔離付きで実行する。
func (d *Dispatcher) invoke(ctx context.Context, ev Event, h Handler) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("フックハンドラがpanicしました",
				slog.String("hook_point", string(ev.Point)),
				slog.Any("panic", rec),
			)
			result = Continue()
		}
	}()
	return h(ctx, ev)
}
