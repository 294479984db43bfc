// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/domainkeeper/internal/model"
	"github.com/hitoshi/domainkeeper/internal/session"
)

const sessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// snapshotContextKey はリクエストコンテキストにセッションスナップショットを格納するためのキー。
var snapshotContextKey = contextKey("session_snapshot")

// SnapshotResolver はセッションIDからスナップショットを解決するインターフェース。
// session.Providerの部分集合として定義する。
type SnapshotResolver interface {
	Resolve(ctx context.Context, sessionID string) (session.Snapshot, error)
}

// NewSessionMiddleware はHTTP Only Cookieからセッションを読み取り、
// 有効性を検証するミドルウェアを返す。
// 認証済みセッションのスナップショットをリクエストコンテキストに注入する。
// 未認証リクエストには401 Unauthorizedを返す。
func NewSessionMiddleware(resolver SnapshotResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			snap, err := resolver.Resolve(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("セッションの解決に失敗しました",
					slog.String("error", err.Error()),
				)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !session.IsAuthenticated(snap) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), snapshotContextKey, snap)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewEditorGuardMiddleware は変更操作を編集権限のあるロールに限定するミドルウェアを返す。
// セッションミドルウェアの後に配置すること。
// 閲覧者ロールには403 Forbiddenを統一エラーフォーマットで返す。
func NewEditorGuardMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap, ok := SnapshotFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !session.CanEdit(snap) {
				slog.Warn("編集権限のないユーザーが変更操作を試行しました",
					slog.String("user_id", snap.UserID),
					slog.String("role", string(snap.Role)),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SnapshotFromContext はリクエストコンテキストからセッションスナップショットを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func SnapshotFromContext(ctx context.Context) (session.Snapshot, bool) {
	snap, ok := ctx.Value(snapshotContextKey).(session.Snapshot)
	return snap, ok
}

// ContextWithSnapshot はコンテキストにセッションスナップショットを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithSnapshot(ctx context.Context, snap session.Snapshot) context.Context {
	return context.WithValue(ctx, snapshotContextKey, snap)
}
