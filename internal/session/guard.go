// Package session はセッションスナップショットと認可判定を提供する。
// 判定はグローバル状態に依存しない純粋関数として実装し、
// ナビゲーションや描画のたびに安全に呼び出せるようにする。
package session

import (
	"context"
	"fmt"

	"github.com/hitoshi/domainkeeper/internal/model"
	"github.com/hitoshi/domainkeeper/internal/repository"
)

// Snapshot はある時点のセッション状態のイミュータブルなコピー。
// リクエストごとにProviderが生成し、以降の判定はこの値のみを参照する。
type Snapshot struct {
	Valid  bool
	UserID string
	Email  string
	Role   model.Role
}

// IsAuthenticated はセッションが存在し有効な場合にtrueを返す。
func IsAuthenticated(s Snapshot) bool {
	return s.Valid
}

// CanEdit はセッションが有効かつ閲覧専用ロールでない場合にtrueを返す。
func CanEdit(s Snapshot) bool {
	return s.Valid && s.Role != model.RoleViewer
}

// Provider はセッションIDからスナップショットを解決する。
type Provider struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
}

// NewProvider はProviderを生成する。
func NewProvider(sessions repository.SessionRepository, users repository.UserRepository) *Provider {
	return &Provider{
		sessions: sessions,
		users:    users,
	}
}

// Resolve はセッションIDからスナップショットを生成する。
// セッションが存在しない・期限切れ・ユーザーが存在しない場合は
// 無効なスナップショット（ゼロ値）をエラーなしで返す。
// ストア障害のみエラーを返す。
func (p *Provider) Resolve(ctx context.Context, sessionID string) (Snapshot, error) {
	if sessionID == "" {
		return Snapshot{}, nil
	}

	sess, err := p.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("セッションの解決に失敗しました: %w", err)
	}
	if sess == nil {
		return Snapshot{}, nil
	}

	user, err := p.users.FindByID(ctx, sess.UserID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("セッションユーザーの解決に失敗しました: %w", err)
	}
	if user == nil {
		return Snapshot{}, nil
	}

	return Snapshot{
		Valid:  true,
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}, nil
}
