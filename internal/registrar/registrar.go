// Package registrar はドメインレジストラAPIとの連携機能を提供する。
// レジストラから取得したドメイン一覧をローカルのインベントリへ同期するために使用する。
package registrar

import (
	"context"
	"time"
)

// Record はレジストラが保持するドメインの情報。
type Record struct {
	Name        string
	PurchasedAt time.Time
	ExpiresAt   time.Time
	AutoRenew   bool
	IsLocked    bool
}

// Provider はレジストラAPIのインターフェース。
type Provider interface {
	// Name はレジストラの名称を返す。
	Name() string
	// ListDomains はレジストラに登録されている全ドメインを返す。
	ListDomains(ctx context.Context) ([]Record, error)
}
