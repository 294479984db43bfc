// Package model はドメインモデルを定義する。
package model

import "time"

// Domain は管理対象のドメイン名を表す。
// レジストラ同期タスクまたは手動登録で作成される。
type Domain struct {
	ID                string
	Name              string
	Provider          string
	PurchasedAt       time.Time
	ExpiresAt         time.Time
	IsExpired         bool
	AutoRenew         bool
	IsLocked          bool
	AssignedProjectID string // 未割り当ての場合は空文字列
	LastUsedProjectID string // 一度も使用されていない場合は空文字列
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// DomainIdea は取得候補のドメイン名を表す。
// 同名のDomainが存在するようになった時点でクリーンアップタスクが削除する。
type DomainIdea struct {
	ID         string
	DomainName string
	CreatedAt  time.Time
}
