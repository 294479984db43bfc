// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限ロールを表す。
type Role string

const (
	// RoleViewer は閲覧のみ可能なロール。変更操作は許可されない。
	RoleViewer Role = "viewer"
	// RoleOperator はドメイン・プロジェクトの変更操作が可能なロール。
	RoleOperator Role = "operator"
	// RoleAdmin は全操作が可能なロール。
	RoleAdmin Role = "admin"
)

// IsValid は定義済みロールかどうかを返す。
func (r Role) IsValid() bool {
	switch r {
	case RoleViewer, RoleOperator, RoleAdmin:
		return true
	}
	return false
}

// User はサービス利用ユーザーを表す。
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
