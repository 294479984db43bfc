// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/domainkeeper/internal/model"
)

// DomainRepository はドメインデータの永続化インターフェース。
type DomainRepository interface {
	// FindByID は指定IDのドメインを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Domain, error)

	// FindByName はドメイン名でドメインを検索する。見つからない場合はnilを返す。
	FindByName(ctx context.Context, name string) (*model.Domain, error)

	// List は全ドメインを名前昇順で返す。
	List(ctx context.Context) ([]*model.Domain, error)

	// ListExpiringBetween はexpires_atが[from, to]（両端を含む）に入るドメインを返す。
	ListExpiringBetween(ctx context.Context, from, to time.Time) ([]*model.Domain, error)

	// ListByAssignedProject は指定プロジェクトに割り当てられているドメインを返す。
	ListByAssignedProject(ctx context.Context, projectID string) ([]*model.Domain, error)

	// Update はドメインの可変フィールドを更新する。
	Update(ctx context.Context, domain *model.Domain) error

	// UpsertByName はドメイン名をキーに作成または更新する。
	// レジストラ同期タスクが使用する。割り当て状態は変更しない。
	UpsertByName(ctx context.Context, domain *model.Domain) error

	// ReleaseFromProject は割り当てを解除しlast_used_project_idを設定する。
	// assigned_project_idが一致しない場合は何も変更しない。
	ReleaseFromProject(ctx context.Context, domainID, projectID string) error
}

// DomainIdeaRepository はドメイン候補データの永続化インターフェース。
type DomainIdeaRepository interface {
	// ListAll は全候補を作成日時昇順で返す。
	ListAll(ctx context.Context) ([]*model.DomainIdea, error)

	// FindByName はドメイン名で候補を検索する。見つからない場合はnilを返す。
	FindByName(ctx context.Context, domainName string) (*model.DomainIdea, error)

	// Create は候補を作成する。
	Create(ctx context.Context, idea *model.DomainIdea) error

	// Delete は指定IDの候補を削除する。存在しない場合もエラーにならない。
	Delete(ctx context.Context, id string) error

	// DeletePurchased はdomainsに同名（大文字小文字を区別しない）のレコードが
	// 存在する候補を削除し、削除した候補のドメイン名を返す。
	DeletePurchased(ctx context.Context) ([]string, error)
}

// ProjectRepository はプロジェクトデータの永続化インターフェース。
type ProjectRepository interface {
	// FindByID は指定IDのプロジェクトを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Project, error)

	// List は全プロジェクトを作成日時降順で返す。
	List(ctx context.Context) ([]*model.Project, error)

	// Create はプロジェクトを作成する。
	Create(ctx context.Context, project *model.Project) error

	// Update はプロジェクトの可変フィールドを更新する。
	Update(ctx context.Context, project *model.Project) error

	// SetCompleted は完了フラグを1回の更新で書き換え、更新後のプロジェクトを返す。
	// 見つからない場合はnilを返す。
	SetCompleted(ctx context.Context, id string, completed bool) (*model.Project, error)
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}
