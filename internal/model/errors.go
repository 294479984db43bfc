// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, domain, project, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeDomainNotFound     = "DOMAIN_NOT_FOUND"
	ErrCodeIdeaNotFound       = "IDEA_NOT_FOUND"
	ErrCodeProjectNotFound    = "PROJECT_NOT_FOUND"
	ErrCodeDuplicateIdea      = "DUPLICATE_IDEA"
	ErrCodeDomainAlreadyOwned = "DOMAIN_ALREADY_OWNED"
	ErrCodeInvalidDomainName  = "INVALID_DOMAIN_NAME"
	ErrCodeInvalidProject     = "INVALID_PROJECT"
	ErrCodeCSRFTokenInvalid   = "CSRF_TOKEN_INVALID"
)

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// ユーザーの存在有無を区別しない同一メッセージを返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度ログインしてください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "閲覧者ロールでは変更操作はできません。管理者に権限を確認してください。",
	}
}

// NewDomainNotFoundError はドメイン未検出エラーを生成する。
func NewDomainNotFoundError(domainID string) *APIError {
	return &APIError{
		Code:     ErrCodeDomainNotFound,
		Message:  fmt.Sprintf("指定されたドメインが見つかりません: %s", domainID),
		Category: "domain",
		Action:   "ドメインIDを確認してください。",
	}
}

// NewIdeaNotFoundError はドメイン候補未検出エラーを生成する。
func NewIdeaNotFoundError(ideaID string) *APIError {
	return &APIError{
		Code:     ErrCodeIdeaNotFound,
		Message:  fmt.Sprintf("指定されたドメイン候補が見つかりません: %s", ideaID),
		Category: "domain",
		Action:   "候補IDを確認してください。",
	}
}

// NewProjectNotFoundError はプロジェクト未検出エラーを生成する。
func NewProjectNotFoundError(projectID string) *APIError {
	return &APIError{
		Code:     ErrCodeProjectNotFound,
		Message:  fmt.Sprintf("指定されたプロジェクトが見つかりません: %s", projectID),
		Category: "project",
		Action:   "プロジェクトIDを確認してください。",
	}
}

// NewDuplicateIdeaError は重複したドメイン候補エラーを生成する。
func NewDuplicateIdeaError(domainName string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateIdea,
		Message:  fmt.Sprintf("このドメイン名は既に候補として登録されています: %s", domainName),
		Category: "validation",
		Action:   "候補一覧から該当ドメインを確認してください。",
	}
}

// NewDomainAlreadyOwnedError は購入済みドメインへの候補登録エラーを生成する。
func NewDomainAlreadyOwnedError(domainName string) *APIError {
	return &APIError{
		Code:     ErrCodeDomainAlreadyOwned,
		Message:  fmt.Sprintf("このドメインは既に購入済みです: %s", domainName),
		Category: "validation",
		Action:   "ドメイン一覧から該当ドメインを確認してください。",
	}
}

// NewInvalidDomainNameError は無効なドメイン名エラーを生成する。
func NewInvalidDomainNameError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDomainName,
		Message:  fmt.Sprintf("無効なドメイン名です: %s", reason),
		Category: "validation",
		Action:   "正しいドメイン名（例: example.com）を入力してください。",
	}
}

// NewCSRFTokenError はCSRFトークン検証失敗エラーを生成する。
func NewCSRFTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeCSRFTokenInvalid,
		Message:  "CSRFトークンの検証に失敗しました。",
		Category: "auth",
		Action:   "ページを再読み込みして再度お試しください。",
	}
}

// NewInvalidProjectError は無効なプロジェクト入力エラーを生成する。
func NewInvalidProjectError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidProject,
		Message:  fmt.Sprintf("無効なプロジェクト入力です: %s", reason),
		Category: "validation",
		Action:   "プロジェクト名を確認して再度お試しください。",
	}
}
