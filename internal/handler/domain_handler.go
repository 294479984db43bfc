package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/domainkeeper/internal/inventory"
	"github.com/hitoshi/domainkeeper/internal/model"
)

// DomainServiceInterface はドメインハンドラーが必要とするサービスインターフェース。
type DomainServiceInterface interface {
	ListDomains(ctx context.Context) ([]*model.Domain, error)
	GetDomain(ctx context.Context, id string) (*model.Domain, error)
	UpdateDomain(ctx context.Context, id string, patch inventory.DomainPatch) (*model.Domain, error)
}

// DomainHandler はドメインインベントリのHTTPハンドラー。
type DomainHandler struct {
	service DomainServiceInterface
}

// NewDomainHandler はDomainHandlerを生成する。
func NewDomainHandler(service DomainServiceInterface) *DomainHandler {
	return &DomainHandler{service: service}
}

// updateDomainRequest はドメイン部分更新リクエストのボディ。
// nilのフィールドは変更しない。
type updateDomainRequest struct {
	AutoRenew         *bool   `json:"auto_renew"`
	IsLocked          *bool   `json:"is_locked"`
	AssignedProjectID *string `json:"assigned_project_id"`
}

// domainResponse はドメイン情報のAPIレスポンス。
type domainResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Provider          string `json:"provider"`
	PurchasedAt       string `json:"purchased_at,omitempty"`
	ExpiresAt         string `json:"expires_at,omitempty"`
	IsExpired         bool   `json:"is_expired"`
	AutoRenew         bool   `json:"auto_renew"`
	IsLocked          bool   `json:"is_locked"`
	AssignedProjectID string `json:"assigned_project_id,omitempty"`
	LastUsedProjectID string `json:"last_used_project_id,omitempty"`
}

// ListDomains はドメイン一覧を返す。
// GET /api/domains
func (h *DomainHandler) ListDomains(w http.ResponseWriter, r *http.Request) {
	domains, err := h.service.ListDomains(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]domainResponse, len(domains))
	for i, d := range domains {
		resp[i] = toDomainResponse(d)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetDomain はドメイン詳細を返す。
// GET /api/domains/{id}
func (h *DomainHandler) GetDomain(w http.ResponseWriter, r *http.Request) {
	domain, err := h.service.GetDomain(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toDomainResponse(domain))
}

// UpdateDomain はドメインの運用フィールドを部分更新する。
// PATCH /api/domains/{id}
func (h *DomainHandler) UpdateDomain(w http.ResponseWriter, r *http.Request) {
	var req updateDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}

	domain, err := h.service.UpdateDomain(r.Context(), chi.URLParam(r, "id"), inventory.DomainPatch{
		AutoRenew:         req.AutoRenew,
		IsLocked:          req.IsLocked,
		AssignedProjectID: req.AssignedProjectID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toDomainResponse(domain))
}

// --- ヘルパー関数 ---

// toDomainResponse はmodel.DomainからAPIレスポンスに変換する。
func toDomainResponse(d *model.Domain) domainResponse {
	resp := domainResponse{
		ID:                d.ID,
		Name:              d.Name,
		Provider:          d.Provider,
		IsExpired:         d.IsExpired,
		AutoRenew:         d.AutoRenew,
		IsLocked:          d.IsLocked,
		AssignedProjectID: d.AssignedProjectID,
		LastUsedProjectID: d.LastUsedProjectID,
	}
	if !d.PurchasedAt.IsZero() {
		resp.PurchasedAt = d.PurchasedAt.UTC().Format(time.RFC3339)
	}
	if !d.ExpiresAt.IsZero() {
		resp.ExpiresAt = d.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// invalidRequestError はリクエストボディ解析失敗の統一エラーを返す。
func invalidRequestError() *model.APIError {
	return &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// writeInternalError は内部サーバーエラーの統一レスポンスを書き込む。
func writeInternalError(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("内部エラーが発生しました", slog.String("error", err.Error()))
	writeInternalError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeDomainNotFound, model.ErrCodeIdeaNotFound, model.ErrCodeProjectNotFound:
		return http.StatusNotFound
	case model.ErrCodeDuplicateIdea, model.ErrCodeDomainAlreadyOwned:
		return http.StatusConflict
	case model.ErrCodeInvalidDomainName, model.ErrCodeInvalidProject:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
