package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/domainkeeper/internal/model"
)

// IdeaServiceInterface はドメイン候補ハンドラーが必要とするサービスインターフェース。
type IdeaServiceInterface interface {
	ListIdeas(ctx context.Context) ([]*model.DomainIdea, error)
	AddIdea(ctx context.Context, domainName string) (*model.DomainIdea, error)
	RemoveIdea(ctx context.Context, id string) error
}

// IdeaHandler はドメイン候補のHTTPハンドラー。
type IdeaHandler struct {
	service IdeaServiceInterface
}

// NewIdeaHandler はIdeaHandlerを生成する。
func NewIdeaHandler(service IdeaServiceInterface) *IdeaHandler {
	return &IdeaHandler{service: service}
}

// addIdeaRequest はドメイン候補追加リクエストのボディ。
type addIdeaRequest struct {
	DomainName string `json:"domain_name"`
}

// ideaResponse はドメイン候補のAPIレスポンス。
type ideaResponse struct {
	ID         string `json:"id"`
	DomainName string `json:"domain_name"`
	CreatedAt  string `json:"created_at"`
}

// ListIdeas はドメイン候補一覧を返す。
// GET /api/ideas
func (h *IdeaHandler) ListIdeas(w http.ResponseWriter, r *http.Request) {
	ideas, err := h.service.ListIdeas(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]ideaResponse, len(ideas))
	for i, idea := range ideas {
		resp[i] = toIdeaResponse(idea)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// AddIdea はドメイン候補を追加する。
// POST /api/ideas
func (h *IdeaHandler) AddIdea(w http.ResponseWriter, r *http.Request) {
	var req addIdeaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}

	idea, err := h.service.AddIdea(r.Context(), req.DomainName)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toIdeaResponse(idea))
}

// RemoveIdea はドメイン候補を削除する。
// DELETE /api/ideas/{id}
func (h *IdeaHandler) RemoveIdea(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveIdea(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// toIdeaResponse はmodel.DomainIdeaからAPIレスポンスに変換する。
func toIdeaResponse(idea *model.DomainIdea) ideaResponse {
	return ideaResponse{
		ID:         idea.ID,
		DomainName: idea.DomainName,
		CreatedAt:  idea.CreatedAt.UTC().Format(time.RFC3339),
	}
}
