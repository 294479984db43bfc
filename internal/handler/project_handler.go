package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/domainkeeper/internal/model"
)

// ProjectServiceInterface はプロジェクトハンドラーが必要とするサービスインターフェース。
type ProjectServiceInterface interface {
	List(ctx context.Context) ([]*model.Project, error)
	Get(ctx context.Context, id string) (*model.Project, error)
	Create(ctx context.Context, name, notes string) (*model.Project, error)
	UpdateNotes(ctx context.Context, id, notes string) (*model.Project, error)
	ToggleCompletion(ctx context.Context, id string, completed bool) (*model.Project, error)
	Stats(ctx context.Context, id string) (*model.ProjectStats, error)
}

// ProjectHandler はフィッシング訓練キャンペーンのHTTPハンドラー。
type ProjectHandler struct {
	service ProjectServiceInterface
}

// NewProjectHandler はProjectHandlerを生成する。
func NewProjectHandler(service ProjectServiceInterface) *ProjectHandler {
	return &ProjectHandler{service: service}
}

// createProjectRequest はプロジェクト作成リクエストのボディ。
type createProjectRequest struct {
	Name  string `json:"name"`
	Notes string `json:"notes"`
}

// updateNotesRequest はメモ更新リクエストのボディ。
type updateNotesRequest struct {
	Notes string `json:"notes"`
}

// toggleRequest は完了切り替えリクエストのボディ。
type toggleRequest struct {
	Completed bool `json:"completed"`
}

// projectResponse はプロジェクトのAPIレスポンス。
type projectResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Notes      string `json:"notes"`
	Completed  bool   `json:"completed"`
	EmailsSent int    `json:"emails_sent"`
	Clicks     int    `json:"clicks"`
	Submits    int    `json:"submits"`
}

// statsResponse はキャンペーン集計のAPIレスポンス。
type statsResponse struct {
	ProjectID     string `json:"project_id"`
	EmailsSent    int    `json:"emails_sent"`
	Clicks        int    `json:"clicks"`
	Submits       int    `json:"submits"`
	ClickPercent  int    `json:"click_percent"`
	SubmitPercent int    `json:"submit_percent"`
}

// ListProjects はプロジェクト一覧を返す。
// GET /api/projects
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]projectResponse, len(projects))
	for i, p := range projects {
		resp[i] = toProjectResponse(p)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetProject はプロジェクト詳細を返す。
// GET /api/projects/{id}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toProjectResponse(p))
}

// CreateProject はプロジェクトを作成する。
// POST /api/projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}

	p, err := h.service.Create(r.Context(), req.Name, req.Notes)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toProjectResponse(p))
}

// UpdateNotes はプロジェクトのメモ欄を更新する。
// PATCH /api/projects/{id}/notes
func (h *ProjectHandler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	var req updateNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}

	p, err := h.service.UpdateNotes(r.Context(), chi.URLParam(r, "id"), req.Notes)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toProjectResponse(p))
}

// ToggleCompletion はプロジェクトの完了フラグを切り替える。
// POST /api/projects/{id}/toggle
func (h *ProjectHandler) ToggleCompletion(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}

	p, err := h.service.ToggleCompletion(r.Context(), chi.URLParam(r, "id"), req.Completed)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toProjectResponse(p))
}

// GetStats はキャンペーンの集計結果を返す。
// GET /api/projects/{id}/stats
func (h *ProjectHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statsResponse{
		ProjectID:     stats.ProjectID,
		EmailsSent:    stats.EmailsSent,
		Clicks:        stats.Clicks,
		Submits:       stats.Submits,
		ClickPercent:  stats.ClickPercent,
		SubmitPercent: stats.SubmitPercent,
	})
}

// toProjectResponse はmodel.ProjectからAPIレスポンスに変換する。
func toProjectResponse(p *model.Project) projectResponse {
	return projectResponse{
		ID:         p.ID,
		Name:       p.Name,
		Notes:      p.Notes,
		Completed:  p.Completed,
		EmailsSent: p.EmailsSent,
		Clicks:     p.Clicks,
		Submits:    p.Submits,
	}
}
