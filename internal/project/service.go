// Package project はフィッシング訓練キャンペーンの業務ロジックを提供する。
package project

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/domainkeeper/internal/model"
	"github.com/hitoshi/domainkeeper/internal/repository"
	"github.com/hitoshi/domainkeeper/internal/security"
)

// Service はキャンペーンの作成・完了切り替え・集計を担当する。
type Service struct {
	projects  repository.ProjectRepository
	domains   repository.DomainRepository
	sanitizer security.NotesSanitizerService
	logger    *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
// メモ欄は許可リストベースのポリシーでHTMLサニタイズされる。
func NewService(projects repository.ProjectRepository, domains repository.DomainRepository, logger *slog.Logger) *Service {
	return &Service{
		projects:  projects,
		domains:   domains,
		sanitizer: security.NewNotesSanitizer(),
		logger:    logger,
	}
}

// Create は新しいキャンペーンを作成する。メモ欄はHTMLサニタイズされる。
func (s *Service) Create(ctx context.Context, name, notes string) (*model.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.NewInvalidProjectError("プロジェクト名が空です")
	}

	now := time.Now()
	p := &model.Project{
		ID:        uuid.New().String(),
		Name:      name,
		Notes:     s.sanitizer.Sanitize(notes),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("プロジェクトの作成に失敗しました: %w", err)
	}

	s.logger.Info("プロジェクトを作成しました",
		slog.String("project_id", p.ID),
		slog.String("name", p.Name),
	)
	return p, nil
}

// List は全キャンペーンを返す。
func (s *Service) List(ctx context.Context) ([]*model.Project, error) {
	return s.projects.List(ctx)
}

// Get は指定IDのキャンペーンを返す。見つからない場合はAPIエラーを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Project, error) {
	p, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewProjectNotFoundError(id)
	}
	return p, nil
}

// ToggleCompletion はキャンペーンの完了フラグを設定する。
// 未完了から完了への遷移時は、割り当て済みドメインを全て解放し、
// 各ドメインのlast_used_project_idに当該キャンペーンを記録する。
// 完了から未完了への遷移ではドメインの状態は変更しない。
func (s *Service) ToggleCompletion(ctx context.Context, id string, completed bool) (*model.Project, error) {
	p, err := s.projects.SetCompleted(ctx, id, completed)
	if err != nil {
		return nil, fmt.Errorf("完了フラグの更新に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewProjectNotFoundError(id)
	}

	if !p.Completed {
		return p, nil
	}

	// 完了時: 割り当て済みドメインを解放する
	assigned, err := s.domains.ListByAssignedProject(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("割り当てドメインの取得に失敗しました: %w", err)
	}

	released := 0
	for _, d := range assigned {
		if err := s.domains.ReleaseFromProject(ctx, d.ID, p.ID); err != nil {
			return nil, fmt.Errorf("ドメインの解放に失敗しました (%s): %w", d.Name, err)
		}
		released++
	}

	s.logger.Info("プロジェクトを完了しました",
		slog.String("project_id", p.ID),
		slog.Int("released_domains", released),
	)
	return p, nil
}

// UpdateNotes はメモ欄をサニタイズした上で更新する。
func (s *Service) UpdateNotes(ctx context.Context, id, notes string) (*model.Project, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Notes = s.sanitizer.Sanitize(notes)
	if err := s.projects.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("メモの更新に失敗しました: %w", err)
	}
	return p, nil
}

// Stats はキャンペーンの集計結果を返す。
// クリック率と送信率はメール送信数を分母とした四捨五入パーセント。
func (s *Service) Stats(ctx context.Context, id string) (*model.ProjectStats, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return &model.ProjectStats{
		ProjectID:     p.ID,
		EmailsSent:    p.EmailsSent,
		Clicks:        p.Clicks,
		Submits:       p.Submits,
		ClickPercent:  model.Percentage(p.EmailsSent, p.Clicks),
		SubmitPercent: model.Percentage(p.EmailsSent, p.Submits),
	}, nil
}
