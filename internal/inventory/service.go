// Package inventory はドメインインベントリとドメイン候補の業務ロジックを提供する。
package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/domainkeeper/internal/model"
	"github.com/hitoshi/domainkeeper/internal/repository"
)

// domainNamePattern はドメイン名の形式を検証する。
// 英数字とハイフンのラベルをドットで連結した形式（例: example.com）。
var domainNamePattern = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`)

// Service はドメインと候補の参照・更新を担当する。
type Service struct {
	domains repository.DomainRepository
	ideas   repository.DomainIdeaRepository
	logger  *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(domains repository.DomainRepository, ideas repository.DomainIdeaRepository, logger *slog.Logger) *Service {
	return &Service{
		domains: domains,
		ideas:   ideas,
		logger:  logger,
	}
}

// ListDomains は全ドメインを返す。
func (s *Service) ListDomains(ctx context.Context) ([]*model.Domain, error) {
	return s.domains.List(ctx)
}

// GetDomain は指定IDのドメインを返す。見つからない場合はAPIエラーを返す。
func (s *Service) GetDomain(ctx context.Context, id string) (*model.Domain, error) {
	d, err := s.domains.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ドメインの取得に失敗しました: %w", err)
	}
	if d == nil {
		return nil, model.NewDomainNotFoundError(id)
	}
	return d, nil
}

// DomainPatch はドメインの部分更新の内容。nilのフィールドは変更しない。
type DomainPatch struct {
	AutoRenew         *bool
	IsLocked          *bool
	AssignedProjectID *string // 空文字列で割り当て解除
}

// UpdateDomain はドメインの運用フィールドを部分更新する。
func (s *Service) UpdateDomain(ctx context.Context, id string, patch DomainPatch) (*model.Domain, error) {
	d, err := s.GetDomain(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.AutoRenew != nil {
		d.AutoRenew = *patch.AutoRenew
	}
	if patch.IsLocked != nil {
		d.IsLocked = *patch.IsLocked
	}
	if patch.AssignedProjectID != nil {
		d.AssignedProjectID = *patch.AssignedProjectID
	}

	if err := s.domains.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("ドメインの更新に失敗しました: %w", err)
	}

	s.logger.Info("ドメインを更新しました",
		slog.String("domain_id", d.ID),
		slog.String("name", d.Name),
	)
	return d, nil
}

// ListIdeas は全ドメイン候補を返す。
func (s *Service) ListIdeas(ctx context.Context) ([]*model.DomainIdea, error) {
	return s.ideas.ListAll(ctx)
}

// AddIdea はドメイン候補を追加する。
// 名前は小文字に正規化され、形式検証と重複チェックを行う。
// 既に購入済みドメインとして登録されている名前は候補にできない
// （クリーンアップジョブで即削除される候補を作らせない）。
func (s *Service) AddIdea(ctx context.Context, domainName string) (*model.DomainIdea, error) {
	name := NormalizeDomainName(domainName)
	if name == "" {
		return nil, model.NewInvalidDomainNameError("ドメイン名が空です")
	}
	if !domainNamePattern.MatchString(name) {
		return nil, model.NewInvalidDomainNameError(name)
	}

	owned, err := s.domains.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("購入済みドメインの確認に失敗しました: %w", err)
	}
	if owned != nil {
		return nil, model.NewDomainAlreadyOwnedError(name)
	}

	existing, err := s.ideas.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("候補の重複チェックに失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateIdeaError(name)
	}

	idea := &model.DomainIdea{
		ID:         uuid.New().String(),
		DomainName: name,
		CreatedAt:  time.Now(),
	}
	if err := s.ideas.Create(ctx, idea); err != nil {
		return nil, fmt.Errorf("候補の作成に失敗しました: %w", err)
	}

	s.logger.Info("ドメイン候補を追加しました",
		slog.String("idea_id", idea.ID),
		slog.String("domain_name", name),
	)
	return idea, nil
}

// RemoveIdea はドメイン候補を削除する。存在しない場合もエラーにならない。
func (s *Service) RemoveIdea(ctx context.Context, id string) error {
	if err := s.ideas.Delete(ctx, id); err != nil {
		return fmt.Errorf("候補の削除に失敗しました: %w", err)
	}
	return nil
}

// NormalizeDomainName はドメイン名を比較用に正規化する。
// 前後の空白を除去し、小文字に変換し、末尾のドットを落とす。
func NormalizeDomainName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return strings.TrimSuffix(name, ".")
}
