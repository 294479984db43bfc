package sync

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/domainkeeper/internal/metrics"
	"github.com/hitoshi/domainkeeper/internal/model"
	"github.com/hitoshi/domainkeeper/internal/registrar"
)

// mockProvider はregistrar.Providerのモック実装。
type mockProvider struct {
	records []registrar.Record
	err     error
}

func (m *mockProvider) Name() string { return "MockRegistrar" }

func (m *mockProvider) ListDomains(_ context.Context) ([]registrar.Record, error) {
	return m.records, m.err
}

// mockDomainRepo はDomainRepositoryのモック実装。UPSERTのみ記録する。
type mockDomainRepo struct {
	upserted   []*model.Domain
	upsertErrs map[string]error
}

func (m *mockDomainRepo) FindByID(ctx context.Context, id string) (*model.Domain, error) {
	return nil, nil
}

func (m *mockDomainRepo) FindByName(ctx context.Context, name string) (*model.Domain, error) {
	return nil, nil
}

func (m *mockDomainRepo) List(ctx context.Context) ([]*model.Domain, error) { return nil, nil }

func (m *mockDomainRepo) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]*model.Domain, error) {
	return nil, nil
}

func (m *mockDomainRepo) ListByAssignedProject(ctx context.Context, projectID string) ([]*model.Domain, error) {
	return nil, nil
}

func (m *mockDomainRepo) Update(ctx context.Context, domain *model.Domain) error { return nil }

func (m *mockDomainRepo) UpsertByName(ctx context.Context, domain *model.Domain) error {
	if err, ok := m.upsertErrs[domain.Name]; ok {
		return err
	}
	m.upserted = append(m.upserted, domain)
	return nil
}

func (m *mockDomainRepo) ReleaseFromProject(ctx context.Context, domainID, projectID string) error {
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
}

func TestSyncJobRun(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	provider := &mockProvider{
		records: []registrar.Record{
			{
				Name:        "active.com",
				PurchasedAt: now.AddDate(-1, 0, 0),
				ExpiresAt:   now.AddDate(0, 6, 0),
				AutoRenew:   true,
				IsLocked:    true,
			},
			{
				Name:      "expired.net",
				ExpiresAt: now.AddDate(0, 0, -10),
			},
		},
	}
	repo := &mockDomainRepo{}

	job := NewSyncJob(provider, repo, metrics.Nop{}, discardLogger())
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("ジョブの実行に失敗: %v", err)
	}

	if len(repo.upserted) != 2 {
		t.Fatalf("UPSERT件数が不正: got %d, want 2", len(repo.upserted))
	}

	first := repo.upserted[0]
	if first.Name != "active.com" {
		t.Errorf("ドメイン名が不正: %s", first.Name)
	}
	if first.Provider != "MockRegistrar" {
		t.Errorf("レジストラ名が設定されていない: %s", first.Provider)
	}
	if first.IsExpired {
		t.Error("有効なドメインが期限切れ判定されている")
	}
	if !first.AutoRenew || !first.IsLocked {
		t.Error("フラグが引き継がれていない")
	}

	second := repo.upserted[1]
	if !second.IsExpired {
		t.Error("期限切れドメインが期限切れ判定されていない")
	}
}

// 新規挿入はid・created_at・updated_atのNOT NULL列を満たす必要がある。
func TestSyncJobRunPopulatesInsertColumns(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	provider := &mockProvider{
		records: []registrar.Record{
			{Name: "fresh.com", ExpiresAt: now.AddDate(1, 0, 0)},
		},
	}
	repo := &mockDomainRepo{}

	job := NewSyncJob(provider, repo, metrics.Nop{}, discardLogger())
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("ジョブの実行に失敗: %v", err)
	}
	if len(repo.upserted) != 1 {
		t.Fatalf("UPSERT件数が不正: got %d, want 1", len(repo.upserted))
	}

	d := repo.upserted[0]
	if d.ID == "" {
		t.Error("IDが採番されていない")
	}
	if d.CreatedAt.IsZero() {
		t.Error("created_atがゼロ値のまま渡されている")
	}
	if d.UpdatedAt.IsZero() {
		t.Error("updated_atがゼロ値のまま渡されている")
	}
}

func TestSyncJobRunProviderError(t *testing.T) {
	provider := &mockProvider{err: errors.New("api unavailable")}
	job := NewSyncJob(provider, &mockDomainRepo{}, metrics.Nop{}, discardLogger())

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("レジストラAPIエラーが返されなかった")
	}
}

func TestSyncJobRunContinuesAfterUpsertFailure(t *testing.T) {
	provider := &mockProvider{
		records: []registrar.Record{
			{Name: "bad.com"},
			{Name: "good.com"},
		},
	}
	repo := &mockDomainRepo{
		upsertErrs: map[string]error{"bad.com": errors.New("constraint violation")},
	}

	job := NewSyncJob(provider, repo, metrics.Nop{}, discardLogger())

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("UPSERT失敗のエラーが返されなかった")
	}
	// 失敗後も残りのドメインは同期される
	if len(repo.upserted) != 1 || repo.upserted[0].Name != "good.com" {
		t.Errorf("失敗後の同期が継続されていない: %v", repo.upserted)
	}
}

func TestSyncJobName(t *testing.T) {
	job := NewSyncJob(&mockProvider{}, &mockDomainRepo{}, metrics.Nop{}, nil)
	if job.Name() != "registrar-sync" {
		t.Errorf("タスク名が不正: %s", job.Name())
	}
}
