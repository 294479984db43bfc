package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/domainkeeper/internal/model"
)

// PostgresDomainRepo はPostgreSQLを使用したドメインリポジトリ。
type PostgresDomainRepo struct {
	db *sql.DB
}

// NewPostgresDomainRepo はPostgresDomainRepoを生成する。
func NewPostgresDomainRepo(db *sql.DB) *PostgresDomainRepo {
	return &PostgresDomainRepo{db: db}
}

const domainColumns = `id, name, provider, purchased_at, expires_at, is_expired,
	        auto_renew, is_locked, assigned_project_id, last_used_project_id,
	        created_at, updated_at`

// scanDomain は1行分のドメインレコードをスキャンする。
func scanDomain(scanner interface{ Scan(...any) error }) (*model.Domain, error) {
	domain := &model.Domain{}
	var purchasedAt sql.NullTime
	var assignedProjectID, lastUsedProjectID sql.NullString

	err := scanner.Scan(
		&domain.ID, &domain.Name, &domain.Provider, &purchasedAt, &domain.ExpiresAt,
		&domain.IsExpired, &domain.AutoRenew, &domain.IsLocked,
		&assignedProjectID, &lastUsedProjectID,
		&domain.CreatedAt, &domain.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if purchasedAt.Valid {
		domain.PurchasedAt = purchasedAt.Time
	}
	domain.AssignedProjectID = nullStringValue(assignedProjectID)
	domain.LastUsedProjectID = nullStringValue(lastUsedProjectID)

	return domain, nil
}

// FindByID は指定IDのドメインを取得する。見つからない場合はnilを返す。
func (r *PostgresDomainRepo) FindByID(ctx context.Context, id string) (*model.Domain, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+domainColumns+` FROM domains WHERE id = $1`, id)

	domain, err := scanDomain(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ドメインの取得に失敗しました: %w", err)
	}
	return domain, nil
}

// FindByName はドメイン名でドメインを検索する。見つからない場合はnilを返す。
func (r *PostgresDomainRepo) FindByName(ctx context.Context, name string) (*model.Domain, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+domainColumns+` FROM domains WHERE name = $1`, name)

	domain, err := scanDomain(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ドメイン名によるドメインの検索に失敗しました: %w", err)
	}
	return domain, nil
}

// List は全ドメインを名前昇順で返す。
func (r *PostgresDomainRepo) List(ctx context.Context) ([]*model.Domain, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+domainColumns+` FROM domains ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("ドメイン一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectDomains(rows)
}

// ListExpiringBetween はexpires_atが[from, to]（両端を含む）に入るドメインを返す。
// 有効期限レポートタスクが30日先までの窓で使用する。
func (r *PostgresDomainRepo) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]*model.Domain, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+domainColumns+` FROM domains
		 WHERE expires_at >= $1 AND expires_at <= $2
		 ORDER BY expires_at ASC`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("有効期限範囲でのドメイン検索に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectDomains(rows)
}

// ListByAssignedProject は指定プロジェクトに割り当てられているドメインを返す。
func (r *PostgresDomainRepo) ListByAssignedProject(ctx context.Context, projectID string) ([]*model.Domain, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+domainColumns+` FROM domains
		 WHERE assigned_project_id = $1
		 ORDER BY name ASC`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("プロジェクト割り当てドメインの検索に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectDomains(rows)
}

// Update はドメインの可変フィールドを更新する。
func (r *PostgresDomainRepo) Update(ctx context.Context, domain *model.Domain) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE domains SET
		    provider = $2, purchased_at = $3, expires_at = $4, is_expired = $5,
		    auto_renew = $6, is_locked = $7, assigned_project_id = $8,
		    last_used_project_id = $9, updated_at = $10
		 WHERE id = $1`,
		domain.ID, domain.Provider, nullTime(domain.PurchasedAt), domain.ExpiresAt,
		domain.IsExpired, domain.AutoRenew, domain.IsLocked,
		nullString(domain.AssignedProjectID), nullString(domain.LastUsedProjectID),
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("ドメインの更新に失敗しました: %w", err)
	}
	return nil
}

// UpsertByName はドメイン名をキーに作成または更新する。
// レジストラ同期タスクが使用する。割り当て状態（assigned/last_used）は変更しない。
func (r *PostgresDomainRepo) UpsertByName(ctx context.Context, domain *model.Domain) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO domains (id, name, provider, purchased_at, expires_at, is_expired,
		                      auto_renew, is_locked, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (name) DO UPDATE SET
		    provider = EXCLUDED.provider,
		    purchased_at = EXCLUDED.purchased_at,
		    expires_at = EXCLUDED.expires_at,
		    is_expired = EXCLUDED.is_expired,
		    auto_renew = EXCLUDED.auto_renew,
		    is_locked = EXCLUDED.is_locked,
		    updated_at = EXCLUDED.updated_at`,
		domain.ID, domain.Name, domain.Provider, nullTime(domain.PurchasedAt), domain.ExpiresAt,
		domain.IsExpired, domain.AutoRenew, domain.IsLocked,
		domain.CreatedAt, domain.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ドメインのUPSERTに失敗しました: %w", err)
	}
	return nil
}

// ReleaseFromProject は割り当てを解除しlast_used_project_idを設定する。
// assigned_project_idが一致しない場合は何も変更しない（再実行しても収束する）。
func (r *PostgresDomainRepo) ReleaseFromProject(ctx context.Context, domainID, projectID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE domains SET
		    assigned_project_id = NULL,
		    last_used_project_id = $2,
		    updated_at = now()
		 WHERE id = $1 AND assigned_project_id = $2`,
		domainID, projectID,
	)
	if err != nil {
		return fmt.Errorf("ドメインの割り当て解除に失敗しました: %w", err)
	}
	return nil
}

// collectDomains はクエリ結果の全行をスキャンして返す。
func collectDomains(rows *sql.Rows) ([]*model.Domain, error) {
	var domains []*model.Domain
	for rows.Next() {
		domain, err := scanDomain(rows)
		if err != nil {
			return nil, fmt.Errorf("ドメイン行のスキャンに失敗しました: %w", err)
		}
		domains = append(domains, domain)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ドメイン行の走査に失敗しました: %w", err)
	}
	return domains, nil
}

// nullString は空文字列をNULLに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はNULLを空文字列に変換する。
func nullStringValue(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}

// nullTime はゼロ値の時刻をNULLに変換する。
func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

// compile-time interface check
var _ DomainRepository = (*PostgresDomainRepo)(nil)
