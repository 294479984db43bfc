package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/domainkeeper/internal/model"
)

// PostgresDomainIdeaRepo はPostgreSQLを使用したドメイン候補リポジトリ。
type PostgresDomainIdeaRepo struct {
	db *sql.DB
}

// NewPostgresDomainIdeaRepo はPostgresDomainIdeaRepoを生成する。
func NewPostgresDomainIdeaRepo(db *sql.DB) *PostgresDomainIdeaRepo {
	return &PostgresDomainIdeaRepo{db: db}
}

// ListAll は全候補を作成日時昇順で返す。
func (r *PostgresDomainIdeaRepo) ListAll(ctx context.Context) ([]*model.DomainIdea, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, domain_name, created_at FROM domain_ideas ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("ドメイン候補一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var ideas []*model.DomainIdea
	for rows.Next() {
		idea := &model.DomainIdea{}
		if err := rows.Scan(&idea.ID, &idea.DomainName, &idea.CreatedAt); err != nil {
			return nil, fmt.Errorf("ドメイン候補行のスキャンに失敗しました: %w", err)
		}
		ideas = append(ideas, idea)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ドメイン候補行の走査に失敗しました: %w", err)
	}
	return ideas, nil
}

// FindByName はドメイン名で候補を検索する。見つからない場合はnilを返す。
func (r *PostgresDomainIdeaRepo) FindByName(ctx context.Context, domainName string) (*model.DomainIdea, error) {
	idea := &model.DomainIdea{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, domain_name, created_at FROM domain_ideas WHERE domain_name = $1`,
		domainName,
	).Scan(&idea.ID, &idea.DomainName, &idea.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ドメイン候補の検索に失敗しました: %w", err)
	}
	return idea, nil
}

// Create は候補を作成する。
func (r *PostgresDomainIdeaRepo) Create(ctx context.Context, idea *model.DomainIdea) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO domain_ideas (id, domain_name, created_at) VALUES ($1, $2, $3)`,
		idea.ID, idea.DomainName, idea.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("ドメイン候補の作成に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDの候補を削除する。存在しない場合もエラーにならない（冪等）。
func (r *PostgresDomainIdeaRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM domain_ideas WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("ドメイン候補の削除に失敗しました: %w", err)
	}
	return nil
}

// DeletePurchased はdomainsに同名のレコードが存在する候補を削除する。
// 名前の比較は大文字小文字を区別しない。削除した候補のドメイン名を返す。
func (r *PostgresDomainIdeaRepo) DeletePurchased(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`DELETE FROM domain_ideas
		 WHERE lower(domain_name) IN (SELECT lower(name) FROM domains)
		 RETURNING domain_name`)
	if err != nil {
		return nil, fmt.Errorf("購入済みドメイン候補の削除に失敗しました: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("削除済み候補行のスキャンに失敗しました: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("削除済み候補行の走査に失敗しました: %w", err)
	}
	return names, nil
}

// compile-time interface check
var _ DomainIdeaRepository = (*PostgresDomainIdeaRepo)(nil)
