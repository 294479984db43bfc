package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/domainkeeper/internal/model"
)

// PostgresProjectRepo はPostgreSQLを使用したプロジェクトリポジトリ。
type PostgresProjectRepo struct {
	db *sql.DB
}

// NewPostgresProjectRepo はPostgresProjectRepoを生成する。
func NewPostgresProjectRepo(db *sql.DB) *PostgresProjectRepo {
	return &PostgresProjectRepo{db: db}
}

const projectColumns = `id, name, notes, completed, emails_sent, clicks, submits,
	        created_at, updated_at`

// FindByID は指定IDのプロジェクトを取得する。見つからない場合はnilを返す。
func (r *PostgresProjectRepo) FindByID(ctx context.Context, id string) (*model.Project, error) {
	project := &model.Project{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`,
		id,
	).Scan(
		&project.ID, &project.Name, &project.Notes, &project.Completed,
		&project.EmailsSent, &project.Clicks, &project.Submits,
		&project.CreatedAt, &project.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの取得に失敗しました: %w", err)
	}
	return project, nil
}

// List は全プロジェクトを作成日時降順で返す。
func (r *PostgresProjectRepo) List(ctx context.Context) ([]*model.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var projects []*model.Project
	for rows.Next() {
		project := &model.Project{}
		err := rows.Scan(
			&project.ID, &project.Name, &project.Notes, &project.Completed,
			&project.EmailsSent, &project.Clicks, &project.Submits,
			&project.CreatedAt, &project.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("プロジェクト行のスキャンに失敗しました: %w", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("プロジェクト行の走査に失敗しました: %w", err)
	}
	return projects, nil
}

// Create はプロジェクトを作成する。
func (r *PostgresProjectRepo) Create(ctx context.Context, project *model.Project) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, notes, completed, emails_sent, clicks, submits,
		                       created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		project.ID, project.Name, project.Notes, project.Completed,
		project.EmailsSent, project.Clicks, project.Submits,
		project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("プロジェクトの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はプロジェクトの可変フィールドを更新する。
func (r *PostgresProjectRepo) Update(ctx context.Context, project *model.Project) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE projects
		 SET name = $2, notes = $3, emails_sent = $4, clicks = $5, submits = $6,
		     updated_at = $7
		 WHERE id = $1`,
		project.ID, project.Name, project.Notes,
		project.EmailsSent, project.Clicks, project.Submits,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("プロジェクトの更新に失敗しました: %w", err)
	}
	return nil
}

// SetCompleted は完了フラグを1回の更新で書き換え、更新後のプロジェクトを返す。
// 見つからない場合はnilを返す。
func (r *PostgresProjectRepo) SetCompleted(ctx context.Context, id string, completed bool) (*model.Project, error) {
	project := &model.Project{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE projects SET completed = $2, updated_at = $3
		 WHERE id = $1
		 RETURNING `+projectColumns,
		id, completed, time.Now(),
	).Scan(
		&project.ID, &project.Name, &project.Notes, &project.Completed,
		&project.EmailsSent, &project.Clicks, &project.Submits,
		&project.CreatedAt, &project.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("プロジェクト完了フラグの更新に失敗しました: %w", err)
	}
	return project, nil
}

// compile-time interface check
var _ ProjectRepository = (*PostgresProjectRepo)(nil)
