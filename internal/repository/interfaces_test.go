package repository

import "testing"

// 各Postgres実装が対応するインターフェースを満たすことを検証
func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ DomainIdeaRepository = (*PostgresDomainIdeaRepo)(nil)
	var _ ProjectRepository = (*PostgresProjectRepo)(nil)
	var _ UserRepository = (*PostgresUserRepo)(nil)
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
}

func TestNewRepos_Initialize(t *testing.T) {
	if NewPostgresDomainIdeaRepo(nil) == nil {
		t.Fatal("expected non-nil idea repo")
	}
	if NewPostgresProjectRepo(nil) == nil {
		t.Fatal("expected non-nil project repo")
	}
	if NewPostgresUserRepo(nil) == nil {
		t.Fatal("expected non-nil user repo")
	}
	if NewPostgresSessionRepo(nil) == nil {
		t.Fatal("expected non-nil session repo")
	}
}
