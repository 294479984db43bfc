package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/domainkeeper/internal/model"
)

type mockUserRepo struct {
	user    *model.User
	created *model.User
	err     error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.user, m.err
}
func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.user, m.err
}
func (m *mockUserRepo) Create(ctx context.Context, u *model.User) error {
	m.created = u
	return nil
}

type mockSessionRepo struct {
	created *model.Session
	deleted string
	err     error
}

func (m *mockSessionRepo) Create(ctx context.Context, s *model.Session) error {
	m.created = s
	return m.err
}
func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return nil, nil
}
func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	m.deleted = id
	return m.err
}
func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) { return 0, nil }

func testUser(t *testing.T, password string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcryptハッシュの生成に失敗: %v", err)
	}
	return &model.User{
		ID:           "user-1",
		Email:        "op@example.com",
		Name:         "operator",
		PasswordHash: string(hash),
		Role:         model.RoleOperator,
	}
}

func TestLogin_Success(t *testing.T) {
	userRepo := &mockUserRepo{user: testUser(t, "correct-password")}
	sessionRepo := &mockSessionRepo{}
	svc := NewService(userRepo, sessionRepo, ServiceConfig{SessionMaxAge: 3600})

	sess, user, err := svc.Login(context.Background(), "op@example.com", "correct-password")
	if err != nil {
		t.Fatalf("Login がエラーを返した: %v", err)
	}
	if sess == nil || user == nil {
		t.Fatal("セッションとユーザーが返るべき")
	}
	if sess.UserID != "user-1" {
		t.Errorf("sess.UserID = %q, want %q", sess.UserID, "user-1")
	}
	if len(sess.ID) != 64 {
		t.Errorf("セッションIDは32バイトのhex（64文字）であるべき: len=%d", len(sess.ID))
	}
	if sessionRepo.created == nil {
		t.Fatal("セッションがストアに作成されるべき")
	}

	wantExpiry := time.Now().Add(time.Hour)
	if sess.ExpiresAt.Before(wantExpiry.Add(-time.Minute)) || sess.ExpiresAt.After(wantExpiry.Add(time.Minute)) {
		t.Errorf("ExpiresAt = %v, want ~%v", sess.ExpiresAt, wantExpiry)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	userRepo := &mockUserRepo{user: testUser(t, "correct-password")}
	svc := NewService(userRepo, &mockSessionRepo{}, ServiceConfig{SessionMaxAge: 3600})

	_, _, err := svc.Login(context.Background(), "op@example.com", "wrong-password")
	if err == nil {
		t.Fatal("パスワード不一致のときLoginはエラーを返すべき")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredentials {
		t.Errorf("INVALID_CREDENTIALSエラーが返るべき: %v", err)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	svc := NewService(&mockUserRepo{user: nil}, &mockSessionRepo{}, ServiceConfig{SessionMaxAge: 3600})

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	if err == nil {
		t.Fatal("ユーザー不在のときLoginはエラーを返すべき")
	}

	// ユーザー不在とパスワード不一致は同一エラーコード
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredentials {
		t.Errorf("INVALID_CREDENTIALSエラーが返るべき: %v", err)
	}
}

func TestLogin_StoreError(t *testing.T) {
	storeErr := errors.New("connection refused")
	svc := NewService(&mockUserRepo{err: storeErr}, &mockSessionRepo{}, ServiceConfig{SessionMaxAge: 3600})

	_, _, err := svc.Login(context.Background(), "op@example.com", "pw")
	if err == nil {
		t.Fatal("ストア障害のときLoginはエラーを返すべき")
	}
	if !errors.Is(err, storeErr) {
		t.Errorf("元のエラーがラップされているべき: %v", err)
	}
}

func TestLogout_DeletesSession(t *testing.T) {
	sessionRepo := &mockSessionRepo{}
	svc := NewService(&mockUserRepo{}, sessionRepo, ServiceConfig{SessionMaxAge: 3600})

	if err := svc.Logout(context.Background(), "sess-1"); err != nil {
		t.Fatalf("Logout がエラーを返した: %v", err)
	}
	if sessionRepo.deleted != "sess-1" {
		t.Errorf("削除されたセッションID = %q, want %q", sessionRepo.deleted, "sess-1")
	}
}

func TestLogout_EmptySessionID(t *testing.T) {
	sessionRepo := &mockSessionRepo{}
	svc := NewService(&mockUserRepo{}, sessionRepo, ServiceConfig{SessionMaxAge: 3600})

	if err := svc.Logout(context.Background(), ""); err != nil {
		t.Fatalf("空のセッションIDでLogoutはエラーを返すべきでない: %v", err)
	}
	if sessionRepo.deleted != "" {
		t.Error("空のセッションIDでは削除を行うべきでない")
	}
}

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword がエラーを返した: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")); err != nil {
		t.Errorf("生成したハッシュが元のパスワードと照合できない: %v", err)
	}
}

func TestCreateUser_Success(t *testing.T) {
	userRepo := &mockUserRepo{}
	svc := NewService(userRepo, &mockSessionRepo{}, ServiceConfig{SessionMaxAge: 3600})

	user, err := svc.CreateUser(context.Background(), " Admin@Example.com ", "admin", "long-enough-password", model.RoleAdmin)
	if err != nil {
		t.Fatalf("CreateUser がエラーを返した: %v", err)
	}

	if userRepo.created == nil {
		t.Fatal("リポジトリにユーザーが保存されていない")
	}
	if user.ID == "" {
		t.Error("IDが採番されていない")
	}
	if user.Email != "admin@example.com" {
		t.Errorf("メールアドレスが正規化されていない: %q", user.Email)
	}
	if user.PasswordHash == "long-enough-password" {
		t.Error("パスワードが平文のまま保存されている")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("long-enough-password")); err != nil {
		t.Errorf("保存されたハッシュが元のパスワードと照合できない: %v", err)
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("作成・更新時刻が設定されていない")
	}
}

func TestCreateUser_ValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		role     model.Role
	}{
		{"メールアドレスなし", "", "long-enough-password", model.RoleViewer},
		{"アットマークなし", "not-an-email", "long-enough-password", model.RoleViewer},
		{"パスワードが短い", "a@example.com", "short", model.RoleViewer},
		{"未定義のロール", "a@example.com", "long-enough-password", model.Role("superuser")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userRepo := &mockUserRepo{}
			svc := NewService(userRepo, &mockSessionRepo{}, ServiceConfig{SessionMaxAge: 3600})

			if _, err := svc.CreateUser(context.Background(), tt.email, "", tt.password, tt.role); err == nil {
				t.Error("検証エラーが返されなかった")
			}
			if userRepo.created != nil {
				t.Error("検証エラー時にユーザーが保存された")
			}
		})
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	userRepo := &mockUserRepo{user: testUser(t, "correct-password")}
	svc := NewService(userRepo, &mockSessionRepo{}, ServiceConfig{SessionMaxAge: 3600})

	if _, err := svc.CreateUser(context.Background(), "op@example.com", "op", "long-enough-password", model.RoleOperator); err == nil {
		t.Error("重複メールアドレスのエラーが返されなかった")
	}
	if userRepo.created != nil {
		t.Error("重複メールアドレスでユーザーが保存された")
	}
}
