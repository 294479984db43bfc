package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/domainkeeper/internal/middleware"
	"github.com/hitoshi/domainkeeper/internal/model"
	"github.com/hitoshi/domainkeeper/internal/session"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()

	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rl.Stop)

	resolver := &mockSnapshotResolver{
		snapshots: map[string]session.Snapshot{
			"viewer-session":   {Valid: true, UserID: "u-viewer", Email: "v@example.com", Role: model.RoleViewer},
			"operator-session": {Valid: true, UserID: "u-op", Email: "op@example.com", Role: model.RoleOperator},
		},
	}

	return NewRouter(&RouterDeps{
		SnapshotResolver:  resolver,
		CORSAllowedOrigin: "http://localhost:5173",
		RateLimiter:       rl,
		AuthService:       &mockAuthService{},
		AuthConfig:        AuthHandlerConfig{SessionMaxAge: 86400},
		DomainService:     &mockDomainService{byID: map[string]*model.Domain{}},
		IdeaService:       &mockIdeaService{},
		ProjectService:    newMockProjectService(),
		HealthHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	})
}

// apiRequest はCSRFトークンとセッションCookieを設定したリクエストを実行する。
func apiRequest(router http.Handler, method, target, sessionID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: "session_id", Value: sessionID})
	}
	// 状態変更メソッド用のCSRFトークン
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "test-token"})
	req.Header.Set("X-CSRF-Token", "test-token")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouterUnauthenticatedAPIRequest(t *testing.T) {
	router := testRouter(t)

	rec := apiRequest(router, http.MethodGet, "/api/domains", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("ステータスコードが不正: got %d, want 401", rec.Code)
	}
}

func TestRouterViewerCanRead(t *testing.T) {
	router := testRouter(t)

	rec := apiRequest(router, http.MethodGet, "/api/domains", "viewer-session", "")
	if rec.Code != http.StatusOK {
		t.Errorf("閲覧者の読み取りが拒否された: %d", rec.Code)
	}
}

func TestRouterViewerCannotMutate(t *testing.T) {
	router := testRouter(t)

	rec := apiRequest(router, http.MethodPost, "/api/ideas", "viewer-session",
		`{"domain_name":"example.com"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("ステータスコードが不正: got %d, want 403", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "FORBIDDEN") {
		t.Errorf("統一エラーフォーマットになっていない: %s", rec.Body.String())
	}
}

func TestRouterOperatorCanMutate(t *testing.T) {
	router := testRouter(t)

	rec := apiRequest(router, http.MethodPost, "/api/ideas", "operator-session",
		`{"domain_name":"example.com"}`)
	if rec.Code != http.StatusCreated {
		t.Errorf("編集権限のある変更操作が拒否された: %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestRouterCSRFRequiredForMutation(t *testing.T) {
	router := testRouter(t)

	// CSRFトークンなしのPOSTは拒否される
	req := httptest.NewRequest(http.MethodPost, "/api/ideas", strings.NewReader(`{"domain_name":"example.com"}`))
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "operator-session"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("CSRFトークンなしの変更操作が許可された: %d", rec.Code)
	}
}

func TestRouterHealthIsPublic(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("ヘルスチェックが認証を要求した: %d", rec.Code)
	}
}

func TestRouterSecurityHeaders(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("セキュリティヘッダーが設定されていない")
	}
}
