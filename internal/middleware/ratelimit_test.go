package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/domainkeeper/internal/model"
	"github.com/hitoshi/domainkeeper/internal/session"
)

func limitedRequest(t *testing.T, mw func(next http.Handler) http.Handler, userID string) *httptest.ResponseRecorder {
	t.Helper()

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	snap := session.Snapshot{Valid: true, UserID: userID, Role: model.RoleOperator}
	req := httptest.NewRequest(http.MethodGet, "/api/domains", nil)
	req = req.WithContext(ContextWithSnapshot(req.Context(), snap))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGeneralRateLimitExceeded(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     rate.Limit(1),
		GeneralBurst:    2,
		MutationRate:    rate.Limit(1),
		MutationBurst:   1,
		CleanupInterval: time.Minute,
	})
	defer rl.Stop()

	mw := rl.GeneralMiddleware()

	// バースト分は許可される
	for i := 0; i < 2; i++ {
		if rec := limitedRequest(t, mw, "u1"); rec.Code != http.StatusOK {
			t.Fatalf("バースト内のリクエストが拒否された: %d", rec.Code)
		}
	}

	// バースト超過で429
	rec := limitedRequest(t, mw, "u1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("ステータスコードが不正: got %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-Afterヘッダーが設定されていない")
	}
}

func TestRateLimitIsPerUser(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     rate.Limit(1),
		GeneralBurst:    1,
		MutationRate:    rate.Limit(1),
		MutationBurst:   1,
		CleanupInterval: time.Minute,
	})
	defer rl.Stop()

	mw := rl.GeneralMiddleware()

	if rec := limitedRequest(t, mw, "u1"); rec.Code != http.StatusOK {
		t.Fatalf("最初のリクエストが拒否された: %d", rec.Code)
	}
	if rec := limitedRequest(t, mw, "u1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("u1の2回目のリクエストが許可された: %d", rec.Code)
	}
	// 別ユーザーは独立したリミッターを持つ
	if rec := limitedRequest(t, mw, "u2"); rec.Code != http.StatusOK {
		t.Fatalf("別ユーザーのリクエストが拒否された: %d", rec.Code)
	}

	if rl.GeneralLimiterCount() != 2 {
		t.Errorf("リミッターのエントリ数が不正: got %d, want 2", rl.GeneralLimiterCount())
	}
}

func TestMutationRateLimitIsIndependent(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     rate.Limit(1),
		GeneralBurst:    10,
		MutationRate:    rate.Limit(1),
		MutationBurst:   1,
		CleanupInterval: time.Minute,
	})
	defer rl.Stop()

	general := rl.GeneralMiddleware()
	mutation := rl.MutationMiddleware()

	if rec := limitedRequest(t, mutation, "u1"); rec.Code != http.StatusOK {
		t.Fatalf("最初の変更操作が拒否された: %d", rec.Code)
	}
	if rec := limitedRequest(t, mutation, "u1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("変更操作のバースト超過が許可された: %d", rec.Code)
	}
	// 全般リミッターには影響しない
	if rec := limitedRequest(t, general, "u1"); rec.Code != http.StatusOK {
		t.Fatalf("変更操作の制限が全般リミッターに波及した: %d", rec.Code)
	}
}

func TestRateLimitWithoutSession(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/domains", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("ステータスコードが不正: got %d, want 401", rec.Code)
	}
}
